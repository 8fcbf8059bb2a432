package discharge

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/apperror"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/db"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/pkg/pagination"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const requestCols = `id, patient_id, requested_by, reviewed_by, status, reason,
	review_note, requested_at, reviewed_at`

func (r *repoPG) CreateRequest(ctx context.Context, req *Request) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO discharge_requests (
			id, patient_id, requested_by, reviewed_by, status, reason,
			review_note, requested_at, reviewed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		req.ID, req.PatientID, req.RequestedBy, req.ReviewedBy, req.Status,
		nullable(req.Reason), nullable(req.ReviewNote), req.RequestedAt, req.ReviewedAt,
	)
	return err
}

func (r *repoPG) GetRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+requestCols+` FROM discharge_requests WHERE id = $1`, id)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("DischargeRequest", "discharge request not found")
	}
	return req, err
}

func (r *repoPG) UpdateRequest(ctx context.Context, req *Request) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE discharge_requests
		SET reviewed_by = $2, status = $3, review_note = $4, reviewed_at = $5
		WHERE id = $1`,
		req.ID, req.ReviewedBy, req.Status, nullable(req.ReviewNote), req.ReviewedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("DischargeRequest", "discharge request not found")
	}
	return nil
}

func (r *repoPG) HasOpenRequest(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM discharge_requests WHERE patient_id = $1 AND status = $2
		)`, patientID, StatusRequested).Scan(&ok)
	return ok, err
}

func (r *repoPG) ListRequests(ctx context.Context, status string, pg pagination.Params) ([]*Request, int, error) {
	where := ""
	args := []interface{}{}
	if status != "" {
		args = append(args, status)
		where = " WHERE status = $1"
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM discharge_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pg.Limit, pg.Offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+requestCols+` FROM discharge_requests`+where+
			fmt.Sprintf(` ORDER BY requested_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, rows.Err()
}

func (r *repoPG) CreateNotification(ctx context.Context, n *Notification) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO notifications (
			id, recipient_id, kind, message, reference_type, reference_id, read, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		n.ID, n.RecipientID, n.Kind, n.Message,
		nullable(n.ReferenceType), nullable(n.ReferenceID), n.Read, n.CreatedAt,
	)
	return err
}

func (r *repoPG) ListNotifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, pg pagination.Params) ([]*Notification, int, error) {
	where := ` WHERE recipient_id = $1`
	if unreadOnly {
		where += ` AND NOT read`
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications`+where, recipientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, recipient_id, kind, message, reference_type, reference_id, read, created_at
		FROM notifications`+where+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		recipientID, pg.Limit, pg.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var n Notification
		var refType, refID *string
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Kind, &n.Message,
			&refType, &refID, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		n.ReferenceType = strVal(refType)
		n.ReferenceID = strVal(refID)
		out = append(out, &n)
	}
	return out, total, rows.Err()
}

func (r *repoPG) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Notification", "notification not found")
	}
	return nil
}

func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	var reason, note *string
	if err := row.Scan(
		&req.ID, &req.PatientID, &req.RequestedBy, &req.ReviewedBy, &req.Status,
		&reason, &note, &req.RequestedAt, &req.ReviewedAt,
	); err != nil {
		return nil, err
	}
	req.Reason = strVal(reason)
	req.ReviewNote = strVal(note)
	return &req, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
