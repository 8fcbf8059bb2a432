package audit

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/db"
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

const auditCols = `id, user_id, action, resource_type, resource_id, details,
	ip_address, user_agent, session_id, recorded_at`

func (r *repoPG) Append(ctx context.Context, e *Entry) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_logs (
			id, user_id, action, resource_type, resource_id, details,
			ip_address, user_agent, session_id, recorded_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		e.ID, e.UserID, e.Action, e.ResourceType, e.ResourceID, e.Details,
		nullable(e.IPAddress), nullable(e.UserAgent), nullable(e.SessionID), e.RecordedAt,
	)
	return err
}

func (r *repoPG) History(ctx context.Context, resourceType, resourceID string, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_logs WHERE resource_type = $1 AND resource_id = $2`,
		resourceType, resourceID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+auditCols+` FROM audit_logs
		 WHERE resource_type = $1 AND resource_id = $2
		 ORDER BY recorded_at DESC LIMIT $3 OFFSET $4`,
		resourceType, resourceID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectEntries(rows, total)
}

func (r *repoPG) HistoryForUser(ctx context.Context, userID string, limit, offset int) ([]*Entry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_logs WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+auditCols+` FROM audit_logs
		 WHERE user_id = $1 ORDER BY recorded_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectEntries(rows, total)
}

func collectEntries(rows pgx.Rows, total int) ([]*Entry, int, error) {
	var entries []*Entry
	for rows.Next() {
		var e Entry
		var ip, ua, sid *string
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Action, &e.ResourceType, &e.ResourceID, &e.Details,
			&ip, &ua, &sid, &e.RecordedAt,
		); err != nil {
			return nil, 0, err
		}
		e.IPAddress = strVal(ip)
		e.UserAgent = strVal(ua)
		e.SessionID = strVal(sid)
		entries = append(entries, &e)
	}
	return entries, total, rows.Err()
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
