package treatment

import (
	"context"
	"errors"

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

const recordCols = `id, patient_id, clinician_id, appointment_id, session_date, session_type,
	notes, goals, interventions, progress, next_session_plan, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatment_records (
			id, patient_id, clinician_id, appointment_id, session_date, session_type,
			notes, goals, interventions, progress, next_session_plan, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		rec.ID, rec.PatientID, rec.ClinicianID, rec.AppointmentID, rec.SessionDate, rec.SessionType,
		rec.Notes, nullable(rec.Goals), nullable(rec.Interventions), nullable(rec.Progress),
		nullable(rec.NextSessionPlan), rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM treatment_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("TreatmentRecord", "treatment record not found")
	}
	return rec, err
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE treatment_records SET
			session_date = $2, session_type = $3, notes = $4, goals = $5,
			interventions = $6, progress = $7, next_session_plan = $8, updated_at = $9
		WHERE id = $1`,
		rec.ID, rec.SessionDate, rec.SessionType, rec.Notes, nullable(rec.Goals),
		nullable(rec.Interventions), nullable(rec.Progress), nullable(rec.NextSessionPlan),
		rec.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("TreatmentRecord", "treatment record not found")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM treatment_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("TreatmentRecord", "treatment record not found")
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, pg pagination.Params) ([]*Record, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM treatment_records WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+recordCols+` FROM treatment_records
		 WHERE patient_id = $1 ORDER BY session_date DESC LIMIT $2 OFFSET $3`,
		patientID, pg.Limit, pg.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (r *repoPG) CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM treatment_records WHERE patient_id = $1`, patientID).Scan(&n)
	return n, err
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var goals, interventions, progress, plan *string
	if err := row.Scan(
		&rec.ID, &rec.PatientID, &rec.ClinicianID, &rec.AppointmentID,
		&rec.SessionDate, &rec.SessionType, &rec.Notes,
		&goals, &interventions, &progress, &plan,
		&rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.Goals = strVal(goals)
	rec.Interventions = strVal(interventions)
	rec.Progress = strVal(progress)
	rec.NextSessionPlan = strVal(plan)
	return &rec, nil
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
