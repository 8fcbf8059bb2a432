package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/reference"
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

const apptCols = `id, patient_id, clinician_id, created_by, appointment_date,
	duration_minutes, appointment_type, status, notes, version, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (
			id, patient_id, clinician_id, created_by, appointment_date,
			duration_minutes, appointment_type, status, notes, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		a.ID, a.PatientID, a.ClinicianID, a.CreatedBy, a.AppointmentDate,
		a.DurationMinutes, a.Type, a.Status, nullable(a.Notes), a.Version, a.CreatedAt, a.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("Appointment", "appointment not found")
	}
	return a, err
}

// UpdateStatus moves an appointment's status guarded by the version
// column. Zero rows affected means either the row is gone or a concurrent
// transition already landed; the two are reported distinctly.
func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string, version int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments
		SET status = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3`,
		id, newStatus, version)
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, tag, id)
}

func (r *repoPG) Relink(ctx context.Context, id, patientID, clinicianID uuid.UUID, version int) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments
		SET patient_id = $2, clinician_id = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $4`,
		id, patientID, clinicianID, version)
	if err != nil {
		return err
	}
	return r.checkAffected(ctx, tag, id)
}

func (r *repoPG) checkAffected(ctx context.Context, tag pgconn.CommandTag, id uuid.UUID) error {
	if tag.RowsAffected() > 0 {
		return nil
	}
	exists, err := r.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check appointment after stale update: %w", err)
	}
	if !exists {
		return apperror.NotFound("Appointment", "appointment not found")
	}
	return apperror.Conflict("Appointment", "appointment was modified concurrently")
}

func (r *repoPG) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Appointment, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		where += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if f.ClinicianID != nil {
		args = append(args, *f.ClinicianID)
		where += fmt.Sprintf(" AND clinician_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pg.Limit, pg.Offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointments`+where+
			fmt.Sprintf(` ORDER BY appointment_date DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectAppointments(rows, total)
}

// ListPastScheduled returns scheduled appointments whose date has passed.
// Input for the automatic evaluator.
func (r *repoPG) ListPastScheduled(ctx context.Context, asOf time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+apptCols+` FROM appointments
		 WHERE status = $1 AND appointment_date < $2
		 ORDER BY appointment_date`,
		StatusScheduled, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, _, err := collectAppointments(rows, 0)
	return out, err
}

func (r *repoPG) ListRefs(ctx context.Context) ([]reference.ApptRef, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, patient_id, clinician_id FROM appointments`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reference.ApptRef
	for rows.Next() {
		var ref reference.ApptRef
		if err := rows.Scan(&ref.AppointmentID, &ref.PatientID, &ref.ClinicianID); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *repoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM appointments WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func collectAppointments(rows pgx.Rows, total int) ([]*Appointment, int, error) {
	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var notes *string
	if err := row.Scan(
		&a.ID, &a.PatientID, &a.ClinicianID, &a.CreatedBy, &a.AppointmentDate,
		&a.DurationMinutes, &a.Type, &a.Status, &notes, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if notes != nil {
		a.Notes = *notes
	}
	return &a, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
