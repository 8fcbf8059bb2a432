package patient

import (
	"context"
	"errors"
	"fmt"

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

const patientCols = `id, first_name, last_name, date_of_birth, gender, email, phone,
	status, assigned_clinician_id,
	discharge_target_sessions, discharge_auto, discharge_date, discharge_method,
	version, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (
			id, first_name, last_name, date_of_birth, gender, email, phone,
			status, assigned_clinician_id,
			discharge_target_sessions, discharge_auto, discharge_date, discharge_method,
			version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth,
		nullable(p.Gender), nullable(p.Email), nullable(p.Phone),
		p.Status, p.AssignedClinicianID,
		p.DischargeCriteria.TargetSessions, p.DischargeCriteria.AutoDischarge,
		p.DischargeCriteria.DischargeDate, nullable(p.DischargeCriteria.Method),
		p.Version, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id)
	p, err := scanPatient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("Patient", "patient not found")
	}
	return p, err
}

// Update writes the whole row guarded by the version column. The stored
// version must match p.Version; on success the row's version is bumped and
// p.Version is updated to the new value. Zero rows affected means either
// the row is gone (NotFound) or a concurrent writer won (ConflictError).
func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET
			first_name = $2, last_name = $3, date_of_birth = $4, gender = $5,
			email = $6, phone = $7, status = $8, assigned_clinician_id = $9,
			discharge_target_sessions = $10, discharge_auto = $11,
			discharge_date = $12, discharge_method = $13,
			version = version + 1, updated_at = $14
		WHERE id = $1 AND version = $15`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth,
		nullable(p.Gender), nullable(p.Email), nullable(p.Phone),
		p.Status, p.AssignedClinicianID,
		p.DischargeCriteria.TargetSessions, p.DischargeCriteria.AutoDischarge,
		p.DischargeCriteria.DischargeDate, nullable(p.DischargeCriteria.Method),
		p.UpdatedAt, p.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		exists, err := r.Exists(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("check patient after stale update: %w", err)
		}
		if !exists {
			return apperror.NotFound("Patient", "patient not found")
		}
		return apperror.Conflict("Patient", "patient was modified concurrently")
	}
	p.Version++
	return nil
}

func (r *repoPG) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Patient, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.ClinicianID != nil {
		args = append(args, *f.ClinicianID)
		where += fmt.Sprintf(" AND assigned_clinician_id = $%d", len(args))
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pg.Limit, pg.Offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patients`+where+
			fmt.Sprintf(` ORDER BY last_name, first_name LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// AutoDischargeCandidates returns active patients opted into automatic
// discharge that do not yet carry a discharge date.
func (r *repoPG) AutoDischargeCandidates(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientCols+` FROM patients
		 WHERE status = $1 AND discharge_auto AND discharge_date IS NULL
		   AND discharge_target_sessions > 0`,
		StatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *repoPG) SearchByName(ctx context.Context, first, last string) ([]reference.Candidate, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, first_name, last_name, status FROM patients
		WHERE ($1 = '' OR first_name ILIKE $1 || '%')
		  AND ($2 = '' OR last_name ILIKE $2 || '%')
		ORDER BY last_name, first_name
		LIMIT 25`,
		first, last)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reference.Candidate
	for rows.Next() {
		var c reference.Candidate
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Status); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var gender, email, phone, method *string
	if err := row.Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &gender, &email, &phone,
		&p.Status, &p.AssignedClinicianID,
		&p.DischargeCriteria.TargetSessions, &p.DischargeCriteria.AutoDischarge,
		&p.DischargeCriteria.DischargeDate, &method,
		&p.Version, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Gender = strVal(gender)
	p.Email = strVal(email)
	p.Phone = strVal(phone)
	p.DischargeCriteria.Method = strVal(method)
	return &p, nil
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
