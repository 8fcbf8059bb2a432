package clinician

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

const clinicianCols = `id, first_name, last_name, email, role, active, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, c *Clinician) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clinicians (id, first_name, last_name, email, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.FirstName, c.LastName, c.Email, c.Role, c.Active, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Clinician, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+clinicianCols+` FROM clinicians WHERE id = $1`, id)
	c, err := scanClinician(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NotFound("Clinician", "clinician not found")
	}
	return c, err
}

func (r *repoPG) Update(ctx context.Context, c *Clinician) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE clinicians
		SET first_name = $2, last_name = $3, email = $4, role = $5, updated_at = $6
		WHERE id = $1`,
		c.ID, c.FirstName, c.LastName, c.Email, c.Role, c.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Clinician", "clinician not found")
	}
	return nil
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE clinicians SET active = $2, updated_at = now() WHERE id = $1`,
		id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperror.NotFound("Clinician", "clinician not found")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, activeOnly bool, p pagination.Params) ([]*Clinician, int, error) {
	where := ""
	if activeOnly {
		where = " WHERE active"
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM clinicians`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+clinicianCols+` FROM clinicians`+where+
			` ORDER BY last_name, first_name LIMIT $1 OFFSET $2`,
		p.Limit, p.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Clinician
	for rows.Next() {
		c, err := scanClinician(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

// Exists reports row presence regardless of the active flag: deactivated
// clinicians still anchor historic appointments and treatment records.
func (r *repoPG) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM clinicians WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

func scanClinician(row pgx.Row) (*Clinician, error) {
	var c Clinician
	if err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Role, &c.Active,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}
