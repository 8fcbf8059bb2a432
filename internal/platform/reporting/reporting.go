// Package reporting serves the read-only aggregates behind the practice
// dashboard. Nothing here mutates clinical data.
package reporting

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dashboard is the aggregate snapshot consumed by the UI layer.
type Dashboard struct {
	PatientsByStatus     map[string]int `json:"patients_by_status"`
	AppointmentsByStatus map[string]int `json:"appointments_by_status"`
	CompletionRate       float64        `json:"completion_rate"`
	DischargesByMethod   map[string]int `json:"discharges_by_method"`
	TotalTreatmentNotes  int            `json:"total_treatment_notes"`
}

// Store supplies the raw counts. Implemented against postgres; tests use
// a stub.
type Store interface {
	PatientsByStatus(ctx context.Context) (map[string]int, error)
	AppointmentsByStatus(ctx context.Context) (map[string]int, error)
	DischargesByMethod(ctx context.Context) (map[string]int, error)
	TreatmentNoteCount(ctx context.Context) (int, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// BuildDashboard collects every aggregate. The completion rate is the
// share of resolved appointments that ended completed; cancelled and
// no-show count against it, open statuses do not.
func (s *Service) BuildDashboard(ctx context.Context) (*Dashboard, error) {
	patients, err := s.store.PatientsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("patients by status: %w", err)
	}
	appts, err := s.store.AppointmentsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("appointments by status: %w", err)
	}
	discharges, err := s.store.DischargesByMethod(ctx)
	if err != nil {
		return nil, fmt.Errorf("discharges by method: %w", err)
	}
	notes, err := s.store.TreatmentNoteCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("treatment note count: %w", err)
	}

	completed := appts["completed"]
	resolved := completed + appts["cancelled"] + appts["no-show"]
	rate := 0.0
	if resolved > 0 {
		rate = float64(completed) / float64(resolved)
	}

	return &Dashboard{
		PatientsByStatus:     patients,
		AppointmentsByStatus: appts,
		CompletionRate:       rate,
		DischargesByMethod:   discharges,
		TotalTreatmentNotes:  notes,
	}, nil
}

type storePG struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) Store {
	return &storePG{pool: pool}
}

func (s *storePG) PatientsByStatus(ctx context.Context) (map[string]int, error) {
	return s.countBy(ctx, `SELECT status, COUNT(*) FROM patients GROUP BY status`)
}

func (s *storePG) AppointmentsByStatus(ctx context.Context) (map[string]int, error) {
	return s.countBy(ctx, `SELECT status, COUNT(*) FROM appointments GROUP BY status`)
}

func (s *storePG) DischargesByMethod(ctx context.Context) (map[string]int, error) {
	return s.countBy(ctx, `
		SELECT discharge_method, COUNT(*) FROM patients
		WHERE discharge_method IS NOT NULL GROUP BY discharge_method`)
}

func (s *storePG) TreatmentNoteCount(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM treatment_records`).Scan(&n)
	return n, err
}

func (s *storePG) countBy(ctx context.Context, sql string) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCounts(rows)
}

func collectCounts(rows pgx.Rows) (map[string]int, error) {
	out := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
