package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/reference"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/pkg/pagination"
)

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	PatientID   *uuid.UUID
	ClinicianID *uuid.UUID
	Status      string
}

// Repository is the persistence contract for appointments. UpdateStatus
// and Relink carry the optimistic version check: a stale version must fail
// with ConflictError so concurrent transitions resolve to one winner.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, newStatus string, version int) error
	Relink(ctx context.Context, id, patientID, clinicianID uuid.UUID, version int) error
	List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Appointment, int, error)
	ListPastScheduled(ctx context.Context, asOf time.Time) ([]*Appointment, error)
	ListRefs(ctx context.Context) ([]reference.ApptRef, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
