package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/reference"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/pkg/pagination"
)

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter struct {
	Status      string
	ClinicianID *uuid.UUID
}

// Repository is the persistence contract for patients. Update applies the
// optimistic version check: it must fail with ConflictError when the row's
// stored version no longer matches the one on the struct.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Patient, int, error)
	AutoDischargeCandidates(ctx context.Context) ([]*Patient, error)
	SearchByName(ctx context.Context, first, last string) ([]reference.Candidate, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
