package clinician

import (
	"context"

	"github.com/google/uuid"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/pkg/pagination"
)

// Repository is the persistence contract for clinicians.
type Repository interface {
	Create(ctx context.Context, c *Clinician) error
	GetByID(ctx context.Context, id uuid.UUID) (*Clinician, error)
	Update(ctx context.Context, c *Clinician) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, activeOnly bool, p pagination.Params) ([]*Clinician, int, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
