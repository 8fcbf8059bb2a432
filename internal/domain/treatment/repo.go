package treatment

import (
	"context"

	"github.com/google/uuid"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/pkg/pagination"
)

// Repository is the persistence contract for treatment records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, pg pagination.Params) ([]*Record, int, error)
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}
