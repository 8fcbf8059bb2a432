package reference

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/audit"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/apperror"
)

// ExistenceChecker answers whether a live (non-deleted) row with the given
// id exists. Each domain repository implements it for its own table.
type ExistenceChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Resolver validates that every cross-entity reference is anchored to an
// existing counterpart. Lookups are pure; nothing is written.
type Resolver struct {
	patients     ExistenceChecker
	clinicians   ExistenceChecker
	appointments ExistenceChecker
}

func NewResolver(patients, clinicians, appointments ExistenceChecker) *Resolver {
	return &Resolver{
		patients:     patients,
		clinicians:   clinicians,
		appointments: appointments,
	}
}

func (r *Resolver) resolve(ctx context.Context, raw, resourceType string, chk ExistenceChecker) (uuid.UUID, error) {
	ref, err := Parse(raw, resourceType)
	if err != nil {
		return uuid.Nil, err
	}
	ok, err := chk.Exists(ctx, ref.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("check %s existence: %w", resourceType, err)
	}
	if !ok {
		return uuid.Nil, apperror.ReferenceNotFound(resourceType,
			resourceType+" "+ref.ID.String()+" does not exist")
	}
	return ref.ID, nil
}

// ResolvePatient returns the canonical patient id for a raw reference.
func (r *Resolver) ResolvePatient(ctx context.Context, raw string) (uuid.UUID, error) {
	return r.resolve(ctx, raw, audit.ResourcePatient, r.patients)
}

// ResolveClinician returns the canonical clinician id for a raw reference.
func (r *Resolver) ResolveClinician(ctx context.Context, raw string) (uuid.UUID, error) {
	return r.resolve(ctx, raw, audit.ResourceClinician, r.clinicians)
}

// ResolveAppointment returns the canonical appointment id for a raw reference.
func (r *Resolver) ResolveAppointment(ctx context.Context, raw string) (uuid.UUID, error) {
	return r.resolve(ctx, raw, audit.ResourceAppointment, r.appointments)
}
