package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/audit"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/reference"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/apperror"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/auth"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/db"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/pkg/pagination"
)

// ClinicianResolver resolves a raw clinician reference to its canonical id.
type ClinicianResolver interface {
	ResolveClinician(ctx context.Context, raw string) (uuid.UUID, error)
}

type Service struct {
	repo       Repository
	tx         db.TxRunner
	trail      audit.Recorder
	clinicians ClinicianResolver
}

func NewService(repo Repository, tx db.TxRunner, trail audit.Recorder, clinicians ClinicianResolver) *Service {
	return &Service{repo: repo, tx: tx, trail: trail, clinicians: clinicians}
}

type CriteriaInput struct {
	TargetSessions int  `json:"target_sessions"`
	AutoDischarge  bool `json:"auto_discharge"`
}

type CreateInput struct {
	FirstName         string        `json:"first_name"`
	LastName          string        `json:"last_name"`
	DateOfBirth       string        `json:"date_of_birth"`
	Gender            string        `json:"gender"`
	Email             string        `json:"email"`
	Phone             string        `json:"phone"`
	AssignedClinician string        `json:"assigned_clinician"`
	DischargeCriteria CriteriaInput `json:"discharge_criteria"`
}

// Create validates and persists a new patient. The assigned clinician
// reference, when present, must resolve to an existing row before anything
// is written; a dangling reference blocks the create with no audit entry.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	dob, err := validateIdentity(in)
	if err != nil {
		return nil, err
	}
	if in.DischargeCriteria.TargetSessions < 0 {
		return nil, apperror.Validation("discharge_criteria.target_sessions", "target_sessions cannot be negative")
	}

	var clinicianID *uuid.UUID
	if in.AssignedClinician != "" {
		id, err := s.clinicians.ResolveClinician(ctx, in.AssignedClinician)
		if err != nil {
			return nil, err
		}
		clinicianID = &id
	}

	now := time.Now().UTC()
	p := &Patient{
		ID:                  uuid.New(),
		FirstName:           strings.TrimSpace(in.FirstName),
		LastName:            strings.TrimSpace(in.LastName),
		DateOfBirth:         dob,
		Gender:              in.Gender,
		Email:               strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:               strings.TrimSpace(in.Phone),
		Status:              StatusActive,
		AssignedClinicianID: clinicianID,
		DischargeCriteria: DischargeCriteria{
			TargetSessions: in.DischargeCriteria.TargetSessions,
			AutoDischarge:  in.DischargeCriteria.AutoDischarge,
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create patient: %w", err)
		}
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionCreate,
			ResourceType: audit.ResourcePatient,
			ResourceID:   p.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("patient_id", p.ID.String()).Msg("patient created")
	return p, nil
}

// Get returns one patient and records the read in the trail.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.trail.Record(ctx, audit.Entry{
		Action:       audit.ActionRead,
		ResourceType: audit.ResourcePatient,
		ResourceID:   id.String(),
	}); err != nil {
		return nil, err
	}
	return p, nil
}

type UpdateInput struct {
	CreateInput
	Version int `json:"version"`
}

// Update rewrites the identity and criteria fields. The caller supplies the
// version it read; a concurrent change surfaces as ConflictError.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Patient, error) {
	dob, err := validateIdentity(in.CreateInput)
	if err != nil {
		return nil, err
	}
	if in.DischargeCriteria.TargetSessions < 0 {
		return nil, apperror.Validation("discharge_criteria.target_sessions", "target_sessions cannot be negative")
	}

	var clinicianID *uuid.UUID
	if in.AssignedClinician != "" {
		cid, err := s.clinicians.ResolveClinician(ctx, in.AssignedClinician)
		if err != nil {
			return nil, err
		}
		clinicianID = &cid
	}

	var p *Patient
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		p.FirstName = strings.TrimSpace(in.FirstName)
		p.LastName = strings.TrimSpace(in.LastName)
		p.DateOfBirth = dob
		p.Gender = in.Gender
		p.Email = strings.ToLower(strings.TrimSpace(in.Email))
		p.Phone = strings.TrimSpace(in.Phone)
		p.AssignedClinicianID = clinicianID
		p.DischargeCriteria.TargetSessions = in.DischargeCriteria.TargetSessions
		p.DischargeCriteria.AutoDischarge = in.DischargeCriteria.AutoDischarge
		p.UpdatedAt = time.Now().UTC()
		p.Version = in.Version
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourcePatient,
			ResourceID:   id.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Delete soft-removes a patient by moving it to inactive. The row and its
// history stay on file. Discharged patients cannot be deleted directly;
// the discharge has to be reversed first so the status and the discharge
// date never disagree.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Status == StatusInactive {
			return nil
		}
		if p.Status == StatusDischarged {
			return apperror.InvalidTransition("discharged patients must be reactivated before deletion")
		}
		old := p.Status
		p.Status = StatusInactive
		p.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionDelete,
			ResourceType: audit.ResourcePatient,
			ResourceID:   id.String(),
			Details:      map[string]interface{}{"soft": true, "oldStatus": old},
		})
	})
}

// Discharge is the single write path for a discharge date. The date lands
// only inside the criteria sub-structure. A patient that already carries a
// date is left untouched (idempotent) unless override is set, which
// requires the admin role and is recorded with the old date.
func (s *Service) Discharge(ctx context.Context, id uuid.UUID, method string, at time.Time, override bool) (*Patient, error) {
	if method != DischargeManual && method != DischargeAuto {
		return nil, apperror.Validation("method", fmt.Sprintf("unknown discharge method %q", method))
	}
	if override && !auth.HasRole(ctx, auth.RoleAdmin) {
		return nil, apperror.Forbidden("overriding a discharge date requires the admin role")
	}

	var p *Patient
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Discharged() && !override {
			// Already discharged: nothing changes, nothing is recorded.
			return nil
		}

		details := map[string]interface{}{
			"method":        method,
			"oldStatus":     p.Status,
			"dischargeDate": at.Format(time.RFC3339),
		}
		if override && p.DischargeCriteria.DischargeDate != nil {
			details["override"] = true
			details["previousDate"] = p.DischargeCriteria.DischargeDate.Format(time.RFC3339)
		}

		p.Status = StatusDischarged
		p.DischargeCriteria.DischargeDate = &at
		p.DischargeCriteria.Method = method
		p.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourcePatient,
			ResourceID:   id.String(),
			Details:      details,
		})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Reactivate reverses a discharge. Admin only; the cleared date is kept in
// the audit details so the reversal stays reconstructable.
func (s *Service) Reactivate(ctx context.Context, id uuid.UUID) (*Patient, error) {
	if !auth.HasRole(ctx, auth.RoleAdmin) {
		return nil, apperror.Forbidden("reversing a discharge requires the admin role")
	}
	var p *Patient
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if p.Status != StatusDischarged {
			return apperror.InvalidTransition(
				fmt.Sprintf("cannot reactivate patient in status %q", p.Status))
		}
		details := map[string]interface{}{"reversal": true}
		if p.DischargeCriteria.DischargeDate != nil {
			details["clearedDate"] = p.DischargeCriteria.DischargeDate.Format(time.RFC3339)
		}
		p.Status = StatusActive
		p.DischargeCriteria.DischargeDate = nil
		p.DischargeCriteria.Method = ""
		p.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourcePatient,
			ResourceID:   id.String(),
			Details:      details,
		})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Patient, int, error) {
	if f.Status != "" && !validStatuses[f.Status] {
		return nil, 0, apperror.Validation("status", fmt.Sprintf("unknown patient status %q", f.Status))
	}
	return s.repo.List(ctx, f, pg)
}

// AutoDischargeCandidates feeds the discharge evaluator: active patients
// opted into automatic discharge without a date yet.
func (s *Service) AutoDischargeCandidates(ctx context.Context) ([]*Patient, error) {
	return s.repo.AutoDischargeCandidates(ctx)
}

// SearchByName exposes the diagnostic name lookup. Results are candidates
// for manual review only; nothing is linked here.
func (s *Service) SearchByName(ctx context.Context, first, last string) ([]reference.Candidate, error) {
	return s.repo.SearchByName(ctx, first, last)
}

// Exists satisfies the reference resolver's existence check. Inactive and
// discharged rows still exist; patients are never hard-deleted.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func validateIdentity(in CreateInput) (time.Time, error) {
	if strings.TrimSpace(in.FirstName) == "" {
		return time.Time{}, apperror.Validation("first_name", "first_name is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		return time.Time{}, apperror.Validation("last_name", "last_name is required")
	}
	if in.DateOfBirth == "" {
		return time.Time{}, apperror.Validation("date_of_birth", "date_of_birth is required")
	}
	dob, err := time.Parse("2006-01-02", in.DateOfBirth)
	if err != nil {
		return time.Time{}, apperror.Validation("date_of_birth", "date_of_birth must be YYYY-MM-DD")
	}
	if dob.After(time.Now()) {
		return time.Time{}, apperror.Validation("date_of_birth", "date_of_birth cannot be in the future")
	}
	return dob, nil
}
