package treatment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/audit"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/reference"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/apperror"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/auth"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/db"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/pkg/pagination"
)

// RefResolver resolves raw patient and clinician references to canonical ids.
type RefResolver interface {
	ResolvePatient(ctx context.Context, raw string) (uuid.UUID, error)
	ResolveClinician(ctx context.Context, raw string) (uuid.UUID, error)
}

// AppointmentSource answers which patient an appointment belongs to, so a
// record can only be pinned to one of its own patient's appointments.
type AppointmentSource interface {
	PatientOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

type Service struct {
	repo     Repository
	tx       db.TxRunner
	trail    audit.Recorder
	resolver RefResolver
	appts    AppointmentSource
}

func NewService(repo Repository, tx db.TxRunner, trail audit.Recorder, resolver RefResolver, appts AppointmentSource) *Service {
	return &Service{repo: repo, tx: tx, trail: trail, resolver: resolver, appts: appts}
}

type CreateInput struct {
	Patient         string    `json:"patient"`
	Clinician       string    `json:"clinician"`
	Appointment     string    `json:"appointment"`
	SessionDate     time.Time `json:"session_date"`
	SessionType     string    `json:"session_type"`
	Notes           string    `json:"notes"`
	Goals           string    `json:"goals"`
	Interventions   string    `json:"interventions"`
	Progress        string    `json:"progress"`
	NextSessionPlan string    `json:"next_session_plan"`
}

// Create validates references and content before writing. The optional
// appointment must belong to the same patient the record is for.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Record, error) {
	if err := validateContent(in); err != nil {
		return nil, err
	}

	patientID, err := s.resolver.ResolvePatient(ctx, in.Patient)
	if err != nil {
		return nil, err
	}
	clinicianID, err := s.resolver.ResolveClinician(ctx, in.Clinician)
	if err != nil {
		return nil, err
	}

	var apptID *uuid.UUID
	if in.Appointment != "" {
		id, err := s.checkAppointment(ctx, in.Appointment, patientID)
		if err != nil {
			return nil, err
		}
		apptID = &id
	}

	now := time.Now().UTC()
	rec := &Record{
		ID:              uuid.New(),
		PatientID:       patientID,
		ClinicianID:     clinicianID,
		AppointmentID:   apptID,
		SessionDate:     in.SessionDate.UTC(),
		SessionType:     strings.TrimSpace(in.SessionType),
		Notes:           in.Notes,
		Goals:           in.Goals,
		Interventions:   in.Interventions,
		Progress:        in.Progress,
		NextSessionPlan: in.NextSessionPlan,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rec); err != nil {
			return fmt.Errorf("create treatment record: %w", err)
		}
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionCreate,
			ResourceType: audit.ResourceTreatmentRecord,
			ResourceID:   rec.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns one record and logs the read; session notes are sensitive.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.trail.Record(ctx, audit.Entry{
		Action:       audit.ActionRead,
		ResourceType: audit.ResourceTreatmentRecord,
		ResourceID:   id.String(),
	}); err != nil {
		return nil, err
	}
	return rec, nil
}

type UpdateInput struct {
	SessionDate     time.Time `json:"session_date"`
	SessionType     string    `json:"session_type"`
	Notes           string    `json:"notes"`
	Goals           string    `json:"goals"`
	Interventions   string    `json:"interventions"`
	Progress        string    `json:"progress"`
	NextSessionPlan string    `json:"next_session_plan"`
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*Record, error) {
	if strings.TrimSpace(in.Notes) == "" {
		return nil, apperror.Validation("notes", "notes are required")
	}
	if strings.TrimSpace(in.SessionType) == "" {
		return nil, apperror.Validation("session_type", "session_type is required")
	}
	if in.SessionDate.IsZero() {
		return nil, apperror.Validation("session_date", "session_date is required")
	}

	var rec *Record
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		rec, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		rec.SessionDate = in.SessionDate.UTC()
		rec.SessionType = strings.TrimSpace(in.SessionType)
		rec.Notes = in.Notes
		rec.Goals = in.Goals
		rec.Interventions = in.Interventions
		rec.Progress = in.Progress
		rec.NextSessionPlan = in.NextSessionPlan
		rec.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, rec); err != nil {
			return err
		}
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourceTreatmentRecord,
			ResourceID:   id.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes a record. Admin only; removing session documentation is
// an exceptional correction, not a routine operation.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if !auth.HasRole(ctx, auth.RoleAdmin) {
		return apperror.Forbidden("deleting a treatment record requires the admin role")
	}
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, id); err != nil {
			return err
		}
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionDelete,
			ResourceType: audit.ResourceTreatmentRecord,
			ResourceID:   id.String(),
		})
	})
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, pg pagination.Params) ([]*Record, int, error) {
	return s.repo.ListByPatient(ctx, patientID, pg)
}

// CountByPatient reports how many sessions a patient has on file. Feeds
// the automatic discharge evaluator.
func (s *Service) CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	return s.repo.CountByPatient(ctx, patientID)
}

func (s *Service) checkAppointment(ctx context.Context, raw string, patientID uuid.UUID) (uuid.UUID, error) {
	ref, err := reference.Parse(raw, audit.ResourceAppointment)
	if err != nil {
		return uuid.Nil, err
	}
	owner, err := s.appts.PatientOf(ctx, ref.ID)
	if err != nil {
		return uuid.Nil, err
	}
	if owner != patientID {
		return uuid.Nil, apperror.Validation("appointment",
			"appointment belongs to a different patient")
	}
	return ref.ID, nil
}

func validateContent(in CreateInput) error {
	if strings.TrimSpace(in.Notes) == "" {
		return apperror.Validation("notes", "notes are required")
	}
	if strings.TrimSpace(in.SessionType) == "" {
		return apperror.Validation("session_type", "session_type is required")
	}
	if in.SessionDate.IsZero() {
		return apperror.Validation("session_date", "session_date is required")
	}
	return nil
}
