package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/audit"
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

type Service struct {
	repo     Repository
	tx       db.TxRunner
	trail    audit.Recorder
	resolver RefResolver
	logger   zerolog.Logger
}

func NewService(repo Repository, tx db.TxRunner, trail audit.Recorder, resolver RefResolver, logger zerolog.Logger) *Service {
	return &Service{repo: repo, tx: tx, trail: trail, resolver: resolver, logger: logger}
}

type CreateInput struct {
	Patient         string    `json:"patient"`
	Clinician       string    `json:"clinician"`
	AppointmentDate time.Time `json:"appointment_date"`
	DurationMinutes int       `json:"duration_minutes"`
	Type            string    `json:"type"`
	Notes           string    `json:"notes"`
}

// Create validates both references before anything is written. A dangling
// patient or clinician reference blocks the create with no audit entry.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	if in.AppointmentDate.IsZero() {
		return nil, apperror.Validation("appointment_date", "appointment_date is required")
	}
	if strings.TrimSpace(in.Type) == "" {
		return nil, apperror.Validation("type", "type is required")
	}
	if in.DurationMinutes <= 0 {
		in.DurationMinutes = 50
	}

	patientID, err := s.resolver.ResolvePatient(ctx, in.Patient)
	if err != nil {
		return nil, err
	}
	clinicianID, err := s.resolver.ResolveClinician(ctx, in.Clinician)
	if err != nil {
		return nil, err
	}

	createdBy := uuid.Nil
	if uid := auth.UserIDFromContext(ctx); uid != "" {
		if parsed, err := uuid.Parse(uid); err == nil {
			createdBy = parsed
		}
	}

	now := time.Now().UTC()
	a := &Appointment{
		ID:              uuid.New(),
		PatientID:       patientID,
		ClinicianID:     clinicianID,
		CreatedBy:       createdBy,
		AppointmentDate: in.AppointmentDate.UTC(),
		DurationMinutes: in.DurationMinutes,
		Type:            strings.TrimSpace(in.Type),
		Status:          StatusScheduled,
		Notes:           in.Notes,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, a); err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionCreate,
			ResourceType: audit.ResourceAppointment,
			ResourceID:   a.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns one appointment and records the read in the trail.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.trail.Record(ctx, audit.Entry{
		Action:       audit.ActionRead,
		ResourceType: audit.ResourceAppointment,
		ResourceID:   id.String(),
	}); err != nil {
		return nil, err
	}
	return a, nil
}

// Transition applies a manual status change. The move must be legal per
// the status machine; attempts to leave a terminal state fail loudly with
// InvalidTransition rather than silently keeping the old value. The status
// write and its audit entry commit together.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, newStatus string) (*Appointment, error) {
	if !validStatuses[newStatus] {
		return nil, apperror.Validation("status", fmt.Sprintf("unknown status %q", newStatus))
	}
	var a *Appointment
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !CanTransition(a.Status, newStatus) {
			return apperror.InvalidTransition(
				fmt.Sprintf("cannot move appointment from %q to %q", a.Status, newStatus))
		}
		return s.applyTransition(ctx, a, newStatus, nil)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// AdminCorrectStatus rewrites a status outside the machine, including out
// of a terminal state. Admin only; the entry is flagged as a correction so
// the trail distinguishes it from a normal transition.
func (s *Service) AdminCorrectStatus(ctx context.Context, id uuid.UUID, newStatus string) (*Appointment, error) {
	if !auth.HasRole(ctx, auth.RoleAdmin) {
		return nil, apperror.Forbidden("status correction requires the admin role")
	}
	if !validStatuses[newStatus] {
		return nil, apperror.Validation("status", fmt.Sprintf("unknown status %q", newStatus))
	}
	var a *Appointment
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if a.Status == newStatus {
			return nil
		}
		return s.applyTransition(ctx, a, newStatus, map[string]interface{}{"correction": true})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Relink repoints an appointment's references after manual orphan review.
// Admin only. Both references must resolve; the old and new ids go into
// the audit details.
func (s *Service) Relink(ctx context.Context, id uuid.UUID, rawPatient, rawClinician string) (*Appointment, error) {
	if !auth.HasRole(ctx, auth.RoleAdmin) {
		return nil, apperror.Forbidden("relinking references requires the admin role")
	}
	var a *Appointment
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		newPatient, newClinician := a.PatientID, a.ClinicianID
		if rawPatient != "" {
			if newPatient, err = s.resolver.ResolvePatient(ctx, rawPatient); err != nil {
				return err
			}
		}
		if rawClinician != "" {
			if newClinician, err = s.resolver.ResolveClinician(ctx, rawClinician); err != nil {
				return err
			}
		}
		details := map[string]interface{}{
			"relink":       true,
			"oldPatient":   a.PatientID.String(),
			"newPatient":   newPatient.String(),
			"oldClinician": a.ClinicianID.String(),
			"newClinician": newClinician.String(),
		}
		if err := s.repo.Relink(ctx, id, newPatient, newClinician, a.Version); err != nil {
			return err
		}
		a.PatientID, a.ClinicianID = newPatient, newClinician
		a.Version++
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourceAppointment,
			ResourceID:   id.String(),
			Details:      details,
		})
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// applyTransition writes the status and its audit entry. Callers have
// already validated the move; extra details are merged into the entry.
func (s *Service) applyTransition(ctx context.Context, a *Appointment, newStatus string, extra map[string]interface{}) error {
	old := a.Status
	if err := s.repo.UpdateStatus(ctx, a.ID, newStatus, a.Version); err != nil {
		return err
	}
	a.Status = newStatus
	a.Version++

	details := map[string]interface{}{
		"oldStatus": old,
		"newStatus": newStatus,
	}
	for k, v := range extra {
		details[k] = v
	}
	return s.trail.Record(ctx, audit.Entry{
		Action:       audit.ActionUpdate,
		ResourceType: audit.ResourceAppointment,
		ResourceID:   a.ID.String(),
		Details:      details,
	})
}

func (s *Service) List(ctx context.Context, f ListFilter, pg pagination.Params) ([]*Appointment, int, error) {
	return s.repo.List(ctx, f, pg)
}

// RunEvaluator sweeps scheduled appointments whose date has passed: more
// than 24 hours past becomes a no-show, anything closer becomes overdue.
// One transaction and one audit entry per appointment; a failure on one
// record is logged and the sweep continues. Returns the number of
// appointments moved.
func (s *Service) RunEvaluator(ctx context.Context, now time.Time) (int, error) {
	due, err := s.repo.ListPastScheduled(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list past scheduled appointments: %w", err)
	}

	moved := 0
	for _, a := range due {
		target := StatusOverdue
		if now.Sub(a.AppointmentDate) > NoShowCutoff {
			target = StatusNoShow
		}
		a := a
		err := s.tx.WithTx(ctx, func(ctx context.Context) error {
			return s.applyTransition(ctx, a, target, map[string]interface{}{"evaluator": true})
		})
		if err != nil {
			s.logger.Warn().Err(err).
				Str("appointment_id", a.ID.String()).
				Str("target_status", target).
				Msg("evaluator: skipping appointment")
			continue
		}
		moved++
	}
	return moved, nil
}
