package discharge

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/audit"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/patient"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/apperror"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/auth"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/db"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/pkg/pagination"
)

// PatientStore is the slice of the patient service the workflow needs:
// resolving candidates and executing the actual discharge write.
type PatientStore interface {
	Get(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	Discharge(ctx context.Context, id uuid.UUID, method string, at time.Time, override bool) (*patient.Patient, error)
	AutoDischargeCandidates(ctx context.Context) ([]*patient.Patient, error)
}

// SessionCounter reports how many sessions a patient has on file.
type SessionCounter interface {
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
}

type Service struct {
	repo     Repository
	tx       db.TxRunner
	trail    audit.Recorder
	patients PatientStore
	sessions SessionCounter
	logger   zerolog.Logger
}

func NewService(repo Repository, tx db.TxRunner, trail audit.Recorder, patients PatientStore, sessions SessionCounter, logger zerolog.Logger) *Service {
	return &Service{repo: repo, tx: tx, trail: trail, patients: patients, sessions: sessions, logger: logger}
}

// RequestDischarge opens a manual discharge workflow for a patient. Only
// one open request per patient at a time; the assigned clinician is
// notified that a review is pending.
func (s *Service) RequestDischarge(ctx context.Context, patientID uuid.UUID, reason string) (*Request, error) {
	if !auth.HasRole(ctx, auth.RoleAdmin, auth.RoleClinical) {
		return nil, apperror.Forbidden("requesting a discharge requires a clinical role")
	}

	p, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if p.Discharged() {
		return nil, apperror.InvalidTransition("patient is already discharged")
	}

	open, err := s.repo.HasOpenRequest(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("check open discharge requests: %w", err)
	}
	if open {
		return nil, apperror.Conflict("DischargeRequest",
			"an open discharge request already exists for this patient")
	}

	requestedBy := actorID(ctx)
	req := &Request{
		ID:          uuid.New(),
		PatientID:   patientID,
		RequestedBy: requestedBy,
		Status:      StatusRequested,
		Reason:      reason,
		RequestedAt: time.Now().UTC(),
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateRequest(ctx, req); err != nil {
			return fmt.Errorf("create discharge request: %w", err)
		}
		if p.AssignedClinicianID != nil {
			if err := s.notify(ctx, *p.AssignedClinicianID, NotifyDischargeRequested,
				fmt.Sprintf("discharge requested for patient %s", patientID),
				audit.ResourceDischargeRequest, req.ID); err != nil {
				return err
			}
		}
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionCreate,
			ResourceType: audit.ResourceDischargeRequest,
			ResourceID:   req.ID.String(),
			Details:      map[string]interface{}{"patient": patientID.String()},
		})
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Approve closes the request and discharges the patient, both in one
// transaction. The reviewer must hold the admin role.
func (s *Service) Approve(ctx context.Context, requestID uuid.UUID, note string) (*Request, error) {
	return s.review(ctx, requestID, note, true)
}

// Deny closes the request without touching the patient.
func (s *Service) Deny(ctx context.Context, requestID uuid.UUID, note string) (*Request, error) {
	return s.review(ctx, requestID, note, false)
}

func (s *Service) review(ctx context.Context, requestID uuid.UUID, note string, approve bool) (*Request, error) {
	if !auth.HasRole(ctx, auth.RoleAdmin) {
		return nil, apperror.Forbidden("reviewing a discharge request requires the admin role")
	}

	var req *Request
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.repo.GetRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != StatusRequested {
			return apperror.InvalidTransition(
				fmt.Sprintf("discharge request is already %s", req.Status))
		}

		reviewer := actorID(ctx)
		now := time.Now().UTC()
		req.ReviewedBy = &reviewer
		req.ReviewedAt = &now
		req.ReviewNote = note
		kind := NotifyDischargeDenied
		if approve {
			req.Status = StatusApproved
			kind = NotifyDischargeApproved
			if _, err := s.patients.Discharge(ctx, req.PatientID, patient.DischargeManual, now, false); err != nil {
				return err
			}
		} else {
			req.Status = StatusDenied
		}

		if err := s.repo.UpdateRequest(ctx, req); err != nil {
			return err
		}
		if err := s.notify(ctx, req.RequestedBy, kind,
			fmt.Sprintf("discharge request for patient %s was %s", req.PatientID, req.Status),
			audit.ResourceDischargeRequest, req.ID); err != nil {
			return err
		}
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourceDischargeRequest,
			ResourceID:   req.ID.String(),
			Details: map[string]interface{}{
				"patient": req.PatientID.String(),
				"status":  req.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*Request, error) {
	return s.repo.GetRequest(ctx, id)
}

func (s *Service) ListRequests(ctx context.Context, status string, pg pagination.Params) ([]*Request, int, error) {
	return s.repo.ListRequests(ctx, status, pg)
}

// RunEvaluator discharges every candidate whose session count has reached
// its target. The patient service's discharge path keeps this idempotent:
// a patient that already carries a date is skipped there, so re-running
// the sweep never double-discharges. Failures on one patient are logged
// and the sweep continues.
func (s *Service) RunEvaluator(ctx context.Context, now time.Time) (int, error) {
	candidates, err := s.patients.AutoDischargeCandidates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list auto-discharge candidates: %w", err)
	}

	discharged := 0
	for _, p := range candidates {
		count, err := s.sessions.CountByPatient(ctx, p.ID)
		if err != nil {
			s.logger.Warn().Err(err).Str("patient_id", p.ID.String()).
				Msg("discharge evaluator: session count failed, skipping")
			continue
		}
		if count < p.DischargeCriteria.TargetSessions {
			continue
		}

		p := p
		err = s.tx.WithTx(ctx, func(ctx context.Context) error {
			if _, err := s.patients.Discharge(ctx, p.ID, patient.DischargeAuto, now, false); err != nil {
				return err
			}
			if p.AssignedClinicianID == nil {
				return nil
			}
			return s.notify(ctx, *p.AssignedClinicianID, NotifyAutoDischarged,
				fmt.Sprintf("patient %s reached %d sessions and was discharged automatically",
					p.ID, count), audit.ResourcePatient, p.ID)
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("patient_id", p.ID.String()).
				Msg("discharge evaluator: skipping patient")
			continue
		}
		discharged++
	}
	return discharged, nil
}

func (s *Service) Notifications(ctx context.Context, recipientID uuid.UUID, unreadOnly bool, pg pagination.Params) ([]*Notification, int, error) {
	return s.repo.ListNotifications(ctx, recipientID, unreadOnly, pg)
}

func (s *Service) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkNotificationRead(ctx, id)
}

func (s *Service) notify(ctx context.Context, recipient uuid.UUID, kind, message, refType string, refID uuid.UUID) error {
	return s.repo.CreateNotification(ctx, &Notification{
		ID:            uuid.New(),
		RecipientID:   recipient,
		Kind:          kind,
		Message:       message,
		ReferenceType: refType,
		ReferenceID:   refID.String(),
		CreatedAt:     time.Now().UTC(),
	})
}

// actorID parses the context user id; background runs without a uuid actor
// fall back to the nil uuid, the audit trail still records "system".
func actorID(ctx context.Context) uuid.UUID {
	if uid := auth.UserIDFromContext(ctx); uid != "" {
		if parsed, err := uuid.Parse(uid); err == nil {
			return parsed
		}
	}
	return uuid.Nil
}
