package clinician

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/audit"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/apperror"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/db"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/pkg/pagination"
)

type Service struct {
	repo  Repository
	tx    db.TxRunner
	trail audit.Recorder
}

func NewService(repo Repository, tx db.TxRunner, trail audit.Recorder) *Service {
	return &Service{repo: repo, tx: tx, trail: trail}
}

type CreateInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Clinician, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := &Clinician{
		ID:        uuid.New(),
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Role:      in.Role,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, c); err != nil {
			return fmt.Errorf("create clinician: %w", err)
		}
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionCreate,
			ResourceType: audit.ResourceClinician,
			ResourceID:   c.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("clinician_id", c.ID.String()).Msg("clinician created")
	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Clinician, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in CreateInput) (*Clinician, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	var c *Clinician
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		c.FirstName = strings.TrimSpace(in.FirstName)
		c.LastName = strings.TrimSpace(in.LastName)
		c.Email = strings.ToLower(strings.TrimSpace(in.Email))
		c.Role = in.Role
		c.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, c); err != nil {
			return err
		}
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourceClinician,
			ResourceID:   id.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Deactivate soft-removes a clinician. Rows are never deleted: historic
// appointments and treatment records keep their provider reference.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.SetActive(ctx, id, false); err != nil {
			return err
		}
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionDelete,
			ResourceType: audit.ResourceClinician,
			ResourceID:   id.String(),
			Details:      map[string]interface{}{"soft": true},
		})
	})
}

func (s *Service) Reactivate(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.SetActive(ctx, id, true); err != nil {
			return err
		}
		return s.trail.Record(ctx, audit.Entry{
			Action:       audit.ActionUpdate,
			ResourceType: audit.ResourceClinician,
			ResourceID:   id.String(),
			Details:      map[string]interface{}{"reactivated": true},
		})
	})
}

func (s *Service) List(ctx context.Context, activeOnly bool, p pagination.Params) ([]*Clinician, int, error) {
	return s.repo.List(ctx, activeOnly, p)
}

// Exists reports whether a clinician row with the given id is on file,
// active or not. Satisfies the reference resolver's existence check.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func validateInput(in CreateInput) error {
	if strings.TrimSpace(in.FirstName) == "" {
		return apperror.Validation("first_name", "first_name is required")
	}
	if strings.TrimSpace(in.LastName) == "" {
		return apperror.Validation("last_name", "last_name is required")
	}
	if strings.TrimSpace(in.Email) == "" {
		return apperror.Validation("email", "email is required")
	}
	if !validRoles[in.Role] {
		return apperror.Validation("role", fmt.Sprintf("unknown role %q", in.Role))
	}
	return nil
}
