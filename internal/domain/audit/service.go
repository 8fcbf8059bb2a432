package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/apperror"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/auth"
)

// SystemUser is the actor recorded for automatic evaluators and CLI runs.
const SystemUser = "system"

// Recorder is the write side of the trail. Domain services call Record
// inside the same transaction as the mutation it describes; a Record
// failure therefore fails the whole operation.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one immutable entry. Missing optional context fields
// (ip, user agent, session) never cause an error; missing user identity
// falls back to the context user and then to SystemUser.
func (s *Service) Record(ctx context.Context, e Entry) error {
	if !validActions[e.Action] {
		return apperror.Validation("action", fmt.Sprintf("unknown audit action %q", e.Action))
	}
	if e.ResourceType == "" {
		return apperror.Validation("resource_type", "resource_type is required")
	}
	if e.ResourceID == "" {
		return apperror.Validation("resource_id", "resource_id is required")
	}

	if e.UserID == "" {
		e.UserID = auth.UserIDFromContext(ctx)
	}
	if e.UserID == "" {
		e.UserID = SystemUser
	}

	info := RequestInfoFromContext(ctx)
	if e.IPAddress == "" {
		e.IPAddress = info.IPAddress
	}
	if e.UserAgent == "" {
		e.UserAgent = info.UserAgent
	}
	if e.SessionID == "" {
		e.SessionID = info.SessionID
	}

	if e.RecordedAt.IsZero() {
		e.RecordedAt = time.Now().UTC()
	}

	if err := s.repo.Append(ctx, &e); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// History returns the entries for one resource, newest first. Access
// control is the API boundary's job, but an unauthorized query context is
// reported as Forbidden so the boundary can tell it apart from NotFound.
func (s *Service) History(ctx context.Context, resourceType, resourceID string, limit, offset int) ([]*Entry, int, error) {
	if !auth.HasRole(ctx, auth.RoleAdmin, auth.RoleClinical) {
		return nil, 0, apperror.Forbidden("audit history requires an authorized role")
	}
	return s.repo.History(ctx, resourceType, resourceID, limit, offset)
}

// HistoryForUser returns every entry recorded for one actor, newest first.
func (s *Service) HistoryForUser(ctx context.Context, userID string, limit, offset int) ([]*Entry, int, error) {
	if !auth.HasRole(ctx, auth.RoleAdmin) {
		return nil, 0, apperror.Forbidden("per-user audit history requires the admin role")
	}
	return s.repo.HistoryForUser(ctx, userID, limit, offset)
}
