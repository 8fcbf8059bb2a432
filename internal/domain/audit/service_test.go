package audit

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/apperror"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/auth"
)

// -- Mock Repository --

type mockRepo struct {
	entries []*Entry
}

func (m *mockRepo) Append(_ context.Context, e *Entry) error {
	e.ID = uuid.New()
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockRepo) History(_ context.Context, resourceType, resourceID string, limit, offset int) ([]*Entry, int, error) {
	var result []*Entry
	for _, e := range m.entries {
		if e.ResourceType == resourceType && e.ResourceID == resourceID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RecordedAt.After(result[j].RecordedAt)
	})
	return result, len(result), nil
}

func (m *mockRepo) HistoryForUser(_ context.Context, userID string, limit, offset int) ([]*Entry, int, error) {
	var result []*Entry
	for _, e := range m.entries {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	return result, len(result), nil
}

func adminCtx() context.Context {
	return auth.ContextWithUser(context.Background(), "admin-1", []string{auth.RoleAdmin})
}

// -- Tests --

func TestRecord_FillsDefaults(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	err := svc.Record(adminCtx(), Entry{
		Action:       ActionCreate,
		ResourceType: ResourcePatient,
		ResourceID:   "p1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	got := repo.entries[0]
	if got.UserID != "admin-1" {
		t.Errorf("expected user from context, got %q", got.UserID)
	}
	if got.RecordedAt.IsZero() {
		t.Error("expected recorded_at to be set")
	}
}

func TestRecord_SystemFallback(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	err := svc.Record(context.Background(), Entry{
		Action:       ActionUpdate,
		ResourceType: ResourceAppointment,
		ResourceID:   "a1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.entries[0].UserID != SystemUser {
		t.Errorf("expected system actor, got %q", repo.entries[0].UserID)
	}
}

func TestRecord_MissingOptionalContextIsFine(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	// No request info bound to the context at all.
	err := svc.Record(context.Background(), Entry{
		Action:       ActionDelete,
		ResourceType: ResourceTreatmentRecord,
		ResourceID:   "t1",
	})
	if err != nil {
		t.Fatalf("unexpected error without request metadata: %v", err)
	}
	got := repo.entries[0]
	if got.IPAddress != "" || got.UserAgent != "" || got.SessionID != "" {
		t.Error("expected optional fields to stay empty")
	}
}

func TestRecord_RequestInfoFromContext(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	ctx := ContextWithRequestInfo(context.Background(), RequestInfo{
		IPAddress: "10.0.0.5",
		UserAgent: "test-agent",
		SessionID: "sess-9",
	})
	if err := svc.Record(ctx, Entry{
		Action: ActionRead, ResourceType: ResourcePatient, ResourceID: "p2",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := repo.entries[0]
	if got.IPAddress != "10.0.0.5" || got.SessionID != "sess-9" {
		t.Errorf("expected request info copied, got %+v", got)
	}
}

func TestRecord_InvalidAction(t *testing.T) {
	svc := NewService(&mockRepo{})
	err := svc.Record(context.Background(), Entry{
		Action: "rewrite", ResourceType: ResourcePatient, ResourceID: "p1",
	})
	if !apperror.IsKind(err, apperror.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestRecord_MissingResource(t *testing.T) {
	svc := NewService(&mockRepo{})
	err := svc.Record(context.Background(), Entry{Action: ActionCreate, ResourceType: ResourcePatient})
	if !apperror.IsKind(err, apperror.KindValidation) {
		t.Errorf("expected validation error for missing resource_id, got %v", err)
	}
}

func TestHistory_ReverseChronological(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		if err := svc.Record(adminCtx(), Entry{
			Action:       ActionUpdate,
			ResourceType: ResourceAppointment,
			ResourceID:   "a1",
			RecordedAt:   base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	entries, total, err := svc.History(adminCtx(), ResourceAppointment, "a1", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 entries, got %d", total)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].RecordedAt.After(entries[i-1].RecordedAt) {
			t.Error("expected newest-first ordering")
		}
	}
}

func TestHistory_ForbiddenWithoutRole(t *testing.T) {
	svc := NewService(&mockRepo{})
	_, _, err := svc.History(context.Background(), ResourcePatient, "p1", 20, 0)
	if !apperror.IsKind(err, apperror.KindForbidden) {
		t.Errorf("expected Forbidden, got %v", err)
	}
	if apperror.IsKind(err, apperror.KindNotFound) {
		t.Error("Forbidden must be distinct from NotFound")
	}
}

func TestHistoryForUser_RequiresAdmin(t *testing.T) {
	svc := NewService(&mockRepo{})
	ctx := auth.ContextWithUser(context.Background(), "c1", []string{auth.RoleClinical})
	_, _, err := svc.HistoryForUser(ctx, "someone", 20, 0)
	if !apperror.IsKind(err, apperror.KindForbidden) {
		t.Errorf("expected Forbidden for clinical role, got %v", err)
	}
}
