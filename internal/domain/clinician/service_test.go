package clinician

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/audit"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/apperror"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/pkg/pagination"
)

type mockRepo struct {
	clinicians map[uuid.UUID]*Clinician
}

func newMockRepo() *mockRepo {
	return &mockRepo{clinicians: make(map[uuid.UUID]*Clinician)}
}

func (m *mockRepo) Create(_ context.Context, c *Clinician) error {
	m.clinicians[c.ID] = c
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Clinician, error) {
	c, ok := m.clinicians[id]
	if !ok {
		return nil, apperror.NotFound("Clinician", "clinician not found")
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, c *Clinician) error {
	if _, ok := m.clinicians[c.ID]; !ok {
		return apperror.NotFound("Clinician", "clinician not found")
	}
	m.clinicians[c.ID] = c
	return nil
}

func (m *mockRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	c, ok := m.clinicians[id]
	if !ok {
		return apperror.NotFound("Clinician", "clinician not found")
	}
	c.Active = active
	return nil
}

func (m *mockRepo) List(_ context.Context, activeOnly bool, _ pagination.Params) ([]*Clinician, int, error) {
	var out []*Clinician
	for _, c := range m.clinicians {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.clinicians[id]
	return ok, nil
}

type passTx struct{}

func (passTx) WithTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type trailSpy struct {
	entries []audit.Entry
}

func (t *trailSpy) Record(_ context.Context, e audit.Entry) error {
	t.entries = append(t.entries, e)
	return nil
}

func newTestService() (*Service, *mockRepo, *trailSpy) {
	repo := newMockRepo()
	trail := &trailSpy{}
	return NewService(repo, passTx{}, trail), repo, trail
}

func TestCreateClinician(t *testing.T) {
	svc, repo, trail := newTestService()

	c, err := svc.Create(context.Background(), CreateInput{
		FirstName: "Dana",
		LastName:  "Reyes",
		Email:     "Dana.Reyes@Clinic.example",
		Role:      RoleClinical,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !c.Active {
		t.Error("new clinician should be active")
	}
	if c.Email != "dana.reyes@clinic.example" {
		t.Errorf("email not normalized: %q", c.Email)
	}
	if _, ok := repo.clinicians[c.ID]; !ok {
		t.Error("clinician not persisted")
	}
	if len(trail.entries) != 1 || trail.entries[0].Action != audit.ActionCreate {
		t.Fatalf("expected one create audit entry, got %+v", trail.entries)
	}
	if trail.entries[0].ResourceID != c.ID.String() {
		t.Errorf("audit entry resource id = %q, want %q", trail.entries[0].ResourceID, c.ID)
	}
}

func TestCreateClinicianValidation(t *testing.T) {
	svc, _, trail := newTestService()

	cases := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"missing first name", CreateInput{LastName: "Reyes", Email: "a@b.c", Role: RoleClinical}, "first_name"},
		{"missing email", CreateInput{FirstName: "Dana", LastName: "Reyes", Role: RoleClinical}, "email"},
		{"bad role", CreateInput{FirstName: "Dana", LastName: "Reyes", Email: "a@b.c", Role: "therapist"}, "role"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.in)
			if !apperror.IsKind(err, apperror.KindValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if len(trail.entries) != 0 {
		t.Errorf("rejected creates must not be audited, got %d entries", len(trail.entries))
	}
}

func TestDeactivateKeepsRow(t *testing.T) {
	svc, repo, trail := newTestService()
	c, err := svc.Create(context.Background(), CreateInput{
		FirstName: "Dana", LastName: "Reyes", Email: "a@b.c", Role: RoleClinical,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Deactivate(context.Background(), c.ID); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	stored := repo.clinicians[c.ID]
	if stored == nil {
		t.Fatal("deactivation must not delete the row")
	}
	if stored.Active {
		t.Error("clinician still active after deactivation")
	}
	if ok, _ := svc.Exists(context.Background(), c.ID); !ok {
		t.Error("deactivated clinician row must stay resolvable")
	}
	last := trail.entries[len(trail.entries)-1]
	if last.Action != audit.ActionDelete {
		t.Errorf("deactivation audited as %q, want %q", last.Action, audit.ActionDelete)
	}
}

func TestUpdateMissingClinician(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Update(context.Background(), uuid.New(), CreateInput{
		FirstName: "Dana", LastName: "Reyes", Email: "a@b.c", Role: RoleClinical,
	})
	if !apperror.IsKind(err, apperror.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
