package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/audit"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/domain/reference"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/apperror"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/internal/platform/auth"
	"github.com/Judeyaw1/MentalhealthCRM-sub004/pkg/pagination"
)

type mockRepo struct {
	appts map[uuid.UUID]*Appointment
	// failStatusOn simulates a storage failure for one appointment so the
	// evaluator's skip behavior can be observed.
	failStatusOn uuid.UUID
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	cp := *a
	m.appts[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, apperror.NotFound("Appointment", "appointment not found")
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, newStatus string, version int) error {
	if id == m.failStatusOn {
		return apperror.Conflict("Appointment", "appointment was modified concurrently")
	}
	a, ok := m.appts[id]
	if !ok {
		return apperror.NotFound("Appointment", "appointment not found")
	}
	if a.Version != version {
		return apperror.Conflict("Appointment", "appointment was modified concurrently")
	}
	a.Status = newStatus
	a.Version++
	return nil
}

func (m *mockRepo) Relink(_ context.Context, id, patientID, clinicianID uuid.UUID, version int) error {
	a, ok := m.appts[id]
	if !ok {
		return apperror.NotFound("Appointment", "appointment not found")
	}
	if a.Version != version {
		return apperror.Conflict("Appointment", "appointment was modified concurrently")
	}
	a.PatientID, a.ClinicianID = patientID, clinicianID
	a.Version++
	return nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter, _ pagination.Params) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (m *mockRepo) ListPastScheduled(_ context.Context, asOf time.Time) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if a.Status == StatusScheduled && a.AppointmentDate.Before(asOf) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) ListRefs(_ context.Context) ([]reference.ApptRef, error) {
	var out []reference.ApptRef
	for _, a := range m.appts {
		out = append(out, reference.ApptRef{
			AppointmentID: a.ID, PatientID: a.PatientID, ClinicianID: a.ClinicianID,
		})
	}
	return out, nil
}

func (m *mockRepo) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.appts[id]
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

type stubResolver struct {
	patients   map[uuid.UUID]bool
	clinicians map[uuid.UUID]bool
}

func (s stubResolver) resolve(raw, typ string, known map[uuid.UUID]bool) (uuid.UUID, error) {
	ref, err := reference.Parse(raw, typ)
	if err != nil {
		return uuid.Nil, err
	}
	if !known[ref.ID] {
		return uuid.Nil, apperror.ReferenceNotFound(typ, typ+" does not exist")
	}
	return ref.ID, nil
}

func (s stubResolver) ResolvePatient(_ context.Context, raw string) (uuid.UUID, error) {
	return s.resolve(raw, "Patient", s.patients)
}

func (s stubResolver) ResolveClinician(_ context.Context, raw string) (uuid.UUID, error) {
	return s.resolve(raw, "Clinician", s.clinicians)
}

type fixture struct {
	svc         *Service
	repo        *mockRepo
	trail       *trailSpy
	patientID   uuid.UUID
	clinicianID uuid.UUID
}

func newFixture() *fixture {
	repo := newMockRepo()
	trail := &trailSpy{}
	patientID, clinicianID := uuid.New(), uuid.New()
	resolver := stubResolver{
		patients:   map[uuid.UUID]bool{patientID: true},
		clinicians: map[uuid.UUID]bool{clinicianID: true},
	}
	svc := NewService(repo, passTx{}, trail, resolver, zerolog.Nop())
	return &fixture{svc: svc, repo: repo, trail: trail, patientID: patientID, clinicianID: clinicianID}
}

func (f *fixture) schedule(t *testing.T, date time.Time) *Appointment {
	t.Helper()
	a, err := f.svc.Create(context.Background(), CreateInput{
		Patient:         f.patientID.String(),
		Clinician:       "Clinician/" + f.clinicianID.String(),
		AppointmentDate: date,
		Type:            "individual",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return a
}

func adminCtx() context.Context {
	return auth.ContextWithUser(context.Background(), "admin-1", []string{auth.RoleAdmin})
}

func TestStatusMachine(t *testing.T) {
	cases := []struct {
		from, to string
		ok       bool
	}{
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusNoShow, true},
		{StatusScheduled, StatusOverdue, true},
		{StatusOverdue, StatusCompleted, true},
		{StatusOverdue, StatusCancelled, true},
		{StatusOverdue, StatusNoShow, true},
		{StatusOverdue, StatusScheduled, false},
		{StatusCompleted, StatusScheduled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusNoShow, StatusOverdue, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.ok {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.ok)
		}
	}
	for _, st := range []string{StatusCompleted, StatusCancelled, StatusNoShow} {
		if !Terminal(st) {
			t.Errorf("Terminal(%q) = false, want true", st)
		}
	}
	if Terminal(StatusScheduled) || Terminal(StatusOverdue) {
		t.Error("scheduled and overdue must not be terminal")
	}
}

func TestCreateResolvesBothReferences(t *testing.T) {
	f := newFixture()
	a := f.schedule(t, time.Now().Add(24*time.Hour))
	if a.PatientID != f.patientID || a.ClinicianID != f.clinicianID {
		t.Errorf("references not resolved: %+v", a)
	}
	if a.Status != StatusScheduled {
		t.Errorf("status = %q, want scheduled", a.Status)
	}

	_, err := f.svc.Create(context.Background(), CreateInput{
		Patient:         "Patient/" + uuid.NewString(),
		Clinician:       f.clinicianID.String(),
		AppointmentDate: time.Now().Add(24 * time.Hour),
		Type:            "individual",
	})
	if !apperror.IsKind(err, apperror.KindReferenceNotFound) {
		t.Fatalf("dangling patient should be ReferenceNotFound, got %v", err)
	}
	if len(f.repo.appts) != 1 {
		t.Error("failed create must not persist a row")
	}
}

func TestTransitionAuditsOldAndNewStatus(t *testing.T) {
	f := newFixture()
	a := f.schedule(t, time.Now().Add(time.Hour))

	got, err := f.svc.Transition(context.Background(), a.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	last := f.trail.entries[len(f.trail.entries)-1]
	if last.Action != audit.ActionUpdate {
		t.Errorf("action = %q, want update", last.Action)
	}
	if last.Details["oldStatus"] != StatusScheduled || last.Details["newStatus"] != StatusCompleted {
		t.Errorf("transition details wrong: %+v", last.Details)
	}
}

func TestTerminalTransitionRejected(t *testing.T) {
	f := newFixture()
	a := f.schedule(t, time.Now().Add(time.Hour))
	if _, err := f.svc.Transition(context.Background(), a.ID, StatusCancelled); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	before := len(f.trail.entries)

	_, err := f.svc.Transition(context.Background(), a.ID, StatusCompleted)
	if !apperror.IsKind(err, apperror.KindInvalidTransition) {
		t.Fatalf("expected InvalidTransition, got %v", err)
	}
	if f.repo.appts[a.ID].Status != StatusCancelled {
		t.Error("rejected transition must not change the status")
	}
	if len(f.trail.entries) != before {
		t.Error("rejected transition must not be audited")
	}
}

func TestAdminCorrectStatus(t *testing.T) {
	f := newFixture()
	a := f.schedule(t, time.Now().Add(time.Hour))
	if _, err := f.svc.Transition(context.Background(), a.ID, StatusNoShow); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	if _, err := f.svc.AdminCorrectStatus(context.Background(), a.ID, StatusCompleted); !apperror.IsKind(err, apperror.KindForbidden) {
		t.Fatalf("correction without admin role should be Forbidden, got %v", err)
	}

	got, err := f.svc.AdminCorrectStatus(adminCtx(), a.ID, StatusCompleted)
	if err != nil {
		t.Fatalf("AdminCorrectStatus: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	last := f.trail.entries[len(f.trail.entries)-1]
	if last.Details["correction"] != true {
		t.Errorf("correction not flagged: %+v", last.Details)
	}
}

func TestConcurrentTransitionLoserGetsConflict(t *testing.T) {
	f := newFixture()
	a := f.schedule(t, time.Now().Add(time.Hour))

	// First writer wins and bumps the version.
	if _, err := f.svc.Transition(context.Background(), a.ID, StatusOverdue); err != nil {
		t.Fatalf("winner transition: %v", err)
	}

	// Simulate the loser holding the stale snapshot.
	err := f.svc.tx.WithTx(context.Background(), func(ctx context.Context) error {
		return f.svc.repo.UpdateStatus(ctx, a.ID, StatusCancelled, a.Version)
	})
	if !apperror.IsKind(err, apperror.KindConflict) {
		t.Fatalf("stale writer should get ConflictError, got %v", err)
	}
	if f.repo.appts[a.ID].Status != StatusOverdue {
		t.Error("loser must not overwrite the winner's status")
	}
}

func TestEvaluatorClassifiesByElapsedTime(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	old := f.schedule(t, now.Add(-25*time.Hour))
	recent := f.schedule(t, now.Add(-10*time.Hour))
	future := f.schedule(t, now.Add(2*time.Hour))

	moved, err := f.svc.RunEvaluator(context.Background(), now)
	if err != nil {
		t.Fatalf("RunEvaluator: %v", err)
	}
	if moved != 2 {
		t.Errorf("moved = %d, want 2", moved)
	}
	if got := f.repo.appts[old.ID].Status; got != StatusNoShow {
		t.Errorf("25h-old appointment = %q, want no-show", got)
	}
	if got := f.repo.appts[recent.ID].Status; got != StatusOverdue {
		t.Errorf("10h-old appointment = %q, want overdue", got)
	}
	if got := f.repo.appts[future.ID].Status; got != StatusScheduled {
		t.Errorf("future appointment = %q, want scheduled", got)
	}
}

func TestEvaluatorBoundaryExactly24h(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()
	a := f.schedule(t, now.Add(-24*time.Hour))

	if _, err := f.svc.RunEvaluator(context.Background(), now); err != nil {
		t.Fatalf("RunEvaluator: %v", err)
	}
	// The cutoff is strictly more than 24 hours.
	if got := f.repo.appts[a.ID].Status; got != StatusOverdue {
		t.Errorf("exactly-24h appointment = %q, want overdue", got)
	}
}

func TestEvaluatorSkipsFailingRecord(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()
	bad := f.schedule(t, now.Add(-30*time.Hour))
	good := f.schedule(t, now.Add(-30*time.Hour))
	f.repo.failStatusOn = bad.ID

	moved, err := f.svc.RunEvaluator(context.Background(), now)
	if err != nil {
		t.Fatalf("RunEvaluator: %v", err)
	}
	if moved != 1 {
		t.Errorf("moved = %d, want 1", moved)
	}
	if got := f.repo.appts[good.ID].Status; got != StatusNoShow {
		t.Errorf("healthy record not moved, status = %q", got)
	}
	if got := f.repo.appts[bad.ID].Status; got != StatusScheduled {
		t.Errorf("failing record should be left untouched, status = %q", got)
	}
}

func TestEvaluatorAuditsEachTransition(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()
	f.schedule(t, now.Add(-30*time.Hour))
	f.schedule(t, now.Add(-2*time.Hour))
	creates := len(f.trail.entries)

	if _, err := f.svc.RunEvaluator(context.Background(), now); err != nil {
		t.Fatalf("RunEvaluator: %v", err)
	}
	added := f.trail.entries[creates:]
	if len(added) != 2 {
		t.Fatalf("expected one audit entry per moved appointment, got %d", len(added))
	}
	for _, e := range added {
		if e.Details["evaluator"] != true {
			t.Errorf("evaluator transition not flagged: %+v", e.Details)
		}
	}
}

func TestRelink(t *testing.T) {
	f := newFixture()
	a := f.schedule(t, time.Now().Add(time.Hour))

	newPatient := uuid.New()
	f.svc.resolver.(stubResolver).patients[newPatient] = true

	if _, err := f.svc.Relink(context.Background(), a.ID, newPatient.String(), ""); !apperror.IsKind(err, apperror.KindForbidden) {
		t.Fatalf("relink without admin role should be Forbidden, got %v", err)
	}

	got, err := f.svc.Relink(adminCtx(), a.ID, newPatient.String(), "")
	if err != nil {
		t.Fatalf("Relink: %v", err)
	}
	if got.PatientID != newPatient {
		t.Errorf("patient not relinked: %v", got.PatientID)
	}
	if got.ClinicianID != f.clinicianID {
		t.Errorf("clinician should be unchanged: %v", got.ClinicianID)
	}
	last := f.trail.entries[len(f.trail.entries)-1]
	if last.Details["relink"] != true || last.Details["newPatient"] != newPatient.String() {
		t.Errorf("relink not audited: %+v", last.Details)
	}
}
