package reporting

import (
	"context"
	"math"
	"testing"
)

type stubStore struct {
	patients   map[string]int
	appts      map[string]int
	discharges map[string]int
	notes      int
}

func (s stubStore) PatientsByStatus(context.Context) (map[string]int, error)     { return s.patients, nil }
func (s stubStore) AppointmentsByStatus(context.Context) (map[string]int, error) { return s.appts, nil }
func (s stubStore) DischargesByMethod(context.Context) (map[string]int, error)   { return s.discharges, nil }
func (s stubStore) TreatmentNoteCount(context.Context) (int, error)              { return s.notes, nil }

func TestBuildDashboard(t *testing.T) {
	svc := NewService(stubStore{
		patients:   map[string]int{"active": 40, "discharged": 10},
		appts:      map[string]int{"completed": 30, "cancelled": 6, "no-show": 4, "scheduled": 12},
		discharges: map[string]int{"manual": 7, "auto": 3},
		notes:      120,
	})

	d, err := svc.BuildDashboard(context.Background())
	if err != nil {
		t.Fatalf("BuildDashboard: %v", err)
	}
	if d.PatientsByStatus["active"] != 40 {
		t.Errorf("active patients = %d, want 40", d.PatientsByStatus["active"])
	}
	// 30 completed out of 40 resolved; scheduled appointments do not count.
	if math.Abs(d.CompletionRate-0.75) > 1e-9 {
		t.Errorf("completion rate = %v, want 0.75", d.CompletionRate)
	}
	if d.DischargesByMethod["auto"] != 3 || d.DischargesByMethod["manual"] != 7 {
		t.Errorf("discharge breakdown wrong: %+v", d.DischargesByMethod)
	}
}

func TestBuildDashboardNoResolvedAppointments(t *testing.T) {
	svc := NewService(stubStore{
		patients: map[string]int{},
		appts:    map[string]int{"scheduled": 5},
	})
	d, err := svc.BuildDashboard(context.Background())
	if err != nil {
		t.Fatalf("BuildDashboard: %v", err)
	}
	if d.CompletionRate != 0 {
		t.Errorf("completion rate with no resolved appointments = %v, want 0", d.CompletionRate)
	}
}
