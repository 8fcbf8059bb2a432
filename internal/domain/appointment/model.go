package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. completed, cancelled and no-show are terminal;
// overdue is a holding state an appointment enters when its date passes
// without a disposition.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no-show"
	StatusOverdue   = "overdue"
)

// transitions is the full status machine. A status missing from the map,
// or absent from its source's set, is not reachable.
var transitions = map[string]map[string]bool{
	StatusScheduled: {
		StatusCompleted: true,
		StatusCancelled: true,
		StatusNoShow:    true,
		StatusOverdue:   true,
	},
	StatusOverdue: {
		StatusCompleted: true,
		StatusCancelled: true,
		StatusNoShow:    true,
	},
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to string) bool {
	return transitions[from][to]
}

// Terminal reports whether a status admits no further transitions.
func Terminal(status string) bool {
	return len(transitions[status]) == 0
}

var validStatuses = map[string]bool{
	StatusScheduled: true,
	StatusCompleted: true,
	StatusCancelled: true,
	StatusNoShow:    true,
	StatusOverdue:   true,
}

// NoShowCutoff is how far past its date a scheduled appointment may drift
// before the evaluator writes it off as a no-show rather than overdue.
const NoShowCutoff = 24 * time.Hour

// Appointment maps to the appointments table.
type Appointment struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	ClinicianID     uuid.UUID `db:"clinician_id" json:"clinician_id"`
	CreatedBy       uuid.UUID `db:"created_by" json:"created_by"`
	AppointmentDate time.Time `db:"appointment_date" json:"appointment_date"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Type            string    `db:"appointment_type" json:"type"`
	Status          string    `db:"status" json:"status"`
	Notes           string    `db:"notes" json:"notes,omitempty"`
	Version         int       `db:"version" json:"version"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
