package treatment

import (
	"time"

	"github.com/google/uuid"
)

// Record maps to the treatment_records table. One row per session; notes
// are mandatory, the structured fields are optional.
type Record struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	PatientID       uuid.UUID  `db:"patient_id" json:"patient_id"`
	ClinicianID     uuid.UUID  `db:"clinician_id" json:"clinician_id"`
	AppointmentID   *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	SessionDate     time.Time  `db:"session_date" json:"session_date"`
	SessionType     string     `db:"session_type" json:"session_type"`
	Notes           string     `db:"notes" json:"notes"`
	Goals           string     `db:"goals" json:"goals,omitempty"`
	Interventions   string     `db:"interventions" json:"interventions,omitempty"`
	Progress        string     `db:"progress" json:"progress,omitempty"`
	NextSessionPlan string     `db:"next_session_plan" json:"next_session_plan,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}
