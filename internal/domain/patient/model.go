package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient statuses. A patient row is never deleted: "delete" moves the
// record to inactive, and a discharge moves it to discharged.
const (
	StatusActive     = "active"
	StatusInactive   = "inactive"
	StatusDischarged = "discharged"
)

var validStatuses = map[string]bool{
	StatusActive:     true,
	StatusInactive:   true,
	StatusDischarged: true,
}

// Discharge methods recorded alongside the criteria when a discharge lands.
const (
	DischargeManual = "manual"
	DischargeAuto   = "auto"
)

// DischargeCriteria is the owned sub-structure holding everything about a
// patient's discharge. The discharge date lives here and nowhere else; no
// top-level date field exists on Patient.
type DischargeCriteria struct {
	TargetSessions int        `db:"discharge_target_sessions" json:"target_sessions"`
	AutoDischarge  bool       `db:"discharge_auto" json:"auto_discharge"`
	DischargeDate  *time.Time `db:"discharge_date" json:"discharge_date,omitempty"`
	Method         string     `db:"discharge_method" json:"method,omitempty"`
}

// Patient maps to the patients table.
type Patient struct {
	ID                  uuid.UUID         `db:"id" json:"id"`
	FirstName           string            `db:"first_name" json:"first_name"`
	LastName            string            `db:"last_name" json:"last_name"`
	DateOfBirth         time.Time         `db:"date_of_birth" json:"date_of_birth"`
	Gender              string            `db:"gender" json:"gender,omitempty"`
	Email               string            `db:"email" json:"email,omitempty"`
	Phone               string            `db:"phone" json:"phone,omitempty"`
	Status              string            `db:"status" json:"status"`
	AssignedClinicianID *uuid.UUID        `db:"assigned_clinician_id" json:"assigned_clinician_id,omitempty"`
	DischargeCriteria   DischargeCriteria `json:"discharge_criteria"`
	Version             int               `db:"version" json:"version"`
	CreatedAt           time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time         `db:"updated_at" json:"updated_at"`
}

// Discharged reports whether this record already carries a discharge date.
func (p *Patient) Discharged() bool {
	return p.DischargeCriteria.DischargeDate != nil
}
