package discharge

import (
	"time"

	"github.com/google/uuid"
)

// Request statuses. requested is the only non-terminal state.
const (
	StatusRequested = "requested"
	StatusApproved  = "approved"
	StatusDenied    = "denied"
)

// Request maps to the discharge_requests table: one manual discharge
// approval workflow instance.
type Request struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	RequestedBy uuid.UUID  `db:"requested_by" json:"requested_by"`
	ReviewedBy  *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	Status      string     `db:"status" json:"status"`
	Reason      string     `db:"reason" json:"reason,omitempty"`
	ReviewNote  string     `db:"review_note" json:"review_note,omitempty"`
	RequestedAt time.Time  `db:"requested_at" json:"requested_at"`
	ReviewedAt  *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
}

// Notification kinds emitted by the workflow.
const (
	NotifyDischargeRequested = "discharge_requested"
	NotifyDischargeApproved  = "discharge_approved"
	NotifyDischargeDenied    = "discharge_denied"
	NotifyAutoDischarged     = "auto_discharged"
)

// Notification maps to the notifications table.
type Notification struct {
	ID            uuid.UUID `db:"id" json:"id"`
	RecipientID   uuid.UUID `db:"recipient_id" json:"recipient_id"`
	Kind          string    `db:"kind" json:"kind"`
	Message       string    `db:"message" json:"message"`
	ReferenceType string    `db:"reference_type" json:"reference_type,omitempty"`
	ReferenceID   string    `db:"reference_id" json:"reference_id,omitempty"`
	Read          bool      `db:"read" json:"read"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
