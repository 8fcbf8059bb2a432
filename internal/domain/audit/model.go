package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actions recorded against protected resources.
const (
	ActionCreate          = "create"
	ActionRead            = "read"
	ActionUpdate          = "update"
	ActionDelete          = "delete"
	ActionLogin           = "login"
	ActionLogout          = "logout"
	ActionEmergencyAccess = "emergency_access"
	ActionExport          = "export"
	ActionPrint           = "print"
	ActionDownload        = "download"
)

// Resource types that appear in the trail.
const (
	ResourcePatient          = "Patient"
	ResourceAppointment      = "Appointment"
	ResourceTreatmentRecord  = "TreatmentRecord"
	ResourceClinician        = "Clinician"
	ResourceDischargeRequest = "DischargeRequest"
)

var validActions = map[string]bool{
	ActionCreate:          true,
	ActionRead:            true,
	ActionUpdate:          true,
	ActionDelete:          true,
	ActionLogin:           true,
	ActionLogout:          true,
	ActionEmergencyAccess: true,
	ActionExport:          true,
	ActionPrint:           true,
	ActionDownload:        true,
}

// Entry maps to the audit_logs table. Entries are written once and never
// touched again; there is deliberately no update or delete path anywhere in
// this package, and the table itself carries a trigger rejecting both.
type Entry struct {
	ID           uuid.UUID              `db:"id" json:"id"`
	UserID       string                 `db:"user_id" json:"user_id"`
	Action       string                 `db:"action" json:"action"`
	ResourceType string                 `db:"resource_type" json:"resource_type"`
	ResourceID   string                 `db:"resource_id" json:"resource_id"`
	Details      map[string]interface{} `db:"details" json:"details,omitempty"`
	IPAddress    string                 `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent    string                 `db:"user_agent" json:"user_agent,omitempty"`
	SessionID    string                 `db:"session_id" json:"session_id,omitempty"`
	RecordedAt   time.Time              `db:"recorded_at" json:"recorded_at"`
}

// RequestInfo carries the optional HTTP context an entry may record. All
// fields may be absent; evaluators and CLI commands have none.
type RequestInfo struct {
	IPAddress string
	UserAgent string
	SessionID string
}

type requestInfoKey struct{}

// ContextWithRequestInfo binds request metadata to ctx for the recorder.
func ContextWithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFromContext returns the bound request metadata, zero when absent.
func RequestInfoFromContext(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}
