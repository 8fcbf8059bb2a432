package reference

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Candidate is a possible match surfaced by the name diagnostic.
type Candidate struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Status    string    `json:"status"`
}

// NameSearcher finds patients by name fragments. Diagnostic use only.
type NameSearcher interface {
	SearchByName(ctx context.Context, first, last string) ([]Candidate, error)
}

// ApptRef is the reference triple of one appointment.
type ApptRef struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	ClinicianID   uuid.UUID `json:"clinician_id"`
}

// ApptRefLister enumerates appointment reference triples for the orphan scan.
type ApptRefLister interface {
	ListRefs(ctx context.Context) ([]ApptRef, error)
}

// Orphan describes an appointment whose references no longer resolve.
type Orphan struct {
	AppointmentID    uuid.UUID `json:"appointment_id"`
	MissingPatient   bool      `json:"missing_patient"`
	MissingClinician bool      `json:"missing_clinician"`
}

// Diagnostics holds the administrative, report-only tooling around broken
// references. Nothing here links, repairs or deletes records: repairing a
// dangling reference is an explicit admin mutation on the owning entity so
// that it is audited like any other write.
type Diagnostics struct {
	patients     NameSearcher
	appts        ApptRefLister
	patientCheck ExistenceChecker
	clinCheck    ExistenceChecker
	logger       zerolog.Logger
}

func NewDiagnostics(patients NameSearcher, appts ApptRefLister, patientCheck, clinCheck ExistenceChecker, logger zerolog.Logger) *Diagnostics {
	return &Diagnostics{
		patients:     patients,
		appts:        appts,
		patientCheck: patientCheck,
		clinCheck:    clinCheck,
		logger:       logger,
	}
}

// SuggestByName lists patients whose names resemble the given fragments.
// It is a read-only aid for administrators reconciling legacy records.
func (d *Diagnostics) SuggestByName(ctx context.Context, first, last string) ([]Candidate, error) {
	if first == "" && last == "" {
		return nil, nil
	}
	return d.patients.SearchByName(ctx, first, last)
}

// ScanOrphans reports appointments with dangling patient or clinician
// references. Orphans are never deleted here; reconciliation is a manual
// decision.
func (d *Diagnostics) ScanOrphans(ctx context.Context) ([]Orphan, error) {
	refs, err := d.appts.ListRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointment refs: %w", err)
	}

	var orphans []Orphan
	for _, ref := range refs {
		patientOK, err := d.patientCheck.Exists(ctx, ref.PatientID)
		if err != nil {
			d.logger.Warn().Err(err).Str("appointment_id", ref.AppointmentID.String()).
				Msg("orphan scan: patient existence check failed, skipping")
			continue
		}
		clinOK, err := d.clinCheck.Exists(ctx, ref.ClinicianID)
		if err != nil {
			d.logger.Warn().Err(err).Str("appointment_id", ref.AppointmentID.String()).
				Msg("orphan scan: clinician existence check failed, skipping")
			continue
		}
		if !patientOK || !clinOK {
			orphans = append(orphans, Orphan{
				AppointmentID:    ref.AppointmentID,
				MissingPatient:   !patientOK,
				MissingClinician: !clinOK,
			})
		}
	}
	return orphans, nil
}
