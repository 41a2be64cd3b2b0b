package nursing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wardroster/wardroster/internal/domain/patient"
	"github.com/wardroster/wardroster/internal/domain/roster"
)

type VitalSignsRepository interface {
	Create(ctx context.Context, v *VitalSigns) error
	GetByID(ctx context.Context, id uuid.UUID) (*VitalSigns, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type RecordRepository interface {
	Create(ctx context.Context, r *Record) error
	// GetByID returns the record with its vital signs.
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	// ListByPatient and ListRecent return the newest records first.
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Record, error)
	ListRecent(ctx context.Context, limit int) ([]*Record, error)
	// UpdateObservation, UpdateReadings and Sign fail with RecordSigned when
	// the record is already signed.
	UpdateObservation(ctx context.Context, id uuid.UUID, observation string) error
	// UpdateReadings rewrites the vital signs owned by record id.
	UpdateReadings(ctx context.Context, id uuid.UUID, r Readings) error
	Sign(ctx context.Context, id uuid.UUID, at time.Time) error
}

// DutyResolver picks the assignment a nurse is working at a given instant;
// roster.Service satisfies it.
type DutyResolver interface {
	AssignmentForDuty(ctx context.Context, nurseID uuid.UUID, at time.Time) (*roster.Assignment, error)
}

// PatientLookup resolves patient references.
type PatientLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}
