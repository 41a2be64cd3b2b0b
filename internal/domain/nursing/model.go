package nursing

import (
	"time"

	"github.com/google/uuid"

	"github.com/wardroster/wardroster/internal/domain/patient"
	"github.com/wardroster/wardroster/internal/platform/apperr"
)

// Readings are the measured values of a vital signs snapshot. All may be
// zero when the snapshot is taken before anything was measured; none may be
// negative. Clinical ranges are not checked.
type Readings struct {
	Glucose          float64 `db:"glucose" json:"glucose"`
	SystolicBP       int     `db:"systolic_bp" json:"systolic_bp"`
	DiastolicBP      int     `db:"diastolic_bp" json:"diastolic_bp"`
	Temperature      float64 `db:"temperature" json:"temperature"`
	OxygenSaturation float64 `db:"oxygen_saturation" json:"oxygen_saturation"`
	BowelMovements   int     `db:"bowel_movements" json:"bowel_movements"`
	UrineMl          float64 `db:"urine_ml" json:"urine_ml"`
}

func (r Readings) validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"glucose", r.Glucose},
		{"systolic_bp", float64(r.SystolicBP)},
		{"diastolic_bp", float64(r.DiastolicBP)},
		{"temperature", r.Temperature},
		{"oxygen_saturation", r.OxygenSaturation},
		{"bowel_movements", float64(r.BowelMovements)},
		{"urine_ml", r.UrineMl},
	}
	for _, c := range checks {
		if c.value < 0 {
			return apperr.Invalid(c.name + " must not be negative")
		}
	}
	return nil
}

// VitalSigns maps to the vital_signs table. Each row belongs to exactly one
// nursing record and is created together with it.
type VitalSigns struct {
	ID uuid.UUID `db:"id" json:"id"`
	Readings
	MeasuredAt time.Time `db:"measured_at" json:"measured_at"`
}

// Record maps to the nursing_record table. A signed record is immutable.
type Record struct {
	ID                 uuid.UUID   `db:"id" json:"id"`
	PatientID          uuid.UUID   `db:"patient_id" json:"patient_id"`
	AssignmentID       uuid.UUID   `db:"assignment_id" json:"assignment_id"`
	AssignmentFallback bool        `db:"assignment_fallback" json:"assignment_fallback"`
	AuthorID           uuid.UUID   `db:"author_id" json:"author_id"`
	RecordedAt         time.Time   `db:"recorded_at" json:"recorded_at"`
	Observation        string      `db:"observation" json:"observation"`
	Signed             bool        `db:"signed" json:"signed"`
	SignedAt           *time.Time  `db:"signed_at" json:"signed_at,omitempty"`
	VitalSignsID       uuid.UUID   `db:"vital_signs_id" json:"vital_signs_id"`
	VitalSigns         *VitalSigns `json:"vital_signs,omitempty"`
	CreatedAt          time.Time   `db:"created_at" json:"created_at"`
}

// CreateRequest is the input of Service.CreateRecord.
type CreateRequest struct {
	PatientID   uuid.UUID  `json:"patient_id"`
	Observation string     `json:"observation"`
	Signed      bool       `json:"signed"`
	Readings    Readings   `json:"readings"`
	MeasuredAt  *time.Time `json:"measured_at,omitempty"`
}

// CreateResult reports the stored record. AssignmentFallback is set when no
// duty assignment could be found and the configured fallback was used.
type CreateResult struct {
	Record             *Record `json:"record"`
	AssignmentFallback bool    `json:"assignment_fallback"`
}

// UpdateRequest changes an unsigned record. Nil fields are left alone.
type UpdateRequest struct {
	Observation *string   `json:"observation,omitempty"`
	Readings    *Readings `json:"readings,omitempty"`
}

// Chart is the patient detail screen: the patient and its latest records.
type Chart struct {
	Patient patient.View `json:"patient"`
	Records []*Record    `json:"records"`
}
