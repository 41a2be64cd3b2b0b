package nursing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardroster/wardroster/internal/platform/apperr"
	"github.com/wardroster/wardroster/internal/platform/db"
)

// =========== VitalSigns Repository ===========

type vitalSignsRepoPG struct{ pool *pgxpool.Pool }

func NewVitalSignsRepoPG(pool *pgxpool.Pool) VitalSignsRepository {
	return &vitalSignsRepoPG{pool: pool}
}

func (r *vitalSignsRepoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

func (r *vitalSignsRepoPG) Create(ctx context.Context, v *VitalSigns) error {
	v.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO vital_signs (id, glucose, systolic_bp, diastolic_bp, temperature,
			oxygen_saturation, bowel_movements, urine_ml, measured_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		v.ID, v.Glucose, v.SystolicBP, v.DiastolicBP, v.Temperature,
		v.OxygenSaturation, v.BowelMovements, v.UrineMl, v.MeasuredAt)
	if err != nil {
		v.ID = uuid.Nil
		return db.MapError(err, "vital_signs")
	}
	return nil
}

func (r *vitalSignsRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*VitalSigns, error) {
	var v VitalSigns
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, glucose, systolic_bp, diastolic_bp, temperature,
			oxygen_saturation, bowel_movements, urine_ml, measured_at
		FROM vital_signs WHERE id = $1`, id).Scan(
		&v.ID, &v.Glucose, &v.SystolicBP, &v.DiastolicBP, &v.Temperature,
		&v.OxygenSaturation, &v.BowelMovements, &v.UrineMl, &v.MeasuredAt)
	if err != nil {
		return nil, db.MapError(err, "vital_signs")
	}
	return &v, nil
}

func (r *vitalSignsRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM vital_signs WHERE id = $1`, id)
	return db.MapError(err, "vital_signs")
}

// =========== Record Repository ===========

type recordRepoPG struct{ pool *pgxpool.Pool }

func NewRecordRepoPG(pool *pgxpool.Pool) RecordRepository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

const recordSelect = `
	SELECT nr.id, nr.patient_id, nr.assignment_id, nr.assignment_fallback, nr.author_id,
	       nr.recorded_at, nr.observation, nr.signed, nr.signed_at, nr.vital_signs_id, nr.created_at,
	       vs.id, vs.glucose, vs.systolic_bp, vs.diastolic_bp, vs.temperature,
	       vs.oxygen_saturation, vs.bowel_movements, vs.urine_ml, vs.measured_at
	FROM nursing_record nr
	JOIN vital_signs vs ON vs.id = nr.vital_signs_id`

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec Record
		v   VitalSigns
	)
	err := row.Scan(
		&rec.ID, &rec.PatientID, &rec.AssignmentID, &rec.AssignmentFallback, &rec.AuthorID,
		&rec.RecordedAt, &rec.Observation, &rec.Signed, &rec.SignedAt, &rec.VitalSignsID, &rec.CreatedAt,
		&v.ID, &v.Glucose, &v.SystolicBP, &v.DiastolicBP, &v.Temperature,
		&v.OxygenSaturation, &v.BowelMovements, &v.UrineMl, &v.MeasuredAt)
	if err != nil {
		return nil, err
	}
	rec.VitalSigns = &v
	return &rec, nil
}

func (r *recordRepoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO nursing_record (id, patient_id, assignment_id, assignment_fallback, author_id,
			recorded_at, observation, signed, signed_at, vital_signs_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at`,
		rec.ID, rec.PatientID, rec.AssignmentID, rec.AssignmentFallback, rec.AuthorID,
		rec.RecordedAt, rec.Observation, rec.Signed, rec.SignedAt, rec.VitalSignsID).Scan(&rec.CreatedAt)
	return db.MapError(err, "nursing_record")
}

func (r *recordRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := scanRecord(r.conn(ctx).QueryRow(ctx, recordSelect+` WHERE nr.id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "nursing_record")
	}
	return rec, nil
}

func (r *recordRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Record, error) {
	return r.list(ctx, recordSelect+` WHERE nr.patient_id = $1 ORDER BY nr.recorded_at DESC, nr.id DESC LIMIT $2`, patientID, limit)
}

func (r *recordRepoPG) ListRecent(ctx context.Context, limit int) ([]*Record, error) {
	return r.list(ctx, recordSelect+` ORDER BY nr.recorded_at DESC, nr.id DESC LIMIT $1`, limit)
}

func (r *recordRepoPG) list(ctx context.Context, query string, args ...interface{}) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, db.MapError(err, "nursing_record")
	}
	defer rows.Close()
	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, db.MapError(err, "nursing_record")
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, "nursing_record")
	}
	return items, nil
}

func (r *recordRepoPG) UpdateObservation(ctx context.Context, id uuid.UUID, observation string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE nursing_record SET observation = $2 WHERE id = $1 AND NOT signed`, id, observation)
	if err != nil {
		return db.MapError(err, "nursing_record")
	}
	if tag.RowsAffected() == 0 {
		return r.whyUnchanged(ctx, id)
	}
	return nil
}

// UpdateReadings changes the owned vital signs in the same statement that
// checks the record is unsigned.
func (r *recordRepoPG) UpdateReadings(ctx context.Context, id uuid.UUID, rd Readings) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE vital_signs vs SET glucose=$2, systolic_bp=$3, diastolic_bp=$4, temperature=$5,
			oxygen_saturation=$6, bowel_movements=$7, urine_ml=$8
		FROM nursing_record nr
		WHERE nr.id = $1 AND vs.id = nr.vital_signs_id AND NOT nr.signed`,
		id, rd.Glucose, rd.SystolicBP, rd.DiastolicBP, rd.Temperature,
		rd.OxygenSaturation, rd.BowelMovements, rd.UrineMl)
	if err != nil {
		return db.MapError(err, "vital_signs")
	}
	if tag.RowsAffected() == 0 {
		return r.whyUnchanged(ctx, id)
	}
	return nil
}

func (r *recordRepoPG) Sign(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE nursing_record SET signed = TRUE, signed_at = $2 WHERE id = $1 AND NOT signed`, id, at)
	if err != nil {
		return db.MapError(err, "nursing_record")
	}
	if tag.RowsAffected() == 0 {
		return r.whyUnchanged(ctx, id)
	}
	return nil
}

// whyUnchanged tells a missing record from a signed one after an update
// matched no row.
func (r *recordRepoPG) whyUnchanged(ctx context.Context, id uuid.UUID) error {
	var signed bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT signed FROM nursing_record WHERE id = $1`, id).Scan(&signed)
	if err != nil {
		return db.MapError(err, "nursing_record")
	}
	return apperr.Signed(id.String())
}
