package ward

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardroster/wardroster/internal/domain/patient"
	"github.com/wardroster/wardroster/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

// One round trip: beds of the floor's rooms, left-joined with the occupant.
const wardMapSQL = `
	SELECT b.id, b.room_id, b.number, b.patient_id,
	       r.id, r.floor_id, r.number,
	       p.id, p.first_name, p.paternal_name, p.maternal_name, p.birth_date,
	       p.sex, p.weight_kg, p.height_cm, p.external_id
	FROM bed b
	JOIN room r ON r.id = b.room_id
	LEFT JOIN patient p ON p.id = b.patient_id
	WHERE r.floor_id = $1
	ORDER BY r.number, r.id, b.number, b.id`

func (r *repoPG) WardMap(ctx context.Context, floorID uuid.UUID) ([]BedOccupancy, error) {
	rows, err := r.conn(ctx).Query(ctx, wardMapSQL, floorID)
	if err != nil {
		return nil, db.MapError(err, "bed")
	}
	defer rows.Close()

	var items []BedOccupancy
	for rows.Next() {
		var (
			o        BedOccupancy
			pid      *uuid.UUID
			first    *string
			paternal *string
			maternal *string
			birth    *time.Time
			sex      *string
			weight   *float64
			height   *float64
			extID    *string
		)
		if err := rows.Scan(
			&o.Bed.ID, &o.Bed.RoomID, &o.Bed.Number, &o.Bed.PatientID,
			&o.Room.ID, &o.Room.FloorID, &o.Room.Number,
			&pid, &first, &paternal, &maternal, &birth, &sex, &weight, &height, &extID,
		); err != nil {
			return nil, db.MapError(err, "bed")
		}
		if pid != nil {
			o.Patient = &patient.Patient{
				ID:           *pid,
				FirstName:    deref(first),
				PaternalName: deref(paternal),
				MaternalName: deref(maternal),
				BirthDate:    birth,
				Sex:          deref(sex),
				WeightKg:     weight,
				HeightCm:     height,
				ExternalID:   deref(extID),
			}
		}
		items = append(items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, "bed")
	}
	return items, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
