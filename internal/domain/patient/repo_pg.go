package patient

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardroster/wardroster/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

// patientCols is the column list scanPatient reads.
const patientCols = `p.id, p.first_name, p.paternal_name, p.maternal_name, p.birth_date, p.sex, p.weight_kg, p.height_cm, p.external_id`

// scanPatient reads one row selected with patientCols.
func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.PaternalName, &p.MaternalName,
		&p.BirthDate, &p.Sex, &p.WeightKg, &p.HeightCm, &p.ExternalID)
	return &p, err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient p WHERE p.id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "patient")
	}
	return p, nil
}

func (r *repoPG) List(ctx context.Context, filter string) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patient p
		WHERE $1 = '' OR strpos(lower(concat_ws(' ', p.first_name, p.paternal_name, p.maternal_name)), $1) > 0
		ORDER BY p.paternal_name, p.first_name, p.id`, strings.ToLower(filter))
	if err != nil {
		return nil, db.MapError(err, "patient")
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, db.MapError(err, "patient")
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, "patient")
	}
	return items, nil
}
