package staff

import (
	"context"

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

const nurseCols = `id, first_name, paternal_name, maternal_name, role`

func scanNurse(row pgx.Row) (*Nurse, error) {
	var n Nurse
	err := row.Scan(&n.ID, &n.FirstName, &n.PaternalName, &n.MaternalName, &n.Role)
	return &n, err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Nurse, error) {
	n, err := scanNurse(r.conn(ctx).QueryRow(ctx, `SELECT `+nurseCols+` FROM nurse WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "nurse")
	}
	return n, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Nurse, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM nurse`).Scan(&total); err != nil {
		return nil, 0, db.MapError(err, "nurse")
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+nurseCols+` FROM nurse
		ORDER BY paternal_name, maternal_name, first_name, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err, "nurse")
	}
	defer rows.Close()
	var items []*Nurse
	for rows.Next() {
		n, err := scanNurse(rows)
		if err != nil {
			return nil, 0, db.MapError(err, "nurse")
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.MapError(err, "nurse")
	}
	return items, total, nil
}
