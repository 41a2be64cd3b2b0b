package facility

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

func (r *repoPG) ListFloors(ctx context.Context) ([]*Floor, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, number FROM floor ORDER BY number, id`)
	if err != nil {
		return nil, db.MapError(err, "floor")
	}
	return collect(rows, func(row pgx.Rows) (*Floor, error) {
		var f Floor
		return &f, row.Scan(&f.ID, &f.Number)
	}, "floor")
}

func (r *repoPG) GetFloor(ctx context.Context, id uuid.UUID) (*Floor, error) {
	var f Floor
	err := r.conn(ctx).QueryRow(ctx, `SELECT id, number FROM floor WHERE id = $1`, id).Scan(&f.ID, &f.Number)
	if err != nil {
		return nil, db.MapError(err, "floor")
	}
	return &f, nil
}

func (r *repoPG) ListRooms(ctx context.Context, floorID uuid.UUID) ([]*Room, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, floor_id, number FROM room WHERE floor_id = $1 ORDER BY number, id`, floorID)
	if err != nil {
		return nil, db.MapError(err, "room")
	}
	return collect(rows, func(row pgx.Rows) (*Room, error) {
		var rm Room
		return &rm, row.Scan(&rm.ID, &rm.FloorID, &rm.Number)
	}, "room")
}

func (r *repoPG) ListAreas(ctx context.Context) ([]*Area, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name FROM area ORDER BY name, id`)
	if err != nil {
		return nil, db.MapError(err, "area")
	}
	return collect(rows, func(row pgx.Rows) (*Area, error) {
		var a Area
		return &a, row.Scan(&a.ID, &a.Name)
	}, "area")
}

func (r *repoPG) GetArea(ctx context.Context, id uuid.UUID) (*Area, error) {
	var a Area
	if err := r.conn(ctx).QueryRow(ctx, `SELECT id, name FROM area WHERE id = $1`, id).Scan(&a.ID, &a.Name); err != nil {
		return nil, db.MapError(err, "area")
	}
	return &a, nil
}

func (r *repoPG) ListShifts(ctx context.Context) ([]*Shift, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name FROM shift ORDER BY name, id`)
	if err != nil {
		return nil, db.MapError(err, "shift")
	}
	return collect(rows, func(row pgx.Rows) (*Shift, error) {
		var s Shift
		return &s, row.Scan(&s.ID, &s.Name)
	}, "shift")
}

func (r *repoPG) GetShift(ctx context.Context, id uuid.UUID) (*Shift, error) {
	var s Shift
	if err := r.conn(ctx).QueryRow(ctx, `SELECT id, name FROM shift WHERE id = $1`, id).Scan(&s.ID, &s.Name); err != nil {
		return nil, db.MapError(err, "shift")
	}
	return &s, nil
}

func collect[T any](rows pgx.Rows, scan func(pgx.Rows) (*T, error), resource string) ([]*T, error) {
	defer rows.Close()
	var items []*T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, db.MapError(err, resource)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, resource)
	}
	return items, nil
}
