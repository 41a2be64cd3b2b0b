package roster

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wardroster/wardroster/internal/domain/facility"
	"github.com/wardroster/wardroster/internal/platform/apperr"
	"github.com/wardroster/wardroster/internal/platform/db"
)

// =========== Period Repository ===========

type periodRepoPG struct{ pool *pgxpool.Pool }

func NewPeriodRepoPG(pool *pgxpool.Pool) PeriodRepository {
	return &periodRepoPG{pool: pool}
}

func (r *periodRepoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

const periodCols = `id, name, start_date, end_date, created_by, created_at`

func scanPeriod(row pgx.Row) (*Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.CreatedBy, &p.CreatedAt)
	return &p, err
}

func (r *periodRepoPG) Create(ctx context.Context, p *Period) error {
	p.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO roster_period (id, name, start_date, end_date, created_by)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`,
		p.ID, p.Name, p.StartDate, p.EndDate, p.CreatedBy).Scan(&p.CreatedAt)
	return db.MapError(err, "roster_period")
}

func (r *periodRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Period, error) {
	p, err := scanPeriod(r.conn(ctx).QueryRow(ctx, `SELECT `+periodCols+` FROM roster_period WHERE id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "roster_period")
	}
	return p, nil
}

func (r *periodRepoPG) List(ctx context.Context, limit, offset int) ([]*Period, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM roster_period`).Scan(&total); err != nil {
		return nil, 0, db.MapError(err, "roster_period")
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+periodCols+` FROM roster_period
		ORDER BY start_date DESC, created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, db.MapError(err, "roster_period")
	}
	defer rows.Close()
	var items []*Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, 0, db.MapError(err, "roster_period")
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, db.MapError(err, "roster_period")
	}
	return items, total, nil
}

// =========== Assignment Repository ===========

type assignmentRepoPG struct{ pool *pgxpool.Pool }

func NewAssignmentRepoPG(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepoPG{pool: pool}
}

func (r *assignmentRepoPG) conn(ctx context.Context) db.Querier {
	return db.From(ctx, r.pool)
}

const assignmentCols = `a.id, a.period_id, a.nurse_id, a.shift_id, a.area_id, a.date, a.created_at`

const assignmentView = `SELECT ` + assignmentCols + `,
	       concat_ws(' ', n.first_name, n.paternal_name, n.maternal_name), s.name, ar.name
	FROM roster_assignment a
	JOIN nurse n ON n.id = a.nurse_id
	JOIN shift s ON s.id = a.shift_id
	JOIN area ar ON ar.id = a.area_id`

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.PeriodID, &a.NurseID, &a.ShiftID, &a.AreaID, &a.Date, &a.CreatedAt,
		&a.NurseName, &a.ShiftName, &a.AreaName)
	if err != nil {
		return nil, err
	}
	a.ShiftCategory = facility.CategoryOf(a.ShiftName)
	return &a, nil
}

func (r *assignmentRepoPG) Create(ctx context.Context, a *Assignment) error {
	a.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO roster_assignment (id, period_id, nurse_id, shift_id, area_id, date)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`,
		a.ID, a.PeriodID, a.NurseID, a.ShiftID, a.AreaID, a.Date).Scan(&a.CreatedAt)
	if db.IsUniqueViolation(err) {
		e := apperr.Conflict("nurse is already assigned to this shift on this date", "")
		e.Err = err
		return e
	}
	return db.MapError(err, "roster_assignment")
}

func (r *assignmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error) {
	a, err := scanAssignment(r.conn(ctx).QueryRow(ctx, assignmentView+` WHERE a.id = $1`, id))
	if err != nil {
		return nil, db.MapError(err, "roster_assignment")
	}
	return a, nil
}

func (r *assignmentRepoPG) FindBySlot(ctx context.Context, slot Slot) (*Assignment, error) {
	a, err := scanAssignment(r.conn(ctx).QueryRow(ctx,
		assignmentView+` WHERE a.nurse_id = $1 AND a.date = $2 AND a.shift_id = $3`,
		slot.NurseID, slot.Date, slot.ShiftID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, db.MapError(err, "roster_assignment")
	}
	return a, nil
}

func (r *assignmentRepoPG) List(ctx context.Context, f AssignmentFilter) ([]*Assignment, error) {
	var (
		where []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if f.PeriodID != nil {
		add("a.period_id = ?", *f.PeriodID)
	}
	if f.NurseID != nil {
		add("a.nurse_id = ?", *f.NurseID)
	}
	if f.From != nil {
		add("a.date >= ?", *f.From)
	}
	if f.To != nil {
		add("a.date <= ?", *f.To)
	}

	query := assignmentView
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.date, s.name, n.paternal_name, n.first_name, a.id"

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, db.MapError(err, "roster_assignment")
	}
	defer rows.Close()
	var items []*Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, db.MapError(err, "roster_assignment")
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, db.MapError(err, "roster_assignment")
	}
	return items, nil
}
