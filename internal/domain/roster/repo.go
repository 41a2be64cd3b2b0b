package roster

import (
	"context"

	"github.com/google/uuid"

	"github.com/wardroster/wardroster/internal/domain/facility"
	"github.com/wardroster/wardroster/internal/domain/staff"
)

type PeriodRepository interface {
	Create(ctx context.Context, p *Period) error
	GetByID(ctx context.Context, id uuid.UUID) (*Period, error)
	List(ctx context.Context, limit, offset int) ([]*Period, int, error)
}

type AssignmentRepository interface {
	// Create fails with a SchedulingConflict when the slot is already held.
	Create(ctx context.Context, a *Assignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Assignment, error)
	// FindBySlot returns nil, nil when the slot is free.
	FindBySlot(ctx context.Context, slot Slot) (*Assignment, error)
	// List orders by date, then shift name, then nurse name.
	List(ctx context.Context, f AssignmentFilter) ([]*Assignment, error)
}

// NurseDirectory resolves nurse references.
type NurseDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*staff.Nurse, error)
}

// References resolves shift and area references. facility.Repository
// satisfies it.
type References interface {
	GetShift(ctx context.Context, id uuid.UUID) (*facility.Shift, error)
	GetArea(ctx context.Context, id uuid.UUID) (*facility.Area, error)
}
