package facility

import (
	"context"

	"github.com/google/uuid"
)

// Repository reads the reference data. There is no write path: floors, rooms,
// beds, areas and shifts are maintained outside this service.
type Repository interface {
	ListFloors(ctx context.Context) ([]*Floor, error)
	GetFloor(ctx context.Context, id uuid.UUID) (*Floor, error)
	ListRooms(ctx context.Context, floorID uuid.UUID) ([]*Room, error)
	ListAreas(ctx context.Context) ([]*Area, error)
	GetArea(ctx context.Context, id uuid.UUID) (*Area, error)
	ListShifts(ctx context.Context) ([]*Shift, error)
	GetShift(ctx context.Context, id uuid.UUID) (*Shift, error)
}
