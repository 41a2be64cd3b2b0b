package ward

import (
	"context"

	"github.com/google/uuid"
)

// Repository performs the bed/room/patient join for one floor.
type Repository interface {
	// WardMap returns every bed on the floor. An unknown floor yields no rows.
	WardMap(ctx context.Context, floorID uuid.UUID) ([]BedOccupancy, error)
}
