package staff

import (
	"context"

	"github.com/google/uuid"
)

// Repository reads the nurse directory.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Nurse, error)
	List(ctx context.Context, limit, offset int) ([]*Nurse, int, error)
}
