package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	// List returns patients whose full name contains filter, ignoring case,
	// ordered by paternal name then first name.
	List(ctx context.Context, filter string) ([]*Patient, error)
}
