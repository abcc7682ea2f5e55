package unit

import (
	"context"

	"github.com/google/uuid"
)

// Service is the mutation and snapshot surface of the catalog.
type Service interface {
	// Import applies one batch atomically: either every item lands and
	// every ancestor aggregate is current, or nothing changed.
	Import(ctx context.Context, req *ImportRequest) error
	// Delete removes a unit and, for categories, its whole subtree,
	// recomputing ancestor aggregates. Ancestor last_update stays as it
	// was: no update date accompanies a delete.
	Delete(ctx context.Context, id uuid.UUID) error
	// GetNode returns the unit with its full subtree attached.
	GetNode(ctx context.Context, id uuid.UUID) (*ShopUnit, error)
}
