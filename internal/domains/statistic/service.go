package statistic

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service answers the two read-only history queries.
type Service interface {
	// NodeStatistic returns the unit's price records within [start, end).
	// Bounds may each be nil for an open end. Fails with ErrUnitNotFound
	// before any range check when the id is absent.
	NodeStatistic(ctx context.Context, id uuid.UUID, start, end *time.Time) (*StatResponse, error)

	// Sales returns every offer whose most recent price record lies in the
	// closed window [date − 24h, date].
	Sales(ctx context.Context, date time.Time) (*StatResponse, error)
}
