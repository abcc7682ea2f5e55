package statistic

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StatisticRepository reads the append-only price history. All methods run
// outside any transaction; readers observe whatever the store has committed.
type StatisticRepository interface {
	// UnitExists reports whether the id is present at all. Having no
	// history is not the same as not existing.
	UnitExists(ctx context.Context, id uuid.UUID) (bool, error)

	// EventsByUnit returns the unit's records inside [start, end), oldest
	// first. A nil bound means unbounded on that side.
	EventsByUnit(ctx context.Context, id uuid.UUID, start, end *time.Time) ([]Record, error)

	// LatestOfferEvents returns, for every offer whose most recent record
	// falls inside [from, to], that single record.
	LatestOfferEvents(ctx context.Context, from, to time.Time) ([]Record, error)
}
