package unit

import (
	"time"

	"github.com/google/uuid"
)

// Delta is one additive contribution to a category's aggregate.
type Delta struct {
	Sum   int64
	Count int64
}

func (d Delta) Add(o Delta) Delta {
	return Delta{Sum: d.Sum + o.Sum, Count: d.Count + o.Count}
}

func (d Delta) IsZero() bool {
	return d.Sum == 0 && d.Count == 0
}

// HierarchyOpKind selects how an edge set changes for one unit.
type HierarchyOpKind int

const (
	// OpBuild attaches a unit that had no edges: the unit is new.
	OpBuild HierarchyOpKind = iota
	// OpRebuild re-homes an existing subtree under a new parent, keeping
	// the subtree's inner edges.
	OpRebuild
)

type HierarchyOp struct {
	Kind   HierarchyOpKind
	UnitID uuid.UUID
	// Parent is nil when a subtree moves to the forest root.
	Parent *uuid.UUID
}

// OfferEvent records that a submitted offer must appear in history at its
// post-batch price, whether or not anything about it changed.
type OfferEvent struct {
	UnitID uuid.UUID
	Price  int64
}

// Plan is everything one import batch does to the store, produced by the
// planner without writing and applied by the executor in phase order:
// hierarchy edits, unit rows, aggregates, history.
//
// Deltas and DateKeys are keyed by parent category id; the executor expands
// each key to {key} ∪ ancestors(key) against the closure table after the
// hierarchy phase, so moved subtrees are charged along their new paths.
type Plan struct {
	Date time.Time

	// HierarchyOps run first, in planning order, so an op can rely on the
	// edges of every op before it.
	HierarchyOps []HierarchyOp

	// Upserts run second, ordered so in-batch parents precede children.
	Upserts []*Unit

	// AggregateCreates seeds (0,0) rows for new categories.
	AggregateCreates []uuid.UUID

	Deltas   map[uuid.UUID]Delta
	DateKeys map[uuid.UUID]struct{}

	OfferEvents []OfferEvent
}

func NewPlan(date time.Time) *Plan {
	return &Plan{
		Date:     date,
		Deltas:   make(map[uuid.UUID]Delta),
		DateKeys: make(map[uuid.UUID]struct{}),
	}
}

// AddDelta charges (sum, count) to parent's ancestor chain and marks the
// chain date-touched: a price change always refreshes last_update too.
func (p *Plan) AddDelta(parent uuid.UUID, d Delta) {
	p.Deltas[parent] = p.Deltas[parent].Add(d)
	p.DateKeys[parent] = struct{}{}
}

// TouchDate marks parent's ancestor chain for a last_update refresh without
// changing any aggregate.
func (p *Plan) TouchDate(parent uuid.UUID) {
	p.DateKeys[parent] = struct{}{}
}
