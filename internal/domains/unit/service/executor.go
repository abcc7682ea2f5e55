package service

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"catalog-analyzer/internal/domains/unit"
)

// =====================================================
// PLAN EXECUTOR
// =====================================================

// executor applies a Plan inside the caller's transaction. The phase order
// is fixed: hierarchy edits first, then unit rows, then aggregates (which
// resolve ancestor chains against the already-updated hierarchy), then
// history appends. Any failure aborts the whole batch.
type executor struct {
	units      unit.UnitRepository
	hierarchy  unit.HierarchyRepository
	aggregates unit.AggregateRepository
	history    unit.HistoryRepository
}

func newExecutor(units unit.UnitRepository, hierarchy unit.HierarchyRepository, aggregates unit.AggregateRepository, history unit.HistoryRepository) *executor {
	return &executor{
		units:      units,
		hierarchy:  hierarchy,
		aggregates: aggregates,
		history:    history,
	}
}

func (e *executor) Apply(ctx context.Context, tx pgx.Tx, plan *unit.Plan) error {
	for _, op := range plan.HierarchyOps {
		var err error
		switch op.Kind {
		case unit.OpBuild:
			err = e.hierarchy.BuildWithTx(ctx, tx, op.UnitID, *op.Parent)
		case unit.OpRebuild:
			err = e.hierarchy.RebuildWithTx(ctx, tx, op.UnitID, op.Parent)
		}
		if err != nil {
			return err
		}
	}

	for _, row := range plan.Upserts {
		if err := e.units.UpsertWithTx(ctx, tx, row); err != nil {
			return err
		}
	}

	categoryEvents, err := e.applyAggregates(ctx, tx, plan)
	if err != nil {
		return err
	}

	events := make([]unit.PriceEvent, 0, len(plan.OfferEvents)+len(categoryEvents))
	for _, ev := range plan.OfferEvents {
		price := ev.Price
		events = append(events, unit.PriceEvent{UnitID: ev.UnitID, Price: &price, Date: plan.Date})
	}
	events = append(events, categoryEvents...)
	return e.history.AppendWithTx(ctx, tx, events)
}

// applyAggregates expands each parent key to {key} ∪ ancestors(key), stamps
// last_update over the full reach, folds the summed deltas per recipient and
// rewrites every recipient's derived price. Returns the history events for
// the delta recipients, in a deterministic id order.
func (e *executor) applyAggregates(ctx context.Context, tx pgx.Tx, plan *unit.Plan) ([]unit.PriceEvent, error) {
	if err := e.aggregates.CreateWithTx(ctx, tx, plan.AggregateCreates); err != nil {
		return nil, err
	}
	if len(plan.DateKeys) == 0 {
		return nil, nil
	}

	keys := make([]uuid.UUID, 0, len(plan.DateKeys))
	for key := range plan.DateKeys {
		keys = append(keys, key)
	}
	sortUUIDs(keys)

	ancestors, err := e.hierarchy.AncestorsWithTx(ctx, tx, keys)
	if err != nil {
		return nil, err
	}

	touched := make(map[uuid.UUID]struct{})
	for key := range plan.DateKeys {
		touched[key] = struct{}{}
		for _, ancestor := range ancestors[key] {
			touched[ancestor] = struct{}{}
		}
	}
	if err := e.units.TouchLastUpdateWithTx(ctx, tx, sortedSet(touched), plan.Date); err != nil {
		return nil, err
	}

	folded := make(map[uuid.UUID]unit.Delta)
	for key, d := range plan.Deltas {
		folded[key] = folded[key].Add(d)
		for _, ancestor := range ancestors[key] {
			folded[ancestor] = folded[ancestor].Add(d)
		}
	}

	recipients := make([]uuid.UUID, 0, len(folded))
	for id := range folded {
		recipients = append(recipients, id)
	}
	sortUUIDs(recipients)

	events := make([]unit.PriceEvent, 0, len(recipients))
	for _, id := range recipients {
		agg, err := e.aggregates.ApplyDeltaWithTx(ctx, tx, id, folded[id])
		if err != nil {
			return nil, err
		}
		price := agg.Mean()
		// last_update was already stamped by the date touch above.
		if err := e.units.SetDerivedPriceWithTx(ctx, tx, id, price, nil); err != nil {
			return nil, err
		}
		events = append(events, unit.PriceEvent{UnitID: id, Price: price, Date: plan.Date})
	}
	return events, nil
}

func sortedSet(set map[uuid.UUID]struct{}) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sortUUIDs(ids)
	return ids
}

func sortUUIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}
