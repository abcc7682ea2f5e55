package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"catalog-analyzer/internal/domains/unit"
)

// =====================================================
// IMPORT PLANNER
// =====================================================

// planner turns one import batch into a Plan. It reads pre-images and
// aggregates but never writes; a batch that fails any check here leaves no
// trace. Store writes are the executor's job.
type planner struct {
	units      unit.UnitRepository
	hierarchy  unit.HierarchyRepository
	aggregates unit.AggregateRepository
}

func newPlanner(units unit.UnitRepository, hierarchy unit.HierarchyRepository, aggregates unit.AggregateRepository) *planner {
	return &planner{
		units:      units,
		hierarchy:  hierarchy,
		aggregates: aggregates,
	}
}

// BuildPlan validates the whole batch against the store, orders it so
// in-batch parents precede their children, and lays out every write the
// batch implies.
func (p *planner) BuildPlan(ctx context.Context, tx pgx.Tx, req *unit.ImportRequest) (*unit.Plan, error) {
	items, byID, err := indexBatch(req.Items)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	preImages, err := p.units.GetByIDsWithTx(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	if err := checkTypes(items, preImages); err != nil {
		return nil, err
	}
	if err := p.checkParents(ctx, tx, items, byID); err != nil {
		return nil, err
	}
	if err := p.checkMoves(ctx, tx, items, byID, preImages); err != nil {
		return nil, err
	}

	ordered, err := sortByParent(items, byID)
	if err != nil {
		return nil, err
	}

	plan := unit.NewPlan(req.UpdateDate)
	for _, item := range ordered {
		if err := p.planItem(ctx, tx, plan, item, preImages[item.ID]); err != nil {
			return nil, err
		}
	}
	return plan, nil
}

// indexBatch rejects duplicate ids and builds the id lookup used by the
// parent and ordering checks.
func indexBatch(items []unit.ShopUnitImport) ([]*unit.ShopUnitImport, map[uuid.UUID]*unit.ShopUnitImport, error) {
	ordered := make([]*unit.ShopUnitImport, 0, len(items))
	byID := make(map[uuid.UUID]*unit.ShopUnitImport, len(items))

	for i := range items {
		item := &items[i]
		if _, ok := byID[item.ID]; ok {
			return nil, nil, fmt.Errorf("duplicate unit id %s: %w", item.ID, unit.ErrValidation)
		}
		byID[item.ID] = item
		ordered = append(ordered, item)
	}
	return ordered, byID, nil
}

func checkTypes(items []*unit.ShopUnitImport, preImages map[uuid.UUID]*unit.Unit) error {
	for _, item := range items {
		old, ok := preImages[item.ID]
		if ok && old.IsCategory != item.IsCategory() {
			return fmt.Errorf("unit %s: %w", item.ID, unit.ErrUnitTypeChanged)
		}
	}
	return nil
}

// checkParents requires every referenced parent to be a category, found
// either in this batch or in the store.
func (p *planner) checkParents(ctx context.Context, tx pgx.Tx, items []*unit.ShopUnitImport, byID map[uuid.UUID]*unit.ShopUnitImport) error {
	var external []uuid.UUID
	seen := make(map[uuid.UUID]struct{})

	for _, item := range items {
		if item.ParentID == nil {
			continue
		}
		parentID := *item.ParentID
		if parentID == item.ID {
			return fmt.Errorf("unit %s is its own parent: %w", item.ID, unit.ErrValidation)
		}
		if parent, ok := byID[parentID]; ok {
			if !parent.IsCategory() {
				return fmt.Errorf("parent %s of unit %s is an offer: %w", parentID, item.ID, unit.ErrValidation)
			}
			continue
		}
		if _, ok := seen[parentID]; !ok {
			seen[parentID] = struct{}{}
			external = append(external, parentID)
		}
	}
	if len(external) == 0 {
		return nil
	}

	parents, err := p.units.GetByIDsWithTx(ctx, tx, external)
	if err != nil {
		return err
	}
	for _, parentID := range external {
		parent, ok := parents[parentID]
		if !ok {
			return fmt.Errorf("parent %s not found: %w", parentID, unit.ErrValidation)
		}
		if !parent.IsCategory {
			return fmt.Errorf("parent %s is an offer: %w", parentID, unit.ErrValidation)
		}
	}
	return nil
}

// checkMoves refuses to re-parent a stored category under a unit of its own
// subtree, which would detach the subtree from the rest of the tree. Parents
// introduced by this batch have no edges yet and cannot be descendants.
func (p *planner) checkMoves(ctx context.Context, tx pgx.Tx, items []*unit.ShopUnitImport, byID map[uuid.UUID]*unit.ShopUnitImport, preImages map[uuid.UUID]*unit.Unit) error {
	for _, item := range items {
		old, ok := preImages[item.ID]
		if !ok || !old.IsCategory || item.ParentID == nil {
			continue
		}
		if uuidPtrEqual(old.ParentID, item.ParentID) {
			continue
		}
		if _, inBatch := byID[*item.ParentID]; inBatch {
			if _, existed := preImages[*item.ParentID]; !existed {
				continue
			}
		}
		under, err := p.hierarchy.IsDescendantWithTx(ctx, tx, item.ID, *item.ParentID)
		if err != nil {
			return err
		}
		if under {
			return fmt.Errorf("cannot move unit %s under its descendant %s: %w", item.ID, *item.ParentID, unit.ErrValidation)
		}
	}
	return nil
}

// sortByParent runs Kahn's algorithm over the in-batch parent references, so
// a new category always precedes its in-batch children. The queue is seeded
// in submission order, keeping the result deterministic. A cycle among batch
// items fails the whole batch.
func sortByParent(items []*unit.ShopUnitImport, byID map[uuid.UUID]*unit.ShopUnitImport) ([]*unit.ShopUnitImport, error) {
	indegree := make(map[uuid.UUID]int, len(items))
	children := make(map[uuid.UUID][]uuid.UUID)

	for _, item := range items {
		if item.ParentID == nil {
			continue
		}
		if _, ok := byID[*item.ParentID]; ok {
			indegree[item.ID]++
			children[*item.ParentID] = append(children[*item.ParentID], item.ID)
		}
	}

	queue := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if indegree[item.ID] == 0 {
			queue = append(queue, item.ID)
		}
	}

	ordered := make([]*unit.ShopUnitImport, 0, len(items))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		ordered = append(ordered, byID[id])
		for _, child := range children[id] {
			indegree[child]--
			if indegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if len(ordered) != len(items) {
		return nil, fmt.Errorf("cyclic parent chain in batch: %w", unit.ErrValidation)
	}
	return ordered, nil
}

// =====================================================
// PER-UNIT PLANNING
// =====================================================

func (p *planner) planItem(ctx context.Context, tx pgx.Tx, plan *unit.Plan, item *unit.ShopUnitImport, old *unit.Unit) error {
	plan.Upserts = append(plan.Upserts, item.ToUnit(plan.Date))

	// Every submitted offer gets a history event at the batch date, changed
	// or not. Submitted categories only get one when an aggregate delta
	// reaches them.
	if !item.IsCategory() {
		plan.OfferEvents = append(plan.OfferEvents, unit.OfferEvent{UnitID: item.ID, Price: *item.Price})
	}

	if old == nil {
		p.planInsert(plan, item)
		return nil
	}
	return p.planUpdate(ctx, tx, plan, item, old)
}

func (p *planner) planInsert(plan *unit.Plan, item *unit.ShopUnitImport) {
	if item.IsCategory() {
		plan.AggregateCreates = append(plan.AggregateCreates, item.ID)
	}
	if item.ParentID == nil {
		return
	}

	plan.HierarchyOps = append(plan.HierarchyOps, unit.HierarchyOp{
		Kind:   unit.OpBuild,
		UnitID: item.ID,
		Parent: item.ParentID,
	})
	if item.IsCategory() {
		plan.TouchDate(*item.ParentID)
	} else {
		plan.AddDelta(*item.ParentID, unit.Delta{Sum: *item.Price, Count: 1})
	}
}

func (p *planner) planUpdate(ctx context.Context, tx pgx.Tx, plan *unit.Plan, item *unit.ShopUnitImport, old *unit.Unit) error {
	if uuidPtrEqual(old.ParentID, item.ParentID) {
		if item.ParentID != nil {
			plan.TouchDate(*item.ParentID)
			if !item.IsCategory() && *item.Price != *old.Price {
				plan.AddDelta(*item.ParentID, unit.Delta{Sum: *item.Price - *old.Price})
			}
		}
		return nil
	}

	// The unit moved: its whole weight leaves the old chain and lands on the
	// new one. For a category that weight is its current aggregate, offers
	// carry their single price. Zero-weight moves still mark both chains so
	// their prices and dates are rewritten.
	var leaving, arriving unit.Delta
	if item.IsCategory() {
		agg, err := p.aggregates.GetWithTx(ctx, tx, item.ID)
		if err != nil {
			return err
		}
		leaving = unit.Delta{Sum: -agg.Sum, Count: -agg.Count}
		arriving = unit.Delta{Sum: agg.Sum, Count: agg.Count}
	} else {
		leaving = unit.Delta{Sum: -*old.Price, Count: -1}
		arriving = unit.Delta{Sum: *item.Price, Count: 1}
	}

	if old.ParentID != nil {
		plan.AddDelta(*old.ParentID, leaving)
	}
	if item.ParentID != nil {
		plan.AddDelta(*item.ParentID, arriving)
	}

	plan.HierarchyOps = append(plan.HierarchyOps, unit.HierarchyOp{
		Kind:   unit.OpRebuild,
		UnitID: item.ID,
		Parent: item.ParentID,
	})
	return nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
