package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"catalog-analyzer/internal/domains/unit"
	"catalog-analyzer/internal/shared/metrics"
	"catalog-analyzer/pkg/database"
)

// =====================================================
// UNIT SERVICE IMPLEMENTATION
// =====================================================

type unitService struct {
	db         database.DB
	units      unit.UnitRepository
	hierarchy  unit.HierarchyRepository
	aggregates unit.AggregateRepository
	history    unit.HistoryRepository
	planner    *planner
	executor   *executor
}

func NewUnitService(
	db database.DB,
	units unit.UnitRepository,
	hierarchy unit.HierarchyRepository,
	aggregates unit.AggregateRepository,
	history unit.HistoryRepository,
) unit.Service {
	return &unitService{
		db:         db,
		units:      units,
		hierarchy:  hierarchy,
		aggregates: aggregates,
		history:    history,
		planner:    newPlanner(units, hierarchy, aggregates),
		executor:   newExecutor(units, hierarchy, aggregates, history),
	}
}

// Import plans and applies one batch inside a single serializable
// transaction, so concurrent readers either see the whole batch or none
// of it.
func (s *unitService) Import(ctx context.Context, req *unit.ImportRequest) error {
	err := database.WithSerializableTransaction(ctx, s.db, func(tx pgx.Tx) error {
		plan, err := s.planner.BuildPlan(ctx, tx, req)
		if err != nil {
			return err
		}
		return s.executor.Apply(ctx, tx, plan)
	})
	if err != nil {
		return err
	}

	metrics.ImportBatches.Inc()
	metrics.ImportUnits.Add(float64(len(req.Items)))
	log.Debug().
		Int("units", len(req.Items)).
		Time("update_date", req.UpdateDate).
		Msg("import batch applied")
	return nil
}

// Delete removes a unit and, for categories, its whole subtree. The removed
// weight is given back to the ancestor chain, whose prices are recomputed in
// place: no updateDate accompanies a delete, so last_update stays as it was
// and no history event is recorded for the recomputed categories.
func (s *unitService) Delete(ctx context.Context, id uuid.UUID) error {
	var removed int
	err := database.WithSerializableTransaction(ctx, s.db, func(tx pgx.Tx) error {
		u, err := s.units.GetByIDWithTx(ctx, tx, id)
		if err != nil {
			return err
		}

		var leaving unit.Delta
		if u.IsCategory {
			agg, err := s.aggregates.GetWithTx(ctx, tx, id)
			if err != nil {
				return err
			}
			leaving = unit.Delta{Sum: -agg.Sum, Count: -agg.Count}
		} else {
			leaving = unit.Delta{Sum: -*u.Price, Count: -1}
		}
		if u.ParentID != nil {
			if err := s.chargeChain(ctx, tx, *u.ParentID, leaving); err != nil {
				return err
			}
		}

		members := []uuid.UUID{id}
		if u.IsCategory {
			members, err = s.hierarchy.SubtreeIDsWithTx(ctx, tx, id)
			if err != nil {
				return err
			}
		}

		if err := s.history.DeleteByUnitIDsWithTx(ctx, tx, members); err != nil {
			return err
		}
		if err := s.hierarchy.DestroySubtreeWithTx(ctx, tx, id); err != nil {
			return err
		}
		if err := s.aggregates.DeleteByIDsWithTx(ctx, tx, members); err != nil {
			return err
		}
		if err := s.units.DeleteByIDsWithTx(ctx, tx, members); err != nil {
			return err
		}
		removed = len(members)
		return nil
	})
	if err != nil {
		return err
	}

	metrics.DeletedUnits.Add(float64(removed))
	log.Debug().
		Str("unit_id", id.String()).
		Int("removed", removed).
		Msg("unit deleted")
	return nil
}

// chargeChain folds one delta into parentID and every ancestor of parentID,
// rewriting each derived price. last_update is deliberately left alone.
func (s *unitService) chargeChain(ctx context.Context, tx pgx.Tx, parentID uuid.UUID, d unit.Delta) error {
	ancestors, err := s.hierarchy.AncestorsWithTx(ctx, tx, []uuid.UUID{parentID})
	if err != nil {
		return err
	}

	recipients := append([]uuid.UUID{parentID}, ancestors[parentID]...)
	sortUUIDs(recipients)

	for _, recipient := range recipients {
		agg, err := s.aggregates.ApplyDeltaWithTx(ctx, tx, recipient, d)
		if err != nil {
			return err
		}
		if err := s.units.SetDerivedPriceWithTx(ctx, tx, recipient, agg.Mean(), nil); err != nil {
			return err
		}
	}
	return nil
}

// GetNode returns the subtree snapshot rooted at id. Assembly is iterative:
// one closure-join query fetches every descendant, then rows are linked by
// parent_id, so depth is bounded by memory, not the stack.
func (s *unitService) GetNode(ctx context.Context, id uuid.UUID) (*unit.ShopUnit, error) {
	root, err := s.units.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	node := toShopUnit(root)
	if !root.IsCategory {
		return node, nil
	}

	descendants, err := s.units.GetDescendants(ctx, id)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uuid.UUID]*unit.ShopUnit, len(descendants)+1)
	nodes[root.ID] = node
	for _, d := range descendants {
		nodes[d.ID] = toShopUnit(d)
	}
	for _, d := range descendants {
		parent := nodes[*d.ParentID]
		parent.Children = append(parent.Children, nodes[d.ID])
	}
	return node, nil
}

func toShopUnit(u *unit.Unit) *unit.ShopUnit {
	node := &unit.ShopUnit{
		ID:       u.ID,
		Name:     u.Name,
		Date:     u.LastUpdate,
		ParentID: u.ParentID,
		Type:     u.Type(),
		Price:    u.Price,
	}
	if u.IsCategory {
		node.Children = make([]*unit.ShopUnit, 0)
	}
	return node
}
