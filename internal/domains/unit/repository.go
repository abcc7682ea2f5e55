package unit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UnitRepository is the store adapter for unit rows. The WithTx variants run
// inside the batch transaction; the plain variants serve readers off the
// pool.
type UnitRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Unit, error)
	// GetDescendants returns every unit below rootID, in id order. The
	// root itself is not included.
	GetDescendants(ctx context.Context, rootID uuid.UUID) ([]*Unit, error)

	GetByIDWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Unit, error)
	GetByIDsWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) (map[uuid.UUID]*Unit, error)
	// UpsertWithTx inserts or updates one row. A stored row whose
	// is_category disagrees with u fails with ErrUnitTypeChanged; category
	// updates never overwrite the derived price column.
	UpsertWithTx(ctx context.Context, tx pgx.Tx, u *Unit) error
	// SetDerivedPriceWithTx writes a category's recomputed price; a nil
	// lastUpdate leaves the stored timestamp alone.
	SetDerivedPriceWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, price *int64, lastUpdate *time.Time) error
	TouchLastUpdateWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID, ts time.Time) error
	DeleteByIDsWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error
}

// HierarchyRepository maintains the closure table: one row per
// (ancestor category, descendant unit) pair, transitive, parents included.
type HierarchyRepository interface {
	// AncestorsWithTx maps each input id to all of its ancestor category
	// ids, immediate parent through root, order unspecified. Ids without
	// ancestors are absent from the result.
	AncestorsWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error)
	// IsDescendantWithTx reports whether unitID sits strictly below
	// ancestorID.
	IsDescendantWithTx(ctx context.Context, tx pgx.Tx, ancestorID, unitID uuid.UUID) (bool, error)
	// BuildWithTx attaches a newly inserted unit under parentID: edges to
	// the parent and to every ancestor of the parent.
	BuildWithTx(ctx context.Context, tx pgx.Tx, unitID, parentID uuid.UUID) error
	// RebuildWithTx re-homes the subtree rooted at unitID: edges from
	// ancestors outside the subtree are dropped and recreated for
	// newParent's chain; inner edges survive. A nil newParent detaches
	// the subtree to the forest root.
	RebuildWithTx(ctx context.Context, tx pgx.Tx, unitID uuid.UUID, newParent *uuid.UUID) error
	// SubtreeIDsWithTx returns rootID plus every descendant id.
	SubtreeIDsWithTx(ctx context.Context, tx pgx.Tx, rootID uuid.UUID) ([]uuid.UUID, error)
	// DestroySubtreeWithTx removes every edge whose descendant lies in the
	// subtree rooted at rootID, the root's own edges included.
	DestroySubtreeWithTx(ctx context.Context, tx pgx.Tx, rootID uuid.UUID) error
}

// AggregateRepository maintains the per-category (sum, count) rows.
type AggregateRepository interface {
	CreateWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error
	GetWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Aggregate, error)
	// ApplyDeltaWithTx adds d onto the stored row and returns the new
	// sums.
	ApplyDeltaWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, d Delta) (*Aggregate, error)
	DeleteByIDsWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error
}

// HistoryRepository appends and removes price history rows. Range reads live
// in the statistic domain.
type HistoryRepository interface {
	AppendWithTx(ctx context.Context, tx pgx.Tx, events []PriceEvent) error
	DeleteByUnitIDsWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error
}
