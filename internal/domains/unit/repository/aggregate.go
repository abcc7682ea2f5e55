package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"catalog-analyzer/internal/domains/unit"
	"catalog-analyzer/pkg/database"
)

type aggregateRepository struct {
	db database.DB
}

func NewAggregateRepository(db database.DB) unit.AggregateRepository {
	return &aggregateRepository{db: db}
}

func (r *aggregateRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `INSERT INTO category_aggregates (id, total_sum, offer_count) SELECT unnest($1::uuid[]), 0, 0`

	if _, err := tx.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("failed to create aggregates: %w", err)
	}
	return nil
}

func (r *aggregateRepository) GetWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*unit.Aggregate, error) {
	query := `SELECT id, total_sum, offer_count FROM category_aggregates WHERE id = $1`

	var agg unit.Aggregate
	err := tx.QueryRow(ctx, query, id).Scan(&agg.ID, &agg.Sum, &agg.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate %s: %w", id, err)
	}
	return &agg, nil
}

// ApplyDeltaWithTx folds one summed delta into a category counter pair and
// returns the resulting state, from which the caller derives the new price.
func (r *aggregateRepository) ApplyDeltaWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, d unit.Delta) (*unit.Aggregate, error) {
	query := `
		UPDATE category_aggregates
		SET total_sum = total_sum + $2, offer_count = offer_count + $3
		WHERE id = $1
		RETURNING total_sum, offer_count`

	agg := unit.Aggregate{ID: id}
	err := tx.QueryRow(ctx, query, id, d.Sum, d.Count).Scan(&agg.Sum, &agg.Count)
	if err != nil {
		return nil, fmt.Errorf("failed to apply delta to aggregate %s: %w", id, err)
	}
	return &agg, nil
}

func (r *aggregateRepository) DeleteByIDsWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM category_aggregates WHERE id = ANY($1)`

	if _, err := tx.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("failed to delete aggregates: %w", err)
	}
	return nil
}
