package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"catalog-analyzer/internal/domains/unit"
	"catalog-analyzer/pkg/database"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type historyRepository struct {
	db database.DB
}

func NewHistoryRepository(db database.DB) unit.HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) AppendWithTx(ctx context.Context, tx pgx.Tx, events []unit.PriceEvent) error {
	if len(events) == 0 {
		return nil
	}

	builder := psql.Insert("price_history").Columns("unit_id", "price", "date")
	for _, e := range events {
		builder = builder.Values(e.UnitID, e.Price, e.Date)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build history insert: %w", err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to append price events: %w", err)
	}
	return nil
}

func (r *historyRepository) DeleteByUnitIDsWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM price_history WHERE unit_id = ANY($1)`

	if _, err := tx.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("failed to delete price events: %w", err)
	}
	return nil
}
