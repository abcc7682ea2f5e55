package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"catalog-analyzer/internal/domains/statistic"
	"catalog-analyzer/pkg/database"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type statisticRepository struct {
	db database.DB
}

func NewStatisticRepository(db database.DB) statistic.StatisticRepository {
	return &statisticRepository{db: db}
}

func (r *statisticRepository) UnitExists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM units WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check unit %s: %w", id, err)
	}
	return exists, nil
}

func (r *statisticRepository) EventsByUnit(ctx context.Context, id uuid.UUID, start, end *time.Time) ([]statistic.Record, error) {
	builder := psql.
		Select("u.id", "u.name", "u.parent_id", "u.is_category", "h.price", "h.date").
		From("price_history h").
		Join("units u ON u.id = h.unit_id").
		Where(sq.Eq{"h.unit_id": id}).
		OrderBy("h.date", "h.seq")
	if start != nil {
		builder = builder.Where(sq.GtOrEq{"h.date": *start})
	}
	if end != nil {
		builder = builder.Where(sq.Lt{"h.date": *end})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build statistic query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistic of %s: %w", id, err)
	}
	return scanRecords(rows)
}

// LatestOfferEvents picks each offer's newest record with a lateral probe of
// the (unit_id, date) index, then keeps the offers whose record falls inside
// the window.
func (r *statisticRepository) LatestOfferEvents(ctx context.Context, from, to time.Time) ([]statistic.Record, error) {
	query := `
		SELECT u.id, u.name, u.parent_id, u.is_category, h.price, h.date
		FROM units u
		JOIN LATERAL (
			SELECT price, date FROM price_history
			WHERE unit_id = u.id
			ORDER BY date DESC, seq DESC
			LIMIT 1
		) h ON TRUE
		WHERE NOT u.is_category AND h.date >= $1 AND h.date <= $2
		ORDER BY u.id`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales window: %w", err)
	}
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]statistic.Record, error) {
	defer rows.Close()

	var records []statistic.Record
	for rows.Next() {
		var rec statistic.Record
		if err := rows.Scan(&rec.UnitID, &rec.Name, &rec.ParentID, &rec.IsCategory, &rec.Price, &rec.Date); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return records, nil
}
