package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"catalog-analyzer/internal/domains/unit"
	"catalog-analyzer/pkg/database"
)

const unitColumns = "id, name, parent_id, is_category, price, last_update"

type unitRepository struct {
	db database.DB
}

func NewUnitRepository(db database.DB) unit.UnitRepository {
	return &unitRepository{db: db}
}

func scanUnit(row pgx.Row) (*unit.Unit, error) {
	var u unit.Unit
	err := row.Scan(&u.ID, &u.Name, &u.ParentID, &u.IsCategory, &u.Price, &u.LastUpdate)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *unitRepository) GetByID(ctx context.Context, id uuid.UUID) (*unit.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE id = $1`

	u, err := scanUnit(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, unit.ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to get unit %s: %w", id, err)
	}
	return u, nil
}

func (r *unitRepository) GetDescendants(ctx context.Context, rootID uuid.UUID) ([]*unit.Unit, error) {
	query := `
		SELECT u.id, u.name, u.parent_id, u.is_category, u.price, u.last_update
		FROM units u
		JOIN hierarchy_edges h ON h.descendant_id = u.id
		WHERE h.ancestor_id = $1
		ORDER BY u.id`

	rows, err := r.db.Query(ctx, query, rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to query descendants of %s: %w", rootID, err)
	}
	defer rows.Close()

	var units []*unit.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan descendant row: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read descendant rows: %w", err)
	}
	return units, nil
}

func (r *unitRepository) GetByIDWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*unit.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE id = $1`

	u, err := scanUnit(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, unit.ErrUnitNotFound
		}
		return nil, fmt.Errorf("failed to get unit %s: %w", id, err)
	}
	return u, nil
}

func (r *unitRepository) GetByIDsWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) (map[uuid.UUID]*unit.Unit, error) {
	units := make(map[uuid.UUID]*unit.Unit, len(ids))
	if len(ids) == 0 {
		return units, nil
	}

	query := `SELECT ` + unitColumns + ` FROM units WHERE id = ANY($1)`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unit row: %w", err)
		}
		units[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read unit rows: %w", err)
	}
	return units, nil
}

// UpsertWithTx writes one unit row. The WHERE guard on the conflict branch
// refuses to flip is_category; in that case no row comes back and the batch
// fails with ErrUnitTypeChanged. Category rows keep their stored derived
// price; the aggregate phase owns that column.
func (r *unitRepository) UpsertWithTx(ctx context.Context, tx pgx.Tx, u *unit.Unit) error {
	query := `
		INSERT INTO units (id, name, parent_id, is_category, price, last_update)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			parent_id = EXCLUDED.parent_id,
			last_update = EXCLUDED.last_update,
			price = CASE WHEN units.is_category THEN units.price ELSE EXCLUDED.price END
		WHERE units.is_category = EXCLUDED.is_category
		RETURNING id`

	var id uuid.UUID
	err := tx.QueryRow(ctx, query, u.ID, u.Name, u.ParentID, u.IsCategory, u.Price, u.LastUpdate).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("unit %s: %w", u.ID, unit.ErrUnitTypeChanged)
		}
		return fmt.Errorf("failed to upsert unit %s: %w", u.ID, err)
	}
	return nil
}

func (r *unitRepository) SetDerivedPriceWithTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, price *int64, lastUpdate *time.Time) error {
	query := `UPDATE units SET price = $2, last_update = COALESCE($3, last_update) WHERE id = $1`

	if _, err := tx.Exec(ctx, query, id, price, lastUpdate); err != nil {
		return fmt.Errorf("failed to set derived price of %s: %w", id, err)
	}
	return nil
}

func (r *unitRepository) TouchLastUpdateWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID, ts time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query := `UPDATE units SET last_update = $2 WHERE id = ANY($1)`

	if _, err := tx.Exec(ctx, query, ids, ts); err != nil {
		return fmt.Errorf("failed to touch last_update: %w", err)
	}
	return nil
}

func (r *unitRepository) DeleteByIDsWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM units WHERE id = ANY($1)`

	if _, err := tx.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("failed to delete units: %w", err)
	}
	return nil
}
