package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"catalog-analyzer/internal/domains/unit"
	"catalog-analyzer/pkg/database"
)

type hierarchyRepository struct {
	db database.DB
}

func NewHierarchyRepository(db database.DB) unit.HierarchyRepository {
	return &hierarchyRepository{db: db}
}

func (r *hierarchyRepository) AncestorsWithTx(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	ancestors := make(map[uuid.UUID][]uuid.UUID, len(ids))
	if len(ids) == 0 {
		return ancestors, nil
	}

	query := `SELECT descendant_id, ancestor_id FROM hierarchy_edges WHERE descendant_id = ANY($1)`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query ancestors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var descendant, ancestor uuid.UUID
		if err := rows.Scan(&descendant, &ancestor); err != nil {
			return nil, fmt.Errorf("failed to scan ancestor row: %w", err)
		}
		ancestors[descendant] = append(ancestors[descendant], ancestor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ancestor rows: %w", err)
	}
	return ancestors, nil
}

func (r *hierarchyRepository) IsDescendantWithTx(ctx context.Context, tx pgx.Tx, ancestorID, unitID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM hierarchy_edges WHERE ancestor_id = $1 AND descendant_id = $2)`

	var exists bool
	if err := tx.QueryRow(ctx, query, ancestorID, unitID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check descendant edge: %w", err)
	}
	return exists, nil
}

// BuildWithTx registers a brand new unit under its parent: one edge per
// ancestor of the parent plus the direct parent edge. Callers order builds
// so that an in-batch parent is registered before its children.
func (r *hierarchyRepository) BuildWithTx(ctx context.Context, tx pgx.Tx, unitID, parentID uuid.UUID) error {
	query := `
		INSERT INTO hierarchy_edges (ancestor_id, descendant_id)
		SELECT h.ancestor_id, $1 FROM hierarchy_edges h WHERE h.descendant_id = $2
		UNION ALL
		SELECT $2, $1`

	if _, err := tx.Exec(ctx, query, unitID, parentID); err != nil {
		return fmt.Errorf("failed to build hierarchy for %s: %w", unitID, err)
	}
	return nil
}

// RebuildWithTx re-homes an existing subtree. Edges internal to the subtree
// survive; every edge from an outside ancestor into the subtree is dropped,
// then recreated against the new parent chain. A nil newParent detaches the
// subtree to the root level.
func (r *hierarchyRepository) RebuildWithTx(ctx context.Context, tx pgx.Tx, unitID uuid.UUID, newParent *uuid.UUID) error {
	deleteQuery := `
		WITH members AS (
			SELECT $1::uuid AS id
			UNION
			SELECT descendant_id FROM hierarchy_edges WHERE ancestor_id = $1
		)
		DELETE FROM hierarchy_edges
		WHERE descendant_id IN (SELECT id FROM members)
		  AND ancestor_id NOT IN (SELECT id FROM members)`

	if _, err := tx.Exec(ctx, deleteQuery, unitID); err != nil {
		return fmt.Errorf("failed to detach subtree of %s: %w", unitID, err)
	}

	if newParent == nil {
		return nil
	}

	insertQuery := `
		WITH members AS (
			SELECT $1::uuid AS id
			UNION
			SELECT descendant_id FROM hierarchy_edges WHERE ancestor_id = $1
		), new_ancestors AS (
			SELECT $2::uuid AS id
			UNION
			SELECT ancestor_id FROM hierarchy_edges WHERE descendant_id = $2
		)
		INSERT INTO hierarchy_edges (ancestor_id, descendant_id)
		SELECT na.id, m.id FROM new_ancestors na CROSS JOIN members m`

	if _, err := tx.Exec(ctx, insertQuery, unitID, *newParent); err != nil {
		return fmt.Errorf("failed to attach subtree of %s: %w", unitID, err)
	}
	return nil
}

func (r *hierarchyRepository) SubtreeIDsWithTx(ctx context.Context, tx pgx.Tx, rootID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT $1::uuid
		UNION
		SELECT descendant_id FROM hierarchy_edges WHERE ancestor_id = $1`

	rows, err := tx.Query(ctx, query, rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subtree of %s: %w", rootID, err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan subtree row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subtree rows: %w", err)
	}
	return ids, nil
}

func (r *hierarchyRepository) DestroySubtreeWithTx(ctx context.Context, tx pgx.Tx, rootID uuid.UUID) error {
	query := `
		WITH members AS (
			SELECT $1::uuid AS id
			UNION
			SELECT descendant_id FROM hierarchy_edges WHERE ancestor_id = $1
		)
		DELETE FROM hierarchy_edges
		WHERE descendant_id IN (SELECT id FROM members)`

	if _, err := tx.Exec(ctx, query, rootID); err != nil {
		return fmt.Errorf("failed to destroy subtree of %s: %w", rootID, err)
	}
	return nil
}
