package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-analyzer/internal/domains/unit"
)

var (
	unitColumnList = []string{"id", "name", "parent_id", "is_category", "price", "last_update"}
	testTime       = time.Date(2022, 2, 1, 12, 0, 0, 0, time.UTC)
)

func i64(v int64) *int64 { return &v }

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func beginTx(t *testing.T, mock pgxmock.PgxPoolIface) pgx.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)
	return tx
}

func TestUnitRepository_GetByID(t *testing.T) {
	mock := newMock(t)
	repo := NewUnitRepository(mock)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, parent_id, is_category, price, last_update FROM units WHERE id = $1`)).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(unitColumnList).
			AddRow(id, "Desk Lamp", nil, false, i64(100), testTime))

	u, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "Desk Lamp", u.Name)
	assert.Nil(t, u.ParentID)
	assert.False(t, u.IsCategory)
	require.NotNil(t, u.Price)
	assert.Equal(t, int64(100), *u.Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitRepository_GetByIDMapsMissingRow(t *testing.T) {
	mock := newMock(t)
	repo := NewUnitRepository(mock)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM units WHERE id = $1`)).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, unit.ErrUnitNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitRepository_GetDescendants(t *testing.T) {
	mock := newMock(t)
	repo := NewUnitRepository(mock)
	rootID := uuid.New()
	childA := uuid.New()
	childB := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(`JOIN hierarchy_edges h ON h.descendant_id = u.id`)).
		WithArgs(rootID).
		WillReturnRows(pgxmock.NewRows(unitColumnList).
			AddRow(childA, "Shelf", &rootID, true, (*int64)(nil), testTime).
			AddRow(childB, "Lamp", &childA, false, i64(100), testTime))

	units, err := repo.GetDescendants(context.Background(), rootID)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, childA, units[0].ID)
	assert.True(t, units[0].IsCategory)
	assert.Nil(t, units[0].Price)
	assert.Equal(t, childB, units[1].ID)
	require.NotNil(t, units[1].ParentID)
	assert.Equal(t, childA, *units[1].ParentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitRepository_GetByIDsWithTx(t *testing.T) {
	mock := newMock(t)
	repo := NewUnitRepository(mock)
	tx := beginTx(t, mock)
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectQuery(regexp.QuoteMeta(`FROM units WHERE id = ANY($1)`)).
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows(unitColumnList).
			AddRow(ids[0], "Lamp", nil, false, i64(100), testTime))

	units, err := repo.GetByIDsWithTx(context.Background(), tx, ids)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Contains(t, units, ids[0])
	assert.NotContains(t, units, ids[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitRepository_GetByIDsWithTxEmptyInput(t *testing.T) {
	mock := newMock(t)
	repo := NewUnitRepository(mock)
	tx := beginTx(t, mock)

	units, err := repo.GetByIDsWithTx(context.Background(), tx, nil)
	require.NoError(t, err)
	assert.Empty(t, units)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitRepository_UpsertWithTx(t *testing.T) {
	mock := newMock(t)
	repo := NewUnitRepository(mock)
	tx := beginTx(t, mock)
	u := &unit.Unit{ID: uuid.New(), Name: "Lamp", Price: i64(100), LastUpdate: testTime}

	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (id) DO UPDATE SET`)).
		WithArgs(u.ID, u.Name, u.ParentID, u.IsCategory, u.Price, u.LastUpdate).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(u.ID))

	require.NoError(t, repo.UpsertWithTx(context.Background(), tx, u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitRepository_UpsertWithTxRefusesTypeFlip(t *testing.T) {
	mock := newMock(t)
	repo := NewUnitRepository(mock)
	tx := beginTx(t, mock)
	u := &unit.Unit{ID: uuid.New(), Name: "Lamp", IsCategory: true, LastUpdate: testTime}

	// The guarded upsert returns no row when the stored type disagrees.
	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (id) DO UPDATE SET`)).
		WithArgs(u.ID, u.Name, u.ParentID, u.IsCategory, u.Price, u.LastUpdate).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	err := repo.UpsertWithTx(context.Background(), tx, u)
	assert.ErrorIs(t, err, unit.ErrUnitTypeChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitRepository_SetDerivedPriceWithTx(t *testing.T) {
	mock := newMock(t)
	repo := NewUnitRepository(mock)
	tx := beginTx(t, mock)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE units SET price = $2, last_update = COALESCE($3, last_update) WHERE id = $1`)).
		WithArgs(id, i64(55749), (*time.Time)(nil)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.SetDerivedPriceWithTx(context.Background(), tx, id, i64(55749), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitRepository_SetDerivedPriceWithTxClearsPrice(t *testing.T) {
	mock := newMock(t)
	repo := NewUnitRepository(mock)
	tx := beginTx(t, mock)
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE units SET price = $2`)).
		WithArgs(id, (*int64)(nil), &testTime).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.SetDerivedPriceWithTx(context.Background(), tx, id, nil, &testTime))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitRepository_TouchLastUpdateWithTx(t *testing.T) {
	mock := newMock(t)
	repo := NewUnitRepository(mock)
	tx := beginTx(t, mock)
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE units SET last_update = $2 WHERE id = ANY($1)`)).
		WithArgs(ids, testTime).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	require.NoError(t, repo.TouchLastUpdateWithTx(context.Background(), tx, ids, testTime))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitRepository_TouchLastUpdateWithTxEmptyInput(t *testing.T) {
	mock := newMock(t)
	repo := NewUnitRepository(mock)
	tx := beginTx(t, mock)

	require.NoError(t, repo.TouchLastUpdateWithTx(context.Background(), tx, nil, testTime))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnitRepository_DeleteByIDsWithTx(t *testing.T) {
	mock := newMock(t)
	repo := NewUnitRepository(mock)
	tx := beginTx(t, mock)
	ids := []uuid.UUID{uuid.New()}

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM units WHERE id = ANY($1)`)).
		WithArgs(ids).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, repo.DeleteByIDsWithTx(context.Background(), tx, ids))
	assert.NoError(t, mock.ExpectationsWereMet())
}
