package service

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"catalog-analyzer/internal/domains/unit"
	"catalog-analyzer/pkg/database"
)

// fakeTx satisfies pgx.Tx for code that only threads the handle through to
// repositories. The embedded interface is never called.
type fakeTx struct{ pgx.Tx }

func (fakeTx) Commit(context.Context) error   { return nil }
func (fakeTx) Rollback(context.Context) error { return nil }

// fakeDB hands out fakeTx handles; the in-memory store below ignores them.
type fakeDB struct{}

var _ database.DB = fakeDB{}

func (fakeDB) Begin(context.Context) (pgx.Tx, error) { return fakeTx{}, nil }
func (fakeDB) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return fakeTx{}, nil
}
func (fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (fakeDB) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }
func (fakeDB) Ping(context.Context) error                              { return nil }

// fakeStore is an in-memory stand-in for the catalog tables. The hierarchy
// is held as parent pointers; ancestor and subtree walks follow them, which
// answers the same questions the closure table does. Every mutation is
// recorded in calls so tests can assert phase order.
type fakeStore struct {
	units      map[uuid.UUID]*unit.Unit
	parents    map[uuid.UUID]uuid.UUID
	aggregates map[uuid.UUID]*unit.Aggregate
	history    []unit.PriceEvent

	calls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		units:      make(map[uuid.UUID]*unit.Unit),
		parents:    make(map[uuid.UUID]uuid.UUID),
		aggregates: make(map[uuid.UUID]*unit.Aggregate),
	}
}

func (f *fakeStore) repos() (unit.UnitRepository, unit.HierarchyRepository, unit.AggregateRepository, unit.HistoryRepository) {
	return &fakeUnitRepo{f}, &fakeHierarchyRepo{f}, &fakeAggregateRepo{f}, &fakeHistoryRepo{f}
}

func (f *fakeStore) log(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// callIndex returns the position of the first call with the given prefix, or
// -1 when it never happened.
func (f *fakeStore) callIndex(prefix string) int {
	for i, call := range f.calls {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			return i
		}
	}
	return -1
}

func (f *fakeStore) seedCategory(id uuid.UUID, name string, parent *uuid.UUID, ts time.Time) {
	f.units[id] = &unit.Unit{ID: id, Name: name, ParentID: parent, IsCategory: true, LastUpdate: ts}
	f.aggregates[id] = &unit.Aggregate{ID: id}
	if parent != nil {
		f.parents[id] = *parent
	}
}

func (f *fakeStore) seedOffer(id uuid.UUID, name string, parent *uuid.UUID, price int64, ts time.Time) {
	f.units[id] = &unit.Unit{ID: id, Name: name, ParentID: parent, IsCategory: false, Price: &price, LastUpdate: ts}
	if parent != nil {
		f.parents[id] = *parent
	}
}

func (f *fakeStore) setAggregate(id uuid.UUID, sum, count int64) {
	f.aggregates[id] = &unit.Aggregate{ID: id, Sum: sum, Count: count}
}

// isBelow walks the parent chain of id looking for ancestorID strictly above.
func (f *fakeStore) isBelow(ancestorID, id uuid.UUID) bool {
	cur := id
	for {
		p, ok := f.parents[cur]
		if !ok {
			return false
		}
		if p == ancestorID {
			return true
		}
		cur = p
	}
}

func (f *fakeStore) subtree(rootID uuid.UUID) []uuid.UUID {
	members := []uuid.UUID{rootID}
	for id := range f.units {
		if f.isBelow(rootID, id) {
			members = append(members, id)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return bytes.Compare(members[i][:], members[j][:]) < 0
	})
	return members
}

// =====================================================
// UNIT REPOSITORY
// =====================================================

type fakeUnitRepo struct{ s *fakeStore }

func (r *fakeUnitRepo) GetByID(_ context.Context, id uuid.UUID) (*unit.Unit, error) {
	u, ok := r.s.units[id]
	if !ok {
		return nil, unit.ErrUnitNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUnitRepo) GetDescendants(_ context.Context, rootID uuid.UUID) ([]*unit.Unit, error) {
	var out []*unit.Unit
	for id, u := range r.s.units {
		if r.s.isBelow(rootID, id) {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

func (r *fakeUnitRepo) GetByIDWithTx(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*unit.Unit, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeUnitRepo) GetByIDsWithTx(_ context.Context, _ pgx.Tx, ids []uuid.UUID) (map[uuid.UUID]*unit.Unit, error) {
	out := make(map[uuid.UUID]*unit.Unit, len(ids))
	for _, id := range ids {
		if u, ok := r.s.units[id]; ok {
			cp := *u
			out[id] = &cp
		}
	}
	return out, nil
}

func (r *fakeUnitRepo) UpsertWithTx(_ context.Context, _ pgx.Tx, u *unit.Unit) error {
	r.s.log("upsert %s", u.ID)
	cp := *u
	if old, ok := r.s.units[u.ID]; ok {
		if old.IsCategory != u.IsCategory {
			return fmt.Errorf("unit %s: %w", u.ID, unit.ErrUnitTypeChanged)
		}
		if old.IsCategory {
			cp.Price = old.Price
		}
	}
	r.s.units[u.ID] = &cp
	return nil
}

func (r *fakeUnitRepo) SetDerivedPriceWithTx(_ context.Context, _ pgx.Tx, id uuid.UUID, price *int64, lastUpdate *time.Time) error {
	r.s.log("price %s", id)
	u, ok := r.s.units[id]
	if !ok {
		return nil
	}
	u.Price = price
	if lastUpdate != nil {
		u.LastUpdate = *lastUpdate
	}
	return nil
}

func (r *fakeUnitRepo) TouchLastUpdateWithTx(_ context.Context, _ pgx.Tx, ids []uuid.UUID, ts time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	r.s.log("touch %d", len(ids))
	for _, id := range ids {
		if u, ok := r.s.units[id]; ok {
			u.LastUpdate = ts
		}
	}
	return nil
}

func (r *fakeUnitRepo) DeleteByIDsWithTx(_ context.Context, _ pgx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	r.s.log("deleteUnits %d", len(ids))
	for _, id := range ids {
		delete(r.s.units, id)
	}
	return nil
}

// =====================================================
// HIERARCHY REPOSITORY
// =====================================================

type fakeHierarchyRepo struct{ s *fakeStore }

func (r *fakeHierarchyRepo) AncestorsWithTx(_ context.Context, _ pgx.Tx, ids []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	r.s.log("ancestors %d", len(ids))
	out := make(map[uuid.UUID][]uuid.UUID, len(ids))
	for _, id := range ids {
		cur := id
		for {
			p, ok := r.s.parents[cur]
			if !ok {
				break
			}
			out[id] = append(out[id], p)
			cur = p
		}
	}
	return out, nil
}

func (r *fakeHierarchyRepo) IsDescendantWithTx(_ context.Context, _ pgx.Tx, ancestorID, unitID uuid.UUID) (bool, error) {
	return r.s.isBelow(ancestorID, unitID), nil
}

func (r *fakeHierarchyRepo) BuildWithTx(_ context.Context, _ pgx.Tx, unitID, parentID uuid.UUID) error {
	r.s.log("build %s", unitID)
	r.s.parents[unitID] = parentID
	return nil
}

func (r *fakeHierarchyRepo) RebuildWithTx(_ context.Context, _ pgx.Tx, unitID uuid.UUID, newParent *uuid.UUID) error {
	r.s.log("rebuild %s", unitID)
	if newParent == nil {
		delete(r.s.parents, unitID)
		return nil
	}
	r.s.parents[unitID] = *newParent
	return nil
}

func (r *fakeHierarchyRepo) SubtreeIDsWithTx(_ context.Context, _ pgx.Tx, rootID uuid.UUID) ([]uuid.UUID, error) {
	return r.s.subtree(rootID), nil
}

func (r *fakeHierarchyRepo) DestroySubtreeWithTx(_ context.Context, _ pgx.Tx, rootID uuid.UUID) error {
	r.s.log("destroy %s", rootID)
	for _, member := range r.s.subtree(rootID) {
		delete(r.s.parents, member)
	}
	return nil
}

// =====================================================
// AGGREGATE REPOSITORY
// =====================================================

type fakeAggregateRepo struct{ s *fakeStore }

func (r *fakeAggregateRepo) CreateWithTx(_ context.Context, _ pgx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	r.s.log("createAgg %d", len(ids))
	for _, id := range ids {
		if _, ok := r.s.aggregates[id]; ok {
			return fmt.Errorf("aggregate %s already exists", id)
		}
		r.s.aggregates[id] = &unit.Aggregate{ID: id}
	}
	return nil
}

func (r *fakeAggregateRepo) GetWithTx(_ context.Context, _ pgx.Tx, id uuid.UUID) (*unit.Aggregate, error) {
	a, ok := r.s.aggregates[id]
	if !ok {
		return nil, fmt.Errorf("aggregate %s not found", id)
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAggregateRepo) ApplyDeltaWithTx(_ context.Context, _ pgx.Tx, id uuid.UUID, d unit.Delta) (*unit.Aggregate, error) {
	r.s.log("delta %s", id)
	a, ok := r.s.aggregates[id]
	if !ok {
		return nil, fmt.Errorf("aggregate %s not found", id)
	}
	a.Sum += d.Sum
	a.Count += d.Count
	cp := *a
	return &cp, nil
}

func (r *fakeAggregateRepo) DeleteByIDsWithTx(_ context.Context, _ pgx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	r.s.log("deleteAggs %d", len(ids))
	for _, id := range ids {
		delete(r.s.aggregates, id)
	}
	return nil
}

// =====================================================
// HISTORY REPOSITORY
// =====================================================

type fakeHistoryRepo struct{ s *fakeStore }

func (r *fakeHistoryRepo) AppendWithTx(_ context.Context, _ pgx.Tx, events []unit.PriceEvent) error {
	if len(events) == 0 {
		return nil
	}
	r.s.log("append %d", len(events))
	r.s.history = append(r.s.history, events...)
	return nil
}

func (r *fakeHistoryRepo) DeleteByUnitIDsWithTx(_ context.Context, _ pgx.Tx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	r.s.log("deleteHistory %d", len(ids))
	drop := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := r.s.history[:0]
	for _, e := range r.s.history {
		if _, ok := drop[e.UnitID]; !ok {
			kept = append(kept, e)
		}
	}
	r.s.history = kept
	return nil
}

// historyFor filters the recorded events down to one unit, append order
// preserved.
func (f *fakeStore) historyFor(id uuid.UUID) []unit.PriceEvent {
	var out []unit.PriceEvent
	for _, e := range f.history {
		if e.UnitID == id {
			out = append(out, e)
		}
	}
	return out
}
