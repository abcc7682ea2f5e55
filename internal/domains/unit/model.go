package unit

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeOffer    = "OFFER"
	TypeCategory = "CATEGORY"
)

// Unit is one row of the catalog forest. Offers carry their listed price;
// categories carry the derived floored mean of every offer below them, or
// nil while no offer-descendant exists.
type Unit struct {
	ID         uuid.UUID
	Name       string
	ParentID   *uuid.UUID
	IsCategory bool
	Price      *int64
	LastUpdate time.Time
}

func (u *Unit) Type() string {
	if u.IsCategory {
		return TypeCategory
	}
	return TypeOffer
}

// Aggregate backs a category's derived mean: Sum and Count cover every offer
// in the category's transitive subtree.
type Aggregate struct {
	ID    uuid.UUID
	Sum   int64
	Count int64
}

// Mean returns floor(Sum/Count), or nil while the category holds no offers.
func (a *Aggregate) Mean() *int64 {
	if a.Count <= 0 {
		return nil
	}
	m := a.Sum / a.Count
	return &m
}

// PriceEvent is one append-only history row.
type PriceEvent struct {
	UnitID uuid.UUID
	Price  *int64
	Date   time.Time
}
