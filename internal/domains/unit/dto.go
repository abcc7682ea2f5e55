package unit

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// =====================================================
// IMPORT REQUEST
// =====================================================

// ShopUnitImport is one item of POST /imports. Offers and categories share
// the shape; which fields may be set depends on Type.
type ShopUnitImport struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parentId"`
	Type     string     `json:"type"`
	Price    *int64     `json:"price"`
}

// Validate checks the shape rules: batch-level rules (duplicate ids, parent
// references, type stability) belong to the planner, which sees the store.
func (i ShopUnitImport) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ID, validation.Required),
		validation.Field(&i.Name, validation.Required),
		validation.Field(&i.Type, validation.Required, validation.In(TypeOffer, TypeCategory)),
		validation.Field(&i.Price, validation.By(i.validatePrice)),
	)
}

func (i ShopUnitImport) IsCategory() bool {
	return i.Type == TypeCategory
}

// ToUnit shapes the submission as the row the batch will write. A category
// row carries a nil price here; the stored derived price is owned by the
// aggregate machinery and survives upserts.
func (i ShopUnitImport) ToUnit(t time.Time) *Unit {
	return &Unit{
		ID:         i.ID,
		Name:       i.Name,
		ParentID:   i.ParentID,
		IsCategory: i.IsCategory(),
		Price:      i.Price,
		LastUpdate: t,
	}
}

func (i ShopUnitImport) validatePrice(interface{}) error {
	switch i.Type {
	case TypeCategory:
		if i.Price != nil {
			return errors.New("categories cannot carry a price")
		}
	case TypeOffer:
		if i.Price == nil || *i.Price < 0 {
			return errors.New("offers require a non-negative price")
		}
	}
	return nil
}

// ImportRequest is the body of POST /imports. UpdateDate unmarshals through
// time.Time, which enforces RFC 3339 with an explicit offset.
type ImportRequest struct {
	Items      []ShopUnitImport `json:"items"`
	UpdateDate time.Time        `json:"updateDate"`
}

func (r ImportRequest) Validate() error {
	if err := validation.ValidateStruct(&r,
		validation.Field(&r.Items, validation.NotNil),
		validation.Field(&r.UpdateDate, validation.Required),
	); err != nil {
		return err
	}

	for _, item := range r.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// =====================================================
// NODE RESPONSE
// =====================================================

// ShopUnit is the subtree snapshot returned by GET /nodes/{id}. Children is
// null for offers and a list (possibly empty) for categories.
type ShopUnit struct {
	ID       uuid.UUID   `json:"id"`
	Name     string      `json:"name"`
	Date     time.Time   `json:"date"`
	ParentID *uuid.UUID  `json:"parentId"`
	Type     string      `json:"type"`
	Price    *int64      `json:"price"`
	Children []*ShopUnit `json:"children"`
}
