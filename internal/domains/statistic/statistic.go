package statistic

import (
	"time"

	"github.com/google/uuid"

	"catalog-analyzer/internal/domains/unit"
)

// Record is one price observation joined with the unit's current name,
// parent and type. History rows store only price and date; the descriptive
// fields always reflect the present state of the unit.
type Record struct {
	UnitID     uuid.UUID
	Name       string
	ParentID   *uuid.UUID
	IsCategory bool
	Price      *int64
	Date       time.Time
}

func (r Record) Type() string {
	if r.IsCategory {
		return unit.TypeCategory
	}
	return unit.TypeOffer
}

// =====================================================
// RESPONSES
// =====================================================

// StatUnit is the wire shape of one record, shared by the statistic and
// sales endpoints.
type StatUnit struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	ParentID *uuid.UUID `json:"parentId"`
	Type     string     `json:"type"`
	Price    *int64     `json:"price"`
	Date     time.Time  `json:"date"`
}

type StatResponse struct {
	Items []StatUnit `json:"items"`
}
