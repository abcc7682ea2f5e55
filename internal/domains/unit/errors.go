package unit

import (
	"errors"
	"net/http"
)

var (
	// ErrUnitNotFound marks a lookup of an id the store does not hold.
	ErrUnitNotFound = errors.New("unit not found")

	// ErrValidation marks a batch the planner rejected; the whole import
	// is discarded.
	ErrValidation = errors.New("validation failed")

	// ErrUnitTypeChanged marks an import that tried to turn an offer into
	// a category or back. The type of a unit is fixed at creation.
	ErrUnitTypeChanged = errors.New("unit type is immutable")
)

// GetHTTPStatusCode maps domain errors onto the statuses the edge reports.
func GetHTTPStatusCode(err error) int {
	switch {
	case errors.Is(err, ErrUnitNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUnitTypeChanged):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
