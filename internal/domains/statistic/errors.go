package statistic

import (
	"errors"
	"net/http"
)

var (
	// ErrUnitNotFound marks a statistic request for an id the store does
	// not hold.
	ErrUnitNotFound = errors.New("unit not found")

	// ErrInvalidDateRange marks a request whose dateStart does not precede
	// its dateEnd.
	ErrInvalidDateRange = errors.New("invalid date range")
)

// GetHTTPStatusCode maps domain errors onto the statuses the edge reports.
func GetHTTPStatusCode(err error) int {
	switch {
	case errors.Is(err, ErrUnitNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidDateRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
