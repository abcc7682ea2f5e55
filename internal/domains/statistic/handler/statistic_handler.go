package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"catalog-analyzer/internal/domains/statistic"
	"catalog-analyzer/internal/shared/response"
	"catalog-analyzer/pkg/logger"
)

// ============================================================
// HANDLER STRUCT
// ============================================================
type StatisticHandler struct {
	service statistic.Service
}

func NewStatisticHandler(svc statistic.Service) *StatisticHandler {
	return &StatisticHandler{
		service: svc,
	}
}

// ========== STATISTIC: GET /node/:id/statistic ==========
func (h *StatisticHandler) NodeStatistic(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationFailed(c)
		return
	}

	start, err := dateParam(c, "dateStart")
	if err != nil {
		response.ValidationFailed(c)
		return
	}
	end, err := dateParam(c, "dateEnd")
	if err != nil {
		response.ValidationFailed(c)
		return
	}

	resp, err := h.service.NodeStatistic(c.Request.Context(), id, start, end)
	if err != nil {
		h.fail(c, err, "failed to get node statistic")
		return
	}

	response.OK(c, resp)
}

// ========== SALES: GET /sales ==========
func (h *StatisticHandler) Sales(c *gin.Context) {
	raw, ok := c.GetQuery("date")
	if !ok {
		response.ValidationFailed(c)
		return
	}
	date, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		response.ValidationFailed(c)
		return
	}

	resp, err := h.service.Sales(c.Request.Context(), date)
	if err != nil {
		h.fail(c, err, "failed to get sales")
		return
	}

	response.OK(c, resp)
}

// dateParam reads an optional RFC 3339 query parameter. time.Parse demands
// an explicit offset, so bare local timestamps are rejected.
func dateParam(c *gin.Context, name string) (*time.Time, error) {
	raw, ok := c.GetQuery(name)
	if !ok {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *StatisticHandler) fail(c *gin.Context, err error, msg string) {
	switch statistic.GetHTTPStatusCode(err) {
	case http.StatusBadRequest:
		response.ValidationFailed(c)
	case http.StatusNotFound:
		response.ItemNotFound(c)
	default:
		logger.Error(msg, err)
		response.InternalServerError(c)
	}
}
