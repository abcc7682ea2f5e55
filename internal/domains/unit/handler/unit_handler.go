package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"catalog-analyzer/internal/domains/unit"
	"catalog-analyzer/internal/shared/response"
	"catalog-analyzer/pkg/logger"
)

// ============================================================
// HANDLER STRUCT
// ============================================================
type UnitHandler struct {
	service        unit.Service
	maxImportItems int
}

func NewUnitHandler(svc unit.Service, maxImportItems int) *UnitHandler {
	return &UnitHandler{
		service:        svc,
		maxImportItems: maxImportItems,
	}
}

// ========== IMPORT: POST /imports ==========
func (h *UnitHandler) Import(c *gin.Context) {
	var req unit.ImportRequest

	// encoding/json enforces RFC 3339 with offset on updateDate and UUID
	// shape on ids; anything malformed fails here.
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c)
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c)
		return
	}
	if len(req.Items) > h.maxImportItems {
		response.ValidationFailed(c)
		return
	}

	if err := h.service.Import(c.Request.Context(), &req); err != nil {
		h.fail(c, err, "failed to import units")
		return
	}

	response.OK(c, nil)
}

// ========== DELETE: DELETE /delete/:id ==========
func (h *UnitHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationFailed(c)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err, "failed to delete unit")
		return
	}

	response.OK(c, nil)
}

// ========== NODE: GET /nodes/:id ==========
func (h *UnitHandler) GetNode(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationFailed(c)
		return
	}

	node, err := h.service.GetNode(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err, "failed to get node")
		return
	}

	response.OK(c, node)
}

// fail maps domain errors to the wire shape. Store failures are logged and
// surface as plain 500s.
func (h *UnitHandler) fail(c *gin.Context, err error, msg string) {
	switch unit.GetHTTPStatusCode(err) {
	case http.StatusBadRequest:
		response.ValidationFailed(c)
	case http.StatusNotFound:
		response.ItemNotFound(c)
	default:
		logger.Error(msg, err)
		response.InternalServerError(c)
	}
}
