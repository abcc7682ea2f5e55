package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error is the wire shape of every failed request: the code repeats the
// HTTP status so clients can ignore transport framing.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Error{
		Code:    statusCode,
		Message: message,
	})
}

// ValidationFailed reports malformed or semantically invalid input.
func ValidationFailed(c *gin.Context) {
	ErrorResponse(c, http.StatusBadRequest, "Validation Failed")
}

// ItemNotFound reports a missing unit id.
func ItemNotFound(c *gin.Context) {
	ErrorResponse(c, http.StatusNotFound, "Item not found")
}

func InternalServerError(c *gin.Context) {
	ErrorResponse(c, http.StatusInternalServerError, "Internal Server Error")
}

// OK returns 200 with data when present, or an empty body for mutations.
func OK(c *gin.Context, data interface{}) {
	if data == nil {
		c.Status(http.StatusOK)
		return
	}
	c.JSON(http.StatusOK, data)
}
