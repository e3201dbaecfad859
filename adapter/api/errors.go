package api

import (
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/eventline/internal/planning/domain"
	"github.com/gin-gonic/gin"
)

// APIError represents an API error.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	ErrRouteNotFound = &APIError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: "route not found",
	}
)

// fromError maps an application error to a response. Invalid input is 400,
// a missing timeline or event is 404, everything else is 500.
func fromError(err error) *APIError {
	switch domain.KindOf(err) {
	case domain.ErrorKindInvalid:
		return &APIError{Status: http.StatusBadRequest, Code: "bad_request", Message: err.Error()}
	case domain.ErrorKindNotFound:
		return &APIError{Status: http.StatusNotFound, Code: "not_found", Message: err.Error()}
	case domain.ErrorKindLoad:
		return &APIError{Status: http.StatusInternalServerError, Code: "load_error", Message: err.Error()}
	default:
		return &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: err.Error()}
	}
}

func writeError(c *gin.Context, e *APIError) {
	c.AbortWithStatusJSON(e.Status, gin.H{
		"success": false,
		"error":   e.Code,
		"message": e.Message,
	})
}
