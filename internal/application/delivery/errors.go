package delivery

import (
	"errors"
	"log"
	"net/http"

	"jobmatch-backend/internal/application/usecase"

	"github.com/gin-gonic/gin"
)

// writeError maps usecase errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrApplicationNotFound), errors.Is(err, usecase.ErrSimulationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, usecase.ErrNoApplications), errors.Is(err, usecase.ErrNotLiked),
		errors.Is(err, usecase.ErrInvalidStatus), errors.Is(err, usecase.ErrInvalidBucket),
		errors.Is(err, usecase.ErrMissingJobFields), errors.Is(err, usecase.ErrReservedStatus):
		status = http.StatusBadRequest
	case errors.Is(err, usecase.ErrStatusConflict):
		status = http.StatusConflict
	case errors.Is(err, usecase.ErrAIUnavailable):
		status = http.StatusServiceUnavailable
	default:
		log.Printf("[API] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
