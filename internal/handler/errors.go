package handler

import (
	"errors"
	"net/http"

	"backend/internal/apperr"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError maps the service error taxonomy onto HTTP statuses.
// Unrecognized errors become a 500 with a generic body; the detail goes to
// the log only.
func respondError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrInsufficientStock),
		errors.Is(err, apperr.ErrInvalidState),
		errors.Is(err, apperr.ErrConflict):
		status = http.StatusConflict
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled service error")
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "internal server error"))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}
