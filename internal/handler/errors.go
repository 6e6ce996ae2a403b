package handler

import (
	"errors"
	"net/http"

	"aptracker/internal/apperr"
	"aptracker/internal/lifecycle"
	"aptracker/internal/middleware"
	"aptracker/internal/service"
	"aptracker/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// statusFor maps the service error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var transition *lifecycle.TransitionError
	switch {
	case apperr.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case apperr.IsReferential(err), errors.Is(err, apperr.ErrLocked), errors.As(err, &transition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("request failed")
		c.JSON(status, response.Error(status, "internal server error"))
		return
	}
	var verr *apperr.ValidationError
	if errors.As(err, &verr) {
		c.JSON(status, response.Invalid(status, err.Error(), verr.Field, verr.Failures))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, msg))
}

// actorFrom builds the service actor from the claims RequireRole stored.
func actorFrom(c *gin.Context) service.Actor {
	claims := middleware.CurrentUser(c)
	actor := service.Actor{Name: claims.Name, Role: claims.Role}
	if id, err := uuid.Parse(claims.Subject); err == nil {
		actor.UserID = &id
	}
	return actor
}
