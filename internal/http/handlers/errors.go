package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/havenline/haven-backend/internal/http/response"
	pkgerr "github.com/havenline/haven-backend/internal/pkg/errors"
	"github.com/havenline/haven-backend/internal/platform/apierr"
)

// classify maps the shared error taxonomy onto transport errors so every
// handler reports failures the same way. Services may also return an
// *apierr.Error directly, which wins.
func classify(err error) *apierr.Error {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, pkgerr.ErrInvalidArgument):
		return apierr.New(http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, pkgerr.ErrInvalidTransition):
		return apierr.New(http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, pkgerr.ErrUnauthorized):
		return apierr.New(http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, pkgerr.ErrNotFound):
		return apierr.New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, pkgerr.ErrUserNotReady):
		return apierr.New(http.StatusServiceUnavailable, "user_not_ready", err)
	case errors.Is(err, pkgerr.ErrPolicyRejected):
		return apierr.New(http.StatusBadGateway, "generation_rejected", err)
	default:
		return apierr.New(http.StatusInternalServerError, "internal_error", err)
	}
}

func respondServiceError(c *gin.Context, err error) {
	apiErr := classify(err)
	if apiErr.Code == "user_not_ready" {
		// Retryable: the identity record has not propagated yet.
		c.Header("Retry-After", "2")
	}
	response.RespondError(c, apiErr.Status, apiErr.Code, apiErr)
}
