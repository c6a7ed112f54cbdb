package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/rosterbridge-backend/internal/http/response"
	"github.com/yungbote/rosterbridge-backend/internal/platform/apierr"
	"github.com/yungbote/rosterbridge-backend/internal/services"
)

// toAPIError maps service errors onto HTTP statuses.
func toAPIError(err error) *apierr.Error {
	if ae, ok := apierr.As(err); ok {
		return ae
	}
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		code := verr.Code
		if code == "" {
			code = "validation_failed"
		}
		msg := verr.Message
		if msg == "" {
			msg = verr.Error()
		}
		return apierr.BadRequest(code, errors.New(msg), verr.Details...)
	}
	if errors.Is(err, services.ErrNotFound) {
		return apierr.NotFound("not_found", err)
	}
	return apierr.New(http.StatusInternalServerError, "internal_error", err)
}

func respondServiceError(c *gin.Context, err error) {
	response.RespondAPIError(c, toAPIError(err))
}

var errEmptySelection = errors.New("select at least one added, removed or changed key")
