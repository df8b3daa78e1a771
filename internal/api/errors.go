package api

import (
	"errors"
	"net/http"
	"strings"

	"alcyxob/gym-saas/internal/domain"
	"alcyxob/gym-saas/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps a service error to its HTTP status. Upstream failures
// were logged by the service and get a generic message.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrAuthenticationFailed) {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}
	switch domain.Kind(err) {
	case domain.ErrValidation:
		abortWithError(c, http.StatusBadRequest, clientMessage(err, domain.ErrValidation))
	case domain.ErrForbidden:
		abortWithError(c, http.StatusForbidden, clientMessage(err, domain.ErrForbidden))
	case domain.ErrNotFound:
		abortWithError(c, http.StatusNotFound, clientMessage(err, domain.ErrNotFound))
	case domain.ErrConflict:
		abortWithError(c, http.StatusConflict, clientMessage(err, domain.ErrConflict))
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

// clientMessage strips the kind prefix: "not found: gym not found" becomes
// "gym not found".
func clientMessage(err, kind error) string {
	msg := err.Error()
	if trimmed := strings.TrimPrefix(msg, kind.Error()+": "); trimmed != "" {
		return trimmed
	}
	return msg
}
