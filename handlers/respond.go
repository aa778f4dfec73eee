package handlers

import (
	"errors"
	"net/http"

	"formhub/services"

	"github.com/gin-gonic/gin"
)

// respondError converts a service error into its HTTP status. Upstream
// failures surface the remote error for diagnostics; anything else unknown
// becomes a 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrTicketUpstream) || errors.Is(err, services.ErrCRMUpstream) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, services.ErrFormNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrUserHasDependents):
		return http.StatusConflict
	case errors.Is(err, services.ErrTicketUpstream),
		errors.Is(err, services.ErrCRMUpstream):
		return http.StatusInternalServerError
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	}

	var svcErr services.ServiceError
	if errors.As(err, &svcErr) {
		// Remaining sentinels are validation failures.
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
