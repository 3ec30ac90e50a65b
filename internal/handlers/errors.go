package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"accounts/api/internal/service"
)

func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindAuthentication:
		return http.StatusUnauthorized
	case service.KindAuthorization:
		return http.StatusForbidden
	case service.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// clientMessage returns the status and text safe to show for err.
// Dependency failures never expose their cause.
func clientMessage(err error) (int, string) {
	status := statusFor(service.KindOf(err))
	var e *service.Error
	if status == http.StatusInternalServerError || !errors.As(err, &e) {
		return http.StatusInternalServerError, "internal_server_error"
	}
	return status, e.Reason
}

func (h HandlerSet) writeError(c *gin.Context, err error) {
	status, msg := clientMessage(err)
	if status == http.StatusInternalServerError {
		h.logFailure(c, err)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": msg})
}

func (h HandlerSet) logFailure(c *gin.Context, err error) {
	log := zerolog.Ctx(c.Request.Context())
	if log.GetLevel() == zerolog.Disabled {
		log = &h.log
	}
	log.Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
}
