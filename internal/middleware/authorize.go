package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"accounts/api/internal/security"
	"accounts/api/internal/service"
)

type Authorizer interface {
	Check(ctx context.Context, caller security.Principal, rule security.Rule) error
}

// RequireAdmin admits callers that currently hold the Admin role. Must run
// after Auth.
func RequireAdmin(authz Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		err := authz.Check(c.Request.Context(), principal, security.AdminOnly())
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, service.ErrUnauthorized):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		default:
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("role lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_server_error"})
		}
	}
}
