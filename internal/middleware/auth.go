package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"accounts/api/internal/security"
)

const principalKey = "principal"

type TokenVerifier interface {
	Verify(token string) (security.Principal, error)
}

// Auth rejects requests without a valid bearer token and stores the
// verified principal on the context.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		principal, err := verifier.Verify(strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")))
		if err != nil {
			code := "invalid_token"
			if errors.Is(err, security.ErrTokenExpired) {
				code = "token_expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code})
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// PrincipalFrom returns the caller stored by Auth.
func PrincipalFrom(c *gin.Context) (security.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return security.Principal{}, false
	}
	p, ok := v.(security.Principal)
	return p, ok
}
