package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Recovery turns a handler panic into an opaque 500. The request-scoped
// logger is preferred so the entry carries the request id.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			l := zerolog.Ctx(c.Request.Context())
			if l.GetLevel() == zerolog.Disabled {
				l = &log
			}
			l.Error().
				Interface("panic", r).
				Str("route", c.FullPath()).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "internal_server_error",
			})
		}()
		c.Next()
	}
}
