package trigger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oshokin/famcal-notifier/internal/gateway/tasks"
	"github.com/oshokin/famcal-notifier/internal/logger"
)

// invocationHeader carries a caller-supplied invocation id.
const invocationHeader = "X-Invocation-ID"

// RequestLogger tags the request context with an invocation id and logs the outcome.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		invocationID := c.GetHeader(invocationHeader)
		if invocationID == "" {
			invocationID = uuid.NewString()
		}

		c.Header(invocationHeader, invocationID)

		ctx := logger.WithKV(c.Request.Context(), "invocation_id", invocationID)
		c.Request = c.Request.WithContext(ctx)

		started := time.Now()

		c.Next()

		logger.DebugKV(ctx, "Request handled",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(started),
		)
	}
}

// Recovery turns a panicking handler into a logged 500.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorKV(c.Request.Context(), "Handler panicked",
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"panic", r,
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()

		c.Next()
	}
}

// CallbackAuth accepts only requests bearing a valid escalation callback token.
func CallbackAuth(secret string, now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || secret == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})

			return
		}

		if err := tasks.VerifyCallbackToken(secret, token, now()); err != nil {
			logger.WarnKV(c.Request.Context(), "Rejected callback", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})

			return
		}

		c.Next()
	}
}
