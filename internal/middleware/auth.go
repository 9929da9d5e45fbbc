package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"agroalert/internal/common"

	"github.com/gin-gonic/gin"
)

// CronAuth returns middleware that validates the Authorization header against
// the shared cron secret: the scheduler (and any service-to-service caller)
// must present "Bearer <secret>". This is not end-user authentication.
func CronAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			common.Error(c, http.StatusUnauthorized, "missing Authorization header")
			c.Abort()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || !secretMatches(token, secret) {
			common.Error(c, http.StatusUnauthorized, "unauthorized")
			c.Abort()
			return
		}

		c.Next()
	}
}

// secretMatches compares the presented token against the configured secret in
// constant time.
func secretMatches(token, secret string) bool {
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
