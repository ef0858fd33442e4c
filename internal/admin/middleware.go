package admin

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AliMahmood99/real-estate-chatbot/platform/httpkit"
)

const apiKeyHeader = "X-API-Key"

// APIKeyMiddleware guards the admin surface with the static shared secret
// the dashboard is configured with.
func APIKeyMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(apiKeyHeader)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			httpkit.Error(c, http.StatusUnauthorized, "invalid or missing API key", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
