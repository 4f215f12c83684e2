package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth validates the caller against the configured API keys.
// Accepted locations, in order:
// - Authorization: Bearer <token>
// - x-api-key: <token>
// - Query parameter: ?key=<token>
// When no keys are configured, auth is disabled.
func APIKeyAuth(keys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(keys) == 0 {
			c.Next()
			return
		}

		var providedKey string

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
				providedKey = strings.TrimSpace(authHeader[7:])
			} else {
				providedKey = authHeader
			}
		}
		if providedKey == "" {
			providedKey = c.GetHeader("x-api-key")
		}
		if providedKey == "" {
			providedKey = c.Query("key")
		}

		if providedKey == "" {
			unauthorized(c, "Missing API key")
			return
		}

		for _, key := range keys {
			if subtle.ConstantTimeCompare([]byte(providedKey), []byte(key)) == 1 {
				c.Set("api_key", providedKey)
				c.Next()
				return
			}
		}

		unauthorized(c, "Incorrect API key provided")
	}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"message": message,
			"type":    "invalid_request_error",
			"param":   nil,
			"code":    "invalid_api_key",
		},
	})
}
