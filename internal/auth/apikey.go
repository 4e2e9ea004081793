// Package auth guards the credential API with a single static key: the
// issuance endpoints handle biometric source material, so every /v1
// route sits behind it.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const headerName = "X-API-Key"

// RequireKey validates the X-API-Key header against the configured key.
// Both sides are compared as SHA-256 digests so the comparison is
// constant-time without leaking the configured key's length. An empty
// configured key disables authentication (local development only).
func RequireKey(key string) gin.HandlerFunc {
	want := sha256.Sum256([]byte(key))

	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(headerName)
		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing API key",
			})
			return
		}

		got := sha256.Sum256([]byte(provided))
		if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "invalid API key",
			})
			return
		}

		c.Next()
	}
}
