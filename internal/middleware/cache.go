package middleware

import (
	"github.com/gin-gonic/gin"
)

// PrivateCache marks responses as user-scoped: never stored by shared
// caches and always revalidated.
func PrivateCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "private, no-store, max-age=0, must-revalidate")
		c.Next()
	}
}
