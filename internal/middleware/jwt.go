package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/revelry-events/backend/internal/auth"
	"github.com/revelry-events/backend/pkg/response"
)

const (
	// ContextUserID is the key for the canonical user ID (uuid.UUID) in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for user role in gin context.
	ContextUserRole = "user_role"
	// ContextUserEmail is the key for user email in gin context.
	ContextUserEmail = "user_email"
)

// JWT returns a middleware that validates JWT and sets user claims in
// context. The user_id claim is normalized through ParseUserRef so
// handlers always see a canonical uuid.UUID, even for legacy tokens.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		ref, err := auth.ParseUserRef(claims.UserID)
		if err != nil {
			response.Unauthorized(c, "invalid token subject")
			c.Abort()
			return
		}
		c.Set(ContextUserID, ref.ID)
		c.Set(ContextUserRole, claims.Role)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}
