package middleware

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/agencyboard-api/internal/errors"
	"github.com/yukikurage/agencyboard-api/internal/models"
)

// RequireRole allows the request only when the principal holds one of roles.
// It must run after RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c)
		if !ok {
			apierrors.Unauthorized(c, "User not authenticated")
			return
		}
		if !user.Role.In(roles...) {
			apierrors.Forbidden(c, "Insufficient permissions")
			return
		}
		c.Next()
	}
}
