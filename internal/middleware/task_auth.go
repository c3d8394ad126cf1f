package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/agencyboard-api/internal/errors"
)

// TaskVisibility answers whether a user may see a task
type TaskVisibility interface {
	CanSeeTask(ctx context.Context, userID, taskID string) (bool, error)
}

// RequireTaskAccess checks that the principal may see the task named by the
// :id parameter. Only External Agency principals are restricted; a hidden
// task answers the same 404 as a missing one.
func RequireTaskAccess(visibility TaskVisibility) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}
		if !user.IsExternal() {
			c.Next()
			return
		}

		canSee, err := visibility.CanSeeTask(c.Request.Context(), user.ID, c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			apierrors.InternalError(c, "")
			return
		}
		if !canSee {
			apierrors.NotFound(c, "Task not found or access denied")
			return
		}
		c.Next()
	}
}
