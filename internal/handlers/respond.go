package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/agencyboard-api/internal/errors"
	"github.com/yukikurage/agencyboard-api/internal/middleware"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/services"
)

var notFoundMessages = []struct {
	err     error
	message string
}{
	{services.ErrTaskNotFound, "Task not found"},
	{services.ErrParentTaskNotFound, "Parent task not found"},
	{services.ErrProjectNotFound, "Project not found"},
	{services.ErrProductNotFound, "Product not found"},
	{services.ErrAgencyNotFound, "Agency not found"},
	{services.ErrTeamNotFound, "Team not found"},
	{services.ErrMemberNotFound, "Team member not found"},
	{services.ErrLabelNotFound, "Label not found"},
	{services.ErrLabelNotOnTask, "Label not found"},
	{services.ErrLabelNotOnProject, "Label not found"},
	{services.ErrTeamNotOnProject, "Team not found"},
	{services.ErrStatusNotFound, "Status not found"},
	{services.ErrCustomFieldNotFound, "Custom field not found"},
	{services.ErrChecklistItemNotFound, "Checklist item not found"},
	{services.ErrProjectStatusNotFound, "Project status not found"},
	{services.ErrAutomationNotFound, "Automation not found"},
	{services.ErrApprovalWorkflowNotFound, "Approval workflow not found"},
	{services.ErrSLARuleNotFound, "SLA rule not found"},
	{services.ErrCommentNotFound, "Comment not found"},
	{services.ErrReportNotFound, "Report not found"},
	{services.ErrTemplateNotFound, "Email template not found"},
	{services.ErrUserNotFound, "User not found"},
}

// respondError renders a service error. Validation errors carry their own
// message; unexpected errors are attached to the context for the request
// logger and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var validation *services.ValidationError
	if errors.As(err, &validation) {
		apierrors.BadRequest(c, validation.Message)
		return
	}

	for _, nf := range notFoundMessages {
		if errors.Is(err, nf.err) {
			apierrors.NotFound(c, nf.message)
			return
		}
	}

	switch {
	case errors.Is(err, services.ErrPermissionDenied):
		apierrors.Forbidden(c, "Insufficient permissions")
	case errors.Is(err, services.ErrAccessDenied):
		apierrors.Forbidden(c, "Access denied")
	case errors.Is(err, services.ErrOwnerProtected):
		apierrors.Forbidden(c, "Owner accounts cannot be modified")
	case errors.Is(err, services.ErrCannotRemoveWatcher):
		apierrors.Forbidden(c, "Cannot remove other users as watchers")
	case errors.Is(err, services.ErrUserInactive):
		apierrors.Forbidden(c, "User account is inactive")
	case errors.Is(err, services.ErrProfileExists):
		apierrors.Conflict(c, "User profile already exists")
	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}

// principal returns the authenticated user, answering 401 when absent
func principal(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.GetUser(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return nil, false
	}
	return user, true
}

// bindJSON binds the request body, answering 400 on malformed input
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}

// bindQuery binds the query string, answering 400 on malformed input
func bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		apierrors.BadRequest(c, "Invalid query parameters")
		return false
	}
	return true
}
