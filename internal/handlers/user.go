package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agencyboard-api/internal/dto"
	"github.com/yukikurage/agencyboard-api/internal/services"
)

// UserHandler serves the user directory
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// ListUsers returns active users, optionally matching ?search=
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.SearchUsers(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, users)
}

// UpdateRole changes the role of a user
func (h *UserHandler) UpdateRole(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	var req dto.RoleRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.users.UpdateRole(c.Request.Context(), user, c.Param("id"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusOK, updated)
}

// DeactivateUser deactivates a user account
func (h *UserHandler) DeactivateUser(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	if err := h.users.Deactivate(c.Request.Context(), user, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	dto.Message(c, "User deactivated successfully")
}
