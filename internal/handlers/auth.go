package handlers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agencyboard-api/internal/constants"
	"github.com/yukikurage/agencyboard-api/internal/dto"
	apierrors "github.com/yukikurage/agencyboard-api/internal/errors"
	"github.com/yukikurage/agencyboard-api/internal/middleware"
	"github.com/yukikurage/agencyboard-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates the profile of the token's subject. The email and name
// default to the token claims.
func (h *AuthHandler) Register(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req dto.RegisterRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	if req.Email == "" {
		req.Email = claims.Email
	}
	if req.FullName == "" {
		req.FullName = claims.FullName()
	}

	user, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		ID:       claims.Subject,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	dto.OK(c, http.StatusCreated, user)
}

// CreateSession exchanges a verified bearer token for a cookie session.
func (h *AuthHandler) CreateSession(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "Failed to save session")
		return
	}

	dto.OK(c, http.StatusOK, user)
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "Failed to logout")
		return
	}

	dto.Message(c, "Logged out successfully")
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	dto.OK(c, http.StatusOK, user)
}
