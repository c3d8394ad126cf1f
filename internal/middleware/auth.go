package middleware

import (
	"context"
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agencyboard-api/internal/auth"
	"github.com/yukikurage/agencyboard-api/internal/constants"
	apierrors "github.com/yukikurage/agencyboard-api/internal/errors"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/services"
)

// TokenVerifier verifies provider access tokens
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authenticator resolves the principal of a verified user ID
type Authenticator interface {
	Authenticate(ctx context.Context, userID string) (*models.User, error)
}

// RequireAuth authenticates the request by bearer token, falling back to
// the session cookie, and loads the principal
func RequireAuth(verifier TokenVerifier, users Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID string
		if token, ok := auth.BearerToken(c.GetHeader("Authorization")); ok {
			claims, err := verifier.Verify(token)
			if err != nil {
				apierrors.Unauthorized(c, "Invalid or expired token")
				return
			}
			userID = claims.Subject
		} else if id, ok := sessions.Default(c).Get(constants.ContextKeyUserID).(string); ok && id != "" {
			userID = id
		} else {
			apierrors.Unauthorized(c, "Missing or invalid authorization header")
			return
		}

		user, err := users.Authenticate(c.Request.Context(), userID)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrUserNotFound):
				apierrors.Unauthorized(c, "User not found")
			case errors.Is(err, services.ErrUserInactive):
				apierrors.Forbidden(c, "User account is inactive")
			default:
				_ = c.Error(err)
				apierrors.InternalError(c, "Authentication error")
			}
			return
		}

		// Store the principal in context for easy access in handlers
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUser, user)
		c.Next()
	}
}

// RequireToken verifies the bearer token without requiring a user profile.
// It is used by the endpoints that create a profile or a session.
func RequireToken(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			apierrors.Unauthorized(c, "Missing or invalid authorization header")
			return
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			apierrors.Unauthorized(c, "Invalid or expired token")
			return
		}
		c.Set(constants.ContextKeyClaims, claims)
		c.Set(constants.ContextKeyUserID, claims.Subject)
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}

// GetUser retrieves the authenticated principal from context
func GetUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

// GetClaims retrieves the verified token claims from context
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	value, exists := c.Get(constants.ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok && claims != nil
}
