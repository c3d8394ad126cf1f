package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agencyboard-api/internal/auth"
	"github.com/yukikurage/agencyboard-api/internal/constants"
	apierrors "github.com/yukikurage/agencyboard-api/internal/errors"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/services"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (*auth.Claims, error) {
	if token == "bad" {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: token}}, nil
}

type stubUsers map[string]*models.User

func (s stubUsers) Authenticate(_ context.Context, userID string) (*models.User, error) {
	if userID == "broken" {
		return nil, errors.New("db down")
	}
	user, ok := s[userID]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, services.ErrUserInactive
	}
	return user, nil
}

func newUser(id string, role models.Role) *models.User {
	u := &models.User{Email: id + "@example.com", Role: role, IsActive: true}
	u.ID = id
	return u
}

func serve(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	inactive := newUser("inactive", models.RoleViewer)
	inactive.IsActive = false
	users := stubUsers{
		"dana":     newUser("dana", models.RoleManager),
		"inactive": inactive,
	}

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.GET("/me", RequireAuth(stubVerifier{}, users), func(c *gin.Context) {
		user, _ := GetUser(c)
		id, _ := GetUserID(c)
		c.String(http.StatusOK, user.Email+"|"+id)
	})

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"valid token", "dana", http.StatusOK},
		{"no header", "", http.StatusUnauthorized},
		{"invalid token", "bad", http.StatusUnauthorized},
		{"unknown user", "ghost", http.StatusUnauthorized},
		{"inactive user", "inactive", http.StatusForbidden},
		{"lookup failure", "broken", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(r, http.MethodGet, "/me", tt.token)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	w := serve(r, http.MethodGet, "/me", "dana")
	assert.Equal(t, "dana@example.com|dana", w.Body.String())
}

func TestRequireAuth_Session(t *testing.T) {
	users := stubUsers{"dana": newUser("dana", models.RoleViewer)}

	r := gin.New()
	r.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	r.POST("/login", func(c *gin.Context) {
		s := sessions.Default(c)
		s.Set(constants.ContextKeyUserID, "dana")
		require.NoError(t, s.Save())
	})
	r.GET("/me", RequireAuth(stubVerifier{}, users), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	login := serve(r, http.MethodPost, "/login", "")
	cookies := login.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequireToken(t *testing.T) {
	r := gin.New()
	r.POST("/register", RequireToken(stubVerifier{}), func(c *gin.Context) {
		claims, ok := GetClaims(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.Subject)
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/register", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/register", "bad").Code)

	w := serve(r, http.MethodPost, "/register", "new-user")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "new-user", w.Body.String())
}

// withUser installs user as the principal, as RequireAuth would
func withUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user != nil {
			c.Set(constants.ContextKeyUserID, user.ID)
			c.Set(constants.ContextKeyUser, user)
		}
		c.Next()
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"allowed", newUser("a", models.RoleAdmin), http.StatusOK},
		{"denied", newUser("b", models.RoleContributor), http.StatusForbidden},
		{"no principal", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", withUser(tt.user), RequireRole(models.AdministratorRoles...), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			assert.Equal(t, tt.want, serve(r, http.MethodGet, "/x", "").Code)
		})
	}
}

type stubVisibility struct {
	visible map[string]bool
	err     error
	calls   int
}

func (s *stubVisibility) CanSeeTask(_ context.Context, _, taskID string) (bool, error) {
	s.calls++
	return s.visible[taskID], s.err
}

func TestRequireTaskAccess(t *testing.T) {
	visibility := &stubVisibility{visible: map[string]bool{"seen": true}}
	route := func(user *models.User, v TaskVisibility) *gin.Engine {
		r := gin.New()
		r.GET("/tasks/:id", withUser(user), RequireTaskAccess(v), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return r
	}

	external := newUser("agency", models.RoleExternalAgency)
	assert.Equal(t, http.StatusOK, serve(route(external, visibility), http.MethodGet, "/tasks/seen", "").Code)

	w := serve(route(external, visibility), http.MethodGet, "/tasks/hidden", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Task not found or access denied")

	// Internal roles skip the lookup
	calls := visibility.calls
	assert.Equal(t, http.StatusOK, serve(route(newUser("m", models.RoleViewer), visibility), http.MethodGet, "/tasks/hidden", "").Code)
	assert.Equal(t, calls, visibility.calls)

	failing := &stubVisibility{err: errors.New("boom")}
	assert.Equal(t, http.StatusInternalServerError, serve(route(external, failing), http.MethodGet, "/tasks/seen", "").Code)

	assert.Equal(t, http.StatusUnauthorized, serve(route(nil, visibility), http.MethodGet, "/tasks/seen", "").Code)
}

func TestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	r := gin.New()
	r.Use(Logger(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { apierrors.NotFound(c, "") })
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("db down"))
		c.Status(http.StatusInternalServerError)
	})

	serve(r, http.MethodGet, "/ok", "")
	serve(r, http.MethodGet, "/missing", "")
	serve(r, http.MethodGet, "/fail", "")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "NOT_FOUND", entries[1].ContextMap()["error_code"])
	assert.NotContains(t, entries[0].ContextMap(), "error_code")
	assert.Equal(t, "/fail", entries[2].ContextMap()["path"])
	assert.Equal(t, []any{"db down"}, entries[2].ContextMap()["errors"])
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	w := serve(r, http.MethodGet, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Internal server error"}`, w.Body.String())
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}
