package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpers_RenderFailureEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		respond func(*gin.Context)
		status  int
		message string
	}{
		{"unauthorized default", func(c *gin.Context) { Unauthorized(c, "") }, http.StatusUnauthorized, "Authentication required"},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "Insufficient permissions") }, http.StatusForbidden, "Insufficient permissions"},
		{"not found", func(c *gin.Context) { NotFound(c, "Task not found or access denied") }, http.StatusNotFound, "Task not found or access denied"},
		{"bad request default", func(c *gin.Context) { BadRequest(c, "") }, http.StatusBadRequest, "Invalid request"},
		{"conflict", func(c *gin.Context) { Conflict(c, "") }, http.StatusConflict, "Resource conflict"},
		{"internal", func(c *gin.Context) { InternalError(c, "") }, http.StatusInternalServerError, "Internal server error"},
		{"unavailable", func(c *gin.Context) { ServiceUnavailable(c, "") }, http.StatusServiceUnavailable, "Service temporarily unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			tt.respond(c)

			assert.Equal(t, tt.status, w.Code)
			assert.True(t, c.IsAborted())

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["error"])
			assert.NotContains(t, body, "code")

			code, ok := Code(c)
			assert.True(t, ok)
			assert.NotEmpty(t, code)
		})
	}
}

func TestCode_NoFailure(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := Code(c)
	assert.False(t, ok)
}
