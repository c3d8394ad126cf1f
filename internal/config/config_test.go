package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	v, err := New("")
	require.NoError(t, err)

	cfg := Load(v)

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 5*time.Minute, cfg.EmailSettingsTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("SMTP_SECURE", "true")
	t.Setenv("EMAIL_SETTINGS_TTL", "90s")

	v, err := New("")
	require.NoError(t, err)
	cfg := Load(v)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.True(t, cfg.SMTP.Secure)
	assert.Equal(t, 90*time.Second, cfg.EmailSettingsTTL)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agencyboard.yaml")
	require.NoError(t, os.WriteFile(path, []byte("PORT: \"9090\"\nJWT_SECRET: from-file\n"), 0o600))

	v, err := New(path)
	require.NoError(t, err)
	cfg := Load(v)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "from-file", cfg.JWTSecret)
}

func TestNew_MissingConfigFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
