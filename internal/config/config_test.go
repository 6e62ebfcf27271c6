package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/portal")
	t.Setenv("BASE_URL", "https://videos.example.com/")
	t.Setenv("AUTHGEAR_ENDPOINT", "https://idp.example.com/")
	t.Setenv("AUTHGEAR_CLIENT_ID", "client-1")
	t.Setenv("AUTHGEAR_CLIENT_SECRET", "secret")
	t.Setenv("TYPESENSE_HOST", "search.example.com")
	t.Setenv("TYPESENSE_ADMIN_KEY", "admin-key")
	t.Setenv("TYPESENSE_SEARCH_KEY", "search-key")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "8080", cfg.HTTPPort)
	require.Equal(t, "https://videos.example.com", cfg.BaseURL, "trailing slash is trimmed")
	require.Equal(t, "https://idp.example.com", cfg.IdPEndpoint)
	require.Equal(t, 600, cfg.RateLimitRPM)
	require.Equal(t, 30*24*time.Hour, cfg.CookieTTL)
	require.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("RATE_LIMIT_RPM", "120")
	t.Setenv("PROFILE_COOKIE_TTL", "72h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, 120, cfg.RateLimitRPM)
	require.Equal(t, 72*time.Hour, cfg.CookieTTL)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	require.False(t, cfg.TelemetryInsecure)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadMalformedNumbersFallBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RATE_LIMIT_RPM", "not-a-number")
	t.Setenv("PROFILE_COOKIE_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 600, cfg.RateLimitRPM)
	require.Equal(t, 30*24*time.Hour, cfg.CookieTTL)
}
