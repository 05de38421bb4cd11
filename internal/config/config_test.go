package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("RESERVATION_TIMEZONE", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("RABBITMQ_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "charter.db", cfg.DatabaseURL)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWTTokenTTL)
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Equal(t, 100, cfg.MaxPageSize)
	assert.Equal(t, "charter.reservations", cfg.EventsExchange)
	assert.Empty(t, cfg.RedisAddr)
	assert.False(t, cfg.IsProd())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RESERVATION_TIMEZONE", "America/Lima")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MAX_PAGE_SIZE", "50")
	t.Setenv("AUTO_MIGRATE", "off")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "America/Lima", cfg.Location.String())
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 50, cfg.MaxPageSize)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{"bad timezone", map[string]string{"RESERVATION_TIMEZONE": "Mars/Olympus"}, "RESERVATION_TIMEZONE"},
		{"bad duration", map[string]string{"CACHE_TTL": "soon"}, "CACHE_TTL"},
		{"zero ttl", map[string]string{"CACHE_TTL": "0s"}, "CACHE_TTL must be > 0"},
		{"bad int", map[string]string{"DEFAULT_PAGE_SIZE": "twenty"}, "DEFAULT_PAGE_SIZE"},
		{"max below default", map[string]string{"DEFAULT_PAGE_SIZE": "50", "MAX_PAGE_SIZE": "10"}, "MAX_PAGE_SIZE"},
		{"default secret in prod", map[string]string{"APP_ENV": "production", "JWT_SECRET": ""}, "JWT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
