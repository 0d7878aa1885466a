package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MemoryDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("JWT_TOKEN_TTL", "2h")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTP.Addr())
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.HTTP.AllowedOrigins)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_BuildsDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:pw@db:5432/scholarships?sslmode=disable", cfg.Database.URL)
}

func TestValidate_AggregatesErrors(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BCRYPT_COST", "40")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER must be postgres or memory")
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
	assert.Contains(t, err.Error(), "BCRYPT_COST must be 4-31")
}

func TestValidate_ProductionRules(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed in production")
	assert.Contains(t, err.Error(), "at least 32 bytes")
}

func TestFeatureFlags(t *testing.T) {
	t.Setenv("FEATURE_REDIS_EVENTS", "true")
	t.Setenv("FEATURE_VIEW_COUNTING", "false")
	t.Setenv("FEATURE_METRICS", "not-a-bool")

	ff := LoadFeatureFlags()
	assert.True(t, ff.IsEnabled(FeatureRedisEvents))
	assert.False(t, ff.IsEnabled(FeatureViewCounting))
	assert.True(t, ff.IsEnabled(FeatureMetrics), "unparsable value keeps the default")
	assert.False(t, ff.IsEnabled("unknown.flag"))

	require.NoError(t, ff.SetEnabled(FeatureSelfRegistration, false))
	assert.False(t, ff.IsEnabled(FeatureSelfRegistration))
	assert.ErrorIs(t, ff.SetEnabled("nope", true), ErrFeatureNotFound)

	all := ff.GetAllFeatures()
	all[FeatureRedisEvents].Enabled = false
	assert.True(t, ff.IsEnabled(FeatureRedisEvents), "GetAllFeatures returns copies")
}
