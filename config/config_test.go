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
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "puzzle-hub", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 60*time.Second, cfg.Leaderboard.CacheTTL)
	assert.Equal(t, 100, cfg.Leaderboard.TopN)
	assert.Equal(t, StoreMemory, cfg.Leaderboard.Store)
	assert.Zero(t, cfg.Leaderboard.WarmInterval)
	assert.False(t, cfg.UsePostgres())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.True(t, cfg.Features.IsEnabled(FeatureSeedDefinitions))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/hub?sslmode=disable")
	t.Setenv("LEADERBOARD_CACHE_TTL", "5s")
	t.Setenv("LEADERBOARD_STORE", "redis")
	t.Setenv("LEADERBOARD_WARM_INTERVAL", "45s")
	t.Setenv("INGESTION_WORKERS", "8")
	t.Setenv("HTTP_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("FEATURES_ADMIN_API", "false")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.True(t, cfg.UsePostgres())
	assert.Equal(t, 5*time.Second, cfg.Leaderboard.CacheTTL)
	assert.Equal(t, StoreRedis, cfg.Leaderboard.Store)
	assert.Equal(t, 45*time.Second, cfg.Leaderboard.WarmInterval)
	assert.Equal(t, 8, cfg.Ingestion.Workers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSAllowedOrigins)
	assert.False(t, cfg.Features.IsEnabled(FeatureAdminAPI))
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("http:\n  port: 9090\nleaderboard:\n  top_n: 10\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 10, cfg.Leaderboard.TopN)
}

func TestValidate_AggregatesErrors(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("LEADERBOARD_STORE", "mongo")
	t.Setenv("INGESTION_QUEUE_SIZE", "0")

	_, err := Load(t.TempDir())
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "DATABASE_URL is required in production")
	assert.Contains(t, msg, "LEADERBOARD_STORE must be memory or redis")
	assert.Contains(t, msg, "INGESTION_QUEUE_SIZE must be positive")
}

func TestFeatureFlags(t *testing.T) {
	ff := NewFeatureFlags(map[string]bool{FeatureRecentFeed: false})

	assert.True(t, ff.IsEnabled(FeatureAdminAPI))
	assert.False(t, ff.IsEnabled(FeatureRecentFeed))
	assert.False(t, ff.IsEnabled("unknown"))

	ff.Set(FeatureRecentFeed, true)
	assert.Equal(t, []string{FeatureAdminAPI, FeatureRecentFeed, FeatureSeedDefinitions}, ff.Enabled())

	var nilFlags *FeatureFlags
	assert.True(t, nilFlags.IsEnabled(FeatureAdminAPI))
}
