package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, "resend", cfg.Email.Provider)
	assert.Equal(t, "Ludhiana, India", cfg.Weather.DefaultLocation)
	assert.Equal(t, 10, cfg.Dispatch.BatchSize)
	assert.Equal(t, 1000, cfg.Dispatch.InterBatchDelayMs)
	assert.Equal(t, "0 6 * * *", cfg.Schedule.WeatherCron)
	assert.Equal(t, "0 7 * * *", cfg.Schedule.PriceCron)
	assert.Equal(t, 3, cfg.RecipientRateLimit.MaxPerHour)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 300, cfg.Reaper.IntervalSec)
	assert.Equal(t, 600, cfg.Reaper.StaleThresholdSec)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AGROALERT_SERVER_PORT", "9090")
	t.Setenv("AGROALERT_AUTH_CRON_SECRET", "cron-secret")
	t.Setenv("AGROALERT_DISPATCH_BATCH_SIZE", "25")
	t.Setenv("AGROALERT_DISPATCH_INTER_BATCH_DELAY_MS", "250")
	t.Setenv("AGROALERT_EMAIL_API_KEY", "re_test_key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "cron-secret", cfg.Auth.CronSecret)
	assert.Equal(t, 25, cfg.Dispatch.BatchSize)
	assert.Equal(t, 250, cfg.Dispatch.InterBatchDelayMs)
	assert.Equal(t, "re_test_key", cfg.Email.APIKey)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 8181
dispatch:
  batch_size: 5
cors:
  allowed_origins:
    - https://agroalert.app
    - https://staging.agroalert.app
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Dispatch.BatchSize)
	assert.Equal(t, []string{"https://agroalert.app", "https://staging.agroalert.app"}, cfg.CORS.AllowedOrigins)
	// Unset keys keep defaults
	assert.Equal(t, 1000, cfg.Dispatch.InterBatchDelayMs)
}

func TestLoadCORSOriginsFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("AGROALERT_CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
}
