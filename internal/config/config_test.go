package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "YTDLP_BINARY", "YTDLP_TIMEOUT", "MAX_RETRIES", "COOKIES_DIR",
		"RATE_LIMIT", "REDIS_ADDR", "REDIS_PASSWORD", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 12*time.Minute, cfg.Server.RequestTimeout)
	assert.Equal(t, "yt-dlp", cfg.YTDLP.BinaryPath)
	assert.Equal(t, 90*time.Second, cfg.YTDLP.GetTimeout())
	assert.Equal(t, 10*time.Second, cfg.YTDLP.GetVersionTimeout())
	assert.Equal(t, 3, cfg.YTDLP.MaxRetries)
	assert.Equal(t, ".", cfg.YTDLP.CookiesDir)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Hour, cfg.Cache.GetCacheTTL())
	assert.Equal(t, 10, cfg.RateLimit.PerMinute)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
  request_timeout: 5m
ytdlp:
  timeout: 60
  max_retries: 2
  cookies_dir: /cookies
  default_args: ["--force-ipv4"]
cache:
  enabled: true
  ttl: 600
logging:
  format: console
`), 0600))

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Server.RequestTimeout)
	assert.Equal(t, 60, cfg.YTDLP.Timeout)
	assert.Equal(t, 2, cfg.YTDLP.MaxRetries)
	assert.Equal(t, "/cookies", cfg.YTDLP.CookiesDir)
	assert.Equal(t, []string{"--force-ipv4"}, cfg.YTDLP.DefaultArgs)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Cache.GetCacheTTL())
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("YTDLP_BINARY", "/usr/local/bin/yt-dlp")
	t.Setenv("YTDLP_TIMEOUT", "30")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("COOKIES_DIR", "/var/cookies")
	t.Setenv("RATE_LIMIT", "60")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")

	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/usr/local/bin/yt-dlp", cfg.YTDLP.BinaryPath)
	assert.Equal(t, 30, cfg.YTDLP.Timeout)
	assert.Equal(t, 5, cfg.YTDLP.MaxRetries)
	assert.Equal(t, "/var/cookies", cfg.YTDLP.CookiesDir)
	assert.Equal(t, 60, cfg.RateLimit.PerMinute)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_RETRIES", "three")

	_, err := LoadConfig("")

	assert.ErrorContains(t, err, "MAX_RETRIES")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0600))

	_, err := LoadConfig(path)

	assert.Error(t, err)
}
