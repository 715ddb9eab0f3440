package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var knownVars = []string{
	"CONFIG_FILE", "LISTEN_ADDR", "CORS_ALLOWED_ORIGINS", "TRUST_XFF",
	"EMAIL_PROVIDER", "RESEND_API_KEY", "RESEND_BASE_URL", "SMTP_HOST", "SMTP_PORT",
	"SMTP_USERNAME", "SMTP_PASSWORD", "EMAIL_FROM", "EMAIL_TO", "EMAIL_ADMIN_CC",
	"EMAIL_SITE_NAME", "EMAIL_TEST_MODE", "EMAIL_SEND_TIMEOUT",
	"RATE_LIMIT_WINDOW", "RATE_LIMIT_MAX", "RATE_LIMIT_BACKEND", "RATE_LIMIT_PREFIX",
	"BREAKER_THRESHOLD", "BREAKER_TIMEOUT", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"STATS_ENABLED", "STATS_PREFIX", "STATS_TTL", "STATS_BUCKET", "STATS_TRACK_KEYS",
	"EDGE_RATE_ENABLED", "EDGE_RATE_RPS", "EDGE_RATE_BURST", "EDGE_RETRY_AFTER",
	"CONCURRENCY_MAX", "CONCURRENCY_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
}

// cleanEnv zera as variáveis conhecidas para o teste não depender do ambiente da máquina.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range knownVars {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, 5, cfg.Breaker.Threshold)
	assert.Equal(t, 5*time.Minute, cfg.Breaker.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Email.SendTimeout)
	assert.False(t, cfg.UsesRedis())
}

func TestLoad_EnvOverrides(t *testing.T) {
	cleanEnv(t)
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://bridgingtrust.ai, https://www.bridgingtrust.ai,")
	t.Setenv("EMAIL_PROVIDER", "SMTP")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("EMAIL_TEST_MODE", "true")
	t.Setenv("RATE_LIMIT_MAX", "10")
	t.Setenv("RATE_LIMIT_WINDOW", "30m")
	t.Setenv("BREAKER_TIMEOUT", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, []string{"https://bridgingtrust.ai", "https://www.bridgingtrust.ai"}, cfg.Server.CORSOrigins)
	assert.Equal(t, ProviderSMTP, cfg.Email.Provider)
	assert.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
	assert.Equal(t, 2525, cfg.Email.SMTP.Port)
	assert.True(t, cfg.Email.TestMode)
	assert.Equal(t, 10, cfg.RateLimit.Max)
	assert.Equal(t, 30*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, time.Minute, cfg.Breaker.Timeout)
}

func TestLoad_InvalidEnvValuesKeepDefaults(t *testing.T) {
	cleanEnv(t)
	t.Setenv("RATE_LIMIT_MAX", "five")
	t.Setenv("EMAIL_TEST_MODE", "maybe")
	t.Setenv("BREAKER_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.False(t, cfg.Email.TestMode)
	assert.Equal(t, 5*time.Minute, cfg.Breaker.Timeout)
}

func TestLoad_YAMLFileThenEnv(t *testing.T) {
	cleanEnv(t)
	path := writeFile(t, `
server:
  listen_addr: ":7000"
email:
  from: "Site <site@example.com>"
  to: "ops@example.com"
  send_timeout: 3s
rate_limit:
  max: 3
  backend: redis
redis:
  addr: "127.0.0.1:6379"
breaker:
  threshold: 2
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RATE_LIMIT_MAX", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.ListenAddr)
	assert.Equal(t, "Site <site@example.com>", cfg.Email.From)
	assert.Equal(t, "ops@example.com", cfg.Email.To)
	assert.Equal(t, 3*time.Second, cfg.Email.SendTimeout)
	assert.Equal(t, 7, cfg.RateLimit.Max, "env wins over file")
	assert.Equal(t, BackendRedis, cfg.RateLimit.Backend)
	assert.Equal(t, 2, cfg.Breaker.Threshold)
	// campos ausentes no arquivo mantêm o default
	assert.Equal(t, time.Hour, cfg.RateLimit.Window)
	assert.Equal(t, "admin@bridgingtrust.ai", cfg.Email.AdminCc)
	assert.True(t, cfg.UsesRedis())
}

func TestLoad_MissingFile(t *testing.T) {
	cleanEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open config file")
}

func TestLoad_MalformedFile(t *testing.T) {
	cleanEnv(t)
	t.Setenv("CONFIG_FILE", writeFile(t, "rate_limit: [not, a, map"))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config file")
}

func TestLoad_EdgeBurstFallsBackToOneForSlowRates(t *testing.T) {
	cleanEnv(t)
	t.Setenv("EDGE_RATE_ENABLED", "true")
	t.Setenv("EDGE_RATE_RPS", "0.2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Edge.Burst)

	t.Setenv("EDGE_RATE_BURST", "4")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Edge.Burst)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown provider", func(c *Config) { c.Email.Provider = "sendgrid" }, "EMAIL_PROVIDER"},
		{"empty from", func(c *Config) { c.Email.From = " " }, "EMAIL_FROM is required"},
		{"empty to", func(c *Config) { c.Email.To = "" }, "EMAIL_TO is required"},
		{"unknown backend", func(c *Config) { c.RateLimit.Backend = "dynamo" }, "RATE_LIMIT_BACKEND"},
		{"redis backend without addr", func(c *Config) { c.RateLimit.Backend = BackendRedis }, "REDIS_ADDR is required when RATE_LIMIT_BACKEND=redis"},
		{"stats without redis", func(c *Config) { c.Stats.Enabled = true }, "REDIS_ADDR is required when STATS_ENABLED=true"},
		{"zero window", func(c *Config) { c.RateLimit.Window = 0 }, "RATE_LIMIT_WINDOW"},
		{"zero max", func(c *Config) { c.RateLimit.Max = 0 }, "RATE_LIMIT_MAX"},
		{"zero threshold", func(c *Config) { c.Breaker.Threshold = 0 }, "BREAKER_THRESHOLD"},
		{"zero breaker timeout", func(c *Config) { c.Breaker.Timeout = 0 }, "BREAKER_TIMEOUT"},
		{"edge without rps", func(c *Config) { c.Edge.Enabled = true; c.Edge.RPS = 0 }, "EDGE_RATE_RPS"},
		{"edge without burst", func(c *Config) { c.Edge.Enabled = true; c.Edge.Burst = 0 }, "EDGE_RATE_BURST"},
		{"negative concurrency", func(c *Config) { c.Concurrency.Max = -1 }, "CONCURRENCY_MAX"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.RateLimit.Max = 0
	cfg.Breaker.Threshold = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RATE_LIMIT_MAX")
	assert.Contains(t, err.Error(), "BREAKER_THRESHOLD")
}

func TestValidate_MissingAPIKeyIsNotAConfigError(t *testing.T) {
	cfg := Default()
	cfg.Email.ResendAPIKey = ""
	assert.NoError(t, cfg.Validate())
}
