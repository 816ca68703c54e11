package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapEnv is a fake environment.
func mapEnv(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("", filepath.Join(t.TempDir(), ".env"), mapEnv(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "https://api.coingecko.com/api/v3/", cfg.CoinGecko.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.CoinGecko.HTTPTimeout)
	assert.Equal(t, 5, cfg.CoinGecko.MaxRedirects)
	assert.Equal(t, 3, cfg.CoinGecko.MaxRetryAttempts)
	assert.Equal(t, time.Second, cfg.CoinGecko.RetryScaling)
	assert.Empty(t, cfg.CoinGecko.ExcludedStatusCodes)
	assert.Equal(t, "coingecko-gateway/0.1.0", cfg.CoinGecko.UserAgent)
	assert.Empty(t, cfg.Cache.RedisURL)
	assert.False(t, cfg.Cache.Coalesce)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoad_Environment(t *testing.T) {
	env := mapEnv(map[string]string{
		"PORT":                            "9090",
		"COINGECKO_BASEURL":               "http://localhost:3000/api/v3",
		"COINGECKO_HTTP_TIMEOUT":          "5000",
		"COINGECKO_HTTP_MAX_REDIRECTS":    "0",
		"COINGECKO_MAX_RETRY":             "1",
		"COINGECKO_RETRY_DURATION":        "250ms",
		"COINGECKO_RETRY_EXCLUDED_STATUS": "404, 400,",
		"COINGECKO_USER_AGENT":            "custom/1.0",
		"REDIS_URL":                       "redis://localhost:6379/0",
		"CACHE_COALESCE":                  "true",
		"LOG_LEVEL":                       "debug",
		"LOG_PRETTY":                      "1",
	})

	cfg, err := load("", filepath.Join(t.TempDir(), ".env"), env)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "http://localhost:3000/api/v3", cfg.CoinGecko.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.CoinGecko.HTTPTimeout)
	assert.Equal(t, 0, cfg.CoinGecko.MaxRedirects)
	assert.Equal(t, 1, cfg.CoinGecko.MaxRetryAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.CoinGecko.RetryScaling)
	assert.Equal(t, []int{404, 400}, cfg.CoinGecko.ExcludedStatusCodes)
	assert.Equal(t, "custom/1.0", cfg.CoinGecko.UserAgent)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Cache.RedisURL)
	assert.True(t, cfg.Cache.Coalesce)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)

	policy := cfg.CoinGecko.BackoffPolicy()
	assert.Equal(t, 1, policy.MaxRetryAttempts)
	assert.Equal(t, 250*time.Millisecond, policy.ScalingDuration)
	assert.Equal(t, []int{404, 400}, policy.ExcludedStatusCodes)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: "7070"
coingecko:
  base_url: https://pro-api.coingecko.com/api/v3/
  http_timeout: 10s
  max_retry: 5
  retry_duration: 2s
  retry_excluded_status: [400, 401]
cache:
  coalesce: true
log:
  level: warn
`)

	cfg, err := load(path, filepath.Join(t.TempDir(), ".env"), mapEnv(nil))
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "https://pro-api.coingecko.com/api/v3/", cfg.CoinGecko.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.CoinGecko.HTTPTimeout)
	assert.Equal(t, 5, cfg.CoinGecko.MaxRetryAttempts)
	assert.Equal(t, 2*time.Second, cfg.CoinGecko.RetryScaling)
	assert.Equal(t, []int{400, 401}, cfg.CoinGecko.ExcludedStatusCodes)
	assert.True(t, cfg.Cache.Coalesce)
	assert.Equal(t, "warn", cfg.Log.Level)

	// Untouched keys keep their defaults.
	assert.Equal(t, 5, cfg.CoinGecko.MaxRedirects)
	assert.Equal(t, "coingecko-gateway/0.1.0", cfg.CoinGecko.UserAgent)
}

func TestLoad_YAMLDurationsInMilliseconds(t *testing.T) {
	path := writeFile(t, "config.yaml", "coingecko:\n  http_timeout: 30000\n  retry_duration: 250\n")

	cfg, err := load(path, filepath.Join(t.TempDir(), ".env"), mapEnv(nil))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.CoinGecko.HTTPTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.CoinGecko.RetryScaling)
}

func TestLoad_YAMLInvalidDuration(t *testing.T) {
	path := writeFile(t, "config.yaml", "coingecko:\n  http_timeout: soon\n")

	_, err := load(path, filepath.Join(t.TempDir(), ".env"), mapEnv(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coingecko.http_timeout")
}

func TestLoad_Precedence(t *testing.T) {
	path := writeFile(t, "config.yaml", "server:\n  port: \"7070\"\nlog:\n  level: warn\n")
	envFile := writeFile(t, ".env", "PORT=6060\nLOG_LEVEL=error\nCOINGECKO_MAX_RETRY=7\n")
	env := mapEnv(map[string]string{"PORT": "5050"})

	cfg, err := load(path, envFile, env)
	require.NoError(t, err)

	assert.Equal(t, "5050", cfg.Server.Port, "environment beats .env and YAML")
	assert.Equal(t, "error", cfg.Log.Level, ".env beats YAML")
	assert.Equal(t, 7, cfg.CoinGecko.MaxRetryAttempts, ".env beats defaults")
}

func TestLoad_EmptyEnvironmentValueIgnored(t *testing.T) {
	cfg, err := load("", filepath.Join(t.TempDir(), ".env"), mapEnv(map[string]string{"PORT": ""}))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoad_Errors(t *testing.T) {
	noEnvFile := filepath.Join(t.TempDir(), ".env")

	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad integer", map[string]string{"COINGECKO_MAX_RETRY": "three"}, "COINGECKO_MAX_RETRY"},
		{"bad duration", map[string]string{"COINGECKO_HTTP_TIMEOUT": "soon"}, "COINGECKO_HTTP_TIMEOUT"},
		{"bad boolean", map[string]string{"CACHE_COALESCE": "maybe"}, "CACHE_COALESCE"},
		{"bad status list", map[string]string{"COINGECKO_RETRY_EXCLUDED_STATUS": "404,x"}, "COINGECKO_RETRY_EXCLUDED_STATUS"},
		{"relative base url", map[string]string{"COINGECKO_BASEURL": "api/v3"}, "scheme and host"},
		{"negative retries", map[string]string{"COINGECKO_MAX_RETRY": "-1"}, "max retry"},
		{"zero scaling", map[string]string{"COINGECKO_RETRY_DURATION": "0"}, "retry duration"},
		{"zero timeout", map[string]string{"COINGECKO_HTTP_TIMEOUT": "0"}, "http timeout"},
		{"negative redirects", map[string]string{"COINGECKO_HTTP_MAX_REDIRECTS": "-2"}, "redirects"},
		{"status out of range", map[string]string{"COINGECKO_RETRY_EXCLUDED_STATUS": "99"}, "not an HTTP status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load("", noEnvFile, mapEnv(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := load(filepath.Join(t.TempDir(), "missing.yaml"), "", mapEnv(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "server: [")
	_, err := load(path, filepath.Join(t.TempDir(), ".env"), mapEnv(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_UsesProcessEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PORT", "4040")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "4040", cfg.Server.Port)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"1000", time.Second},
		{" 30000 ", 30 * time.Second},
		{"1m30s", 90 * time.Second},
		{"0", 0},
	}

	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseDuration("later")
	assert.Error(t, err)
}
