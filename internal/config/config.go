// Package config loads the gateway configuration from defaults, an optional
// YAML file, an optional .env file and the environment, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/coingecko-gateway/pkg/client"
	"github.com/Sternrassler/coingecko-gateway/pkg/coingecko"
)

// DefaultEnvFile is read when present in the working directory.
const DefaultEnvFile = ".env"

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	CoinGecko CoinGeckoConfig `yaml:"coingecko"`
	Cache     CacheConfig     `yaml:"cache"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// CoinGeckoConfig holds upstream client configuration.
type CoinGeckoConfig struct {
	BaseURL      string        `yaml:"base_url"`
	HTTPTimeout  time.Duration `yaml:"-"`
	MaxRedirects int           `yaml:"http_max_redirects"`
	UserAgent    string        `yaml:"user_agent"`

	MaxRetryAttempts    int           `yaml:"max_retry"`
	RetryScaling        time.Duration `yaml:"-"`
	ExcludedStatusCodes []int         `yaml:"retry_excluded_status"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	// RedisURL selects the Redis store; empty means in-memory.
	RedisURL string `yaml:"redis_url"`

	// Coalesce shares one upstream call between concurrent misses.
	Coalesce bool `yaml:"coalesce"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	policy := client.DefaultBackoffPolicy()
	return Config{
		Server: ServerConfig{Port: "8080"},
		CoinGecko: CoinGeckoConfig{
			BaseURL:          coingecko.DefaultBaseURL,
			HTTPTimeout:      client.DefaultTimeout,
			MaxRedirects:     client.DefaultMaxRedirects,
			UserAgent:        client.DefaultUserAgent,
			MaxRetryAttempts: policy.MaxRetryAttempts,
			RetryScaling:     policy.ScalingDuration,
		},
		Log: LogConfig{Level: "info"},
	}
}

// BackoffPolicy returns the retry policy described by the configuration.
func (c CoinGeckoConfig) BackoffPolicy() client.BackoffPolicy {
	return client.BackoffPolicy{
		MaxRetryAttempts:    c.MaxRetryAttempts,
		ScalingDuration:     c.RetryScaling,
		ExcludedStatusCodes: c.ExcludedStatusCodes,
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips it. The result is validated.
func Load(path string) (Config, error) {
	return load(path, DefaultEnvFile, os.LookupEnv)
}

func load(path, envFile string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := decodeFile(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	dotenv, err := godotenv.Read(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", envFile, err)
	}

	env := envSource{lookup: lookup, dotenv: dotenv}
	if err := env.apply(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// fileDurations holds the duration keys of the YAML file as raw scalars so
// they are parsed like their environment counterparts.
type fileDurations struct {
	CoinGecko struct {
		HTTPTimeout  string `yaml:"http_timeout"`
		RetryScaling string `yaml:"retry_duration"`
	} `yaml:"coingecko"`
}

func decodeFile(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return err
	}

	var raw fileDurations
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"coingecko.http_timeout", raw.CoinGecko.HTTPTimeout, &cfg.CoinGecko.HTTPTimeout},
		{"coingecko.retry_duration", raw.CoinGecko.RetryScaling, &cfg.CoinGecko.RetryScaling},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		d, err := parseDuration(f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = d
	}
	return nil
}

// Validate checks configuration validity.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}

	u, err := url.Parse(c.CoinGecko.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("invalid base url: %w", err))
	case u.Scheme == "" || u.Host == "":
		errs = append(errs, fmt.Errorf("base url %q must have a scheme and host", c.CoinGecko.BaseURL))
	}

	if c.CoinGecko.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("http timeout must be positive"))
	}
	if c.CoinGecko.MaxRedirects < 0 {
		errs = append(errs, errors.New("http max redirects must not be negative"))
	}
	if c.CoinGecko.MaxRetryAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts must not be negative"))
	}
	if c.CoinGecko.RetryScaling <= 0 {
		errs = append(errs, errors.New("retry duration must be positive"))
	}
	for _, code := range c.CoinGecko.ExcludedStatusCodes {
		if code < 100 || code > 599 {
			errs = append(errs, fmt.Errorf("excluded status %d is not an HTTP status code", code))
		}
	}

	return errors.Join(errs...)
}

// envSource resolves variables from the environment first, then .env.
type envSource struct {
	lookup func(string) (string, bool)
	dotenv map[string]string
}

func (e envSource) get(key string) (string, bool) {
	if v, ok := e.lookup(key); ok && v != "" {
		return v, true
	}
	if v, ok := e.dotenv[key]; ok && v != "" {
		return v, true
	}
	return "", false
}

func (e envSource) apply(cfg *Config) error {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	e.setString("PORT", &cfg.Server.Port)
	e.setString("COINGECKO_BASEURL", &cfg.CoinGecko.BaseURL)
	e.setString("COINGECKO_USER_AGENT", &cfg.CoinGecko.UserAgent)
	collect(e.setDuration("COINGECKO_HTTP_TIMEOUT", &cfg.CoinGecko.HTTPTimeout))
	collect(e.setInt("COINGECKO_HTTP_MAX_REDIRECTS", &cfg.CoinGecko.MaxRedirects))
	collect(e.setInt("COINGECKO_MAX_RETRY", &cfg.CoinGecko.MaxRetryAttempts))
	collect(e.setDuration("COINGECKO_RETRY_DURATION", &cfg.CoinGecko.RetryScaling))
	collect(e.setIntList("COINGECKO_RETRY_EXCLUDED_STATUS", &cfg.CoinGecko.ExcludedStatusCodes))
	e.setString("REDIS_URL", &cfg.Cache.RedisURL)
	collect(e.setBool("CACHE_COALESCE", &cfg.Cache.Coalesce))
	e.setString("LOG_LEVEL", &cfg.Log.Level)
	collect(e.setBool("LOG_PRETTY", &cfg.Log.Pretty))

	return errors.Join(errs...)
}

func (e envSource) setString(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

func (e envSource) setInt(key string, dst *int) error {
	v, ok := e.get(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q", key, v)
	}
	*dst = n
	return nil
}

func (e envSource) setBool(key string, dst *bool) error {
	v, ok := e.get(key)
	if !ok {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: invalid boolean %q", key, v)
	}
	*dst = b
	return nil
}

// setDuration accepts plain integers as milliseconds, or Go duration strings.
func (e envSource) setDuration(key string, dst *time.Duration) error {
	v, ok := e.get(key)
	if !ok {
		return nil
	}
	d, err := parseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func (e envSource) setIntList(key string, dst *[]int) error {
	v, ok := e.get(key)
	if !ok {
		return nil
	}

	var out []int
	for _, field := range strings.Split(v, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q", key, field)
		}
		out = append(out, n)
	}
	*dst = out
	return nil
}

func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}
