package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "cardsmarket.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is chosen by the operator
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.API.BaseURL, "CARDSMARKET_API_BASE_URL")
	setDuration(&cfg.API.Timeout, "CARDSMARKET_API_TIMEOUT")
	setInt(&cfg.API.MaxConcurrent, "CARDSMARKET_API_MAX_CONCURRENT")

	// Cache
	setDuration(&cfg.Cache.DefaultTTL, "CARDSMARKET_CACHE_DEFAULT_TTL")
	setBool(&cfg.Cache.Coalesce, "CARDSMARKET_CACHE_COALESCE")
	setDuration(&cfg.Cache.SweepInterval, "CARDSMARKET_CACHE_SWEEP_INTERVAL")
	setString(&cfg.Cache.APIBaseKey, "CARDSMARKET_CACHE_API_BASE_KEY")

	// Stores
	setBool(&cfg.Stores.Cards.Enabled, "CARDSMARKET_CARDS_STALENESS")
	setDuration(&cfg.Stores.Cards.MaxAge, "CARDSMARKET_CARDS_MAX_AGE")
	setBool(&cfg.Stores.Trades.Enabled, "CARDSMARKET_TRADES_STALENESS")
	setDuration(&cfg.Stores.Trades.MaxAge, "CARDSMARKET_TRADES_MAX_AGE")

	setBool(&cfg.KeepAlive.Enabled, "CARDSMARKET_KEEPALIVE")
	setDuration(&cfg.KeepAlive.Interval, "CARDSMARKET_KEEPALIVE_INTERVAL")

	setString(&cfg.Server.Port, "CARDSMARKET_PORT")
	setFloat(&cfg.Server.RateLimit, "CARDSMARKET_RATE_LIMIT")
	setInt(&cfg.Server.Burst, "CARDSMARKET_RATE_BURST")

	setString(&cfg.Logging.Level, "CARDSMARKET_LOG_LEVEL")
	setString(&cfg.Logging.Service, "CARDSMARKET_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "CARDSMARKET_LOG_ASYNC")

	setInt(&cfg.Breaker.MaxFailures, "CARDSMARKET_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "CARDSMARKET_BREAKER_TIMEOUT")

	// Telemetry
	setBool(&cfg.Telemetry.Enabled, "CARDSMARKET_OTEL_ENABLED")
	setString(&cfg.Telemetry.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.Telemetry.Insecure, "CARDSMARKET_OTEL_INSECURE")
	setString(&cfg.Telemetry.ServiceName, "OTEL_SERVICE_NAME")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if !strings.HasPrefix(cfg.API.BaseURL, "http") {
		return errors.New("api.base_url must start with http or https")
	}
	if cfg.API.Timeout <= 0 {
		return errors.New("api.timeout must be > 0")
	}
	if cfg.API.MaxConcurrent < 0 {
		return errors.New("api.max_concurrent must be >= 0")
	}
	if cfg.Cache.DefaultTTL <= 0 {
		return errors.New("cache.default_ttl must be > 0")
	}
	if cfg.Stores.Cards.Enabled && cfg.Stores.Cards.MaxAge <= 0 {
		return errors.New("stores.cards.max_age must be > 0 when enabled")
	}
	if cfg.Stores.Trades.Enabled && cfg.Stores.Trades.MaxAge <= 0 {
		return errors.New("stores.trades.max_age must be > 0 when enabled")
	}
	if cfg.KeepAlive.Enabled && cfg.KeepAlive.Interval <= 0 {
		return errors.New("keepalive.interval must be > 0 when enabled")
	}
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Server.RateLimit <= 0 || cfg.Server.Burst < 1 {
		return errors.New("server.rate_limit must be > 0 and server.burst >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return errors.New("telemetry.endpoint is required when telemetry is enabled")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
