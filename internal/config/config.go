// Package config provides hierarchical configuration loading for cardsmarket.
// Precedence: defaults < YAML file < environment variables.
package config

import (
	"time"

	"github.com/Strob0t/cardsmarket/internal/cache"
)

// Config holds all runtime configuration for the cardsmarket client.
type Config struct {
	API       API       `yaml:"api"`
	Cache     Cache     `yaml:"cache"`
	Stores    Stores    `yaml:"stores"`
	KeepAlive KeepAlive `yaml:"keepalive"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
	Breaker   Breaker   `yaml:"breaker"`
	Telemetry Telemetry `yaml:"telemetry"`
}

// API holds the remote marketplace API settings.
type API struct {
	BaseURL       string        `yaml:"base_url"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxConcurrent int           `yaml:"max_concurrent"` // 0 means unlimited
}

// Cache holds the in-memory TTL cache settings.
type Cache struct {
	DefaultTTL    time.Duration `yaml:"default_ttl"`
	Coalesce      bool          `yaml:"coalesce"`       // share one fetch between concurrent misses
	SweepInterval time.Duration `yaml:"sweep_interval"` // 0 disables the background ClearExpired loop
	APIBaseKey    string        `yaml:"api_base_key"`
}

// Stores holds per-store freshness policies.
type Stores struct {
	Cards  cache.FreshnessPolicy `yaml:"cards"`
	Trades cache.FreshnessPolicy `yaml:"trades"`
}

// KeepAlive holds the API warm-up pinger settings.
type KeepAlive struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// Server holds the operator HTTP server configuration.
type Server struct {
	Port      string  `yaml:"port"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second per client on upstream-bound routes
	Burst     int     `yaml:"burst"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Breaker holds circuit breaker configuration for API calls.
type Breaker struct {
	MaxFailures int           `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Telemetry holds OpenTelemetry export configuration.
type Telemetry struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"` // OTLP gRPC endpoint, e.g. localhost:4317
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		API: API{
			BaseURL:       "https://cards-marketplace-api-2fjj.onrender.com",
			Timeout:       10 * time.Second,
			MaxConcurrent: 8,
		},
		Cache: Cache{
			DefaultTTL:    cache.DefaultTTL,
			SweepInterval: time.Minute,
			APIBaseKey:    cache.DefaultAPIBaseKey,
		},
		Stores: Stores{
			Cards:  cache.FreshnessPolicy{Enabled: true, MaxAge: 5 * time.Minute},
			Trades: cache.FreshnessPolicy{Enabled: true, MaxAge: 2 * time.Minute},
		},
		KeepAlive: KeepAlive{
			Enabled:  true,
			Interval: 25 * time.Minute,
		},
		Server: Server{
			Port:      "8080",
			RateLimit: 1,
			Burst:     5,
		},
		Logging: Logging{
			Level:   "info",
			Service: "cardsmarket",
		},
		Breaker: Breaker{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		},
		Telemetry: Telemetry{
			Endpoint:    "localhost:4317",
			Insecure:    true,
			ServiceName: "cardsmarket",
		},
	}
}
