// Package server provides configuration helpers that define runtime defaults,
// validation, and rate-limiting parameters for the roomcast service.
package server

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
)

const (
	defaultPort            = ":8080"
	defaultMaxMessageSize  = 512
	defaultBurst           = 5
	defaultRefillInterval  = time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultLogLevel        = "info"
	defaultLogFormat       = "text"
)

// RateLimitConfig defines the parameters for per-connection command rate limiting.
type RateLimitConfig struct {
	Burst          int
	RefillInterval time.Duration
}

// Config holds the server configuration settings including security controls.
type Config struct {
	Port            string
	AllowedOrigins  []string
	MaxMessageSize  int64
	RateLimit       RateLimitConfig
	ShutdownTimeout time.Duration
	LogLevel        string
	LogFormat       string
}

// environment mirrors Config in the shape read from the process environment.
type environment struct {
	Port                  string        `env:"SERVER_PORT,default=:8080"`
	AllowedOrigins        string        `env:"ALLOWED_ORIGINS,default=http://localhost:8080"`
	MaxMessageSize        int64         `env:"MAX_MESSAGE_SIZE,default=512"`
	RateLimitBurst        int           `env:"RATE_LIMIT_BURST,default=5"`
	RateLimitRefillSecond int           `env:"RATE_LIMIT_REFILL_INTERVAL,default=1"`
	ShutdownTimeout       time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	LogLevel              string        `env:"LOG_LEVEL,default=info"`
	LogFormat             string        `env:"LOG_FORMAT,default=text"`
}

// NewConfig creates a Config instance populated with default values for all settings.
func NewConfig() Config {
	return Config{
		Port:           defaultPort,
		AllowedOrigins: []string{"http://localhost:8080"},
		MaxMessageSize: defaultMaxMessageSize,
		RateLimit: RateLimitConfig{
			Burst:          defaultBurst,
			RefillInterval: defaultRefillInterval,
		},
		ShutdownTimeout: defaultShutdownTimeout,
		LogLevel:        defaultLogLevel,
		LogFormat:       defaultLogFormat,
	}
}

// LoadConfig reads the configuration from environment variables. Unset
// variables fall back to defaults; malformed numbers are reported as errors.
func LoadConfig() (Config, error) {
	var e environment
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return Config{}, fmt.Errorf("load config from environment: %w", err)
	}

	cfg := Config{
		Port:           e.Port,
		AllowedOrigins: parseOrigins(e.AllowedOrigins),
		MaxMessageSize: e.MaxMessageSize,
		RateLimit: RateLimitConfig{
			Burst:          e.RateLimitBurst,
			RefillInterval: time.Duration(e.RateLimitRefillSecond) * time.Second,
		},
		ShutdownTimeout: e.ShutdownTimeout,
		LogLevel:        e.LogLevel,
		LogFormat:       e.LogFormat,
	}
	return sanitizeConfig(cfg), nil
}

// sanitizeConfig replaces zero or out-of-range values with defaults.
func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}

	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = defaultBurst
	}

	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = defaultRefillInterval
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = defaultLogFormat
	}

	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

func parseOrigins(origins string) []string {
	if strings.TrimSpace(origins) == "" {
		return nil
	}
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
