// Package config loads taskboard configuration from defaults, an optional
// TOML file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
	"github.com/joho/godotenv"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string `toml:"app_env"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// HTTP API
	HTTPAddr       string   `toml:"http_addr"`
	CORSOrigins    []string `toml:"cors_origins"`
	MetricsEnabled bool     `toml:"metrics_enabled"`

	// Observers
	ObserverBuffer       int           `toml:"observer_buffer"`
	ObserverWriteTimeout time.Duration `toml:"observer_write_timeout"`

	// Relays
	RabbitMQURL           string        `toml:"rabbitmq_url"`
	RedisURL              string        `toml:"redis_url"`
	RedisChannel          string        `toml:"redis_channel"`
	RelayFailureThreshold int           `toml:"relay_failure_threshold"`
	RelayOpenTimeout      time.Duration `toml:"relay_open_timeout"`

	// MCP
	MCPAddr      string `toml:"mcp_addr"`
	MCPAuthToken string `toml:"mcp_auth_token"`

	// CLI client
	ServerURL string `toml:"server_url"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AppEnv:    "development",
		LogLevel:  "info",
		LogFormat: "text",

		HTTPAddr:       "0.0.0.0:8080",
		CORSOrigins:    []string{"*"},
		MetricsEnabled: true,

		ObserverBuffer:       64,
		ObserverWriteTimeout: 5 * time.Second,

		RedisChannel:          "taskboard:events",
		RelayFailureThreshold: 5,
		RelayOpenTimeout:      30 * time.Second,

		MCPAddr: "127.0.0.1:8082",

		ServerURL: "http://localhost:8080",
	}
}

// Load builds the configuration. path names an optional TOML file; when it
// is empty TASKBOARD_CONFIG is consulted. A .env file in the working
// directory is loaded if present.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = os.Getenv("TASKBOARD_CONFIG")
	}
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	return nil
}

func (c *Config) applyEnv() {
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.CORSOrigins = getListEnv("CORS_ORIGINS", c.CORSOrigins)
	c.MetricsEnabled = getBoolEnv("METRICS_ENABLED", c.MetricsEnabled)

	c.ObserverBuffer = getIntEnv("OBSERVER_BUFFER", c.ObserverBuffer)
	c.ObserverWriteTimeout = getDurationEnv("OBSERVER_WRITE_TIMEOUT", c.ObserverWriteTimeout)

	c.RabbitMQURL = getEnv("RABBITMQ_URL", c.RabbitMQURL)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.RedisChannel = getEnv("REDIS_CHANNEL", c.RedisChannel)
	c.RelayFailureThreshold = getIntEnv("RELAY_FAILURE_THRESHOLD", c.RelayFailureThreshold)
	c.RelayOpenTimeout = getDurationEnv("RELAY_OPEN_TIMEOUT", c.RelayOpenTimeout)

	c.MCPAddr = getEnv("MCP_ADDR", c.MCPAddr)
	c.MCPAuthToken = getEnv("MCP_AUTH_TOKEN", c.MCPAuthToken)

	c.ServerURL = getEnv("TASKBOARD_SERVER", c.ServerURL)
}

// Validate reports settings the server cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.ObserverBuffer <= 0:
		return fmt.Errorf("%w: observer buffer must be positive, got %d", ErrInvalidConfig, c.ObserverBuffer)
	case c.ObserverWriteTimeout <= 0:
		return fmt.Errorf("%w: observer write timeout must be positive", ErrInvalidConfig)
	case c.RelayFailureThreshold <= 0:
		return fmt.Errorf("%w: relay failure threshold must be positive, got %d", ErrInvalidConfig, c.RelayFailureThreshold)
	case c.RelayOpenTimeout <= 0:
		return fmt.Errorf("%w: relay open timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LogConfig returns the logger settings for this configuration.
func (c *Config) LogConfig(version string) observability.LogConfig {
	lc := observability.DefaultLogConfig()
	if c.IsProduction() {
		lc = observability.ProductionLogConfig()
	}
	lc.Level = observability.LogLevel(c.LogLevel)
	if c.LogFormat != "" {
		lc.Format = observability.LogFormat(c.LogFormat)
	}
	if version != "" {
		lc.ServiceVersion = version
	}
	return lc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated value, dropping empty entries.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
