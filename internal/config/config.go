// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Ingest   IngestConfig
	Rate     RateLimitConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 0, bounded by INGEST_TIMEOUT)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// TrustedProxies is a comma-separated list of proxy IPs or CIDRs whose
	// X-Real-IP and X-Forwarded-For headers are believed (default: none)
	TrustedProxies string `env:"SERVER_TRUSTED_PROXIES"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// EnsureSchema creates the questions table on startup if it is missing (default: true)
	EnsureSchema bool `env:"DB_ENSURE_SCHEMA" default:"true"`

	// UniqueContent adds a unique index on question content when the schema is created (default: false)
	UniqueContent bool `env:"DB_UNIQUE_CONTENT" default:"false"`
}

// IngestConfig holds bulk ingestion settings.
type IngestConfig struct {
	// BatchSize is the number of questions committed per batch (default: 100)
	BatchSize int `env:"INGEST_BATCH_SIZE" default:"100"`

	// MinColumns is the number of fields every data row must carry (default: 4)
	MinColumns int `env:"INGEST_MIN_COLUMNS" default:"4"`

	// MaxContentLen is the maximum question length in characters, 0 disables (default: 1000)
	MaxContentLen int `env:"INGEST_MAX_CONTENT_LEN" default:"1000"`

	// MaxCompanyLen is the maximum company name length, 0 disables (default: 100)
	MaxCompanyLen int `env:"INGEST_MAX_COMPANY_LEN" default:"100"`

	// MaxCategoryLen is the maximum category length, 0 disables (default: 50)
	MaxCategoryLen int `env:"INGEST_MAX_CATEGORY_LEN" default:"50"`

	// ValidationMode is "first" (stop at the first violation) or "all" (default: first)
	ValidationMode string `env:"INGEST_VALIDATION_MODE" default:"first"`

	// LazyQuotes relaxes CSV quote handling (default: true)
	LazyQuotes bool `env:"INGEST_LAZY_QUOTES" default:"true"`

	// UseCopy commits batches with the COPY protocol instead of INSERTs (default: true)
	UseCopy bool `env:"INGEST_USE_COPY" default:"true"`

	// RulesFile is an optional YAML rule profile overriding the limits above
	RulesFile string `env:"INGEST_RULES_FILE"`

	// MaxFileSize is the maximum allowed upload size in bytes (default: 50MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" default:"52428800"`

	// MaxConcurrent is the maximum number of parallel ingestions (default: 4)
	MaxConcurrent int `env:"INGEST_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an ingestion slot (default: 30s)
	MaxWaitTime time.Duration `env:"INGEST_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration for a single ingestion (default: 10m)
	Timeout time.Duration `env:"INGEST_TIMEOUT" default:"10m"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// UploadsPerMinute is the upload rate allowed per client IP (default: 10)
	UploadsPerMinute int `env:"RATE_LIMIT_UPLOADS_PER_MINUTE" default:"10"`

	// Burst is the number of uploads a client may make at once (default: 3)
	Burst int `env:"RATE_LIMIT_BURST" default:"3"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// TrustedProxyList splits TrustedProxies into its entries.
func (c *ServerConfig) TrustedProxyList() []string {
	var out []string
	for _, p := range strings.Split(c.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
