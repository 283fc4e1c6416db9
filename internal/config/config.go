// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Ingest   IngestConfig
	Datasets DatasetConfig
	Pivot    PivotConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for SSE)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds settings for the optional PostgreSQL-backed
// selection store. When URL is empty the server keeps selections in
// memory only.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (optional)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// IngestConfig holds document ingest settings.
type IngestConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"INGEST_MAX_FILE_SIZE" default:"104857600"`

	// MaxConcurrent is the maximum number of parallel ingests (default: 4)
	MaxConcurrent int `env:"INGEST_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an ingest slot (default: 30s)
	MaxWaitTime time.Duration `env:"INGEST_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration for a single ingest operation (default: 5m)
	Timeout time.Duration `env:"INGEST_TIMEOUT" default:"5m"`

	// ForcedEncoding overrides character set detection when set to a
	// recognized encoding name (default: empty, meaning detect)
	ForcedEncoding string `env:"INGEST_FORCED_ENCODING"`
}

// DatasetConfig holds in-memory dataset retention settings.
type DatasetConfig struct {
	// MaxEntries is the number of datasets kept before the least
	// recently used one is evicted (default: 64)
	MaxEntries int `env:"DATASET_MAX_ENTRIES" default:"64"`

	// TTL is how long an untouched dataset stays resident (default: 2h)
	TTL time.Duration `env:"DATASET_TTL" default:"2h"`

	// PreviewLines is the number of lines served by the preview
	// endpoint (default: 200)
	PreviewLines int `env:"DATASET_PREVIEW_LINES" default:"200"`
}

// PivotConfig holds default crosstab parameters. Individual requests
// can override any of them.
type PivotConfig struct {
	// TopColumns is the column cap before the overflow bucket (default: 25)
	TopColumns int `env:"PIVOT_TOP_COLUMNS" default:"25"`

	// RowCap is the row cap before the overflow bucket (default: 200)
	RowCap int `env:"PIVOT_ROW_CAP" default:"200"`

	// NumericBins is the bin count for numeric columns (default: 10)
	NumericBins int `env:"PIVOT_NUMERIC_BINS" default:"10"`

	// QuantileSampleSize is the reservoir size for quantile cut points (default: 50000)
	QuantileSampleSize int `env:"PIVOT_QUANTILE_SAMPLE_SIZE" default:"50000"`

	// CacheSize is the number of pivot results kept per server (default: 128)
	CacheSize int `env:"PIVOT_CACHE_SIZE" default:"128"`

	// CacheTTL is how long a cached pivot result stays valid (default: 15m)
	CacheTTL time.Duration `env:"PIVOT_CACHE_TTL" default:"15m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// IngestLimit is requests per minute for ingest endpoints (default: 10)
	IngestLimit int `env:"RATE_LIMIT_INGEST" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
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
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
