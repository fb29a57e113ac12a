// Package config provides centralized configuration management for the grid
// review server. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Grid      GridConfig
	Security  SecurityConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
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

	// RequestTimeout is the middleware timeout for non-streaming requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// RateLimit is the requests per minute allowed per client IP; 0 disables (default: 100)
	RateLimit int `env:"SERVER_RATE_LIMIT" default:"100"`
}

// DatabaseConfig holds database connection settings.
// The database is optional: without a URL the audit trail lives in memory only.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string used for audit persistence.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AuditQueue is the number of pending change sets buffered for the
	// audit writer before new ones are dropped (default: 256)
	AuditQueue int `env:"DB_AUDIT_QUEUE" default:"256"`
}

// Enabled reports whether audit persistence is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// GridConfig holds the dataset and editing settings.
type GridConfig struct {
	// SchemaFile is a YAML column schema; empty uses the built-in lab results schema
	SchemaFile string `env:"GRID_SCHEMA_FILE"`

	// DataFile is the CSV export loaded at startup (required)
	DataFile string `env:"GRID_DATA_FILE" envAlt:"DATA_FILE" required:"true"`

	// RowIDField overrides the schema's row id field
	RowIDField string `env:"GRID_ROW_ID_FIELD"`

	// MaxRows caps the rows loaded from DataFile (default: 100000)
	MaxRows int `env:"GRID_MAX_ROWS" default:"100000"`

	// ActorHeader is the request header naming the editor (default: X-Actor-ID)
	ActorHeader string `env:"GRID_ACTOR_HEADER" default:"X-Actor-ID"`

	// DefaultActor is recorded when the actor header is missing (default: anonymous)
	DefaultActor string `env:"GRID_DEFAULT_ACTOR" default:"anonymous"`

	// PublishInitial sends the loaded snapshot to listeners at startup (default: true)
	PublishInitial bool `env:"GRID_PUBLISH_INITIAL" default:"true"`

	// EventBuffer is the per-subscriber snapshot buffer for SSE streams (default: 16)
	EventBuffer int `env:"GRID_EVENT_BUFFER" default:"16"`

	// MaxWatchers caps concurrent SSE streams (default: 100)
	MaxWatchers int `env:"GRID_MAX_WATCHERS" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects API requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// TelemetryConfig holds OpenTelemetry metric settings.
type TelemetryConfig struct {
	// MetricsEnabled records grid metrics (default: true)
	MetricsEnabled bool `env:"METRICS_ENABLED" default:"true"`

	// MeterName is the instrumentation scope name; empty uses the package default
	MeterName string `env:"METRICS_METER_NAME"`

	// ServiceName is reported as service.name (default: gridreview)
	ServiceName string `env:"OTEL_SERVICE_NAME" default:"gridreview"`

	// OTLPEndpoint is the collector address; empty keeps metrics in-process
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// OTLPInsecure disables TLS for https endpoints (default: false)
	OTLPInsecure bool `env:"OTEL_EXPORTER_OTLP_INSECURE" default:"false"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
