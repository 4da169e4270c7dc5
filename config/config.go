// Package config provides configuration management for Newswire.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration for Newswire.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Server is the HTTP server configuration.
	Server ServerConfig `mapstructure:"server" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Queue is the signal queue configuration.
	Queue QueueConfig `mapstructure:"queue"`

	// Worker is the consumer loop configuration.
	Worker WorkerConfig `mapstructure:"worker"`

	// Enrichment is the LLM analysis adapter configuration.
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`

	// Storage is the record persistence configuration.
	Storage StorageConfig `mapstructure:"storage"`

	// Durable is the process-instance engine configuration.
	Durable DurableConfig `mapstructure:"durable"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the distributed tracing configuration.
	Tracing TracingConfig `mapstructure:"tracing"`

	// Shutdown is the graceful shutdown configuration.
	Shutdown ShutdownConfig `mapstructure:"shutdown"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Version is the application version.
	Version string `mapstructure:"version"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	// Host is the bind address.
	Host string `mapstructure:"host"`

	// Port is the HTTP API port.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	MaxHeaderBytes int `mapstructure:"max_header_bytes"`

	// CORS is the cross-origin resource sharing configuration.
	CORS CORSConfig `mapstructure:"cors"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	// Enabled enables CORS handling.
	Enabled bool `mapstructure:"enabled"`

	// AllowedOrigins is the list of allowed origins.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// AllowedMethods is the list of allowed HTTP methods.
	AllowedMethods []string `mapstructure:"allowed_methods"`

	// AllowedHeaders is the list of allowed request headers.
	AllowedHeaders []string `mapstructure:"allowed_headers"`

	// ExposedHeaders is the list of headers exposed to the browser.
	ExposedHeaders []string `mapstructure:"exposed_headers"`

	// AllowCredentials allows credentials in CORS requests.
	AllowCredentials bool `mapstructure:"allow_credentials"`

	// MaxAge is the preflight cache duration in seconds.
	MaxAge int `mapstructure:"max_age"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the output format (json, text).
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is the output destination (stdout, stderr, or file path).
	Output string `mapstructure:"output"`
}

// QueueConfig holds signal queue settings.
type QueueConfig struct {
	// Type is the queue implementation (memory, redis).
	Type string `mapstructure:"type" validate:"oneof=memory redis"`

	// Capacity is the maximum number of queued signals.
	Capacity int `mapstructure:"capacity" validate:"min=1"`

	// Redis is the Redis queue configuration, used when type is redis.
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	// Address is the Redis server address.
	Address string `mapstructure:"address"`

	// Password is the Redis password.
	Password string `mapstructure:"password"`

	// DB is the Redis database number.
	DB int `mapstructure:"db"`

	// KeyPrefix prefixes the queue keys.
	KeyPrefix string `mapstructure:"key_prefix"`

	// BlockTimeout bounds each blocking dequeue attempt.
	BlockTimeout time.Duration `mapstructure:"block_timeout"`

	// EnableDedup rejects signals whose id is already queued.
	EnableDedup bool `mapstructure:"enable_dedup"`

	// DedupTTL expires dedup entries. Zero disables expiry.
	DedupTTL time.Duration `mapstructure:"dedup_ttl"`
}

// WorkerConfig holds consumer loop settings.
type WorkerConfig struct {
	// PollInterval is the empty-queue sleep of the consumer loop.
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// RateLimit caps enrichment calls per second. Zero disables the limiter.
	RateLimit float64 `mapstructure:"rate_limit" validate:"min=0"`

	// RateBurst is the limiter burst size.
	RateBurst int `mapstructure:"rate_burst" validate:"min=0"`
}

// EnrichmentConfig holds LLM analysis adapter settings.
type EnrichmentConfig struct {
	// APIKey authenticates against the completion API.
	APIKey string `mapstructure:"api_key"`

	// BaseURL overrides the API endpoint for OpenAI-compatible gateways.
	BaseURL string `mapstructure:"base_url"`

	// Model is the completion model name.
	Model string `mapstructure:"model" validate:"required"`

	// Temperature keeps the analysis near-deterministic.
	Temperature float64 `mapstructure:"temperature" validate:"min=0,max=2"`

	// MaxTokens bounds the completion length.
	MaxTokens int `mapstructure:"max_tokens" validate:"min=0"`

	// RequestTimeout bounds one analysis call.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// StorageConfig holds record persistence settings.
type StorageConfig struct {
	// Type is the storage backend (sqlite).
	Type string `mapstructure:"type" validate:"oneof=sqlite"`

	// SQLite is the SQLite configuration.
	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

// SQLiteConfig holds SQLite-specific settings.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string `mapstructure:"path"`
}

// DurableConfig holds process-instance engine settings.
type DurableConfig struct {
	// LogicalID is the stable pipeline identity across restarts.
	LogicalID string `mapstructure:"logical_id" validate:"required"`

	// Path is the instance store directory.
	Path string `mapstructure:"path"`

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool `mapstructure:"sync_writes"`

	// RecentSize is the capacity of the recent-records ring.
	RecentSize int `mapstructure:"recent_size" validate:"min=1"`
}

// MetricsConfig holds observability settings.
type MetricsConfig struct {
	// Enabled enables metrics collection.
	Enabled bool `mapstructure:"enabled"`

	// Path is the metrics endpoint path.
	Path string `mapstructure:"path"`

	// Port is the metrics server port.
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// TracingConfig holds distributed tracing settings.
type TracingConfig struct {
	// Enabled enables distributed tracing.
	Enabled bool `mapstructure:"enabled"`

	// Exporter is the span exporter kind (otlpgrpc).
	Exporter string `mapstructure:"exporter"`

	// Endpoint is the OTLP collector endpoint.
	Endpoint string `mapstructure:"endpoint"`

	// Headers are extra headers sent to the collector.
	Headers map[string]string `mapstructure:"headers"`

	// Timeout bounds each export call.
	Timeout time.Duration `mapstructure:"timeout"`

	// Sampler selects the sampling strategy
	// (always_on, always_off, parentbased_traceidratio).
	Sampler string `mapstructure:"sampler"`

	// SampleRate is the fraction of traces to sample (0.0-1.0).
	SampleRate float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// ShutdownConfig holds graceful shutdown settings.
type ShutdownConfig struct {
	// Timeout bounds the whole shutdown sequence.
	Timeout time.Duration `mapstructure:"timeout"`

	// DrainTimeout bounds the queue drain within the shutdown sequence.
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
}

// Validate performs validation on the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// String returns a string representation of the configuration (without sensitive data).
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s, Server: :%d, Env: %s}",
		c.App.Name, c.Server.Port, c.App.Environment)
}
