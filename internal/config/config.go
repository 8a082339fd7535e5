// Package config loads the backend configuration from defaults, an optional
// YAML file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap/zapcore"
)

// Environment is the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Event publishers.
const (
	PublisherNone        = "none"
	PublisherLog         = "log"
	PublisherEventBridge = "eventbridge"
)

type Config struct {
	Environment Environment `yaml:"environment" env:"ENVIRONMENT"`
	ServiceName string      `yaml:"service_name" env:"SERVICE_NAME"`
	Version     string      `yaml:"version" env:"APP_VERSION"`

	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
	Events  EventsConfig  `yaml:"events"`
	Breaker BreakerConfig `yaml:"breaker"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" env:"SERVER_HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StorageConfig struct {
	Driver          string        `yaml:"driver" env:"STORAGE_DRIVER"`
	DSN             string        `yaml:"dsn" env:"DATABASE_URL"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	SkipMigrations  bool          `yaml:"skip_migrations" env:"DB_SKIP_MIGRATIONS"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" env:"TRACING_ENABLED"`
	Endpoint   string  `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure   bool    `yaml:"insecure" env:"OTEL_EXPORTER_OTLP_INSECURE"`
	SampleRate float64 `yaml:"sample_rate" env:"TRACING_SAMPLE_RATE"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	Namespace string `yaml:"namespace" env:"METRICS_NAMESPACE"`
}

type EventsConfig struct {
	Publisher string `yaml:"publisher" env:"EVENTS_PUBLISHER"`
	BusName   string `yaml:"bus_name" env:"EVENT_BUS_NAME"`
	Source    string `yaml:"source" env:"EVENT_SOURCE"`
	Region    string `yaml:"region" env:"AWS_REGION"`
}

// BreakerConfig tunes the storage and API circuit breakers.
type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled" env:"BREAKER_ENABLED"`
	FailureThreshold float64       `yaml:"failure_threshold" env:"BREAKER_FAILURE_THRESHOLD"`
	MinRequests      uint32        `yaml:"min_requests" env:"BREAKER_MIN_REQUESTS"`
	OpenTimeout      time.Duration `yaml:"open_timeout" env:"BREAKER_OPEN_TIMEOUT"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Environment: Development,
		ServiceName: "silkmaker-backend",
		Version:     "dev",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  20 * time.Second,
		},
		Storage: StorageConfig{
			Driver:          DriverSQLite,
			DSN:             "silkmaker.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{Level: "info"},
		Tracing: TracingConfig{Endpoint: "localhost:4317", Insecure: true, SampleRate: 1},
		Metrics: MetricsConfig{Enabled: true, Namespace: "silkmaker"},
		Events: EventsConfig{
			Publisher: PublisherLog,
			BusName:   "default",
			Source:    "silkmaker.backend",
		},
		Breaker: BreakerConfig{
			Enabled:          true,
			FailureThreshold: 0.6,
			MinRequests:      5,
			OpenTimeout:      30 * time.Second,
		},
	}
}

// IsDevelopment reports whether the config targets local development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// LogLevel parses Logging.Level.
func (c *Config) LogLevel() (zapcore.Level, error) {
	return zapcore.ParseLevel(c.Logging.Level)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains([]Environment{Development, Staging, Production}, c.Environment) {
		errs = append(errs, fmt.Errorf("environment %q is not one of development, staging, production", c.Environment))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d is out of range", c.Server.Port))
	}
	if c.Server.RequestTimeout < 0 {
		errs = append(errs, errors.New("request timeout cannot be negative"))
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage driver %s requires a dsn", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("tracing sample rate %v must be within [0, 1]", c.Tracing.SampleRate))
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		errs = append(errs, errors.New("tracing requires an endpoint"))
	}
	switch c.Events.Publisher {
	case PublisherNone, PublisherLog:
	case PublisherEventBridge:
		if c.Events.BusName == "" {
			errs = append(errs, errors.New("eventbridge publisher requires a bus name"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown events publisher %q", c.Events.Publisher))
	}
	if c.Breaker.Enabled && (c.Breaker.FailureThreshold <= 0 || c.Breaker.FailureThreshold > 1) {
		errs = append(errs, fmt.Errorf("breaker failure threshold %v must be within (0, 1]", c.Breaker.FailureThreshold))
	}
	return errors.Join(errs...)
}
