package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vellum-app/vellum/pkg/observability"
	"github.com/vellum-app/vellum/pkg/storage"
)

// Config holds all application configuration. Values come from an optional
// YAML file overlaid with VELLUM_* environment variables; environment wins.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Storage       storage.Config      `yaml:"storage"`
	Cache         CacheConfig         `yaml:"cache"`
	Audit         AuditConfig         `yaml:"audit"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig holds the optional shared cache-invalidation backend. An empty
// address means cache invalidation stays process-local.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// CacheConfig holds resolution cache tuning
type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// AuditConfig holds audit log retention settings. RetentionDays <= 0
// disables the cleanup sweep entirely.
type AuditConfig struct {
	RetentionDays   int    `yaml:"retention_days"`
	CleanupSchedule string `yaml:"cleanup_schedule"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"`
}

// ParsedLogLevel converts the configured level string
func (o ObservabilityConfig) ParsedLogLevel() observability.LogLevel {
	switch strings.ToLower(o.LogLevel) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Database: DatabaseConfig{
			URL:             "postgres://localhost/vellum?sslmode=disable",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Storage: storage.DefaultConfig(),
		Cache: CacheConfig{
			Size: 4096,
			TTL:  30 * time.Second,
		},
		Audit: AuditConfig{
			RetentionDays:   730,
			CleanupSchedule: "0 3 * * *",
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEnabled:        false,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "vellum",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// LoadConfig loads configuration: defaults, then the YAML file named by
// VELLUM_CONFIG_FILE (if any), then environment variables
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("VELLUM_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (c *Config) loadEnv() {
	// Server
	c.Server.Host = getEnv("VELLUM_HOST", c.Server.Host)
	c.Server.Port = getEnv("VELLUM_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvDuration("VELLUM_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("VELLUM_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("VELLUM_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("VELLUM_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.HealthPort = getEnv("VELLUM_HEALTH_PORT", c.Server.HealthPort)

	// Database
	c.Database.URL = getEnv("VELLUM_POSTGRES_URL", c.Database.URL)
	c.Database.MaxOpenConns = getEnvInt("VELLUM_POSTGRES_MAX_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("VELLUM_POSTGRES_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.ConnMaxLifetime = getEnvDuration("VELLUM_POSTGRES_CONN_LIFETIME", c.Database.ConnMaxLifetime)

	// Redis
	c.Redis.Addr = getEnv("VELLUM_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("VELLUM_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("VELLUM_REDIS_DB", c.Redis.DB)

	// Storage
	c.Storage.Backend = getEnv("VELLUM_STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.FilesystemRoot = getEnv("VELLUM_FILESYSTEM_ROOT", c.Storage.FilesystemRoot)
	c.Storage.BaseURL = getEnv("VELLUM_STORAGE_BASE_URL", c.Storage.BaseURL)
	c.Storage.S3Endpoint = getEnv("VELLUM_S3_ENDPOINT", c.Storage.S3Endpoint)
	c.Storage.S3Region = getEnv("VELLUM_S3_REGION", c.Storage.S3Region)
	c.Storage.S3Bucket = getEnv("VELLUM_S3_BUCKET", c.Storage.S3Bucket)
	c.Storage.S3AccessKey = getEnv("VELLUM_S3_ACCESS_KEY", c.Storage.S3AccessKey)
	c.Storage.S3SecretKey = getEnv("VELLUM_S3_SECRET_KEY", c.Storage.S3SecretKey)
	c.Storage.S3UsePathStyle = getEnvBool("VELLUM_S3_USE_PATH_STYLE", c.Storage.S3UsePathStyle)

	// Cache
	c.Cache.Size = getEnvInt("VELLUM_CACHE_SIZE", c.Cache.Size)
	c.Cache.TTL = getEnvDuration("VELLUM_CACHE_TTL", c.Cache.TTL)

	// Audit
	c.Audit.RetentionDays = getEnvInt("VELLUM_AUDIT_RETENTION_DAYS", c.Audit.RetentionDays)
	c.Audit.CleanupSchedule = getEnv("VELLUM_AUDIT_CLEANUP_SCHEDULE", c.Audit.CleanupSchedule)

	// Observability
	c.Observability.LogLevel = getEnv("VELLUM_LOG_LEVEL", c.Observability.LogLevel)
	c.Observability.MetricsEnabled = getEnvBool("VELLUM_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("VELLUM_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("VELLUM_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("VELLUM_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelServiceVersion = getEnv("VELLUM_OTEL_SERVICE_VERSION", c.Observability.OTelServiceVersion)
	c.Observability.OTelInsecure = getEnvBool("VELLUM_OTEL_INSECURE", c.Observability.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	switch c.Storage.Backend {
	case "", "filesystem":
		if c.Storage.FilesystemRoot == "" {
			return fmt.Errorf("filesystem root is required for filesystem storage")
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("S3 bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s (must be filesystem or s3)", c.Storage.Backend)
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
