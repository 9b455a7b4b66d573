package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vellum-app/vellum/pkg/observability"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 730, cfg.Audit.RetentionDays)
	assert.Equal(t, "0 3 * * *", cfg.Audit.CleanupSchedule)
	assert.Equal(t, "filesystem", cfg.Storage.Backend)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.False(t, cfg.Observability.OTelEnabled)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("VELLUM_PORT", "8888")
	t.Setenv("VELLUM_REDIS_ADDR", "redis:6379")
	t.Setenv("VELLUM_AUDIT_RETENTION_DAYS", "90")
	t.Setenv("VELLUM_CACHE_TTL", "2m")
	t.Setenv("VELLUM_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8888", cfg.Server.Port)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 90, cfg.Audit.RetentionDays)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.ParsedLogLevel())
}

func TestLoadConfigYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vellum.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9000"
audit:
  retention_days: 365
storage:
  backend: s3
  s3bucket: vellum-files
`), 0644))

	t.Setenv("VELLUM_CONFIG_FILE", path)
	// environment still beats the file
	t.Setenv("VELLUM_PORT", "9001")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9001", cfg.Server.Port)
	assert.Equal(t, 365, cfg.Audit.RetentionDays)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "vellum-files", cfg.Storage.S3Bucket)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "same port for api and health",
			mutate:  func(c *Config) { c.Server.HealthPort = c.Server.Port },
			wantErr: "must be different",
		},
		{
			name:    "missing postgres url",
			mutate:  func(c *Config) { c.Database.URL = "" },
			wantErr: "postgres URL is required",
		},
		{
			name:    "s3 backend without bucket",
			mutate:  func(c *Config) { c.Storage.Backend = "s3" },
			wantErr: "S3 bucket is required",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "ftp" },
			wantErr: "invalid storage backend",
		},
		{
			name: "otel enabled without endpoint",
			mutate: func(c *Config) {
				c.Observability.OTelEnabled = true
				c.Observability.OTelEndpoint = ""
			},
			wantErr: "OpenTelemetry endpoint is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParsedLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want observability.LogLevel
	}{
		{"debug", observability.DebugLevel},
		{"info", observability.InfoLevel},
		{"warn", observability.WarnLevel},
		{"warning", observability.WarnLevel},
		{"error", observability.ErrorLevel},
		{"verbose", observability.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ObservabilityConfig{LogLevel: tt.in}.ParsedLogLevel(), tt.in)
	}
}
