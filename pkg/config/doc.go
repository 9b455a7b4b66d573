// Package config provides application configuration management.
//
// # Overview
//
// Configuration is layered: built-in defaults, then an optional YAML file
// named by VELLUM_CONFIG_FILE, then VELLUM_* environment variables.
// Environment always wins, so a YAML base can ship in the image and secrets
// stay in the environment.
//
// # Configuration Structure
//
// Server settings:
//
//	VELLUM_HOST="0.0.0.0"
//	VELLUM_PORT="8080"
//	VELLUM_HEALTH_PORT="9090"
//	VELLUM_READ_TIMEOUT="15s"
//	VELLUM_WRITE_TIMEOUT="15s"
//
// Database and cache settings:
//
//	VELLUM_POSTGRES_URL="postgres://localhost/vellum"
//	VELLUM_POSTGRES_MAX_CONNS="20"
//	VELLUM_REDIS_ADDR="localhost:6379"
//	VELLUM_CACHE_SIZE="4096"
//	VELLUM_CACHE_TTL="30s"
//
// Storage settings:
//
//	VELLUM_STORAGE_BACKEND="filesystem"  # filesystem, s3
//	VELLUM_FILESYSTEM_ROOT="/var/lib/vellum/blobs"
//	VELLUM_S3_BUCKET="vellum-files"
//	VELLUM_S3_REGION="us-east-1"
//
// Audit settings:
//
//	VELLUM_AUDIT_RETENTION_DAYS="730"
//	VELLUM_AUDIT_CLEANUP_SCHEDULE="0 3 * * *"
//
// Observability settings:
//
//	VELLUM_LOG_LEVEL="info"  # debug, info, warn, error
//	VELLUM_METRICS_ENABLED="true"
//	VELLUM_OTEL_ENABLED="true"
//	VELLUM_OTEL_ENDPOINT="otel-collector:4317"
//
// # Related Packages
//
//   - pkg/storage: uses storage configuration
//   - pkg/observability: uses observability configuration
package config
