package storage

import (
	"context"
	"fmt"
	"io"
)

// BlobStore abstracts where uploaded file content lives. Keys are
// slash-separated relative paths chosen by the caller; backends must treat
// them as opaque.
type BlobStore interface {
	// Save writes content under key and returns the key it was stored at
	Save(ctx context.Context, content io.Reader, key string) (string, error)

	// Open returns a reader for the stored content
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the content, reporting whether anything was deleted
	Delete(ctx context.Context, key string) (bool, error)

	// Exists reports whether content is stored under key
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns a client-resolvable location for the content
	URL(key string) string
}

// Config for the blob storage backend
type Config struct {
	Backend string // "filesystem", "s3"

	// Filesystem config
	FilesystemRoot string
	BaseURL        string

	// S3 config
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UsePathStyle bool
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Backend:        "filesystem",
		FilesystemRoot: "/var/lib/vellum/blobs",
		BaseURL:        "/files",
		S3Region:       "us-east-1",
	}
}

// New creates the backend named by the config
func New(cfg Config) (BlobStore, error) {
	switch cfg.Backend {
	case "", "filesystem":
		return NewFilesystemStore(cfg.FilesystemRoot, cfg.BaseURL)
	case "s3":
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}
