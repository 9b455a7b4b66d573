package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FilesystemStore implements BlobStore on a local directory
type FilesystemStore struct {
	rootDir string
	baseURL string
}

// NewFilesystemStore creates a filesystem-backed blob store rooted at rootDir
func NewFilesystemStore(rootDir, baseURL string) (*FilesystemStore, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root directory: %w", err)
	}
	return &FilesystemStore{rootDir: rootDir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// resolve maps a key to a path under the root, rejecting traversal
func (s *FilesystemStore) resolve(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" {
		return "", fmt.Errorf("invalid blob key: %q", key)
	}
	return filepath.Join(s.rootDir, filepath.FromSlash(cleaned)), nil
}

// Save implements BlobStore.Save
func (s *FilesystemStore) Save(ctx context.Context, content io.Reader, key string) (string, error) {
	target, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("failed to create blob file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	return key, nil
}

// Open implements BlobStore.Open
func (s *FilesystemStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

// Delete implements BlobStore.Delete
func (s *FilesystemStore) Delete(ctx context.Context, key string) (bool, error) {
	target, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete blob: %w", err)
	}
	return true, nil
}

// Exists implements BlobStore.Exists
func (s *FilesystemStore) Exists(ctx context.Context, key string) (bool, error) {
	target, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob: %w", err)
	}
	return true, nil
}

// URL implements BlobStore.URL
func (s *FilesystemStore) URL(key string) string {
	return s.baseURL + "/" + strings.TrimPrefix(key, "/")
}
