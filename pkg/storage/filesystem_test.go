package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFilesystemStore(t *testing.T) *FilesystemStore {
	t.Helper()
	store, err := NewFilesystemStore(t.TempDir(), "/files")
	require.NoError(t, err)
	return store
}

func TestFilesystemStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFilesystemStore(t)

	key, err := store.Save(ctx, strings.NewReader("draft contents"), "docs/100/v1/report.txt")
	require.NoError(t, err)
	assert.Equal(t, "docs/100/v1/report.txt", key)

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	r, err := store.Open(ctx, key)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "draft contents", string(data))
}

func TestFilesystemStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := newFilesystemStore(t)

	_, err := store.Save(ctx, strings.NewReader("first"), "docs/1/file.txt")
	require.NoError(t, err)
	_, err = store.Save(ctx, strings.NewReader("second"), "docs/1/file.txt")
	require.NoError(t, err)

	r, err := store.Open(ctx, "docs/1/file.txt")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestFilesystemStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newFilesystemStore(t)

	_, err := store.Save(ctx, strings.NewReader("x"), "docs/1/file.txt")
	require.NoError(t, err)

	deleted, err := store.Delete(ctx, "docs/1/file.txt")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, "docs/1/file.txt")
	require.NoError(t, err)
	assert.False(t, deleted)

	exists, err := store.Exists(ctx, "docs/1/file.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFilesystemStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store := newFilesystemStore(t)

	// cleaned paths stay under the root
	key, err := store.Save(ctx, strings.NewReader("x"), "../../etc/passwd")
	require.NoError(t, err)
	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = store.Save(ctx, strings.NewReader("x"), "..")
	assert.Error(t, err)
}

func TestFilesystemStoreURL(t *testing.T) {
	store := newFilesystemStore(t)
	assert.Equal(t, "/files/docs/1/file.txt", store.URL("docs/1/file.txt"))
}

func TestNewDefaultsToFilesystem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FilesystemRoot = t.TempDir()

	store, err := New(cfg)
	require.NoError(t, err)
	assert.IsType(t, &FilesystemStore{}, store)

	_, err = New(Config{Backend: "ftp"})
	assert.Error(t, err)
}
