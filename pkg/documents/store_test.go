package documents

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStoreMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

var (
	documentCols = []string{"id", "project_id", "title", "created_by", "active", "created_at", "updated_at"}
	versionCols  = []string{"id", "document_id", "version_number", "filename", "blob_key", "content_type", "size_bytes", "uploaded_by", "uploaded_at"}
)

func TestStoreCreate(t *testing.T) {
	ctx := context.Background()
	store, mock := newStoreMock(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO documents").WithArgs(int64(5), "Quarterly Report", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(10, now, now))

	doc, err := store.Create(ctx, 5, "Quarterly Report", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(10), doc.ID)
	assert.True(t, doc.Active)
}

func TestStoreGet(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		store, mock := newStoreMock(t)
		now := time.Now()

		mock.ExpectQuery("FROM documents").WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(documentCols).AddRow(10, 5, "Quarterly Report", 1, true, now, now))

		doc, err := store.Get(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(5), doc.ProjectID)
	})

	t.Run("retired reads as absent", func(t *testing.T) {
		store, mock := newStoreMock(t)

		mock.ExpectQuery("FROM documents").WithArgs(int64(10)).WillReturnError(sql.ErrNoRows)

		doc, err := store.Get(ctx, 10)
		require.NoError(t, err)
		assert.Nil(t, doc)
	})
}

func TestStoreNextVersionNumber(t *testing.T) {
	ctx := context.Background()

	t.Run("first upload", func(t *testing.T) {
		store, mock := newStoreMock(t)

		mock.ExpectQuery("COALESCE").WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(1))

		next, err := store.NextVersionNumber(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 1, next)
	})

	t.Run("subsequent upload", func(t *testing.T) {
		store, mock := newStoreMock(t)

		mock.ExpectQuery("COALESCE").WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(4))

		next, err := store.NextVersionNumber(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 4, next)
	})
}

func TestStoreInsertVersion(t *testing.T) {
	ctx := context.Background()
	store, mock := newStoreMock(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO document_versions").
		WithArgs(int64(10), 1, "report.pdf", "docs/10/v1/report.pdf", "application/pdf", int64(2048), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "uploaded_at"}).AddRow(7, now))

	v := &Version{
		DocumentID:    10,
		VersionNumber: 1,
		Filename:      "report.pdf",
		BlobKey:       "docs/10/v1/report.pdf",
		ContentType:   "application/pdf",
		SizeBytes:     2048,
		UploadedBy:    1,
	}
	require.NoError(t, store.InsertVersion(ctx, v))
	assert.Equal(t, int64(7), v.ID)
}

func TestStoreLatestVersion(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		store, mock := newStoreMock(t)
		now := time.Now()

		mock.ExpectQuery("ORDER BY version_number DESC").WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(versionCols).
				AddRow(7, 10, 3, "report.pdf", "docs/10/v3/report.pdf", "application/pdf", 2048, 1, now))

		v, err := store.LatestVersion(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, 3, v.VersionNumber)
	})

	t.Run("no uploads yet", func(t *testing.T) {
		store, mock := newStoreMock(t)

		mock.ExpectQuery("ORDER BY version_number DESC").WithArgs(int64(10)).WillReturnError(sql.ErrNoRows)

		v, err := store.LatestVersion(ctx, 10)
		require.NoError(t, err)
		assert.Nil(t, v)
	})
}

func TestStoreComments(t *testing.T) {
	ctx := context.Background()

	t.Run("insert", func(t *testing.T) {
		store, mock := newStoreMock(t)
		now := time.Now()

		mock.ExpectQuery("INSERT INTO document_comments").WithArgs(int64(10), int64(2), "looks good").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(3, now))

		c := &Comment{DocumentID: 10, AuthorID: 2, Body: "looks good"}
		require.NoError(t, store.InsertComment(ctx, c))
		assert.Equal(t, int64(3), c.ID)
		assert.True(t, c.Active)
	})

	t.Run("list", func(t *testing.T) {
		store, mock := newStoreMock(t)
		now := time.Now()

		mock.ExpectQuery("FROM document_comments").WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "document_id", "author_id", "body", "active", "created_at"}).
				AddRow(3, 10, 2, "looks good", true, now).
				AddRow(4, 10, 1, "thanks", true, now.Add(time.Minute)))

		comments, err := store.ListComments(ctx, 10)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, "looks good", comments[0].Body)
	})

	t.Run("retire", func(t *testing.T) {
		store, mock := newStoreMock(t)

		mock.ExpectExec("UPDATE document_comments SET active = FALSE").WithArgs(int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := store.RetireComment(ctx, 3)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
