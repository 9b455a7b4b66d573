package documents

import (
	"context"
	"database/sql"
	"fmt"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store handles document, version and comment persistence
type Store struct {
	q Querier
}

// NewStore creates a new document store
func NewStore(db *sql.DB) *Store {
	return &Store{q: db}
}

// WithTx returns a Store that runs its statements on the given transaction
func (s *Store) WithTx(tx *sql.Tx) *Store {
	return &Store{q: tx}
}

// EnsureSchema creates the document tables if they don't exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		id BIGSERIAL PRIMARY KEY,
		project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL,
		created_by BIGINT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_documents_project_id ON documents(project_id);

	CREATE TABLE IF NOT EXISTS document_versions (
		id BIGSERIAL PRIMARY KEY,
		document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		version_number INTEGER NOT NULL,
		filename VARCHAR(255) NOT NULL,
		blob_key VARCHAR(512) NOT NULL,
		content_type VARCHAR(128) NOT NULL DEFAULT '',
		size_bytes BIGINT NOT NULL DEFAULT 0,
		uploaded_by BIGINT NOT NULL,
		uploaded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		UNIQUE(document_id, version_number)
	);

	CREATE TABLE IF NOT EXISTS document_comments (
		id BIGSERIAL PRIMARY KEY,
		document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		author_id BIGINT NOT NULL,
		body TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_document_comments_document_id ON document_comments(document_id);
	`

	if _, err := s.q.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure document tables: %w", err)
	}
	return nil
}

// Create inserts a document
func (s *Store) Create(ctx context.Context, projectID int64, title string, createdBy int64) (*Document, error) {
	query := `
		INSERT INTO documents (project_id, title, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	d := &Document{ProjectID: projectID, Title: title, CreatedBy: createdBy, Active: true}
	err := s.q.QueryRowContext(ctx, query, projectID, title, createdBy).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return d, nil
}

// Get retrieves an active document by id, or nil if none
func (s *Store) Get(ctx context.Context, id int64) (*Document, error) {
	return s.get(ctx, id, false)
}

// GetForUpdate retrieves a document locking the row; version number
// assignment serializes on this lock
func (s *Store) GetForUpdate(ctx context.Context, id int64) (*Document, error) {
	return s.get(ctx, id, true)
}

func (s *Store) get(ctx context.Context, id int64, forUpdate bool) (*Document, error) {
	query := `
		SELECT id, project_id, title, created_by, active, created_at, updated_at
		FROM documents
		WHERE id = $1 AND active = TRUE
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	d := &Document{}
	err := s.q.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.ProjectID, &d.Title, &d.CreatedBy, &d.Active, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

// ListByProject retrieves a project's active documents, newest first
func (s *Store) ListByProject(ctx context.Context, projectID int64) ([]*Document, error) {
	query := `
		SELECT id, project_id, title, created_by, active, created_at, updated_at
		FROM documents
		WHERE project_id = $1 AND active = TRUE
		ORDER BY created_at DESC
	`

	rows, err := s.q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		d := &Document{}
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Title, &d.CreatedBy, &d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Retire soft-deletes a document
func (s *Store) Retire(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE documents SET active = FALSE, updated_at = NOW() WHERE id = $1 AND active = TRUE`
	result, err := s.q.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to retire document: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// NextVersionNumber returns the next version number for a document. Callers
// must hold the document row lock (GetForUpdate) or two uploads can race to
// the same number.
func (s *Store) NextVersionNumber(ctx context.Context, documentID int64) (int, error) {
	query := `SELECT COALESCE(MAX(version_number), 0) + 1 FROM document_versions WHERE document_id = $1`
	var next int
	if err := s.q.QueryRowContext(ctx, query, documentID).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to compute next version number: %w", err)
	}
	return next, nil
}

// InsertVersion writes a version row, filling in id and upload time
func (s *Store) InsertVersion(ctx context.Context, v *Version) error {
	query := `
		INSERT INTO document_versions (document_id, version_number, filename, blob_key, content_type, size_bytes, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at
	`

	err := s.q.QueryRowContext(ctx, query,
		v.DocumentID, v.VersionNumber, v.Filename, v.BlobKey, v.ContentType, v.SizeBytes, v.UploadedBy,
	).Scan(&v.ID, &v.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to insert version: %w", err)
	}
	return nil
}

// GetVersion retrieves one version of a document, or nil if none
func (s *Store) GetVersion(ctx context.Context, documentID int64, versionNumber int) (*Version, error) {
	query := `
		SELECT id, document_id, version_number, filename, blob_key, content_type, size_bytes, uploaded_by, uploaded_at
		FROM document_versions
		WHERE document_id = $1 AND version_number = $2
	`
	return s.scanVersionRow(s.q.QueryRowContext(ctx, query, documentID, versionNumber))
}

// LatestVersion retrieves the newest version of a document, or nil if the
// document has no uploads yet
func (s *Store) LatestVersion(ctx context.Context, documentID int64) (*Version, error) {
	query := `
		SELECT id, document_id, version_number, filename, blob_key, content_type, size_bytes, uploaded_by, uploaded_at
		FROM document_versions
		WHERE document_id = $1
		ORDER BY version_number DESC
		LIMIT 1
	`
	return s.scanVersionRow(s.q.QueryRowContext(ctx, query, documentID))
}

func (s *Store) scanVersionRow(row *sql.Row) (*Version, error) {
	v := &Version{}
	err := row.Scan(
		&v.ID, &v.DocumentID, &v.VersionNumber, &v.Filename, &v.BlobKey,
		&v.ContentType, &v.SizeBytes, &v.UploadedBy, &v.UploadedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	return v, nil
}

// ListVersions retrieves all versions of a document, newest first
func (s *Store) ListVersions(ctx context.Context, documentID int64) ([]*Version, error) {
	query := `
		SELECT id, document_id, version_number, filename, blob_key, content_type, size_bytes, uploaded_by, uploaded_at
		FROM document_versions
		WHERE document_id = $1
		ORDER BY version_number DESC
	`

	rows, err := s.q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var versions []*Version
	for rows.Next() {
		v := &Version{}
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.VersionNumber, &v.Filename, &v.BlobKey,
			&v.ContentType, &v.SizeBytes, &v.UploadedBy, &v.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// InsertComment writes a comment, filling in id and creation time
func (s *Store) InsertComment(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO document_comments (document_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := s.q.QueryRowContext(ctx, query, c.DocumentID, c.AuthorID, c.Body).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	c.Active = true
	return nil
}

// ListComments retrieves a document's active comments, oldest first
func (s *Store) ListComments(ctx context.Context, documentID int64) ([]*Comment, error) {
	query := `
		SELECT id, document_id, author_id, body, active, created_at
		FROM document_comments
		WHERE document_id = $1 AND active = TRUE
		ORDER BY created_at ASC
	`

	rows, err := s.q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		c := &Comment{}
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.AuthorID, &c.Body, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// RetireComment soft-deletes a comment
func (s *Store) RetireComment(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE document_comments SET active = FALSE WHERE id = $1 AND active = TRUE`
	result, err := s.q.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to retire comment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
