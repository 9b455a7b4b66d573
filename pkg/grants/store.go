package grants

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vellum-app/vellum/pkg/roles"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx. The
// access engine binds a Store to its transaction so grant mutations and the
// audit append commit together.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Membership represents a user's project-scoped role assignment
type Membership struct {
	ID        int64             `json:"id"`
	ProjectID int64             `json:"project_id"`
	UserID    int64             `json:"user_id"`
	Role      roles.ProjectRole `json:"role"`
	GrantedBy *int64            `json:"granted_by,omitempty"`
	GrantedAt time.Time         `json:"granted_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// DocumentGrant represents a direct document-scoped role assignment,
// independent of project membership. At most one row exists per
// (document, user) pair; re-granting replaces the role in place.
type DocumentGrant struct {
	ID         int64              `json:"id"`
	DocumentID int64              `json:"document_id"`
	UserID     int64              `json:"user_id"`
	Role       roles.DocumentRole `json:"role"`
	GrantedBy  *int64             `json:"granted_by,omitempty"`
	GrantedAt  time.Time          `json:"granted_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Store handles membership and document grant persistence
type Store struct {
	q Querier
}

// NewStore creates a new grant store
func NewStore(db *sql.DB) *Store {
	return &Store{q: db}
}

// WithTx returns a Store that runs its statements on the given transaction
func (s *Store) WithTx(tx *sql.Tx) *Store {
	return &Store{q: tx}
}

// EnsureSchema creates the membership and grant tables if they don't exist.
// User ids are opaque references resolved by the external identity service,
// so they carry no foreign key.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS project_memberships (
		id BIGSERIAL PRIMARY KEY,
		project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL,
		role VARCHAR(20) NOT NULL,
		granted_by BIGINT,
		granted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		UNIQUE(project_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_project_memberships_user_id ON project_memberships(user_id);

	CREATE TABLE IF NOT EXISTS document_grants (
		id BIGSERIAL PRIMARY KEY,
		document_id BIGINT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL,
		role VARCHAR(20) NOT NULL,
		granted_by BIGINT,
		granted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		UNIQUE(document_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_document_grants_user_id ON document_grants(user_id);
	`

	if _, err := s.q.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure grant tables: %w", err)
	}
	return nil
}

// GetMembership retrieves a user's membership in a project, or nil if none
func (s *Store) GetMembership(ctx context.Context, projectID, userID int64) (*Membership, error) {
	return s.getMembership(ctx, projectID, userID, false)
}

// GetMembershipForUpdate retrieves a membership locking the row for the
// duration of the enclosing transaction
func (s *Store) GetMembershipForUpdate(ctx context.Context, projectID, userID int64) (*Membership, error) {
	return s.getMembership(ctx, projectID, userID, true)
}

func (s *Store) getMembership(ctx context.Context, projectID, userID int64, forUpdate bool) (*Membership, error) {
	query := `
		SELECT id, project_id, user_id, role, granted_by, granted_at, updated_at
		FROM project_memberships
		WHERE project_id = $1 AND user_id = $2
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	m := &Membership{}
	var grantedBy sql.NullInt64
	err := s.q.QueryRowContext(ctx, query, projectID, userID).Scan(
		&m.ID, &m.ProjectID, &m.UserID, &m.Role, &grantedBy, &m.GrantedAt, &m.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	if grantedBy.Valid {
		gb := grantedBy.Int64
		m.GrantedBy = &gb
	}
	return m, nil
}

// UpsertMembership inserts or replaces a user's membership role. The returned
// bool reports whether a new row was created, which the access engine uses to
// choose between the "shared" and "role_changed" audit actions.
func (s *Store) UpsertMembership(ctx context.Context, projectID, userID int64, role roles.ProjectRole, grantedBy *int64) (*Membership, bool, error) {
	query := `
		INSERT INTO project_memberships (project_id, user_id, role, granted_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, user_id) DO UPDATE
		SET role = EXCLUDED.role, updated_at = NOW()
		RETURNING id, granted_at, updated_at, (xmax = 0)
	`

	m := &Membership{ProjectID: projectID, UserID: userID, Role: role, GrantedBy: grantedBy}
	var created bool
	err := s.q.QueryRowContext(ctx, query, projectID, userID, role, grantedBy).Scan(
		&m.ID, &m.GrantedAt, &m.UpdatedAt, &created,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert membership: %w", err)
	}
	return m, created, nil
}

// RemoveMembership deletes a user's membership, returning false if none existed
func (s *Store) RemoveMembership(ctx context.Context, projectID, userID int64) (bool, error) {
	query := `DELETE FROM project_memberships WHERE project_id = $1 AND user_id = $2`
	result, err := s.q.ExecContext(ctx, query, projectID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove membership: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListMemberships retrieves all memberships of a project ordered by join time
func (s *Store) ListMemberships(ctx context.Context, projectID int64) ([]*Membership, error) {
	query := `
		SELECT id, project_id, user_id, role, granted_by, granted_at, updated_at
		FROM project_memberships
		WHERE project_id = $1
		ORDER BY granted_at ASC
	`
	rows, err := s.q.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*Membership
	for rows.Next() {
		m := &Membership{}
		var grantedBy sql.NullInt64
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &m.Role, &grantedBy, &m.GrantedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		if grantedBy.Valid {
			gb := grantedBy.Int64
			m.GrantedBy = &gb
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// CountOwnersForUpdate counts a project's owner memberships, locking the
// owner rows so a concurrent demotion cannot race past the last-owner check
func (s *Store) CountOwnersForUpdate(ctx context.Context, projectID int64) (int, error) {
	query := `
		SELECT COUNT(*) FROM (
			SELECT 1 FROM project_memberships
			WHERE project_id = $1 AND role = $2
			FOR UPDATE
		) AS owners
	`
	var count int
	if err := s.q.QueryRowContext(ctx, query, projectID, roles.ProjectOwner).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count owners: %w", err)
	}
	return count, nil
}

// GetDocumentGrant retrieves a user's direct grant on a document, or nil if none
func (s *Store) GetDocumentGrant(ctx context.Context, documentID, userID int64) (*DocumentGrant, error) {
	return s.getDocumentGrant(ctx, documentID, userID, false)
}

// GetDocumentGrantForUpdate retrieves a grant locking the row for the
// duration of the enclosing transaction
func (s *Store) GetDocumentGrantForUpdate(ctx context.Context, documentID, userID int64) (*DocumentGrant, error) {
	return s.getDocumentGrant(ctx, documentID, userID, true)
}

func (s *Store) getDocumentGrant(ctx context.Context, documentID, userID int64, forUpdate bool) (*DocumentGrant, error) {
	query := `
		SELECT id, document_id, user_id, role, granted_by, granted_at, updated_at
		FROM document_grants
		WHERE document_id = $1 AND user_id = $2
	`
	if forUpdate {
		query += " FOR UPDATE"
	}

	g := &DocumentGrant{}
	var grantedBy sql.NullInt64
	err := s.q.QueryRowContext(ctx, query, documentID, userID).Scan(
		&g.ID, &g.DocumentID, &g.UserID, &g.Role, &grantedBy, &g.GrantedAt, &g.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document grant: %w", err)
	}
	if grantedBy.Valid {
		gb := grantedBy.Int64
		g.GrantedBy = &gb
	}
	return g, nil
}

// UpsertDocumentGrant inserts or replaces a user's grant on a document. The
// returned bool reports whether a new row was created.
func (s *Store) UpsertDocumentGrant(ctx context.Context, documentID, userID int64, role roles.DocumentRole, grantedBy *int64) (*DocumentGrant, bool, error) {
	query := `
		INSERT INTO document_grants (document_id, user_id, role, granted_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (document_id, user_id) DO UPDATE
		SET role = EXCLUDED.role, updated_at = NOW()
		RETURNING id, granted_at, updated_at, (xmax = 0)
	`

	g := &DocumentGrant{DocumentID: documentID, UserID: userID, Role: role, GrantedBy: grantedBy}
	var created bool
	err := s.q.QueryRowContext(ctx, query, documentID, userID, role, grantedBy).Scan(
		&g.ID, &g.GrantedAt, &g.UpdatedAt, &created,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert document grant: %w", err)
	}
	return g, created, nil
}

// RemoveDocumentGrant deletes a user's grant on a document, returning the
// removed role or nil if no grant existed
func (s *Store) RemoveDocumentGrant(ctx context.Context, documentID, userID int64) (*roles.DocumentRole, error) {
	query := `DELETE FROM document_grants WHERE document_id = $1 AND user_id = $2 RETURNING role`
	var role roles.DocumentRole
	err := s.q.QueryRowContext(ctx, query, documentID, userID).Scan(&role)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to remove document grant: %w", err)
	}
	return &role, nil
}

// ListDocumentGrants retrieves all direct grants on a document
func (s *Store) ListDocumentGrants(ctx context.Context, documentID int64) ([]*DocumentGrant, error) {
	query := `
		SELECT id, document_id, user_id, role, granted_by, granted_at, updated_at
		FROM document_grants
		WHERE document_id = $1
		ORDER BY granted_at ASC
	`
	rows, err := s.q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list document grants: %w", err)
	}
	defer rows.Close()

	var grantsList []*DocumentGrant
	for rows.Next() {
		g := &DocumentGrant{}
		var grantedBy sql.NullInt64
		if err := rows.Scan(&g.ID, &g.DocumentID, &g.UserID, &g.Role, &grantedBy, &g.GrantedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document grant: %w", err)
		}
		if grantedBy.Valid {
			gb := grantedBy.Int64
			g.GrantedBy = &gb
		}
		grantsList = append(grantsList, g)
	}
	return grantsList, rows.Err()
}
