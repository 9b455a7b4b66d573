package projects

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vellum-app/vellum/pkg/grants"
	"github.com/vellum-app/vellum/pkg/roles"
)

// Store handles project persistence
type Store struct {
	db     *sql.DB
	grants *grants.Store
}

// NewStore creates a new project store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, grants: grants.NewStore(db)}
}

// EnsureSchema creates the projects table if it doesn't exist
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS projects (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_by BIGINT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_projects_active ON projects(active);
	`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure projects table: %w", err)
	}
	return nil
}

// Create inserts a project and makes the creator its first owner in the same
// transaction. A project without an owner membership would be unmanageable,
// so the two writes never commit apart.
func (s *Store) Create(ctx context.Context, name, description string, createdBy int64) (*Project, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO projects (name, description, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	p := &Project{Name: name, Description: description, CreatedBy: createdBy, Active: true}
	err = tx.QueryRowContext(ctx, query, name, description, createdBy).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	if _, _, err := s.grants.WithTx(tx).UpsertMembership(ctx, p.ID, createdBy, roles.ProjectOwner, nil); err != nil {
		return nil, fmt.Errorf("failed to create owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit project creation: %w", err)
	}
	return p, nil
}

// Get retrieves an active project by id, or nil if none
func (s *Store) Get(ctx context.Context, id int64) (*Project, error) {
	query := `
		SELECT id, name, description, created_by, active, created_at, updated_at
		FROM projects
		WHERE id = $1 AND active = TRUE
	`

	p := &Project{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.CreatedBy, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListForUser retrieves the active projects the user is a member of, newest
// first
func (s *Store) ListForUser(ctx context.Context, userID int64) ([]*Project, error) {
	query := `
		SELECT p.id, p.name, p.description, p.created_by, p.active, p.created_at, p.updated_at
		FROM projects p
		JOIN project_memberships m ON m.project_id = p.id
		WHERE m.user_id = $1 AND p.active = TRUE
		ORDER BY p.created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// Update changes a project's name and description
func (s *Store) Update(ctx context.Context, id int64, name, description string) (*Project, error) {
	query := `
		UPDATE projects
		SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1 AND active = TRUE
		RETURNING id, name, description, created_by, active, created_at, updated_at
	`

	p := &Project{}
	err := s.db.QueryRowContext(ctx, query, id, name, description).Scan(
		&p.ID, &p.Name, &p.Description, &p.CreatedBy, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

// Retire soft-deletes a project. Memberships, grants and audit history stay
// in place; the project just stops showing up in reads.
func (s *Store) Retire(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE projects SET active = FALSE, updated_at = NOW() WHERE id = $1 AND active = TRUE`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to retire project: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func scanProjects(rows *sql.Rows) ([]*Project, error) {
	var projects []*Project
	for rows.Next() {
		p := &Project{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedBy, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
