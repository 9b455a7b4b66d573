package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store handles audit record persistence. Append runs on whatever Querier
// the store is bound to, so the access engine can write the record inside
// the same transaction as the grant mutation it describes.
type Store struct {
	q Querier
}

// NewStore creates a new audit store
func NewStore(db *sql.DB) *Store {
	return &Store{q: db}
}

// WithTx returns a Store that runs its statements on the given transaction
func (s *Store) WithTx(tx *sql.Tx) *Store {
	return &Store{q: tx}
}

// EnsureSchema creates the audit_records table if it doesn't exist. Actor
// and target ids are opaque identity references; document and project ids
// deliberately carry no FK so records outlive the entities they describe.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_records (
		id BIGSERIAL PRIMARY KEY,
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
		actor_id BIGINT,
		target_id BIGINT,
		role VARCHAR(32),
		action VARCHAR(32) NOT NULL,
		document_id BIGINT,
		project_id BIGINT
	);

	CREATE INDEX IF NOT EXISTS idx_audit_records_document ON audit_records(document_id, timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_audit_records_project ON audit_records(project_id, timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_audit_records_actor ON audit_records(actor_id);
	CREATE INDEX IF NOT EXISTS idx_audit_records_target ON audit_records(target_id);
	`

	if _, err := s.q.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure audit_records table: %w", err)
	}
	return nil
}

// Append writes a record and returns its id. The timestamp is server-assigned
// by the database clock so insertion order matches timestamp order.
func (s *Store) Append(ctx context.Context, record *Record) (int64, error) {
	if !record.Action.Valid() {
		return 0, fmt.Errorf("invalid audit action: %q", record.Action)
	}

	query := `
		INSERT INTO audit_records (actor_id, target_id, role, action, document_id, project_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, timestamp
	`

	err := s.q.QueryRowContext(ctx, query,
		record.ActorID,
		record.TargetID,
		record.Role,
		record.Action,
		record.DocumentID,
		record.ProjectID,
	).Scan(&record.ID, &record.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("failed to append audit record: %w", err)
	}

	return record.ID, nil
}

// Query retrieves records matching the filter, newest first
func (s *Store) Query(ctx context.Context, filter Filter) ([]*Record, error) {
	query := `
		SELECT id, timestamp, actor_id, target_id, role, action, document_id, project_id
		FROM audit_records
		WHERE 1=1
	`
	args := []any{}
	argIdx := 1

	addCond := func(cond string, val any) {
		query += fmt.Sprintf(" AND %s $%d", cond, argIdx)
		args = append(args, val)
		argIdx++
	}

	if filter.DocumentID != nil {
		addCond("document_id =", *filter.DocumentID)
	}
	if filter.ProjectID != nil {
		addCond("project_id =", *filter.ProjectID)
	}
	if filter.ActorID != nil {
		addCond("actor_id =", *filter.ActorID)
	}
	if filter.TargetID != nil {
		addCond("target_id =", *filter.TargetID)
	}
	if filter.Action != nil {
		addCond("action =", *filter.Action)
	}
	if filter.Since != nil {
		addCond("timestamp >=", *filter.Since)
	}
	if filter.Until != nil {
		addCond("timestamp <=", *filter.Until)
	}

	query += " ORDER BY timestamp DESC, id DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.Limit)
		argIdx++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		r := &Record{}
		var actorID, targetID, documentID, projectID sql.NullInt64
		var role sql.NullString

		if err := rows.Scan(&r.ID, &r.Timestamp, &actorID, &targetID, &role, &r.Action, &documentID, &projectID); err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}

		if actorID.Valid {
			v := actorID.Int64
			r.ActorID = &v
		}
		if targetID.Valid {
			v := targetID.Int64
			r.TargetID = &v
		}
		if role.Valid {
			v := role.String
			r.Role = &v
		}
		if documentID.Valid {
			v := documentID.Int64
			r.DocumentID = &v
		}
		if projectID.Valid {
			v := projectID.Int64
			r.ProjectID = &v
		}

		records = append(records, r)
	}

	return records, rows.Err()
}

// Cleanup removes records older than the retention period, returning the
// number of rows deleted
func (s *Store) Cleanup(ctx context.Context, policy RetentionPolicy) (int64, error) {
	if policy.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -policy.RetentionDays)
	result, err := s.q.ExecContext(ctx, "DELETE FROM audit_records WHERE timestamp < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up audit records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
