package access

import (
	"context"
	"database/sql"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vellum-app/vellum/pkg/audit"
	"github.com/vellum-app/vellum/pkg/grants"
	"github.com/vellum-app/vellum/pkg/observability"
	"github.com/vellum-app/vellum/pkg/roles"
)

// Engine is the mutating access API. Every operation validates actor
// authority, mutates the grant store and appends an audit record inside one
// transaction: a changed grant with no record, or a record with no change,
// cannot be committed.
type Engine struct {
	db      *sql.DB
	grants  *grants.Store
	audit   *audit.Store
	cache   *Cache
	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  trace.Tracer
}

// Option configures an Engine
type Option func(*Engine)

// WithCache attaches a resolution cache; the engine invalidates it after
// every committed mutation
func WithCache(c *Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithLogger attaches a structured logger
func WithLogger(l *observability.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics attaches prometheus metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an access engine over the given database
func NewEngine(db *sql.DB, opts ...Option) *Engine {
	e := &Engine{
		db:     db,
		grants: grants.NewStore(db),
		audit:  audit.NewStore(db),
		tracer: otel.Tracer("vellum/access"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolver returns a read-only resolver sharing the engine's store and cache
func (e *Engine) Resolver() *Resolver {
	return NewResolver(e.grants, e.cache)
}

// Share grants target a role on the document. The actor must be able to
// manage the document and the target must already be a project member. The
// audit action is "shared" for a fresh grant and "role_changed" when an
// existing grant was replaced.
func (e *Engine) Share(ctx context.Context, actorID, targetID int64, doc DocumentRef, role roles.DocumentRole) (*audit.Record, error) {
	ctx, span := e.tracer.Start(ctx, "access.Share", trace.WithAttributes(
		attribute.Int64("document.id", doc.ID),
		attribute.Int64("target.id", targetID),
	))
	defer span.End()

	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	var record *audit.Record
	err := e.inTx(ctx, func(tx *sql.Tx) error {
		g := e.grants.WithTx(tx)

		if err := e.requireManage(ctx, g, actorID, doc); err != nil {
			return err
		}

		membership, err := g.GetMembership(ctx, doc.ProjectID, targetID)
		if err != nil {
			return storageErr(err)
		}
		if membership == nil {
			return ErrNotEligible
		}

		// Lock the target's grant row so concurrent mutations on the same
		// (document, user) key serialize; concurrent first-time shares
		// serialize on the unique index instead.
		if _, err := g.GetDocumentGrantForUpdate(ctx, doc.ID, targetID); err != nil {
			return storageErr(err)
		}

		_, created, err := g.UpsertDocumentGrant(ctx, doc.ID, targetID, role, &actorID)
		if err != nil {
			return storageErr(err)
		}

		action := audit.ActionShared
		if !created {
			action = audit.ActionRoleChanged
		}
		record = audit.DocumentRecord(actorID, targetID, doc.ID, doc.ProjectID, action, &role)
		if _, err := e.audit.WithTx(tx).Append(ctx, record); err != nil {
			return storageErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, record, func() {
		if e.cache != nil {
			e.cache.InvalidateDocumentUser(ctx, targetID, doc.ID)
		}
	})
	return record, nil
}

// Unshare removes target's direct grant on the document. Unsharing a user
// with no grant fails with ErrNothingToRemove and writes no audit record.
func (e *Engine) Unshare(ctx context.Context, actorID, targetID int64, doc DocumentRef) (*audit.Record, error) {
	ctx, span := e.tracer.Start(ctx, "access.Unshare", trace.WithAttributes(
		attribute.Int64("document.id", doc.ID),
		attribute.Int64("target.id", targetID),
	))
	defer span.End()

	var record *audit.Record
	err := e.inTx(ctx, func(tx *sql.Tx) error {
		g := e.grants.WithTx(tx)

		if err := e.requireManage(ctx, g, actorID, doc); err != nil {
			return err
		}

		removed, err := g.RemoveDocumentGrant(ctx, doc.ID, targetID)
		if err != nil {
			return storageErr(err)
		}
		if removed == nil {
			return ErrNothingToRemove
		}

		record = audit.DocumentRecord(actorID, targetID, doc.ID, doc.ProjectID, audit.ActionUnshared, nil)
		if _, err := e.audit.WithTx(tx).Append(ctx, record); err != nil {
			return storageErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, record, func() {
		if e.cache != nil {
			e.cache.InvalidateDocumentUser(ctx, targetID, doc.ID)
		}
	})
	return record, nil
}

// ChangeRole replaces an existing grant's role. Unlike Share it requires the
// grant to exist already.
func (e *Engine) ChangeRole(ctx context.Context, actorID, targetID int64, doc DocumentRef, newRole roles.DocumentRole) (*audit.Record, error) {
	ctx, span := e.tracer.Start(ctx, "access.ChangeRole", trace.WithAttributes(
		attribute.Int64("document.id", doc.ID),
		attribute.Int64("target.id", targetID),
	))
	defer span.End()

	if !newRole.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, newRole)
	}

	var record *audit.Record
	err := e.inTx(ctx, func(tx *sql.Tx) error {
		g := e.grants.WithTx(tx)

		if err := e.requireManage(ctx, g, actorID, doc); err != nil {
			return err
		}

		existing, err := g.GetDocumentGrantForUpdate(ctx, doc.ID, targetID)
		if err != nil {
			return storageErr(err)
		}
		if existing == nil {
			return ErrNothingToRemove
		}

		if _, _, err := g.UpsertDocumentGrant(ctx, doc.ID, targetID, newRole, &actorID); err != nil {
			return storageErr(err)
		}

		record = audit.DocumentRecord(actorID, targetID, doc.ID, doc.ProjectID, audit.ActionRoleChanged, &newRole)
		if _, err := e.audit.WithTx(tx).Append(ctx, record); err != nil {
			return storageErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, record, func() {
		if e.cache != nil {
			e.cache.InvalidateDocumentUser(ctx, targetID, doc.ID)
		}
	})
	return record, nil
}

// ProjectShare adds target to the project or replaces their membership role.
// Demoting the last owner fails with ErrLastOwner, including when actor and
// target are the same user.
func (e *Engine) ProjectShare(ctx context.Context, actorID, targetID, projectID int64, role roles.ProjectRole) (*audit.Record, error) {
	ctx, span := e.tracer.Start(ctx, "access.ProjectShare", trace.WithAttributes(
		attribute.Int64("project.id", projectID),
		attribute.Int64("target.id", targetID),
	))
	defer span.End()

	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	var record *audit.Record
	err := e.inTx(ctx, func(tx *sql.Tx) error {
		g := e.grants.WithTx(tx)

		if err := e.requireManageProject(ctx, g, actorID, projectID); err != nil {
			return err
		}

		existing, err := g.GetMembershipForUpdate(ctx, projectID, targetID)
		if err != nil {
			return storageErr(err)
		}

		if existing != nil && existing.Role == roles.ProjectOwner && role != roles.ProjectOwner {
			if err := e.requireOtherOwners(ctx, g, projectID); err != nil {
				return err
			}
		}

		_, created, err := g.UpsertMembership(ctx, projectID, targetID, role, &actorID)
		if err != nil {
			return storageErr(err)
		}

		action := audit.ActionShared
		if !created {
			action = audit.ActionRoleChanged
		}
		record = audit.ProjectRecord(actorID, targetID, projectID, action, &role)
		if _, err := e.audit.WithTx(tx).Append(ctx, record); err != nil {
			return storageErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, record, func() {
		if e.cache != nil {
			e.cache.InvalidateUser(ctx, targetID)
		}
	})
	return record, nil
}

// ProjectUnshare removes target's membership. Standing document grants in
// the project are deliberately left in place (no cascade); they remain
// effective until explicitly unshared.
func (e *Engine) ProjectUnshare(ctx context.Context, actorID, targetID, projectID int64) (*audit.Record, error) {
	ctx, span := e.tracer.Start(ctx, "access.ProjectUnshare", trace.WithAttributes(
		attribute.Int64("project.id", projectID),
		attribute.Int64("target.id", targetID),
	))
	defer span.End()

	var record *audit.Record
	err := e.inTx(ctx, func(tx *sql.Tx) error {
		g := e.grants.WithTx(tx)

		if err := e.requireManageProject(ctx, g, actorID, projectID); err != nil {
			return err
		}

		existing, err := g.GetMembershipForUpdate(ctx, projectID, targetID)
		if err != nil {
			return storageErr(err)
		}
		if existing == nil {
			return ErrNothingToRemove
		}

		if existing.Role == roles.ProjectOwner {
			if err := e.requireOtherOwners(ctx, g, projectID); err != nil {
				return err
			}
		}

		if _, err := g.RemoveMembership(ctx, projectID, targetID); err != nil {
			return storageErr(err)
		}

		record = audit.ProjectRecord(actorID, targetID, projectID, audit.ActionUnshared, nil)
		if _, err := e.audit.WithTx(tx).Append(ctx, record); err != nil {
			return storageErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, record, func() {
		if e.cache != nil {
			e.cache.InvalidateUser(ctx, targetID)
		}
	})
	return record, nil
}

// ProjectChangeRole replaces an existing membership's role
func (e *Engine) ProjectChangeRole(ctx context.Context, actorID, targetID, projectID int64, newRole roles.ProjectRole) (*audit.Record, error) {
	ctx, span := e.tracer.Start(ctx, "access.ProjectChangeRole", trace.WithAttributes(
		attribute.Int64("project.id", projectID),
		attribute.Int64("target.id", targetID),
	))
	defer span.End()

	if !newRole.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, newRole)
	}

	var record *audit.Record
	err := e.inTx(ctx, func(tx *sql.Tx) error {
		g := e.grants.WithTx(tx)

		if err := e.requireManageProject(ctx, g, actorID, projectID); err != nil {
			return err
		}

		existing, err := g.GetMembershipForUpdate(ctx, projectID, targetID)
		if err != nil {
			return storageErr(err)
		}
		if existing == nil {
			return ErrNothingToRemove
		}

		if existing.Role == roles.ProjectOwner && newRole != roles.ProjectOwner {
			if err := e.requireOtherOwners(ctx, g, projectID); err != nil {
				return err
			}
		}

		if _, _, err := g.UpsertMembership(ctx, projectID, targetID, newRole, &actorID); err != nil {
			return storageErr(err)
		}

		record = audit.ProjectRecord(actorID, targetID, projectID, audit.ActionRoleChanged, &newRole)
		if _, err := e.audit.WithTx(tx).Append(ctx, record); err != nil {
			return storageErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.committed(ctx, record, func() {
		if e.cache != nil {
			e.cache.InvalidateUser(ctx, targetID)
		}
	})
	return record, nil
}

// requireManage resolves the actor's effective role through the tx-bound
// store so the authority check sees the same snapshot the mutation commits
// against. Only document owners pass, whether granted directly or inherited
// from project ownership.
func (e *Engine) requireManage(ctx context.Context, g *grants.Store, actorID int64, doc DocumentRef) error {
	grant, err := g.GetDocumentGrant(ctx, doc.ID, actorID)
	if err != nil {
		return storageErr(err)
	}
	if grant != nil {
		if grant.Role == roles.DocumentOwner {
			return nil
		}
		// The explicit grant is the more specific authority; a lower grant
		// overrides any ownership the membership would confer.
		return ErrForbidden
	}

	membership, err := g.GetMembership(ctx, doc.ProjectID, actorID)
	if err != nil {
		return storageErr(err)
	}
	if membership != nil && membership.Role == roles.ProjectOwner {
		return nil
	}
	return ErrForbidden
}

func (e *Engine) requireManageProject(ctx context.Context, g *grants.Store, actorID, projectID int64) error {
	membership, err := g.GetMembership(ctx, projectID, actorID)
	if err != nil {
		return storageErr(err)
	}
	if membership == nil || membership.Role != roles.ProjectOwner {
		return ErrForbidden
	}
	return nil
}

// requireOtherOwners fails with ErrLastOwner unless at least two owner rows
// exist; the owner rows are locked so a concurrent demotion cannot slip past
func (e *Engine) requireOtherOwners(ctx context.Context, g *grants.Store, projectID int64) error {
	owners, err := g.CountOwnersForUpdate(ctx, projectID)
	if err != nil {
		return storageErr(err)
	}
	if owners <= 1 {
		return ErrLastOwner
	}
	return nil
}

// inTx runs fn inside a transaction, rolling back on error
func (e *Engine) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr(err)
	}
	return nil
}

// committed records observability for a committed mutation and runs the
// cache invalidation for it
func (e *Engine) committed(ctx context.Context, record *audit.Record, invalidate func()) {
	invalidate()

	scope := "project"
	if record.DocumentID != nil {
		scope = "document"
	}
	if e.metrics != nil {
		e.metrics.GrantMutationsTotal.WithLabelValues(scope, string(record.Action)).Inc()
		e.metrics.AuditRecordsTotal.Inc()
	}
	if e.logger != nil {
		e.logger.WithFields(map[string]interface{}{
			"action":    string(record.Action),
			"scope":     scope,
			"actor_id":  derefInt64(record.ActorID),
			"target_id": derefInt64(record.TargetID),
			"audit_id":  record.ID,
		}).Info("access changed")
	}
}

func derefInt64(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
