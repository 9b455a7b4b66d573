package access

import (
	"context"

	"github.com/vellum-app/vellum/pkg/grants"
	"github.com/vellum-app/vellum/pkg/roles"
)

// GrantReader is the read-only slice of the grant store the resolver needs
type GrantReader interface {
	GetMembership(ctx context.Context, projectID, userID int64) (*grants.Membership, error)
	GetDocumentGrant(ctx context.Context, documentID, userID int64) (*grants.DocumentGrant, error)
}

// Source tags where an effective role came from
type Source string

const (
	// SourceGrant means an explicit document grant decided the role
	SourceGrant Source = "grant"
	// SourceMembership means the role was inherited from project membership
	SourceMembership Source = "membership"
	// SourceNone means the user holds no role on the document
	SourceNone Source = "none"
)

// Resolution is the outcome of resolving a user's effective document role
type Resolution struct {
	Role   roles.DocumentRole `json:"role,omitempty"`
	Source Source             `json:"source"`
}

// HasRole reports whether the resolution carries any role at all
func (r Resolution) HasRole() bool {
	return r.Source != SourceNone
}

// DocumentRef identifies a document together with its owning project, which
// the resolver needs for the membership fallback
type DocumentRef struct {
	ID        int64
	ProjectID int64
}

// Resolver answers "what can this user do" without side effects. It is safe
// for concurrent use; all state lives in the grant store and the optional
// cache.
type Resolver struct {
	grants GrantReader
	cache  *Cache
}

// NewResolver creates a resolver over the given grant reader. cache may be
// nil to resolve straight from storage on every call.
func NewResolver(reader GrantReader, cache *Cache) *Resolver {
	return &Resolver{grants: reader, cache: cache}
}

// EffectiveDocumentRole resolves the user's effective role on a document.
// An explicit document grant always wins, even when it is lower-ranked than
// the membership-derived role: the explicit grant is the more specific
// authority. With no grant, the project membership role maps through the
// role table's equivalence; with neither, the resolution is SourceNone.
func (r *Resolver) EffectiveDocumentRole(ctx context.Context, userID int64, doc DocumentRef) (Resolution, error) {
	if r.cache != nil {
		if res, ok := r.cache.Get(ctx, userID, doc.ID); ok {
			return res, nil
		}
	}

	res, err := r.resolve(ctx, userID, doc)
	if err != nil {
		return Resolution{Source: SourceNone}, err
	}

	if r.cache != nil {
		r.cache.Put(ctx, userID, doc.ID, res)
	}
	return res, nil
}

func (r *Resolver) resolve(ctx context.Context, userID int64, doc DocumentRef) (Resolution, error) {
	grant, err := r.grants.GetDocumentGrant(ctx, doc.ID, userID)
	if err != nil {
		return Resolution{}, storageErr(err)
	}
	if grant != nil {
		return Resolution{Role: grant.Role, Source: SourceGrant}, nil
	}

	membership, err := r.grants.GetMembership(ctx, doc.ProjectID, userID)
	if err != nil {
		return Resolution{}, storageErr(err)
	}
	if membership != nil {
		if role, ok := roles.DocumentRoleFromMembership(membership.Role); ok {
			return Resolution{Role: role, Source: SourceMembership}, nil
		}
	}

	return Resolution{Source: SourceNone}, nil
}

// CanView reports whether the user can see the document. Any project
// membership suffices; viewing does not require a document-level role.
func (r *Resolver) CanView(ctx context.Context, userID int64, doc DocumentRef) (bool, error) {
	membership, err := r.grants.GetMembership(ctx, doc.ProjectID, userID)
	if err != nil {
		return false, storageErr(err)
	}
	if membership != nil {
		return true, nil
	}

	// A direct grant also confers visibility for the eventual-consistency
	// window where a grant outlives its membership.
	res, err := r.EffectiveDocumentRole(ctx, userID, doc)
	if err != nil {
		return false, err
	}
	return res.Source == SourceGrant, nil
}

// CanComment reports whether the user may comment on the document
func (r *Resolver) CanComment(ctx context.Context, userID int64, doc DocumentRef) (bool, error) {
	res, err := r.EffectiveDocumentRole(ctx, userID, doc)
	if err != nil {
		return false, err
	}
	return res.HasRole() && res.Role.AtLeast(roles.DocumentCommenter), nil
}

// CanEdit reports whether the user may edit the document's content
func (r *Resolver) CanEdit(ctx context.Context, userID int64, doc DocumentRef) (bool, error) {
	res, err := r.EffectiveDocumentRole(ctx, userID, doc)
	if err != nil {
		return false, err
	}
	return res.HasRole() && res.Role.AtLeast(roles.DocumentEditor), nil
}

// CanManage reports whether the user may share, unshare or change roles on
// the document. Only document owners qualify, whether granted directly or
// inherited from project ownership; editors never do.
func (r *Resolver) CanManage(ctx context.Context, userID int64, doc DocumentRef) (bool, error) {
	res, err := r.EffectiveDocumentRole(ctx, userID, doc)
	if err != nil {
		return false, err
	}
	return res.HasRole() && res.Role == roles.DocumentOwner, nil
}

// CanContribute reports whether the user may create documents in the
// project; editors and owners qualify
func (r *Resolver) CanContribute(ctx context.Context, userID, projectID int64) (bool, error) {
	membership, err := r.grants.GetMembership(ctx, projectID, userID)
	if err != nil {
		return false, storageErr(err)
	}
	return membership != nil && membership.Role.AtLeast(roles.ProjectEditor), nil
}

// CanManageProject reports whether the user may manage project memberships
func (r *Resolver) CanManageProject(ctx context.Context, userID, projectID int64) (bool, error) {
	membership, err := r.grants.GetMembership(ctx, projectID, userID)
	if err != nil {
		return false, storageErr(err)
	}
	return membership != nil && membership.Role == roles.ProjectOwner, nil
}
