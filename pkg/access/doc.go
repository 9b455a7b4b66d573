// Package access is the authorization core: it resolves effective document
// roles and mediates every change to memberships and grants.
//
// # Resolution
//
// A user's effective role on a document is decided in precedence order. An
// explicit document grant always wins, even when it carries a lower-ranked
// role than the user's project membership would; the membership role maps
// through the role table only when no grant exists. The resolver is pure
// read; its optional two-tier cache (in-process LRU plus a shared redis
// version counter) is a latency optimization the engine invalidates after
// every committed mutation, and correctness never rests on it.
//
// # Mutation
//
// The engine runs each operation inside one database transaction: the actor
// authority check, row locks on the target key, the grant mutation and the
// audit append all commit or roll back together. Only owners manage access;
// an editor sharing a document fails with ErrForbidden before anything is
// written. Removing or demoting the last project owner fails with
// ErrLastOwner under a lock on the owner rows.
//
// # Consistency Window
//
// Revoking a project membership does not cascade into document grants. A
// grant left behind keeps working until it is explicitly unshared; callers
// that want a clean break unshare the documents first.
//
// # Related Packages
//
//   - pkg/grants: the persistence layer both halves run on
//   - pkg/audit: the append-only record of every mutation
//   - pkg/roles: role values, ranks and the membership equivalence
package access
