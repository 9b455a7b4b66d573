// Package grants persists the two authority sources for document access:
// project memberships and direct document grants.
//
// # Storage Model
//
// Both tables are keyed by a unique (scope, user) pair: project_memberships on
// (project_id, user_id) and document_grants on (document_id, user_id). A user
// never holds more than one active role per scope; re-granting replaces the
// role in place via ON CONFLICT upserts. Upserts report insert-vs-update
// through the postgres xmax = 0 trick so callers can distinguish a fresh
// share from a role change without a second round trip.
//
// # Transactions
//
// Store methods run on whatever Querier the store is bound to. The access
// engine uses WithTx to run point lookups (with FOR UPDATE), mutations and
// the audit append inside a single transaction, giving the serializability
// guarantee for concurrent writes to the same key.
//
// # Related Packages
//
//   - pkg/access: the only mutator of these tables
//   - pkg/roles: valid role values
package grants
