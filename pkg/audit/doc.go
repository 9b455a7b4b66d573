// Package audit provides the append-only log of every access-changing action.
//
// # Records
//
// A Record captures (timestamp, actor, target, role, action, document,
// project) for one of three actions: "shared", "unshared", "role_changed".
// Timestamps are assigned by the database clock on insert, so insertion order
// matches timestamp order. Records are never mutated; the only deletion path
// is the retention sweep.
//
// # Atomicity
//
// Append is designed to run inside the access engine's transaction
// (Store.WithTx): a grant mutation with no record, or a record with no
// mutation, cannot be committed.
//
// # Querying and Export
//
// Query supports partial filters (document, project, actor, target, action,
// since, until) combined with AND, newest first. Export serializes a result
// set as CSV (stable column order, RFC 3339 timestamps), JSON or NDJSON.
//
// # Related Packages
//
//   - pkg/access: the only writer
//   - pkg/api: reporting endpoints over Query and Export
package audit
