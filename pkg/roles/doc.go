// Package roles defines the two fixed role sets used across Vellum and their
// relative ordering.
//
// # Role Sets
//
// Documents: commenter < editor < owner. Projects: viewer < editor < owner.
// A role is never inferred; it is always the value of an explicit grant or
// membership row. This package is the single source of truth for valid role
// strings and precedence, so a mistyped role string is rejected before any
// mutation instead of silently granting nothing.
//
// # Membership Equivalence
//
// When a user has no explicit document grant, their project membership role
// maps to a document role via DocumentRoleFromMembership: project owners and
// editors act as document owners and editors, project viewers hold no
// document role.
//
// # Related Packages
//
//   - pkg/access: resolves effective roles using this table
//   - pkg/grants: persists membership and grant rows
package roles
