// Package projects persists the top-level containers documents live in.
//
// Creating a project also creates the creator's owner membership inside the
// same transaction, so every project is manageable from the moment it
// exists. Retirement is a soft delete: the row and all history it anchors
// survive, default reads filter it out.
//
// # Related Packages
//
//   - pkg/grants: the membership rows created alongside a project
//   - pkg/documents: the content a project contains
package projects
