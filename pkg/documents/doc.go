// Package documents manages project content: document rows, their immutable
// file versions and their comments.
//
// Version numbers are assigned per document starting at 1, under the
// document row lock, so concurrent uploads serialize into consecutive
// numbers. File bytes go through the blob store; the database keeps only
// keys and metadata. Every service method runs an access check first and
// fails with access.ErrForbidden before touching content.
//
// # Related Packages
//
//   - pkg/access: the checks gating every operation
//   - pkg/storage: where file bytes live
package documents
