// Package storage abstracts where uploaded file content lives.
//
// The database keeps only blob keys; the bytes go through a BlobStore. Two
// backends exist: a local filesystem store for development and single-node
// deployments, and an S3-compatible store for everything else (AWS S3 or
// MinIO via a custom endpoint).
//
// # Related Packages
//
//   - pkg/documents: the only writer of file blobs
package storage
