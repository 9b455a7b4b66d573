package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/vellum-app/vellum/pkg/access"
	"github.com/vellum-app/vellum/pkg/storage"
)

// ErrNotFound means the referenced document does not exist or is retired
var ErrNotFound = errors.New("document not found")

// AccessChecker is the slice of the access resolver the service consults
// before touching content
type AccessChecker interface {
	CanView(ctx context.Context, userID int64, doc access.DocumentRef) (bool, error)
	CanComment(ctx context.Context, userID int64, doc access.DocumentRef) (bool, error)
	CanEdit(ctx context.Context, userID int64, doc access.DocumentRef) (bool, error)
	CanManage(ctx context.Context, userID int64, doc access.DocumentRef) (bool, error)
	CanContribute(ctx context.Context, userID, projectID int64) (bool, error)
}

// Service combines the document store, the blob store and access checks into
// the operations the API exposes. Every method authorizes the actor before
// reading or writing anything.
type Service struct {
	db      *sql.DB
	store   *Store
	blobs   storage.BlobStore
	checker AccessChecker
}

// NewService creates a document service
func NewService(db *sql.DB, blobs storage.BlobStore, checker AccessChecker) *Service {
	return &Service{db: db, store: NewStore(db), blobs: blobs, checker: checker}
}

// Store exposes the underlying store for schema setup
func (s *Service) Store() *Store {
	return s.store
}

// Create adds a document to a project; project editors and owners may create
func (s *Service) Create(ctx context.Context, actorID, projectID int64, title string) (*Document, error) {
	ok, err := s.checker.CanContribute(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, access.ErrForbidden
	}
	return s.store.Create(ctx, projectID, title, actorID)
}

// Get retrieves a document the actor can view
func (s *Service) Get(ctx context.Context, actorID, documentID int64) (*Document, error) {
	doc, ref, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireView(ctx, actorID, ref); err != nil {
		return nil, err
	}
	return doc, nil
}

// UploadVersion stores a new file revision. Editors and above may upload.
// The version number is assigned under the document row lock, so concurrent
// uploads get distinct consecutive numbers.
func (s *Service) UploadVersion(ctx context.Context, actorID, documentID int64, filename, contentType string, content io.Reader) (*Version, error) {
	_, ref, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}

	ok, err := s.checker.CanEdit(ctx, actorID, ref)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, access.ErrForbidden
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	txStore := s.store.WithTx(tx)
	if _, err := txStore.GetForUpdate(ctx, documentID); err != nil {
		return nil, err
	}
	next, err := txStore.NextVersionNumber(ctx, documentID)
	if err != nil {
		return nil, err
	}

	// The blob write is not transactional; a failed commit strands the blob,
	// which is harmless since the key embeds the never-reused version number.
	safeName := path.Base(filename)
	key := fmt.Sprintf("docs/%d/v%d/%s", documentID, next, safeName)
	counted := &countingReader{r: content}
	if _, err := s.blobs.Save(ctx, counted, key); err != nil {
		return nil, fmt.Errorf("failed to store file content: %w", err)
	}

	version := &Version{
		DocumentID:    documentID,
		VersionNumber: next,
		Filename:      safeName,
		BlobKey:       key,
		ContentType:   contentType,
		SizeBytes:     counted.n,
		UploadedBy:    actorID,
	}
	if err := txStore.InsertVersion(ctx, version); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit version: %w", err)
	}
	return version, nil
}

// OpenVersion returns the content of one file revision; version 0 means the
// latest
func (s *Service) OpenVersion(ctx context.Context, actorID, documentID int64, versionNumber int) (io.ReadCloser, *Version, error) {
	_, ref, err := s.load(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.requireView(ctx, actorID, ref); err != nil {
		return nil, nil, err
	}

	var version *Version
	if versionNumber <= 0 {
		version, err = s.store.LatestVersion(ctx, documentID)
	} else {
		version, err = s.store.GetVersion(ctx, documentID, versionNumber)
	}
	if err != nil {
		return nil, nil, err
	}
	if version == nil {
		return nil, nil, ErrNotFound
	}

	r, err := s.blobs.Open(ctx, version.BlobKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file content: %w", err)
	}
	return r, version, nil
}

// ListVersions retrieves a document's revision history
func (s *Service) ListVersions(ctx context.Context, actorID, documentID int64) ([]*Version, error) {
	_, ref, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireView(ctx, actorID, ref); err != nil {
		return nil, err
	}
	return s.store.ListVersions(ctx, documentID)
}

// AddComment posts a comment; commenters and above may post
func (s *Service) AddComment(ctx context.Context, actorID, documentID int64, body string) (*Comment, error) {
	_, ref, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}

	ok, err := s.checker.CanComment(ctx, actorID, ref)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, access.ErrForbidden
	}

	comment := &Comment{DocumentID: documentID, AuthorID: actorID, Body: body}
	if err := s.store.InsertComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments retrieves a document's discussion
func (s *Service) ListComments(ctx context.Context, actorID, documentID int64) ([]*Comment, error) {
	_, ref, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireView(ctx, actorID, ref); err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, documentID)
}

// Retire soft-deletes a document; only managers may retire
func (s *Service) Retire(ctx context.Context, actorID, documentID int64) error {
	_, ref, err := s.load(ctx, documentID)
	if err != nil {
		return err
	}

	ok, err := s.checker.CanManage(ctx, actorID, ref)
	if err != nil {
		return err
	}
	if !ok {
		return access.ErrForbidden
	}

	retired, err := s.store.Retire(ctx, documentID)
	if err != nil {
		return err
	}
	if !retired {
		return ErrNotFound
	}
	return nil
}

// ListByProject retrieves a project's documents for a member
func (s *Service) ListByProject(ctx context.Context, actorID, projectID int64) ([]*Document, error) {
	// CanView on a synthetic ref covers membership; document id 0 never has
	// a direct grant
	ok, err := s.checker.CanView(ctx, actorID, access.DocumentRef{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, access.ErrForbidden
	}
	return s.store.ListByProject(ctx, projectID)
}

func (s *Service) load(ctx context.Context, documentID int64) (*Document, access.DocumentRef, error) {
	doc, err := s.store.Get(ctx, documentID)
	if err != nil {
		return nil, access.DocumentRef{}, err
	}
	if doc == nil {
		return nil, access.DocumentRef{}, ErrNotFound
	}
	return doc, access.DocumentRef{ID: doc.ID, ProjectID: doc.ProjectID}, nil
}

func (s *Service) requireView(ctx context.Context, actorID int64, ref access.DocumentRef) error {
	ok, err := s.checker.CanView(ctx, actorID, ref)
	if err != nil {
		return err
	}
	if !ok {
		return access.ErrForbidden
	}
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
