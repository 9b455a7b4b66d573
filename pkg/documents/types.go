package documents

import "time"

// Document is a piece of content inside a project. The row carries no
// content itself; bytes live in versioned files and discussion in comments.
type Document struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Title     string    `json:"title"`
	CreatedBy int64     `json:"created_by"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Version is one immutable uploaded revision of a document's file. Version
// numbers start at 1 and increase without gaps per document.
type Version struct {
	ID            int64     `json:"id"`
	DocumentID    int64     `json:"document_id"`
	VersionNumber int       `json:"version_number"`
	Filename      string    `json:"filename"`
	BlobKey       string    `json:"blob_key"`
	ContentType   string    `json:"content_type,omitempty"`
	SizeBytes     int64     `json:"size_bytes"`
	UploadedBy    int64     `json:"uploaded_by"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// Comment is a discussion entry on a document
type Comment struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	AuthorID   int64     `json:"author_id"`
	Body       string    `json:"body"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}
