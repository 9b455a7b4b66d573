package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/vellum-app/vellum/pkg/documents"
	"github.com/vellum-app/vellum/pkg/httputil"
	"github.com/vellum-app/vellum/pkg/middleware"
	"github.com/vellum-app/vellum/pkg/observability"
)

type createDocumentRequest struct {
	Title string `json:"title"`
}

type addCommentRequest struct {
	Body string `json:"body"`
}

// createDocument adds a document to a project
func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}

	var req createDocumentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Title, "title") {
		return
	}

	doc, err := s.documents.Create(r.Context(), middleware.ActorID(r), projectID, req.Title)
	if err != nil {
		s.writeDomainError(w, r, "document_create", err)
		return
	}
	httputil.WriteCreated(w, doc)
}

// listDocuments lists a project's documents
func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}

	list, err := s.documents.ListByProject(r.Context(), middleware.ActorID(r), projectID)
	if err != nil {
		s.writeDomainError(w, r, "document_list", err)
		return
	}
	if list == nil {
		list = []*documents.Document{}
	}
	httputil.WriteSuccess(w, list)
}

// getDocument retrieves document metadata
func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	documentID, ok := httputil.ParsePathInt64OrError(w, r, "documentID")
	if !ok {
		return
	}

	doc, err := s.documents.Get(r.Context(), middleware.ActorID(r), documentID)
	if err != nil {
		s.writeDomainError(w, r, "document_get", err)
		return
	}
	httputil.WriteSuccess(w, doc)
}

// retireDocument soft-deletes a document
func (s *Server) retireDocument(w http.ResponseWriter, r *http.Request) {
	documentID, ok := httputil.ParsePathInt64OrError(w, r, "documentID")
	if !ok {
		return
	}

	if err := s.documents.Retire(r.Context(), middleware.ActorID(r), documentID); err != nil {
		s.writeDomainError(w, r, "document_retire", err)
		return
	}
	httputil.WriteNoContent(w)
}

// uploadVersion stores a new file revision. The body is the raw file
// content; the filename comes from the query string.
func (s *Server) uploadVersion(w http.ResponseWriter, r *http.Request) {
	documentID, ok := httputil.ParsePathInt64OrError(w, r, "documentID")
	if !ok {
		return
	}

	filename := httputil.ParseQueryString(r, "filename", "")
	if !httputil.RequireNonEmpty(w, filename, "filename") {
		return
	}
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	version, err := s.documents.UploadVersion(r.Context(), middleware.ActorID(r), documentID, filename, contentType, r.Body)
	if err != nil {
		s.writeDomainError(w, r, "version_upload", err)
		return
	}
	httputil.WriteCreated(w, version)
}

// listVersions retrieves a document's revision history
func (s *Server) listVersions(w http.ResponseWriter, r *http.Request) {
	documentID, ok := httputil.ParsePathInt64OrError(w, r, "documentID")
	if !ok {
		return
	}

	list, err := s.documents.ListVersions(r.Context(), middleware.ActorID(r), documentID)
	if err != nil {
		s.writeDomainError(w, r, "version_list", err)
		return
	}
	if list == nil {
		list = []*documents.Version{}
	}
	httputil.WriteSuccess(w, list)
}

// downloadContent streams one file revision; ?version=N, absent or 0 means
// the latest
func (s *Server) downloadContent(w http.ResponseWriter, r *http.Request) {
	documentID, ok := httputil.ParsePathInt64OrError(w, r, "documentID")
	if !ok {
		return
	}
	versionNumber, err := httputil.ParseQueryInt(r, "version", 0)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	content, version, err := s.documents.OpenVersion(r.Context(), middleware.ActorID(r), documentID, versionNumber)
	if err != nil {
		s.writeDomainError(w, r, "content_download", err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", version.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", version.Filename))
	if version.SizeBytes > 0 {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", version.SizeBytes))
	}
	if _, err := io.Copy(w, content); err != nil {
		// headers are already out; nothing to do but note it
		observability.FromContext(r.Context()).WithError(err).Warn("content stream interrupted")
	}
}

// addComment posts a comment on a document
func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	documentID, ok := httputil.ParsePathInt64OrError(w, r, "documentID")
	if !ok {
		return
	}

	var req addCommentRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Body, "body") {
		return
	}

	comment, err := s.documents.AddComment(r.Context(), middleware.ActorID(r), documentID, req.Body)
	if err != nil {
		s.writeDomainError(w, r, "comment_add", err)
		return
	}
	httputil.WriteCreated(w, comment)
}

// listComments retrieves a document's discussion
func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	documentID, ok := httputil.ParsePathInt64OrError(w, r, "documentID")
	if !ok {
		return
	}

	list, err := s.documents.ListComments(r.Context(), middleware.ActorID(r), documentID)
	if err != nil {
		s.writeDomainError(w, r, "comment_list", err)
		return
	}
	if list == nil {
		list = []*documents.Comment{}
	}
	httputil.WriteSuccess(w, list)
}
