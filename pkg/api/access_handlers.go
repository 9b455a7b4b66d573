package api

import (
	"fmt"
	"net/http"

	"github.com/vellum-app/vellum/pkg/access"
	"github.com/vellum-app/vellum/pkg/httputil"
	"github.com/vellum-app/vellum/pkg/middleware"
	"github.com/vellum-app/vellum/pkg/roles"
)

type shareRequest struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

// shareDocument grants a project member a direct role on a document
func (s *Server) shareDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.documentRef(w, r)
	if !ok {
		return
	}

	var req shareRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequirePositive(w, req.UserID, "user_id") {
		return
	}
	role, ok := parseDocumentRole(w, req.Role)
	if !ok {
		return
	}

	record, err := s.engine.Share(r.Context(), middleware.ActorID(r), req.UserID, doc, role)
	if err != nil {
		s.writeDomainError(w, r, "document_share", err)
		return
	}
	httputil.WriteCreated(w, record)
}

// changeDocumentRole replaces an existing grant's role
func (s *Server) changeDocumentRole(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.documentRef(w, r)
	if !ok {
		return
	}
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userID")
	if !ok {
		return
	}

	var req changeRoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	role, ok := parseDocumentRole(w, req.Role)
	if !ok {
		return
	}

	record, err := s.engine.ChangeRole(r.Context(), middleware.ActorID(r), userID, doc, role)
	if err != nil {
		s.writeDomainError(w, r, "document_change_role", err)
		return
	}
	httputil.WriteSuccess(w, record)
}

// unshareDocument removes a direct grant
func (s *Server) unshareDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.documentRef(w, r)
	if !ok {
		return
	}
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userID")
	if !ok {
		return
	}

	record, err := s.engine.Unshare(r.Context(), middleware.ActorID(r), userID, doc)
	if err != nil {
		s.writeDomainError(w, r, "document_unshare", err)
		return
	}
	httputil.WriteSuccess(w, record)
}

// effectiveAccess resolves a user's effective role on a document. Actors may
// always inspect themselves; inspecting someone else requires manage rights.
func (s *Server) effectiveAccess(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.documentRef(w, r)
	if !ok {
		return
	}

	actorID := middleware.ActorID(r)
	userID, err := httputil.ParseQueryInt64(r, "user_id", actorID)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if userID != actorID {
		canManage, err := s.resolver.CanManage(r.Context(), actorID, doc)
		if err != nil {
			s.writeDomainError(w, r, "access_inspect", err)
			return
		}
		if !canManage {
			s.writeDomainError(w, r, "access_inspect", access.ErrForbidden)
			return
		}
	}

	resolution, err := s.resolver.EffectiveDocumentRole(r.Context(), userID, doc)
	if err != nil {
		s.writeDomainError(w, r, "access_inspect", err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"user_id":     userID,
		"document_id": doc.ID,
		"role":        resolution.Role,
		"source":      resolution.Source,
	})
}

// shareProject adds a member to a project
func (s *Server) shareProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}

	var req shareRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequirePositive(w, req.UserID, "user_id") {
		return
	}
	role, ok := parseProjectRole(w, req.Role)
	if !ok {
		return
	}

	record, err := s.engine.ProjectShare(r.Context(), middleware.ActorID(r), req.UserID, projectID, role)
	if err != nil {
		s.writeDomainError(w, r, "project_share", err)
		return
	}
	httputil.WriteCreated(w, record)
}

// changeProjectRole replaces an existing membership's role
func (s *Server) changeProjectRole(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userID")
	if !ok {
		return
	}

	var req changeRoleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	role, ok := parseProjectRole(w, req.Role)
	if !ok {
		return
	}

	record, err := s.engine.ProjectChangeRole(r.Context(), middleware.ActorID(r), userID, projectID, role)
	if err != nil {
		s.writeDomainError(w, r, "project_change_role", err)
		return
	}
	httputil.WriteSuccess(w, record)
}

// unshareProject removes a member from a project; their document grants in
// the project survive until unshared individually
func (s *Server) unshareProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}
	userID, ok := httputil.ParsePathInt64OrError(w, r, "userID")
	if !ok {
		return
	}

	record, err := s.engine.ProjectUnshare(r.Context(), middleware.ActorID(r), userID, projectID)
	if err != nil {
		s.writeDomainError(w, r, "project_unshare", err)
		return
	}
	httputil.WriteSuccess(w, record)
}

func parseDocumentRole(w http.ResponseWriter, raw string) (roles.DocumentRole, bool) {
	role, ok := roles.ParseDocumentRole(raw)
	if !ok {
		httputil.WriteValidationError(w, fmt.Sprintf("invalid document role: %q", raw))
		return "", false
	}
	return role, true
}

func parseProjectRole(w http.ResponseWriter, raw string) (roles.ProjectRole, bool) {
	role, ok := roles.ParseProjectRole(raw)
	if !ok {
		httputil.WriteValidationError(w, fmt.Sprintf("invalid project role: %q", raw))
		return "", false
	}
	return role, true
}
