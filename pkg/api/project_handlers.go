package api

import (
	"net/http"

	"github.com/vellum-app/vellum/pkg/access"
	"github.com/vellum-app/vellum/pkg/httputil"
	"github.com/vellum-app/vellum/pkg/middleware"
	"github.com/vellum-app/vellum/pkg/projects"
)

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type updateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// createProject makes a new project with the actor as its first owner
func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	project, err := s.projects.Create(r.Context(), req.Name, req.Description, middleware.ActorID(r))
	if err != nil {
		s.writeDomainError(w, r, "project_create", err)
		return
	}
	httputil.WriteCreated(w, project)
}

// listProjects lists the projects the actor is a member of
func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.projects.ListForUser(r.Context(), middleware.ActorID(r))
	if err != nil {
		s.writeDomainError(w, r, "project_list", err)
		return
	}
	if list == nil {
		list = []*projects.Project{}
	}
	httputil.WriteSuccess(w, list)
}

// getProject retrieves one project the actor can see
func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}

	canView, err := s.resolver.CanView(r.Context(), middleware.ActorID(r), access.DocumentRef{ProjectID: projectID})
	if err != nil {
		s.writeDomainError(w, r, "project_get", err)
		return
	}
	if !canView {
		s.writeDomainError(w, r, "project_get", access.ErrForbidden)
		return
	}

	project, err := s.projects.Get(r.Context(), projectID)
	if err != nil {
		s.writeDomainError(w, r, "project_get", err)
		return
	}
	if project == nil {
		httputil.WriteNotFoundError(w, "project not found")
		return
	}
	httputil.WriteSuccess(w, project)
}

// updateProject renames a project; owners only
func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}

	var req updateProjectRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") {
		return
	}

	if !s.requireProjectOwner(w, r, "project_update", projectID) {
		return
	}

	project, err := s.projects.Update(r.Context(), projectID, req.Name, req.Description)
	if err != nil {
		s.writeDomainError(w, r, "project_update", err)
		return
	}
	if project == nil {
		httputil.WriteNotFoundError(w, "project not found")
		return
	}
	httputil.WriteSuccess(w, project)
}

// retireProject soft-deletes a project; owners only
func (s *Server) retireProject(w http.ResponseWriter, r *http.Request) {
	projectID, ok := httputil.ParsePathInt64OrError(w, r, "projectID")
	if !ok {
		return
	}

	if !s.requireProjectOwner(w, r, "project_retire", projectID) {
		return
	}

	retired, err := s.projects.Retire(r.Context(), projectID)
	if err != nil {
		s.writeDomainError(w, r, "project_retire", err)
		return
	}
	if !retired {
		httputil.WriteNotFoundError(w, "project not found")
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) requireProjectOwner(w http.ResponseWriter, r *http.Request, operation string, projectID int64) bool {
	ok, err := s.resolver.CanManageProject(r.Context(), middleware.ActorID(r), projectID)
	if err != nil {
		s.writeDomainError(w, r, operation, err)
		return false
	}
	if !ok {
		s.writeDomainError(w, r, operation, access.ErrForbidden)
		return false
	}
	return true
}
