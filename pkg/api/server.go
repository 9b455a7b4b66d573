package api

import (
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vellum-app/vellum/pkg/access"
	"github.com/vellum-app/vellum/pkg/audit"
	"github.com/vellum-app/vellum/pkg/documents"
	"github.com/vellum-app/vellum/pkg/httputil"
	"github.com/vellum-app/vellum/pkg/middleware"
	"github.com/vellum-app/vellum/pkg/observability"
	"github.com/vellum-app/vellum/pkg/projects"
)

// Server exposes the access engine, projects, documents and the audit log
// over HTTP
type Server struct {
	router *mux.Router

	engine    *access.Engine
	resolver  *access.Resolver
	projects  *projects.Store
	documents *documents.Service
	audit     *audit.Store

	logger  *observability.Logger
	metrics *observability.Metrics
}

// Deps carries the wired components the server fronts. Redis is optional;
// without it rate limiting is skipped.
type Deps struct {
	Engine    *access.Engine
	Projects  *projects.Store
	Documents *documents.Service
	Audit     *audit.Store
	Redis     *redis.Client
	Logger    *observability.Logger
	Metrics   *observability.Metrics
}

// NewServer creates the API server and registers all routes
func NewServer(deps Deps) *Server {
	s := &Server{
		router:    mux.NewRouter(),
		engine:    deps.Engine,
		resolver:  deps.Engine.Resolver(),
		projects:  deps.Projects,
		documents: deps.Documents,
		audit:     deps.Audit,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
	s.setupRoutes(deps.Redis)
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes(redisClient *redis.Client) {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	stack := []mux.MiddlewareFunc{
		middleware.RequestID,
		middleware.Logging(s.logger),
		middleware.Recovery(s.logger),
		middleware.Actor,
	}
	if s.metrics != nil {
		stack = append(stack, observability.HTTPMetricsMiddleware(s.metrics))
	}
	if redisClient != nil {
		stack = append(stack, middleware.NewRateLimit(redisClient, s.logger).Handler)
	}
	stack = append(stack, middleware.RequireActor)
	api.Use(stack...)

	// Project routes
	api.HandleFunc("/projects", s.createProject).Methods("POST")
	api.HandleFunc("/projects", s.listProjects).Methods("GET")
	api.HandleFunc("/projects/{projectID}", s.getProject).Methods("GET")
	api.HandleFunc("/projects/{projectID}", s.updateProject).Methods("PUT")
	api.HandleFunc("/projects/{projectID}", s.retireProject).Methods("DELETE")

	// Project membership routes
	api.HandleFunc("/projects/{projectID}/members", s.shareProject).Methods("POST")
	api.HandleFunc("/projects/{projectID}/members/{userID}", s.changeProjectRole).Methods("PUT")
	api.HandleFunc("/projects/{projectID}/members/{userID}", s.unshareProject).Methods("DELETE")

	// Document routes
	api.HandleFunc("/projects/{projectID}/documents", s.createDocument).Methods("POST")
	api.HandleFunc("/projects/{projectID}/documents", s.listDocuments).Methods("GET")
	api.HandleFunc("/documents/{documentID}", s.getDocument).Methods("GET")
	api.HandleFunc("/documents/{documentID}", s.retireDocument).Methods("DELETE")

	// Document sharing routes
	api.HandleFunc("/documents/{documentID}/shares", s.shareDocument).Methods("POST")
	api.HandleFunc("/documents/{documentID}/shares/{userID}", s.changeDocumentRole).Methods("PUT")
	api.HandleFunc("/documents/{documentID}/shares/{userID}", s.unshareDocument).Methods("DELETE")
	api.HandleFunc("/documents/{documentID}/access", s.effectiveAccess).Methods("GET")

	// File version routes
	api.HandleFunc("/documents/{documentID}/versions", s.uploadVersion).Methods("POST")
	api.HandleFunc("/documents/{documentID}/versions", s.listVersions).Methods("GET")
	api.HandleFunc("/documents/{documentID}/content", s.downloadContent).Methods("GET")

	// Comment routes
	api.HandleFunc("/documents/{documentID}/comments", s.addComment).Methods("POST")
	api.HandleFunc("/documents/{documentID}/comments", s.listComments).Methods("GET")

	// Audit routes
	api.HandleFunc("/audit", s.queryAudit).Methods("GET")
	api.HandleFunc("/audit/export", s.exportAudit).Methods("GET")
}

// Handler returns the root handler, wrapped for trace propagation
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "vellum-api")
}

// writeDomainError maps a domain error to its HTTP response and counts
// denials
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := httputil.StatusForError(err)
	if status == http.StatusInternalServerError {
		observability.FromContext(r.Context()).WithError(err).Error("request failed")
	}
	if status == http.StatusForbidden && s.metrics != nil {
		s.metrics.AccessDeniedTotal.WithLabelValues(operation).Inc()
	}
	httputil.WriteDomainError(w, err)
}

// documentRef loads the document's project pairing for access operations.
// The ref carries no authorization; the engine decides that.
func (s *Server) documentRef(w http.ResponseWriter, r *http.Request) (access.DocumentRef, bool) {
	documentID, ok := httputil.ParsePathInt64OrError(w, r, "documentID")
	if !ok {
		return access.DocumentRef{}, false
	}

	doc, err := s.documents.Store().Get(r.Context(), documentID)
	if err != nil {
		s.writeDomainError(w, r, "document_lookup", err)
		return access.DocumentRef{}, false
	}
	if doc == nil {
		httputil.WriteNotFoundError(w, "document not found")
		return access.DocumentRef{}, false
	}
	return access.DocumentRef{ID: doc.ID, ProjectID: doc.ProjectID}, true
}
