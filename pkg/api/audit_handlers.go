package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/vellum-app/vellum/pkg/access"
	"github.com/vellum-app/vellum/pkg/audit"
	"github.com/vellum-app/vellum/pkg/httputil"
	"github.com/vellum-app/vellum/pkg/middleware"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// queryAudit retrieves audit records for a document or project the actor
// manages, newest first
func (s *Server) queryAudit(w http.ResponseWriter, r *http.Request) {
	filter, ok := s.auditFilter(w, r)
	if !ok {
		return
	}

	records, err := s.audit.Query(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, r, "audit_query", err)
		return
	}
	if records == nil {
		records = []*audit.Record{}
	}
	httputil.WriteSuccess(w, records)
}

// exportAudit serializes matching records in the requested format;
// ?format=csv (default), json or ndjson
func (s *Server) exportAudit(w http.ResponseWriter, r *http.Request) {
	filter, ok := s.auditFilter(w, r)
	if !ok {
		return
	}

	format := audit.ExportFormat(httputil.ParseQueryString(r, "format", string(audit.ExportFormatCSV)))

	records, err := s.audit.Query(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, r, "audit_export", err)
		return
	}

	data, err := audit.Export(records, format)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	if s.metrics != nil {
		s.metrics.AuditExportsTotal.WithLabelValues(string(format)).Inc()
	}

	switch format {
	case audit.ExportFormatJSON:
		w.Header().Set("Content-Type", "application/json")
	case audit.ExportFormatNDJSON:
		w.Header().Set("Content-Type", "application/x-ndjson")
	default:
		w.Header().Set("Content-Type", "text/csv")
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "audit-export-"+time.Now().UTC().Format("20060102")+"."+string(format)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// auditFilter parses the query predicates and authorizes the actor for the
// requested scope. A document or project scope is mandatory: the audit log
// is never exposed unscoped.
func (s *Server) auditFilter(w http.ResponseWriter, r *http.Request) (audit.Filter, bool) {
	var filter audit.Filter

	documentID, err := httputil.ParseQueryInt64(r, "document_id", 0)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return filter, false
	}
	projectID, err := httputil.ParseQueryInt64(r, "project_id", 0)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return filter, false
	}

	actorID := middleware.ActorID(r)
	switch {
	case documentID > 0:
		doc, err := s.documents.Store().Get(r.Context(), documentID)
		if err != nil {
			s.writeDomainError(w, r, "audit_query", err)
			return filter, false
		}
		if doc == nil {
			httputil.WriteNotFoundError(w, "document not found")
			return filter, false
		}
		ref := access.DocumentRef{ID: doc.ID, ProjectID: doc.ProjectID}
		canManage, err := s.resolver.CanManage(r.Context(), actorID, ref)
		if err != nil {
			s.writeDomainError(w, r, "audit_query", err)
			return filter, false
		}
		if !canManage {
			s.writeDomainError(w, r, "audit_query", access.ErrForbidden)
			return filter, false
		}
		filter.DocumentID = &documentID
	case projectID > 0:
		if !s.requireProjectOwner(w, r, "audit_query", projectID) {
			return filter, false
		}
		filter.ProjectID = &projectID
	default:
		httputil.WriteValidationError(w, "document_id or project_id is required")
		return filter, false
	}

	if v, err := httputil.ParseQueryInt64(r, "actor_id", 0); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return filter, false
	} else if v > 0 {
		filter.ActorID = &v
	}
	if v, err := httputil.ParseQueryInt64(r, "target_id", 0); err != nil {
		httputil.WriteValidationError(w, err.Error())
		return filter, false
	} else if v > 0 {
		filter.TargetID = &v
	}

	if raw := httputil.ParseQueryString(r, "action", ""); raw != "" {
		action := audit.Action(raw)
		if !action.Valid() {
			httputil.WriteValidationError(w, fmt.Sprintf("invalid action: %q", raw))
			return filter, false
		}
		filter.Action = &action
	}

	if t, ok := parseQueryTime(w, r, "since"); !ok {
		return filter, false
	} else if t != nil {
		filter.Since = t
	}
	if t, ok := parseQueryTime(w, r, "until"); !ok {
		return filter, false
	} else if t != nil {
		filter.Until = t
	}

	limit, err := httputil.ParseQueryInt(r, "limit", defaultAuditLimit)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return filter, false
	}
	if limit <= 0 || limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	filter.Limit = limit

	offset, err := httputil.ParseQueryInt(r, "offset", 0)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return filter, false
	}
	filter.Offset = offset

	return filter, true
}

func parseQueryTime(w http.ResponseWriter, r *http.Request, key string) (*time.Time, bool) {
	raw := httputil.ParseQueryString(r, key, "")
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		httputil.WriteValidationError(w, fmt.Sprintf("invalid %s (want RFC 3339): %s", key, raw))
		return nil, false
	}
	return &t, true
}
