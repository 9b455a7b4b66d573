// Package api implements the HTTP surface of the service.
//
// # Routes
//
// Everything lives under /api/v1 and requires an authenticated actor
// (X-Actor-ID, injected by the upstream gateway):
//
//	POST   /projects                              create project (actor becomes owner)
//	GET    /projects                              list actor's projects
//	GET    /projects/{id}                         project metadata
//	PUT    /projects/{id}                         rename (owners)
//	DELETE /projects/{id}                         retire (owners)
//	POST   /projects/{id}/members                 add member
//	PUT    /projects/{id}/members/{userID}        change membership role
//	DELETE /projects/{id}/members/{userID}        remove member
//	POST   /projects/{id}/documents               create document
//	GET    /projects/{id}/documents               list documents
//	GET    /documents/{id}                        document metadata
//	DELETE /documents/{id}                        retire document
//	POST   /documents/{id}/shares                 grant direct role
//	PUT    /documents/{id}/shares/{userID}        change grant role
//	DELETE /documents/{id}/shares/{userID}        revoke grant
//	GET    /documents/{id}/access                 effective role resolution
//	POST   /documents/{id}/versions?filename=     upload file revision
//	GET    /documents/{id}/versions               revision history
//	GET    /documents/{id}/content?version=       download (0 = latest)
//	POST   /documents/{id}/comments               post comment
//	GET    /documents/{id}/comments               list comments
//	GET    /audit?document_id=|project_id=        query audit records
//	GET    /audit/export?format=csv|json|ndjson   export audit records
//
// # Authorization
//
// Handlers never decide permissions themselves. Sharing operations
// delegate to the access engine; reads consult the resolver; audit queries
// require manage rights on the requested scope.
//
// # Related Packages
//
//   - pkg/access: engine and resolver behind the sharing routes
//   - pkg/middleware: request pipeline (actor extraction, rate limits)
//   - pkg/httputil: JSON helpers and domain error mapping
package api
