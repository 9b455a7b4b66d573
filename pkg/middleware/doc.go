// Package middleware provides the HTTP middleware stack for the API server.
//
// # Request Pipeline
//
// The server wires middleware in this order:
//
//	RequestID -> Logging -> Recovery -> Actor -> RateLimit -> handlers
//
// RequestID assigns or propagates X-Request-ID. Logging emits one line per
// request and seeds the context logger. Actor pulls the authenticated user
// from the X-Actor-ID header set by the upstream gateway; handlers behind
// RequireActor can assume it is present.
//
// # Rate Limiting
//
// Limits are enforced with Redis fixed-window counters keyed per actor (or
// per client IP for anonymous requests), shared across instances. Redis
// outages fail open.
//
// # Related Packages
//
//   - pkg/observability: context keys for request ID and actor
//   - pkg/httputil: response helpers used for rejections
package middleware
