// Package observability provides structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("project_id", id).Info("project retired")
//
// Request-scoped fields travel through the context; FromContext builds a
// logger carrying the request id and actor id the middleware stored there.
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.GrantMutationsTotal.WithLabelValues("document", "shared").Inc()
//
// # Health Checks
//
// Configure health checker:
//
//	checker := observability.NewHealthChecker(db, redisClient, blobStore)
//	status := checker.Check(ctx)
//
// Redis and blob storage are optional dependencies; losing them degrades the
// service rather than failing readiness.
//
// # OpenTelemetry
//
// Tracing only; metrics stay on Prometheus. InitOTel wires an OTLP gRPC
// exporter and sets the global tracer provider.
//
// # Related Packages
//
//   - pkg/config: observability configuration
//   - pkg/middleware: request logging middleware
package observability
