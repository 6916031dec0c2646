// Package observability provides logging, metrics and health checks for the CRM.
//
// # Logging
//
// NewLogger builds a logrus logger with a JSON (server) or text (CLI) formatter.
// Request handlers carry a logger in the context and annotate it with the request
// ID and signed-in user:
//
//	ctx = observability.WithLogger(ctx, logger)
//	ctx = observability.WithRequestID(ctx, id)
//	observability.FromContext(ctx).Info("lead completed")
//
// # Metrics
//
// NewMetrics registers the crm_* Prometheus collectors on a registry. Record*
// helpers tolerate a nil *Metrics so packages can be used without instrumentation.
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	observability.RegisterMetricsEndpoint(mux, registry)
//
// # Health Checks
//
// HealthChecker aggregates named CheckFuncs. Required checks make the service
// unhealthy when they fail; optional checks only degrade it.
//
// # Shutdown
//
// ShutdownManager runs registered shutdown functions newest first under a single
// timeout.
package observability
