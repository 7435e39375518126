package api

import (
	"net/http"

	"notifier/internal/health"
	"notifier/internal/observability"
	"notifier/internal/project"
	"notifier/internal/publisher"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	ProjectService *project.Service
	Publisher      *publisher.Publisher
	Metrics        *observability.Metrics
	HealthChecker  *health.Checker
	APIKey         string
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	handler := NewHandler(cfg.ProjectService, cfg.Publisher, cfg.HealthChecker)

	mux := http.NewServeMux()

	// Health check endpoints (liveness/readiness probes) - no auth required
	mux.HandleFunc("GET /livez", handler.Livez)
	mux.HandleFunc("GET /readyz", handler.Readyz)

	// Publisher status endpoints - read-only, no auth
	mux.HandleFunc("GET /v1/notifier/health", handler.NotifierHealth)
	mux.HandleFunc("GET /v1/notifier/metrics", handler.NotifierMetrics)

	// Auth required for mutations
	authMiddleware := AuthMiddleware(cfg.APIKey)
	mux.Handle("POST /v1/notifier/metrics/reset", authMiddleware(http.HandlerFunc(handler.ResetNotifierMetrics)))

	// Project endpoints - auth required
	mux.Handle("POST /v1/projects", authMiddleware(http.HandlerFunc(handler.CreateProject)))
	mux.Handle("GET /v1/projects", authMiddleware(http.HandlerFunc(handler.ListProjects)))
	mux.Handle("GET /v1/projects/{projectId}", authMiddleware(http.HandlerFunc(handler.GetProject)))
	mux.Handle("PATCH /v1/projects/{projectId}", authMiddleware(http.HandlerFunc(handler.UpdateProject)))
	mux.Handle("POST /v1/projects/{projectId}/archive", authMiddleware(http.HandlerFunc(handler.ArchiveProject)))
	mux.Handle("PUT /v1/projects/{projectId}/files", authMiddleware(http.HandlerFunc(handler.UpdateProjectFiles)))
	mux.Handle("DELETE /v1/projects/{projectId}", authMiddleware(http.HandlerFunc(handler.DeleteProject)))

	// Apply middleware chain (order matters: outermost first)
	var h http.Handler = mux
	h = ContentTypeMiddleware()(h)
	h = CORSMiddleware()(h)
	if cfg.Metrics != nil {
		h = MetricsMiddleware(cfg.Metrics)(h)
	}
	h = LoggingMiddleware()(h)
	h = RecoveryMiddleware()(h)

	return h
}
