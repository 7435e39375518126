// Package api provides the HTTP API handlers and routing for the notifier service.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"notifier/internal/apperrors"
	"notifier/internal/health"
	"notifier/internal/project"
	"notifier/internal/publisher"
)

// maxRequestBodySize limits request body to 1MB to prevent memory exhaustion
const maxRequestBodySize = 1 << 20 // 1 MB

// correlationHeader carries the caller-supplied correlation ID, passed
// through to the downstream receiver unmodified.
const correlationHeader = "X-Correlation-Id"

// Handler contains HTTP handlers for the notifier API
type Handler struct {
	svc       *project.Service
	publisher *publisher.Publisher
	health    *health.Checker
}

// NewHandler creates a new API handler
func NewHandler(svc *project.Service, pub *publisher.Publisher, healthChecker *health.Checker) *Handler {
	return &Handler{
		svc:       svc,
		publisher: pub,
		health:    healthChecker,
	}
}

// CreateProject handles POST /v1/projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	// Limit request body size to prevent memory exhaustion
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req project.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.svc.Create(r.Context(), &req, r.Header.Get(correlationHeader))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, p)
}

// ListProjects handles GET /v1/projects
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.List(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// GetProject handles GET /v1/projects/{projectId}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if projectID == "" {
		h.writeError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	p, err := h.svc.Get(r.Context(), projectID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

// UpdateProject handles PATCH /v1/projects/{projectId}
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if projectID == "" {
		h.writeError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req project.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.svc.Update(r.Context(), projectID, &req, r.Header.Get(correlationHeader))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

// ArchiveProject handles POST /v1/projects/{projectId}/archive
func (h *Handler) ArchiveProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if projectID == "" {
		h.writeError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	p, err := h.svc.Archive(r.Context(), projectID, r.Header.Get(correlationHeader))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

// UpdateProjectFiles handles PUT /v1/projects/{projectId}/files
func (h *Handler) UpdateProjectFiles(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if projectID == "" {
		h.writeError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req project.FilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, err := h.svc.UpdateFiles(r.Context(), projectID, &req, r.Header.Get(correlationHeader))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

// DeleteProject handles DELETE /v1/projects/{projectId}
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	if projectID == "" {
		h.writeError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	if err := h.svc.Delete(r.Context(), projectID, r.Header.Get(correlationHeader)); err != nil {
		h.handleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// NotifierHealth handles GET /v1/notifier/health - the publisher's status report.
func (h *Handler) NotifierHealth(w http.ResponseWriter, r *http.Request) {
	status := h.publisher.HealthCheck(r.Context())

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}

	h.writeJSON(w, code, status)
}

// NotifierMetrics handles GET /v1/notifier/metrics - in-memory counter snapshot.
func (h *Handler) NotifierMetrics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.publisher.Metrics())
}

// ResetNotifierMetrics handles POST /v1/notifier/metrics/reset
func (h *Handler) ResetNotifierMetrics(w http.ResponseWriter, r *http.Request) {
	h.publisher.ResetMetrics()
	w.WriteHeader(http.StatusNoContent)
}

// Livez handles GET /livez - liveness probe.
// Returns 200 if the process is alive. Does not check dependencies.
func (h *Handler) Livez(w http.ResponseWriter, r *http.Request) {
	response := h.health.Liveness(r.Context())
	h.writeJSON(w, http.StatusOK, response)
}

// Readyz handles GET /readyz - readiness probe.
// Returns 200 if the service is ready to accept traffic.
// Returns 503 if the downstream receiver is unreachable.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	response := h.health.Readiness(r.Context())

	status := http.StatusOK
	if !response.IsHealthy() {
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// handleError handles errors from service layer with appropriate HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= 500 {
		slog.Error("Internal error", "error", err, "path", r.URL.Path)
	} else {
		slog.Warn("Client error", "error", err, "path", r.URL.Path, "status", status)
	}
	h.writeError(w, status, err.Error())
}
