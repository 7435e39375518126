// Package project manages the project resource and notifies the downstream
// orchestration system of every state change through the event publisher.
package project

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"time"

	"notifier/internal/apperrors"
	"notifier/internal/observability"
)

// Validation limits
const (
	maxProjectIDLength   = 128
	maxNameLength        = 256
	maxDescriptionLength = 4096
	maxTagKeyLen         = 64
	maxTagValueLen       = 256
	maxTagEntries        = 32
	maxFiles             = 1024
	maxFilePathLen       = 512
)

// projectIDPattern allows alphanumeric, hyphens, and underscores
var projectIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// Notifier publishes project lifecycle events. Implemented by the event
// publisher; a method returning an error means the notification is a hard
// failure for the caller's operation.
type Notifier interface {
	PublishProjectCreated(ctx context.Context, payload map[string]any, correlationID string) error
	PublishProjectUpdated(ctx context.Context, payload map[string]any, correlationID string) error
	PublishProjectArchived(ctx context.Context, payload map[string]any, correlationID string) error
	PublishProjectDeleted(ctx context.Context, payload map[string]any, correlationID string) error
	PublishProjectFilesUpdated(ctx context.Context, payload map[string]any, correlationID string) error
}

// Service manages project lifecycle in memory and fans state changes out to
// the notifier. When a critical notification fails the mutation is rolled
// back so the store never diverges silently from what downstream saw.
//
// Every method returns a clone taken while holding the lock; stored structs
// are never shared with callers, so reads of a returned project never race
// with later mutations.
type Service struct {
	notifier Notifier
	metrics  *observability.Metrics

	mu       sync.RWMutex
	projects map[string]*Project
}

// NewService creates a new project service.
func NewService(notifier Notifier, metrics *observability.Metrics) *Service {
	return &Service{
		notifier: notifier,
		metrics:  metrics,
		projects: make(map[string]*Project),
	}
}

// Create validates, stores, and announces a new project. Notification failure
// rolls the creation back and propagates.
func (s *Service) Create(ctx context.Context, req *CreateRequest, correlationID string) (*Project, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Project{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	if _, exists := s.projects[p.ID]; exists {
		s.mu.Unlock()
		return nil, apperrors.Conflict("project", p.ID, fmt.Sprintf("project %s already exists", p.ID))
	}
	s.projects[p.ID] = p
	snap := p.Clone()
	s.mu.Unlock()

	logger := slog.With("projectId", p.ID)

	if err := s.notifier.PublishProjectCreated(ctx, payloadFor(snap), correlationID); err != nil {
		s.mu.Lock()
		delete(s.projects, p.ID)
		s.mu.Unlock()
		logger.Error("Project creation rolled back, notification failed", "error", err)
		s.recordOp(ctx, "create", false)
		return nil, err
	}

	s.recordOp(ctx, "create", true)
	logger.Info("Project created")
	return snap, nil
}

// Get returns a copy of a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.projects[id]
	if !exists {
		return nil, apperrors.NotFound("project", id)
	}
	return p.Clone(), nil
}

// List returns copies of all projects ordered by ID.
func (s *Service) List(ctx context.Context) (*ListResponse, error) {
	s.mu.RLock()
	projects := make([]*Project, 0, len(s.projects))
	for _, p := range s.projects {
		projects = append(projects, p.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return &ListResponse{Projects: projects}, nil
}

// Update applies a metadata update. The notification is best-effort: the
// publisher swallows delivery failures for updates, so the local change
// always sticks.
func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest, correlationID string) (*Project, error) {
	if err := validateUpdate(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	p, exists := s.projects[id]
	if !exists {
		s.mu.Unlock()
		return nil, apperrors.NotFound("project", id)
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Tags != nil {
		p.Tags = req.Tags
	}
	p.UpdatedAt = time.Now().UTC()
	snap := p.Clone()
	s.mu.Unlock()

	// Best-effort notification: the publisher logs and counts delivery
	// failures for updates itself and never returns them.
	_ = s.notifier.PublishProjectUpdated(ctx, payloadFor(snap), correlationID)

	s.recordOp(ctx, "update", true)
	slog.Info("Project updated", "projectId", id)
	return snap, nil
}

// Archive marks a project archived. Best-effort notification.
func (s *Service) Archive(ctx context.Context, id string, correlationID string) (*Project, error) {
	s.mu.Lock()
	p, exists := s.projects[id]
	if !exists {
		s.mu.Unlock()
		return nil, apperrors.NotFound("project", id)
	}
	if p.Archived {
		s.mu.Unlock()
		return nil, apperrors.Conflict("project", id, fmt.Sprintf("project %s is already archived", id))
	}
	p.Archived = true
	p.UpdatedAt = time.Now().UTC()
	snap := p.Clone()
	s.mu.Unlock()

	_ = s.notifier.PublishProjectArchived(ctx, payloadFor(snap), correlationID)

	s.recordOp(ctx, "archive", true)
	slog.Info("Project archived", "projectId", id)
	return snap, nil
}

// UpdateFiles replaces a project's generated-file set. Notification failure
// restores the previous set and propagates.
func (s *Service) UpdateFiles(ctx context.Context, id string, req *FilesRequest, correlationID string) (*Project, error) {
	if err := validateFiles(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	p, exists := s.projects[id]
	if !exists {
		s.mu.Unlock()
		return nil, apperrors.NotFound("project", id)
	}
	previous := p.Files
	p.Files = req.Files
	p.UpdatedAt = time.Now().UTC()
	snap := p.Clone()
	s.mu.Unlock()

	payload := payloadFor(snap)
	payload["fileCount"] = len(req.Files)

	logger := slog.With("projectId", id, "files", len(req.Files))

	if err := s.notifier.PublishProjectFilesUpdated(ctx, payload, correlationID); err != nil {
		s.mu.Lock()
		p.Files = previous
		s.mu.Unlock()
		logger.Error("File-set update rolled back, notification failed", "error", err)
		s.recordOp(ctx, "files", false)
		return nil, err
	}

	s.recordOp(ctx, "files", true)
	logger.Info("Project file set updated")
	return snap, nil
}

// Delete removes a project. Notification failure reinstates the project and
// propagates.
func (s *Service) Delete(ctx context.Context, id string, correlationID string) error {
	s.mu.Lock()
	p, exists := s.projects[id]
	if !exists {
		s.mu.Unlock()
		return apperrors.NotFound("project", id)
	}
	delete(s.projects, id)
	payload := payloadFor(p)
	s.mu.Unlock()

	logger := slog.With("projectId", id)

	if err := s.notifier.PublishProjectDeleted(ctx, payload, correlationID); err != nil {
		s.mu.Lock()
		s.projects[id] = p
		s.mu.Unlock()
		logger.Error("Project deletion rolled back, notification failed", "error", err)
		s.recordOp(ctx, "delete", false)
		return err
	}

	s.recordOp(ctx, "delete", true)
	logger.Info("Project deleted")
	return nil
}

func (s *Service) recordOp(ctx context.Context, op string, success bool) {
	if s.metrics != nil {
		s.metrics.RecordProjectOp(ctx, op, success)
	}
}

// payloadFor builds the event payload. The argument must be a caller-local
// clone or otherwise unshared, since fields are read without the lock.
func payloadFor(p *Project) map[string]any {
	return map[string]any{
		"projectId": p.ID,
		"name":      p.Name,
		"archived":  p.Archived,
		"updatedAt": p.UpdatedAt,
	}
}

func validateCreate(req *CreateRequest) error {
	if req.ID == "" {
		return apperrors.Validation("id", "project ID is required")
	}
	if len(req.ID) > maxProjectIDLength {
		return apperrors.Validation("id", fmt.Sprintf("project ID exceeds maximum length of %d", maxProjectIDLength))
	}
	if !projectIDPattern.MatchString(req.ID) {
		return apperrors.Validation("id", "project ID must be alphanumeric (hyphens and underscores allowed, cannot start with hyphen/underscore)")
	}
	if req.Name == "" {
		return apperrors.Validation("name", "project name is required")
	}
	if len(req.Name) > maxNameLength {
		return apperrors.Validation("name", fmt.Sprintf("name exceeds maximum length of %d", maxNameLength))
	}
	if len(req.Description) > maxDescriptionLength {
		return apperrors.Validation("description", fmt.Sprintf("description exceeds maximum length of %d", maxDescriptionLength))
	}
	return validateTags(req.Tags)
}

func validateUpdate(req *UpdateRequest) error {
	if req.Name != nil {
		if *req.Name == "" {
			return apperrors.Validation("name", "project name cannot be empty")
		}
		if len(*req.Name) > maxNameLength {
			return apperrors.Validation("name", fmt.Sprintf("name exceeds maximum length of %d", maxNameLength))
		}
	}
	if req.Description != nil && len(*req.Description) > maxDescriptionLength {
		return apperrors.Validation("description", fmt.Sprintf("description exceeds maximum length of %d", maxDescriptionLength))
	}
	return validateTags(req.Tags)
}

func validateTags(tags map[string]string) error {
	if len(tags) > maxTagEntries {
		return apperrors.Validation("tags", fmt.Sprintf("tags exceed maximum of %d entries", maxTagEntries))
	}
	for k, v := range tags {
		if len(k) > maxTagKeyLen {
			return apperrors.Validation("tags", fmt.Sprintf("tag key exceeds maximum length of %d", maxTagKeyLen))
		}
		if len(v) > maxTagValueLen {
			return apperrors.Validation("tags", fmt.Sprintf("tag value exceeds maximum length of %d", maxTagValueLen))
		}
	}
	return nil
}

func validateFiles(req *FilesRequest) error {
	if len(req.Files) > maxFiles {
		return apperrors.Validation("files", fmt.Sprintf("files exceed maximum of %d", maxFiles))
	}
	for i, f := range req.Files {
		if f.Path == "" {
			return apperrors.Validation("files", fmt.Sprintf("file %d: path is required", i))
		}
		if len(f.Path) > maxFilePathLen {
			return apperrors.Validation("files", fmt.Sprintf("file %d: path exceeds maximum length of %d", i, maxFilePathLen))
		}
		if f.SizeBytes < 0 {
			return apperrors.Validation("files", fmt.Sprintf("file %d: size cannot be negative", i))
		}
	}
	return nil
}
