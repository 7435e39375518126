// Package event defines the closed set of domain event kinds, their static
// delivery policy, and the immutable envelope sent to the downstream system.
package event

import (
	"strings"

	"notifier/pkg/backoff"
)

// SourceService identifies this publisher to receivers, which use it to
// reject spoofed envelopes.
const SourceService = "project-service"

// Type is a domain event kind. The set is closed; receivers reject unknown
// types.
type Type string

const (
	TypeProjectCreated      Type = "project.created"
	TypeProjectUpdated      Type = "project.updated"
	TypeProjectArchived     Type = "project.archived"
	TypeProjectDeleted      Type = "project.deleted"
	TypeProjectFilesUpdated Type = "project.files_updated"
)

// Kind returns the short event kind used for coarse metric keys,
// e.g. "created" for project.created.
func (t Type) Kind() string {
	return strings.TrimPrefix(string(t), "project.")
}

// Priority classifies how delivery failures are handled.
// High-priority failures propagate to the caller; medium and low are
// logged and swallowed.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// Meta is the static delivery policy for one event type.
type Meta struct {
	Priority    Priority
	MaxAttempts int
	Backoff     backoff.Policy
}

// metaTable maps each event type to its delivery policy. Creation, deletion
// and file-set updates are correctness-critical; metadata updates and
// archival are best-effort.
var metaTable = map[Type]Meta{
	TypeProjectCreated:      {Priority: PriorityHigh, MaxAttempts: 5, Backoff: backoff.Linear},
	TypeProjectDeleted:      {Priority: PriorityHigh, MaxAttempts: 5, Backoff: backoff.Linear},
	TypeProjectFilesUpdated: {Priority: PriorityHigh, MaxAttempts: 5, Backoff: backoff.Exponential},
	TypeProjectUpdated:      {Priority: PriorityMedium, MaxAttempts: 3, Backoff: backoff.Linear},
	TypeProjectArchived:     {Priority: PriorityLow, MaxAttempts: 3, Backoff: backoff.Linear},
}

// MetaFor returns the delivery policy for an event type.
// Types outside the table get the best-effort defaults.
func MetaFor(t Type) Meta {
	if m, ok := metaTable[t]; ok {
		return m
	}
	return Meta{Priority: PriorityMedium, MaxAttempts: 3, Backoff: backoff.Linear}
}
