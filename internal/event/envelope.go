package event

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Envelope is the immutable wrapper around one outbound event and its
// generated metadata. A fresh EventID and EventTimestamp are generated for
// every construction, so logically identical payloads still produce distinct
// envelopes; receivers must treat each as an independent delivery.
type Envelope struct {
	EventType      Type           `json:"eventType"`
	Payload        map[string]any `json:"payload"`
	EventID        string         `json:"eventId"`
	EventTimestamp time.Time      `json:"eventTimestamp"`
	CorrelationID  string         `json:"correlationId,omitempty"`
	SourceService  string         `json:"sourceService"`
	Priority       string         `json:"priority"`
}

// Envelope timestamps are strictly increasing within the process even when
// the wall clock does not advance between constructions.
var (
	tsMu   sync.Mutex
	lastTS time.Time
)

func nextTimestamp() time.Time {
	tsMu.Lock()
	defer tsMu.Unlock()

	now := time.Now().UTC()
	if !now.After(lastTS) {
		now = lastTS.Add(time.Nanosecond)
	}
	lastTS = now
	return now
}

// NewEnvelope builds an envelope for one publish call. The payload is
// shallow-copied so later mutation by the caller does not leak into an
// in-flight delivery. The correlation ID is passed through unmodified and
// unvalidated; validating it is the receiver's responsibility.
func NewEnvelope(t Type, payload map[string]any, correlationID string) *Envelope {
	data := make(map[string]any, len(payload))
	for k, v := range payload {
		data[k] = v
	}

	return &Envelope{
		EventType:      t,
		Payload:        data,
		EventID:        uuid.NewString(),
		EventTimestamp: nextTimestamp(),
		CorrelationID:  correlationID,
		SourceService:  SourceService,
		Priority:       MetaFor(t).Priority.String(),
	}
}
