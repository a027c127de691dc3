// Package events defines the outbound notification channel the ingestion
// pipeline writes operational events to. Publishing is best-effort by
// contract: the pipeline logs a failed publish and continues, so messaging
// latency or outages never affect ingestion results. The Redis publisher is
// the production implementation; Nop serves configurations without a broker.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types published by the system.
const (
	// TypeDocumentIngested is emitted once per persisted chunk.
	TypeDocumentIngested = "document_ingested"

	// TypePing is the heartbeat emitted by health probes.
	TypePing = "ping"
)

// Event is one operational message published to the bus.
type Event struct {
	// ID uniquely identifies this event instance.
	ID string `json:"id"`

	// Type is the event kind (TypeDocumentIngested, TypePing).
	Type string `json:"event"`

	// Name is the submitted document name, when applicable.
	Name string `json:"name,omitempty"`

	// DocID is the logical document key, when applicable.
	DocID string `json:"doc_id,omitempty"`

	// RowID is the stored record id, when applicable.
	RowID int64 `json:"row_id,omitempty"`

	// AuditID is the audit entry id, when applicable.
	AuditID int64 `json:"audit_id,omitempty"`

	// Section is the chunk's section label, nil when unset.
	Section *string `json:"section"`

	// PageNo is the chunk's page number, nil when unknown.
	PageNo *int `json:"page_no"`

	// ChunkID is the chunk order within its page, nil when unset.
	ChunkID *int `json:"chunk_id"`

	// Timestamp is the Unix time the event was created.
	Timestamp int64 `json:"ts"`
}

// NewEvent constructs an Event of the given type with a fresh id and the
// current timestamp.
func NewEvent(eventType string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
	}
}

// Notifier publishes operational events to an external bus. Publish is called
// outside any store transaction and must enforce its own timeout.
// Implementations must be safe to call from multiple goroutines.
type Notifier interface {
	// Publish sends one event. Errors are reported but callers treat the
	// send as best-effort.
	Publish(ctx context.Context, ev Event) error

	// Ping checks whether the bus is reachable and accepting publishes.
	Ping(ctx context.Context) error

	// Name returns a short label used in health responses (e.g. "redis").
	Name() string

	// Close releases any resources held by the notifier.
	Close() error
}

// Nop is a Notifier that discards every event. Used when no broker is
// configured so the pipeline keeps a single code path.
type Nop struct{}

// Publish discards the event.
func (Nop) Publish(context.Context, Event) error { return nil }

// Ping always succeeds.
func (Nop) Ping(context.Context) error { return nil }

// Name returns the label used in health responses.
func (Nop) Name() string { return "nop" }

// Close releases nothing.
func (Nop) Close() error { return nil }
