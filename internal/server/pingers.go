package server

import (
	"context"
	"fmt"

	"github.com/docstack/ingester-go/internal/events"
	"github.com/docstack/ingester-go/internal/store"
)

// Pinger is the interface implemented by any dependency that can report its
// own reachability. Each implementation must return nil when the dependency
// is healthy and a descriptive error otherwise.
// Implementations must be safe to call from multiple goroutines.
type Pinger interface {
	// Ping checks whether the dependency is reachable within the given context.
	// Returns nil on success, a descriptive error on failure.
	Ping(ctx context.Context) error

	// Name returns a short human-readable label used in health responses
	// (e.g. "postgres", "redis").
	Name() string
}

// StorePinger probes the vector store. It satisfies the Pinger interface and
// backs the "database" component of GET /api/health.
type StorePinger struct {
	// store is the vector store to probe.
	store store.Store
	// name identifies the store in health responses (e.g. "postgres").
	name string
}

// NewStorePinger constructs a StorePinger for the given store and label.
func NewStorePinger(st store.Store, name string) *StorePinger {
	return &StorePinger{store: st, name: name}
}

// Name returns the store label used in health responses.
func (p *StorePinger) Name() string { return p.name }

// Ping runs the store's own connectivity check, which verifies both the
// connection and that the documents table is queryable.
func (p *StorePinger) Ping(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("store ping failed: %w", err)
	}
	return nil
}

// BusPinger probes the event bus. It satisfies the Pinger interface and
// backs the "message_bus" component of GET /api/health.
type BusPinger struct {
	// notifier is the event publisher to probe.
	notifier events.Notifier
}

// NewBusPinger constructs a BusPinger for the given notifier.
func NewBusPinger(n events.Notifier) *BusPinger {
	return &BusPinger{notifier: n}
}

// Name returns the bus label used in health responses.
func (p *BusPinger) Name() string { return p.notifier.Name() }

// Ping checks that the bus is reachable and accepting publishes.
func (p *BusPinger) Ping(ctx context.Context) error {
	if err := p.notifier.Ping(ctx); err != nil {
		return fmt.Errorf("bus ping failed: %w", err)
	}
	return nil
}
