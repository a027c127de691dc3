// Package generate provides the optional answer-generation backend. The
// backend is loaded lazily on first use and reused for the lifetime of the
// process; generation failures are reported to callers but, by contract,
// never fail the retrieval request they accompany.
package generate

import (
	"context"
	"errors"
	"sync"
)

// ErrNotConfigured is returned when answer generation is requested but no
// backend is configured.
var ErrNotConfigured = errors.New("generate: no generation backend configured")

// ErrBackendUnavailable wraps transport and HTTP failures from the
// generation backend.
var ErrBackendUnavailable = errors.New("generate: backend unavailable")

// Generator produces an answer from an assembled prompt. modelID overrides
// the backend's configured model for one request; empty keeps the default.
type Generator interface {
	Generate(ctx context.Context, prompt, modelID string) (string, error)
}

// Lazy defers backend construction to the first Generate call and caches
// the result, including a construction error, for every later call.
type Lazy struct {
	once sync.Once
	init func() (Generator, error)

	gen Generator
	err error
}

// NewLazy wraps an initializer. A nil initializer yields ErrNotConfigured
// on every call.
func NewLazy(init func() (Generator, error)) *Lazy {
	return &Lazy{init: init}
}

// Generate initializes the backend on first use and delegates to it.
func (l *Lazy) Generate(ctx context.Context, prompt, modelID string) (string, error) {
	l.once.Do(func() {
		if l.init == nil {
			l.err = ErrNotConfigured
			return
		}
		l.gen, l.err = l.init()
		if l.err == nil && l.gen == nil {
			l.err = ErrNotConfigured
		}
	})
	if l.err != nil {
		return "", l.err
	}
	return l.gen.Generate(ctx, prompt, modelID)
}
