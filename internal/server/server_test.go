package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/docstack/ingester-go/internal/embed"
	"github.com/docstack/ingester-go/internal/events"
	"github.com/docstack/ingester-go/internal/generate"
	"github.com/docstack/ingester-go/internal/ingest"
	"github.com/docstack/ingester-go/internal/retrieve"
	"github.com/docstack/ingester-go/internal/store"
)

// fakeGenerator is a test double for the Generator interface. It records the
// prompt and model it was called with.
type fakeGenerator struct {
	answer     string
	err        error
	gotPrompt  string
	gotModelID string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt, modelID string) (string, error) {
	f.gotPrompt = prompt
	f.gotModelID = modelID
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

// newTestServer builds a full *Server over an in-memory store with the
// deterministic embedder, no event bus, and a fresh Prometheus registry so
// tests never pollute the default one.
func newTestServer(t *testing.T, generator generate.Generator) (*Server, *store.Memory) {
	t.Helper()

	mem := store.NewMemory()
	embedder := embed.NewDeterministic()

	pipeline, err := ingest.NewPipeline(embedder, mem, events.Nop{})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	retriever, err := retrieve.New(embedder, mem)
	if err != nil {
		t.Fatalf("retrieve.New: %v", err)
	}

	s, err := New(pipeline, retriever, generator, &Config{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registry: prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.stopRL)

	return s, mem
}

// errBoom is a reusable failure for fake collaborators.
var errBoom = errors.New("boom")
