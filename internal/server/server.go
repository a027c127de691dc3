// Package server implements the HTTP server that exposes the document
// ingestion and retrieval pipeline via a REST API.
// The server is started by the `ingester serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/docstack/ingester-go/internal/generate"
	"github.com/docstack/ingester-go/internal/ingest"
	"github.com/docstack/ingester-go/internal/logging"
	"github.com/docstack/ingester-go/internal/retrieve"
)

// New constructs a Server from the pipeline, retriever, generator and config.
// generator may be nil when answer generation is not configured.
func New(pipeline *ingest.Pipeline, retriever *retrieve.Retriever, generator generate.Generator, cfg *Config) (*Server, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("server: pipeline must not be nil")
	}
	if retriever == nil {
		return nil, fmt.Errorf("server: retriever must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must cover a full generation round-trip.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}

	s := &Server{
		pipeline:  pipeline,
		retriever: retriever,
		generator: generator,
		cfg:       cfg,
		log:       cfg.Logger,
		metrics:   newServerMetrics(cfg.Registry),
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.Logger)
	s.stopRL = stopRL

	if cfg.APIKey == "" {
		cfg.Logger.Warn("server: API authentication disabled — set INGESTER_API_KEY to enable")
	}

	protect := func(h http.Handler) http.Handler {
		return authMiddleware(cfg.APIKey, rl.middleware(h))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/ingest", protect(s.instrument("ingest", s.handleIngest)))
	mux.Handle("POST /api/ingest/pdf", protect(s.instrument("ingest_pdf", s.handleIngestPDF)))
	mux.Handle("POST /api/ask", protect(s.instrument("ask", s.handleAsk)))
	mux.Handle("GET /api/health", s.instrument("health", s.handleHealth))
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(cfg.Logger, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Handler returns the server's root handler, for tests that drive the mux
// directly through httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		fmt.Printf("ingester server listening on http://%s\n", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError sends a JSON error body in a uniform shape.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "error": msg})
}
