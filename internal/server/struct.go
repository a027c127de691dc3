package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/docstack/ingester-go/internal/generate"
	"github.com/docstack/ingester-go/internal/ingest"
	"github.com/docstack/ingester-go/internal/retrieve"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// StorePinger probes the vector store for GET /api/health. Optional.
	StorePinger Pinger
	// BusPinger probes the event bus for GET /api/health. Optional.
	BusPinger Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Registry receives the server's Prometheus metrics and backs
	// GET /metrics. If nil a fresh registry is created.
	Registry *prometheus.Registry
	// ChunkMaxChars is the default chunk window for PDF ingestion when the
	// request does not override it.
	ChunkMaxChars int
	// ChunkOverlap is the default chunk overlap for PDF ingestion when the
	// request does not override it.
	ChunkOverlap int
}

// Server is the HTTP server that exposes the ingestion and retrieval
// pipeline.
type Server struct {
	// pipeline runs the embed→insert→audit→notify sequence per chunk.
	pipeline *ingest.Pipeline
	// retriever answers similarity queries for /api/ask.
	retriever *retrieve.Retriever
	// generator is the optional answer backend; nil-safe via generate.Lazy.
	generator generate.Generator
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// metrics holds the server's Prometheus instruments.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// ingestRequest is the JSON body for POST /api/ingest.
type ingestRequest struct {
	// Name is the submitted document name. Required.
	Name string `json:"name"`
	// Content is the chunk text. Required, non-blank.
	Content string `json:"content"`
	// Metadata is optional caller-supplied context for the audit trail.
	Metadata map[string]any `json:"metadata,omitempty"`
	// DocID scopes the chunk for retrieval. Defaults to Name.
	DocID string `json:"doc_id,omitempty"`
	// Section, PageNo and ChunkID locate the chunk in its source document.
	Section *string `json:"section,omitempty"`
	PageNo  *int    `json:"page_no,omitempty"`
	ChunkID *int    `json:"chunk_id,omitempty"`
}

// ingestResponse is the JSON response for POST /api/ingest.
type ingestResponse struct {
	Status string `json:"status"`
	ingest.Result
}

// pdfResponse is the JSON response for POST /api/ingest/pdf.
type pdfResponse struct {
	Status   string          `json:"status"`
	Name     string          `json:"name"`
	DocID    string          `json:"doc_id"`
	Chunks   int             `json:"chunks"`
	Ingested []ingest.Result `json:"ingested"`
}

// askRequest is the JSON body for POST /api/ask.
type askRequest struct {
	// DocID selects which document's chunks to search. Required.
	DocID string `json:"doc_id"`
	// Question is the natural-language query. Required.
	Question string `json:"question"`
	// TopK is the number of chunks included in the prompt (default 3).
	TopK int `json:"top_k"`
	// FetchK is the number of candidates fetched from the store (default 5).
	FetchK int `json:"fetch_k"`
	// Generate requests a model answer in addition to the prompt.
	Generate bool `json:"generate"`
	// ModelID overrides the configured generation model for this request.
	ModelID string `json:"model_id,omitempty"`
}

// askMatch is one retrieval candidate in the /api/ask response.
type askMatch struct {
	ID       int64   `json:"id"`
	PageNo   *int    `json:"page_no"`
	Section  *string `json:"section"`
	Distance float64 `json:"distance"`
}

// askResponse is the JSON response for POST /api/ask.
type askResponse struct {
	Status  string     `json:"status"`
	Prompt  string     `json:"prompt"`
	Matches []askMatch `json:"matches"`
	// Answer carries the generated answer when requested and successful.
	Answer string `json:"answer,omitempty"`
	// AnswerError carries the generation failure when the retrieval itself
	// succeeded — the request still returns 200 with the prompt and matches.
	AnswerError string `json:"answer_error,omitempty"`
}
