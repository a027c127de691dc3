package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/docstack/ingester-go/internal/ingest"
	"github.com/docstack/ingester-go/internal/logging"
)

// maxUploadBytes bounds the multipart payload accepted by /api/ingest/pdf.
const maxUploadBytes = 64 << 20 // 64 MiB

// handleIngest handles POST /api/ingest. It ingests a single pre-chunked
// piece of text through the full pipeline and returns the store-assigned ids.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	res, err := s.pipeline.Ingest(r.Context(), ingest.Request{
		Name:     req.Name,
		Content:  req.Content,
		Metadata: req.Metadata,
		DocID:    req.DocID,
		Section:  req.Section,
		PageNo:   req.PageNo,
		ChunkID:  req.ChunkID,
	})
	if err != nil {
		s.metrics.ingestChunksTotal.WithLabelValues("error").Inc()
		s.metrics.ingestDurationSeconds.WithLabelValues("error").Observe(time.Since(start).Seconds())
		log.Error("ingest failed",
			slog.String("name", req.Name),
			slog.Any("error", err),
		)
		writeError(w, statusFromError(err), "ingestion failed")
		return
	}

	s.metrics.ingestChunksTotal.WithLabelValues("ok").Inc()
	s.metrics.ingestDurationSeconds.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	writeJSON(w, http.StatusOK, ingestResponse{Status: "ok", Result: *res})
}

// handleIngestPDF handles POST /api/ingest/pdf. The document arrives as a
// multipart "file" part with an optional "name" field; chunk window
// parameters may be overridden per request via the max_chars and overlap
// query parameters.
func (s *Server) handleIngestPDF(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file part")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	docID := r.FormValue("doc_id")

	maxChars := queryInt(r, "max_chars", s.cfg.ChunkMaxChars)
	overlap := queryInt(r, "overlap", s.cfg.ChunkOverlap)

	res, err := s.pipeline.IngestPDF(r.Context(), name, data, formMetadata(r), docID, maxChars, overlap)
	if err != nil {
		s.metrics.ingestChunksTotal.WithLabelValues("error").Inc()
		s.metrics.ingestDurationSeconds.WithLabelValues("error").Observe(time.Since(start).Seconds())
		log.Error("pdf ingest failed",
			slog.String("name", name),
			slog.Any("error", err),
		)
		writeError(w, statusFromError(err), "ingestion failed")
		return
	}

	if docID == "" {
		docID = name
	}
	s.metrics.ingestChunksTotal.WithLabelValues("ok").Add(float64(res.Chunks))
	s.metrics.ingestDurationSeconds.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	log.Info("pdf ingested",
		slog.String("name", name),
		slog.String("doc_id", docID),
		slog.Int("chunks", res.Chunks),
	)
	writeJSON(w, http.StatusOK, pdfResponse{
		Status:   "ok",
		Name:     name,
		DocID:    docID,
		Chunks:   res.Chunks,
		Ingested: res.Ingested,
	})
}

// queryInt parses an integer query parameter, returning fallback when the
// parameter is absent or malformed.
func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// formMetadata collects non-reserved multipart form fields as metadata so
// callers can attach arbitrary context to the audit trail.
func formMetadata(r *http.Request) map[string]any {
	if r.MultipartForm == nil {
		return nil
	}
	var meta map[string]any
	for key, vals := range r.MultipartForm.Value {
		if key == "name" || key == "doc_id" || len(vals) == 0 {
			continue
		}
		if meta == nil {
			meta = make(map[string]any)
		}
		meta[key] = vals[0]
	}
	return meta
}

// statusFromError maps pipeline failures to HTTP status codes. Validation
// failures are the caller's fault; everything else is a server error.
func statusFromError(err error) int {
	if errors.Is(err, ingest.ErrEmptyContent) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
