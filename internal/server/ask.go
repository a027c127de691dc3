package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/docstack/ingester-go/internal/logging"
	"github.com/docstack/ingester-go/internal/retrieve"
)

// errGenerationDisabled is surfaced as answer_error when generate=true but
// no backend was wired at startup.
var errGenerationDisabled = errors.New("answer generation is not configured")

// handleAsk handles POST /api/ask. It retrieves the most relevant chunks for
// the question, assembles the grounded prompt, and optionally generates an
// answer. A generation failure degrades to an answer_error field — the
// retrieval result is still returned with status 200.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocID == "" {
		writeError(w, http.StatusBadRequest, "doc_id is required")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	contexts, matches, err := s.retriever.Retrieve(r.Context(), req.DocID, req.Question, req.TopK, req.FetchK)
	if err != nil {
		s.observeAsk("error", start)
		log.Error("retrieval failed",
			slog.String("doc_id", req.DocID),
			slog.Any("error", err),
		)
		writeError(w, http.StatusInternalServerError, "retrieval failed")
		return
	}

	resp := askResponse{
		Status:  "ok",
		Prompt:  retrieve.BuildPrompt(contexts, req.Question),
		Matches: make([]askMatch, 0, len(matches)),
	}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, askMatch{
			ID:       m.ID,
			PageNo:   m.PageNo,
			Section:  m.Section,
			Distance: m.Distance,
		})
	}

	outcome := "ok"
	if req.Generate {
		answer, err := s.generate(r, resp.Prompt, req.ModelID)
		if err != nil {
			// Degraded: the retrieved context is still valid and returned.
			outcome = "degraded"
			resp.AnswerError = err.Error()
			log.Warn("generation failed",
				slog.String("doc_id", req.DocID),
				slog.Any("error", err),
			)
		} else {
			resp.Answer = answer
		}
	}

	s.observeAsk(outcome, start)
	writeJSON(w, http.StatusOK, resp)
}

// generate runs the optional answer backend for one request.
func (s *Server) generate(r *http.Request, prompt, modelID string) (string, error) {
	if s.generator == nil {
		return "", errGenerationDisabled
	}
	return s.generator.Generate(r.Context(), prompt, modelID)
}

// observeAsk records the outcome and latency of one /api/ask request.
func (s *Server) observeAsk(outcome string, start time.Time) {
	s.metrics.askRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.askDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
}
