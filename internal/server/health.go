package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/docstack/ingester-go/internal/logging"
)

// probeTimeout is the maximum time allowed for each individual dependency
// probe during a health check. Kept short so /api/health responds quickly
// even when a dependency is slow rather than unreachable.
const probeTimeout = 5 * time.Second

// componentHealth holds the per-dependency result of a health probe.
type componentHealth struct {
	// OK is true when the dependency responded successfully.
	OK bool `json:"ok"`
	// Detail names the probed backend on success or carries the failure
	// reason.
	Detail string `json:"detail,omitempty"`
}

// healthResponse is the JSON body returned by GET /api/health.
type healthResponse struct {
	// Status is "ok" when every component probe succeeded, "degraded"
	// otherwise. The endpoint itself always answers 200 while the process
	// is alive; orchestrators inspect the body for dependency state.
	Status string `json:"status"`
	// Timestamp is the RFC 3339 time the probes ran.
	Timestamp string `json:"timestamp"`
	// Components maps "database" and "message_bus" to their probe results.
	Components map[string]componentHealth `json:"components"`
}

// handleHealth handles GET /api/health. It probes the store and event bus
// with a short per-probe timeout and reports per-component state. A missing
// probe (dependency not configured) is reported as healthy with a note, so
// minimal deployments are not permanently "degraded".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	resp := healthResponse{
		Status:     "ok",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: make(map[string]componentHealth, 2),
	}

	resp.Components["database"] = s.probe(r.Context(), log, s.cfg.StorePinger)
	resp.Components["message_bus"] = s.probe(r.Context(), log, s.cfg.BusPinger)

	for _, c := range resp.Components {
		if !c.OK {
			resp.Status = "degraded"
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("health encode error", slog.Any("error", err))
	}
}

// probe runs one dependency check under probeTimeout.
func (s *Server) probe(ctx context.Context, log *slog.Logger, p Pinger) componentHealth {
	if p == nil {
		return componentHealth{OK: true, Detail: "not configured"}
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := p.Ping(probeCtx); err != nil {
		log.Warn("health probe failed",
			slog.String("dependency", p.Name()),
			slog.Any("error", err),
		)
		return componentHealth{OK: false, Detail: err.Error()}
	}
	return componentHealth{OK: true, Detail: p.Name()}
}
