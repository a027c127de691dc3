package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// Test_Metrics_EndpointReturns200 verifies the mux serves the registry's
// metrics in the Prometheus exposition format.
func Test_Metrics_EndpointReturns200(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("want 200, got %d", w.Code)
	}
	ct := w.Header().Get("Content-Type")
	if !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("want text/plain content-type, got %q", ct)
	}
}

// Test_Metrics_IngestCounterIncremented verifies that a successful ingest
// shows up in the gathered metrics.
func Test_Metrics_IngestCounterIncremented(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, nil)

	ingestJSON(t, s, `{"name":"n","content":"counted chunk"}`)

	if got := counterValue(t, s.cfg.Registry, "ingester_ingest_chunks_total", "outcome", "ok"); got != 1 {
		t.Errorf("want counter=1, got %v", got)
	}
}

// Test_Metrics_AskOutcomes verifies outcome partitioning on /api/ask:
// a plain retrieval counts as "ok", a failed generation as "degraded".
func Test_Metrics_AskOutcomes(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, &fakeGenerator{err: errBoom})

	ingestJSON(t, s, `{"name":"d","content":"some chunk"}`)
	askJSON(t, s, `{"doc_id":"d","question":"q"}`)
	askJSON(t, s, `{"doc_id":"d","question":"q","generate":true}`)

	if got := counterValue(t, s.cfg.Registry, "ingester_ask_requests_total", "outcome", "ok"); got != 1 {
		t.Errorf("ok outcome: want 1, got %v", got)
	}
	if got := counterValue(t, s.cfg.Registry, "ingester_ask_requests_total", "outcome", "degraded"); got != 1 {
		t.Errorf("degraded outcome: want 1, got %v", got)
	}
}

// counterValue gathers reg and returns the value of the named counter with
// the given label pair, or -1 when absent.
func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return -1
}
