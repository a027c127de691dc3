package server

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/docstack/ingester-go/internal/logging"
)

// Per-IP token-bucket defaults. Ingestion requests carry document payloads
// and embedding calls, so the sustained rate is deliberately modest; the
// burst absorbs multi-chunk CLI uploads without rejections.
const (
	defaultRateLimit = 10
	defaultRateBurst = 20
)

// visitorTTL is how long an idle client keeps its bucket before eviction.
const visitorTTL = 5 * time.Minute

// visitor pairs a client's token bucket with its last-request time.
type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// rateLimiter enforces a per-client-IP token-bucket limit. Idle entries are
// evicted periodically so the map stays bounded.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	rps   rate.Limit
	burst int
	log   *slog.Logger
}

// newRateLimiter builds a rateLimiter and starts its eviction goroutine.
// The goroutine exits when the returned stop function is called.
func newRateLimiter(rps float64, burst int, log *slog.Logger) (*rateLimiter, func()) {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		log:      log,
	}

	stopCh := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				rl.evict()
			}
		}
	}()

	return rl, func() { close(stopCh) }
}

// allow reports whether a request from ip may proceed, creating the bucket
// on first sight.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[ip]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(rl.rps, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.bucket.Allow()
}

// evict drops buckets idle for longer than visitorTTL.
func (rl *rateLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-visitorTTL)
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}

// middleware rejects over-limit requests with 429, a Retry-After header, and
// the server's uniform JSON error shape.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.allow(ip) {
			log := logging.FromContext(r.Context())
			log.Warn("rate limit exceeded",
				slog.String("ip", ip),
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the request's remote IP without the port. X-Forwarded-For
// is not trusted; the default deployment has no proxy in front.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
