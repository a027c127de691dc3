package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/docstack/ingester-go/internal/logging"
)

// authMiddleware enforces Bearer token authentication on protected routes.
// An empty apiKey disables authentication entirely (a warning is logged once
// at startup, not per request).
//
// Protected routes must supply:
//
//	Authorization: Bearer <apiKey>
//
// Failures receive 401 with a WWW-Authenticate: Bearer challenge and the
// same JSON error shape as every other endpoint. Token values are never
// logged.
func authMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		token, ok := bearerToken(r)
		if !ok {
			log.Warn("auth: missing or malformed Authorization header",
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="ingester"`)
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		}

		// Constant-time comparison so response timing leaks nothing about
		// how much of the token matched.
		if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			log.Warn("auth: invalid token",
				slog.String("path", r.URL.Path),
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="ingester" error="invalid_token"`)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme match is case-insensitive per RFC 6750.
func bearerToken(r *http.Request) (string, bool) {
	hdr := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(hdr, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
