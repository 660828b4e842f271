package server

import (
	"net/http"

	"github.com/teranos/pantry/errors"
	"github.com/teranos/pantry/logger"
)

// setupHTTPRoutes configures all HTTP handlers
func (s *Server) setupHTTPRoutes() {
	s.mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))
	s.mux.HandleFunc("/ws", s.HandleWebSocket)
	s.mux.HandleFunc("/api/items", s.corsMiddleware(s.HandleItems))                       // List snapshot (GET)
	s.mux.HandleFunc("/api/plan", s.corsMiddleware(s.rateLimit(s.HandlePlan)))            // Compile an utterance (POST)
	s.mux.HandleFunc("/api/plan/execute", s.corsMiddleware(s.rateLimit(s.HandleExecute))) // Apply a plan (POST)
}

// corsMiddleware adds CORS headers to HTTP responses using configured allowed origins
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin != "" && s.checkOrigin(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}

// rateLimit rejects clients that exceed the configured request rate
func (s *Server) rateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !s.limiter.allow(key) {
			s.logger.Debugw("Rate limited", logger.FieldAddress, key, logger.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "1")
			writeErr(w, errors.WithHint(
				errors.Wrapf(ErrRateLimited, "too many requests from %s", key),
				"slow down and retry"))
			return
		}
		next(w, r)
	}
}
