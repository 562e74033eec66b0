package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"tripflow/internal/app"
	"tripflow/internal/ratelimit"
	"tripflow/internal/util"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App     *app.App
	Limiter *ratelimit.FixedWindowLimiter // optional, guards /api/chat
}

// Server exposes the trip-planning HTTP endpoints.
type Server struct {
	app     *app.App
	limiter *ratelimit.FixedWindowLimiter
	mux     *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:     cfg.App,
		limiter: cfg.Limiter,
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler with middleware applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(
		util.WithRequestLog(
			util.WithSecurityHeaders(
				util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/chat", s.handleChat)
	s.mux.HandleFunc("/api/auto-title", s.handleAutoTitle)
	s.mux.HandleFunc("/api/messages", s.handleMessages)
	s.mux.HandleFunc("/api/trips", s.handleTrips)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps app-layer failures onto HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrEmptyMessage):
		status = http.StatusBadRequest
	case errors.Is(err, app.ErrTripNotFound):
		status = http.StatusNotFound
	}
	writeError(w, status, err.Error())
}
