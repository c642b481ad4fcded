package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/core"
)

const readyTimeout = 2 * time.Second

type healthBody struct {
	Status string `json:"status"`
	Uptime string `json:"uptime,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady fails while the database is unreachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody{
				Error: "Database unavailable",
				Kind:  string(core.KindInternal),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthBody{Status: "ready"})
}
