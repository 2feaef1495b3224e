package web

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/questionbank/internal/ingest"
	"github.com/JonMunkholm/questionbank/internal/logging"
)

// readyTimeout bounds the store ping of a readiness probe.
const readyTimeout = 2 * time.Second

type healthResponse struct {
	Status  string                      `json:"status"`
	Uploads *ingest.UploadLimiterStatus `json:"uploads,omitempty"`
	Error   string                      `json:"error,omitempty"`
}

// handleHealth reports that the process is serving requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// handleReady reports whether the store is reachable, along with the upload
// slot usage.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.limiter.Status()

	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		logging.FromContext(r.Context()).Warn("readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:  "unavailable",
			Uploads: &status,
			Error:   ingest.MapError(err).Message,
		})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: "ready", Uploads: &status})
}
