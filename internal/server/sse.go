package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kimhyeog/forge/internal/models"
)

// handleJobStream handles GET /api/generate/jobs/{id}/stream — a
// server-sent-event stream of the job's state transitions. The first frame
// is the current snapshot; each notifier edge produces a fresh snapshot;
// a terminal snapshot ends the stream.
func (s *Server) handleJobStream(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	registry := s.app.JobManager.Registry()
	live := registry.Get(jobID)
	if live == nil {
		WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	emit := func() (terminal bool) {
		snap, ok := registry.Snapshot(jobID)
		if !ok {
			return true
		}
		data, err := json.Marshal(snap)
		if err != nil {
			return true
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
		return models.IsTerminal(snap.Status)
	}

	// The notifier is cleared before each snapshot read: an update landing
	// in between is reflected in the snapshot and leaves its edge set, so
	// the worst case is a duplicate frame, never a missed terminal state.
	// No heartbeats; clients reconnect on their own timeout.
	for {
		live.ClearNotify()
		if emit() {
			return
		}
		select {
		case <-r.Context().Done():
			// Client disconnected; drop the observer silently.
			return
		case <-live.Notify():
		}
	}
}
