package server

import (
	"net/http"

	"github.com/kimhyeog/forge/internal/clients/vertex"
	"github.com/kimhyeog/forge/internal/models"
)

// handleQueueStatus handles GET /api/admin/queue-status — semaphore state,
// FIFO depth, and durable job counts for monitoring.
func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if _, ok := s.requireUser(w, r); !ok {
		return
	}

	ctx := r.Context()
	jobs := s.app.Storage.JobStore()

	counts := map[string]int{}
	for _, status := range []string{
		models.JobStatusQueued,
		models.JobStatusProcessing,
		models.JobStatusCompleted,
		models.JobStatusFailed,
	} {
		n, err := jobs.CountByStatus(ctx, status)
		if err != nil {
			s.logger.Warn().Str("status", status).Err(err).Msg("Failed to count jobs")
		}
		counts[status] = n
	}

	imageInUse, imageMax := s.app.Generator.PermitState(vertex.ModalityImage)
	videoInUse, videoMax := s.app.Generator.PermitState(vertex.ModalityVideo)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"semaphore": map[string]interface{}{
			"image": map[string]int{
				"max":       imageMax,
				"available": imageMax - imageInUse,
				"in_use":    imageInUse,
			},
			"video": map[string]int{
				"max":       videoMax,
				"available": videoMax - videoInUse,
				"in_use":    videoInUse,
			},
		},
		"queue": map[string]int{
			"pending": s.app.JobManager.QueueSize(),
		},
		"jobs": counts,
	})
}

// handleJobsWS handles GET /api/admin/ws/jobs — live job events over WebSocket.
func (s *Server) handleJobsWS(w http.ResponseWriter, r *http.Request) {
	s.app.JobManager.Hub().ServeWS(w, r)
}
