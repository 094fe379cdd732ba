package jobmanager

import (
	"context"
	"fmt"
	"time"

	"github.com/kimhyeog/forge/internal/models"
)

// zombieThreshold is how long a job may sit in processing before it is
// attributed to a crashed process and failed.
const zombieThreshold = 24 * time.Hour

// zombieMessage is the stored error for reaped jobs.
const zombieMessage = "좀비 작업: 24시간 이상 처리 중 상태로 방치됨"

// recover reaps zombie jobs, flips abandoned processing rows back to
// queued, and primes the FIFO from the durable store. Runs before any
// worker starts; assumes exactly one active backend per database.
func (jm *JobManager) recover(ctx context.Context) error {
	if err := jm.reapZombies(ctx); err != nil {
		return err
	}
	return jm.recoverInFlight(ctx)
}

// reapZombies fails jobs stuck in processing past the threshold.
func (jm *JobManager) reapZombies(ctx context.Context) error {
	cutoff := time.Now().Add(-zombieThreshold)
	zombies, err := jm.storage.JobStore().FindStaleProcessing(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to find zombie jobs: %w", err)
	}

	for _, job := range zombies {
		status := models.JobStatusFailed
		msg := zombieMessage
		if err := jm.storage.JobStore().Update(ctx, job.JobID, models.JobUpdate{Status: &status, ErrorMessage: &msg}); err != nil {
			jm.logger.Warn().Str("job_id", job.JobID).Err(err).Msg("Failed to reap zombie job")
			continue
		}
		jm.logger.Warn().Str("job_id", job.JobID).Msg("Marked zombie job as failed")
	}
	return nil
}

// recoverInFlight re-queues jobs that were mid-flight at crash. A crashed
// worker leaves no resumable provider-side state, so re-running is the
// simplest correct behavior; a duplicate artifact is tolerable.
func (jm *JobManager) recoverInFlight(ctx context.Context) error {
	processing, err := jm.storage.JobStore().FindByStatus(ctx, models.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to find in-flight jobs: %w", err)
	}
	for _, job := range processing {
		status := models.JobStatusQueued
		if err := jm.storage.JobStore().Update(ctx, job.JobID, models.JobUpdate{Status: &status}); err != nil {
			jm.logger.Warn().Str("job_id", job.JobID).Err(err).Msg("Failed to reset in-flight job")
			continue
		}
		jm.logger.Info().Str("job_id", job.JobID).Msg("Reset processing job to queued")
	}

	queued, err := jm.storage.JobStore().FindByStatus(ctx, models.JobStatusQueued)
	if err != nil {
		return fmt.Errorf("failed to find queued jobs: %w", err)
	}
	for _, job := range queued {
		if jm.registry.Get(job.JobID) == nil {
			jm.registry.Create(job.JobID)
		}
		jm.fifo.Enqueue(job.JobID)
	}

	if len(queued) > 0 {
		jm.logger.Info().Int("count", len(queued)).Msg("Re-enqueued jobs from store")
	}
	return nil
}
