// Package jobmanager runs the durable generation queue: a worker pool
// draining an in-process FIFO of job ids, the live job registry feeding the
// push channel, and crash recovery at startup.
package jobmanager

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/kimhyeog/forge/internal/common"
	"github.com/kimhyeog/forge/internal/interfaces"
	"github.com/kimhyeog/forge/internal/models"
)

const dequeueWait = 1 * time.Second

// JobManager owns the worker pool, FIFO, live registry, and WebSocket hub.
type JobManager struct {
	storage   interfaces.StorageManager
	artifacts interfaces.ArtifactStore
	generator interfaces.GeneratorClient
	logger    *common.Logger
	config    common.QueueConfig

	registry *Registry
	fifo     *FIFO
	hub      *Hub

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJobManager creates a new job manager.
func NewJobManager(
	storage interfaces.StorageManager,
	artifacts interfaces.ArtifactStore,
	generator interfaces.GeneratorClient,
	logger *common.Logger,
	config common.QueueConfig,
) *JobManager {
	return &JobManager{
		storage:   storage,
		artifacts: artifacts,
		generator: generator,
		logger:    logger,
		config:    config,
		registry:  NewRegistry(),
		fifo:      NewFIFO(),
		hub:       NewHub(logger),
	}
}

// Registry returns the live job registry for the push channel.
func (jm *JobManager) Registry() *Registry {
	return jm.registry
}

// Hub returns the WebSocket hub for external handler registration.
func (jm *JobManager) Hub() *Hub {
	return jm.hub
}

// QueueSize returns the number of ids waiting in the FIFO.
func (jm *JobManager) QueueSize() int {
	return jm.fifo.Len()
}

// safeGo launches a goroutine with panic recovery and logging.
func (jm *JobManager) safeGo(name string, fn func()) {
	jm.wg.Add(1)
	go func() {
		defer jm.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				jm.logger.Error().
					Str("goroutine", name).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic in job manager goroutine")
			}
		}()
		fn()
	}()
}

// Start reaps zombies, recovers in-flight jobs, then launches the hub and
// worker pool. Safe to call again after Stop.
func (jm *JobManager) Start() {
	if jm.cancel != nil {
		jm.Stop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	jm.cancel = cancel

	if err := jm.recover(ctx); err != nil {
		jm.logger.Warn().Err(err).Msg("Startup recovery failed")
	}

	jm.safeGo("websocket-hub", func() { jm.hub.Run() })

	workers := jm.config.GetWorkers()
	for i := 0; i < workers; i++ {
		name := fmt.Sprintf("worker-%d", i)
		workerID := i
		jm.safeGo(name, func() { jm.workerLoop(ctx, workerID) })
	}

	jm.logger.Info().
		Int("workers", workers).
		Int("queued", jm.fifo.Len()).
		Msg("Job manager started")
}

// Stop cancels all workers and waits for the current jobs to reach a
// terminal transition.
func (jm *JobManager) Stop() {
	if jm.cancel != nil {
		jm.cancel()
		jm.cancel = nil
	}
	jm.hub.Stop()
	jm.wg.Wait()
	jm.logger.Info().Msg("Job manager stopped")
}

// Submit persists a queued job row, registers the live mirror, and pushes
// the id onto the FIFO.
func (jm *JobManager) Submit(ctx context.Context, job *models.Job) error {
	job.Status = models.JobStatusQueued
	if err := jm.storage.JobStore().Create(ctx, job); err != nil {
		return err
	}

	jm.registry.Create(job.JobID)
	jm.fifo.Enqueue(job.JobID)

	jm.broadcast("job_queued", job.JobID, job.JobType, "pending", "")
	return nil
}

// RecordCachedResult persists a completed job row pointing at an existing
// asset, with a matching live mirror. The provider is never called.
func (jm *JobManager) RecordCachedResult(ctx context.Context, job *models.Job, asset *models.Asset) error {
	job.Status = models.JobStatusCompleted
	job.AssetID = &asset.ID
	job.ResultURL = asset.FilePath
	if err := jm.storage.JobStore().Create(ctx, job); err != nil {
		return err
	}

	jm.registry.Create(job.JobID)
	status := models.JobStatusCompleted
	jm.registry.Update(job.JobID, LiveUpdate{
		Status:    &status,
		AssetID:   &asset.ID,
		ResultURL: &asset.FilePath,
	})
	return nil
}

// workerLoop dequeues and executes jobs until the context is cancelled.
func (jm *JobManager) workerLoop(ctx context.Context, workerID int) {
	jm.logger.Debug().Int("worker", workerID).Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		jobID, ok := jm.fifo.Dequeue(ctx, dequeueWait)
		if !ok {
			continue
		}

		jm.processJob(ctx, jobID, workerID)
	}
}

// processJob re-loads the job from the durable store and executes it. The
// status check prevents double execution after recovery races: only a
// "queued" row may run.
func (jm *JobManager) processJob(ctx context.Context, jobID string, workerID int) {
	job, err := jm.storage.JobStore().GetByJobID(ctx, jobID)
	if err != nil {
		jm.logger.Error().Int("worker", workerID).Str("job_id", jobID).Err(err).Msg("Job not found in store")
		return
	}
	if job.Status != models.JobStatusQueued {
		jm.logger.Warn().
			Int("worker", workerID).
			Str("job_id", jobID).
			Str("status", job.Status).
			Msg("Job is not queued, skipping")
		return
	}

	jm.broadcast("job_started", job.JobID, job.JobType, models.JobStatusProcessing, "")

	start := time.Now()
	execErr := jm.executeJob(ctx, job)
	duration := time.Since(start)

	if execErr != nil {
		jm.logger.Warn().
			Int("worker", workerID).
			Str("job_id", jobID).
			Str("job_type", job.JobType).
			Dur("duration", duration).
			Err(execErr).
			Msg("Job failed")
		jm.failJob(context.WithoutCancel(ctx), job, execErr)
		jm.broadcast("job_failed", job.JobID, job.JobType, models.JobStatusFailed, execErr.Error())
	} else {
		jm.logger.Info().
			Int("worker", workerID).
			Str("job_id", jobID).
			Str("job_type", job.JobType).
			Dur("duration", duration).
			Msg("Job completed")
		jm.broadcast("job_completed", job.JobID, job.JobType, models.JobStatusCompleted, "")
	}

	// The reference upload is only needed for the remote call.
	if job.JobType == models.JobTypeImageToVideo && job.ImagePath != "" {
		if err := jm.artifacts.Delete(job.ImagePath); err != nil {
			jm.logger.Warn().Str("job_id", jobID).Str("path", job.ImagePath).Err(err).Msg("Failed to delete temp image")
		}
	}
}

// broadcast emits a job event to the admin WebSocket feed.
func (jm *JobManager) broadcast(eventType, jobID, jobType, status, errMsg string) {
	if jm.hub == nil {
		return
	}
	jm.hub.Broadcast(models.JobEvent{
		Type:      eventType,
		JobID:     jobID,
		JobType:   jobType,
		Status:    status,
		Error:     errMsg,
		Timestamp: time.Now(),
		QueueSize: jm.fifo.Len(),
	})
}
