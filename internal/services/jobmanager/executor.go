package jobmanager

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kimhyeog/forge/internal/models"
)

// executeJob dispatches a job by modality. Both stores transition to
// processing before the remote call; the caller handles the failure
// transition, so this only commits success.
func (jm *JobManager) executeJob(ctx context.Context, job *models.Job) error {
	jm.markProcessing(ctx, job)

	var (
		data []byte
		err  error
	)

	switch job.JobType {
	case models.JobTypeTextToImage:
		var opts *models.ImageOptions
		if opts, err = decodeOptions[models.ImageOptions](job.Options); err == nil {
			data, err = jm.generator.GenerateImage(ctx, job.Prompt, job.Model, opts)
		}
	case models.JobTypeTextToVideo:
		var opts *models.VideoOptions
		if opts, err = decodeOptions[models.VideoOptions](job.Options); err == nil {
			data, err = jm.generator.GenerateVideo(ctx, job.Prompt, job.Model, nil, "", opts)
		}
	case models.JobTypeImageToVideo:
		var opts *models.VideoOptions
		if opts, err = decodeOptions[models.VideoOptions](job.Options); err == nil {
			var imageBytes []byte
			imageBytes, err = jm.artifacts.ReadFile(job.ImagePath)
			if err != nil {
				err = fmt.Errorf("failed to read reference image: %w", err)
			} else {
				mimeType := job.MimeType
				if mimeType == "" {
					mimeType = "image/png"
				}
				data, err = jm.generator.GenerateVideo(ctx, job.Prompt, job.Model, imageBytes, mimeType, opts)
			}
		}
	default:
		err = fmt.Errorf("unknown job type: %s", job.JobType)
	}
	if err != nil {
		return err
	}

	// The terminal transition must land even if shutdown cancelled ctx
	// while the remote call was in flight.
	return jm.completeJob(context.WithoutCancel(ctx), job, data)
}

// decodeOptions unpacks the JSON option bag, tolerating an empty bag.
func decodeOptions[T any](raw string) (*T, error) {
	if raw == "" {
		return nil, nil
	}
	var opts T
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return nil, fmt.Errorf("invalid job options: %w", err)
	}
	return &opts, nil
}

// markProcessing transitions the durable row and the live mirror.
func (jm *JobManager) markProcessing(ctx context.Context, job *models.Job) {
	status := models.JobStatusProcessing
	if err := jm.storage.JobStore().Update(ctx, job.JobID, models.JobUpdate{Status: &status}); err != nil {
		jm.logger.Warn().Str("job_id", job.JobID).Err(err).Msg("Failed to mark job processing")
	}
	jm.registry.Update(job.JobID, LiveUpdate{Status: &status})
}

// completeJob writes the artifact, creates the asset row, and commits the
// terminal completed transition to both stores.
func (jm *JobManager) completeJob(ctx context.Context, job *models.Job, data []byte) error {
	var (
		fileURL string
		err     error
	)
	if job.JobType == models.JobTypeTextToImage {
		fileURL, err = jm.artifacts.WriteImage(job.JobID, data)
	} else {
		fileURL, err = jm.artifacts.WriteVideo(job.JobID, data)
	}
	if err != nil {
		return err
	}

	asset, err := jm.storage.AssetStore().Create(ctx, &models.Asset{
		UserID:    job.UserID,
		JobID:     job.JobID,
		FilePath:  fileURL,
		Prompt:    models.NormalizePrompt(job.Prompt),
		Model:     job.Model,
		AssetType: models.AssetTypeForJob(job.JobType),
	})
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}

	status := models.JobStatusCompleted
	update := models.JobUpdate{Status: &status, AssetID: &asset.ID, ResultURL: &fileURL}
	if err := jm.storage.JobStore().Update(ctx, job.JobID, update); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	jm.registry.Update(job.JobID, LiveUpdate{Status: &status, AssetID: &asset.ID, ResultURL: &fileURL})
	return nil
}

// failJob commits the terminal failed transition to both stores.
func (jm *JobManager) failJob(ctx context.Context, job *models.Job, execErr error) {
	status := models.JobStatusFailed
	msg := execErr.Error()
	if err := jm.storage.JobStore().Update(ctx, job.JobID, models.JobUpdate{Status: &status, ErrorMessage: &msg}); err != nil {
		jm.logger.Error().Str("job_id", job.JobID).Err(err).Msg("Failed to mark job failed")
	}
	jm.registry.Update(job.JobID, LiveUpdate{Status: &status, ErrorMessage: &msg})
}
