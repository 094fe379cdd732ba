package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/kimhyeog/forge/internal/common"
	"github.com/kimhyeog/forge/internal/interfaces"
	"github.com/kimhyeog/forge/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// jobSelectFields lists the fields to select from job rows.
const jobSelectFields = "job_id, user_id, job_type, prompt, model, options, image_path, mime_type, status, asset_id, result_url, error_message, created_at, updated_at"

// JobStore implements interfaces.JobStore using SurrealDB.
type JobStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewJobStore creates a new JobStore.
func NewJobStore(db *surrealdb.DB, logger *common.Logger) *JobStore {
	return &JobStore{db: db, logger: logger}
}

func (s *JobStore) Create(ctx context.Context, job *models.Job) error {
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = now
	}
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}

	sql := `UPSERT $rid SET
		job_id = $job_id, user_id = $user_id, job_type = $job_type, prompt = $prompt,
		model = $model, options = $options, image_path = $image_path, mime_type = $mime_type,
		status = $status, asset_id = $asset_id, result_url = $result_url,
		error_message = $error_message, created_at = $created_at, updated_at = $updated_at`
	vars := map[string]any{
		"rid":           recordID("job", job.JobID),
		"job_id":        job.JobID,
		"user_id":       job.UserID,
		"job_type":      job.JobType,
		"prompt":        job.Prompt,
		"model":         job.Model,
		"options":       job.Options,
		"image_path":    job.ImagePath,
		"mime_type":     job.MimeType,
		"status":        job.Status,
		"asset_id":      job.AssetID,
		"result_url":    job.ResultURL,
		"error_message": job.ErrorMessage,
		"created_at":    job.CreatedAt,
		"updated_at":    job.UpdatedAt,
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// Update overlays the non-nil fields of the partial onto the job row and
// bumps updated_at. Single-row atomicity only.
func (s *JobStore) Update(ctx context.Context, jobID string, update models.JobUpdate) error {
	sql := "UPDATE $rid SET updated_at = $now"
	vars := map[string]any{
		"rid": recordID("job", jobID),
		"now": time.Now(),
	}

	if update.Status != nil {
		sql += ", status = $status"
		vars["status"] = *update.Status
	}
	if update.AssetID != nil {
		sql += ", asset_id = $asset_id"
		vars["asset_id"] = *update.AssetID
	}
	if update.ResultURL != nil {
		sql += ", result_url = $result_url"
		vars["result_url"] = *update.ResultURL
	}
	if update.ErrorMessage != nil {
		sql += ", error_message = $error_message"
		vars["error_message"] = *update.ErrorMessage
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

func (s *JobStore) GetByJobID(ctx context.Context, jobID string) (*models.Job, error) {
	sql := "SELECT " + jobSelectFields + " FROM job WHERE job_id = $job_id LIMIT 1"
	row, err := queryOne[models.Job](ctx, s.db, sql, map[string]any{"job_id": jobID})
	if err != nil {
		return nil, fmt.Errorf("failed to select job: %w", err)
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}

func (s *JobStore) FindByStatus(ctx context.Context, status string) ([]*models.Job, error) {
	sql := "SELECT " + jobSelectFields + " FROM job WHERE status = $status ORDER BY created_at ASC"
	jobs, err := queryAll[models.Job](ctx, s.db, sql, map[string]any{"status": status})
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs by status: %w", err)
	}
	return jobs, nil
}

func (s *JobStore) FindStaleProcessing(ctx context.Context, before time.Time) ([]*models.Job, error) {
	sql := "SELECT " + jobSelectFields + " FROM job WHERE status = $status AND updated_at < $before ORDER BY created_at ASC"
	vars := map[string]any{"status": models.JobStatusProcessing, "before": before}
	jobs, err := queryAll[models.Job](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale jobs: %w", err)
	}
	return jobs, nil
}

func (s *JobStore) CountByStatus(ctx context.Context, status string) (int, error) {
	sql := "SELECT count() AS cnt FROM job WHERE status = $status GROUP ALL"
	n, err := queryCount(ctx, s.db, sql, map[string]any{"status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return n, nil
}

// Compile-time check
var _ interfaces.JobStore = (*JobStore)(nil)
