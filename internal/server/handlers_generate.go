package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kimhyeog/forge/internal/models"
	"github.com/kimhyeog/forge/internal/services/jobmanager"
)

// maxReferenceImageSize bounds image-to-video uploads.
const maxReferenceImageSize = 10 << 20 // 10MB

// jobResponse is the submission reply shape.
type jobResponse struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	AssetID   *int64    `json:"asset_id,omitempty"`
	ResultURL string    `json:"result_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// handleTextToImage handles POST /api/generate/text-to-image.
func (s *Server) handleTextToImage(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Prompt string `json:"prompt"`
		Model  string `json:"model"`
		models.ImageOptions
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		WriteError(w, http.StatusUnprocessableEntity, "prompt is required")
		return
	}
	if err := req.ImageOptions.Validate(); err != nil {
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	model := req.Model
	if model == "" {
		model = s.app.Config.Vertex.ImageModel
	}

	// Only a fully-default option bag may hit the cache; non-default options
	// change the output, so identical prompts must not collide.
	if req.ImageOptions.IsZero() {
		if resp, ok := s.tryCache(w, r, userID, req.Prompt, model, "image", models.JobTypeTextToImage); ok {
			WriteJSON(w, http.StatusOK, resp)
			return
		}
	}

	s.submitJob(w, r, &models.Job{
		JobID:   uuid.New().String(),
		UserID:  userID,
		JobType: models.JobTypeTextToImage,
		Prompt:  req.Prompt,
		Model:   model,
		Options: encodeOptions(&req.ImageOptions, req.ImageOptions.IsZero()),
	})
}

// handleTextToVideo handles POST /api/generate/text-to-video.
func (s *Server) handleTextToVideo(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Prompt string `json:"prompt"`
		Model  string `json:"model"`
		models.VideoOptions
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		WriteError(w, http.StatusUnprocessableEntity, "prompt is required")
		return
	}
	if err := req.VideoOptions.Validate(); err != nil {
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	model := req.Model
	if model == "" {
		model = s.app.Config.Vertex.VideoModel
	}

	if req.VideoOptions.IsZero() {
		if resp, ok := s.tryCache(w, r, userID, req.Prompt, model, "video", models.JobTypeTextToVideo); ok {
			WriteJSON(w, http.StatusOK, resp)
			return
		}
	}

	s.submitJob(w, r, &models.Job{
		JobID:   uuid.New().String(),
		UserID:  userID,
		JobType: models.JobTypeTextToVideo,
		Prompt:  req.Prompt,
		Model:   model,
		Options: encodeOptions(&req.VideoOptions, req.VideoOptions.IsZero()),
	})
}

// handleImageToVideo handles POST /api/generate/image-to-video (multipart).
// The reference image is parked in temp storage until the worker has made
// the remote call. No cache lookup: the reference image makes otherwise
// identical prompts distinct.
func (s *Server) handleImageToVideo(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxReferenceImageSize); err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "invalid multipart form")
		return
	}

	prompt := r.FormValue("prompt")
	if strings.TrimSpace(prompt) == "" {
		WriteError(w, http.StatusUnprocessableEntity, "prompt is required")
		return
	}

	model := r.FormValue("model")
	if model == "" {
		model = s.app.Config.Vertex.VideoModel
	}

	opts, errMsg := videoOptionsFromForm(r)
	if errMsg != "" {
		WriteError(w, http.StatusUnprocessableEntity, errMsg)
		return
	}
	if err := opts.Validate(); err != nil {
		WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, "a reference image is required")
		return
	}
	defer file.Close()

	ext, mimeType := referenceImageType(header.Filename, header.Header.Get("Content-Type"))
	if ext == "" {
		WriteError(w, http.StatusUnprocessableEntity, "reference image must be PNG or JPEG")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, maxReferenceImageSize+1))
	if err != nil || len(data) == 0 || len(data) > maxReferenceImageSize {
		WriteError(w, http.StatusUnprocessableEntity, "reference image could not be read")
		return
	}

	jobID := uuid.New().String()
	imagePath, err := s.app.Artifacts.WriteTemp(jobID, ext, data)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to store reference image")
		WriteError(w, http.StatusInternalServerError, "failed to store reference image")
		return
	}

	s.submitJob(w, r, &models.Job{
		JobID:     jobID,
		UserID:    userID,
		JobType:   models.JobTypeImageToVideo,
		Prompt:    prompt,
		Model:     model,
		Options:   encodeOptions(opts, opts.IsZero()),
		ImagePath: imagePath,
		MimeType:  mimeType,
	})
}

// handleJobGet handles GET /api/generate/jobs/{id} — current job state.
// Prefers the live registry; falls back to the durable row for jobs from a
// previous process lifetime.
func (s *Server) handleJobGet(w http.ResponseWriter, r *http.Request, jobID string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if snap, ok := s.app.JobManager.Registry().Snapshot(jobID); ok {
		WriteJSON(w, http.StatusOK, snap)
		return
	}

	job, err := s.app.Storage.JobStore().GetByJobID(r.Context(), jobID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	WriteJSON(w, http.StatusOK, jobmanager.LiveSnapshot{
		JobID:        job.JobID,
		Status:       displayStatus(job.Status),
		AssetID:      job.AssetID,
		ResultURL:    job.ResultURL,
		ErrorMessage: job.ErrorMessage,
	})
}

// displayStatus maps the durable "queued" onto the API-visible "pending".
func displayStatus(status string) string {
	if status == models.JobStatusQueued {
		return "pending"
	}
	return status
}

// tryCache answers a submission from the newest matching asset, recording a
// completed job row without calling the provider. Returns ok=false on miss.
func (s *Server) tryCache(w http.ResponseWriter, r *http.Request, userID int64, prompt, model, assetType, jobType string) (*jobResponse, bool) {
	normalized := models.NormalizePrompt(prompt)
	asset, err := s.app.Storage.AssetStore().FindCached(r.Context(), normalized, model, assetType)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Cache lookup failed")
		return nil, false
	}
	if asset == nil {
		return nil, false
	}

	job := &models.Job{
		JobID:   uuid.New().String(),
		UserID:  userID,
		JobType: jobType,
		Prompt:  prompt,
		Model:   model,
	}
	if err := s.app.JobManager.RecordCachedResult(r.Context(), job, asset); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record cached result")
		return nil, false
	}

	s.logger.Info().Str("job_id", job.JobID).Int64("asset_id", asset.ID).Msg("Cache hit, provider skipped")
	return &jobResponse{
		JobID:     job.JobID,
		Status:    models.JobStatusCompleted,
		AssetID:   &asset.ID,
		ResultURL: asset.FilePath,
		CreatedAt: job.CreatedAt,
	}, true
}

// submitJob enqueues a job and answers with the pending submission shape.
func (s *Server) submitJob(w http.ResponseWriter, r *http.Request, job *models.Job) {
	if err := s.app.JobManager.Submit(r.Context(), job); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to submit job")
		WriteError(w, http.StatusInternalServerError, "failed to submit job")
		return
	}

	WriteJSON(w, http.StatusOK, jobResponse{
		JobID:     job.JobID,
		Status:    "pending",
		CreatedAt: job.CreatedAt,
	})
}

// encodeOptions serializes a non-empty option bag; an all-default bag is
// stored as the empty string.
func encodeOptions(opts any, isZero bool) string {
	if isZero {
		return ""
	}
	data, err := json.Marshal(opts)
	if err != nil {
		return ""
	}
	return string(data)
}

// videoOptionsFromForm parses the option fields of a multipart submission.
// Returns a non-empty message on malformed values.
func videoOptionsFromForm(r *http.Request) (*models.VideoOptions, string) {
	opts := &models.VideoOptions{
		AspectRatio:    r.FormValue("aspect_ratio"),
		NegativePrompt: r.FormValue("negative_prompt"),
		Resolution:     r.FormValue("resolution"),
	}

	if v := r.FormValue("duration_seconds"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, "duration_seconds must be an integer"
		}
		opts.DurationSeconds = &n
	}
	if v := r.FormValue("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, "seed must be an integer"
		}
		opts.Seed = &n
	}
	if v := r.FormValue("generate_audio"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, "generate_audio must be a boolean"
		}
		opts.GenerateAudio = &b
	}
	return opts, ""
}

// referenceImageType resolves the temp-file extension and MIME type of an
// upload, accepting PNG and JPEG only.
func referenceImageType(filename, contentType string) (string, string) {
	switch contentType {
	case "image/png":
		return "png", "image/png"
	case "image/jpeg", "image/jpg":
		return "jpg", "image/jpeg"
	}

	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return "png", "image/png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "jpg", "image/jpeg"
	}
	return "", ""
}
