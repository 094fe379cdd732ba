package models

import "time"

// Job represents a unit of generation work. The durable row is the source
// of truth; the jobmanager registry keeps a live in-memory mirror.
type Job struct {
	JobID        string    `json:"job_id"`
	UserID       int64     `json:"user_id"`
	JobType      string    `json:"job_type"`
	Prompt       string    `json:"prompt"`
	Model        string    `json:"model"`
	Options      string    `json:"options,omitempty"` // provider option bag, JSON-encoded
	ImagePath    string    `json:"image_path,omitempty"`
	MimeType     string    `json:"mime_type,omitempty"`
	Status       string    `json:"status"`
	AssetID      *int64    `json:"asset_id,omitempty"`
	ResultURL    string    `json:"result_url,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Job type constants
const (
	JobTypeTextToImage  = "text-to-image"
	JobTypeTextToVideo  = "text-to-video"
	JobTypeImageToVideo = "image-to-video"
)

// Job status constants. Transitions follow queued -> processing ->
// {completed, failed}; a terminal job is never re-enqueued.
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// IsTerminal reports whether a status admits no further transitions.
func IsTerminal(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}

// AssetTypeForJob maps a job type to the asset modality tag.
func AssetTypeForJob(jobType string) string {
	if jobType == JobTypeTextToImage {
		return "image"
	}
	return "video"
}

// JobUpdate carries a partial update for a job row. Nil fields are left
// untouched by the store.
type JobUpdate struct {
	Status       *string
	AssetID      *int64
	ResultURL    *string
	ErrorMessage *string
}

// JobEvent is broadcast via the admin WebSocket feed when job state changes.
type JobEvent struct {
	Type      string    `json:"type"` // "job_queued", "job_started", "job_completed", "job_failed"
	JobID     string    `json:"job_id"`
	JobType   string    `json:"job_type"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	QueueSize int       `json:"queue_size"`
}
