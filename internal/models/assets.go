package models

import (
	"strings"
	"time"
)

// Asset is the persisted record of a produced artifact.
type Asset struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	JobID     string    `json:"job_id"`
	FilePath  string    `json:"file_path"`
	Prompt    string    `json:"prompt"` // normalized: trimmed + lowercased
	Model     string    `json:"model"`
	AssetType string    `json:"asset_type"` // "image" or "video"
	CreatedAt time.Time `json:"created_at"`
}

// NormalizePrompt produces the cache fingerprint form of a prompt.
func NormalizePrompt(prompt string) string {
	return strings.ToLower(strings.TrimSpace(prompt))
}
