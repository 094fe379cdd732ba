// Package interfaces defines service contracts for Forge
package interfaces

import (
	"context"
	"time"

	"github.com/kimhyeog/forge/internal/models"
)

// StorageManager coordinates all storage backends
type StorageManager interface {
	UserStore() UserStore
	TokenStore() TokenStore
	JobStore() JobStore
	AssetStore() AssetStore

	// Lifecycle
	Close() error
}

// UserStore manages user accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// TokenStore manages refresh tokens.
type TokenStore interface {
	Save(ctx context.Context, token *models.RefreshToken) error
	Get(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
	DeleteAllForUser(ctx context.Context, userID int64) (int, error)
}

// JobStore is the durable record of every generation job.
type JobStore interface {
	Create(ctx context.Context, job *models.Job) error
	Update(ctx context.Context, jobID string, update models.JobUpdate) error
	GetByJobID(ctx context.Context, jobID string) (*models.Job, error)
	FindByStatus(ctx context.Context, status string) ([]*models.Job, error)
	// FindStaleProcessing returns processing jobs not updated since the cutoff.
	FindStaleProcessing(ctx context.Context, before time.Time) ([]*models.Job, error)
	CountByStatus(ctx context.Context, status string) (int, error)
}

// AssetStore manages persisted artifact records.
type AssetStore interface {
	Create(ctx context.Context, asset *models.Asset) (*models.Asset, error)
	GetByID(ctx context.Context, id int64) (*models.Asset, error)
	// FindCached returns the newest asset matching the cache fingerprint, or nil.
	FindCached(ctx context.Context, normalizedPrompt, model, assetType string) (*models.Asset, error)
	ListByUser(ctx context.Context, userID int64, skip, limit int) ([]*models.Asset, error)
	Delete(ctx context.Context, id int64) error
}

// ArtifactStore writes generated media to the filesystem layout and returns
// storage-relative URLs.
type ArtifactStore interface {
	WriteImage(jobID string, data []byte) (string, error)
	WriteVideo(jobID string, data []byte) (string, error)
	WriteTemp(jobID, ext string, data []byte) (string, error)
	ReadFile(path string) ([]byte, error)
	// Delete removes the file behind a /storage/ URL. Missing files are not an error.
	Delete(fileURL string) error
	Root() string
}
