package surrealdb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kimhyeog/forge/internal/common"
	"github.com/kimhyeog/forge/internal/interfaces"
	"github.com/kimhyeog/forge/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// AssetStore implements interfaces.AssetStore using SurrealDB.
type AssetStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// assetSelectFields aliases the stored asset_id column back onto the struct's
// id field (the bare id column is SurrealDB's record id).
const assetSelectFields = "asset_id AS id, user_id, job_id, file_path, prompt, model, asset_type, created_at"

// NewAssetStore creates a new AssetStore.
func NewAssetStore(db *surrealdb.DB, logger *common.Logger) *AssetStore {
	return &AssetStore{db: db, logger: logger}
}

// Create persists a new asset row, assigning the next integer id.
func (s *AssetStore) Create(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	id, err := nextID(ctx, s.db, "asset_id")
	if err != nil {
		return nil, err
	}
	asset.ID = id
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now()
	}

	sql := `UPSERT $rid SET asset_id = $id, user_id = $user_id, job_id = $job_id,
		file_path = $file_path, prompt = $prompt, model = $model,
		asset_type = $asset_type, created_at = $created_at`
	vars := map[string]any{
		"rid":        recordID("asset", strconv.FormatInt(id, 10)),
		"id":         asset.ID,
		"user_id":    asset.UserID,
		"job_id":     asset.JobID,
		"file_path":  asset.FilePath,
		"prompt":     asset.Prompt,
		"model":      asset.Model,
		"asset_type": asset.AssetType,
		"created_at": asset.CreatedAt,
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}
	return asset, nil
}

func (s *AssetStore) GetByID(ctx context.Context, id int64) (*models.Asset, error) {
	sql := "SELECT " + assetSelectFields + " FROM asset WHERE asset_id = $id LIMIT 1"
	row, err := queryOne[models.Asset](ctx, s.db, sql, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to select asset: %w", err)
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}

// FindCached returns the newest asset matching the cache fingerprint
// (normalized prompt, model, modality), or nil on a miss.
func (s *AssetStore) FindCached(ctx context.Context, normalizedPrompt, model, assetType string) (*models.Asset, error) {
	sql := "SELECT " + assetSelectFields + ` FROM asset
		WHERE prompt = $prompt AND model = $model AND asset_type = $asset_type
		ORDER BY created_at DESC LIMIT 1`
	vars := map[string]any{
		"prompt":     normalizedPrompt,
		"model":      model,
		"asset_type": assetType,
	}
	row, err := queryOne[models.Asset](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset cache: %w", err)
	}
	return row, nil
}

func (s *AssetStore) ListByUser(ctx context.Context, userID int64, skip, limit int) ([]*models.Asset, error) {
	if limit <= 0 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}
	sql := "SELECT " + assetSelectFields + " FROM asset WHERE user_id = $user_id ORDER BY created_at DESC LIMIT $limit START $skip"
	vars := map[string]any{"user_id": userID, "limit": limit, "skip": skip}
	assets, err := queryAll[models.Asset](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

func (s *AssetStore) Delete(ctx context.Context, id int64) error {
	sql := "DELETE asset WHERE asset_id = $id"
	if _, err := surrealdb.Query[any](ctx, s.db, sql, map[string]any{"id": id}); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

// Compile-time check
var _ interfaces.AssetStore = (*AssetStore)(nil)
