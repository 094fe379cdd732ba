package surrealdb

import (
	"context"
	"fmt"

	"github.com/kimhyeog/forge/internal/common"
	"github.com/kimhyeog/forge/internal/interfaces"
	"github.com/kimhyeog/forge/internal/models"
	"github.com/surrealdb/surrealdb.go"
)

// TokenStore implements interfaces.TokenStore using SurrealDB.
type TokenStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(db *surrealdb.DB, logger *common.Logger) *TokenStore {
	return &TokenStore{db: db, logger: logger}
}

func (s *TokenStore) Save(ctx context.Context, token *models.RefreshToken) error {
	sql := `UPSERT $rid SET token = $token, user_id = $user_id, expires_at = $expires_at`
	vars := map[string]any{
		"rid":        recordID("refresh_token", token.Token),
		"token":      token.Token,
		"user_id":    token.UserID,
		"expires_at": token.ExpiresAt,
	}
	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

func (s *TokenStore) Get(ctx context.Context, token string) (*models.RefreshToken, error) {
	sql := "SELECT token, user_id, expires_at FROM refresh_token WHERE token = $token LIMIT 1"
	row, err := queryOne[models.RefreshToken](ctx, s.db, sql, map[string]any{"token": token})
	if err != nil {
		return nil, fmt.Errorf("failed to select refresh token: %w", err)
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row, nil
}

// Delete removes a refresh token. Deleting an absent token is a no-op.
func (s *TokenStore) Delete(ctx context.Context, token string) error {
	if _, err := surrealdb.Delete[models.RefreshToken](ctx, s.db, recordID("refresh_token", token)); err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

// DeleteAllForUser revokes every refresh token owned by a user.
func (s *TokenStore) DeleteAllForUser(ctx context.Context, userID int64) (int, error) {
	sql := "DELETE refresh_token WHERE user_id = $user_id RETURN BEFORE"
	rows, err := queryAll[models.RefreshToken](ctx, s.db, sql, map[string]any{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete user tokens: %w", err)
	}
	return len(rows), nil
}

// Compile-time check
var _ interfaces.TokenStore = (*TokenStore)(nil)
