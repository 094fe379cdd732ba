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

// ErrNotFound is returned by stores when no matching row exists.
var ErrNotFound = fmt.Errorf("not found")

// UserStore implements interfaces.UserStore using SurrealDB.
type UserStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewUserStore creates a new UserStore.
func NewUserStore(db *surrealdb.DB, logger *common.Logger) *UserStore {
	return &UserStore{db: db, logger: logger}
}

// Create persists a new user, assigning the next integer id.
func (s *UserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	id, err := nextID(ctx, s.db, "user_id")
	if err != nil {
		return nil, err
	}
	user.ID = id
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	sql := `UPSERT $rid SET user_id = $id, email = $email, username = $username,
		password_hash = $password_hash, created_at = $created_at`
	vars := map[string]any{
		"rid":           recordID("user", strconv.FormatInt(id, 10)),
		"id":            user.ID,
		"email":         user.Email,
		"username":      user.Username,
		"password_hash": user.PasswordHash,
		"created_at":    user.CreatedAt,
	}

	if _, err := surrealdb.Query[any](ctx, s.db, sql, vars); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// userSelectFields aliases the stored user_id column back onto the struct's
// id field (the bare id column is SurrealDB's record id).
const userSelectFields = "user_id AS id, email, username, password_hash, created_at"

// userRow mirrors models.User with the password hash mapped from storage.
type userRow struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r *userRow) toModel() *models.User {
	return &models.User{
		ID:           r.ID,
		Email:        r.Email,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

func (s *UserStore) getWhere(ctx context.Context, field string, value any) (*models.User, error) {
	sql := fmt.Sprintf("SELECT %s FROM user WHERE %s = $value LIMIT 1", userSelectFields, field)
	row, err := queryOne[userRow](ctx, s.db, sql, map[string]any{"value": value})
	if err != nil {
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return row.toModel(), nil
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getWhere(ctx, "user_id", id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getWhere(ctx, "email", email)
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getWhere(ctx, "username", username)
}

// Compile-time check
var _ interfaces.UserStore = (*UserStore)(nil)
