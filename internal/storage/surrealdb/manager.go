// Package surrealdb implements the Forge storage contracts on SurrealDB.
package surrealdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/kimhyeog/forge/internal/common"
	"github.com/kimhyeog/forge/internal/interfaces"
	"github.com/surrealdb/surrealdb.go"
)

// isNotFoundError returns true if the error is due to a non-existent record.
// SurrealDB v3 returns this error when using Delete on a record that doesn't exist.
func isNotFoundError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Expected a single result output when using the ONLY keyword")
}

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	userStore  *UserStore
	tokenStore *TokenStore
	jobStore   *JobStore
	assetStore *AssetStore
}

// NewManager creates a new StorageManager connected to SurrealDB.
func NewManager(logger *common.Logger, config *common.Config) (*Manager, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.Storage.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Storage.Username,
		"pass": config.Storage.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Storage.Namespace, config.Storage.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	// Define tables to ensure they exist (SurrealDB v3 errors on querying non-existent tables)
	tables := []string{"user", "refresh_token", "job", "asset", "counter"}
	for _, table := range tables {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}

	m := &Manager{
		db:     db,
		logger: logger,
	}

	m.userStore = NewUserStore(db, logger)
	m.tokenStore = NewTokenStore(db, logger)
	m.jobStore = NewJobStore(db, logger)
	m.assetStore = NewAssetStore(db, logger)

	logger.Info().
		Str("address", config.Storage.Address).
		Str("namespace", config.Storage.Namespace).
		Str("database", config.Storage.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

func (m *Manager) UserStore() interfaces.UserStore   { return m.userStore }
func (m *Manager) TokenStore() interfaces.TokenStore { return m.tokenStore }
func (m *Manager) JobStore() interfaces.JobStore     { return m.jobStore }
func (m *Manager) AssetStore() interfaces.AssetStore { return m.assetStore }

// Close closes the database connection.
func (m *Manager) Close() error {
	return m.db.Close(context.Background())
}

// nextID increments and returns a named integer sequence from the counter
// table. Used for the stable integer ids of users and assets.
func nextID(ctx context.Context, db *surrealdb.DB, name string) (int64, error) {
	sql := "UPSERT $rid SET n += 1 RETURN AFTER"
	vars := map[string]any{"rid": recordID("counter", name)}

	type counterRow struct {
		N int64 `json:"n"`
	}

	results, err := surrealdb.Query[[]counterRow](ctx, db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to advance counter %s: %w", name, err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, fmt.Errorf("counter %s returned no rows", name)
	}
	return (*results)[0].Result[0].N, nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
