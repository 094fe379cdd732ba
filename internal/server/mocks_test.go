package server

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kimhyeog/forge/internal/app"
	"github.com/kimhyeog/forge/internal/common"
	"github.com/kimhyeog/forge/internal/interfaces"
	"github.com/kimhyeog/forge/internal/models"
	"github.com/kimhyeog/forge/internal/services/auth"
	"github.com/kimhyeog/forge/internal/services/jobmanager"
	"github.com/kimhyeog/forge/internal/storage/artifacts"
)

var errNotFound = fmt.Errorf("not found")

// --- in-memory stores ---

type memUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func (s *memUserStore) Create(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = user
	return user, nil
}

func (s *memUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, errNotFound
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errNotFound
}

func (s *memUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, errNotFound
}

type memTokenStore struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
}

func (s *memTokenStore) Save(_ context.Context, token *models.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.Token] = token
	return nil
}

func (s *memTokenStore) Get(_ context.Context, token string) (*models.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[token]; ok {
		return t, nil
	}
	return nil, errNotFound
}

func (s *memTokenStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

func (s *memTokenStore) DeleteAllForUser(_ context.Context, userID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, t := range s.tokens {
		if t.UserID == userID {
			delete(s.tokens, k)
			n++
		}
	}
	return n, nil
}

type memJobStore struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

func (s *memJobStore) Create(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	copied := *job
	s.jobs[job.JobID] = &copied
	return nil
}

func (s *memJobStore) Update(_ context.Context, jobID string, update models.JobUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return errNotFound
	}
	if update.Status != nil {
		job.Status = *update.Status
	}
	if update.AssetID != nil {
		job.AssetID = update.AssetID
	}
	if update.ResultURL != nil {
		job.ResultURL = *update.ResultURL
	}
	if update.ErrorMessage != nil {
		job.ErrorMessage = *update.ErrorMessage
	}
	job.UpdatedAt = time.Now()
	return nil
}

func (s *memJobStore) GetByJobID(_ context.Context, jobID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		copied := *job
		return &copied, nil
	}
	return nil, errNotFound
}

func (s *memJobStore) FindByStatus(_ context.Context, status string) ([]*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Job
	for _, job := range s.jobs {
		if job.Status == status {
			copied := *job
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memJobStore) FindStaleProcessing(_ context.Context, before time.Time) ([]*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Job
	for _, job := range s.jobs {
		if job.Status == models.JobStatusProcessing && job.UpdatedAt.Before(before) {
			copied := *job
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memJobStore) CountByStatus(_ context.Context, status string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, job := range s.jobs {
		if job.Status == status {
			n++
		}
	}
	return n, nil
}

type memAssetStore struct {
	mu     sync.Mutex
	nextID int64
	assets map[int64]*models.Asset
}

func (s *memAssetStore) Create(_ context.Context, asset *models.Asset) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	asset.ID = s.nextID
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now()
	}
	copied := *asset
	s.assets[asset.ID] = &copied
	return asset, nil
}

func (s *memAssetStore) GetByID(_ context.Context, id int64) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.assets[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, errNotFound
}

func (s *memAssetStore) FindCached(_ context.Context, prompt, model, assetType string) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var newest *models.Asset
	for _, a := range s.assets {
		if a.Prompt == prompt && a.Model == model && a.AssetType == assetType {
			if newest == nil || a.CreatedAt.After(newest.CreatedAt) {
				newest = a
			}
		}
	}
	if newest == nil {
		return nil, nil
	}
	copied := *newest
	return &copied, nil
}

func (s *memAssetStore) ListByUser(_ context.Context, userID int64, skip, limit int) ([]*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Asset
	for _, a := range s.assets {
		if a.UserID == userID {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *memAssetStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.assets, id)
	return nil
}

type mockStorageManager struct {
	users  *memUserStore
	tokens *memTokenStore
	jobs   *memJobStore
	assets *memAssetStore
}

func newMockStorage() *mockStorageManager {
	return &mockStorageManager{
		users:  &memUserStore{users: make(map[int64]*models.User)},
		tokens: &memTokenStore{tokens: make(map[string]*models.RefreshToken)},
		jobs:   &memJobStore{jobs: make(map[string]*models.Job)},
		assets: &memAssetStore{assets: make(map[int64]*models.Asset)},
	}
}

func (m *mockStorageManager) UserStore() interfaces.UserStore   { return m.users }
func (m *mockStorageManager) TokenStore() interfaces.TokenStore { return m.tokens }
func (m *mockStorageManager) JobStore() interfaces.JobStore     { return m.jobs }
func (m *mockStorageManager) AssetStore() interfaces.AssetStore { return m.assets }
func (m *mockStorageManager) Close() error                      { return nil }

// --- generator ---

type mockGenerator struct {
	mu    sync.Mutex
	calls int
}

func (g *mockGenerator) GenerateImage(_ context.Context, _, _ string, _ *models.ImageOptions) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return []byte("png"), nil
}

func (g *mockGenerator) GenerateVideo(_ context.Context, _, _ string, _ []byte, _ string, _ *models.VideoOptions) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return []byte("mp4"), nil
}

func (g *mockGenerator) PermitState(modality string) (int, int) {
	if modality == "video" {
		return 0, 3
	}
	return 0, 10
}

func (g *mockGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// --- fixture ---

type testEnv struct {
	server  *Server
	storage *mockStorageManager
	gen     *mockGenerator
	jm      *jobmanager.JobManager
	auth    *auth.Service
}

// newTestEnv wires a full server onto in-memory stores. The job manager is
// constructed but not started: submitted jobs stay pending so handler
// behavior can be observed without worker timing.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	config := common.NewDefaultConfig()
	config.Artifacts.Path = t.TempDir()
	logger := common.NewSilentLogger()

	storage := newMockStorage()
	gen := &mockGenerator{}

	artifactStore, err := artifacts.NewStore(logger, config.Artifacts.Path)
	require.NoError(t, err)

	authService := auth.NewService(storage.UserStore(), storage.TokenStore(), &config.Auth, logger)
	jm := jobmanager.NewJobManager(storage, artifactStore, gen, logger, config.Queue)

	a := &app.App{
		Config:      config,
		Logger:      logger,
		Storage:     storage,
		Artifacts:   artifactStore,
		Generator:   gen,
		AuthService: authService,
		JobManager:  jm,
		StartupTime: time.Now(),
	}

	return &testEnv{
		server:  NewServer(a),
		storage: storage,
		gen:     gen,
		jm:      jm,
		auth:    authService,
	}
}

// signupAndLogin registers a user and returns (userID, bearer token).
func (e *testEnv) signupAndLogin(t *testing.T, email, username string) (int64, string) {
	t.Helper()
	user, err := e.auth.Signup(context.Background(), email, username, "password123")
	require.NoError(t, err)
	pair, err := e.auth.Login(context.Background(), email, "password123")
	require.NoError(t, err)
	return user.ID, pair.AccessToken
}
