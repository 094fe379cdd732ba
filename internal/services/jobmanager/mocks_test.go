package jobmanager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kimhyeog/forge/internal/interfaces"
	"github.com/kimhyeog/forge/internal/models"
)

// --- in-memory job store ---

type memJobStore struct {
	mu          sync.Mutex
	jobs        map[string]*models.Job
	transitions map[string][]string // job_id -> status history
}

func newMemJobStore() *memJobStore {
	return &memJobStore{
		jobs:        make(map[string]*models.Job),
		transitions: make(map[string][]string),
	}
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
	s.transitions[job.JobID] = append(s.transitions[job.JobID], job.Status)
	return nil
}

func (s *memJobStore) Update(_ context.Context, jobID string, update models.JobUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("job %s not found", jobID)
	}
	if update.Status != nil {
		job.Status = *update.Status
		s.transitions[jobID] = append(s.transitions[jobID], *update.Status)
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
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s not found", jobID)
	}
	copied := *job
	return &copied, nil
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

// seed inserts a job row directly, bypassing Create side effects.
func (s *memJobStore) seed(job *models.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.JobID] = &copied
}

func (s *memJobStore) history(jobID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.transitions[jobID]...)
}

// --- in-memory asset store ---

type memAssetStore struct {
	mu     sync.Mutex
	nextID int64
	assets map[int64]*models.Asset
}

func newMemAssetStore() *memAssetStore {
	return &memAssetStore{assets: make(map[int64]*models.Asset)}
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
	return nil, fmt.Errorf("asset %d not found", id)
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

func (s *memAssetStore) ListByUser(_ context.Context, userID int64, _, _ int) ([]*models.Asset, error) {
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

// --- storage manager ---

type mockStorageManager struct {
	jobs   *memJobStore
	assets *memAssetStore
}

func newMockStorage() *mockStorageManager {
	return &mockStorageManager{jobs: newMemJobStore(), assets: newMemAssetStore()}
}

func (m *mockStorageManager) UserStore() interfaces.UserStore   { return nil }
func (m *mockStorageManager) TokenStore() interfaces.TokenStore { return nil }
func (m *mockStorageManager) JobStore() interfaces.JobStore     { return m.jobs }
func (m *mockStorageManager) AssetStore() interfaces.AssetStore { return m.assets }
func (m *mockStorageManager) Close() error                      { return nil }

// --- artifact store ---

type mockArtifacts struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
}

func newMockArtifacts() *mockArtifacts {
	return &mockArtifacts{files: make(map[string][]byte)}
}

func (m *mockArtifacts) WriteImage(jobID string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	url := "/storage/images/" + jobID + ".png"
	m.files[url] = data
	return url, nil
}

func (m *mockArtifacts) WriteVideo(jobID string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	url := "/storage/videos/" + jobID + ".mp4"
	m.files[url] = data
	return url, nil
}

func (m *mockArtifacts) WriteTemp(jobID, ext string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path := "/tmp/forge/" + jobID + "." + ext
	m.files[path] = data
	return path, nil
}

func (m *mockArtifacts) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if data, ok := m.files[path]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("file %s not found", path)
}

func (m *mockArtifacts) Delete(fileURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, fileURL)
	m.deleted = append(m.deleted, fileURL)
	return nil
}

func (m *mockArtifacts) Root() string { return "/tmp/forge" }

func (m *mockArtifacts) deletedPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// --- generator client ---

type mockGenerator struct {
	mu         sync.Mutex
	imageCalls int
	videoCalls int
	imageErr   error
	videoErr   error
	delay      time.Duration
}

func (g *mockGenerator) GenerateImage(ctx context.Context, _, _ string, _ *models.ImageOptions) ([]byte, error) {
	g.mu.Lock()
	g.imageCalls++
	err := g.imageErr
	g.mu.Unlock()
	if g.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.delay):
		}
	}
	if err != nil {
		return nil, err
	}
	return []byte("png-bytes"), nil
}

func (g *mockGenerator) GenerateVideo(ctx context.Context, _, _ string, _ []byte, _ string, _ *models.VideoOptions) ([]byte, error) {
	g.mu.Lock()
	g.videoCalls++
	err := g.videoErr
	g.mu.Unlock()
	if g.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.delay):
		}
	}
	if err != nil {
		return nil, err
	}
	return []byte("mp4-bytes"), nil
}

func (g *mockGenerator) PermitState(string) (int, int) { return 0, 10 }

func (g *mockGenerator) calls() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.imageCalls, g.videoCalls
}
