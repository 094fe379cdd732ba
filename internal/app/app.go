// Package app is the composition root: one instance of each service is
// constructed at startup and injected into the HTTP handlers. No lazy
// global initialization.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kimhyeog/forge/internal/clients/vertex"
	"github.com/kimhyeog/forge/internal/common"
	"github.com/kimhyeog/forge/internal/interfaces"
	"github.com/kimhyeog/forge/internal/services/auth"
	"github.com/kimhyeog/forge/internal/services/jobmanager"
	"github.com/kimhyeog/forge/internal/storage/artifacts"
	"github.com/kimhyeog/forge/internal/storage/surrealdb"
)

// App holds all initialized services, clients, and configuration.
// It is the shared core used by cmd/forge-server.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.StorageManager
	Artifacts   interfaces.ArtifactStore
	Generator   interfaces.GeneratorClient
	AuthService *auth.Service
	JobManager  *jobmanager.JobManager
	StartupTime time.Time
}

// NewApp initializes configuration, storage, clients, and services.
// configPath may be empty, in which case FORGE_CONFIG and the default
// location are tried.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	common.LoadVersionFromFile()

	if configPath == "" {
		configPath = os.Getenv("FORGE_CONFIG")
	}
	if configPath == "" {
		configPath = "config/forge-server.toml"
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	storageManager, err := surrealdb.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	artifactStore, err := artifacts.NewStore(logger, config.Artifacts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize artifact storage: %w", err)
	}

	ctx := context.Background()
	generator, err := vertex.NewClient(ctx, config.Vertex,
		vertex.WithLogger(logger),
		vertex.WithPermits(config.Queue.GetImagePermits(), config.Queue.GetVideoPermits()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Vertex client: %w", err)
	}

	authService := auth.NewService(storageManager.UserStore(), storageManager.TokenStore(), &config.Auth, logger)

	jobMgr := jobmanager.NewJobManager(storageManager, artifactStore, generator, logger, config.Queue)

	a := &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		Artifacts:   artifactStore,
		Generator:   generator,
		AuthService: authService,
		JobManager:  jobMgr,
		StartupTime: startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// StartJobManager reaps zombies, recovers in-flight jobs, and launches the
// worker pool.
func (a *App) StartJobManager() {
	a.JobManager.Start()
}

// Close releases all resources held by the App.
// Shutdown order: stop job manager, close storage.
func (a *App) Close() {
	if a.JobManager != nil {
		a.JobManager.Stop()
		a.JobManager = nil
	}
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
