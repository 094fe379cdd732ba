// Package common provides shared utilities for Forge
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Forge
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Artifacts   ArtifactConfig `toml:"artifacts"`
	Vertex      VertexConfig   `toml:"vertex"`
	Auth        AuthConfig     `toml:"auth"`
	Queue       QueueConfig    `toml:"queue"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds SurrealDB connection configuration.
type StorageConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// ArtifactConfig holds the filesystem layout for generated media.
type ArtifactConfig struct {
	Path string `toml:"path"`
}

// VertexConfig holds Vertex AI configuration.
type VertexConfig struct {
	Project         string `toml:"project"`
	Region          string `toml:"region"`
	CredentialsFile string `toml:"credentials_file"`
	ImageModel      string `toml:"image_model"`
	VideoModel      string `toml:"video_model"`
	LoadTestMode    bool   `toml:"load_test_mode"`
}

// AuthConfig holds JWT and refresh-token configuration.
type AuthConfig struct {
	JWTSecret          string `toml:"jwt_secret"`
	JWTAlgorithm       string `toml:"jwt_algorithm"`
	AccessTokenExpiry  string `toml:"access_token_expiry"`  // duration string, default "15m"
	RefreshTokenExpiry string `toml:"refresh_token_expiry"` // duration string, default "168h"
}

// GetAccessTokenExpiry parses and returns the access token lifetime.
func (c *AuthConfig) GetAccessTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.AccessTokenExpiry)
	if err != nil {
		return 15 * time.Minute
	}
	return d
}

// GetRefreshTokenExpiry parses and returns the refresh token lifetime.
func (c *AuthConfig) GetRefreshTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.RefreshTokenExpiry)
	if err != nil {
		return 7 * 24 * time.Hour
	}
	return d
}

// QueueConfig holds worker pool and permit configuration.
type QueueConfig struct {
	Workers      int `toml:"workers"`
	ImagePermits int `toml:"image_permits"`
	VideoPermits int `toml:"video_permits"`
}

// GetWorkers returns the worker count with the default applied.
func (c *QueueConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 5
	}
	return c.Workers
}

// GetImagePermits returns the image permit count with the default applied.
func (c *QueueConfig) GetImagePermits() int {
	if c.ImagePermits <= 0 {
		return 10
	}
	return c.ImagePermits
}

// GetVideoPermits returns the video permit count with the default applied.
func (c *QueueConfig) GetVideoPermits() int {
	if c.VideoPermits <= 0 {
		return 3
	}
	return c.VideoPermits
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Address:   "ws://localhost:8000/rpc",
			Namespace: "forge",
			Database:  "forge",
			Username:  "root",
			Password:  "root",
		},
		Artifacts: ArtifactConfig{
			Path: "/app/storage",
		},
		Vertex: VertexConfig{
			Region:     "us-central1",
			ImageModel: "imagen-3.0-fast-generate-001",
			VideoModel: "veo-3.0-fast-generate-001",
		},
		Auth: AuthConfig{
			JWTSecret:          "dev-jwt-secret-change-in-production",
			JWTAlgorithm:       "HS256",
			AccessTokenExpiry:  "15m",
			RefreshTokenExpiry: "168h",
		},
		Queue: QueueConfig{
			Workers:      5,
			ImagePermits: 10,
			VideoPermits: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Apply environment overrides
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FORGE_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FORGE_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("FORGE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("FORGE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.Storage.Address = v
	}
	if v := os.Getenv("DATABASE_NAMESPACE"); v != "" {
		config.Storage.Namespace = v
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" {
		config.Storage.Database = v
	}
	if v := os.Getenv("DATABASE_USER"); v != "" {
		config.Storage.Username = v
	}
	if v := os.Getenv("DATABASE_PASS"); v != "" {
		config.Storage.Password = v
	}

	if v := os.Getenv("STORAGE_PATH"); v != "" {
		config.Artifacts.Path = v
	}

	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		config.Vertex.Project = v
	}
	if v := os.Getenv("GOOGLE_CLOUD_REGION"); v != "" {
		config.Vertex.Region = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		config.Vertex.CredentialsFile = v
	}
	if v := os.Getenv("LOAD_TEST_MODE"); v != "" {
		config.Vertex.LoadTestMode = strings.EqualFold(v, "true")
	}

	if v := os.Getenv("JWT_SECRET_KEY"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("JWT_ALGORITHM"); v != "" {
		config.Auth.JWTAlgorithm = v
	}
	if v := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m > 0 {
			config.Auth.AccessTokenExpiry = fmt.Sprintf("%dm", m)
		}
	}
	if v := os.Getenv("REFRESH_TOKEN_EXPIRE_DAYS"); v != "" {
		if d, err := strconv.Atoi(v); err == nil && d > 0 {
			config.Auth.RefreshTokenExpiry = fmt.Sprintf("%dh", d*24)
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
