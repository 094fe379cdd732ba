// Package artifacts persists generated media files under a fixed directory
// layout and serves them back as /storage/ relative URLs.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kimhyeog/forge/internal/common"
	"github.com/kimhyeog/forge/internal/interfaces"
)

// URLPrefix is the public path under which artifacts are served.
const URLPrefix = "/storage/"

// subdirectories defines the directory layout under the root.
var subdirectories = []string{"images", "videos", "temp"}

// Store writes artifact bytes to the filesystem layout.
type Store struct {
	root   string
	logger *common.Logger
}

// NewStore creates a Store and ensures the directory layout exists.
func NewStore(logger *common.Logger, root string) (*Store, error) {
	for _, sub := range subdirectories {
		dir := filepath.Join(root, sub)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	logger.Debug().Str("path", root).Msg("Artifact store opened")
	return &Store{root: root, logger: logger}, nil
}

// Root returns the base directory of the store.
func (s *Store) Root() string {
	return s.root
}

// write streams data to its final path. Job ids are unique, so a duplicate
// write can only overwrite the same job's own artifact.
func (s *Store) write(sub, name string, data []byte) (string, error) {
	path := filepath.Join(s.root, sub, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", path, err)
	}
	return URLPrefix + sub + "/" + name, nil
}

// WriteImage writes PNG bytes for a job and returns the storage URL.
func (s *Store) WriteImage(jobID string, data []byte) (string, error) {
	return s.write("images", jobID+".png", data)
}

// WriteVideo writes MP4 bytes for a job and returns the storage URL.
func (s *Store) WriteVideo(jobID string, data []byte) (string, error) {
	return s.write("videos", jobID+".mp4", data)
}

// WriteTemp stores an uploaded reference image and returns its absolute path.
// ext must be "png" or "jpg".
func (s *Store) WriteTemp(jobID, ext string, data []byte) (string, error) {
	path := filepath.Join(s.root, "temp", jobID+"."+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp image %s: %w", path, err)
	}
	return path, nil
}

// ReadFile reads an absolute path previously returned by WriteTemp.
func (s *Store) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Delete removes the file behind a /storage/ URL or an absolute path.
// A missing file is not an error.
func (s *Store) Delete(fileURL string) error {
	path := fileURL
	if rel, ok := strings.CutPrefix(fileURL, URLPrefix); ok {
		path = filepath.Join(s.root, filepath.FromSlash(rel))
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete artifact %s: %w", path, err)
	}
	return nil
}

// Compile-time check
var _ interfaces.ArtifactStore = (*Store)(nil)
