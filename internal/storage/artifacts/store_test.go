package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimhyeog/forge/internal/common"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	return store
}

func TestNewStoreCreatesLayout(t *testing.T) {
	root := t.TempDir()
	_, err := NewStore(common.NewSilentLogger(), root)
	require.NoError(t, err)

	for _, sub := range []string{"images", "videos", "temp"} {
		info, err := os.Stat(filepath.Join(root, sub))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestWriteImageReturnsStorageURL(t *testing.T) {
	store := newTestStore(t)

	url, err := store.WriteImage("job-1", []byte("png-data"))
	require.NoError(t, err)
	assert.Equal(t, "/storage/images/job-1.png", url)

	data, err := os.ReadFile(filepath.Join(store.Root(), "images", "job-1.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("png-data"), data)
}

func TestWriteVideoReturnsStorageURL(t *testing.T) {
	store := newTestStore(t)

	url, err := store.WriteVideo("job-2", []byte("mp4-data"))
	require.NoError(t, err)
	assert.Equal(t, "/storage/videos/job-2.mp4", url)
}

func TestWriteTempRoundTrip(t *testing.T) {
	store := newTestStore(t)

	path, err := store.WriteTemp("job-3", "jpg", []byte("ref"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(store.Root(), "temp", "job-3.jpg"), path)

	data, err := store.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("ref"), data)
}

func TestDeleteByURLAndByPath(t *testing.T) {
	store := newTestStore(t)

	url, err := store.WriteImage("job-4", []byte("x"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(url))
	_, err = os.Stat(filepath.Join(store.Root(), "images", "job-4.png"))
	assert.True(t, os.IsNotExist(err))

	path, err := store.WriteTemp("job-5", "png", []byte("y"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteMissingFileIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Delete("/storage/images/never-existed.png"))
	assert.NoError(t, store.Delete("/storage/images/never-existed.png"))
}

func TestDuplicateWriteOverwrites(t *testing.T) {
	store := newTestStore(t)

	_, err := store.WriteImage("job-6", []byte("first"))
	require.NoError(t, err)
	url, err := store.WriteImage("job-6", []byte("second"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(store.Root(), "images", "job-6.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
	assert.Equal(t, "/storage/images/job-6.png", url)
}
