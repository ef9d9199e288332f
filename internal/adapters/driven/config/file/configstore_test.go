package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veldt-labs/bookrag/internal/core/domain"
)

func TestNewStore_Defaults(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
	assert.Equal(t, domain.DefaultConfig(), store.Config())
}

func TestLoad_OverlaysFileOnDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
config_id = 3

[ingestion]
chunk_size = 256

[retrieval]
backend = "azsearch"
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewStore(tmpDir)
	require.NoError(t, err)

	cfg := store.Config()
	assert.Equal(t, 3, cfg.ConfigID)
	assert.Equal(t, 256, cfg.Ingestion.ChunkSize)
	assert.Equal(t, "azsearch", cfg.Retrieval.Backend)
	// untouched values keep their defaults
	assert.Equal(t, domain.DefaultConfig().Ingestion.TokensPerMin, cfg.Ingestion.TokensPerMin)
	assert.Equal(t, domain.DefaultConfig().Generation.NumContextChunks, cfg.Generation.NumContextChunks)
}

func TestLoad_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not = [valid"), 0600))

	_, err := NewStore(tmpDir)

	assert.Error(t, err)
}

func TestSave_RoundTrips(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStore(tmpDir)
	require.NoError(t, err)

	cfg := store.Config()
	cfg.ConfigID = 7
	cfg.Retrieval.TopKRaw = 40
	require.NoError(t, store.Save(cfg))

	reopened, err := NewStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 7, reopened.Config().ConfigID)
	assert.Equal(t, 40, reopened.Config().Retrieval.TopKRaw)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewStore(tmpDir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan domain.Config, 1)
	require.NoError(t, store.Watch(ctx, func(cfg domain.Config) {
		select {
		case changed <- cfg:
		default:
		}
	}))

	cfg := store.Config()
	cfg.ConfigID = 9
	require.NoError(t, store.Save(cfg))

	select {
	case got := <-changed:
		assert.Equal(t, 9, got.ConfigID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
