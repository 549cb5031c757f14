// internal/storage/storage_test.go
package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extremebounce/arena/internal/config"
	"github.com/extremebounce/arena/internal/logging"
	"github.com/extremebounce/arena/internal/storage"
	"github.com/extremebounce/arena/internal/storage/memory"
	sqlitestorage "github.com/extremebounce/arena/internal/storage/sqlite"
)

func TestNewBackend_Memory(t *testing.T) {
	cfg := config.StorageConfig{
		Type:   "memory",
		Memory: config.MemoryConfig{OutputDir: t.TempDir()},
	}

	b, err := storage.NewBackend(cfg, logging.NewSlogManager())
	require.NoError(t, err)
	require.NotNil(t, b)

	_, ok := b.(*memory.Backend)
	assert.True(t, ok)
	assert.NoError(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestNewBackend_Sqlite(t *testing.T) {
	cfg := config.StorageConfig{Type: "sqlite", Path: t.TempDir() + "/rounds.db"}

	b, err := storage.NewBackend(cfg, logging.NewSlogManager())
	require.NoError(t, err)

	sb, ok := b.(*sqlitestorage.Backend)
	require.True(t, ok)
	assert.Equal(t, cfg.Path, sb.ExportedFilePath())
	assert.NoError(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestNewBackend_UnknownType(t *testing.T) {
	_, err := storage.NewBackend(config.StorageConfig{Type: "carrier-pigeon"}, logging.NewSlogManager())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}

func TestBackendInterfaces(t *testing.T) {
	var b storage.Backend = memory.New(config.MemoryConfig{})
	e, ok := b.(storage.Exportable)
	require.True(t, ok, "the memory backend exports replay files")
	assert.Equal(t, "", e.ExportedFilePath(), "no path before the first export")
}
