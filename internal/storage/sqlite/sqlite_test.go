package sqlitestorage

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extremebounce/arena/internal/logging"
)

func TestNew_DatabaseLoggerLevel(t *testing.T) {
	b, err := New(Config{LogLevel: "debug"}, logging.NewSlogManager())
	require.NoError(t, err)
	defer b.Backend.Close()

	assert.Equal(t, zerolog.DebugLevel, b.mgr.Logger.GetLevel())
}

func TestNew_DatabaseLoggerLevelFallback(t *testing.T) {
	b, err := New(Config{}, logging.NewSlogManager())
	require.NoError(t, err)
	defer b.Backend.Close()

	assert.Equal(t, zerolog.InfoLevel, b.mgr.Logger.GetLevel())
}
