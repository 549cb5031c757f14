package memory

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extremebounce/arena/internal/config"
	"github.com/extremebounce/arena/pkg/core"
)

func newTestBackend(t *testing.T, compress bool) *Backend {
	t.Helper()
	return New(config.MemoryConfig{
		OutputDir:      t.TempDir(),
		CompressOutput: compress,
	})
}

func startRound(t *testing.T, b *Backend) {
	t.Helper()
	roster := []core.SpawnPoint{
		{ID: 1, Position: core.Vec2{X: -3, Y: 1}},
		{ID: 2, Position: core.Vec2{X: 3, Y: 1}},
	}
	require.NoError(t, b.StartRound("duel", roster))
}

func TestBackend_RecordBeforeStart(t *testing.T) {
	b := newTestBackend(t, false)

	assert.Error(t, b.RecordFrame(core.Snapshot{}))
	assert.Error(t, b.RecordEvent(core.RoundEvent{}))
	assert.Error(t, b.EndRound(&core.RoundOutcome{}))
}

func TestBackend_DoubleStart(t *testing.T) {
	b := newTestBackend(t, false)
	startRound(t, b)

	assert.Error(t, b.StartRound("duel", nil))
}

func TestBackend_RecordsFramesAndEvents(t *testing.T) {
	b := newTestBackend(t, false)
	startRound(t, b)

	require.NoError(t, b.RecordFrame(core.Snapshot{Tick: 1}))
	require.NoError(t, b.RecordFrame(core.Snapshot{Tick: 2}))
	require.NoError(t, b.RecordEvent(core.RoundEvent{Kind: core.EventKnockout, Tick: 2, Entity: 1, Other: 2}))

	assert.Equal(t, 2, b.FrameCount())
	events := b.Events()
	require.Len(t, events, 1)
	assert.Equal(t, core.EventKnockout, events[0].Kind)
}

func TestBackend_EndRoundExportsJSON(t *testing.T) {
	b := newTestBackend(t, false)
	startRound(t, b)

	require.NoError(t, b.RecordFrame(core.Snapshot{
		Tick: 5,
		Entities: map[core.EntityID]core.EntityFrame{
			1: {Position: core.Vec2{X: 0, Y: 1}, Alive: true},
		},
	}))

	outcome := &core.RoundOutcome{
		Ranking: []core.ScoreEntry{{Entity: 1, Score: 1, Alive: true}},
		Ticks:   5,
	}
	require.NoError(t, b.EndRound(outcome))

	path := b.ExportedFilePath()
	require.NotEmpty(t, path)
	assert.Equal(t, ".json", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var export ReplayExport
	require.NoError(t, json.Unmarshal(data, &export))
	assert.Equal(t, "duel", export.LevelName)
	assert.Len(t, export.Roster, 2)
	assert.Len(t, export.Frames, 1)
	require.NotNil(t, export.Outcome)
	assert.Equal(t, uint64(5), export.Outcome.Ticks)
}

func TestBackend_EndRoundExportsGzip(t *testing.T) {
	b := newTestBackend(t, true)
	startRound(t, b)

	require.NoError(t, b.EndRound(&core.RoundOutcome{}))

	path := b.ExportedFilePath()
	require.NotEmpty(t, path)
	assert.Equal(t, ".gz", filepath.Ext(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	var export ReplayExport
	require.NoError(t, json.NewDecoder(gz).Decode(&export))
	assert.Equal(t, "duel", export.LevelName)
}

func TestBackend_NewRoundResetsState(t *testing.T) {
	b := newTestBackend(t, false)
	startRound(t, b)
	require.NoError(t, b.RecordFrame(core.Snapshot{Tick: 1}))
	require.NoError(t, b.EndRound(&core.RoundOutcome{}))

	startRound(t, b)
	assert.Equal(t, 0, b.FrameCount())
	assert.Empty(t, b.Events())
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "round", sanitizeName(""))
	assert.Equal(t, "my_level", sanitizeName("my level"))
	assert.Equal(t, "a-b", sanitizeName("a/b"))
}
