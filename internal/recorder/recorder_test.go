package recorder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extremebounce/arena/internal/config"
	"github.com/extremebounce/arena/internal/logging"
	"github.com/extremebounce/arena/internal/storage/memory"
	"github.com/extremebounce/arena/pkg/core"
)

func newTestRecorder(t *testing.T, sampleEvery int) (*Recorder, *memory.Backend) {
	t.Helper()

	backend := memory.New(config.MemoryConfig{OutputDir: t.TempDir()})
	require.NoError(t, backend.Init())

	rec, err := New(Dependencies{
		Backend:    backend,
		LogManager: logging.NewSlogManager(),
	}, sampleEvery)
	require.NoError(t, err)
	return rec, backend
}

func drain(t *testing.T, rec *Recorder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, rec.Drain(ctx))
}

func TestRecorder_RequiresBackend(t *testing.T) {
	_, err := New(Dependencies{LogManager: logging.NewSlogManager()}, 1)
	assert.Error(t, err)
}

func TestRecorder_SamplesFrames(t *testing.T) {
	rec, backend := newTestRecorder(t, 3)

	require.NoError(t, rec.RoundStarted("duel", nil))
	for tick := uint64(1); tick <= 9; tick++ {
		rec.Frame(core.Snapshot{Tick: tick})
	}
	drain(t, rec)

	assert.Equal(t, 3, backend.FrameCount(), "every 3rd frame should be stored")
}

func TestRecorder_ZeroSampleDisablesFrames(t *testing.T) {
	rec, backend := newTestRecorder(t, 0)

	require.NoError(t, rec.RoundStarted("duel", nil))
	rec.Frame(core.Snapshot{Tick: 1})
	rec.Frame(core.Snapshot{Tick: 2})
	drain(t, rec)

	assert.Equal(t, 0, backend.FrameCount())
}

func TestRecorder_RecordsEventsInOrder(t *testing.T) {
	rec, backend := newTestRecorder(t, 0)

	require.NoError(t, rec.RoundStarted("duel", nil))
	rec.Events([]core.RoundEvent{
		{Kind: core.EventKnockout, Tick: 10, Entity: 1, Other: 2},
		{Kind: core.EventElimination, Tick: 12, Entity: 2},
	})
	drain(t, rec)

	events := backend.Events()
	require.Len(t, events, 2)
	assert.Equal(t, core.EventKnockout, events[0].Kind)
	assert.Equal(t, core.EventElimination, events[1].Kind)
}

func TestRecorder_RoundEndedExports(t *testing.T) {
	rec, backend := newTestRecorder(t, 1)

	require.NoError(t, rec.RoundStarted("duel", []core.SpawnPoint{{ID: 1}}))
	rec.Frame(core.Snapshot{Tick: 1})
	require.NoError(t, rec.RoundEnded(&core.RoundOutcome{
		Ranking: []core.ScoreEntry{{Entity: 1, Score: 0, Alive: true}},
		Ticks:   1,
	}))
	drain(t, rec)

	assert.NotEmpty(t, backend.ExportedFilePath(), "round end should export the replay")
}

func TestRecorder_NewRoundResetsSampling(t *testing.T) {
	rec, backend := newTestRecorder(t, 2)

	require.NoError(t, rec.RoundStarted("duel", nil))
	rec.Frame(core.Snapshot{Tick: 1})
	require.NoError(t, rec.RoundEnded(&core.RoundOutcome{}))

	require.NoError(t, rec.RoundStarted("duel", nil))
	rec.Frame(core.Snapshot{Tick: 1})
	rec.Frame(core.Snapshot{Tick: 2})
	drain(t, rec)

	assert.Equal(t, 1, backend.FrameCount())
}
