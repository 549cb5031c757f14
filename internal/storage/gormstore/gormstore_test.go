package gormstore

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/extremebounce/arena/internal/database"
	"github.com/extremebounce/arena/internal/logging"
	"github.com/extremebounce/arena/internal/model"
	"github.com/extremebounce/arena/pkg/core"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	mgr := database.NewManager(logging.NewZerolog(io.Discard, "error"))
	db, err := mgr.GetSqliteDB(":memory:")
	require.NoError(t, err)
	return db
}

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := New(newTestDB(t), logging.NewSlogManager())
	require.NoError(t, b.Init())
	return b
}

func TestBackend_RoundLifecycle(t *testing.T) {
	b := newTestBackend(t)

	roster := []core.SpawnPoint{
		{ID: 1, Position: core.Vec2{X: -2, Y: 1}},
		{ID: 2, Position: core.Vec2{X: 2, Y: 1}},
	}
	require.NoError(t, b.StartRound("duel", roster))

	require.NoError(t, b.RecordFrame(core.Snapshot{
		Tick: 10,
		Entities: map[core.EntityID]core.EntityFrame{
			1: {Position: core.Vec2{X: 0, Y: 1}, Alive: true},
		},
	}))
	require.NoError(t, b.RecordEvent(core.RoundEvent{
		Kind:   core.EventKnockout,
		Tick:   10,
		Entity: 1,
		Other:  2,
		Speed:  15.0,
	}))

	outcome := &core.RoundOutcome{
		Ranking: []core.ScoreEntry{
			{Entity: 1, Score: 1, Alive: true},
			{Entity: 2, Score: 0, Alive: false},
		},
		Duration: 8.5,
		Ticks:    510,
	}
	require.NoError(t, b.EndRound(outcome))

	var rounds []model.Round
	require.NoError(t, b.db.Find(&rounds).Error)
	require.Len(t, rounds, 1)
	assert.Equal(t, "duel", rounds[0].LevelName)
	assert.Equal(t, uint64(510), rounds[0].Ticks)
	require.NotNil(t, rounds[0].WinnerID)
	assert.Equal(t, uint16(1), *rounds[0].WinnerID)

	var scores []model.Score
	require.NoError(t, b.db.Order("entity_id asc").Find(&scores).Error)
	require.Len(t, scores, 2)
	assert.Equal(t, uint16(1), scores[0].EntityID)
	assert.Equal(t, 1, scores[0].Rank)

	var frames []model.Frame
	require.NoError(t, b.db.Find(&frames).Error)
	require.Len(t, frames, 1)
	assert.Equal(t, uint64(10), frames[0].Tick)

	var events []model.RoundEvent
	require.NoError(t, b.db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, "knockout", events[0].Kind)
	require.NotNil(t, events[0].OtherID)
	assert.Equal(t, uint16(2), *events[0].OtherID)
}

func TestBackend_LevelReusedAcrossRounds(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.StartRound("duel", nil))
	require.NoError(t, b.EndRound(&core.RoundOutcome{}))
	require.NoError(t, b.StartRound("duel", nil))
	require.NoError(t, b.EndRound(&core.RoundOutcome{}))

	var count int64
	require.NoError(t, b.db.Model(&model.Level{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, b.db.Model(&model.Round{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestBackend_RecordOutsideRound(t *testing.T) {
	b := newTestBackend(t)

	assert.Error(t, b.RecordFrame(core.Snapshot{}))
	assert.Error(t, b.RecordEvent(core.RoundEvent{}))
	assert.Error(t, b.EndRound(&core.RoundOutcome{}))
}

func TestBackend_DoubleStart(t *testing.T) {
	b := newTestBackend(t)

	require.NoError(t, b.StartRound("duel", nil))
	assert.Error(t, b.StartRound("duel", nil))
}
