package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extremebounce/arena/pkg/core"
)

func TestRoundFromOutcome(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	outcome := &core.RoundOutcome{
		Ranking: []core.ScoreEntry{
			{Entity: 2, Score: 3, Alive: true},
			{Entity: 1, Score: 1, Alive: false},
		},
		Duration: 42.5,
		Ticks:    2550,
	}

	r := RoundFromOutcome("duel", started, outcome)

	assert.Equal(t, "duel", r.LevelName)
	assert.Equal(t, started, r.StartedAt)
	assert.Equal(t, 42.5, r.Duration)
	assert.Equal(t, uint64(2550), r.Ticks)
	require.NotNil(t, r.WinnerID)
	assert.Equal(t, uint16(2), *r.WinnerID)
}

func TestRoundFromOutcome_NoSurvivor(t *testing.T) {
	outcome := &core.RoundOutcome{
		Ranking: []core.ScoreEntry{
			{Entity: 1, Score: 0, Alive: false},
			{Entity: 2, Score: 0, Alive: false},
		},
	}

	r := RoundFromOutcome("duel", time.Now(), outcome)
	assert.Nil(t, r.WinnerID)
}

func TestScoresFromOutcome_RanksInOrder(t *testing.T) {
	outcome := &core.RoundOutcome{
		Ranking: []core.ScoreEntry{
			{Entity: 3, Score: 5, Alive: true},
			{Entity: 1, Score: 2, Alive: false},
			{Entity: 2, Score: 0, Alive: false},
		},
	}

	rows := ScoresFromOutcome(7, outcome)
	require.Len(t, rows, 3)
	assert.Equal(t, uint(7), rows[0].RoundID)
	assert.Equal(t, uint16(3), rows[0].EntityID)
	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, 3, rows[2].Rank)
	assert.False(t, rows[2].Alive)
}

func TestEventFromRound_Knockout(t *testing.T) {
	ev := core.RoundEvent{
		Kind:     core.EventKnockout,
		Tick:     120,
		Entity:   1,
		Other:    4,
		Speed:    16.2,
		Position: core.Vec2{X: 3, Y: -1},
	}

	row := EventFromRound(9, ev)
	assert.Equal(t, "knockout", row.Kind)
	assert.Equal(t, uint64(120), row.Tick)
	assert.Equal(t, uint16(1), row.EntityID)
	require.NotNil(t, row.OtherID)
	assert.Equal(t, uint16(4), *row.OtherID)
	assert.Equal(t, 16.2, row.Speed)
	assert.Equal(t, 3.0, row.PositionX)
}

func TestEventFromRound_Elimination(t *testing.T) {
	ev := core.RoundEvent{
		Kind:   core.EventElimination,
		Tick:   88,
		Entity: 2,
	}

	row := EventFromRound(9, ev)
	assert.Equal(t, "elimination", row.Kind)
	assert.Nil(t, row.OtherID)
}

func TestFrameFromSnapshot(t *testing.T) {
	snap := core.Snapshot{
		Tick: 30,
		Entities: map[core.EntityID]core.EntityFrame{
			1: {Position: core.Vec2{X: 1, Y: 2}, Charge: 0.5, Alive: true},
		},
	}

	row, err := FrameFromSnapshot(4, snap)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), row.Tick)

	var decoded map[string]core.EntityFrame
	require.NoError(t, json.Unmarshal(row.Entities, &decoded))
	assert.Equal(t, 0.5, decoded["1"].Charge)
	assert.True(t, decoded["1"].Alive)
}
