package sim

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/extremebounce/arena/internal/arena"
	"github.com/extremebounce/arena/internal/geom"
	"github.com/extremebounce/arena/internal/physics"
	"github.com/extremebounce/arena/pkg/core"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// boxArena is a floor plane with side walls, wide enough that nobody
// falls out on their own.
func boxArena(t *testing.T) *arena.Arena {
	t.Helper()
	surfaces := []geom.Surface{
		{Kind: geom.ShapePlane, Point: geom.Vec2{}, Normal: geom.Vec2{Y: 1}, Restitution: 0.8},
		{Kind: geom.ShapePlane, Point: geom.Vec2{X: -20}, Normal: geom.Vec2{X: 1}, Restitution: 0.8},
		{Kind: geom.ShapePlane, Point: geom.Vec2{X: 20}, Normal: geom.Vec2{X: -1}, Restitution: 0.8},
	}
	ar, err := arena.Load(surfaces, geom.NewAABB(geom.Vec2{X: -25, Y: -5}, geom.Vec2{X: 25, Y: 30}))
	require.NoError(t, err)
	return ar
}

func fastTuning() physics.Tuning {
	tuning := physics.DefaultTuning()
	tuning.LeadTime = 3 * tuning.Timestep
	tuning.TimeLimit = 2.0
	tuning.SettleDelay = 2 * tuning.Timestep
	return tuning
}

func twoSpawns() []core.SpawnPoint {
	return []core.SpawnPoint{
		{ID: 1, Position: core.Vec2{X: -5, Y: 3}},
		{ID: 2, Position: core.Vec2{X: 5, Y: 3}},
	}
}

func TestNewRound(t *testing.T) {
	r, err := NewRound(boxArena(t), twoSpawns(), fastTuning(), testLogger())
	require.NoError(t, err)

	assert.Equal(t, core.PhaseCountdown, r.Phase())

	snap := r.Snapshot()
	assert.Equal(t, uint64(0), snap.Tick)
	require.Len(t, snap.Entities, 2)
	assert.True(t, snap.Entities[1].Alive)

	assert.Equal(t, map[core.EntityID]int{1: 0, 2: 0}, r.Scores())
}

func TestNewRound_DuplicateSpawn(t *testing.T) {
	roster := []core.SpawnPoint{
		{ID: 1, Position: core.Vec2{X: 0, Y: 3}},
		{ID: 2, Position: core.Vec2{X: 1, Y: 3}},
	}
	_, err := NewRound(boxArena(t), roster, fastTuning(), testLogger())
	require.Error(t, err)
}

func TestRound_Frame_InvalidTimestep(t *testing.T) {
	r, err := NewRound(boxArena(t), twoSpawns(), fastTuning(), testLogger())
	require.NoError(t, err)

	for _, dt := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, _, _, err := r.Frame(dt, nil)
		require.Error(t, err, "dt=%v", dt)
		assert.ErrorIs(t, err, physics.ErrInvalidTimestep)
	}

	// The rejected frames advanced nothing.
	assert.Equal(t, uint64(0), r.Snapshot().Tick)
}

func TestRound_Frame_AdvancesTicks(t *testing.T) {
	tuning := fastTuning()
	r, err := NewRound(boxArena(t), twoSpawns(), tuning, testLogger())
	require.NoError(t, err)

	snap, _, _, err := r.Frame(tuning.Timestep*2.0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Tick)
}

func TestRound_Frame_CountdownFreezesEntities(t *testing.T) {
	tuning := fastTuning()
	r, err := NewRound(boxArena(t), twoSpawns(), tuning, testLogger())
	require.NoError(t, err)

	snap, _, _, err := r.Frame(tuning.Timestep, nil)
	require.NoError(t, err)
	assert.Equal(t, core.Vec2{X: -5, Y: 3}, snap.Entities[1].Position,
		"nothing moves during the countdown")
}

func TestRound_Frame_UnknownIntentIgnored(t *testing.T) {
	tuning := fastTuning()
	r, err := NewRound(boxArena(t), twoSpawns(), tuning, testLogger())
	require.NoError(t, err)

	intents := map[core.EntityID]core.Intent{
		99: {MoveDir: core.Vec2{X: 1}, WantsBounce: true},
	}
	for i := 0; i < 10; i++ {
		_, _, _, err := r.Frame(tuning.Timestep, intents)
		require.NoError(t, err)
	}
}

func TestRound_SettlesOnFloor(t *testing.T) {
	tuning := fastTuning()
	tuning.TimeLimit = 60
	r, err := NewRound(boxArena(t), twoSpawns(), tuning, testLogger())
	require.NoError(t, err)

	var snap core.Snapshot
	for i := 0; i < 600; i++ {
		snap, _, _, err = r.Frame(tuning.Timestep, nil)
		require.NoError(t, err)
	}

	for id, e := range snap.Entities {
		require.True(t, e.Alive, "entity %d", id)
		assert.InDelta(t, tuning.EntityRadius, e.Position.Y, 0.05,
			"entity %d rests on the floor", id)
		assert.Less(t, math.Abs(e.Velocity.Y), 1.0, "entity %d", id)
	}
}

func TestRound_ChargeStaysBounded(t *testing.T) {
	tuning := fastTuning()
	tuning.TimeLimit = 10
	r, err := NewRound(boxArena(t), twoSpawns(), tuning, testLogger())
	require.NoError(t, err)

	intents := map[core.EntityID]core.Intent{
		1: {WantsBounce: true},
		2: {MoveDir: core.Vec2{X: -1}, WantsBounce: true},
	}
	for i := 0; i < 600; i++ {
		snap, _, outcome, err := r.Frame(tuning.Timestep, intents)
		require.NoError(t, err)
		for id, e := range snap.Entities {
			assert.GreaterOrEqual(t, e.Charge, 0.0, "entity %d", id)
			assert.LessOrEqual(t, e.Charge, tuning.ChargeMax, "entity %d", id)
		}
		if outcome != nil {
			break
		}
	}
}

func TestRound_PositionsStayFinite(t *testing.T) {
	tuning := fastTuning()
	tuning.TimeLimit = 10
	r, err := NewRound(boxArena(t), twoSpawns(), tuning, testLogger())
	require.NoError(t, err)

	intents := map[core.EntityID]core.Intent{
		1: {MoveDir: core.Vec2{X: 1}, WantsBounce: true},
		2: {MoveDir: core.Vec2{X: -1}, WantsBounce: true},
	}
	for i := 0; i < 600; i++ {
		snap, _, outcome, err := r.Frame(tuning.Timestep, intents)
		require.NoError(t, err)
		for id, e := range snap.Entities {
			require.False(t, math.IsNaN(e.Position.X) || math.IsNaN(e.Position.Y), "entity %d", id)
			require.False(t, math.IsInf(e.Position.X, 0) || math.IsInf(e.Position.Y, 0), "entity %d", id)
		}
		if outcome != nil {
			break
		}
	}
}

func TestRound_TerminatesWithSingleOutcome(t *testing.T) {
	tuning := fastTuning()
	r, err := NewRound(boxArena(t), twoSpawns(), tuning, testLogger())
	require.NoError(t, err)

	var outcomes int
	var last *core.RoundOutcome
	for i := 0; i < 600; i++ {
		_, _, outcome, err := r.Frame(tuning.Timestep, nil)
		require.NoError(t, err)
		if outcome != nil {
			outcomes++
			last = outcome
		}
	}

	assert.Equal(t, core.PhaseEnded, r.Phase())
	require.Equal(t, 1, outcomes, "the outcome is delivered exactly once")
	assert.Len(t, last.Ranking, 2)
	assert.Greater(t, last.Ticks, uint64(0))
}

func TestRound_Deterministic(t *testing.T) {
	tuning := fastTuning()
	tuning.TimeLimit = 5

	// An uneven frame cadence, replayed identically for both rounds.
	frames := []float64{
		tuning.Timestep, tuning.Timestep * 2.7, tuning.Timestep * 0.4,
		tuning.Timestep * 1.1, tuning.Timestep * 3.3,
	}
	intents := map[core.EntityID]core.Intent{
		1: {MoveDir: core.Vec2{X: 1}, WantsBounce: true},
		2: {MoveDir: core.Vec2{X: -0.5}, WantsBounce: true},
	}

	run := func() []core.Snapshot {
		r, err := NewRound(boxArena(t), twoSpawns(), tuning, testLogger())
		require.NoError(t, err)
		var snaps []core.Snapshot
		for i := 0; i < 400; i++ {
			snap, _, _, err := r.Frame(frames[i%len(frames)], intents)
			require.NoError(t, err)
			snaps = append(snaps, snap)
		}
		return snaps
	}

	first := run()
	second := run()
	require.Equal(t, len(first), len(second))
	for i := range first {
		require.Equal(t, first[i].Tick, second[i].Tick, "frame %d", i)
		for id := range first[i].Entities {
			a, b := first[i].Entities[id], second[i].Entities[id]
			require.Equal(t, a, b, "frame %d entity %d diverged", i, id)
		}
	}
}

func TestRound_Reset(t *testing.T) {
	tuning := fastTuning()
	r, err := NewRound(boxArena(t), twoSpawns(), tuning, testLogger())
	require.NoError(t, err)

	for i := 0; i < 600; i++ {
		_, _, outcome, err := r.Frame(tuning.Timestep, nil)
		require.NoError(t, err)
		if outcome != nil {
			break
		}
	}
	require.Equal(t, core.PhaseEnded, r.Phase())

	require.NoError(t, r.Reset(twoSpawns()))
	assert.Equal(t, core.PhaseCountdown, r.Phase())

	snap := r.Snapshot()
	assert.Equal(t, uint64(0), snap.Tick)
	assert.Equal(t, core.Vec2{X: -5, Y: 3}, snap.Entities[1].Position)
	assert.Equal(t, tuning.ChargeMax, snap.Entities[1].Charge)
}

func TestRound_Reset_BadRoster(t *testing.T) {
	r, err := NewRound(boxArena(t), twoSpawns(), fastTuning(), testLogger())
	require.NoError(t, err)

	err = r.Reset([]core.SpawnPoint{
		{ID: 1, Position: core.Vec2{X: 0, Y: 3}},
		{ID: 1, Position: core.Vec2{X: 5, Y: 3}},
	})
	assert.Error(t, err)
}

func TestIntentBuffer_SetAndDrain(t *testing.T) {
	buf := NewIntentBuffer()
	assert.Equal(t, 0, buf.Len())

	buf.Set(1, core.Intent{MoveDir: core.Vec2{X: 1}})
	buf.Set(2, core.Intent{WantsBounce: true})
	assert.Equal(t, 2, buf.Len())

	got := buf.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, core.Vec2{X: 1}, got[1].MoveDir)
	assert.True(t, got[2].WantsBounce)

	assert.Equal(t, 0, buf.Len(), "drain clears the buffer")
	assert.Empty(t, buf.Drain())
}

func TestIntentBuffer_LatestWins(t *testing.T) {
	buf := NewIntentBuffer()
	buf.Set(1, core.Intent{MoveDir: core.Vec2{X: -1}})
	buf.Set(1, core.Intent{MoveDir: core.Vec2{X: 1}, WantsBounce: true})

	got := buf.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, core.Vec2{X: 1}, got[1].MoveDir)
	assert.True(t, got[1].WantsBounce)
}

func TestIntentBuffer_DrainIsolation(t *testing.T) {
	buf := NewIntentBuffer()
	buf.Set(1, core.Intent{WantsBounce: true})

	got := buf.Drain()
	buf.Set(2, core.Intent{})

	assert.Len(t, got, 1, "drained map does not see later writes")
}
