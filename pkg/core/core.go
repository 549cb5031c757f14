// Package core holds the value types exchanged across the simulation
// boundary: per-frame input intents, read-only state snapshots, and the
// events the round controller emits. Everything here is plain data so
// hosts (renderers, bots, recorders) never share mutable state with the
// simulation.
package core

// EntityID identifies one bouncing character for the lifetime of a round.
type EntityID uint16

// Vec2 is a 2D vector in arena units.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Intent is one entity's desired action for the current frame.
// MoveDir is expected to be a unit vector (or zero); WantsBounce requests
// converting bounce charge into an upward impulse on the next grounded step.
type Intent struct {
	MoveDir     Vec2 `json:"moveDir"`
	WantsBounce bool `json:"wantsBounce"`
}

// EntityFrame is the per-entity slice of a snapshot.
type EntityFrame struct {
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Charge   float64 `json:"charge"`
	Alive    bool    `json:"alive"`
}

// Snapshot is the read-only per-frame view handed to renderers and
// recorders. It is a copy; mutating it has no effect on the simulation.
type Snapshot struct {
	Tick     uint64                   `json:"tick"`
	Entities map[EntityID]EntityFrame `json:"entities"`
}

// SpawnPoint places one roster entity at round start.
type SpawnPoint struct {
	ID       EntityID `json:"id"`
	Position Vec2     `json:"position"`
}
