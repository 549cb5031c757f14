// Package entity implements the mutable per-round entity state table.
// The table owns every character's physical state; the integrator and
// resolver mutate entries in place, and eliminated entities stay in the
// table for scoring until the round ends.
package entity

import (
	"errors"
	"fmt"
	"sort"

	"github.com/extremebounce/arena/internal/geom"
	"github.com/extremebounce/arena/pkg/core"
)

var (
	// ErrDuplicateSpawnPoint is returned when two roster entries spawn
	// closer together than the minimum separation.
	ErrDuplicateSpawnPoint = errors.New("duplicate spawn point")

	// ErrUnknownEntity is returned by lookups with an id that was never
	// part of the roster.
	ErrUnknownEntity = errors.New("unknown entity")
)

// Params are the per-entity physical constants applied at spawn.
type Params struct {
	Radius          float64
	Mass            float64
	Restitution     float64
	ChargeMax       float64
	SpawnSeparation float64
}

// State is one entity's mutable physical state.
type State struct {
	ID          core.EntityID
	Position    geom.Vec2
	Velocity    geom.Vec2
	Radius      float64
	Mass        float64
	Restitution float64
	Charge      float64
	Grounded    bool
	Alive       bool
}

// InvMass returns 1/mass. Entity mass is validated positive at spawn.
func (s *State) InvMass() float64 {
	return 1.0 / s.Mass
}

// Table maps entity ids to state. Iteration helpers always run in
// ascending id order so a frame is deterministic for a given input.
type Table struct {
	entities map[core.EntityID]*State
	ids      []core.EntityID // ascending, fixed at spawn
}

// Spawn builds a table from the roster. Entities start with zero
// velocity, full bounce charge, and alive=true.
func Spawn(roster []core.SpawnPoint, p Params) (*Table, error) {
	if p.Mass <= 0 {
		return nil, fmt.Errorf("entity mass must be positive, got %g", p.Mass)
	}
	if p.Restitution < 0 || p.Restitution > 1 {
		return nil, fmt.Errorf("entity restitution %g outside [0,1]", p.Restitution)
	}
	minSepSq := p.SpawnSeparation * p.SpawnSeparation
	for i := range roster {
		for j := i + 1; j < len(roster); j++ {
			a, b := roster[i], roster[j]
			if a.ID == b.ID {
				return nil, fmt.Errorf("%w: id %d listed twice", ErrDuplicateSpawnPoint, a.ID)
			}
			dx := a.Position.X - b.Position.X
			dy := a.Position.Y - b.Position.Y
			if dx*dx+dy*dy < minSepSq {
				return nil, fmt.Errorf("%w: entities %d and %d closer than %g",
					ErrDuplicateSpawnPoint, a.ID, b.ID, p.SpawnSeparation)
			}
		}
	}

	t := &Table{
		entities: make(map[core.EntityID]*State, len(roster)),
		ids:      make([]core.EntityID, 0, len(roster)),
	}
	for _, sp := range roster {
		t.entities[sp.ID] = &State{
			ID:          sp.ID,
			Position:    geom.Vec2{X: sp.Position.X, Y: sp.Position.Y},
			Radius:      p.Radius,
			Mass:        p.Mass,
			Restitution: p.Restitution,
			Charge:      p.ChargeMax,
			Alive:       true,
		}
		t.ids = append(t.ids, sp.ID)
	}
	sort.Slice(t.ids, func(i, j int) bool { return t.ids[i] < t.ids[j] })
	return t, nil
}

// Get returns the state for an id.
func (t *Table) Get(id core.EntityID) (*State, error) {
	s, ok := t.entities[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEntity, id)
	}
	return s, nil
}

// Lookup is Get without the error wrap, for hot paths that already
// validated the id.
func (t *Table) Lookup(id core.EntityID) (*State, bool) {
	s, ok := t.entities[id]
	return s, ok
}

// Active returns the ids of alive entities in ascending order. The result
// is rebuilt on each call; it is stable within a frame as long as no
// entity is eliminated between calls.
func (t *Table) Active() []core.EntityID {
	out := make([]core.EntityID, 0, len(t.ids))
	for _, id := range t.ids {
		if t.entities[id].Alive {
			out = append(out, id)
		}
	}
	return out
}

// All returns every roster id in ascending order, eliminated included.
func (t *Table) All() []core.EntityID {
	return t.ids
}

// Len returns the roster size.
func (t *Table) Len() int {
	return len(t.ids)
}

// Snapshot copies the table into the read-only frame view exposed to
// hosts.
func (t *Table) Snapshot(tick uint64) core.Snapshot {
	snap := core.Snapshot{
		Tick:     tick,
		Entities: make(map[core.EntityID]core.EntityFrame, len(t.ids)),
	}
	for _, id := range t.ids {
		e := t.entities[id]
		snap.Entities[id] = core.EntityFrame{
			Position: core.Vec2{X: e.Position.X, Y: e.Position.Y},
			Velocity: core.Vec2{X: e.Velocity.X, Y: e.Velocity.Y},
			Charge:   e.Charge,
			Alive:    e.Alive,
		}
	}
	return snap
}
