package physics

import (
	"errors"
	"fmt"
	"math"

	"github.com/extremebounce/arena/internal/entity"
	"github.com/extremebounce/arena/pkg/core"
)

// ErrInvalidTimestep is returned when a host frame duration is zero,
// negative, or not a finite number.
var ErrInvalidTimestep = errors.New("invalid timestep")

// Integrator advances entity state by the fixed timestep. Host frame time
// arrives at an arbitrary cadence; Accumulate banks it and reports how
// many whole fixed steps are due, so the simulation is deterministic
// regardless of how often the host pumps frames.
type Integrator struct {
	tuning Tuning
	acc    float64
}

func NewIntegrator(t Tuning) *Integrator {
	return &Integrator{tuning: t}
}

// Accumulate adds host frame time and returns the number of whole fixed
// steps now available. Leftover time below one timestep is carried to the
// next call.
func (in *Integrator) Accumulate(dt float64) (int, error) {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return 0, fmt.Errorf("%w: %g", ErrInvalidTimestep, dt)
	}
	in.acc += dt
	steps := 0
	for in.acc >= in.tuning.Timestep {
		in.acc -= in.tuning.Timestep
		steps++
	}
	return steps, nil
}

// Pending returns the banked fraction of a timestep, for interpolating
// renderers.
func (in *Integrator) Pending() float64 {
	return in.acc
}

// Step advances every active entity by exactly one fixed timestep:
// grounded bounce-charge release, gravity, intent acceleration capped at
// max speed, damping, then position advance. Intents for unknown ids are
// ignored rather than failing the frame.
func (in *Integrator) Step(tbl *entity.Table, intents map[core.EntityID]core.Intent) {
	dt := in.tuning.Timestep
	t := in.tuning

	for _, id := range tbl.Active() {
		e, ok := tbl.Lookup(id)
		if !ok {
			continue
		}
		intent := intents[id] // zero intent when absent

		// Release charge while still grounded from last step's contacts.
		if intent.WantsBounce && e.Grounded && e.Charge > 0 {
			e.Velocity.Y += t.BounceImpulse * e.Charge
			e.Charge = t.ChargeFloor
			e.Grounded = false
		}

		e.Velocity.Y -= t.Gravity * dt

		ax := clamp(intent.MoveDir.X, -1, 1)
		e.Velocity.X += ax * t.MoveAccel * dt
		if e.Velocity.X > t.MaxSpeed {
			e.Velocity.X = t.MaxSpeed
		} else if e.Velocity.X < -t.MaxSpeed {
			e.Velocity.X = -t.MaxSpeed
		}

		damp := 1.0 / (1.0 + t.Damping*dt)
		e.Velocity.X *= damp
		e.Velocity.Y *= damp

		e.Position.X += e.Velocity.X * dt
		e.Position.Y += e.Velocity.Y * dt

		if e.Charge < t.ChargeMax {
			e.Charge = math.Min(t.ChargeMax, e.Charge+t.ChargeRegen*dt)
		}

		// Contact this step decides grounding anew.
		e.Grounded = false
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
