package physics

import (
	"math"

	"github.com/extremebounce/arena/internal/arena"
	"github.com/extremebounce/arena/internal/entity"
	"github.com/extremebounce/arena/internal/geom"
	"github.com/extremebounce/arena/pkg/core"
)

// Resolver converts detected contacts into position corrections and
// velocity changes, and reports eliminations and knockouts. Contacts are
// processed strictly in detector order; an entity touched twice in one
// frame accumulates both corrections in sequence. Resolution never reruns
// detection within a frame.
type Resolver struct {
	tuning Tuning
}

func NewResolver(t Tuning) *Resolver {
	return &Resolver{tuning: t}
}

// Resolve applies every contact, then sweeps for entities pushed outside
// the arena bounds or left with a depleted charge meter; both are
// eliminations. Surfaces have infinite mass and never move.
func (r *Resolver) Resolve(contacts []Contact, tbl *entity.Table, ar *arena.Arena, tick uint64) []core.RoundEvent {
	var events []core.RoundEvent
	surfaces := ar.Surfaces()

	for i := range contacts {
		c := &contacts[i]
		if c.EntityPair() {
			if ev, hit := r.resolvePair(c, tbl, tick); hit {
				events = append(events, ev)
			}
		} else {
			r.resolveSurface(c, tbl, &surfaces[c.Surface])
		}
	}

	bounds := ar.Bounds()
	for _, id := range tbl.Active() {
		e, ok := tbl.Lookup(id)
		if !ok {
			continue
		}
		if !bounds.Contains(e.Position) || e.Charge <= 0 {
			e.Alive = false
			events = append(events, core.RoundEvent{
				Kind:     core.EventElimination,
				Tick:     tick,
				Entity:   id,
				Position: core.Vec2{X: e.Position.X, Y: e.Position.Y},
			})
		}
	}

	return events
}

// resolveSurface pushes the entity fully out of the surface, reflects the
// normal velocity by the surface's restitution, damps tangential motion
// by its friction, and applies pad bonuses. The contact normal points
// from the entity toward the surface.
func (r *Resolver) resolveSurface(c *Contact, tbl *entity.Table, s *geom.Surface) {
	e, ok := tbl.Lookup(c.A)
	if !ok || !e.Alive {
		return
	}

	sep := c.Normal.Scale(-1)
	e.Position = e.Position.Add(sep.Scale(c.Depth))

	vn := e.Velocity.Dot(c.Normal)
	if vn > 0 {
		rest := s.Restitution
		if vn < r.tuning.RestSpeed {
			rest = 0
		}
		e.Velocity = e.Velocity.Sub(c.Normal.Scale((1 + rest) * vn))
	}

	if mu := clamp(s.Friction, 0, 1); mu > 0 {
		tangent := c.Normal.Perp()
		vt := e.Velocity.Dot(tangent)
		e.Velocity = e.Velocity.Sub(tangent.Scale(vt * mu))
	}

	if sep.Y > 0.7 {
		e.Grounded = true
	}

	if s.Pad {
		e.Velocity = e.Velocity.Add(sep.Scale(r.tuning.PadImpulse))
		e.Charge = math.Min(r.tuning.ChargeMax, e.Charge+r.tuning.PadRefill)
	}
}

// resolvePair separates two entities proportionally to inverse mass and
// exchanges normal velocity using the lower of the two restitutions. A
// closing speed above the knockout threshold emits a knockout event
// credited to the faster entity (ties to the lower id).
func (r *Resolver) resolvePair(c *Contact, tbl *entity.Table, tick uint64) (core.RoundEvent, bool) {
	a, okA := tbl.Lookup(c.A)
	b, okB := tbl.Lookup(c.B)
	if !okA || !okB || !a.Alive || !b.Alive {
		return core.RoundEvent{}, false
	}

	invA, invB := a.InvMass(), b.InvMass()
	invSum := invA + invB

	a.Position = a.Position.Sub(c.Normal.Scale(c.Depth * invA / invSum))
	b.Position = b.Position.Add(c.Normal.Scale(c.Depth * invB / invSum))

	relVel := b.Velocity.Sub(a.Velocity)
	velAlongNormal := relVel.Dot(c.Normal)
	if velAlongNormal >= 0 {
		return core.RoundEvent{}, false
	}
	closing := -velAlongNormal

	rest := math.Min(a.Restitution, b.Restitution)
	if closing < r.tuning.RestSpeed {
		rest = 0
	}
	j := -(1 + rest) * velAlongNormal / invSum
	impulse := c.Normal.Scale(j)
	speedA := a.Velocity.Length()
	speedB := b.Velocity.Length()
	a.Velocity = a.Velocity.Sub(impulse.Scale(invA))
	b.Velocity = b.Velocity.Add(impulse.Scale(invB))

	if closing <= r.tuning.KnockoutSpeed {
		return core.RoundEvent{}, false
	}

	initiator, other := c.A, c.B
	if speedB > speedA {
		initiator, other = c.B, c.A
	}
	return core.RoundEvent{
		Kind:     core.EventKnockout,
		Tick:     tick,
		Entity:   initiator,
		Other:    other,
		Speed:    closing,
		Position: core.Vec2{X: c.Point.X, Y: c.Point.Y},
	}, true
}
