package physics

import (
	"github.com/extremebounce/arena/internal/arena"
	"github.com/extremebounce/arena/internal/entity"
	"github.com/extremebounce/arena/internal/geom"
	"github.com/extremebounce/arena/pkg/core"
)

// Contact records one detected overlap for a single frame. It is a value
// copy; it never outlives the detect/resolve handoff.
type Contact struct {
	// A is the first body, always an entity. Normal points from A toward
	// the second body.
	A core.EntityID

	// B is the second entity for entity-entity contacts.
	B core.EntityID

	// Surface is the arena surface index for entity-surface contacts,
	// or -1 for entity-entity contacts.
	Surface int

	Normal geom.Vec2
	Depth  float64
	Point  geom.Vec2
}

// EntityPair reports whether the contact is between two entities.
func (c Contact) EntityPair() bool {
	return c.Surface < 0
}

// Detect tests every (active entity, surface) pair and every unordered
// (active entity, active entity) pair with closed-form distance checks.
// Entity-surface contacts come first, ordered by entity id then surface
// index; entity-entity contacts follow, ordered by ascending id pair.
// The resolver applies corrections sequentially, so this ordering is part
// of the determinism contract. Detect itself has no side effects.
func Detect(tbl *entity.Table, ar *arena.Arena) []Contact {
	active := tbl.Active()
	surfaces := ar.Surfaces()
	var out []Contact

	for _, id := range active {
		e, ok := tbl.Lookup(id)
		if !ok {
			continue
		}
		for si := range surfaces {
			if c, hit := testSurface(e, si, &surfaces[si]); hit {
				out = append(out, c)
			}
		}
	}

	for i := 0; i < len(active); i++ {
		a, _ := tbl.Lookup(active[i])
		for j := i + 1; j < len(active); j++ {
			b, _ := tbl.Lookup(active[j])
			if c, hit := testEntities(a, b); hit {
				out = append(out, c)
			}
		}
	}

	return out
}

func testSurface(e *entity.State, si int, s *geom.Surface) (Contact, bool) {
	switch s.Kind {
	case geom.ShapePlane:
		// Signed distance along the plane normal; the playable side is
		// where the normal points.
		dist := e.Position.Sub(s.Point).Dot(s.Normal)
		depth := e.Radius - dist
		if depth <= 0 {
			return Contact{}, false
		}
		return Contact{
			A:       e.ID,
			Surface: si,
			Normal:  s.Normal.Scale(-1),
			Depth:   depth,
			Point:   e.Position.Sub(s.Normal.Scale(e.Radius - depth)),
		}, true

	case geom.ShapeSegment:
		closest := geom.ClosestOnSegment(s.A, s.B, e.Position)
		delta := e.Position.Sub(closest)
		dist := delta.Length()
		depth := e.Radius - dist
		if depth <= 0 {
			return Contact{}, false
		}
		var normal geom.Vec2
		if dist > 0 {
			normal = delta.Scale(-1.0 / dist)
		} else {
			// Center exactly on the segment: push along its left-hand
			// perpendicular for a stable, reproducible normal.
			normal = s.B.Sub(s.A).Normalize().Perp()
		}
		return Contact{
			A:       e.ID,
			Surface: si,
			Normal:  normal,
			Depth:   depth,
			Point:   closest,
		}, true

	case geom.ShapeCircle:
		delta := s.Center.Sub(e.Position)
		dist := delta.Length()
		depth := e.Radius + s.Radius - dist
		if depth <= 0 {
			return Contact{}, false
		}
		normal := geom.Vec2{X: 1}
		if dist > 0 {
			normal = delta.Scale(1.0 / dist)
		}
		return Contact{
			A:       e.ID,
			Surface: si,
			Normal:  normal,
			Depth:   depth,
			Point:   e.Position.Add(normal.Scale(e.Radius - depth*0.5)),
		}, true
	}

	return Contact{}, false
}

func testEntities(a, b *entity.State) (Contact, bool) {
	delta := b.Position.Sub(a.Position)
	dist := delta.Length()
	depth := a.Radius + b.Radius - dist
	if depth <= 0 {
		return Contact{}, false
	}
	normal := geom.Vec2{X: 1}
	if dist > 0 {
		normal = delta.Scale(1.0 / dist)
	}
	return Contact{
		A:       a.ID,
		B:       b.ID,
		Surface: -1,
		Normal:  normal,
		Depth:   depth,
		Point:   a.Position.Add(normal.Scale(a.Radius - depth*0.5)),
	}, true
}
