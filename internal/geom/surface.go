package geom

import "math"

// ShapeKind tags the closed set of static surface shapes. Collision code
// switches exhaustively over this tag; there is no open shape interface.
type ShapeKind uint8

const (
	ShapePlane ShapeKind = iota
	ShapeSegment
	ShapeCircle
)

func (k ShapeKind) String() string {
	switch k {
	case ShapePlane:
		return "plane"
	case ShapeSegment:
		return "segment"
	case ShapeCircle:
		return "circle"
	default:
		return "unknown"
	}
}

// Surface is one immutable static obstacle or pad. Exactly one shape's
// fields are meaningful, selected by Kind:
//
//	ShapePlane:   Point is any point on the plane, Normal its unit normal
//	              pointing into the playable half-space
//	ShapeSegment: A and B are the endpoints
//	ShapeCircle:  Center and Radius describe a solid disc
type Surface struct {
	Kind ShapeKind

	Point  Vec2
	Normal Vec2

	A, B Vec2

	Center Vec2
	Radius float64

	Restitution float64
	Friction    float64

	// Pad surfaces grant a bonus impulse and refill bounce charge on contact.
	Pad bool
}

// Bounds returns the surface's bounding box. Planes are unbounded and
// report ok=false; callers building an arena envelope skip them.
func (s Surface) Bounds() (AABB, bool) {
	switch s.Kind {
	case ShapeSegment:
		min := Vec2{X: math.Min(s.A.X, s.B.X), Y: math.Min(s.A.Y, s.B.Y)}
		max := Vec2{X: math.Max(s.A.X, s.B.X), Y: math.Max(s.A.Y, s.B.Y)}
		return AABB{Min: min, Max: max}, true
	case ShapeCircle:
		r := Vec2{X: s.Radius, Y: s.Radius}
		return AABB{Min: s.Center.Sub(r), Max: s.Center.Add(r)}, true
	default:
		return AABB{}, false
	}
}

// ClosestOnSegment returns the point on segment ab closest to p.
func ClosestOnSegment(a, b, p Vec2) Vec2 {
	ab := b.Sub(a)
	lenSq := ab.LengthSquared()
	if lenSq == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(ab.Scale(t))
}
