// Package arena implements the per-round immutable geometry store: the
// validated list of static surfaces and the playable bounds used for
// out-of-arena elimination.
package arena

import (
	"errors"
	"fmt"
	"math"

	"github.com/extremebounce/arena/internal/geom"
)

// ErrInvalidLevelData is returned when level geometry violates a surface
// invariant (degenerate shape, restitution outside [0,1], negative
// friction, non-finite coordinates).
var ErrInvalidLevelData = errors.New("invalid level data")

// Arena is the immutable geometry of one round. Surface order is the load
// order and never changes, which keeps collision iteration deterministic.
type Arena struct {
	surfaces []geom.Surface
	bounds   geom.AABB
}

// Load validates the surfaces and constructs an Arena with the given
// playable bounds.
func Load(surfaces []geom.Surface, bounds geom.AABB) (*Arena, error) {
	if bounds.Max.X <= bounds.Min.X || bounds.Max.Y <= bounds.Min.Y {
		return nil, fmt.Errorf("%w: empty bounds %+v", ErrInvalidLevelData, bounds)
	}
	for i, s := range surfaces {
		if err := validateSurface(s); err != nil {
			return nil, fmt.Errorf("surface %d: %w", i, err)
		}
	}
	out := &Arena{
		surfaces: make([]geom.Surface, len(surfaces)),
		bounds:   bounds,
	}
	copy(out.surfaces, surfaces)
	return out, nil
}

func validateSurface(s geom.Surface) error {
	if s.Restitution < 0 || s.Restitution > 1 {
		return fmt.Errorf("%w: restitution %g outside [0,1]", ErrInvalidLevelData, s.Restitution)
	}
	if s.Friction < 0 {
		return fmt.Errorf("%w: negative friction %g", ErrInvalidLevelData, s.Friction)
	}
	switch s.Kind {
	case geom.ShapePlane:
		if !s.Point.IsFinite() || !s.Normal.IsFinite() {
			return fmt.Errorf("%w: non-finite plane", ErrInvalidLevelData)
		}
		if math.Abs(s.Normal.LengthSquared()-1) > 1e-6 {
			return fmt.Errorf("%w: plane normal not unit length", ErrInvalidLevelData)
		}
	case geom.ShapeSegment:
		if !s.A.IsFinite() || !s.B.IsFinite() {
			return fmt.Errorf("%w: non-finite segment", ErrInvalidLevelData)
		}
		if s.A.DistanceSquared(s.B) == 0 {
			return fmt.Errorf("%w: zero-length segment at %+v", ErrInvalidLevelData, s.A)
		}
	case geom.ShapeCircle:
		if !s.Center.IsFinite() || s.Radius <= 0 || math.IsInf(s.Radius, 0) || math.IsNaN(s.Radius) {
			return fmt.Errorf("%w: degenerate circle", ErrInvalidLevelData)
		}
	default:
		return fmt.Errorf("%w: unknown shape kind %d", ErrInvalidLevelData, s.Kind)
	}
	return nil
}

// Surfaces returns the surfaces in stable load order. Callers must not
// mutate the returned slice.
func (a *Arena) Surfaces() []geom.Surface {
	return a.surfaces
}

// Bounds returns the playable area; entities resolved outside it are
// eliminated.
func (a *Arena) Bounds() geom.AABB {
	return a.bounds
}
