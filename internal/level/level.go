// Package level parses level files into arena geometry and a spawn
// roster. A level is a JSON document listing surfaces (with restitution,
// friction, and the pad tag), optional explicit bounds, and the spawn
// points. Geometry is cross-checked with the simplefeatures library
// before it reaches the arena store.
package level

import (
	"encoding/json"
	"fmt"
	"os"

	sf "github.com/peterstace/simplefeatures/geom"

	"github.com/extremebounce/arena/internal/arena"
	"github.com/extremebounce/arena/internal/geom"
	"github.com/extremebounce/arena/pkg/core"
)

// boundsMargin pads computed bounds so an entity resting on an outer wall
// is not flagged out-of-arena by its own radius.
const boundsMargin = 5.0

type surfaceDef struct {
	Kind        string    `json:"kind"`
	A           []float64 `json:"a,omitempty"`
	B           []float64 `json:"b,omitempty"`
	Point       []float64 `json:"point,omitempty"`
	Normal      []float64 `json:"normal,omitempty"`
	Center      []float64 `json:"center,omitempty"`
	Radius      float64   `json:"radius,omitempty"`
	Restitution float64   `json:"restitution"`
	Friction    float64   `json:"friction"`
	Pad         bool      `json:"pad,omitempty"`
}

type spawnDef struct {
	ID       uint16    `json:"id"`
	Position []float64 `json:"position"`
}

type boundsDef struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// Level is a parsed, validated level file.
type Level struct {
	Name     string
	Surfaces []geom.Surface
	Bounds   geom.AABB
	Roster   []core.SpawnPoint
}

type levelFile struct {
	Name     string       `json:"name"`
	Bounds   *boundsDef   `json:"bounds,omitempty"`
	Surfaces []surfaceDef `json:"surfaces"`
	Spawns   []spawnDef   `json:"spawns"`
}

// LoadFile reads and parses a level from disk.
func LoadFile(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading level file: %w", err)
	}
	lvl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	return lvl, nil
}

// Parse builds a Level from JSON level data.
func Parse(data []byte) (*Level, error) {
	var lf levelFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("%w: %v", arena.ErrInvalidLevelData, err)
	}
	if len(lf.Surfaces) == 0 {
		return nil, fmt.Errorf("%w: no surfaces", arena.ErrInvalidLevelData)
	}
	if len(lf.Spawns) == 0 {
		return nil, fmt.Errorf("%w: no spawn points", arena.ErrInvalidLevelData)
	}

	lvl := &Level{Name: lf.Name}
	for i, sd := range lf.Surfaces {
		s, err := parseSurface(sd)
		if err != nil {
			return nil, fmt.Errorf("surface %d: %w", i, err)
		}
		lvl.Surfaces = append(lvl.Surfaces, s)
	}

	for i, sp := range lf.Spawns {
		p, err := vec(sp.Position)
		if err != nil {
			return nil, fmt.Errorf("spawn %d: %w", i, err)
		}
		lvl.Roster = append(lvl.Roster, core.SpawnPoint{
			ID:       core.EntityID(sp.ID),
			Position: core.Vec2{X: p.X, Y: p.Y},
		})
	}

	if lf.Bounds != nil {
		min, err := vec(lf.Bounds.Min)
		if err != nil {
			return nil, fmt.Errorf("bounds: %w", err)
		}
		max, err := vec(lf.Bounds.Max)
		if err != nil {
			return nil, fmt.Errorf("bounds: %w", err)
		}
		lvl.Bounds = geom.NewAABB(min, max)
	} else {
		b, err := computedBounds(lvl.Surfaces)
		if err != nil {
			return nil, err
		}
		lvl.Bounds = b
	}

	return lvl, nil
}

// Arena loads the level geometry into an immutable arena store.
func (l *Level) Arena() (*arena.Arena, error) {
	return arena.Load(l.Surfaces, l.Bounds)
}

func parseSurface(sd surfaceDef) (geom.Surface, error) {
	s := geom.Surface{
		Restitution: sd.Restitution,
		Friction:    sd.Friction,
		Pad:         sd.Pad,
	}
	switch sd.Kind {
	case "plane":
		s.Kind = geom.ShapePlane
		var err error
		if s.Point, err = vec(sd.Point); err != nil {
			return s, err
		}
		if s.Normal, err = vec(sd.Normal); err != nil {
			return s, err
		}
		s.Normal = s.Normal.Normalize()
		if s.Normal.LengthSquared() == 0 {
			return s, fmt.Errorf("%w: plane with zero normal", arena.ErrInvalidLevelData)
		}
	case "segment":
		s.Kind = geom.ShapeSegment
		var err error
		if s.A, err = vec(sd.A); err != nil {
			return s, err
		}
		if s.B, err = vec(sd.B); err != nil {
			return s, err
		}
		if err := validateSegment(s.A, s.B); err != nil {
			return s, err
		}
	case "circle":
		s.Kind = geom.ShapeCircle
		var err error
		if s.Center, err = vec(sd.Center); err != nil {
			return s, err
		}
		s.Radius = sd.Radius
	default:
		return s, fmt.Errorf("%w: unknown surface kind %q", arena.ErrInvalidLevelData, sd.Kind)
	}
	return s, nil
}

// validateSegment runs the segment through simplefeatures' OGC validity
// rules, which reject zero-length and non-finite linestrings.
func validateSegment(a, b geom.Vec2) error {
	seq := sf.NewSequence([]float64{a.X, a.Y, b.X, b.Y}, sf.DimXY)
	ls := sf.NewLineString(seq)
	if err := ls.Validate(); err != nil {
		return fmt.Errorf("%w: %v", arena.ErrInvalidLevelData, err)
	}
	return nil
}

func computedBounds(surfaces []geom.Surface) (geom.AABB, error) {
	var b geom.AABB
	have := false
	for _, s := range surfaces {
		sb, ok := s.Bounds()
		if !ok {
			continue
		}
		if !have {
			b = sb
			have = true
		} else {
			b = b.Union(sb)
		}
	}
	if !have {
		return geom.AABB{}, fmt.Errorf("%w: bounds required for all-plane levels", arena.ErrInvalidLevelData)
	}
	return b.Expand(boundsMargin), nil
}

func vec(v []float64) (geom.Vec2, error) {
	if len(v) != 2 {
		return geom.Vec2{}, fmt.Errorf("%w: want [x,y], got %v", arena.ErrInvalidLevelData, v)
	}
	out := geom.Vec2{X: v[0], Y: v[1]}
	if !out.IsFinite() {
		return geom.Vec2{}, fmt.Errorf("%w: non-finite coordinate %v", arena.ErrInvalidLevelData, v)
	}
	return out, nil
}
