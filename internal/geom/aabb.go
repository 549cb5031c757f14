package geom

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec2
}

func NewAABB(min, max Vec2) AABB {
	return AABB{Min: min, Max: max}
}

// Contains reports whether the point lies inside or on the box boundary.
func (b AABB) Contains(p Vec2) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Expand grows the box by margin on all sides.
func (b AABB) Expand(margin float64) AABB {
	m := Vec2{X: margin, Y: margin}
	return AABB{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// Union returns the smallest box containing both boxes.
func (b AABB) Union(o AABB) AABB {
	out := b
	if o.Min.X < out.Min.X {
		out.Min.X = o.Min.X
	}
	if o.Min.Y < out.Min.Y {
		out.Min.Y = o.Min.Y
	}
	if o.Max.X > out.Max.X {
		out.Max.X = o.Max.X
	}
	if o.Max.Y > out.Max.Y {
		out.Max.Y = o.Max.Y
	}
	return out
}
