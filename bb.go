package bullet

import "math"

// BB is an axis aligned bounding box.
type BB struct {
	Min, Max Vector
}

func NewBB(min, max Vector) BB {
	return BB{Min: min, Max: max}
}

func NewBBForExtents(c Vector, halfExtents Vector) BB {
	return BB{Min: c.Sub(halfExtents), Max: c.Add(halfExtents)}
}

// TransformAabb returns the world box of a local box with the given half extents
// and margin under t.
func TransformAabb(halfExtents Vector, margin float64, t Transform) BB {
	halfWithMargin := halfExtents.Add(Vector{margin, margin, margin})
	extent := t.Basis.Abs().MulVec(halfWithMargin)
	return NewBBForExtents(t.Origin, extent)
}

// TransformLocalAabb maps a local box through t.
func TransformLocalAabb(local BB, margin float64, t Transform) BB {
	m := Vector{margin, margin, margin}
	halfExtents := local.Max.Sub(local.Min).Mult(0.5).Add(m)
	center := t.Point(local.Center())
	extent := t.Basis.Abs().MulVec(halfExtents)
	return NewBBForExtents(center, extent)
}

func (a BB) Intersects(b BB) bool {
	return a.Min[0] <= b.Max[0] && b.Min[0] <= a.Max[0] &&
		a.Min[1] <= b.Max[1] && b.Min[1] <= a.Max[1] &&
		a.Min[2] <= b.Max[2] && b.Min[2] <= a.Max[2]
}

func (bb BB) Contains(other BB) bool {
	return bb.Min[0] <= other.Min[0] && bb.Max[0] >= other.Max[0] &&
		bb.Min[1] <= other.Min[1] && bb.Max[1] >= other.Max[1] &&
		bb.Min[2] <= other.Min[2] && bb.Max[2] >= other.Max[2]
}

func (bb BB) ContainsVect(v Vector) bool {
	return bb.Min[0] <= v[0] && bb.Max[0] >= v[0] &&
		bb.Min[1] <= v[1] && bb.Max[1] >= v[1] &&
		bb.Min[2] <= v[2] && bb.Max[2] >= v[2]
}

func (a BB) Merge(b BB) BB {
	return BB{Min: a.Min.Min(b.Min), Max: a.Max.Max(b.Max)}
}

func (bb BB) Expand(v Vector) BB {
	return BB{Min: bb.Min.Min(v), Max: bb.Max.Max(v)}
}

// Grow pads every side by d.
func (bb BB) Grow(d float64) BB {
	pad := Vector{d, d, d}
	return BB{Min: bb.Min.Sub(pad), Max: bb.Max.Add(pad)}
}

func (bb BB) Center() Vector {
	return bb.Min.Add(bb.Max).Mult(0.5)
}

func (bb BB) Extents() Vector {
	return bb.Max.Sub(bb.Min).Mult(0.5)
}

// Area is the surface area.
func (bb BB) Area() float64 {
	d := bb.Max.Sub(bb.Min)
	return 2 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}

func (bb BB) ClampVect(v Vector) Vector {
	return v.Max(bb.Min).Min(bb.Max)
}

func (bb BB) Offset(v Vector) BB {
	return BB{Min: bb.Min.Add(v), Max: bb.Max.Add(v)}
}

func (bb BB) IsFinite() bool {
	return bb.Min.IsFinite() && bb.Max.IsFinite()
}

// LargestExtent is the longest side length.
func (bb BB) LargestExtent() float64 {
	d := bb.Max.Sub(bb.Min)
	return math.Max(d[0], math.Max(d[1], d[2]))
}
