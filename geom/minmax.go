package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// MinMax3 is an axis-aligned bounding box given by its two extreme corners.
type MinMax3 struct {
	Mins mgl64.Vec3
	Maxs mgl64.Vec3
}

// EmptyMinMax3 returns an inverted box, the identity for Union.
func EmptyMinMax3() MinMax3 {
	inf := math.Inf(1)
	return MinMax3{
		Mins: mgl64.Vec3{inf, inf, inf},
		Maxs: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// MinMax3FromCenter builds a box from its center and half-extents.
func MinMax3FromCenter(center, extents mgl64.Vec3) MinMax3 {
	return MinMax3{Mins: center.Sub(extents), Maxs: center.Add(extents)}
}

// IsEmpty reports whether the box is inverted on any axis.
func (b MinMax3) IsEmpty() bool {
	return b.Mins[0] > b.Maxs[0] || b.Mins[1] > b.Maxs[1] || b.Mins[2] > b.Maxs[2]
}

// ContainsPoint checks if a point is inside the box
func (b MinMax3) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= b.Mins.X() && point.X() <= b.Maxs.X() &&
		point.Y() >= b.Mins.Y() && point.Y() <= b.Maxs.Y() &&
		point.Z() >= b.Mins.Z() && point.Z() <= b.Maxs.Z()
}

// Overlaps checks if two boxes overlap. Touching faces count as overlapping.
func (b MinMax3) Overlaps(other MinMax3) bool {
	return b.Maxs.X() >= other.Mins.X() && b.Mins.X() <= other.Maxs.X() &&
		b.Maxs.Y() >= other.Mins.Y() && b.Mins.Y() <= other.Maxs.Y() &&
		b.Maxs.Z() >= other.Mins.Z() && b.Mins.Z() <= other.Maxs.Z()
}

// Union returns the smallest box containing both boxes.
func (b MinMax3) Union(other MinMax3) MinMax3 {
	return MinMax3{
		Mins: mgl64.Vec3{
			math.Min(b.Mins[0], other.Mins[0]),
			math.Min(b.Mins[1], other.Mins[1]),
			math.Min(b.Mins[2], other.Mins[2]),
		},
		Maxs: mgl64.Vec3{
			math.Max(b.Maxs[0], other.Maxs[0]),
			math.Max(b.Maxs[1], other.Maxs[1]),
			math.Max(b.Maxs[2], other.Maxs[2]),
		},
	}
}

// UnionPoint grows the box to contain p.
func (b MinMax3) UnionPoint(p mgl64.Vec3) MinMax3 {
	return b.Union(MinMax3{Mins: p, Maxs: p})
}

func (b MinMax3) Center() mgl64.Vec3 {
	return b.Mins.Add(b.Maxs).Mul(0.5)
}

// Extents returns the half-size of the box on each axis.
func (b MinMax3) Extents() mgl64.Vec3 {
	return b.Maxs.Sub(b.Mins).Mul(0.5)
}

func (b MinMax3) Translate(offset mgl64.Vec3) MinMax3 {
	return MinMax3{Mins: b.Mins.Add(offset), Maxs: b.Maxs.Add(offset)}
}

// Scale scales the box about the origin. Negative factors keep Mins <= Maxs.
func (b MinMax3) Scale(scale mgl64.Vec3) MinMax3 {
	out := b
	for i := 0; i < 3; i++ {
		lo, hi := b.Mins[i]*scale[i], b.Maxs[i]*scale[i]
		if lo > hi {
			lo, hi = hi, lo
		}
		out.Mins[i], out.Maxs[i] = lo, hi
	}
	return out
}

// Expand grows the box by d on every side.
func (b MinMax3) Expand(d mgl64.Vec3) MinMax3 {
	return MinMax3{Mins: b.Mins.Sub(d), Maxs: b.Maxs.Add(d)}
}
