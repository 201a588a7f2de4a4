package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ray is a directed segment. Direction is unit length, or zero for a
// zero-length ray. InvDir holds 1/Direction with +Inf on zero components so
// slab tests never divide by zero.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
	InvDir    mgl64.Vec3
	Length    float64
}

// MakeRay builds a ray from an origin, a direction (normalized here) and a length.
func MakeRay(origin, direction mgl64.Vec3, length float64) Ray {
	if direction.LenSqr() == 0 || length <= 0 {
		return Ray{
			Origin: origin,
			InvDir: mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)},
		}
	}

	dir := direction.Normalize()
	return Ray{
		Origin:    origin,
		Direction: dir,
		InvDir:    inverse(dir),
		Length:    length,
	}
}

// MakeRayStartEnd builds the ray going from start to end.
func MakeRayStartEnd(start, end mgl64.Vec3) Ray {
	delta := end.Sub(start)
	return MakeRay(start, delta, delta.Len())
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// End is the point at the far end of the ray.
func (r Ray) End() mgl64.Vec3 {
	return r.At(r.Length)
}

// Bounds is the box swept by the ray.
func (r Ray) Bounds() MinMax3 {
	return MinMax3{Mins: r.Origin, Maxs: r.Origin}.UnionPoint(r.End())
}

func inverse(v mgl64.Vec3) mgl64.Vec3 {
	var out mgl64.Vec3
	for i := 0; i < 3; i++ {
		if v[i] == 0 {
			out[i] = math.Inf(1)
		} else {
			out[i] = 1 / v[i]
		}
	}
	return out
}

// Intersection is a hit along a ray: parameter T, the surface normal facing the
// ray, and the solidity of what was hit.
type Intersection struct {
	T        float64
	Normal   mgl64.Vec3
	Solidity Solidity
}
