// Package intersect holds the primitive ray and swept-box tests that every
// collision query bottoms out in.
//
// All tests take rays from geom.MakeRay: unit direction, t measured in world
// units along it, and hits constrained to [0, ray.Length].
//
// References:
//   - Ericson: "Real-Time Collision Detection" (2004), sections 5.3.2, 5.3.3, 5.3.7, 5.5.8
//   - Pharr, Jakob, Humphreys: "Physically Based Rendering", 3rd ed., section 3.9.2
package intersect

import (
	"math"

	"github.com/akmonengine/collide/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// machineEpsilon is half the float64 ulp at 1, as in PBRT.
const machineEpsilon = 0x1p-53

// Gamma bounds the relative error accumulated by n floating point operations.
func Gamma(n int) float64 {
	ne := float64(n) * machineEpsilon
	return ne / (1 - ne)
}

var farExpansion = 1 + 2*Gamma(3)

var axes = [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// RayVsAABB is the slab test. On success 0 <= enter.T <= leave.T <= ray.Length.
// The far plane of every slab is pushed out by a relative error bound so rays
// grazing a corner are not lost to round-off.
func RayVsAABB(ray geom.Ray, box geom.MinMax3) (enter, leave geom.Intersection, ok bool) {
	enter = geom.Intersection{T: 0}
	leave = geom.Intersection{T: ray.Length}

	for i := 0; i < 3; i++ {
		if ray.Direction[i] == 0 {
			if ray.Origin[i] < box.Mins[i] || ray.Origin[i] > box.Maxs[i] {
				return enter, leave, false
			}
			continue
		}

		near := (box.Mins[i] - ray.Origin[i]) * ray.InvDir[i]
		far := (box.Maxs[i] - ray.Origin[i]) * ray.InvDir[i]
		nearNormal := axes[i].Mul(-1)
		farNormal := axes[i]
		if ray.InvDir[i] < 0 {
			near, far = far, near
			nearNormal, farNormal = farNormal, nearNormal
		}
		far *= farExpansion

		if near > enter.T {
			enter = geom.Intersection{T: near, Normal: nearNormal}
		}
		if far < leave.T {
			leave = geom.Intersection{T: far, Normal: farNormal}
		}
		if enter.T > leave.T {
			return enter, leave, false
		}
	}

	return enter, leave, true
}

// RayVsSphere returns the first point where the ray touches the sphere. A ray
// starting inside the sphere hits at t = 0.
func RayVsSphere(ray geom.Ray, center mgl64.Vec3, radius float64) (geom.Intersection, bool) {
	m := ray.Origin.Sub(center)
	b := m.Dot(ray.Direction)
	c := m.Dot(m) - radius*radius

	// outside and pointing away
	if c > 0 && b > 0 {
		return geom.Intersection{}, false
	}
	if c <= 0 {
		return geom.Intersection{T: 0, Normal: normalizeOrZero(m)}, true
	}

	discr := b*b - c
	if discr < 0 {
		return geom.Intersection{}, false
	}

	t := -b - math.Sqrt(discr)
	if t < 0 {
		t = 0
	}
	if t > ray.Length {
		return geom.Intersection{}, false
	}

	return geom.Intersection{T: t, Normal: normalizeOrZero(ray.At(t).Sub(center))}, true
}

// RayVsCapsule intersects the ray with the capsule made of segment a-b swept by
// radius. The cylinder part is solved as a quadratic; hits beyond either end of
// the axis fall back to the cap sphere on that side.
func RayVsCapsule(ray geom.Ray, a, b mgl64.Vec3, radius float64) (geom.Intersection, bool) {
	d := b.Sub(a)
	m := ray.Origin.Sub(a)
	n := ray.Direction

	md := m.Dot(d)
	nd := n.Dot(d)
	dd := d.Dot(d)

	if dd == 0 {
		return RayVsSphere(ray, a, radius)
	}

	nn := n.Dot(n)
	mn := m.Dot(n)
	k := m.Dot(m) - radius*radius
	c := dd*k - md*md

	// origin inside the infinite cylinder: a line leaves a cylinder at most
	// once, so past either end only that cap can be hit
	if c <= 0 {
		if md < 0 {
			return RayVsSphere(ray, a, radius)
		}
		if md > dd {
			return RayVsSphere(ray, b, radius)
		}
		return geom.Intersection{T: 0, Normal: radialNormal(m, d, dd, md)}, true
	}

	qa := dd*nn - nd*nd
	if math.Abs(qa) < 1e-12 {
		// parallel to the axis and outside the cylinder, or zero length
		return geom.Intersection{}, false
	}

	qb := dd*mn - nd*md
	discr := qb*qb - qa*c
	if discr < 0 {
		return geom.Intersection{}, false
	}

	t := (-qb - math.Sqrt(discr)) / qa
	y := md + t*nd
	if y < 0 {
		return RayVsSphere(ray, a, radius)
	}
	if y > dd {
		return RayVsSphere(ray, b, radius)
	}
	if t < 0 || t > ray.Length {
		return geom.Intersection{}, false
	}

	hit := ray.At(t)
	axisPoint := a.Add(d.Mul(y / dd))
	return geom.Intersection{T: t, Normal: normalizeOrZero(hit.Sub(axisPoint))}, true
}

// SweptAABBVsAABB finds when box a moving by va first touches box b moving by
// vb over one step. T is in [0, 1]; boxes already overlapping hit at 0. Normal
// is the face of a that b reaches.
func SweptAABBVsAABB(a geom.MinMax3, va mgl64.Vec3, b geom.MinMax3, vb mgl64.Vec3) (geom.Intersection, bool) {
	if a.Overlaps(b) {
		return geom.Intersection{T: 0}, true
	}

	// treat a as stationary
	v := vb.Sub(va)
	tFirst, tLast := 0.0, 1.0
	var normal mgl64.Vec3

	for i := 0; i < 3; i++ {
		switch {
		case v[i] < 0:
			if b.Maxs[i] < a.Mins[i] {
				return geom.Intersection{}, false
			}
			if a.Maxs[i] < b.Mins[i] {
				if t := (a.Maxs[i] - b.Mins[i]) / v[i]; t > tFirst {
					tFirst = t
					normal = axes[i]
				}
			}
			if b.Maxs[i] > a.Mins[i] {
				tLast = math.Min((a.Mins[i]-b.Maxs[i])/v[i], tLast)
			}
		case v[i] > 0:
			if b.Mins[i] > a.Maxs[i] {
				return geom.Intersection{}, false
			}
			if b.Maxs[i] < a.Mins[i] {
				if t := (a.Mins[i] - b.Maxs[i]) / v[i]; t > tFirst {
					tFirst = t
					normal = axes[i].Mul(-1)
				}
			}
			if a.Maxs[i] > b.Mins[i] {
				tLast = math.Min((a.Maxs[i]-b.Mins[i])/v[i], tLast)
			}
		default:
			if b.Maxs[i] < a.Mins[i] || b.Mins[i] > a.Maxs[i] {
				return geom.Intersection{}, false
			}
		}

		if tFirst > tLast {
			return geom.Intersection{}, false
		}
	}

	return geom.Intersection{T: tFirst, Normal: normal}, true
}

func radialNormal(m, d mgl64.Vec3, dd, md float64) mgl64.Vec3 {
	return normalizeOrZero(m.Sub(d.Mul(md / dd)))
}

func normalizeOrZero(v mgl64.Vec3) mgl64.Vec3 {
	if v.LenSqr() == 0 {
		return mgl64.Vec3{}
	}
	return v.Normalize()
}
