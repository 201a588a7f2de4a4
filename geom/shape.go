package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType tags the Shape variant
type ShapeType int

const (
	ShapeRay ShapeType = iota
	ShapeAABB
	ShapeSphere
	ShapeCapsule
)

func (t ShapeType) String() string {
	switch t {
	case ShapeRay:
		return "ray"
	case ShapeAABB:
		return "aabb"
	case ShapeSphere:
		return "sphere"
	case ShapeCapsule:
		return "capsule"
	}
	return "unknown"
}

// Shape is the volume swept along a query ray. All coordinates are relative to
// the ray origin.
//
//   - ShapeRay: a point, no extra fields.
//   - ShapeAABB: Center and half-extents Extents.
//   - ShapeSphere: Radius around the origin.
//   - ShapeCapsule: segment A-B swept by Radius.
type Shape struct {
	Type    ShapeType
	Center  mgl64.Vec3
	Extents mgl64.Vec3
	Radius  float64
	A, B    mgl64.Vec3
}

func PointShape() Shape {
	return Shape{Type: ShapeRay}
}

func AABBShape(center, extents mgl64.Vec3) Shape {
	return Shape{Type: ShapeAABB, Center: center, Extents: extents}
}

// AABBShapeFromBounds builds the box shape that covers b.
func AABBShapeFromBounds(b MinMax3) Shape {
	return AABBShape(b.Center(), b.Extents())
}

func SphereShape(radius float64) Shape {
	return Shape{Type: ShapeSphere, Radius: radius}
}

func CapsuleShape(a, b mgl64.Vec3, radius float64) Shape {
	return Shape{Type: ShapeCapsule, A: a, B: b, Radius: radius}
}

// Support returns max(dot(dir, s)) over every point s of the shape. Growing a
// static half-space by Support(shape, -normal) reduces a swept-shape query to a
// ray query.
func Support(shape Shape, dir mgl64.Vec3) float64 {
	switch shape.Type {
	case ShapeAABB:
		return shape.Center.Dot(dir) +
			math.Abs(shape.Extents[0]*dir[0]) +
			math.Abs(shape.Extents[1]*dir[1]) +
			math.Abs(shape.Extents[2]*dir[2])
	case ShapeSphere:
		return shape.Radius * dir.Len()
	case ShapeCapsule:
		return math.Max(shape.A.Dot(dir), shape.B.Dot(dir)) + shape.Radius*dir.Len()
	}
	return 0
}

// AxialSupport is Support along a single signed axis.
func AxialSupport(shape Shape, axis int, positive bool) float64 {
	sign := 1.0
	if !positive {
		sign = -1.0
	}

	switch shape.Type {
	case ShapeAABB:
		return sign*shape.Center[axis] + shape.Extents[axis]
	case ShapeSphere:
		return shape.Radius
	case ShapeCapsule:
		return math.Max(sign*shape.A[axis], sign*shape.B[axis]) + shape.Radius
	}
	return 0
}

// SupportPoint returns the point of the shape furthest along dir.
func SupportPoint(shape Shape, dir mgl64.Vec3) mgl64.Vec3 {
	switch shape.Type {
	case ShapeAABB:
		hx, hy, hz := shape.Extents.X(), shape.Extents.Y(), shape.Extents.Z()
		if dir.X() < 0 {
			hx = -hx
		}
		if dir.Y() < 0 {
			hy = -hy
		}
		if dir.Z() < 0 {
			hz = -hz
		}
		return shape.Center.Add(mgl64.Vec3{hx, hy, hz})
	case ShapeSphere:
		return normalizeOrZero(dir).Mul(shape.Radius)
	case ShapeCapsule:
		end := shape.A
		if shape.B.Dot(dir) > shape.A.Dot(dir) {
			end = shape.B
		}
		return end.Add(normalizeOrZero(dir).Mul(shape.Radius))
	}
	return mgl64.Vec3{}
}

// Bounds returns the box enclosing the shape, relative to the ray origin.
func (shape Shape) Bounds() MinMax3 {
	switch shape.Type {
	case ShapeAABB:
		return MinMax3FromCenter(shape.Center, shape.Extents)
	case ShapeSphere:
		r := mgl64.Vec3{shape.Radius, shape.Radius, shape.Radius}
		return MinMax3{Mins: r.Mul(-1), Maxs: r}
	case ShapeCapsule:
		r := mgl64.Vec3{shape.Radius, shape.Radius, shape.Radius}
		return MinMax3{Mins: shape.A, Maxs: shape.A}.UnionPoint(shape.B).Expand(r)
	}
	return MinMax3{}
}

// MinkowskiSum grows bounds so that testing the shape's origin against the
// result is equivalent to testing the whole shape against bounds.
func MinkowskiSum(bounds MinMax3, shape Shape) MinMax3 {
	sb := shape.Bounds()
	return MinMax3{
		Mins: bounds.Mins.Sub(sb.Maxs),
		Maxs: bounds.Maxs.Sub(sb.Mins),
	}
}

func normalizeOrZero(v mgl64.Vec3) mgl64.Vec3 {
	if v.LenSqr() == 0 {
		return mgl64.Vec3{}
	}
	return v.Normalize()
}
