package collide

import (
	"github.com/akmonengine/collide/geom"
	"github.com/akmonengine/collide/gjk"
	"github.com/akmonengine/collide/intersect"
	"github.com/akmonengine/collide/kdtree"
	"github.com/go-gl/mathgl/mgl64"
)

// EntityBounds returns the world space box of ent's collision model. It
// returns false when the model does not resolve, in which case the entity has
// no collision.
func EntityBounds(s *Storage, ent *EntityState) (geom.MinMax3, bool) {
	model, ok := ResolveCollisionModel(s, ent)
	if !ok {
		return geom.EmptyMinMax3(), false
	}

	if model.IsStatic() {
		static, ok := s.staticModel(model)
		if !ok {
			return geom.EmptyMinMax3(), false
		}
		return static.Bounds.Translate(ent.Origin), true
	}

	return primitiveShape(model, ent.scale()).Bounds().Translate(ent.Origin), true
}

// EntitySolidity is the union of the brush solidities for static models and
// ent.Solidity for primitives. Unresolved models are not solid.
func EntitySolidity(s *Storage, ent *EntityState) geom.Solidity {
	model, ok := ResolveCollisionModel(s, ent)
	if !ok {
		return geom.SolidNotSolid
	}

	if model.IsStatic() {
		static, ok := s.staticModel(model)
		if !ok {
			return geom.SolidNotSolid
		}
		return static.Solidity
	}
	return ent.Solidity
}

// TraceVsEnt sweeps shape along ray against ent. Brushes, or the whole entity
// for primitive models, whose solidity misses mask are ignored.
//
// Exact pairs: any shape against static models, points and boxes against
// boxes, points, spheres and capsules against spheres, points and spheres
// against capsules. The remaining pairs fall back to the Minkowski sum of the
// bounding boxes, which may report early hits near rounded edges.
func TraceVsEnt(s *Storage, ray geom.Ray, shape geom.Shape, ent *EntityState, mask geom.Solidity) Trace {
	model, ok := ResolveCollisionModel(s, ent)
	if !ok {
		return MakeMissedTrace(ray)
	}

	if model.IsStatic() {
		static, ok := s.staticModel(model)
		if !ok {
			return MakeMissedTrace(ray)
		}

		local := ray
		local.Origin = ray.Origin.Sub(ent.Origin)
		hit, ok := kdtree.SweptShapeVsModel(static.Geometry, static.Root, static.Bounds, local, shape, mask)
		if !ok {
			return MakeMissedTrace(ray)
		}
		return makeHitTrace(ray, hit, ent.ID)
	}

	if !ent.Solidity.Blocks(mask) {
		return MakeMissedTrace(ray)
	}

	hit, ok := rayVsPrimitive(ray, shape, primitiveShape(model, ent.scale()), ent)
	if !ok {
		return MakeMissedTrace(ray)
	}
	hit.Solidity = ent.Solidity
	return makeHitTrace(ray, hit, ent.ID)
}

func rayVsPrimitive(ray geom.Ray, shape, target geom.Shape, ent *EntityState) (geom.Intersection, bool) {
	switch target.Type {
	case geom.ShapeSphere:
		switch shape.Type {
		case geom.ShapeRay:
			return intersect.RayVsSphere(ray, ent.Origin, target.Radius)
		case geom.ShapeSphere:
			return intersect.RayVsSphere(ray, ent.Origin, target.Radius+shape.Radius)
		case geom.ShapeCapsule:
			// origins from which the capsule touches the sphere form a capsule
			return intersect.RayVsCapsule(ray, ent.Origin.Sub(shape.A), ent.Origin.Sub(shape.B), target.Radius+shape.Radius)
		}
	case geom.ShapeCapsule:
		a, b := target.A.Add(ent.Origin), target.B.Add(ent.Origin)
		switch shape.Type {
		case geom.ShapeRay:
			return intersect.RayVsCapsule(ray, a, b, target.Radius)
		case geom.ShapeSphere:
			return intersect.RayVsCapsule(ray, a, b, target.Radius+shape.Radius)
		}
	}

	bounds := target.Bounds().Translate(ent.Origin)
	enter, _, ok := intersect.RayVsAABB(ray, geom.MinkowskiSum(bounds, shape))
	return enter, ok
}

// EntityOverlap reports whether a's collision volume touches b's, counting
// only b's geometry that blocks mask.
func EntityOverlap(s *Storage, a, b *EntityState, mask geom.Solidity) bool {
	boundsA, ok := EntityBounds(s, a)
	if !ok {
		return false
	}
	boundsB, ok := EntityBounds(s, b)
	if !ok || !boundsA.Overlaps(boundsB) {
		return false
	}

	modelA, _ := ResolveCollisionModel(s, a)
	modelB, _ := ResolveCollisionModel(s, b)

	switch {
	case modelA.IsStatic() && modelB.IsStatic():
		// boxes only
		return EntitySolidity(s, b).Blocks(mask)
	case modelB.IsStatic():
		static, _ := s.staticModel(modelB)
		return shapeInsideStatic(static, b, primitiveShape(modelA, a.scale()), a, mask)
	case modelA.IsStatic():
		if !b.Solidity.Blocks(mask) {
			return false
		}
		static, _ := s.staticModel(modelA)
		return shapeInsideStatic(static, a, primitiveShape(modelB, b.scale()), b, geom.SolidEverything)
	}

	if !b.Solidity.Blocks(mask) {
		return false
	}
	return gjk.Intersect(
		gjk.Placed{Shape: primitiveShape(modelA, a.scale()), Origin: a.Origin},
		gjk.Placed{Shape: primitiveShape(modelB, b.scale()), Origin: b.Origin},
	)
}

// shapeInsideStatic tests shape placed at other's origin against the static
// model of ent with a zero length trace.
func shapeInsideStatic(static StaticModel, ent *EntityState, shape geom.Shape, other *EntityState, mask geom.Solidity) bool {
	ray := geom.MakeRay(other.Origin.Sub(ent.Origin), mgl64.Vec3{}, 0)
	_, hit := kdtree.SweptShapeVsModel(static.Geometry, static.Root, static.Bounds, ray, shape, mask)
	return hit
}
