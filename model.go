package collide

import (
	"math"

	"github.com/akmonengine/collide/geom"
	"github.com/go-gl/mathgl/mgl64"
)

type ModelType int

const (
	ModelPoint ModelType = iota
	ModelAABB
	ModelSphere
	ModelCapsule
	ModelMap
	ModelGLTF
)

func (t ModelType) String() string {
	switch t {
	case ModelPoint:
		return "point"
	case ModelAABB:
		return "aabb"
	case ModelSphere:
		return "sphere"
	case ModelCapsule:
		return "capsule"
	case ModelMap:
		return "map"
	case ModelGLTF:
		return "gltf"
	}
	return "unknown"
}

// CollisionModel describes the collision volume of an entity, in entity space.
// Which fields are meaningful depends on Type:
//   - ModelAABB: Bounds.
//   - ModelSphere: Radius, centered on the entity origin.
//   - ModelCapsule: segment A-B and Radius.
//   - ModelMap, ModelGLTF: Hash of the static model in the Storage.
type CollisionModel struct {
	Type   ModelType
	Bounds geom.MinMax3
	Radius float64
	A, B   mgl64.Vec3
	Hash   uint64
}

func CollisionModelPoint() CollisionModel {
	return CollisionModel{Type: ModelPoint}
}

func CollisionModelAABB(bounds geom.MinMax3) CollisionModel {
	return CollisionModel{Type: ModelAABB, Bounds: bounds}
}

func CollisionModelSphere(radius float64) CollisionModel {
	return CollisionModel{Type: ModelSphere, Radius: radius}
}

func CollisionModelCapsule(a, b mgl64.Vec3, radius float64) CollisionModel {
	return CollisionModel{Type: ModelCapsule, A: a, B: b, Radius: radius}
}

// CollisionModelMapModel refers to a map submodel, see ModelHash.
func CollisionModelMapModel(hash uint64) CollisionModel {
	return CollisionModel{Type: ModelMap, Hash: hash}
}

// CollisionModelGLTF refers to the GLTF collision mesh loaded under name.
func CollisionModelGLTF(name string) CollisionModel {
	return CollisionModel{Type: ModelGLTF, Hash: StringHash(name)}
}

// IsStatic reports whether the model is KD-tree geometry.
func (m CollisionModel) IsStatic() bool {
	return m.Type == ModelMap || m.Type == ModelGLTF
}

// ResolveCollisionModel picks the collision model of ent. Entities without a
// model collide as points. It returns false when ent names a model the
// storage does not know.
func ResolveCollisionModel(s *Storage, ent *EntityState) (CollisionModel, bool) {
	if ent.OverrideCollisionModel != nil {
		return *ent.OverrideCollisionModel, true
	}
	if ent.Model == 0 {
		return CollisionModelPoint(), true
	}
	if _, ok := s.MapModel(ent.Model); ok {
		return CollisionModelMapModel(ent.Model), true
	}
	if _, ok := s.GLTFModel(ent.Model); ok {
		return CollisionModel{Type: ModelGLTF, Hash: ent.Model}, true
	}
	return CollisionModel{}, false
}

// staticModel looks up the KD-tree data behind a map or GLTF model.
func (s *Storage) staticModel(m CollisionModel) (StaticModel, bool) {
	switch m.Type {
	case ModelMap:
		return s.MapModel(m.Hash)
	case ModelGLTF:
		return s.GLTFModel(m.Hash)
	}
	return StaticModel{}, false
}

func maxAbs(v mgl64.Vec3) float64 {
	return math.Max(math.Abs(v[0]), math.Max(math.Abs(v[1]), math.Abs(v[2])))
}

// primitiveShape is a primitive model scaled and expressed as a geom.Shape
// relative to the entity origin. Spheres and capsule radii scale by the
// largest scale component.
func primitiveShape(m CollisionModel, scale mgl64.Vec3) geom.Shape {
	switch m.Type {
	case ModelAABB:
		return geom.AABBShapeFromBounds(m.Bounds.Scale(scale))
	case ModelSphere:
		return geom.SphereShape(m.Radius * maxAbs(scale))
	case ModelCapsule:
		a := mgl64.Vec3{m.A[0] * scale[0], m.A[1] * scale[1], m.A[2] * scale[2]}
		b := mgl64.Vec3{m.B[0] * scale[0], m.B[1] * scale[1], m.B[2] * scale[2]}
		return geom.CapsuleShape(a, b, m.Radius*maxAbs(scale))
	}
	return geom.PointShape()
}
