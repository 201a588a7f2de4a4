// Package collide indexes dynamic entities for broad-phase queries and runs
// ray and swept-shape traces against them and against static map geometry.
//
// Index structures are not safe for concurrent use: link, unlink and query them
// from the simulation goroutine, one tick at a time.
package collide

import (
	"errors"

	"github.com/akmonengine/collide/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxEntities is the default capacity of the broad-phase indexes.
const MaxEntities = 1024

// ErrAtCapacity is returned when linking an entity into a full index, or one
// whose id does not fit the index's capacity.
var ErrAtCapacity = errors.New("collide: index at capacity")

// EntityID identifies an entity for as long as it stays linked.
type EntityID uint32

// EntityState is the per-tick snapshot of an entity the collision code needs.
type EntityState struct {
	ID     EntityID
	Origin mgl64.Vec3
	// Scale applies to primitive collision models. Zero means unit scale.
	Scale mgl64.Vec3
	// Model is the hash of the entity's render model name, resolved against
	// the Storage. Zero means no model.
	Model uint64
	// OverrideCollisionModel replaces whatever Model resolves to.
	OverrideCollisionModel *CollisionModel
	Solidity               geom.Solidity
}

func (e *EntityState) scale() mgl64.Vec3 {
	if e.Scale == (mgl64.Vec3{}) {
		return mgl64.Vec3{1, 1, 1}
	}
	return e.Scale
}

// Trace is the outcome of a trace. Fraction is the travelled share of the ray,
// 1 when nothing was hit.
type Trace struct {
	Fraction     float64
	EndPos       mgl64.Vec3
	Normal       mgl64.Vec3
	Solidity     geom.Solidity
	EntityID     EntityID
	HitSomething bool
}

// MakeMissedTrace is the result of a trace that reached the end of ray.
func MakeMissedTrace(ray geom.Ray) Trace {
	return Trace{
		Fraction: 1,
		EndPos:   ray.End(),
	}
}

func makeHitTrace(ray geom.Ray, hit geom.Intersection, id EntityID) Trace {
	fraction := 0.0
	if ray.Length > 0 {
		fraction = hit.T / ray.Length
	}
	return Trace{
		Fraction:     fraction,
		EndPos:       ray.At(hit.T),
		Normal:       hit.Normal,
		Solidity:     hit.Solidity,
		EntityID:     id,
		HitSomething: true,
	}
}

// Closer reports whether t ends before other.
func (t Trace) Closer(other Trace) bool {
	return t.HitSomething && (!other.HitSomething || t.Fraction < other.Fraction)
}
