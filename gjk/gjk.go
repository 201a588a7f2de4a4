// Package gjk answers whether two convex volumes overlap, using the
// Gilbert-Johnson-Keerthi iteration on their Minkowski difference.
//
// Only support mappings are needed, so any convex solid that can report its
// furthest point in a direction plugs in through Convex.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"sync"

	"github.com/akmonengine/collide/geom"
	"github.com/go-gl/mathgl/mgl64"
)

const maxIterations = 32

// Convex is a convex solid in world space.
type Convex interface {
	// Support returns the point of the solid furthest along dir.
	Support(dir mgl64.Vec3) mgl64.Vec3
	// Center is any interior point, used to seed the search direction.
	Center() mgl64.Vec3
}

// Placed is a geom.Shape positioned at Origin.
type Placed struct {
	Shape  geom.Shape
	Origin mgl64.Vec3
}

func (p Placed) Support(dir mgl64.Vec3) mgl64.Vec3 {
	return geom.SupportPoint(p.Shape, dir).Add(p.Origin)
}

func (p Placed) Center() mgl64.Vec3 {
	return p.Shape.Bounds().Center().Add(p.Origin)
}

// Simplex holds the 1 to 4 most useful points of the Minkowski difference found
// so far. The newest point is always the last one.
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

var simplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// MinkowskiSupport returns the support point of a - b along direction.
func MinkowskiSupport(a, b Convex, direction mgl64.Vec3) mgl64.Vec3 {
	return a.Support(direction).Sub(b.Support(direction.Mul(-1)))
}

// Intersect reports whether a and b overlap. Solids that exactly touch may go
// either way.
func Intersect(a, b Convex) bool {
	simplex := simplexPool.Get().(*Simplex)
	defer simplexPool.Put(simplex)
	simplex.Reset()

	return GJK(a, b, simplex)
}

// GJK runs the iteration with a caller provided simplex, which is left holding
// the final simplex.
func GJK(a, b Convex, simplex *Simplex) bool {
	direction := b.Center().Sub(a.Center())
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	simplex.Points[0] = MinkowskiSupport(a, b, direction)
	simplex.Count = 1

	direction = simplex.Points[0].Mul(-1)
	if direction.LenSqr() < 1e-16 {
		return true
	}

	for i := 0; i < maxIterations; i++ {
		p := MinkowskiSupport(a, b, direction)

		// the origin lies beyond the furthest reachable point: separated
		if p.Dot(direction) <= 0 {
			return false
		}

		simplex.Points[simplex.Count] = p
		simplex.Count++

		if containsOrigin(simplex, &direction) {
			return true
		}
	}

	return false
}

// containsOrigin reduces the simplex to the feature closest to the origin and
// points direction at the origin from it. Only a tetrahedron can contain it.
func containsOrigin(simplex *Simplex, direction *mgl64.Vec3) bool {
	switch simplex.Count {
	case 2:
		return line(simplex, direction)
	case 3:
		return triangle(simplex, direction)
	case 4:
		return tetrahedron(simplex, direction)
	}
	return false
}

func setSimplex(simplex *Simplex, points ...mgl64.Vec3) {
	copy(simplex.Points[:], points)
	simplex.Count = len(points)
}

func line(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[1]
	b := simplex.Points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if ab.LenSqr() < 1e-8 {
		if ao.LenSqr() < 1e-8 {
			return true
		}
		setSimplex(simplex, a)
		*direction = ao
		return false
	}

	if ab.Dot(ao) <= 0 {
		setSimplex(simplex, a)
		*direction = ao
		return false
	}

	perp := ab.Cross(ao).Cross(ab)
	if perp.LenSqr() < 1e-8 {
		// collinear with the origin: contact unless it lies past b
		if ab.Dot(ao) <= ab.LenSqr() {
			return true
		}
		setSimplex(simplex, b)
		*direction = b.Mul(-1)
		return false
	}

	*direction = perp
	return false
}

func triangle(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[2]
	b := simplex.Points[1]
	c := simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)
	abc := ab.Cross(ac)

	// collinear: drop the oldest point
	if abc.LenSqr() < 1e-10 {
		setSimplex(simplex, b, a)
		return line(simplex, direction)
	}

	if ab.Cross(abc).Dot(ao) > 0 {
		setSimplex(simplex, b, a)
		*direction = ab.Cross(ao).Cross(ab)
		return false
	}

	if abc.Cross(ac).Dot(ao) > 0 {
		setSimplex(simplex, c, a)
		*direction = ac.Cross(ao).Cross(ac)
		return false
	}

	if abc.Dot(ao) > 0 {
		*direction = abc
	} else {
		setSimplex(simplex, a, c, b)
		*direction = abc.Mul(-1)
	}
	return false
}

// outward flips n so that it points away from the opposite vertex.
func outward(n, toOpposite mgl64.Vec3) mgl64.Vec3 {
	if n.Dot(toOpposite) > 0 {
		return n.Mul(-1)
	}
	return n
}

func tetrahedron(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[3]
	b := simplex.Points[2]
	c := simplex.Points[1]
	d := simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	abc := outward(ab.Cross(ac), ad)
	acd := outward(ac.Cross(ad), ab)
	adb := outward(ad.Cross(ab), ac)

	if abc.LenSqr() < 1e-10 || acd.LenSqr() < 1e-10 || adb.LenSqr() < 1e-10 {
		setSimplex(simplex, c, b, a)
		return triangle(simplex, direction)
	}

	switch {
	case abc.Dot(ao) > 0:
		setSimplex(simplex, c, b, a)
		return triangle(simplex, direction)
	case acd.Dot(ao) > 0:
		setSimplex(simplex, d, c, a)
		return triangle(simplex, direction)
	case adb.Dot(ao) > 0:
		setSimplex(simplex, b, d, a)
		return triangle(simplex, direction)
	}

	return true
}
