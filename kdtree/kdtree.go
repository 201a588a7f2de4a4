// Package kdtree traces rays and swept shapes through precompiled KD-trees of
// convex brushes, the static collision geometry of maps and GLTF models.
//
// A swept shape is handled by growing the geometry instead of the query: every
// split plane and brush plane is pushed out by the shape's support along its
// normal, after which the shape's origin is traced as a plain ray.
package kdtree

import (
	"errors"
	"math"

	"github.com/akmonengine/collide/geom"
	"github.com/akmonengine/collide/intersect"
)

// MaxDeferredNodes bounds the number of far children waiting to be visited.
const MaxDeferredNodes = 64

// ErrDeferredStackExhausted is the panic value raised when a traversal needs
// more than MaxDeferredNodes pending subtrees. Only a malformed tree gets there.
var ErrDeferredStackExhausted = errors.New("kdtree: deferred node stack exhausted")

type deferredNode struct {
	node       NodeIndex
	tMin, tMax float64
}

// SweptShapeVsModel traces shape along ray through the tree rooted at root,
// whose contents are enclosed by bounds. Brushes whose solidity shares no bit
// with mask are ignored. It returns the closest hit.
func SweptShapeVsModel(g *Geometry, root NodeIndex, bounds geom.MinMax3, ray geom.Ray, shape geom.Shape, mask geom.Solidity) (geom.Intersection, bool) {
	enter, leave, ok := intersect.RayVsAABB(ray, geom.MinkowskiSum(bounds, shape))
	if !ok {
		return geom.Intersection{}, false
	}

	var stack [MaxDeferredNodes]deferredNode
	numDeferred := 0

	best := geom.Intersection{T: math.Inf(1)}
	hit := false

	node := root
	tMin, tMax := enter.T, leave.T

	for {
		current := g.Nodes[node]

		if !current.IsLeaf() {
			near, far, visitNear, visitFar := split(current, node, ray, shape, tMin, tMax)

			switch {
			case visitNear && visitFar:
				if numDeferred == MaxDeferredNodes {
					panic(ErrDeferredStackExhausted)
				}
				stack[numDeferred] = far
				numDeferred++
				node, tMin, tMax = near.node, near.tMin, near.tMax
				continue
			case visitNear:
				node, tMin, tMax = near.node, near.tMin, near.tMax
				continue
			case visitFar:
				node, tMin, tMax = far.node, far.tMin, far.tMax
				continue
			}
		} else {
			for _, brushIndex := range g.LeafBrushes(current) {
				brush := &g.Brushes[brushIndex]
				if brush.Solidity&mask == 0 {
					continue
				}

				if h, ok := SweptShapeVsBrush(g, brush, ray, shape); ok && h.T < best.T {
					best = h
					hit = true
				}
			}
		}

		// pop the next subtree that can still beat the best hit
		for {
			if numDeferred == 0 {
				return best, hit
			}
			numDeferred--
			next := stack[numDeferred]
			if next.tMin <= best.T && next.tMin <= ray.Length {
				node, tMin, tMax = next.node, next.tMin, next.tMax
				break
			}
		}
	}
}

// split decides which children of an internal node the ray reaches within
// [tMin, tMax], and over which sub-interval. The split plane is widened on both
// sides by the shape's extent along the split axis: the front child matters
// while the shape's origin is below distance + support(-axis), the back child
// once it is above distance - support(+axis).
func split(n Node, index NodeIndex, ray geom.Ray, shape geom.Shape, tMin, tMax float64) (near, far deferredNode, visitNear, visitFar bool) {
	axis := n.Axis()
	distance := n.Distance()
	front, back := index+1, n.BackChild()

	frontLimit := distance + geom.AxialSupport(shape, axis, false)
	backLimit := distance - geom.AxialSupport(shape, axis, true)

	origin := ray.Origin[axis]
	if ray.Direction[axis] == 0 {
		near = deferredNode{node: front, tMin: tMin, tMax: tMax}
		far = deferredNode{node: back, tMin: tMin, tMax: tMax}
		return near, far, origin <= frontLimit, origin >= backLimit
	}

	tFront := (frontLimit - origin) * ray.InvDir[axis]
	tBack := (backLimit - origin) * ray.InvDir[axis]

	nearNode, farNode := front, back
	nearEnd, farStart := tFront, tBack
	if ray.Direction[axis] < 0 {
		nearNode, farNode = back, front
		nearEnd, farStart = tBack, tFront
	}

	near = deferredNode{node: nearNode, tMin: tMin, tMax: math.Min(tMax, nearEnd)}
	far = deferredNode{node: farNode, tMin: math.Max(tMin, farStart), tMax: tMax}
	return near, far, tMin <= nearEnd, farStart <= tMax
}

// SweptShapeVsBrush clips the ray against the brush's half-spaces, each grown by
// the shape's support, after a quick reject against the brush's grown bounds.
func SweptShapeVsBrush(g *Geometry, brush *Brush, ray geom.Ray, shape geom.Shape) (geom.Intersection, bool) {
	enter, leave, ok := intersect.RayVsAABB(ray, geom.MinkowskiSum(brush.Bounds, shape))
	if !ok {
		return geom.Intersection{}, false
	}

	for _, plane := range g.BrushPlanes(brush) {
		distance := plane.Distance + geom.Support(shape, plane.Normal.Mul(-1))
		dist := plane.Normal.Dot(ray.Origin) - distance
		denom := plane.Normal.Dot(ray.Direction)

		if denom == 0 {
			// parallel: either always outside this plane or never constrained by it
			if dist > 0 {
				return geom.Intersection{}, false
			}
			continue
		}

		t := -dist / denom
		if denom < 0 {
			if t > enter.T {
				enter = geom.Intersection{T: t, Normal: plane.Normal}
			}
		} else if t < leave.T {
			leave = geom.Intersection{T: t, Normal: plane.Normal}
		}

		if enter.T > leave.T {
			return geom.Intersection{}, false
		}
	}

	enter.Solidity = brush.Solidity
	return enter, true
}
