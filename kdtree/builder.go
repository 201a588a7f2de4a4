package kdtree

import (
	"github.com/akmonengine/collide/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// Builder assembles Geometry by hand: brushes first, then the tree in
// depth-first order so that every front child lands right after its parent.
type Builder struct {
	g Geometry
}

// AddBrush appends a convex brush bounded by planes and returns its index.
func (b *Builder) AddBrush(bounds geom.MinMax3, solidity geom.Solidity, planes ...Plane) uint32 {
	brush := Brush{
		Bounds:     bounds,
		Solidity:   solidity,
		FirstPlane: uint16(len(b.g.Planes)),
		NumPlanes:  uint16(len(planes)),
	}
	b.g.Planes = append(b.g.Planes, planes...)
	b.g.Brushes = append(b.g.Brushes, brush)
	return uint32(len(b.g.Brushes) - 1)
}

// AddBoxBrush appends the six-plane brush filling bounds.
func (b *Builder) AddBoxBrush(bounds geom.MinMax3, solidity geom.Solidity) uint32 {
	return b.AddBrush(bounds, solidity, BoxPlanes(bounds)...)
}

// Leaf appends a leaf referencing brushes.
func (b *Builder) Leaf(brushes ...uint32) NodeIndex {
	first := uint32(len(b.g.BrushIndices))
	b.g.BrushIndices = append(b.g.BrushIndices, brushes...)
	b.g.Nodes = append(b.g.Nodes, LeafNode(first, uint32(len(brushes))))
	return NodeIndex(len(b.g.Nodes) - 1)
}

// Split appends an internal node, then lets front and back append their
// subtrees in that order.
func (b *Builder) Split(axis int, distance float32, front, back func(*Builder)) NodeIndex {
	index := NodeIndex(len(b.g.Nodes))
	b.g.Nodes = append(b.g.Nodes, Node{})

	front(b)
	backChild := NodeIndex(len(b.g.Nodes))
	back(b)

	b.g.Nodes[index] = InternalNode(axis, distance, backChild)
	return index
}

// Geometry returns the assembled data. The builder must not be reused.
func (b *Builder) Geometry() *Geometry {
	return &b.g
}

// Bounds is the union of every brush's bounds.
func (b *Builder) Bounds() geom.MinMax3 {
	bounds := geom.EmptyMinMax3()
	for _, brush := range b.g.Brushes {
		bounds = bounds.Union(brush.Bounds)
	}
	return bounds
}

// BoxPlanes returns the six outward facing planes of an axis-aligned box.
func BoxPlanes(bounds geom.MinMax3) []Plane {
	planes := make([]Plane, 0, 6)
	for axis := 0; axis < 3; axis++ {
		var n mgl64.Vec3
		n[axis] = 1
		planes = append(planes,
			Plane{Normal: n, Distance: bounds.Maxs[axis]},
			Plane{Normal: n.Mul(-1), Distance: -bounds.Mins[axis]},
		)
	}
	return planes
}
