package kdtree

import (
	"math"

	"github.com/akmonengine/collide/geom"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	axisMask   = 0x3
	leafBit    = 1 << 2
	childShift = 3

	// MaxChildIndex is the largest value the 29 bit child/count field holds.
	MaxChildIndex = 1<<29 - 1
)

// NodeIndex addresses Geometry.Nodes.
type NodeIndex uint32

// Node is one packed 8 byte KD-tree node, laid out exactly as on disk.
//
// Internal: Word0 is the float32 split distance, Word1 packs axis (bits 0-1),
// is_leaf = 0 (bit 2) and the back child index (bits 3-31). The front child is
// always the next slot in the node array and covers coord < distance; the back
// child covers coord >= distance.
//
// Leaf: Word0 is the first entry in Geometry.BrushIndices, Word1 packs is_leaf
// = 1 (bit 2) and the brush count (bits 3-31).
type Node struct {
	Word0 uint32
	Word1 uint32
}

func InternalNode(axis int, distance float32, backChild NodeIndex) Node {
	return Node{
		Word0: math.Float32bits(distance),
		Word1: uint32(axis)&axisMask | uint32(backChild)<<childShift,
	}
}

func LeafNode(firstBrush, numBrushes uint32) Node {
	return Node{
		Word0: firstBrush,
		Word1: leafBit | numBrushes<<childShift,
	}
}

func (n Node) IsLeaf() bool {
	return n.Word1&leafBit != 0
}

func (n Node) Axis() int {
	return int(n.Word1 & axisMask)
}

func (n Node) Distance() float64 {
	return float64(math.Float32frombits(n.Word0))
}

func (n Node) BackChild() NodeIndex {
	return NodeIndex(n.Word1 >> childShift)
}

func (n Node) FirstBrush() uint32 {
	return n.Word0
}

func (n Node) NumBrushes() uint32 {
	return n.Word1 >> childShift
}

// Plane is a half-space: points p with dot(Normal, p) <= Distance are inside.
type Plane struct {
	Normal   mgl64.Vec3
	Distance float64
}

// Brush is a convex solid made of NumPlanes consecutive planes.
type Brush struct {
	Bounds     geom.MinMax3
	Solidity   geom.Solidity
	FirstPlane uint16
	NumPlanes  uint16
}

// Geometry is the static collision data of a map or a GLTF collision mesh. It
// is read-only once loaded and may be shared by several models.
type Geometry struct {
	Nodes        []Node
	Brushes      []Brush
	BrushIndices []uint32
	Planes       []Plane
}

// Solidity is the union of the solidity of every brush reachable from root.
// It panics with ErrDeferredStackExhausted on trees deeper than
// MaxDeferredNodes back children.
func (g *Geometry) Solidity(root NodeIndex) geom.Solidity {
	var stack [MaxDeferredNodes]NodeIndex
	numDeferred := 0

	var s geom.Solidity
	node := root
	for {
		current := g.Nodes[node]
		if !current.IsLeaf() {
			if numDeferred == MaxDeferredNodes {
				panic(ErrDeferredStackExhausted)
			}
			stack[numDeferred] = current.BackChild()
			numDeferred++
			node++
			continue
		}

		for _, brushIndex := range g.LeafBrushes(current) {
			s |= g.Brushes[brushIndex].Solidity
		}

		if numDeferred == 0 {
			return s
		}
		numDeferred--
		node = stack[numDeferred]
	}
}

// BrushPlanes returns the planes bounding b.
func (g *Geometry) BrushPlanes(b *Brush) []Plane {
	first := int(b.FirstPlane)
	return g.Planes[first : first+int(b.NumPlanes)]
}

// LeafBrushes returns the brush indices referenced by leaf.
func (g *Geometry) LeafBrushes(leaf Node) []uint32 {
	first := leaf.FirstBrush()
	return g.BrushIndices[first : first+leaf.NumBrushes()]
}
