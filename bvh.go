package collide

import (
	"cmp"
	"iter"
	"math"
	"slices"
	"time"

	"github.com/akmonengine/collide/geom"
	"github.com/akmonengine/collide/log"
	"github.com/go-gl/mathgl/mgl64"
)

// BVHNodeSize is the branching factor of the tree.
const BVHNodeSize = 4

// Primitive is one linked entity as the BVH sees it.
type Primitive struct {
	ID       EntityID
	Bounds   geom.MinMax3
	Center   mgl64.Vec3
	Solidity geom.Solidity
	MortonID uint32
}

// BVHNode covers NumChildren consecutive nodes of the next level, or
// NumChildren consecutive primitives on the deepest level, starting at
// FirstChild.
type BVHNode struct {
	Bounds      geom.MinMax3
	Level       int
	FirstChild  int
	NumChildren int
}

// BVH is an implicit complete k-ary tree over Morton sorted entities, stored
// level by level with the root at index 0. It is rebuilt from scratch whenever
// an entity is linked or unlinked.
type BVH struct {
	// Observer, when set, is told 0 when a traversal starts and the number of
	// entities it reported when it ends.
	Observer func(found int)

	primitives []Primitive
	slots      []int32
	nodes      []BVHNode
	numLevels  int

	logger log.Logger
}

// NewBVH allocates a BVH for up to capacity entities with ids below capacity.
func NewBVH(capacity int) *BVH {
	slots := make([]int32, capacity)
	for i := range slots {
		slots[i] = -1
	}

	return &BVH{
		primitives: make([]Primitive, 0, capacity),
		slots:      slots,
		nodes:      make([]BVHNode, 0, maxBVHNodes(capacity)),
		logger:     log.New("bvh"),
	}
}

func maxBVHNodes(numPrimitives int) int {
	total := 0
	count := numPrimitives
	for level := bvhLevels(numPrimitives); level > 0; level-- {
		count = (count + BVHNodeSize - 1) / BVHNodeSize
		total += count
	}
	return total
}

// bvhLevels is ceil(log_BVHNodeSize(nextPowerOfTwo(n))), at least 1.
func bvhLevels(n int) int {
	levels := 1
	for reach := BVHNodeSize; reach < nextPowerOfTwo(n); reach *= BVHNodeSize {
		levels++
	}
	return levels
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}

// expandBits spreads the low 10 bits of v so that two zero bits follow each.
func expandBits(v uint32) uint32 {
	v = (v * 0x00010001) & 0xFF0000FF
	v = (v * 0x00000101) & 0x0F00F00F
	v = (v * 0x00000011) & 0xC30C30C3
	v = (v * 0x00000005) & 0x49249249
	return v
}

// morton3D interleaves a point of the unit cube quantized to 10 bits per axis.
func morton3D(p mgl64.Vec3) uint32 {
	var q [3]uint32
	for i := 0; i < 3; i++ {
		q[i] = uint32(math.Min(math.Max(p[i]*1024, 0), 1023))
	}
	return expandBits(q[0])<<2 | expandBits(q[1])<<1 | expandBits(q[2])
}

func (b *BVH) Len() int {
	return len(b.primitives)
}

// PrepareEntity computes the primitive for ent. It returns false when ent has
// no collision.
func (b *BVH) PrepareEntity(s *Storage, ent *EntityState) (Primitive, bool) {
	bounds, ok := EntityBounds(s, ent)
	if !ok {
		return Primitive{}, false
	}
	return Primitive{
		ID:       ent.ID,
		Bounds:   bounds,
		Center:   bounds.Center(),
		Solidity: EntitySolidity(s, ent),
	}, true
}

// LinkEntity inserts or refreshes ent and rebuilds the tree. An entity whose
// model does not resolve is unlinked instead.
func (b *BVH) LinkEntity(s *Storage, ent *EntityState) error {
	p, ok := b.PrepareEntity(s, ent)
	if !ok {
		b.UnlinkEntity(ent.ID)
		return nil
	}
	if err := b.link(p); err != nil {
		return err
	}
	b.Build()
	return nil
}

// LinkBounds inserts or refreshes id with precomputed bounds and solidity,
// then rebuilds the tree.
func (b *BVH) LinkBounds(id EntityID, bounds geom.MinMax3, solidity geom.Solidity) error {
	if err := b.link(Primitive{ID: id, Bounds: bounds, Solidity: solidity}); err != nil {
		return err
	}
	b.Build()
	return nil
}

// LinkEntities links or unlinks every entity of ents like LinkEntity, with a
// single rebuild at the end.
func (b *BVH) LinkEntities(s *Storage, ents []*EntityState) error {
	links := make([]Primitive, 0, len(ents))
	var unlinks []EntityID
	for _, ent := range ents {
		if p, ok := b.PrepareEntity(s, ent); ok {
			links = append(links, p)
		} else {
			unlinks = append(unlinks, ent.ID)
		}
	}
	return b.LinkPrimitives(links, unlinks)
}

// LinkPrimitives removes unlinks, then inserts or refreshes links, with a
// single rebuild at the end. It stops at the first primitive that does not
// fit.
func (b *BVH) LinkPrimitives(links []Primitive, unlinks []EntityID) error {
	defer b.Build()

	for _, id := range unlinks {
		b.unlink(id)
	}
	for _, p := range links {
		if err := b.link(p); err != nil {
			b.logger.Errorf("could not link entity %d: %v", p.ID, err)
			return err
		}
	}
	return nil
}

func (b *BVH) link(p Primitive) error {
	if int(p.ID) >= len(b.slots) {
		return ErrAtCapacity
	}
	p.Center = p.Bounds.Center()

	if slot := b.slots[p.ID]; slot >= 0 {
		b.primitives[slot] = p
		return nil
	}
	if len(b.primitives) == cap(b.primitives) {
		return ErrAtCapacity
	}

	b.slots[p.ID] = int32(len(b.primitives))
	b.primitives = append(b.primitives, p)
	return nil
}

// UnlinkEntity removes id, if linked, and rebuilds the tree.
func (b *BVH) UnlinkEntity(id EntityID) {
	if int(id) >= len(b.slots) || b.slots[id] < 0 {
		return
	}

	b.unlink(id)
	b.Build()
}

func (b *BVH) unlink(id EntityID) {
	if int(id) >= len(b.slots) || b.slots[id] < 0 {
		return
	}

	slot := b.slots[id]
	last := len(b.primitives) - 1
	b.primitives[slot] = b.primitives[last]
	b.slots[b.primitives[slot].ID] = slot
	b.primitives = b.primitives[:last]
	b.slots[id] = -1
}

// Clear unlinks everything.
func (b *BVH) Clear() {
	for _, p := range b.primitives {
		b.slots[p.ID] = -1
	}
	b.primitives = b.primitives[:0]
	b.nodes = b.nodes[:0]
	b.numLevels = 0
}

// Build sorts the primitives along the Morton curve of their centers and
// rebuilds every level bottom-up.
func (b *BVH) Build() {
	start := time.Now()

	b.nodes = b.nodes[:0]
	b.numLevels = 0
	n := len(b.primitives)
	if n == 0 {
		return
	}

	global := geom.EmptyMinMax3()
	for _, p := range b.primitives {
		global = global.Union(p.Bounds)
	}
	size := global.Maxs.Sub(global.Mins)
	for i := range b.primitives {
		p := &b.primitives[i]
		var unit mgl64.Vec3
		for axis := 0; axis < 3; axis++ {
			if size[axis] > 0 {
				unit[axis] = (p.Center[axis] - global.Mins[axis]) / size[axis]
			}
		}
		p.MortonID = morton3D(unit)
	}

	slices.SortStableFunc(b.primitives, func(x, y Primitive) int {
		return cmp.Compare(x.MortonID, y.MortonID)
	})
	for i, p := range b.primitives {
		b.slots[p.ID] = int32(i)
	}

	// node counts per level, root first
	b.numLevels = bvhLevels(n)
	counts := make([]int, b.numLevels)
	below := n
	for level := b.numLevels - 1; level >= 0; level-- {
		counts[level] = (below + BVHNodeSize - 1) / BVHNodeSize
		below = counts[level]
	}

	offsets := make([]int, b.numLevels+1)
	for level, count := range counts {
		offsets[level+1] = offsets[level] + count
	}
	b.nodes = b.nodes[:offsets[b.numLevels]]

	for level := b.numLevels - 1; level >= 0; level-- {
		numChildren := n
		if level+1 < b.numLevels {
			numChildren = counts[level+1]
		}

		for j := 0; j < counts[level]; j++ {
			first := j * BVHNodeSize
			last := min(first+BVHNodeSize, numChildren)

			bounds := geom.EmptyMinMax3()
			for c := first; c < last; c++ {
				if level == b.numLevels-1 {
					bounds = bounds.Union(b.primitives[c].Bounds)
				} else {
					bounds = bounds.Union(b.nodes[offsets[level+1]+c].Bounds)
				}
			}

			firstChild := first
			if level+1 < b.numLevels {
				firstChild += offsets[level+1]
			}
			b.nodes[offsets[level]+j] = BVHNode{
				Bounds:      bounds,
				Level:       level,
				FirstChild:  firstChild,
				NumChildren: last - first,
			}
		}
	}

	b.logger.Debugf(
		"BVH build time: %d us, primitives: %d, nodes: %d, levels: %d",
		time.Since(start).Microseconds(), n, len(b.nodes), b.numLevels,
	)
}

// Nodes exposes the flat node array, root first.
func (b *BVH) Nodes() []BVHNode {
	return b.nodes
}

// Traverse yields every linked entity whose bounds overlap bounds.
func (b *BVH) Traverse(bounds geom.MinMax3) iter.Seq[EntityID] {
	return b.TraverseSolid(bounds, geom.SolidNotSolid)
}

// TraverseSolid is Traverse restricted to entities blocking mask. SolidNotSolid
// as mask reports every entity, solid or not.
func (b *BVH) TraverseSolid(bounds geom.MinMax3, mask geom.Solidity) iter.Seq[EntityID] {
	return func(yield func(EntityID) bool) {
		found := 0
		b.notify(0)
		defer func() { b.notify(found) }()

		if len(b.nodes) == 0 || !b.nodes[0].Bounds.Overlaps(bounds) {
			return
		}

		var buf [64]int
		stack := append(buf[:0], 0)
		leafLevel := b.numLevels - 1

		for len(stack) > 0 {
			node := b.nodes[stack[len(stack)-1]]
			stack = stack[:len(stack)-1]

			children := node.FirstChild + node.NumChildren
			if node.Level == leafLevel {
				for _, p := range b.primitives[node.FirstChild:children] {
					if mask != 0 && !p.Solidity.Blocks(mask) {
						continue
					}
					if !p.Bounds.Overlaps(bounds) {
						continue
					}
					found++
					if !yield(p.ID) {
						return
					}
				}
				continue
			}

			for c := node.FirstChild; c < children; c++ {
				if b.nodes[c].Bounds.Overlaps(bounds) {
					stack = append(stack, c)
				}
			}
		}
	}
}

func (b *BVH) notify(found int) {
	if b.Observer != nil {
		b.Observer(found)
	}
}
