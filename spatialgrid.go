package collide

import (
	"encoding/binary"
	"iter"
	"math"

	"github.com/akmonengine/collide/geom"
	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
)

// SpatialHashGridConfig sizes a SpatialHashGrid.
type SpatialHashGridConfig struct {
	// CellSize is the world size of one cell on each axis.
	CellSize mgl64.Vec3
	// NumCells is the number of hash buckets. Distinct cells may share one.
	NumCells int
	// Capacity bounds entity ids, which must be below it.
	Capacity int
	// FlatZHash hashes every cell as if it were at z = 0, so that all cells of
	// a column share a bucket.
	FlatZHash bool
}

// DefaultSpatialHashGridConfig uses cells 64 units wide, 4096 buckets and
// MaxEntities ids.
func DefaultSpatialHashGridConfig() SpatialHashGridConfig {
	return SpatialHashGridConfig{
		CellSize: mgl64.Vec3{64, 64, 64},
		NumCells: 4096,
		Capacity: MaxEntities,
	}
}

// maxCellCoord bounds cell coordinates, so that huge or infinite bounds still
// map to a wide range instead of overflowing.
const maxCellCoord = 1 << 31

// CellKey is the integer coordinate of a grid cell.
type CellKey struct {
	X, Y, Z int
}

// CellRange is an inclusive range of cells.
type CellRange struct {
	Min, Max CellKey
}

// spansAtLeast reports whether r holds n cells or more.
func (r CellRange) spansAtLeast(n int) bool {
	dx := r.Max.X - r.Min.X + 1
	dy := r.Max.Y - r.Min.Y + 1
	dz := r.Max.Z - r.Min.Z + 1
	if dx >= n || dy >= n || dz >= n {
		return true
	}
	return dx*dy >= n || dx*dy*dz >= n
}

type gridEntity struct {
	cells    CellRange
	solidity geom.Solidity
	linked   bool
}

// SpatialHashGrid is a uniform grid hashed into a fixed number of buckets,
// each holding the bitset of entity ids overlapping one of its cells.
// Traversals report a superset of the entities overlapping the query.
type SpatialHashGrid struct {
	config   SpatialHashGridConfig
	cells    []*bitset.BitSet
	entities []gridEntity
	scratch  *bitset.BitSet
}

func NewSpatialHashGrid(config SpatialHashGridConfig) *SpatialHashGrid {
	cells := make([]*bitset.BitSet, config.NumCells)
	for i := range cells {
		cells[i] = bitset.New(uint(config.Capacity))
	}

	return &SpatialHashGrid{
		config:   config,
		cells:    cells,
		entities: make([]gridEntity, config.Capacity),
		scratch:  bitset.New(uint(config.Capacity)),
	}
}

func (sg *SpatialHashGrid) Config() SpatialHashGridConfig {
	return sg.config
}

// worldToCell converts a world position into cell coordinates, clamped to
// [-maxCellCoord, maxCellCoord]. NaN maps to 0.
func (sg *SpatialHashGrid) worldToCell(pos mgl64.Vec3) CellKey {
	var key [3]int
	for axis := 0; axis < 3; axis++ {
		c := math.Floor(pos[axis] / sg.config.CellSize[axis])
		switch {
		case c >= maxCellCoord:
			key[axis] = maxCellCoord
		case c <= -maxCellCoord:
			key[axis] = -maxCellCoord
		case c == c:
			key[axis] = int(c)
		}
	}
	return CellKey{X: key[0], Y: key[1], Z: key[2]}
}

func (sg *SpatialHashGrid) cellRange(bounds geom.MinMax3) CellRange {
	return CellRange{
		Min: sg.worldToCell(bounds.Mins),
		Max: sg.worldToCell(bounds.Maxs),
	}
}

// hashCell maps a cell to its bucket.
func (sg *SpatialHashGrid) hashCell(key CellKey) int {
	if sg.config.FlatZHash {
		key.Z = 0
	}

	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(int64(key.X)))
	binary.LittleEndian.PutUint64(buf[8:], uint64(int64(key.Y)))
	binary.LittleEndian.PutUint64(buf[16:], uint64(int64(key.Z)))
	return int(xxhash.Sum64(buf[:]) % uint64(len(sg.cells)))
}

// forEachBucket calls fn with the bucket of every cell in r. A range with as
// many cells as the table visits every bucket once instead.
func (sg *SpatialHashGrid) forEachBucket(r CellRange, fn func(bucket int)) {
	if r.spansAtLeast(len(sg.cells)) {
		for i := range sg.cells {
			fn(i)
		}
		return
	}

	for x := r.Min.X; x <= r.Max.X; x++ {
		for y := r.Min.Y; y <= r.Max.Y; y++ {
			for z := r.Min.Z; z <= r.Max.Z; z++ {
				fn(sg.hashCell(CellKey{x, y, z}))
			}
		}
	}
}

// LinkEntity sets ent in every cell its bounds cover, replacing its previous
// cells. An entity whose model does not resolve ends up unlinked.
func (sg *SpatialHashGrid) LinkEntity(s *Storage, ent *EntityState) error {
	if int(ent.ID) >= len(sg.entities) {
		return ErrAtCapacity
	}

	bounds, ok := EntityBounds(s, ent)
	if !ok {
		sg.UnlinkEntity(ent.ID)
		return nil
	}
	return sg.LinkBounds(ent.ID, bounds, EntitySolidity(s, ent))
}

// LinkBounds is LinkEntity with precomputed bounds and solidity.
func (sg *SpatialHashGrid) LinkBounds(id EntityID, bounds geom.MinMax3, solidity geom.Solidity) error {
	if int(id) >= len(sg.entities) {
		return ErrAtCapacity
	}
	sg.UnlinkEntity(id)

	r := sg.cellRange(bounds)
	sg.entities[id] = gridEntity{
		cells:    r,
		solidity: solidity,
		linked:   true,
	}
	sg.forEachBucket(r, func(bucket int) {
		sg.cells[bucket].Set(uint(id))
	})
	return nil
}

// UnlinkEntity clears id from the cells it was linked into. Unlinking an id
// that is not linked does nothing.
func (sg *SpatialHashGrid) UnlinkEntity(id EntityID) {
	if int(id) >= len(sg.entities) || !sg.entities[id].linked {
		return
	}

	sg.forEachBucket(sg.entities[id].cells, func(bucket int) {
		sg.cells[bucket].Clear(uint(id))
	})
	sg.entities[id] = gridEntity{}
}

// Clear empties every cell.
func (sg *SpatialHashGrid) Clear() {
	for _, cell := range sg.cells {
		cell.ClearAll()
	}
	clear(sg.entities)
}

// Traverse yields the candidates whose cells share a bucket with bounds.
// The grid owns the candidate set: do not link, unlink or start another
// traversal of the same grid until iteration ends.
func (sg *SpatialHashGrid) Traverse(bounds geom.MinMax3) iter.Seq[EntityID] {
	return sg.TraverseSolid(bounds, geom.SolidNotSolid)
}

// TraverseSolid is Traverse restricted to entities whose solidity, as of their
// last link, blocks mask. SolidNotSolid as mask reports every candidate.
func (sg *SpatialHashGrid) TraverseSolid(bounds geom.MinMax3, mask geom.Solidity) iter.Seq[EntityID] {
	return func(yield func(EntityID) bool) {
		if bounds.IsEmpty() {
			return
		}

		sg.scratch.ClearAll()
		sg.forEachBucket(sg.cellRange(bounds), func(bucket int) {
			sg.scratch.InPlaceUnion(sg.cells[bucket])
		})

		for id, ok := sg.scratch.NextSet(0); ok; id, ok = sg.scratch.NextSet(id + 1) {
			if mask != geom.SolidNotSolid && !sg.entities[id].solidity.Blocks(mask) {
				continue
			}
			if !yield(EntityID(id)) {
				return
			}
		}
	}
}
