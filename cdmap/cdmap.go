// Package cdmap reads and writes the compiled collision map container: entity
// key/values, submodels and the KD-tree brush geometry they point into.
//
// All values are little-endian. The file starts with Magic, a u32 format
// version and a table of SectionCount {u32 offset, u32 size} entries.
package cdmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/collide/geom"
	"github.com/akmonengine/collide/kdtree"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	Magic         = "cdmap\x00\x00\x00"
	FormatVersion = 1
)

var (
	ErrNotAMap            = errors.New("cdmap: not a map")
	ErrWrongFormatVersion = errors.New("cdmap: wrong format version")
	ErrMalformedSection   = errors.New("cdmap: malformed section")
)

type Section int

const (
	SectionEntities Section = iota
	SectionEntityData
	SectionEntityKeyValues
	SectionModels
	SectionNodes
	SectionBrushes
	SectionBrushIndices
	SectionPlanes

	SectionCount
)

var sectionNames = [SectionCount]string{
	"entities", "entity data", "entity key/values", "models",
	"nodes", "brushes", "brush indices", "planes",
}

func (s Section) String() string {
	if s < 0 || s >= SectionCount {
		return fmt.Sprintf("section(%d)", int(s))
	}
	return sectionNames[s]
}

// recordSize is the on-disk size of one element of each section.
var recordSize = [SectionCount]int{
	SectionEntities:        8,
	SectionEntityData:      1,
	SectionEntityKeyValues: 12,
	SectionModels:          28,
	SectionNodes:           8,
	SectionBrushes:         32,
	SectionBrushIndices:    4,
	SectionPlanes:          16,
}

const headerSize = len(Magic) + 4 + int(SectionCount)*8

// Entity is a run of consecutive key/values.
type Entity struct {
	FirstKeyValue uint32
	NumKeyValues  uint32
}

// KeyValue locates a key immediately followed by its value in EntityData.
type KeyValue struct {
	Offset    uint32
	KeySize   uint32
	ValueSize uint32
}

// Model is a submodel: index 0 is the world, the others are brush entities.
type Model struct {
	Bounds geom.MinMax3
	Root   kdtree.NodeIndex
}

// Map is a decoded container. The geometry is shared by every model.
type Map struct {
	Entities   []Entity
	EntityData []byte
	KeyValues  []KeyValue
	Models     []Model
	Geometry   kdtree.Geometry
}

type sectionEntry struct {
	offset, size uint32
}

func readSections(data []byte) ([SectionCount][]byte, error) {
	var sections [SectionCount][]byte

	if len(data) < headerSize || string(data[:len(Magic)]) != Magic {
		return sections, ErrNotAMap
	}
	if version := binary.LittleEndian.Uint32(data[len(Magic):]); version != FormatVersion {
		return sections, fmt.Errorf("%w: got %d, want %d", ErrWrongFormatVersion, version, FormatVersion)
	}

	table := data[len(Magic)+4:]
	for s := Section(0); s < SectionCount; s++ {
		e := sectionEntry{
			offset: binary.LittleEndian.Uint32(table[s*8:]),
			size:   binary.LittleEndian.Uint32(table[s*8+4:]),
		}

		end := uint64(e.offset) + uint64(e.size)
		switch {
		case end > uint64(len(data)):
			return sections, fmt.Errorf("%w: %v [%d, %d) past end of %d bytes", ErrMalformedSection, s, e.offset, end, len(data))
		case e.offset%4 != 0:
			return sections, fmt.Errorf("%w: %v offset %d is not 4 byte aligned", ErrMalformedSection, s, e.offset)
		case int(e.size)%recordSize[s] != 0:
			return sections, fmt.Errorf("%w: %v size %d is not a multiple of %d", ErrMalformedSection, s, e.size, recordSize[s])
		}

		sections[s] = data[e.offset:end]
	}

	return sections, nil
}

func readFloat(b []byte) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}

func readVec3(b []byte) mgl64.Vec3 {
	return mgl64.Vec3{readFloat(b), readFloat(b[4:]), readFloat(b[8:])}
}

func readMinMax3(b []byte) geom.MinMax3 {
	return geom.MinMax3{Mins: readVec3(b), Maxs: readVec3(b[12:])}
}

// Decode parses data, which must stay untouched while the map is in use since
// EntityData aliases it. Every cross reference is range checked.
func Decode(data []byte) (*Map, error) {
	sections, err := readSections(data)
	if err != nil {
		return nil, err
	}

	m := &Map{EntityData: sections[SectionEntityData]}
	le := binary.LittleEndian

	for b := sections[SectionEntities]; len(b) > 0; b = b[8:] {
		m.Entities = append(m.Entities, Entity{FirstKeyValue: le.Uint32(b), NumKeyValues: le.Uint32(b[4:])})
	}
	for b := sections[SectionEntityKeyValues]; len(b) > 0; b = b[12:] {
		m.KeyValues = append(m.KeyValues, KeyValue{Offset: le.Uint32(b), KeySize: le.Uint32(b[4:]), ValueSize: le.Uint32(b[8:])})
	}
	for b := sections[SectionModels]; len(b) > 0; b = b[28:] {
		m.Models = append(m.Models, Model{Bounds: readMinMax3(b), Root: kdtree.NodeIndex(le.Uint32(b[24:]))})
	}

	g := &m.Geometry
	for b := sections[SectionNodes]; len(b) > 0; b = b[8:] {
		g.Nodes = append(g.Nodes, kdtree.Node{Word0: le.Uint32(b), Word1: le.Uint32(b[4:])})
	}
	for b := sections[SectionBrushes]; len(b) > 0; b = b[32:] {
		g.Brushes = append(g.Brushes, kdtree.Brush{
			Bounds:     readMinMax3(b),
			Solidity:   geom.Solidity(le.Uint32(b[24:])),
			FirstPlane: le.Uint16(b[28:]),
			NumPlanes:  le.Uint16(b[30:]),
		})
	}
	for b := sections[SectionBrushIndices]; len(b) > 0; b = b[4:] {
		g.BrushIndices = append(g.BrushIndices, le.Uint32(b))
	}
	for b := sections[SectionPlanes]; len(b) > 0; b = b[16:] {
		g.Planes = append(g.Planes, kdtree.Plane{Normal: readVec3(b), Distance: readFloat(b[12:])})
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func malformed(s Section, format string, args ...any) error {
	return fmt.Errorf("%w: %v: %s", ErrMalformedSection, s, fmt.Sprintf(format, args...))
}

func (m *Map) validate() error {
	for i, e := range m.Entities {
		if uint64(e.FirstKeyValue)+uint64(e.NumKeyValues) > uint64(len(m.KeyValues)) {
			return malformed(SectionEntities, "entity %d references key/values past %d", i, len(m.KeyValues))
		}
	}
	for i, kv := range m.KeyValues {
		if uint64(kv.Offset)+uint64(kv.KeySize)+uint64(kv.ValueSize) > uint64(len(m.EntityData)) {
			return malformed(SectionEntityKeyValues, "key/value %d runs past %d bytes of data", i, len(m.EntityData))
		}
	}

	g := &m.Geometry
	numNodes := uint64(len(g.Nodes))
	for i, model := range m.Models {
		if uint64(model.Root) >= numNodes {
			return malformed(SectionModels, "model %d root %d out of %d nodes", i, model.Root, numNodes)
		}
	}
	for i, n := range g.Nodes {
		if n.IsLeaf() {
			if uint64(n.FirstBrush())+uint64(n.NumBrushes()) > uint64(len(g.BrushIndices)) {
				return malformed(SectionNodes, "leaf %d references brush indices past %d", i, len(g.BrushIndices))
			}
			continue
		}
		if n.Axis() > 2 {
			return malformed(SectionNodes, "node %d has axis %d", i, n.Axis())
		}
		// children must come later in the array, so every path terminates
		if uint64(i)+1 >= numNodes || uint64(n.BackChild()) >= numNodes || int(n.BackChild()) <= i+1 {
			return malformed(SectionNodes, "node %d has children (%d, %d) out of %d nodes", i, i+1, n.BackChild(), numNodes)
		}
	}
	for i, index := range g.BrushIndices {
		if int(index) >= len(g.Brushes) {
			return malformed(SectionBrushIndices, "entry %d references brush %d of %d", i, index, len(g.Brushes))
		}
	}
	for i, b := range g.Brushes {
		if int(b.FirstPlane)+int(b.NumPlanes) > len(g.Planes) {
			return malformed(SectionBrushes, "brush %d references planes past %d", i, len(g.Planes))
		}
	}
	return nil
}
