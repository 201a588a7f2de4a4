package cdmap

import (
	"encoding/binary"
	"math"

	"github.com/akmonengine/collide/geom"
	"github.com/akmonengine/collide/kdtree"
)

// AddEntity appends an entity made of the given key/value pairs, stored in the
// order given. kvs alternates keys and values.
func (m *Map) AddEntity(kvs ...string) int {
	e := Entity{FirstKeyValue: uint32(len(m.KeyValues))}
	for i := 0; i+1 < len(kvs); i += 2 {
		key, value := kvs[i], kvs[i+1]
		m.KeyValues = append(m.KeyValues, KeyValue{
			Offset:    uint32(len(m.EntityData)),
			KeySize:   uint32(len(key)),
			ValueSize: uint32(len(value)),
		})
		m.EntityData = append(m.EntityData, key...)
		m.EntityData = append(m.EntityData, value...)
		e.NumKeyValues++
	}
	m.Entities = append(m.Entities, e)
	return len(m.Entities) - 1
}

type writer struct {
	buf []byte
}

func (w *writer) u16(v uint16)  { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *writer) u32(v uint32)  { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *writer) f32(v float64) { w.u32(math.Float32bits(float32(v))) }

func (w *writer) minMax3(b geom.MinMax3) {
	for _, v := range [...]float64{b.Mins[0], b.Mins[1], b.Mins[2], b.Maxs[0], b.Maxs[1], b.Maxs[2]} {
		w.f32(v)
	}
}

func (w *writer) align() {
	for len(w.buf)%4 != 0 {
		w.buf = append(w.buf, 0)
	}
}

// Encode serializes m. Vectors and distances are narrowed to float32.
func Encode(m *Map) []byte {
	w := &writer{buf: make([]byte, headerSize)}
	copy(w.buf, Magic)
	binary.LittleEndian.PutUint32(w.buf[len(Magic):], FormatVersion)

	g := &m.Geometry
	bodies := [SectionCount]func(){
		SectionEntities: func() {
			for _, e := range m.Entities {
				w.u32(e.FirstKeyValue)
				w.u32(e.NumKeyValues)
			}
		},
		SectionEntityData: func() {
			w.buf = append(w.buf, m.EntityData...)
		},
		SectionEntityKeyValues: func() {
			for _, kv := range m.KeyValues {
				w.u32(kv.Offset)
				w.u32(kv.KeySize)
				w.u32(kv.ValueSize)
			}
		},
		SectionModels: func() {
			for _, model := range m.Models {
				w.minMax3(model.Bounds)
				w.u32(uint32(model.Root))
			}
		},
		SectionNodes: func() {
			for _, n := range g.Nodes {
				w.u32(n.Word0)
				w.u32(n.Word1)
			}
		},
		SectionBrushes: func() {
			for _, b := range g.Brushes {
				w.minMax3(b.Bounds)
				w.u32(uint32(b.Solidity))
				w.u16(b.FirstPlane)
				w.u16(b.NumPlanes)
			}
		},
		SectionBrushIndices: func() {
			for _, index := range g.BrushIndices {
				w.u32(index)
			}
		},
		SectionPlanes: func() {
			for _, p := range g.Planes {
				w.f32(p.Normal[0])
				w.f32(p.Normal[1])
				w.f32(p.Normal[2])
				w.f32(p.Distance)
			}
		},
	}

	table := len(Magic) + 4
	for s, body := range bodies {
		w.align()
		start := len(w.buf)
		body()
		binary.LittleEndian.PutUint32(w.buf[table+s*8:], uint32(start))
		binary.LittleEndian.PutUint32(w.buf[table+s*8+4:], uint32(len(w.buf)-start))
	}

	return w.buf
}

// FromGeometry wraps hand-built geometry as a single-model map whose world
// entity carries classname "worldspawn".
func FromGeometry(g *kdtree.Geometry, root kdtree.NodeIndex, bounds geom.MinMax3) *Map {
	m := &Map{
		Models:   []Model{{Bounds: bounds, Root: root}},
		Geometry: *g,
	}
	m.AddEntity("classname", "worldspawn")
	return m
}
