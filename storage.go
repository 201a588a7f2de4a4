package collide

import (
	"encoding/binary"

	"github.com/akmonengine/collide/cdmap"
	"github.com/akmonengine/collide/geom"
	"github.com/akmonengine/collide/kdtree"
	"github.com/akmonengine/collide/log"
	"github.com/cespare/xxhash/v2"
)

// StringHash is the hash used for model names.
func StringHash(name string) uint64 {
	return xxhash.Sum64String(name)
}

// ModelHash names submodel index of the map registered under baseHash.
func ModelHash(baseHash uint64, index int) uint64 {
	var buf [12]byte
	binary.LittleEndian.PutUint64(buf[0:], baseHash)
	binary.LittleEndian.PutUint32(buf[8:], uint32(index))
	return xxhash.Sum64(buf[:])
}

// StaticModel is a KD-tree model: a map submodel or a GLTF collision mesh.
// Bounds and the geometry are in model space.
type StaticModel struct {
	Geometry *kdtree.Geometry
	Root     kdtree.NodeIndex
	Bounds   geom.MinMax3
	Solidity geom.Solidity
}

// GLTFCollision is the collision part of a decoded GLTF asset.
type GLTFCollision struct {
	Geometry *kdtree.Geometry
	Root     kdtree.NodeIndex
	Bounds   geom.MinMax3
}

// Storage owns the static collision data entities refer to by hash.
type Storage struct {
	mapModels  map[uint64]StaticModel
	mapsByBase map[uint64][]uint64
	gltfModels map[uint64]StaticModel

	logger log.Logger
}

func NewStorage() *Storage {
	return &Storage{
		mapModels:  make(map[uint64]StaticModel),
		mapsByBase: make(map[uint64][]uint64),
		gltfModels: make(map[uint64]StaticModel),
		logger:     log.New("storage"),
	}
}

// LoadMapCollisionData registers every submodel of m under
// ModelHash(baseHash, i), replacing a map previously loaded with that hash.
func (s *Storage) LoadMapCollisionData(m *cdmap.Map, baseHash uint64) {
	s.DeleteMap(baseHash)

	g := &m.Geometry

	hashes := make([]uint64, len(m.Models))
	for i, model := range m.Models {
		hashes[i] = ModelHash(baseHash, i)
		s.mapModels[hashes[i]] = StaticModel{
			Geometry: g,
			Root:     model.Root,
			Bounds:   model.Bounds,
			Solidity: g.Solidity(model.Root),
		}
	}
	s.mapsByBase[baseHash] = hashes

	s.logger.Infof("loaded map %016x: %d models, %d nodes, %d brushes", baseHash, len(m.Models), len(g.Nodes), len(g.Brushes))
}

// LoadGLTFCollisionData registers a GLTF collision mesh under StringHash(name).
// path is only reported in logs.
func (s *Storage) LoadGLTFCollisionData(data GLTFCollision, path, name string) {
	if data.Geometry == nil || len(data.Geometry.Nodes) == 0 {
		s.logger.Warningf("gltf %q (%s) has no collision geometry", name, path)
		return
	}

	s.gltfModels[StringHash(name)] = StaticModel{
		Geometry: data.Geometry,
		Root:     data.Root,
		Bounds:   data.Bounds,
		Solidity: data.Geometry.Solidity(data.Root),
	}
	s.logger.Infof("loaded gltf collision %q from %s: %d brushes", name, path, len(data.Geometry.Brushes))
}

// DeleteMap drops every submodel registered under baseHash.
func (s *Storage) DeleteMap(baseHash uint64) {
	for _, hash := range s.mapsByBase[baseHash] {
		delete(s.mapModels, hash)
	}
	delete(s.mapsByBase, baseHash)
}

// Clear drops all static data.
func (s *Storage) Clear() {
	clear(s.mapModels)
	clear(s.mapsByBase)
	clear(s.gltfModels)
}

func (s *Storage) MapModel(hash uint64) (StaticModel, bool) {
	m, ok := s.mapModels[hash]
	return m, ok
}

func (s *Storage) GLTFModel(hash uint64) (StaticModel, bool) {
	m, ok := s.gltfModels[hash]
	return m, ok
}
