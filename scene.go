package collide

import (
	"iter"
	"slices"

	"github.com/akmonengine/collide/geom"
	"github.com/akmonengine/collide/log"
)

const DEFAULT_WORKERS = 1

// BroadPhase is an index of linked entities. *BVH and *SpatialHashGrid
// implement it.
type BroadPhase interface {
	LinkEntity(s *Storage, ent *EntityState) error
	LinkBounds(id EntityID, bounds geom.MinMax3, solidity geom.Solidity) error
	UnlinkEntity(id EntityID)
	Traverse(bounds geom.MinMax3) iter.Seq[EntityID]
	TraverseSolid(bounds geom.MinMax3, mask geom.Solidity) iter.Seq[EntityID]
	Clear()
}

// batchLinker is implemented by indexes that link many entities cheaper than
// one at a time.
type batchLinker interface {
	LinkPrimitives(links []Primitive, unlinks []EntityID) error
}

type sceneEntity struct {
	state    *EntityState
	bounds   geom.MinMax3
	solidity geom.Solidity
	ok       bool
}

// Scene holds the entities of one simulation tick, keeps them linked into a
// broad phase and answers traces and overlaps against all of them.
type Scene struct {
	Storage *Storage
	Index   BroadPhase
	// Workers bounds the goroutines used by Update.
	Workers int

	Events Events

	entities map[EntityID]*sceneEntity
	logger   log.Logger
}

func NewScene(storage *Storage, index BroadPhase) *Scene {
	return &Scene{
		Storage:  storage,
		Index:    index,
		Workers:  DEFAULT_WORKERS,
		Events:   NewEvents(),
		entities: make(map[EntityID]*sceneEntity),
		logger:   log.New("scene"),
	}
}

// Update replaces the scene content with ents: entities missing from ents are
// unlinked, the others are relinked at their new state. Trigger touches are
// then detected and dispatched to the Events listeners.
func (sc *Scene) Update(ents []*EntityState) error {
	sc.Workers = max(DEFAULT_WORKERS, sc.Workers)

	present := make(map[EntityID]bool, len(ents))
	for _, ent := range ents {
		present[ent.ID] = true
	}
	var gone []EntityID
	for id := range sc.entities {
		if !present[id] {
			gone = append(gone, id)
		}
	}

	prepared := make([]*sceneEntity, len(ents))
	for i, ent := range ents {
		prepared[i] = &sceneEntity{state: ent}
	}
	task(sc.Workers, prepared, func(e *sceneEntity) {
		e.bounds, e.ok = EntityBounds(sc.Storage, e.state)
		e.solidity = EntitySolidity(sc.Storage, e.state)
	})

	for _, e := range prepared {
		if !e.ok {
			gone = append(gone, e.state.ID)
		}
	}

	if err := sc.link(prepared, gone); err != nil {
		return err
	}

	for _, id := range gone {
		sc.Events.forget(id)
		delete(sc.entities, id)
	}

	triggers := make([]*sceneEntity, 0)
	for _, e := range prepared {
		if !e.ok {
			continue
		}
		sc.entities[e.state.ID] = e
		if e.solidity.Blocks(geom.SolidTrigger) {
			triggers = append(triggers, e)
		}
	}

	candidates := touchBroadPhase(sc.Index, triggers, sc.entities)
	sc.Events.recordTouches(touchNarrowPhase(sc.Storage, candidates, sc.entities, sc.Workers))
	sc.Events.flush()

	return nil
}

// link hands the prepared bounds to the index and unlinks gone.
func (sc *Scene) link(prepared []*sceneEntity, gone []EntityID) error {
	if batch, ok := sc.Index.(batchLinker); ok {
		links := make([]Primitive, 0, len(prepared))
		for _, e := range prepared {
			if e.ok {
				links = append(links, Primitive{ID: e.state.ID, Bounds: e.bounds, Solidity: e.solidity})
			}
		}
		return batch.LinkPrimitives(links, gone)
	}

	for _, id := range gone {
		sc.Index.UnlinkEntity(id)
	}
	for _, e := range prepared {
		if !e.ok {
			continue
		}
		if err := sc.Index.LinkBounds(e.state.ID, e.bounds, e.solidity); err != nil {
			sc.logger.Errorf("could not link entity %d: %v", e.state.ID, err)
			return err
		}
	}
	return nil
}

// Len is the number of entities with collision in the scene.
func (sc *Scene) Len() int {
	return len(sc.entities)
}

// Entity returns the state id was last updated with.
func (sc *Scene) Entity(id EntityID) (*EntityState, bool) {
	e, ok := sc.entities[id]
	if !ok {
		return nil, false
	}
	return e.state, true
}

// Trace sweeps shape along ray against every entity blocking mask, skipping
// the ignored ones, and returns the closest hit.
func (sc *Scene) Trace(ray geom.Ray, shape geom.Shape, mask geom.Solidity, ignore ...EntityID) Trace {
	best := MakeMissedTrace(ray)
	swept := geom.MinkowskiSum(ray.Bounds(), shape)

	for id := range sc.Index.TraverseSolid(swept, mask) {
		if slices.Contains(ignore, id) {
			continue
		}
		e, ok := sc.entities[id]
		if !ok {
			continue
		}

		if tr := TraceVsEnt(sc.Storage, ray, shape, e.state, mask); tr.Closer(best) {
			best = tr
		}
	}

	return best
}

// Overlapping lists the entities touching id whose geometry blocks mask.
func (sc *Scene) Overlapping(id EntityID, mask geom.Solidity) []EntityID {
	e, ok := sc.entities[id]
	if !ok {
		return nil
	}

	var found []EntityID
	for other := range sc.Index.TraverseSolid(e.bounds, mask) {
		if other == id {
			continue
		}
		o, ok := sc.entities[other]
		if !ok {
			continue
		}
		if EntityOverlap(sc.Storage, e.state, o.state, mask) {
			found = append(found, other)
		}
	}
	return found
}

// Clear unlinks every entity and forgets ongoing touches.
func (sc *Scene) Clear() {
	sc.Index.Clear()
	sc.Events.reset()
	clear(sc.entities)
}
