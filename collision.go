package collide

import (
	"github.com/akmonengine/collide/geom"
)

// touchCandidate is a pair reported by the broad phase, waiting for the exact
// overlap test.
type touchCandidate struct {
	pair     pairKey
	touching bool
}

// touchBroadPhase lists the entities whose broad-phase bounds meet a trigger.
// Index traversals are not reentrant, so this runs on the calling goroutine.
func touchBroadPhase(index BroadPhase, triggers []*sceneEntity, linked map[EntityID]*sceneEntity) []*touchCandidate {
	candidates := make([]*touchCandidate, 0, len(triggers)*4)

	for _, trigger := range triggers {
		for id := range index.Traverse(trigger.bounds) {
			if id == trigger.state.ID {
				continue
			}
			if _, ok := linked[id]; !ok {
				continue
			}
			candidates = append(candidates, &touchCandidate{
				pair: pairKey{trigger: trigger.state.ID, other: id},
			})
		}
	}

	return candidates
}

// touchNarrowPhase runs the exact overlap of every candidate across workers
// and keeps the pairs that touch.
func touchNarrowPhase(storage *Storage, candidates []*touchCandidate, linked map[EntityID]*sceneEntity, workersCount int) []pairKey {
	task(workersCount, candidates, func(c *touchCandidate) {
		other, trigger := linked[c.pair.other], linked[c.pair.trigger]
		c.touching = EntityOverlap(storage, other.state, trigger.state, geom.SolidTrigger)
	})

	pairs := make([]pairKey, 0, len(candidates))
	for _, c := range candidates {
		if c.touching {
			pairs = append(pairs, c.pair)
		}
	}
	return pairs
}
