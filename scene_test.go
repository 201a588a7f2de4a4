package collide

import (
	"slices"
	"testing"

	"github.com/akmonengine/collide/geom"
	"github.com/go-gl/mathgl/mgl64"
)

var broadPhases = []struct {
	name string
	new  func() BroadPhase
}{
	{"bvh", func() BroadPhase { return NewBVH(MaxEntities) }},
	{"grid", func() BroadPhase { return NewSpatialHashGrid(DefaultSpatialHashGridConfig()) }},
	{"small grid", func() BroadPhase {
		config := testGridConfig()
		config.NumCells = 8
		return NewSpatialHashGrid(config)
	}},
}

// recordingIndex counts how Update hands entities to the index.
type recordingIndex struct {
	BroadPhase
	entityCalls int
	bounds      map[EntityID]geom.MinMax3
}

func (r *recordingIndex) LinkEntity(s *Storage, ent *EntityState) error {
	r.entityCalls++
	return r.BroadPhase.LinkEntity(s, ent)
}

func (r *recordingIndex) LinkBounds(id EntityID, bounds geom.MinMax3, solidity geom.Solidity) error {
	r.bounds[id] = bounds
	return r.BroadPhase.LinkBounds(id, bounds, solidity)
}

// testEntities are the world, a player sphere in front of the wall and a
// crate past the ladder.
func testEntities() []*EntityState {
	return []*EntityState{
		{ID: 0, Model: ModelHash(testMapHash, 0)},
		withModel(EntityState{ID: 1, Origin: mgl64.Vec3{-3, 0.5, 0.5}, Solidity: geom.SolidPlayer}, CollisionModelSphere(0.4)),
		withModel(EntityState{ID: 2, Origin: mgl64.Vec3{6, 0.5, 0.5}, Solidity: geom.SolidSolid}, CollisionModelAABB(box(-0.5, -0.5, -0.5, 0.5, 0.5, 0.5))),
	}
}

func TestScene_Trace(t *testing.T) {
	ray := geom.MakeRay(mgl64.Vec3{-5, 0.5, 0.5}, mgl64.Vec3{1, 0, 0}, 15)

	tests := []struct {
		name     string
		mask     geom.Solidity
		ignore   []EntityID
		hit      bool
		entity   EntityID
		fraction float64
	}{
		{"solid hits the wall", geom.SolidSolid, nil, true, 0, 5.0 / 15},
		{"shots hit the player", geom.SolidShot, nil, true, 1, 1.6 / 15},
		{"ignoring the player", geom.SolidShot, []EntityID{1}, true, 0, 5.0 / 15},
		{"ignoring the world", geom.SolidSolid, []EntityID{0}, true, 2, 10.5 / 15},
		{"ladders", geom.SolidLadder, nil, true, 0, 8.0 / 15},
		{"nothing blocks triggers", geom.SolidTrigger, nil, false, 0, 1},
	}

	for _, bp := range broadPhases {
		scene := NewScene(testStorage(), bp.new())
		if err := scene.Update(testEntities()); err != nil {
			t.Fatalf("%s: Update: %v", bp.name, err)
		}

		for _, tt := range tests {
			t.Run(bp.name+"/"+tt.name, func(t *testing.T) {
				tr := scene.Trace(ray, geom.PointShape(), tt.mask, tt.ignore...)
				if tr.HitSomething != tt.hit {
					t.Fatalf("HitSomething = %v, want %v", tr.HitSomething, tt.hit)
				}
				if tt.hit && tr.EntityID != tt.entity {
					t.Errorf("EntityID = %d, want %d", tr.EntityID, tt.entity)
				}
				if !mgl64.FloatEqualThreshold(tr.Fraction, tt.fraction, epsilon) {
					t.Errorf("Fraction = %v, want %v", tr.Fraction, tt.fraction)
				}
			})
		}
	}
}

func TestScene_TraceVeryLongRay(t *testing.T) {
	for _, bp := range broadPhases {
		t.Run(bp.name, func(t *testing.T) {
			scene := NewScene(testStorage(), bp.new())
			if err := scene.Update(testEntities()[1:]); err != nil {
				t.Fatal(err)
			}

			ray := geom.MakeRay(mgl64.Vec3{-5, 0.5, 0.5}, mgl64.Vec3{1, 0, 0}, 2e22)
			tr := scene.Trace(ray, geom.PointShape(), geom.SolidShot)
			if !tr.HitSomething || tr.EntityID != 1 {
				t.Errorf("trace = %+v, want a hit on the player", tr)
			}
		})
	}
}

func TestScene_UpdateRemovesAndMoves(t *testing.T) {
	ray := geom.MakeRay(mgl64.Vec3{-5, 0.5, 0.5}, mgl64.Vec3{1, 0, 0}, 15)

	for _, bp := range broadPhases {
		t.Run(bp.name, func(t *testing.T) {
			scene := NewScene(testStorage(), bp.new())
			scene.Workers = 4

			ents := testEntities()
			if err := scene.Update(ents); err != nil {
				t.Fatal(err)
			}
			if scene.Len() != 3 {
				t.Fatalf("Len = %d, want 3", scene.Len())
			}

			// crate moves closer, world leaves
			ents[2].Origin = mgl64.Vec3{-1, 0.5, 0.5}
			if err := scene.Update(ents[1:]); err != nil {
				t.Fatal(err)
			}
			if scene.Len() != 2 {
				t.Fatalf("Len = %d, want 2", scene.Len())
			}
			if _, ok := scene.Entity(0); ok {
				t.Error("world still in the scene")
			}

			tr := scene.Trace(ray, geom.PointShape(), geom.SolidSolid)
			if !tr.HitSomething || tr.EntityID != 2 {
				t.Fatalf("trace = %+v, want a hit on the crate", tr)
			}
			if !mgl64.FloatEqualThreshold(tr.Fraction, 3.5/15, epsilon) {
				t.Errorf("Fraction = %v, want %v", tr.Fraction, 3.5/15)
			}

			// an entity whose model disappears leaves the index
			ents[2].OverrideCollisionModel = nil
			ents[2].Model = StringHash("missing")
			if err := scene.Update(ents[1:]); err != nil {
				t.Fatal(err)
			}
			if scene.Len() != 1 {
				t.Errorf("Len = %d, want 1", scene.Len())
			}
			if tr := scene.Trace(ray, geom.PointShape(), geom.SolidSolid); tr.HitSomething {
				t.Errorf("trace hit %d after its model went missing", tr.EntityID)
			}

			scene.Clear()
			if scene.Len() != 0 {
				t.Errorf("Len after Clear = %d", scene.Len())
			}
		})
	}
}

func TestScene_UpdateLinksPreparedBounds(t *testing.T) {
	for _, bp := range broadPhases {
		t.Run(bp.name, func(t *testing.T) {
			index := &recordingIndex{BroadPhase: bp.new(), bounds: make(map[EntityID]geom.MinMax3)}
			storage := testStorage()
			scene := NewScene(storage, index)
			scene.Workers = 4

			ents := testEntities()
			if err := scene.Update(ents); err != nil {
				t.Fatal(err)
			}

			if index.entityCalls != 0 {
				t.Errorf("LinkEntity called %d times, want the prepared bounds only", index.entityCalls)
			}
			for _, ent := range ents {
				want, _ := EntityBounds(storage, ent)
				if got, ok := index.bounds[ent.ID]; !ok || got != want {
					t.Errorf("entity %d linked with %v (%v), want %v", ent.ID, got, ok, want)
				}
			}

			tr := scene.Trace(geom.MakeRay(mgl64.Vec3{-5, 0.5, 0.5}, mgl64.Vec3{1, 0, 0}, 15), geom.PointShape(), geom.SolidSolid)
			if !tr.HitSomething || tr.EntityID != 0 {
				t.Errorf("trace = %+v, want a hit on the world", tr)
			}
		})
	}
}

func TestScene_Overlapping(t *testing.T) {
	for _, bp := range broadPhases {
		t.Run(bp.name, func(t *testing.T) {
			scene := NewScene(testStorage(), bp.new())

			ents := append(testEntities(),
				withModel(EntityState{ID: 3, Origin: mgl64.Vec3{6, 0.5, 1.2}, Solidity: geom.SolidSolid}, CollisionModelSphere(0.3)),
				withModel(EntityState{ID: 4, Origin: mgl64.Vec3{6.9, 0.5, 0.5}, Solidity: geom.SolidTrigger}, CollisionModelSphere(0.5)),
				withModel(EntityState{ID: 5, Origin: mgl64.Vec3{0.5, 0.5, 1.3}, Solidity: geom.SolidPlayer}, CollisionModelSphere(0.4)),
			)
			if err := scene.Update(ents); err != nil {
				t.Fatal(err)
			}

			tests := []struct {
				name string
				id   EntityID
				mask geom.Solidity
				want []EntityID
			}{
				{"crate solid", 2, geom.SolidSolid, []EntityID{3}},
				{"crate everything", 2, geom.SolidEverything, []EntityID{3, 4}},
				{"player on the wall", 5, geom.SolidSolid, []EntityID{0}},
				{"player on the wall, ladders only", 5, geom.SolidLadder, nil},
				{"unknown entity", 42, geom.SolidEverything, nil},
			}

			for _, tt := range tests {
				got := scene.Overlapping(tt.id, tt.mask)
				slices.Sort(got)
				if !slices.Equal(got, tt.want) {
					t.Errorf("%s: Overlapping = %v, want %v", tt.name, got, tt.want)
				}
			}
		})
	}
}

func TestScene_TriggerEvents(t *testing.T) {
	for _, bp := range broadPhases {
		t.Run(bp.name, func(t *testing.T) {
			scene := NewScene(testStorage(), bp.new())
			captureEnter := &eventCapture{}
			captureStay := &eventCapture{}
			captureExit := &eventCapture{}
			scene.Events.Subscribe(TRIGGER_ENTER, captureEnter.capture)
			scene.Events.Subscribe(TRIGGER_STAY, captureStay.capture)
			scene.Events.Subscribe(TRIGGER_EXIT, captureExit.capture)

			trigger := withModel(EntityState{ID: 7, Origin: mgl64.Vec3{20, 0, 0}, Solidity: geom.SolidTrigger}, CollisionModelAABB(box(-1, -1, -1, 1, 1, 1)))
			player := withModel(EntityState{ID: 1, Origin: mgl64.Vec3{15, 0, 0}, Solidity: geom.SolidPlayer}, CollisionModelSphere(0.5))
			ents := []*EntityState{trigger, player}

			step := func(x float64) {
				captureEnter.reset()
				captureStay.reset()
				captureExit.reset()
				player.Origin = mgl64.Vec3{x, 0, 0}
				if err := scene.Update(ents); err != nil {
					t.Fatal(err)
				}
			}

			step(15)
			if captureEnter.count()+captureStay.count()+captureExit.count() != 0 {
				t.Fatalf("tick 1: unexpected events")
			}

			step(19)
			if captureEnter.count() != 1 {
				t.Fatalf("tick 2: expected 1 enter, got %d", captureEnter.count())
			}
			enter := captureEnter.events[0].(TriggerEnterEvent)
			if enter.Trigger != 7 || enter.Other != 1 {
				t.Errorf("enter = %+v", enter)
			}

			step(20)
			if captureStay.count() != 1 || captureEnter.count() != 0 {
				t.Errorf("tick 3: expected 1 stay, got %d stay %d enter", captureStay.count(), captureEnter.count())
			}

			step(25)
			if captureExit.count() != 1 {
				t.Errorf("tick 4: expected 1 exit, got %d", captureExit.count())
			}

			// removing the toucher ends the touch
			step(20)
			captureExit.reset()
			if err := scene.Update([]*EntityState{trigger}); err != nil {
				t.Fatal(err)
			}
			if captureExit.count() != 1 {
				t.Errorf("removal: expected 1 exit, got %d", captureExit.count())
			}
		})
	}
}
