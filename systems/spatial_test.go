package systems

import (
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/pyre/components"
)

func spatialWorld(t *testing.T, positions []components.Position) (*ecs.World, []ecs.Entity, *ecs.Map1[components.Position]) {
	t.Helper()
	world := ecs.NewWorld()
	posMap := ecs.NewMap1[components.Position](world)

	entities := make([]ecs.Entity, len(positions))
	for i, p := range positions {
		pos := p
		entities[i] = posMap.NewEntity(&pos)
	}
	return world, entities, posMap
}

func TestQueryRadius(t *testing.T) {
	_, entities, posMap := spatialWorld(t, []components.Position{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 3, Z: 0},
		{X: 20, Y: 20, Z: 20},
	})

	grid := NewSpatialHash(2)
	for i, e := range entities {
		grid.Insert(e, *posMap.Get(entities[i]))
		_ = e
	}

	// Query around origin with radius 5 excludes the far entity
	got := grid.QueryRadiusInto(nil, components.Position{}, 5, entities[0], posMap)
	if len(got) != 2 {
		t.Fatalf("got %d neighbors, want 2", len(got))
	}
	for _, n := range got {
		if n.E == entities[0] {
			t.Error("query origin entity was not excluded")
		}
		if n.E == entities[3] {
			t.Error("entity outside radius was returned")
		}
		if n.DistSq <= 0 || n.DistSq > 25 {
			t.Errorf("neighbor DistSq = %v, want within (0, 25]", n.DistSq)
		}
	}
}

func TestQueryRadiusNegativeCoordinates(t *testing.T) {
	_, entities, posMap := spatialWorld(t, []components.Position{
		{X: -10, Y: -10, Z: -10},
		{X: -10.5, Y: -10, Z: -10},
	})

	grid := NewSpatialHash(2)
	grid.Insert(entities[0], *posMap.Get(entities[0]))
	grid.Insert(entities[1], *posMap.Get(entities[1]))

	got := grid.QueryRadiusInto(nil, *posMap.Get(entities[0]), 1, entities[0], posMap)
	if len(got) != 1 || got[0].E != entities[1] {
		t.Errorf("negative-coordinate neighbor not found: %v", got)
	}
}

func TestQueryRadiusCap(t *testing.T) {
	positions := make([]components.Position, MaxQueryResults*2)
	for i := range positions {
		positions[i] = components.Position{X: float32(i) * 0.01}
	}
	_, entities, posMap := spatialWorld(t, positions)

	grid := NewSpatialHash(2)
	for i, e := range entities {
		grid.Insert(e, positions[i])
	}

	got := grid.QueryRadiusInto(nil, components.Position{}, 10, ecs.Entity{}, posMap)
	if len(got) != MaxQueryResults {
		t.Errorf("got %d neighbors, want capped at %d", len(got), MaxQueryResults)
	}
}

func TestClearReusesCells(t *testing.T) {
	_, entities, posMap := spatialWorld(t, []components.Position{
		{X: 0}, {X: 1},
	})

	grid := NewSpatialHash(2)
	grid.Insert(entities[0], *posMap.Get(entities[0]))
	grid.Insert(entities[1], *posMap.Get(entities[1]))
	if grid.Len() == 0 {
		t.Fatal("grid empty after inserts")
	}

	grid.Clear()
	if grid.Len() != 0 {
		t.Errorf("grid has %d cells after Clear", grid.Len())
	}

	got := grid.QueryRadiusInto(nil, components.Position{}, 10, ecs.Entity{}, posMap)
	if len(got) != 0 {
		t.Errorf("cleared grid returned %d neighbors", len(got))
	}

	// Reinsert works after Clear
	grid.Insert(entities[0], *posMap.Get(entities[0]))
	got = grid.QueryRadiusInto(nil, components.Position{X: 0.5}, 1, ecs.Entity{}, posMap)
	if len(got) != 1 {
		t.Errorf("got %d neighbors after reinsert, want 1", len(got))
	}
}

func TestCellKeyDistinct(t *testing.T) {
	keys := map[int64]bool{}
	coords := []struct{ x, y, z int32 }{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1},
		{-1, 0, 0}, {0, -1, 0}, {0, 0, -1}, {100, -100, 50},
	}
	for _, c := range coords {
		k := cellKey(c.x, c.y, c.z)
		if keys[k] {
			t.Errorf("duplicate key for cell (%d,%d,%d)", c.x, c.y, c.z)
		}
		keys[k] = true
	}
}
