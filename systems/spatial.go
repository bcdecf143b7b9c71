// Package systems provides the ECS systems driving the simulation.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/pyre/components"
)

// Neighbor holds a nearby entity with precomputed spatial data.
// This avoids recomputing distance in the heat-transfer hot path.
type Neighbor struct {
	E      ecs.Entity
	Pos    components.Position
	DistSq float32 // Squared distance (avoid sqrt in hot path)
}

// MaxQueryResults caps the number of neighbors returned by spatial queries.
// This prevents density spikes from causing unbounded work.
const MaxQueryResults = 128

// SpatialHash provides O(1) neighbor lookups over an unbounded 3D space
// using a sparse cell hash. Cells exist only while occupied; the hash is
// rebuilt every update from live entity positions.
type SpatialHash struct {
	cellSize float32
	cells    map[int64][]ecs.Entity
	// Retained cell slices, reused across Clear cycles to limit allocation.
	pool [][]ecs.Entity

	// MaxResults caps neighbors per query. Defaults to MaxQueryResults.
	MaxResults int
}

// NewSpatialHash creates a spatial hash with the given cell edge length.
func NewSpatialHash(cellSize float32) *SpatialHash {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &SpatialHash{
		cellSize:   cellSize,
		cells:      make(map[int64][]ecs.Entity, 256),
		MaxResults: MaxQueryResults,
	}
}

// cellKey packs integer cell coordinates into a single map key.
// 21 bits per axis, offset to keep coordinates non-negative.
func cellKey(cx, cy, cz int32) int64 {
	const bias = 1 << 20
	const mask = 1<<21 - 1
	x := int64(cx+bias) & mask
	y := int64(cy+bias) & mask
	z := int64(cz+bias) & mask
	return x | y<<21 | z<<42
}

func (h *SpatialHash) cellCoords(p components.Position) (int32, int32, int32) {
	return int32(floorf(p.X / h.cellSize)),
		int32(floorf(p.Y / h.cellSize)),
		int32(floorf(p.Z / h.cellSize))
}

func floorf(v float32) float32 {
	i := float32(int32(v))
	if v < i {
		return i - 1
	}
	return i
}

// Clear removes all entities but keeps cell slices for reuse.
func (h *SpatialHash) Clear() {
	for k, c := range h.cells {
		h.pool = append(h.pool, c[:0])
		delete(h.cells, k)
	}
}

// Insert adds an entity to the hash at the given position.
func (h *SpatialHash) Insert(e ecs.Entity, p components.Position) {
	cx, cy, cz := h.cellCoords(p)
	key := cellKey(cx, cy, cz)
	cell, ok := h.cells[key]
	if !ok {
		if n := len(h.pool); n > 0 {
			cell = h.pool[n-1]
			h.pool = h.pool[:n-1]
		} else {
			cell = make([]ecs.Entity, 0, 8)
		}
	}
	h.cells[key] = append(cell, e)
}

// Len returns the number of occupied cells.
func (h *SpatialHash) Len() int {
	return len(h.cells)
}

// QueryRadiusInto finds entities within radius of p and appends them to dst
// (up to MaxResults). Returns the updated slice. Reuse dst across calls to
// avoid allocations. Each Neighbor carries the position and squared distance
// so callers never re-fetch them.
func (h *SpatialHash) QueryRadiusInto(dst []Neighbor, p components.Position, radius float32, exclude ecs.Entity, posMap *ecs.Map1[components.Position]) []Neighbor {
	limit := h.MaxResults
	if limit <= 0 {
		limit = MaxQueryResults
	}
	cellRadius := int32(radius/h.cellSize) + 1
	ccx, ccy, ccz := h.cellCoords(p)
	radiusSq := radius * radius

	for dx := -cellRadius; dx <= cellRadius; dx++ {
		for dy := -cellRadius; dy <= cellRadius; dy++ {
			for dz := -cellRadius; dz <= cellRadius; dz++ {
				cell, ok := h.cells[cellKey(ccx+dx, ccy+dy, ccz+dz)]
				if !ok {
					continue
				}
				for _, e := range cell {
					if e == exclude {
						continue
					}

					pos := posMap.Get(e)
					if pos == nil {
						continue
					}

					distSq := p.DistanceSq(*pos)
					if distSq <= radiusSq {
						dst = append(dst, Neighbor{E: e, Pos: *pos, DistSq: distSq})
						if len(dst) >= limit {
							return dst
						}
					}
				}
			}
		}
	}

	return dst
}
