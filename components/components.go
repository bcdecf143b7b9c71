// Package components defines ECS components for the engine.
package components

// Position is an entity's world-space position in meters.
type Position struct {
	X, Y, Z float32
}

// DistanceSq returns the squared distance to another position.
func (p Position) DistanceSq(o Position) float32 {
	dx := o.X - p.X
	dy := o.Y - p.Y
	dz := o.Z - p.Z
	return dx*dx + dy*dy + dz*dz
}

// Health is a simple hit-point pool for entities that can take thermal damage.
type Health struct {
	Current float32
	Max     float32
}
