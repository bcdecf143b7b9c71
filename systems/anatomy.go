package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/pyre/components"
)

// DamageSink receives thermal damage events. The thermal system computes
// damage magnitudes but never decides what damage means for an entity; that
// belongs to whatever owns entity health.
type DamageSink interface {
	ApplyThermalDamage(e ecs.Entity, magnitude float32)
}

// NopDamageSink discards damage events. Used when no health model is wired.
type NopDamageSink struct{}

func (NopDamageSink) ApplyThermalDamage(ecs.Entity, float32) {}

// HealthDamageSink routes thermal damage into Health components. Entities
// without a Health component absorb damage silently.
type HealthDamageSink struct {
	healthMap *ecs.Map1[components.Health]
}

// NewHealthDamageSink creates a sink over the given world's Health components.
func NewHealthDamageSink(world *ecs.World) *HealthDamageSink {
	return &HealthDamageSink{healthMap: ecs.NewMap1[components.Health](world)}
}

// ApplyThermalDamage subtracts the magnitude from the entity's health,
// flooring at zero.
func (s *HealthDamageSink) ApplyThermalDamage(e ecs.Entity, magnitude float32) {
	h := s.healthMap.Get(e)
	if h == nil {
		return
	}
	h.Current -= magnitude
	if h.Current < 0 {
		h.Current = 0
	}
}
