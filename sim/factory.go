package sim

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/pyre/components"
	"github.com/pthm-cable/pyre/config"
)

// MaterialSpec bundles the thermal and chemical presets for a named material.
type MaterialSpec struct {
	Thermal       func(massKg float32) components.Thermal
	Chemistry     func() components.ChemicalComposition
	DefaultMassKg float32
}

// materialPresets maps scenario material names to their presets.
var materialPresets = map[string]MaterialSpec{
	"wood": {
		Thermal:       components.WoodThermal,
		Chemistry:     components.WoodComposition,
		DefaultMassKg: 20,
	},
	"steel": {
		Thermal:       components.SteelThermal,
		Chemistry:     components.SteelComposition,
		DefaultMassKg: 100,
	},
	"concrete": {
		Thermal:       components.ConcreteThermal,
		Chemistry:     components.ConcreteComposition,
		DefaultMassKg: 500,
	},
	"gasoline": {
		Thermal:       components.GasolineThermal,
		Chemistry:     components.GasolineComposition,
		DefaultMassKg: 10,
	},
	"aluminum": {
		Thermal:       components.AluminumThermal,
		Chemistry:     components.AluminumComposition,
		DefaultMassKg: 30,
	},
}

// MaterialNames returns the known preset names.
func MaterialNames() []string {
	names := make([]string, 0, len(materialPresets))
	for name := range materialPresets {
		names = append(names, name)
	}
	return names
}

// SpawnMaterial creates an entity of a named material at the given position.
// A massKg of 0 uses the material's default mass.
func (s *Simulation) SpawnMaterial(name string, massKg float32, pos components.Position) (ecs.Entity, error) {
	spec, ok := materialPresets[name]
	if !ok {
		return ecs.Entity{}, fmt.Errorf("unknown material %q", name)
	}
	if massKg <= 0 {
		massKg = spec.DefaultMassKg
	}

	th := spec.Thermal(massKg)
	chem := spec.Chemistry()
	return s.mapper.NewEntity(&pos, &th, &chem), nil
}

// SpawnScenario populates the world from the scenario config: the configured
// count of each material scattered uniformly inside the extent, then the
// initial fires lit on randomly chosen combustibles.
func (s *Simulation) SpawnScenario(sc config.ScenarioConfig, extentM float64) error {
	extent := float32(extentM)
	if extent <= 0 {
		extent = 50
	}

	var combustibles []ecs.Entity

	for name, count := range sc.Materials {
		spec, ok := materialPresets[name]
		if !ok {
			return fmt.Errorf("unknown material %q in scenario", name)
		}
		for i := 0; i < count; i++ {
			pos := components.Position{
				X: (s.rng.Float32() - 0.5) * extent,
				Y: (s.rng.Float32() - 0.5) * extent,
				Z: (s.rng.Float32() - 0.5) * extent,
			}
			e, err := s.SpawnMaterial(name, spec.DefaultMassKg, pos)
			if err != nil {
				return err
			}
			if spec.Chemistry().Combustible {
				combustibles = append(combustibles, e)
			}
		}
	}

	for i := 0; i < sc.InitialFires && len(combustibles) > 0; i++ {
		idx := s.rng.Intn(len(combustibles))
		e := combustibles[idx]
		combustibles = append(combustibles[:idx], combustibles[idx+1:]...)
		if err := s.combustion.Ignite(e, 0); err != nil {
			return fmt.Errorf("igniting initial fire: %w", err)
		}
	}

	return nil
}
