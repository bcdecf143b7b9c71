package systems

import (
	"log/slog"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/pyre/components"
)

// StefanBoltzmann is the Stefan-Boltzmann constant (W/(m²·K⁴)).
const StefanBoltzmann = 5.67e-8

// minSeparationM floors pair distances so coincident entities cannot produce
// infinite conduction rates.
const minSeparationM = 0.001

// Igniter starts a fire on an entity. The combustion system implements this;
// the thermal system calls it when an entity crosses its auto-ignition point.
type Igniter interface {
	Ignite(e ecs.Entity, flameTempK float32) error
}

// ThermalConfig tunes the thermal system. Zero values are not usable;
// construct with DefaultThermalConfig and override.
type ThermalConfig struct {
	UpdateRateHz          float32
	AmbientTempK          float32
	ConvectionCoefficient float32 // W/(m²·K)
	ConductionRangeM      float32
	RadiationRangeM       float32
	MinTempDiffK          float32 // Pairs closer than this in temperature are skipped
	HeatTransferMult      float32
	GridCellSizeM         float32
	MaxNeighbors          int // Neighbor cap per entity; 0 means MaxQueryResults

	// Damage model
	BurnThresholdTempK float32
	InstantBurnTempK   float32
	DamageRateJPerUnit float32

	// Phase change
	HysteresisK      float32
	AllowSublimation bool
	TrackLatentHeat  bool

	EnableConduction  bool
	EnableRadiation   bool
	EnableConvection  bool
	EnablePhaseChange bool
	EnableIgnition    bool
	EnableDamage      bool

	LogTransfers   bool
	LogTransitions bool
	LogIgnitions   bool
}

// DefaultThermalConfig returns the standard tuning.
func DefaultThermalConfig() ThermalConfig {
	return ThermalConfig{
		UpdateRateHz:          30,
		AmbientTempK:          293.15,
		ConvectionCoefficient: 10,
		ConductionRangeM:      0.5,
		RadiationRangeM:       10,
		MinTempDiffK:          1,
		HeatTransferMult:      1,
		GridCellSizeM:         2,
		BurnThresholdTempK:    318.15,
		InstantBurnTempK:      373.15,
		DamageRateJPerUnit:    1000,
		HysteresisK:           2,
		AllowSublimation:      true,
		TrackLatentHeat:       true,
		EnableConduction:      true,
		EnableRadiation:       true,
		EnableConvection:      true,
		EnablePhaseChange:     true,
		EnableIgnition:        true,
		EnableDamage:          true,
	}
}

// ThermalStats aggregates per-step counters, reset at the start of every
// fixed step.
type ThermalStats struct {
	EntitiesProcessed     int
	ConductionTransfers   int
	RadiationTransfers    int
	ConvectionEvents      int
	PhaseTransitions      int
	Ignitions             int
	DamageEvents          int
	TotalHeatTransferredJ float32
	AverageTemperatureK   float32
	HottestK              float32
	ColdestK              float32
}

// ThermalSystem simulates conduction, radiation, convection, phase changes,
// auto-ignition and heat damage over all entities carrying Position and
// Thermal components. It runs on its own fixed timestep, decoupled from the
// caller's frame rate: each Update banks the elapsed time and executes at
// most one fixed step.
type ThermalSystem struct {
	world  *ecs.World
	cfg    ThermalConfig
	filter ecs.Filter2[components.Position, components.Thermal]

	thermalMap *ecs.Map1[components.Thermal]
	posMap     *ecs.Map1[components.Position]
	chemMap    *ecs.Map1[components.ChemicalComposition]

	grid *SpatialHash

	igniter Igniter
	damage  DamageSink

	fixedDT     float32
	accumulator float32

	stats ThermalStats

	// Scratch buffers reused across steps
	entities  []ecs.Entity
	neighbors []Neighbor
	toIgnite  []ecs.Entity
}

// NewThermalSystem creates a thermal system over the given world. Pass nil
// for igniter or damage to disable ignition callbacks or damage routing.
func NewThermalSystem(w *ecs.World, cfg ThermalConfig, damage DamageSink) *ThermalSystem {
	if cfg.UpdateRateHz <= 0 {
		cfg.UpdateRateHz = 30
	}
	if damage == nil {
		damage = NopDamageSink{}
	}
	grid := NewSpatialHash(cfg.GridCellSizeM)
	if cfg.MaxNeighbors > 0 {
		grid.MaxResults = cfg.MaxNeighbors
	}
	return &ThermalSystem{
		world:      w,
		cfg:        cfg,
		filter:     *ecs.NewFilter2[components.Position, components.Thermal](w),
		thermalMap: ecs.NewMap1[components.Thermal](w),
		posMap:     ecs.NewMap1[components.Position](w),
		chemMap:    ecs.NewMap1[components.ChemicalComposition](w),
		grid:       grid,
		damage:     damage,
		fixedDT:    1 / cfg.UpdateRateHz,
	}
}

// SetIgniter wires the combustion system in after construction. The two
// systems reference each other, so one side has to be attached late.
func (s *ThermalSystem) SetIgniter(ig Igniter) { s.igniter = ig }

// Stats returns counters from the most recent fixed step.
func (s *ThermalSystem) Stats() ThermalStats { return s.stats }

// FixedDT returns the fixed step length in seconds.
func (s *ThermalSystem) FixedDT() float32 { return s.fixedDT }

// Update banks the frame time and runs at most one fixed step, reporting
// whether a step executed. Excess time stays in the accumulator for the next
// call, so a slow frame never triggers a burst of catch-up steps.
func (s *ThermalSystem) Update(dt float32) bool {
	s.accumulator += dt
	if s.accumulator < s.fixedDT {
		return false
	}
	s.accumulator -= s.fixedDT
	s.step(s.fixedDT)
	return true
}

func (s *ThermalSystem) step(dt float32) {
	s.stats = ThermalStats{ColdestK: components.MaxTemperatureK}
	s.rebuildGrid()

	var tempSum float32
	for _, e := range s.entities {
		pos := s.posMap.Get(e)
		th := s.thermalMap.Get(e)
		if pos == nil || th == nil {
			continue
		}

		s.stats.EntitiesProcessed++

		if th.IsBurning {
			th.TimeSinceIgnitionS += dt
		}

		if s.cfg.EnableConduction || s.cfg.EnableRadiation {
			s.exchangeWithNeighbors(e, *pos, th, dt)
		}
		if s.cfg.EnableConvection {
			s.applyConvection(th, dt)
		}
		if s.cfg.EnablePhaseChange {
			s.updatePhase(e, th)
		}
		if s.cfg.EnableIgnition {
			s.checkIgnition(e, th)
		}
		if s.cfg.EnableDamage {
			s.applyDamage(e, th, dt)
		}

		th.ClampTemperature()
		tempSum += th.TemperatureK
		if th.TemperatureK > s.stats.HottestK {
			s.stats.HottestK = th.TemperatureK
		}
		if th.TemperatureK < s.stats.ColdestK {
			s.stats.ColdestK = th.TemperatureK
		}
	}

	if s.stats.EntitiesProcessed > 0 {
		s.stats.AverageTemperatureK = tempSum / float32(s.stats.EntitiesProcessed)
	} else {
		s.stats.ColdestK = 0
	}

	// Ignitions are structural (they add components), so they run after the
	// sweep completes.
	if s.igniter != nil {
		for _, e := range s.toIgnite {
			th := s.thermalMap.Get(e)
			if th == nil || th.IsBurning {
				continue
			}
			tempK := th.TemperatureK
			if err := s.igniter.Ignite(e, tempK); err != nil {
				continue
			}
			// Igniting adds a component, relocating the entity's rows;
			// re-fetch before touching the record.
			if th = s.thermalMap.Get(e); th != nil {
				th.IsBurning = true
				th.TimeSinceIgnitionS = 0
			}
			s.stats.Ignitions++
			if s.cfg.LogIgnitions {
				slog.Debug("auto-ignition", "entity", e, "temp_k", tempK)
			}
		}
	}
	s.toIgnite = s.toIgnite[:0]
}

// rebuildGrid repopulates the spatial hash and the entity scratch list from
// the current world state.
func (s *ThermalSystem) rebuildGrid() {
	s.grid.Clear()
	s.entities = s.entities[:0]

	query := s.filter.Query()
	for query.Next() {
		pos, _ := query.Get()
		e := query.Entity()
		s.grid.Insert(e, *pos)
		s.entities = append(s.entities, e)
	}
}

// exchangeWithNeighbors moves heat between this entity and nearby ones.
// Only the hotter side of a pair initiates, so each pair transfers exactly
// once per step and energy is conserved: what the source loses, the
// destination gains.
func (s *ThermalSystem) exchangeWithNeighbors(e ecs.Entity, pos components.Position, th *components.Thermal, dt float32) {
	radius := s.cfg.RadiationRangeM
	if !s.cfg.EnableRadiation || s.cfg.ConductionRangeM > radius {
		radius = s.cfg.ConductionRangeM
	}

	s.neighbors = s.grid.QueryRadiusInto(s.neighbors[:0], pos, radius, e, s.posMap)

	for _, n := range s.neighbors {
		other := s.thermalMap.Get(n.E)
		if other == nil {
			continue
		}
		if th.TemperatureK <= other.TemperatureK {
			continue // the hotter side owns the pair
		}
		if th.TemperatureK-other.TemperatureK < s.cfg.MinTempDiffK {
			continue
		}

		dist := float32(math.Sqrt(float64(n.DistSq)))
		if dist < minSeparationM {
			dist = minSeparationM
		}

		var q float32
		if s.cfg.EnableConduction && dist <= s.cfg.ConductionRangeM {
			q += conductionJ(th, other, dist, dt)
			s.stats.ConductionTransfers++
		}
		if s.cfg.EnableRadiation && dist <= s.cfg.RadiationRangeM {
			q += radiationJ(th, other, dist, dt)
			s.stats.RadiationTransfers++
		}
		if q <= 0 {
			continue
		}
		q *= s.cfg.HeatTransferMult

		th.AddEnergy(-q)
		other.AddEnergy(q)
		s.stats.TotalHeatTransferredJ += q

		if s.cfg.LogTransfers {
			slog.Debug("heat transfer",
				"from", e, "to", n.E,
				"joules", q, "distance_m", dist)
		}
	}
}

// conductionJ computes Fourier conduction between two touching or near
// entities over dt. Conductivities combine as a contact harmonic mean.
func conductionJ(hot, cold *components.Thermal, dist, dt float32) float32 {
	kc := 2 * hot.ConductivityWMK * cold.ConductivityWMK /
		(hot.ConductivityWMK + cold.ConductivityWMK + 1e-6)

	area := hot.SurfaceAreaM2
	if cold.SurfaceAreaM2 < area {
		area = cold.SurfaceAreaM2
	}

	dT := hot.TemperatureK - cold.TemperatureK
	return kc * area * dT * dt / dist
}

// radiationJ computes net Stefan-Boltzmann exchange between two bodies over
// dt, attenuated by a point-source view factor.
func radiationJ(hot, cold *components.Thermal, dist, dt float32) float32 {
	eps := (hot.Emissivity + cold.Emissivity) / 2

	t1 := float64(hot.TemperatureK)
	t2 := float64(cold.TemperatureK)
	flux := StefanBoltzmann * (t1*t1*t1*t1 - t2*t2*t2*t2)

	viewFactor := 1 / (dist*dist + 1)
	return eps * hot.SurfaceAreaM2 * float32(flux) * viewFactor * dt
}

// applyConvection bleeds heat to ambient air. Only entities hotter than
// ambient lose heat; warming from ambient is not modeled.
func (s *ThermalSystem) applyConvection(th *components.Thermal, dt float32) {
	dT := th.TemperatureK - s.cfg.AmbientTempK
	if dT <= 0 {
		return
	}
	q := s.cfg.ConvectionCoefficient * th.SurfaceAreaM2 * dT * dt
	th.AddEnergy(-q)
	s.stats.ConvectionEvents++
}

// updatePhase advances an entity through state-of-matter transitions. A
// hysteresis band around each transition point prevents flip-flopping, and
// with latent-heat tracking enabled the accumulated-energy ledger must pay
// for the transition before it happens.
func (s *ThermalSystem) updatePhase(e ecs.Entity, th *components.Thermal) {
	before := th.CurrentPhase

	switch th.CurrentPhase {
	case components.PhaseSolid:
		// Sublimation skips the liquid phase entirely for materials that
		// support it.
		if s.cfg.AllowSublimation && th.MeltingPointK > 0 && th.BoilingPointK > 0 {
			sublimationK := (th.MeltingPointK + th.BoilingPointK) / 2
			if th.TemperatureK >= sublimationK+s.cfg.HysteresisK &&
				s.payLatent(th, th.LatentFusionJKg+th.LatentVaporJKg) {
				th.CurrentPhase = components.PhaseGas
				break
			}
		}
		if th.MeltingPointK > 0 && th.TemperatureK >= th.MeltingPointK+s.cfg.HysteresisK &&
			s.payLatent(th, th.LatentFusionJKg) {
			th.CurrentPhase = components.PhaseLiquid
		}

	case components.PhaseLiquid:
		if th.BoilingPointK > 0 && th.TemperatureK >= th.BoilingPointK+s.cfg.HysteresisK &&
			s.payLatent(th, th.LatentVaporJKg) {
			th.CurrentPhase = components.PhaseGas
		} else if th.MeltingPointK > 0 && th.TemperatureK <= th.MeltingPointK-s.cfg.HysteresisK {
			th.CurrentPhase = components.PhaseSolid
			s.creditLatent(th, th.LatentFusionJKg)
		}

	case components.PhaseGas:
		if th.BoilingPointK > 0 && th.TemperatureK <= th.BoilingPointK-s.cfg.HysteresisK {
			th.CurrentPhase = components.PhaseLiquid
			s.creditLatent(th, th.LatentVaporJKg)
		}

	case components.PhasePlasma:
		// No transitions produce or leave plasma yet.
	}

	if th.CurrentPhase != before {
		s.stats.PhaseTransitions++
		if s.cfg.LogTransitions {
			slog.Debug("phase transition",
				"entity", e,
				"from", before.String(), "to", th.CurrentPhase.String(),
				"temp_k", th.TemperatureK)
		}
	}
}

// payLatent checks the accumulated-energy ledger can afford a forward
// transition and debits it. With tracking disabled, transitions are free.
func (s *ThermalSystem) payLatent(th *components.Thermal, latentJKg float32) bool {
	if !s.cfg.TrackLatentHeat {
		return true
	}
	cost := latentJKg * th.MassKg
	if th.AccumulatedEnergyJ < cost {
		return false
	}
	th.AccumulatedEnergyJ -= cost
	return true
}

// creditLatent returns latent heat to the ledger on a reverse transition.
func (s *ThermalSystem) creditLatent(th *components.Thermal, latentJKg float32) {
	if !s.cfg.TrackLatentHeat {
		return
	}
	th.AccumulatedEnergyJ += latentJKg * th.MassKg
}

// checkIgnition queues combustible entities that crossed their auto-ignition
// temperature. Actual ignition is deferred to after the sweep because it
// mutates entity structure.
func (s *ThermalSystem) checkIgnition(e ecs.Entity, th *components.Thermal) {
	if th.IsBurning || th.IgnitionTempK <= 0 {
		return
	}
	if th.TemperatureK < th.IgnitionTempK {
		return
	}
	chem := s.chemMap.Get(e)
	if chem == nil || !chem.CanOxidize() {
		return
	}
	s.toIgnite = append(s.toIgnite, e)
}

// applyDamage converts excess heat into damage for entities above the burn
// threshold. Above the instant-burn point the rate jumps tenfold.
func (s *ThermalSystem) applyDamage(e ecs.Entity, th *components.Thermal, dt float32) {
	if th.TemperatureK < s.cfg.BurnThresholdTempK {
		return
	}

	excessK := th.TemperatureK - s.cfg.BurnThresholdTempK
	heatJ := excessK * th.SpecificHeatJKgK * th.MassKg * dt
	if th.TemperatureK >= s.cfg.InstantBurnTempK {
		heatJ *= 10
	}

	magnitude := heatJ / s.cfg.DamageRateJPerUnit
	if magnitude <= 0 {
		return
	}
	s.damage.ApplyThermalDamage(e, magnitude)
	s.stats.DamageEvents++
}

// Temperature returns an entity's current temperature.
func (s *ThermalSystem) Temperature(e ecs.Entity) (float32, error) {
	th := s.thermalMap.Get(e)
	if th == nil {
		return 0, ErrNoThermal
	}
	return th.TemperatureK, nil
}

// SetTemperature overwrites an entity's temperature, clamped to the legal
// range. The energy ledger is untouched.
func (s *ThermalSystem) SetTemperature(e ecs.Entity, tempK float32) error {
	th := s.thermalMap.Get(e)
	if th == nil {
		return ErrNoThermal
	}
	th.TemperatureK = tempK
	th.ClampTemperature()
	return nil
}

// ApplyHeat injects thermal energy (negative removes heat) into an entity.
// Returns the resulting temperature.
func (s *ThermalSystem) ApplyHeat(e ecs.Entity, joules float32) (float32, error) {
	th := s.thermalMap.Get(e)
	if th == nil {
		return 0, ErrNoThermal
	}
	return th.AddEnergy(joules), nil
}

// ApplyKineticHeating converts a projectile impact into heat on the target.
// Returns the temperature increase.
func (s *ThermalSystem) ApplyKineticHeating(e ecs.Entity, projectileMassKg, velocityMS, efficiency float32) (float32, error) {
	th := s.thermalMap.Get(e)
	if th == nil {
		return 0, ErrNoThermal
	}
	return th.ApplyKineticHeating(projectileMassKg, velocityMS, efficiency), nil
}

// CanIgnite reports whether an entity is combustible and not already burning.
func (s *ThermalSystem) CanIgnite(e ecs.Entity) bool {
	th := s.thermalMap.Get(e)
	if th == nil || th.IsBurning || th.IgnitionTempK <= 0 {
		return false
	}
	chem := s.chemMap.Get(e)
	return chem != nil && chem.CanOxidize()
}
