package systems

import (
	"log/slog"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/pyre/chemistry"
	"github.com/pthm-cable/pyre/components"
)

// LineOfSight reports whether radiant heat can travel unobstructed between
// two points. Occlusion lives outside this package; inject whatever the host
// environment knows about geometry. A nil predicate means nothing occludes.
type LineOfSight func(from, to components.Position) bool

// CombustionConfig tunes the combustion system.
type CombustionConfig struct {
	UpdateRateHz  float32
	AmbientTempK  float32
	AmbientOxygen float32
	GridCellSizeM float32

	// Fire spread
	SpreadCheckIntervalS float32
	IgnitionProbability  float32 // Per-check gate, scaled by per-second spread rate
	SpreadMultiplier     float32 // Scales the ignition radius for spread queries
	RequireLineOfSight   bool

	// Burn scaling
	HeatReleaseMult     float32
	FuelConsumptionMult float32
	DefaultFlameTempK   float32
	OxygenReplenishRate float32 // Fraction of ambient recovered per second
	OxygenDepletionRate float32 // Oxygen fraction removed per kg of fuel burned

	// Particle budgets
	MaxSmokeParticles int
	MaxEmberParticles int
	ParticleSpawnMult float32
	SmokeLifetimeS    float32
	EmberLifetimeS    float32

	EnableSpread    bool
	EnableHeatGen   bool // Fires heat themselves and radiate to neighbors
	EnableOxygen    bool // Fires deplete and consume local oxygen
	EnableParticles bool

	LogIgnitions     bool
	LogExtinguish    bool
	LogFuelDepletion bool
}

// DefaultCombustionConfig returns the standard tuning.
func DefaultCombustionConfig() CombustionConfig {
	return CombustionConfig{
		UpdateRateHz:         60,
		AmbientTempK:         293.15,
		AmbientOxygen:        0.21,
		GridCellSizeM:        5,
		SpreadCheckIntervalS: 0.5,
		IgnitionProbability:  0.3,
		SpreadMultiplier:     1,
		HeatReleaseMult:      1,
		FuelConsumptionMult:  1,
		DefaultFlameTempK:    1200,
		OxygenReplenishRate:  0.05,
		OxygenDepletionRate:  0.002,
		MaxSmokeParticles:    10000,
		MaxEmberParticles:    5000,
		ParticleSpawnMult:    1,
		SmokeLifetimeS:       5,
		EmberLifetimeS:       2,
		EnableSpread:         true,
		EnableHeatGen:        true,
		EnableOxygen:         true,
		EnableParticles:      true,
	}
}

// CombustionStats aggregates per-step counters plus running totals.
type CombustionStats struct {
	ActiveFires       int
	FiresStarted      int
	FiresExtinguished int
	FireSpreads       int
	SpreadChecks      int

	FuelConsumedKg    float32
	HeatReleasedJ     float32
	OxygenConsumedMol float32
	CO2ProducedMol    float32

	SmokeParticles int
	EmberParticles int
}

// particlePool tracks a live particle count without simulating individual
// particles. Spawns accumulate fractionally; the population decays toward
// zero at 1/lifetime per second and is capped at the budget.
type particlePool struct {
	live      float32
	lifetimeS float32
	max       int
}

func (p *particlePool) update(spawnRate, dt float32) {
	p.live += spawnRate * dt
	if p.lifetimeS > 0 {
		p.live -= p.live / p.lifetimeS * dt
	}
	if p.live < 0 {
		p.live = 0
	}
	if p.max > 0 && p.live > float32(p.max) {
		p.live = float32(p.max)
	}
}

func (p *particlePool) count() int { return int(p.live) }

// CombustionSystem simulates active fires: fuel consumption, oxygen
// starvation, heat release into the thermal model, fire spread to nearby
// combustibles, suppression, and smoke/ember budgets. Like the thermal
// system it runs on its own fixed timestep.
type CombustionSystem struct {
	world *ecs.World
	cfg   CombustionConfig
	rng   *rand.Rand
	table *chemistry.Table
	los   LineOfSight

	burnFilter   ecs.Filter2[components.Position, components.Combustion]
	targetFilter ecs.Filter2[components.Position, components.Thermal]

	combMap    *ecs.Map1[components.Combustion]
	thermalMap *ecs.Map1[components.Thermal]
	posMap     *ecs.Map1[components.Position]
	chemMap    *ecs.Map1[components.ChemicalComposition]

	grid *SpatialHash

	fixedDT     float32
	accumulator float32
	spreadTimer float32

	smoke  particlePool
	embers particlePool

	stats CombustionStats

	// Running totals, never reset
	totalHeatJ  float32
	totalFuelKg float32

	// Scratch buffers
	neighbors []Neighbor
	toSpread  []pendingIgnition
	toRemove  []ecs.Entity
}

type pendingIgnition struct {
	target     ecs.Entity
	flameTempK float32
}

// NewCombustionSystem creates a combustion system over the given world.
// The RNG drives spread probability rolls; seed it for reproducible runs.
// Pass a nil table to disable oxygen stoichiometry, and a nil los to treat
// every sight line as clear.
func NewCombustionSystem(w *ecs.World, cfg CombustionConfig, rng *rand.Rand, table *chemistry.Table, los LineOfSight) *CombustionSystem {
	if cfg.UpdateRateHz <= 0 {
		cfg.UpdateRateHz = 60
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &CombustionSystem{
		world:        w,
		cfg:          cfg,
		rng:          rng,
		table:        table,
		los:          los,
		burnFilter:   *ecs.NewFilter2[components.Position, components.Combustion](w),
		targetFilter: *ecs.NewFilter2[components.Position, components.Thermal](w),
		combMap:      ecs.NewMap1[components.Combustion](w),
		thermalMap:   ecs.NewMap1[components.Thermal](w),
		posMap:       ecs.NewMap1[components.Position](w),
		chemMap:      ecs.NewMap1[components.ChemicalComposition](w),
		grid:         NewSpatialHash(cfg.GridCellSizeM),
		fixedDT:      1 / cfg.UpdateRateHz,
		smoke:        particlePool{lifetimeS: cfg.SmokeLifetimeS, max: cfg.MaxSmokeParticles},
		embers:       particlePool{lifetimeS: cfg.EmberLifetimeS, max: cfg.MaxEmberParticles},
	}
}

// Stats returns counters from the most recent fixed step.
func (s *CombustionSystem) Stats() CombustionStats { return s.stats }

// FixedDT returns the fixed step length in seconds.
func (s *CombustionSystem) FixedDT() float32 { return s.fixedDT }

// TotalHeatReleasedJ returns the cumulative heat released by all fires.
func (s *CombustionSystem) TotalHeatReleasedJ() float32 { return s.totalHeatJ }

// TotalFuelConsumedKg returns the cumulative fuel burned by all fires.
func (s *CombustionSystem) TotalFuelConsumedKg() float32 { return s.totalFuelKg }

// Update banks the frame time and runs at most one fixed step, reporting
// whether a step executed.
func (s *CombustionSystem) Update(dt float32) bool {
	s.accumulator += dt
	if s.accumulator < s.fixedDT {
		return false
	}
	s.accumulator -= s.fixedDT
	s.step(s.fixedDT)
	return true
}

func (s *CombustionSystem) step(dt float32) {
	s.stats = CombustionStats{}
	s.spreadTimer += dt
	checkSpread := s.cfg.EnableSpread && s.spreadTimer >= s.cfg.SpreadCheckIntervalS
	if checkSpread {
		s.spreadTimer = 0
	}

	if checkSpread {
		s.rebuildTargetGrid()
	}

	var smokeRate, emberRate float32

	query := s.burnFilter.Query()
	for query.Next() {
		pos, comb := query.Get()
		e := query.Entity()

		if !comb.Active {
			s.toRemove = append(s.toRemove, e)
			continue
		}

		oxygen := s.cfg.AmbientOxygen
		if s.cfg.EnableOxygen {
			oxygen = s.replenishOxygen(comb, dt)
		}

		fuelBefore := comb.FuelRemainingKg
		heat := comb.Step(dt, oxygen) * s.cfg.HeatReleaseMult
		consumed := fuelBefore - comb.FuelRemainingKg

		if s.cfg.EnableOxygen {
			comb.OxygenConcentration -= consumed * s.cfg.OxygenDepletionRate
		}

		if !comb.Active {
			if s.cfg.LogFuelDepletion && comb.FuelRemainingKg <= 0 {
				slog.Debug("fuel depleted", "entity", e, "burn_duration_s", comb.BurnDurationS)
			}
			s.toRemove = append(s.toRemove, e)
			continue
		}

		s.stats.ActiveFires++
		s.stats.FuelConsumedKg += consumed
		s.stats.HeatReleasedJ += heat
		s.totalFuelKg += consumed
		s.totalHeatJ += heat

		if s.cfg.EnableOxygen {
			s.consumeOxygen(e, comb, consumed, dt)
		}
		if s.cfg.EnableHeatGen {
			s.heatSelf(e, comb)
			s.radiateHeat(e, *pos, comb, dt)
		}

		smokeRate += comb.SmokeGenerationRate
		emberRate += comb.EmberGenerationRate

		if checkSpread {
			s.checkSpreadFrom(e, *pos, comb)
		}
	}

	if s.cfg.EnableParticles {
		s.smoke.update(smokeRate*s.cfg.ParticleSpawnMult, dt)
		s.embers.update(emberRate*s.cfg.ParticleSpawnMult, dt)
		s.stats.SmokeParticles = s.smoke.count()
		s.stats.EmberParticles = s.embers.count()
	}

	// Structural changes after the sweep: remove dead fires, start new ones.
	for _, e := range s.toRemove {
		s.extinguishNow(e)
	}
	s.toRemove = s.toRemove[:0]

	for _, p := range s.toSpread {
		if err := s.Ignite(p.target, p.flameTempK); err == nil {
			s.stats.FireSpreads++
		}
	}
	s.toSpread = s.toSpread[:0]
}

// rebuildTargetGrid indexes every entity that could catch fire.
func (s *CombustionSystem) rebuildTargetGrid() {
	s.grid.Clear()
	query := s.targetFilter.Query()
	for query.Next() {
		pos, _ := query.Get()
		s.grid.Insert(query.Entity(), *pos)
	}
}

// replenishOxygen recovers local oxygen toward ambient between burns.
func (s *CombustionSystem) replenishOxygen(comb *components.Combustion, dt float32) float32 {
	o2 := comb.OxygenConcentration
	if o2 < s.cfg.AmbientOxygen {
		o2 += s.cfg.AmbientOxygen * s.cfg.OxygenReplenishRate * dt
		if o2 > s.cfg.AmbientOxygen {
			o2 = s.cfg.AmbientOxygen
		}
	}
	return o2
}

// consumeOxygen converts the burned fuel mass into O2 uptake using the
// material's stoichiometry.
func (s *CombustionSystem) consumeOxygen(e ecs.Entity, comb *components.Combustion, consumedKg, dt float32) {
	if s.table == nil || dt <= 0 {
		return
	}
	chem := s.chemMap.Get(e)
	if chem == nil {
		return
	}
	molarMassKg := float32(chem.MolecularWeight(s.table)) / 1000
	if molarMassKg <= 0 {
		return
	}
	molS := consumedKg / molarMassKg / dt
	comb.OxygenConsumptionMolS = chem.OxygenConsumption(molS)
	s.stats.OxygenConsumedMol += comb.OxygenConsumptionMolS * dt
	s.stats.CO2ProducedMol += chem.CO2Production(molS) * dt
}

// heatSelf keeps the burning entity's own thermal state pinned to the flame.
func (s *CombustionSystem) heatSelf(e ecs.Entity, comb *components.Combustion) {
	th := s.thermalMap.Get(e)
	if th == nil {
		return
	}
	th.IsBurning = true
	if th.TemperatureK < comb.FlameTemperatureK {
		th.TemperatureK = comb.FlameTemperatureK
		th.ClampTemperature()
	}
}

// radiateHeat delivers the fire's radiant output to nearby thermal entities,
// attenuated by distance.
func (s *CombustionSystem) radiateHeat(e ecs.Entity, pos components.Position, comb *components.Combustion, dt float32) {
	if comb.HeatOutputW <= 0 {
		return
	}

	s.neighbors = s.grid.QueryRadiusInto(s.neighbors[:0], pos, comb.HeatTransferRadiusM, e, s.posMap)
	for _, n := range s.neighbors {
		th := s.thermalMap.Get(n.E)
		if th == nil {
			continue
		}
		dist := float32(math.Sqrt(float64(n.DistSq)))
		q := comb.HeatOutputW / (dist*dist + 1) * comb.Tuning.HeatTransferEfficiency * dt
		th.AddEnergy(q * th.Absorptivity)
	}
}

// checkSpreadFrom rolls spread attempts against nearby ignitable entities.
// SpreadMultiplier scales the reach of the fire, not the roll. Successful
// rolls queue an ignition at a fraction of the source flame temperature,
// applied after the sweep.
func (s *CombustionSystem) checkSpreadFrom(e ecs.Entity, pos components.Position, comb *components.Combustion) {
	radius := comb.IgnitionRadiusM * s.cfg.SpreadMultiplier
	s.neighbors = s.grid.QueryRadiusInto(s.neighbors[:0], pos, radius, e, s.posMap)

	for _, n := range s.neighbors {
		th := s.thermalMap.Get(n.E)
		if th == nil || th.IsBurning || th.IgnitionTempK <= 0 {
			continue
		}
		chem := s.chemMap.Get(n.E)
		if chem == nil || !chem.CanOxidize() {
			continue
		}

		s.stats.SpreadChecks++

		dist := float32(math.Sqrt(float64(n.DistSq)))
		if !comb.CanIgniteNeighbor(dist, th.IgnitionTempK, s.cfg.AmbientTempK) {
			continue
		}
		if s.cfg.RequireLineOfSight && s.los != nil && !s.los(pos, n.Pos) {
			continue
		}

		gate := s.cfg.IgnitionProbability * comb.Tuning.SpreadProbabilityPerS
		if s.rng.Float32() >= gate {
			continue
		}

		s.toSpread = append(s.toSpread, pendingIgnition{
			target:     n.E,
			flameTempK: comb.FlameTemperatureK * 0.8,
		})
	}
}

// Ignite starts a fire on an entity. Returns ErrAlreadyBurning for entities
// already on fire, ErrNotIgnitable for entities without fuel chemistry and
// ErrNoThermal for entities outside the thermal model.
func (s *CombustionSystem) Ignite(e ecs.Entity, flameTempK float32) error {
	if !s.world.Alive(e) {
		return ErrNoThermal
	}
	if s.combMap.HasAll(e) {
		return ErrAlreadyBurning
	}

	th := s.thermalMap.Get(e)
	if th == nil {
		return ErrNoThermal
	}
	chem := s.chemMap.Get(e)
	if chem == nil || !chem.CanOxidize() || th.IgnitionTempK <= 0 {
		return ErrNotIgnitable
	}

	if flameTempK < s.cfg.DefaultFlameTempK {
		flameTempK = s.cfg.DefaultFlameTempK
	}

	fuelKg := th.MassKg * (1 - chem.AshResidueFraction)
	comb := components.NewFire(flameTempK, fuelKg)
	comb.HeatPerKgJ = chem.HeatOfCombustionJKg
	comb.CombustionEfficiency = chem.CombustionEfficiency
	if chem.OxidationRate > 0 {
		comb.FuelConsumptionRateKgS = 0.005 * chem.OxidationRate
	}
	comb.FuelConsumptionRateKgS *= s.cfg.FuelConsumptionMult
	comb.Tuning.SmokeParticlesPerKg *= chem.SmokeDensityFactor

	// Write the thermal record before the structural change: Add relocates
	// the entity's rows and leaves th dangling on another entity's data.
	th.IsBurning = true
	th.TimeSinceIgnitionS = 0
	if th.TemperatureK < th.IgnitionTempK {
		th.TemperatureK = th.IgnitionTempK
	}
	s.combMap.Add(e, &comb)

	s.stats.FiresStarted++
	if s.cfg.LogIgnitions {
		slog.Debug("ignition", "entity", e, "flame_temp_k", flameTempK, "fuel_kg", fuelKg)
	}
	return nil
}

// ApplySuppression delivers a suppressant dose to a burning entity. Returns
// true if the fire went out. Suppressing a non-burning entity returns
// ErrNoCombustion.
func (s *CombustionSystem) ApplySuppression(e ecs.Entity, agentKg, effectiveness float32) (bool, error) {
	comb := s.combMap.Get(e)
	if comb == nil {
		return false, ErrNoCombustion
	}
	if comb.ApplySuppression(agentKg, effectiveness) {
		s.extinguishNow(e)
		return true, nil
	}
	return false, nil
}

// Extinguish puts out a fire immediately.
func (s *CombustionSystem) Extinguish(e ecs.Entity) error {
	if s.combMap.Get(e) == nil {
		return ErrNoCombustion
	}
	s.extinguishNow(e)
	return nil
}

func (s *CombustionSystem) extinguishNow(e ecs.Entity) {
	if !s.world.Alive(e) || !s.combMap.HasAll(e) {
		return
	}
	s.combMap.Remove(e)
	if th := s.thermalMap.Get(e); th != nil {
		th.IsBurning = false
	}
	s.stats.FiresExtinguished++
	if s.cfg.LogExtinguish {
		slog.Debug("extinguished", "entity", e)
	}
}

// IsBurning reports whether an entity has an active fire.
func (s *CombustionSystem) IsBurning(e ecs.Entity) bool {
	comb := s.combMap.Get(e)
	return comb != nil && comb.Active
}

// FlameTemperature returns a burning entity's flame temperature.
func (s *CombustionSystem) FlameTemperature(e ecs.Entity) (float32, error) {
	comb := s.combMap.Get(e)
	if comb == nil {
		return 0, ErrNoCombustion
	}
	return comb.FlameTemperatureK, nil
}

// FuelRemaining returns the unburned fuel mass on a burning entity.
func (s *CombustionSystem) FuelRemaining(e ecs.Entity) (float32, error) {
	comb := s.combMap.Get(e)
	if comb == nil {
		return 0, ErrNoCombustion
	}
	return comb.FuelRemainingKg, nil
}
