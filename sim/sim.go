// Package sim assembles the world, systems and telemetry into a runnable
// simulation.
package sim

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/pyre/chemistry"
	"github.com/pthm-cable/pyre/components"
	"github.com/pthm-cable/pyre/config"
	"github.com/pthm-cable/pyre/systems"
	"github.com/pthm-cable/pyre/telemetry"
)

// Simulation owns the ECS world and drives the thermal and combustion
// systems. Each system steps on its own fixed rate; Step just hands them the
// frame time. Thermal always runs before combustion so ignition checks see
// this frame's temperatures.
type Simulation struct {
	world *ecs.World
	rng   *rand.Rand
	table *chemistry.Table

	thermal    *systems.ThermalSystem
	combustion *systems.CombustionSystem

	mapper *ecs.Map3[components.Position, components.Thermal, components.ChemicalComposition]
	posMap *ecs.Map1[components.Position]
	thMap  *ecs.Map1[components.Thermal]
	filter ecs.Filter2[components.Position, components.Thermal]

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	logStats  bool

	tick int32

	// Scratch buffer for temperature sampling at window flush
	tempSamples []float64
}

// Options configures simulation construction beyond the YAML config.
type Options struct {
	Seed        int64
	LineOfSight systems.LineOfSight
	Output      *telemetry.OutputManager
	LogStats    bool
	// Table overrides the element table; nil loads the embedded default.
	Table *chemistry.Table
}

// New builds a simulation from the loaded configuration.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	world := ecs.NewWorld()

	table := opts.Table
	if table == nil {
		t, err := chemistry.LoadDefault()
		if err != nil {
			return nil, err
		}
		table = t
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	thermalCfg := thermalConfigFrom(cfg)
	combustionCfg := combustionConfigFrom(cfg)

	thermal := systems.NewThermalSystem(world, thermalCfg, systems.NewHealthDamageSink(world))
	combustion := systems.NewCombustionSystem(world, combustionCfg, rng, table, opts.LineOfSight)
	thermal.SetIgniter(combustion)

	statsWindow := cfg.Telemetry.StatsWindow
	if statsWindow <= 0 {
		statsWindow = 5
	}

	return &Simulation{
		world:      world,
		rng:        rng,
		table:      table,
		thermal:    thermal,
		combustion: combustion,
		mapper: ecs.NewMap3[
			components.Position,
			components.Thermal,
			components.ChemicalComposition,
		](world),
		posMap:    ecs.NewMap1[components.Position](world),
		thMap:     ecs.NewMap1[components.Thermal](world),
		filter:    *ecs.NewFilter2[components.Position, components.Thermal](world),
		collector: telemetry.NewCollector(statsWindow, cfg.Derived.FrameDT32),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		output:    opts.Output,
		logStats:  opts.LogStats,
	}, nil
}

// thermalConfigFrom maps the YAML config onto the thermal system's tuning.
func thermalConfigFrom(cfg *config.Config) systems.ThermalConfig {
	tc := systems.DefaultThermalConfig()
	t := cfg.Thermal

	tc.UpdateRateHz = float32(t.UpdateRateHz)
	tc.AmbientTempK = cfg.Derived.AmbientTemp32
	tc.ConvectionCoefficient = float32(t.ConvectionCoefficient)
	tc.ConductionRangeM = float32(t.ConductionRangeM)
	tc.RadiationRangeM = float32(t.RadiationRangeM)
	tc.MinTempDiffK = float32(t.MinTempDiffK)
	tc.HeatTransferMult = float32(t.HeatTransferMult)
	tc.GridCellSizeM = float32(t.GridCellSizeM)
	tc.MaxNeighbors = t.MaxNeighbors
	tc.BurnThresholdTempK = float32(t.BurnThresholdTempK)
	tc.InstantBurnTempK = float32(t.InstantBurnTempK)
	tc.DamageRateJPerUnit = float32(t.DamageRateJPerUnit)
	tc.HysteresisK = float32(t.HysteresisK)
	tc.AllowSublimation = t.AllowSublimation
	tc.TrackLatentHeat = t.TrackLatentHeat
	tc.EnableConduction = t.EnableHeatTransfer
	tc.EnableRadiation = t.EnableHeatTransfer
	tc.EnableConvection = t.EnableHeatTransfer
	tc.EnablePhaseChange = t.EnablePhaseTransitions
	tc.EnableIgnition = t.EnableIgnitionChecks
	tc.EnableDamage = t.EnableThermalDamage
	tc.LogTransitions = t.LogPhaseTransitions
	tc.LogIgnitions = t.LogIgnitions

	return tc
}

// combustionConfigFrom maps the YAML config onto the combustion system's tuning.
func combustionConfigFrom(cfg *config.Config) systems.CombustionConfig {
	cc := systems.DefaultCombustionConfig()
	c := cfg.Combustion

	cc.UpdateRateHz = float32(c.UpdateRateHz)
	cc.AmbientTempK = cfg.Derived.AmbientTemp32
	cc.AmbientOxygen = cfg.Derived.AmbientO232
	cc.GridCellSizeM = float32(c.GridCellSizeM)
	cc.SpreadCheckIntervalS = float32(c.SpreadCheckIntervalS)
	cc.IgnitionProbability = float32(c.IgnitionProbability)
	cc.SpreadMultiplier = float32(c.SpreadMultiplier)
	cc.RequireLineOfSight = c.RequireLineOfSight
	cc.HeatReleaseMult = float32(c.HeatReleaseMult)
	cc.FuelConsumptionMult = float32(c.FuelConsumptionMult)
	if c.OxygenDepletionRate > 0 {
		cc.OxygenDepletionRate = float32(c.OxygenDepletionRate)
	}
	cc.MaxSmokeParticles = c.MaxSmokeParticles
	cc.MaxEmberParticles = c.MaxEmberParticles
	cc.ParticleSpawnMult = float32(c.ParticleSpawnMult)
	cc.EnableSpread = c.EnableFireSpread
	cc.EnableHeatGen = c.EnableHeatGeneration
	cc.EnableOxygen = c.EnableOxygenConsumption
	cc.EnableParticles = c.EnableParticleBudget
	cc.LogIgnitions = c.LogIgnitions
	cc.LogExtinguish = c.LogExtinguishments
	cc.LogFuelDepletion = c.LogFuelDepletion

	return cc
}

// Step advances the simulation by one frame of dt seconds.
func (s *Simulation) Step(dt float32) {
	s.perf.StartTick()
	s.tick++

	s.perf.StartPhase(telemetry.PhaseThermal)
	if s.thermal.Update(dt) {
		st := s.thermal.Stats()
		s.collector.RecordIgnitions(st.Ignitions)
		s.collector.RecordPhaseTransitions(st.PhaseTransitions)
		s.collector.RecordDamageEvents(st.DamageEvents)
		s.collector.RecordHeatTransfers(
			st.ConductionTransfers,
			st.RadiationTransfers,
			float64(st.TotalHeatTransferredJ),
		)
	}

	s.perf.StartPhase(telemetry.PhaseCombustion)
	if s.combustion.Update(dt) {
		st := s.combustion.Stats()
		s.collector.RecordFireSpreads(st.FireSpreads)
		s.collector.RecordExtinguishments(st.FiresExtinguished)
		s.collector.RecordCombustion(
			float64(st.FuelConsumedKg),
			float64(st.HeatReleasedJ),
			float64(st.OxygenConsumedMol),
			float64(st.CO2ProducedMol),
		)
	}

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	if s.collector.ShouldFlush(s.tick) {
		s.flushWindow()
	}

	s.perf.EndTick()
}

// flushWindow samples the current world state, emits a stats window, and
// writes telemetry output.
func (s *Simulation) flushWindow() {
	s.tempSamples = s.tempSamples[:0]
	entityCount := 0

	query := s.filter.Query()
	for query.Next() {
		_, th := query.Get()
		entityCount++
		s.tempSamples = append(s.tempSamples, float64(th.TemperatureK))
	}

	combStats := s.combustion.Stats()
	stats := s.collector.Flush(
		s.tick,
		entityCount,
		combStats.ActiveFires,
		s.tempSamples,
		combStats.SmokeParticles,
		combStats.EmberParticles,
	)

	if s.logStats {
		stats.LogStats()
	}
	if s.output != nil {
		s.output.WriteTelemetry(stats)
		s.output.WritePerf(s.perf.Stats(), s.tick)
	}
}

// World exposes the ECS world for entity construction and queries.
func (s *Simulation) World() *ecs.World { return s.world }

// Thermal exposes the thermal system.
func (s *Simulation) Thermal() *systems.ThermalSystem { return s.thermal }

// Combustion exposes the combustion system.
func (s *Simulation) Combustion() *systems.CombustionSystem { return s.combustion }

// Table exposes the element table.
func (s *Simulation) Table() *chemistry.Table { return s.table }

// Tick returns the number of frames stepped so far.
func (s *Simulation) Tick() int32 { return s.tick }
