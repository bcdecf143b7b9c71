package telemetry

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	windowStartTick int32

	// Event counters for current window
	ignitions        int
	extinguishments  int
	fireSpreads      int
	phaseTransitions int
	damageEvents     int

	conductionTransfers int
	radiationTransfers  int
	heatTransferredJ    float64

	fuelConsumedKg    float64
	heatReleasedJ     float64
	oxygenConsumedMol float64
	co2ProducedMol    float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	// Round to the nearest tick so float32 dt does not truncate a whole
	// window (1.0s at 60 Hz must be 60 ticks, not 59).
	ticksPerWindow := int32(windowDurationSec/float64(dt) + 0.5)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordIgnitions adds ignition events to the window.
func (c *Collector) RecordIgnitions(n int) {
	c.ignitions += n
}

// RecordExtinguishments adds extinguish events to the window.
func (c *Collector) RecordExtinguishments(n int) {
	c.extinguishments += n
}

// RecordFireSpreads adds fire spread events to the window.
func (c *Collector) RecordFireSpreads(n int) {
	c.fireSpreads += n
}

// RecordPhaseTransitions adds phase transition events to the window.
func (c *Collector) RecordPhaseTransitions(n int) {
	c.phaseTransitions += n
}

// RecordDamageEvents adds thermal damage events to the window.
func (c *Collector) RecordDamageEvents(n int) {
	c.damageEvents += n
}

// RecordHeatTransfers adds heat transfer activity to the window.
func (c *Collector) RecordHeatTransfers(conduction, radiation int, joules float64) {
	c.conductionTransfers += conduction
	c.radiationTransfers += radiation
	c.heatTransferredJ += joules
}

// RecordCombustion adds combustion activity to the window.
func (c *Collector) RecordCombustion(fuelKg, heatJ, oxygenMol, co2Mol float64) {
	c.fuelConsumedKg += fuelKg
	c.heatReleasedJ += heatJ
	c.oxygenConsumedMol += oxygenMol
	c.co2ProducedMol += co2Mol
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller provides end-of-window snapshots: entity and fire counts,
// sampled temperatures for the distribution, and particle budgets.
func (c *Collector) Flush(
	currentTick int32,
	thermalEntities, activeFires int,
	temperaturesK []float64,
	smokeParticles, emberParticles int,
) WindowStats {
	mean, std, p10, p50, p90, max := ComputeTempStats(temperaturesK)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		ThermalEntities: thermalEntities,
		ActiveFires:     activeFires,

		Ignitions:        c.ignitions,
		Extinguishments:  c.extinguishments,
		FireSpreads:      c.fireSpreads,
		PhaseTransitions: c.phaseTransitions,
		DamageEvents:     c.damageEvents,

		ConductionTransfers: c.conductionTransfers,
		RadiationTransfers:  c.radiationTransfers,
		HeatTransferredJ:    c.heatTransferredJ,

		FuelConsumedKg:    c.fuelConsumedKg,
		HeatReleasedJ:     c.heatReleasedJ,
		OxygenConsumedMol: c.oxygenConsumedMol,
		CO2ProducedMol:    c.co2ProducedMol,

		TempMeanK: mean,
		TempStdK:  std,
		TempP10K:  p10,
		TempP50K:  p50,
		TempP90K:  p90,
		TempMaxK:  max,

		SmokeParticles: smokeParticles,
		EmberParticles: emberParticles,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.ignitions = 0
	c.extinguishments = 0
	c.fireSpreads = 0
	c.phaseTransitions = 0
	c.damageEvents = 0
	c.conductionTransfers = 0
	c.radiationTransfers = 0
	c.heatTransferredJ = 0
	c.fuelConsumedKg = 0
	c.heatReleasedJ = 0
	c.oxygenConsumedMol = 0
	c.co2ProducedMol = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
