package components

import "math"

// CombustionTuning groups the knobs governing a fire's behavior. Every field
// has a working default from NewFire; scenarios override individual values.
type CombustionTuning struct {
	OxygenStarvationThreshold float32 // Below this, efficiency ramps down
	ExtinguishOxygenLevel     float32 // Below this, the fire dies
	ReignitionTempK           float32 // Suppressed fires below this stay out
	MinFlameTempK             float32
	MaxFlameTempK             float32
	TempRiseRateKS            float32 // While fuel is plentiful
	TempDecayRateKS           float32 // While fuel is running out
	SpreadProbabilityPerS     float32
	HeatTransferEfficiency    float32
	SmokeParticlesPerKg       float32
	EmberParticlesPerKg       float32
}

// Combustion marks an entity as actively burning. Presence of this component
// on an entity is the burning state; extinguishing removes it.
type Combustion struct {
	Active        bool
	BurnDurationS float32

	// Fuel
	FuelRemainingKg        float32
	FuelConsumptionRateKgS float32
	CombustionEfficiency   float32 // 0-1, degrades under oxygen starvation

	// Flame state
	FlameTemperatureK float32
	BaseFlameTempK    float32
	PeakFlameTempK    float32

	// Oxygen
	OxygenConcentration   float32 // Local O2 fraction, ambient is ~0.21
	OxygenConsumptionMolS float32

	// Energy
	HeatOutputW          float32
	TotalEnergyReleasedJ float32
	HeatPerKgJ           float32 // Heat of combustion for the burning material

	// Geometry, used by spread checks and particle spawning
	FlameHeightM        float32
	FlameRadiusM        float32
	SpreadRateMS        float32
	IgnitionRadiusM     float32
	HeatTransferRadiusM float32

	// Particle emission rates (particles/s), scaled by burn intensity
	SmokeGenerationRate float32
	EmberGenerationRate float32

	Tuning CombustionTuning
}

// NewFire creates a burning state for a freshly ignited entity.
func NewFire(ignitionTempK, fuelMassKg float32) Combustion {
	return Combustion{
		Active:                 true,
		FuelRemainingKg:        fuelMassKg,
		FuelConsumptionRateKgS: 0.01,
		CombustionEfficiency:   0.85,
		FlameTemperatureK:      ignitionTempK,
		BaseFlameTempK:         ignitionTempK,
		PeakFlameTempK:         ignitionTempK,
		OxygenConcentration:    0.21,
		HeatPerKgJ:             30e6,
		FlameHeightM:           0.5,
		FlameRadiusM:           0.3,
		SpreadRateMS:           0.1,
		IgnitionRadiusM:        2,
		HeatTransferRadiusM:    5,
		SmokeGenerationRate:    10,
		EmberGenerationRate:    5,
		Tuning: CombustionTuning{
			OxygenStarvationThreshold: 0.15,
			ExtinguishOxygenLevel:     0.05,
			ReignitionTempK:           700,
			MinFlameTempK:             800,
			MaxFlameTempK:             1800,
			TempRiseRateKS:            100,
			TempDecayRateKS:           50,
			SpreadProbabilityPerS:     0.3,
			HeatTransferEfficiency:    0.8,
			SmokeParticlesPerKg:       10,
			EmberParticlesPerKg:       5,
		},
	}
}

// Step advances the burn by dt seconds against the given local oxygen level.
// Returns the heat released (J) this step. A return of 0 with Active == false
// means the fire went out.
func (c *Combustion) Step(dt, oxygen float32) float32 {
	if !c.Active {
		return 0
	}

	c.OxygenConcentration = oxygen
	c.BurnDurationS += dt

	// Extinguish conditions
	if oxygen < c.Tuning.ExtinguishOxygenLevel ||
		c.FuelRemainingKg <= 0 ||
		c.FlameTemperatureK < c.Tuning.MinFlameTempK {
		c.Active = false
		c.HeatOutputW = 0
		return 0
	}

	// Oxygen starvation degrades combustion efficiency linearly down to the
	// extinguish floor.
	if oxygen < c.Tuning.OxygenStarvationThreshold {
		span := c.Tuning.OxygenStarvationThreshold - c.Tuning.ExtinguishOxygenLevel
		c.CombustionEfficiency = (oxygen - c.Tuning.ExtinguishOxygenLevel) / span
		if c.CombustionEfficiency < 0 {
			c.CombustionEfficiency = 0
		}
	} else {
		c.CombustionEfficiency = 0.85
	}

	// Consume fuel
	consumed := c.FuelConsumptionRateKgS * dt
	if consumed > c.FuelRemainingKg {
		consumed = c.FuelRemainingKg
	}
	c.FuelRemainingKg -= consumed

	// Starved fires smoke more
	c.SmokeGenerationRate = c.Tuning.SmokeParticlesPerKg * (2 - c.CombustionEfficiency)
	c.EmberGenerationRate = c.Tuning.EmberParticlesPerKg * c.CombustionEfficiency

	heat := consumed * c.HeatPerKgJ * c.CombustionEfficiency
	c.TotalEnergyReleasedJ += heat
	if dt > 0 {
		c.HeatOutputW = heat / dt
	}

	// Flame temperature rises while fuel reserves are healthy, decays as the
	// fire runs down.
	if c.FuelRemainingKg > c.FuelConsumptionRateKgS*10 {
		c.FlameTemperatureK += c.Tuning.TempRiseRateKS * dt
	} else {
		c.FlameTemperatureK -= c.Tuning.TempDecayRateKS * dt
	}
	if c.FlameTemperatureK > c.Tuning.MaxFlameTempK {
		c.FlameTemperatureK = c.Tuning.MaxFlameTempK
	}
	if c.FlameTemperatureK > c.PeakFlameTempK {
		c.PeakFlameTempK = c.FlameTemperatureK
	}

	return heat
}

// ApplySuppression applies a suppressant dose to the fire. Returns true if
// the dose extinguished it. Suppression cools the flame and displaces local
// oxygen; a flame pushed below the reignition threshold goes out.
func (c *Combustion) ApplySuppression(agentKg, effectiveness float32) bool {
	if !c.Active {
		return true
	}

	c.FlameTemperatureK -= agentKg * 100 * effectiveness
	c.OxygenConcentration -= agentKg * 0.01 * effectiveness
	if c.OxygenConcentration < 0 {
		c.OxygenConcentration = 0
	}

	if c.FlameTemperatureK < c.Tuning.ReignitionTempK {
		c.Active = false
		c.HeatOutputW = 0
		return true
	}
	return false
}

// CanIgniteNeighbor reports whether this fire's radiant output at the given
// distance is enough to push a neighbor from the given ambient temperature to
// its ignition point. Range gating belongs to the caller; this is the radiant
// physics check only.
func (c *Combustion) CanIgniteNeighbor(distanceM, targetIgnitionTempK, ambientTempK float32) bool {
	if !c.Active || targetIgnitionTempK <= 0 {
		return false
	}
	radiant := c.HeatOutputW / (distanceM*distanceM + 1)
	tempIncrease := radiant * c.Tuning.HeatTransferEfficiency * 0.1
	return ambientTempK+tempIncrease >= targetIgnitionTempK
}

// Intensity returns a 0-1 burn intensity derived from flame temperature
// relative to the tuning band. Used to scale particle emission and rendering
// cues downstream.
func (c *Combustion) Intensity() float32 {
	if !c.Active {
		return 0
	}
	span := c.Tuning.MaxFlameTempK - c.Tuning.MinFlameTempK
	if span <= 0 {
		return 1
	}
	i := (c.FlameTemperatureK - c.Tuning.MinFlameTempK) / span
	return float32(math.Min(1, math.Max(0, float64(i))))
}
