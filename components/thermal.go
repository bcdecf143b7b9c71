package components

// Phase enumerates states of matter.
// Plasma is reserved; no transition currently produces it.
type Phase uint8

const (
	PhaseSolid Phase = iota
	PhaseLiquid
	PhaseGas
	PhasePlasma
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseSolid:
		return "solid"
	case PhaseLiquid:
		return "liquid"
	case PhaseGas:
		return "gas"
	case PhasePlasma:
		return "plasma"
	}
	return "unknown"
}

// Temperature bounds enforced after every mutation.
const (
	MinTemperatureK = 1.0
	MaxTemperatureK = 10000.0
)

// Thermal holds an entity's thermodynamic state and material constants.
// All units are SI: Kelvin, Joules, kilograms, meters, seconds.
// Plain value struct; serializes by field copy.
type Thermal struct {
	// Current state
	TemperatureK       float32
	CurrentPhase       Phase
	AccumulatedEnergyJ float32 // Running ledger paying for latent-heat transitions

	// Material constants
	SpecificHeatJKgK float32 // J/(kg·K)
	ConductivityWMK  float32 // W/(m·K)
	DiffusivityM2S   float32 // m²/s
	MeltingPointK    float32 // 0 = transition not applicable
	BoilingPointK    float32 // 0 = transition not applicable
	IgnitionTempK    float32 // 0 = incombustible
	LatentFusionJKg  float32
	LatentVaporJKg   float32
	Emissivity       float32 // 0-1
	Absorptivity     float32 // 0-1
	SurfaceAreaM2    float32
	MassKg           float32
	CooldownRateKS   float32 // Passive cooling, K/s

	// State tracking
	IsBurning          bool
	TimeSinceIgnitionS float32
}

// AddEnergy adds thermal energy (negative = removal) and converts it to a
// temperature change via ΔT = Q / (m·c). Returns the resulting temperature.
// The temperature is clamped to the legal range after the mutation.
func (t *Thermal) AddEnergy(joules float32) float32 {
	t.AccumulatedEnergyJ += joules

	heatCapacity := t.MassKg * t.SpecificHeatJKgK
	if heatCapacity > 0 {
		t.TemperatureK += joules / heatCapacity
	}
	t.ClampTemperature()
	return t.TemperatureK
}

// ApplyKineticHeating converts a projectile impact's kinetic energy to heat.
// E = 0.5·m·v², scaled by the conversion efficiency (the rest is deformation).
// Returns the temperature increase.
func (t *Thermal) ApplyKineticHeating(projectileMassKg, velocityMS, efficiency float32) float32 {
	kineticJ := 0.5 * projectileMassKg * velocityMS * velocityMS
	before := t.TemperatureK
	t.AddEnergy(kineticJ * efficiency)
	return t.TemperatureK - before
}

// ClampTemperature clamps the temperature to [MinTemperatureK, MaxTemperatureK].
func (t *Thermal) ClampTemperature() {
	if t.TemperatureK < MinTemperatureK {
		t.TemperatureK = MinTemperatureK
	} else if t.TemperatureK > MaxTemperatureK {
		t.TemperatureK = MaxTemperatureK
	}
}

// CelsiusToKelvin converts °C to K.
func CelsiusToKelvin(c float32) float32 { return c + 273.15 }

// KelvinToCelsius converts K to °C.
func KelvinToCelsius(k float32) float32 { return k - 273.15 }

// Material presets. Constants are real thermodynamic values; temperatures
// default to 20°C ambient.

// SteelThermal returns thermal constants for carbon steel.
func SteelThermal(massKg float32) Thermal {
	return Thermal{
		TemperatureK:     293.15,
		CurrentPhase:     PhaseSolid,
		SpecificHeatJKgK: 500,
		ConductivityWMK:  50,
		DiffusivityM2S:   1.2e-5,
		MeltingPointK:    1811,
		BoilingPointK:    3134,
		LatentFusionJKg:  270000,
		LatentVaporJKg:   6100000,
		Emissivity:       0.8,
		Absorptivity:     0.8,
		SurfaceAreaM2:    1,
		MassKg:           massKg,
		CooldownRateKS:   1,
	}
}

// WoodThermal returns thermal constants for pine. Wood decomposes before
// melting, so the phase transition points are zeroed and only ignition applies.
func WoodThermal(massKg float32) Thermal {
	return Thermal{
		TemperatureK:     293.15,
		CurrentPhase:     PhaseSolid,
		SpecificHeatJKgK: 1700,
		ConductivityWMK:  0.12,
		DiffusivityM2S:   8.2e-8,
		IgnitionTempK:    573.15, // 300°C auto-ignition
		Emissivity:       0.9,
		Absorptivity:     0.9,
		SurfaceAreaM2:    1,
		MassKg:           massKg,
		CooldownRateKS:   0.5,
	}
}

// ConcreteThermal returns thermal constants for concrete.
func ConcreteThermal(massKg float32) Thermal {
	return Thermal{
		TemperatureK:     293.15,
		CurrentPhase:     PhaseSolid,
		SpecificHeatJKgK: 880,
		ConductivityWMK:  1.4,
		DiffusivityM2S:   6.5e-7,
		MeltingPointK:    1923.15,
		Emissivity:       0.9,
		Absorptivity:     0.7,
		SurfaceAreaM2:    1,
		MassKg:           massKg,
		CooldownRateKS:   2,
	}
}

// GasolineThermal returns thermal constants for gasoline (liquid at ambient).
func GasolineThermal(massKg float32) Thermal {
	return Thermal{
		TemperatureK:     293.15,
		CurrentPhase:     PhaseLiquid,
		SpecificHeatJKgK: 2220,
		ConductivityWMK:  0.14,
		DiffusivityM2S:   8.0e-8,
		MeltingPointK:    213.15,
		BoilingPointK:    423.15,
		IgnitionTempK:    553.15, // 280°C auto-ignition
		LatentVaporJKg:   350000,
		Emissivity:       0.95,
		Absorptivity:     0.95,
		SurfaceAreaM2:    1,
		MassKg:           massKg,
		CooldownRateKS:   0.2,
	}
}

// AluminumThermal returns thermal constants for aluminum.
func AluminumThermal(massKg float32) Thermal {
	return Thermal{
		TemperatureK:     293.15,
		CurrentPhase:     PhaseSolid,
		SpecificHeatJKgK: 900,
		ConductivityWMK:  205,
		DiffusivityM2S:   8.4e-5,
		MeltingPointK:    933.15,
		BoilingPointK:    2743.15,
		LatentFusionJKg:  397000,
		LatentVaporJKg:   10500000,
		Emissivity:       0.05, // very reflective
		Absorptivity:     0.1,
		SurfaceAreaM2:    1,
		MassKg:           massKg,
		CooldownRateKS:   5,
	}
}
