// Package config provides configuration loading and access for the engine.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all engine configuration parameters.
type Config struct {
	World      WorldConfig      `yaml:"world"`
	Thermal    ThermalConfig    `yaml:"thermal"`
	Combustion CombustionConfig `yaml:"combustion"`
	Scenario   ScenarioConfig   `yaml:"scenario"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds environment parameters shared by both subsystems.
type WorldConfig struct {
	AmbientTemperatureK float64 `yaml:"ambient_temperature_k"` // World ambient temperature
	AmbientOxygen       float64 `yaml:"ambient_oxygen"`        // O2 concentration of free air (0-1)
	ExtentM             float64 `yaml:"extent_m"`              // Scenario spawn extent per axis
}

// ThermalConfig holds the heat-transfer subsystem parameters.
type ThermalConfig struct {
	UpdateRateHz          float64 `yaml:"update_rate_hz"`           // Fixed steps per second
	ConvectionCoefficient float64 `yaml:"convection_coefficient"`   // Natural convection h, W/(m²·K)
	ConductionRangeM      float64 `yaml:"conduction_range_m"`       // Max distance for conduction
	RadiationRangeM       float64 `yaml:"radiation_range_m"`        // Max distance for radiation
	MinTempDiffK          float64 `yaml:"min_temp_diff_k"`          // Min ΔT to bother transferring
	HeatTransferMult      float64 `yaml:"heat_transfer_multiplier"` // Global transfer rate scale
	BurnThresholdTempK    float64 `yaml:"burn_threshold_temp_k"`    // Tissue damage starts here
	InstantBurnTempK      float64 `yaml:"instant_burn_temp_k"`      // Severe burn multiplier kicks in
	DamageRateJPerUnit    float64 `yaml:"damage_rate_j_per_unit"`   // Joules per damage point
	HysteresisK           float64 `yaml:"phase_transition_hysteresis_k"`
	AllowSublimation      bool    `yaml:"allow_sublimation"`
	TrackLatentHeat       bool    `yaml:"track_latent_heat"`
	GridCellSizeM         float64 `yaml:"spatial_grid_cell_size_m"`
	MaxNeighbors          int     `yaml:"max_neighbors"`

	EnableHeatTransfer     bool `yaml:"enable_heat_transfer"`
	EnablePhaseTransitions bool `yaml:"enable_phase_transitions"`
	EnableIgnitionChecks   bool `yaml:"enable_ignition_checks"`
	EnableThermalDamage    bool `yaml:"enable_thermal_damage"`

	LogPhaseTransitions bool `yaml:"log_phase_transitions"`
	LogIgnitions        bool `yaml:"log_ignitions"`
}

// CombustionConfig holds the fire-spread subsystem parameters.
type CombustionConfig struct {
	UpdateRateHz         float64 `yaml:"update_rate_hz"`
	OxygenDepletionRate  float64 `yaml:"oxygen_depletion_rate"` // O2 fraction removed per kg of fuel burned
	SpreadCheckIntervalS float64 `yaml:"spread_check_interval_s"`
	IgnitionProbability  float64 `yaml:"ignition_probability"`
	SpreadMultiplier     float64 `yaml:"spread_multiplier"`
	RequireLineOfSight   bool    `yaml:"require_line_of_sight"`
	HeatReleaseMult      float64 `yaml:"heat_release_multiplier"`
	FuelConsumptionMult  float64 `yaml:"fuel_consumption_multiplier"`
	GridCellSizeM        float64 `yaml:"spatial_grid_cell_size_m"`

	MaxSmokeParticles int     `yaml:"max_smoke_particles"`
	MaxEmberParticles int     `yaml:"max_ember_particles"`
	ParticleSpawnMult float64 `yaml:"particle_spawn_rate_multiplier"`

	EnableFireSpread        bool `yaml:"enable_fire_spread"`
	EnableHeatGeneration    bool `yaml:"enable_heat_generation"`
	EnableOxygenConsumption bool `yaml:"enable_oxygen_consumption"`
	EnableParticleBudget    bool `yaml:"enable_particle_budget"`

	LogIgnitions       bool `yaml:"log_ignitions"`
	LogExtinguishments bool `yaml:"log_extinguishments"`
	LogFuelDepletion   bool `yaml:"log_fuel_depletion"`
}

// ScenarioConfig describes the demo population spawned by the headless runner.
type ScenarioConfig struct {
	FrameRateHz  float64        `yaml:"frame_rate_hz"` // Host frame rate driving Step(dt)
	InitialFires int            `yaml:"initial_fires"` // Entities ignited at start
	Materials    map[string]int `yaml:"materials"`     // Preset name -> spawn count
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	FrameDT32     float32 // 1 / Scenario.FrameRateHz as float32
	AmbientTemp32 float32 // World.AmbientTemperatureK as float32
	AmbientO232   float32 // World.AmbientOxygen as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	if c.Scenario.FrameRateHz <= 0 {
		c.Scenario.FrameRateHz = 60
	}
	c.Derived.FrameDT32 = float32(1.0 / c.Scenario.FrameRateHz)
	c.Derived.AmbientTemp32 = float32(c.World.AmbientTemperatureK)
	c.Derived.AmbientO232 = float32(c.World.AmbientOxygen)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
