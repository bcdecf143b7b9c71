// Package telemetry collects and exports simulation statistics.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Entity counts at window end
	ThermalEntities int `csv:"thermal_entities"`
	ActiveFires     int `csv:"active_fires"`

	// Events during window
	Ignitions        int `csv:"ignitions"`
	Extinguishments  int `csv:"extinguishments"`
	FireSpreads      int `csv:"fire_spreads"`
	PhaseTransitions int `csv:"phase_transitions"`
	DamageEvents     int `csv:"damage_events"`

	// Heat transfer activity
	ConductionTransfers int     `csv:"conduction_transfers"`
	RadiationTransfers  int     `csv:"radiation_transfers"`
	HeatTransferredJ    float64 `csv:"heat_transferred_j"`

	// Combustion activity
	FuelConsumedKg    float64 `csv:"fuel_consumed_kg"`
	HeatReleasedJ     float64 `csv:"heat_released_j"`
	OxygenConsumedMol float64 `csv:"oxygen_consumed_mol"`
	CO2ProducedMol    float64 `csv:"co2_produced_mol"`

	// Temperature distribution (sampled at window end)
	TempMeanK float64 `csv:"temp_mean_k"`
	TempStdK  float64 `csv:"temp_std_k"`
	TempP10K  float64 `csv:"temp_p10_k"`
	TempP50K  float64 `csv:"temp_p50_k"`
	TempP90K  float64 `csv:"temp_p90_k"`
	TempMaxK  float64 `csv:"temp_max_k"`

	// Particle budgets
	SmokeParticles int `csv:"smoke_particles"`
	EmberParticles int `csv:"ember_particles"`
}

// ComputeTempStats calculates the temperature distribution from sampled
// values. Values are sorted in place.
func ComputeTempStats(values []float64) (mean, std, p10, p50, p90, max float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	sort.Float64s(values)

	mean = stat.Mean(values, nil)
	if n > 1 {
		std = stat.StdDev(values, nil)
	}
	p10 = stat.Quantile(0.10, stat.Empirical, values, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, values, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, values, nil)
	max = values[n-1]

	return mean, std, p10, p50, p90, max
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("thermal_entities", s.ThermalEntities),
		slog.Int("active_fires", s.ActiveFires),
		slog.Int("ignitions", s.Ignitions),
		slog.Int("extinguishments", s.Extinguishments),
		slog.Int("fire_spreads", s.FireSpreads),
		slog.Int("phase_transitions", s.PhaseTransitions),
		slog.Int("damage_events", s.DamageEvents),
		slog.Int("conduction_transfers", s.ConductionTransfers),
		slog.Int("radiation_transfers", s.RadiationTransfers),
		slog.Float64("heat_transferred_j", s.HeatTransferredJ),
		slog.Float64("fuel_consumed_kg", s.FuelConsumedKg),
		slog.Float64("heat_released_j", s.HeatReleasedJ),
		slog.Float64("oxygen_consumed_mol", s.OxygenConsumedMol),
		slog.Float64("co2_produced_mol", s.CO2ProducedMol),
		slog.Float64("temp_mean_k", s.TempMeanK),
		slog.Float64("temp_std_k", s.TempStdK),
		slog.Float64("temp_p10_k", s.TempP10K),
		slog.Float64("temp_p50_k", s.TempP50K),
		slog.Float64("temp_p90_k", s.TempP90K),
		slog.Float64("temp_max_k", s.TempMaxK),
		slog.Int("smoke_particles", s.SmokeParticles),
		slog.Int("ember_particles", s.EmberParticles),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"thermal_entities", s.ThermalEntities,
		"active_fires", s.ActiveFires,
		"ignitions", s.Ignitions,
		"extinguishments", s.Extinguishments,
		"fire_spreads", s.FireSpreads,
		"phase_transitions", s.PhaseTransitions,
		"damage_events", s.DamageEvents,
		"conduction_transfers", s.ConductionTransfers,
		"radiation_transfers", s.RadiationTransfers,
		"heat_transferred_j", s.HeatTransferredJ,
		"fuel_consumed_kg", s.FuelConsumedKg,
		"heat_released_j", s.HeatReleasedJ,
		"oxygen_consumed_mol", s.OxygenConsumedMol,
		"co2_produced_mol", s.CO2ProducedMol,
		"temp_mean_k", s.TempMeanK,
		"temp_std_k", s.TempStdK,
		"temp_p50_k", s.TempP50K,
		"temp_p90_k", s.TempP90K,
		"temp_max_k", s.TempMaxK,
		"smoke_particles", s.SmokeParticles,
		"ember_particles", s.EmberParticles,
	)
}
