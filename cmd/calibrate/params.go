// Package main provides CMA-ES calibration for fire-spread parameters.
package main

import (
	"github.com/pthm-cable/pyre/config"
)

// ParamSpec defines a single calibratable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all calibratable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of calibratable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Combustion
			{Name: "ignition_probability", Path: "combustion.ignition_probability", Min: 0.05, Max: 0.9, Default: 0.3},
			{Name: "spread_multiplier", Path: "combustion.spread_multiplier", Min: 0.2, Max: 3.0, Default: 1.0},
			{Name: "spread_check_interval", Path: "combustion.spread_check_interval_s", Min: 0.1, Max: 2.0, Default: 0.5},
			{Name: "heat_release_mult", Path: "combustion.heat_release_multiplier", Min: 0.2, Max: 3.0, Default: 1.0},
			{Name: "fuel_consumption_mult", Path: "combustion.fuel_consumption_multiplier", Min: 0.2, Max: 3.0, Default: 1.0},
			{Name: "oxygen_depletion_rate", Path: "combustion.oxygen_depletion_rate", Min: 0.0005, Max: 0.01, Default: 0.002},
			// Thermal
			{Name: "heat_transfer_mult", Path: "thermal.heat_transfer_multiplier", Min: 0.2, Max: 3.0, Default: 1.0},
			{Name: "convection_coeff", Path: "thermal.convection_coefficient", Min: 2.0, Max: 50.0, Default: 10.0},
			{Name: "conduction_range", Path: "thermal.conduction_range_m", Min: 0.1, Max: 2.0, Default: 0.5},
			{Name: "radiation_range", Path: "thermal.radiation_range_m", Min: 2.0, Max: 20.0, Default: 10.0},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	// Clamp values to ensure they're within bounds
	clamped := pv.Clamp(values)

	// Order must match Specs order
	i := 0

	cfg.Combustion.IgnitionProbability = clamped[i]
	i++
	cfg.Combustion.SpreadMultiplier = clamped[i]
	i++
	cfg.Combustion.SpreadCheckIntervalS = clamped[i]
	i++
	cfg.Combustion.HeatReleaseMult = clamped[i]
	i++
	cfg.Combustion.FuelConsumptionMult = clamped[i]
	i++
	cfg.Combustion.OxygenDepletionRate = clamped[i]
	i++

	cfg.Thermal.HeatTransferMult = clamped[i]
	i++
	cfg.Thermal.ConvectionCoefficient = clamped[i]
	i++
	cfg.Thermal.ConductionRangeM = clamped[i]
	i++
	cfg.Thermal.RadiationRangeM = clamped[i]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Combustion.IgnitionProbability,
		cfg.Combustion.SpreadMultiplier,
		cfg.Combustion.SpreadCheckIntervalS,
		cfg.Combustion.HeatReleaseMult,
		cfg.Combustion.FuelConsumptionMult,
		cfg.Combustion.OxygenDepletionRate,
		cfg.Thermal.HeatTransferMult,
		cfg.Thermal.ConvectionCoefficient,
		cfg.Thermal.ConductionRangeM,
		cfg.Thermal.RadiationRangeM,
	}
}
