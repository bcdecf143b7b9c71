package main

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/pyre/components"
	"github.com/pthm-cable/pyre/config"
	"github.com/pthm-cable/pyre/sim"
)

// Targets describe the burn behavior the calibration aims for: how much of
// the combustible population a single initial fire should consume, and how
// long the whole event should take.
type Targets struct {
	BurnFraction float64 // Fraction of combustibles that should ever ignite
	BurnoutTimeS float64 // Sim-seconds until all fires are out
}

// FitnessEvaluator scores parameter vectors by running the reference
// scenario and comparing the resulting burn against the targets.
type FitnessEvaluator struct {
	params   *ParamVector
	maxTicks int32
	seeds    []int64
	baseCfg  *config.Config
	targets  Targets

	lastQuality float64
}

// NewFitnessEvaluator creates a fitness evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config, targets Targets) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:   params,
		maxTicks: maxTicks,
		seeds:    seeds,
		baseCfg:  baseCfg,
		targets:  targets,
	}
}

// LastQuality returns the quality metric of the most recent evaluation.
func (f *FitnessEvaluator) LastQuality() float64 {
	return f.lastQuality
}

// runResult summarizes a single simulation run.
type runResult struct {
	burnFraction float64
	burnoutTimeS float64
	burnedOut    bool
}

// Evaluate runs the scenario once per seed and returns the mean squared
// deviation from the targets. Lower is better.
func (f *FitnessEvaluator) Evaluate(raw []float64) float64 {
	var totalErr float64

	for _, seed := range f.seeds {
		cfg := *f.baseCfg
		f.params.ApplyToConfig(&cfg, raw)

		res, err := f.runOnce(&cfg, seed)
		if err != nil {
			totalErr += 100
			continue
		}

		burnErr := res.burnFraction - f.targets.BurnFraction
		timeErr := (res.burnoutTimeS - f.targets.BurnoutTimeS) / f.targets.BurnoutTimeS
		if !res.burnedOut {
			// Fires still alive at the cap: penalize by the cap overshoot.
			timeErr = 1
		}

		totalErr += burnErr*burnErr + 0.5*timeErr*timeErr
	}

	fitness := totalErr / float64(len(f.seeds))
	f.lastQuality = math.Max(0, 1-fitness)
	return fitness
}

// runOnce runs the scenario to burnout or the tick cap and measures the burn.
func (f *FitnessEvaluator) runOnce(cfg *config.Config, seed int64) (runResult, error) {
	s, err := sim.New(cfg, sim.Options{Seed: seed})
	if err != nil {
		return runResult{}, err
	}
	if err := s.SpawnScenario(cfg.Scenario, cfg.World.ExtentM); err != nil {
		return runResult{}, err
	}

	dt := cfg.Derived.FrameDT32
	var res runResult

	for tick := int32(0); tick < f.maxTicks; tick++ {
		s.Step(dt)

		if s.Combustion().Stats().ActiveFires == 0 && tick > int32(1/dt) {
			res.burnedOut = true
			res.burnoutTimeS = float64(tick) * float64(dt)
			break
		}
	}
	if !res.burnedOut {
		res.burnoutTimeS = float64(f.maxTicks) * float64(dt)
	}

	res.burnFraction = burnFraction(s.World())
	return res, nil
}

// burnFraction returns the share of combustible entities that ever ignited.
func burnFraction(world *ecs.World) float64 {
	filter := ecs.NewFilter2[components.Thermal, components.ChemicalComposition](world)

	var combustible, burned int
	query := filter.Query()
	for query.Next() {
		th, chem := query.Get()
		if !chem.CanOxidize() {
			continue
		}
		combustible++
		if th.IsBurning || th.TimeSinceIgnitionS > 0 {
			burned++
		}
	}

	if combustible == 0 {
		return 0
	}
	return float64(burned) / float64(combustible)
}
