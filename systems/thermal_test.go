package systems

import (
	"errors"
	"math"
	"testing"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/pyre/components"
)

// quietThermalConfig returns a config with every process disabled so tests
// can switch on exactly the one under test.
func quietThermalConfig() ThermalConfig {
	cfg := DefaultThermalConfig()
	cfg.EnableConduction = false
	cfg.EnableRadiation = false
	cfg.EnableConvection = false
	cfg.EnablePhaseChange = false
	cfg.EnableIgnition = false
	cfg.EnableDamage = false
	return cfg
}

type thermalFixture struct {
	world   *ecs.World
	system  *ThermalSystem
	mapper  *ecs.Map2[components.Position, components.Thermal]
	thMap   *ecs.Map1[components.Thermal]
	chemMap *ecs.Map1[components.ChemicalComposition]
}

func newThermalFixture(t *testing.T, cfg ThermalConfig) *thermalFixture {
	t.Helper()
	world := ecs.NewWorld()
	return &thermalFixture{
		world:   world,
		system:  NewThermalSystem(world, cfg, nil),
		mapper:  ecs.NewMap2[components.Position, components.Thermal](world),
		thMap:   ecs.NewMap1[components.Thermal](world),
		chemMap: ecs.NewMap1[components.ChemicalComposition](world),
	}
}

func (f *thermalFixture) spawn(pos components.Position, th components.Thermal) ecs.Entity {
	return f.mapper.NewEntity(&pos, &th)
}

func (f *thermalFixture) stepOnce(t *testing.T) {
	t.Helper()
	if !f.system.Update(f.system.FixedDT()) {
		t.Fatal("fixed step did not run")
	}
}

type stubIgniter struct {
	calls []ecs.Entity
	err   error
}

func (s *stubIgniter) Ignite(e ecs.Entity, _ float32) error {
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, e)
	return nil
}

func TestConductionConservesEnergy(t *testing.T) {
	cfg := quietThermalConfig()
	cfg.EnableConduction = true
	f := newThermalFixture(t, cfg)

	hot := components.SteelThermal(1)
	hot.TemperatureK = 500
	cold := components.SteelThermal(1)
	cold.TemperatureK = 300

	hotE := f.spawn(components.Position{X: 0}, hot)
	coldE := f.spawn(components.Position{X: 0.1}, cold)

	f.stepOnce(t)

	hotT := f.thMap.Get(hotE).TemperatureK
	coldT := f.thMap.Get(coldE).TemperatureK

	if hotT >= 500 {
		t.Errorf("hot entity did not cool: %v", hotT)
	}
	if coldT <= 300 {
		t.Errorf("cold entity did not warm: %v", coldT)
	}
	// Equal masses and specific heats, so conservation means the temperature
	// sum is invariant.
	if math.Abs(float64(hotT+coldT-800)) > 0.01 {
		t.Errorf("temperature sum = %v, want 800 (energy conserved)", hotT+coldT)
	}
	if f.system.Stats().ConductionTransfers == 0 {
		t.Error("no conduction transfer recorded")
	}
}

func TestConductionRespectsMinTempDiff(t *testing.T) {
	cfg := quietThermalConfig()
	cfg.EnableConduction = true
	cfg.MinTempDiffK = 1
	f := newThermalFixture(t, cfg)

	a := components.SteelThermal(1)
	a.TemperatureK = 300.5
	b := components.SteelThermal(1)
	b.TemperatureK = 300

	aE := f.spawn(components.Position{X: 0}, a)
	f.spawn(components.Position{X: 0.1}, b)

	f.stepOnce(t)

	if got := f.thMap.Get(aE).TemperatureK; got != 300.5 {
		t.Errorf("transfer happened below the minimum difference: %v", got)
	}
}

func TestRadiationReachesBeyondConductionRange(t *testing.T) {
	cfg := quietThermalConfig()
	cfg.EnableRadiation = true
	f := newThermalFixture(t, cfg)

	hot := components.SteelThermal(1)
	hot.TemperatureK = 2000
	cold := components.SteelThermal(1)
	cold.TemperatureK = 300

	hotE := f.spawn(components.Position{X: 0}, hot)
	coldE := f.spawn(components.Position{X: 5}, cold) // past conduction range

	f.stepOnce(t)

	if got := f.thMap.Get(hotE).TemperatureK; got >= 2000 {
		t.Errorf("radiating entity did not cool: %v", got)
	}
	if got := f.thMap.Get(coldE).TemperatureK; got <= 300 {
		t.Errorf("radiated entity did not warm: %v", got)
	}
	if f.system.Stats().RadiationTransfers == 0 {
		t.Error("no radiation transfer recorded")
	}
}

func TestConvectionOnlyCoolsAboveAmbient(t *testing.T) {
	cfg := quietThermalConfig()
	cfg.EnableConvection = true
	f := newThermalFixture(t, cfg)

	hot := components.SteelThermal(1)
	hot.TemperatureK = 400
	chilled := components.SteelThermal(1)
	chilled.TemperatureK = 250 // below ambient

	hotE := f.spawn(components.Position{X: 0}, hot)
	chilledE := f.spawn(components.Position{X: 100}, chilled)

	f.stepOnce(t)

	if got := f.thMap.Get(hotE).TemperatureK; got >= 400 {
		t.Errorf("hot entity did not shed heat to ambient: %v", got)
	}
	if got := f.thMap.Get(chilledE).TemperatureK; got != 250 {
		t.Errorf("ambient warming is not modeled, but temp changed: %v", got)
	}
}

func TestPhaseTransitionHysteresis(t *testing.T) {
	cfg := quietThermalConfig()
	cfg.EnablePhaseChange = true
	cfg.TrackLatentHeat = false
	cfg.AllowSublimation = false
	cfg.HysteresisK = 2
	f := newThermalFixture(t, cfg)

	ice := components.Thermal{
		TemperatureK:     270,
		CurrentPhase:     components.PhaseSolid,
		SpecificHeatJKgK: 2100,
		MeltingPointK:    273.15,
		MassKg:           1,
		SurfaceAreaM2:    1,
	}
	e := f.spawn(components.Position{}, ice)
	th := f.thMap.Get(e)

	steps := []struct {
		tempK float32
		want  components.Phase
	}{
		{274, components.PhaseSolid},    // inside the band, no flip
		{276, components.PhaseLiquid},   // past melting + hysteresis
		{272.5, components.PhaseLiquid}, // inside the band, no flip back
		{270, components.PhaseSolid},    // past melting - hysteresis
	}

	for _, s := range steps {
		th.TemperatureK = s.tempK
		f.stepOnce(t)
		if th.CurrentPhase != s.want {
			t.Errorf("at %v K phase = %v, want %v", s.tempK, th.CurrentPhase, s.want)
		}
	}
}

func TestLatentHeatGating(t *testing.T) {
	cfg := quietThermalConfig()
	cfg.EnablePhaseChange = true
	cfg.TrackLatentHeat = true
	cfg.AllowSublimation = false
	f := newThermalFixture(t, cfg)

	th := components.Thermal{
		TemperatureK:     280,
		CurrentPhase:     components.PhaseSolid,
		SpecificHeatJKgK: 2100,
		MeltingPointK:    273.15,
		LatentFusionJKg:  334000,
		MassKg:           1,
		SurfaceAreaM2:    1,
	}
	e := f.spawn(components.Position{}, th)
	rec := f.thMap.Get(e)

	// Past the melting point but the ledger cannot pay the latent cost.
	f.stepOnce(t)
	if rec.CurrentPhase != components.PhaseSolid {
		t.Fatal("melted without paying latent heat")
	}

	rec.AccumulatedEnergyJ = 334000
	f.stepOnce(t)
	if rec.CurrentPhase != components.PhaseLiquid {
		t.Fatal("did not melt once latent heat was available")
	}
	if math.Abs(float64(rec.AccumulatedEnergyJ)) > 0.01 {
		t.Errorf("ledger = %v, want debited to 0", rec.AccumulatedEnergyJ)
	}

	// Freezing credits the ledger back.
	rec.TemperatureK = 270
	f.stepOnce(t)
	if rec.CurrentPhase != components.PhaseSolid {
		t.Fatal("did not freeze below melting - hysteresis")
	}
	if math.Abs(float64(rec.AccumulatedEnergyJ-334000)) > 0.01 {
		t.Errorf("ledger = %v, want credited back to 334000", rec.AccumulatedEnergyJ)
	}
}

func TestSublimation(t *testing.T) {
	cfg := quietThermalConfig()
	cfg.EnablePhaseChange = true
	cfg.TrackLatentHeat = false
	cfg.AllowSublimation = true
	f := newThermalFixture(t, cfg)

	th := components.Thermal{
		TemperatureK:     360, // past mean(300, 400) + hysteresis
		CurrentPhase:     components.PhaseSolid,
		SpecificHeatJKgK: 1000,
		MeltingPointK:    300,
		BoilingPointK:    400,
		MassKg:           1,
		SurfaceAreaM2:    1,
	}
	e := f.spawn(components.Position{}, th)

	f.stepOnce(t)
	if got := f.thMap.Get(e).CurrentPhase; got != components.PhaseGas {
		t.Errorf("phase = %v, want gas (sublimated)", got)
	}
}

func TestAutoIgnition(t *testing.T) {
	cfg := quietThermalConfig()
	cfg.EnableIgnition = true
	f := newThermalFixture(t, cfg)

	ig := &stubIgniter{}
	f.system.SetIgniter(ig)

	wood := components.WoodThermal(5)
	wood.TemperatureK = 600 // above 573.15 auto-ignition
	e := f.spawn(components.Position{}, wood)
	chem := components.WoodComposition()
	f.chemMap.Add(e, &chem)

	f.stepOnce(t)

	if len(ig.calls) != 1 || ig.calls[0] != e {
		t.Fatalf("igniter calls = %v, want [%v]", ig.calls, e)
	}
	if !f.thMap.Get(e).IsBurning {
		t.Error("entity not marked burning after ignition")
	}
	if f.system.Stats().Ignitions != 1 {
		t.Errorf("ignitions = %d, want 1", f.system.Stats().Ignitions)
	}

	// Already burning: no second ignition
	f.stepOnce(t)
	if len(ig.calls) != 1 {
		t.Errorf("burning entity re-ignited: %v", ig.calls)
	}
}

func TestIgnitionRequiresChemistry(t *testing.T) {
	cfg := quietThermalConfig()
	cfg.EnableIgnition = true
	f := newThermalFixture(t, cfg)

	ig := &stubIgniter{}
	f.system.SetIgniter(ig)

	wood := components.WoodThermal(5)
	wood.TemperatureK = 600
	f.spawn(components.Position{}, wood) // no composition component

	f.stepOnce(t)
	if len(ig.calls) != 0 {
		t.Errorf("entity without chemistry ignited: %v", ig.calls)
	}
}

func TestThermalDamage(t *testing.T) {
	cfg := quietThermalConfig()
	cfg.EnableDamage = true

	world := ecs.NewWorld()
	sink := NewHealthDamageSink(world)
	system := NewThermalSystem(world, cfg, sink)

	mapper := ecs.NewMap3[components.Position, components.Thermal, components.Health](world)
	healthMap := ecs.NewMap1[components.Health](world)

	spawn := func(x, massKg float32) ecs.Entity {
		th := components.SteelThermal(massKg)
		th.TemperatureK = 400 // above both damage thresholds
		pos := components.Position{X: x}
		hp := components.Health{Current: 100, Max: 100}
		return mapper.NewEntity(&pos, &th, &hp)
	}

	light := spawn(0, 1)
	heavy := spawn(50, 2)

	if !system.Update(system.FixedDT()) {
		t.Fatal("fixed step did not run")
	}

	lightHP := healthMap.Get(light).Current
	heavyHP := healthMap.Get(heavy).Current
	if lightHP >= 100 {
		t.Errorf("health = %v, want reduced", lightHP)
	}
	// Overheating damage scales with thermal mass: twice the mass holds twice
	// the excess heat.
	if heavyHP >= lightHP {
		t.Errorf("2 kg body lost %v HP, 1 kg body lost %v; heavier should lose more",
			100-heavyHP, 100-lightHP)
	}
	if system.Stats().DamageEvents == 0 {
		t.Error("no damage event recorded")
	}
}

func TestAccessorsMissingRecord(t *testing.T) {
	f := newThermalFixture(t, quietThermalConfig())

	posMap := ecs.NewMap1[components.Position](f.world)
	pos := components.Position{}
	bare := posMap.NewEntity(&pos)

	if _, err := f.system.Temperature(bare); !errors.Is(err, ErrNoThermal) {
		t.Errorf("Temperature error = %v, want ErrNoThermal", err)
	}
	if err := f.system.SetTemperature(bare, 500); !errors.Is(err, ErrNoThermal) {
		t.Errorf("SetTemperature error = %v, want ErrNoThermal", err)
	}
	if _, err := f.system.ApplyHeat(bare, 1000); !errors.Is(err, ErrNoThermal) {
		t.Errorf("ApplyHeat error = %v, want ErrNoThermal", err)
	}
	if _, err := f.system.ApplyKineticHeating(bare, 1, 100, 0.5); !errors.Is(err, ErrNoThermal) {
		t.Errorf("ApplyKineticHeating error = %v, want ErrNoThermal", err)
	}
	if f.system.CanIgnite(bare) {
		t.Error("entity without records reported ignitable")
	}
}

func TestSetTemperatureClamps(t *testing.T) {
	f := newThermalFixture(t, quietThermalConfig())
	e := f.spawn(components.Position{}, components.SteelThermal(1))

	if err := f.system.SetTemperature(e, 1e9); err != nil {
		t.Fatal(err)
	}
	if got, _ := f.system.Temperature(e); got != components.MaxTemperatureK {
		t.Errorf("temperature = %v, want clamped to max", got)
	}

	if err := f.system.SetTemperature(e, -40); err != nil {
		t.Fatal(err)
	}
	if got, _ := f.system.Temperature(e); got != components.MinTemperatureK {
		t.Errorf("temperature = %v, want clamped to min", got)
	}
}

func TestFixedTimestepAccumulation(t *testing.T) {
	cfg := quietThermalConfig()
	cfg.UpdateRateHz = 30
	f := newThermalFixture(t, cfg)

	half := f.system.FixedDT() / 2
	if f.system.Update(half) {
		t.Error("half a fixed step should not trigger an update")
	}
	if !f.system.Update(half) {
		t.Error("accumulated time should trigger an update")
	}

	// A long frame triggers exactly one step; the excess stays banked.
	if !f.system.Update(f.system.FixedDT() * 1.5) {
		t.Error("long frame should trigger an update")
	}
	if !f.system.Update(half) {
		t.Error("banked excess plus half a step should trigger an update")
	}
}

func TestKineticHeatingCanReachIgnition(t *testing.T) {
	cfg := quietThermalConfig()
	cfg.EnableIgnition = true
	f := newThermalFixture(t, cfg)

	ig := &stubIgniter{}
	f.system.SetIgniter(ig)

	wood := components.WoodThermal(1)
	e := f.spawn(components.Position{}, wood)
	chem := components.WoodComposition()
	f.chemMap.Add(e, &chem)

	// 0.5 * 1 kg * (1100 m/s)^2 * 0.9 = 544.5 kJ into 1 kg of wood
	// (c = 1700) is a rise of ~320 K, taking 293 K past 573 K ignition.
	rise, err := f.system.ApplyKineticHeating(e, 1, 1100, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if rise < 300 {
		t.Fatalf("temperature rise = %v, want > 300", rise)
	}

	f.stepOnce(t)
	if len(ig.calls) != 1 {
		t.Errorf("impact heating did not trigger ignition: %v", ig.calls)
	}
}
