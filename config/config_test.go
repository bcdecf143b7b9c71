package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}

	if cfg.World.AmbientTemperatureK != 293.15 {
		t.Errorf("ambient temp = %v, want 293.15", cfg.World.AmbientTemperatureK)
	}
	if cfg.World.AmbientOxygen != 0.21 {
		t.Errorf("ambient oxygen = %v, want 0.21", cfg.World.AmbientOxygen)
	}
	if cfg.Thermal.UpdateRateHz != 30 {
		t.Errorf("thermal rate = %v, want 30", cfg.Thermal.UpdateRateHz)
	}
	if cfg.Combustion.UpdateRateHz != 60 {
		t.Errorf("combustion rate = %v, want 60", cfg.Combustion.UpdateRateHz)
	}
	if !cfg.Thermal.EnableHeatTransfer || !cfg.Combustion.EnableFireSpread {
		t.Error("subsystems should be enabled by default")
	}
	if cfg.Scenario.Materials["wood"] != 40 {
		t.Errorf("wood count = %d, want 40", cfg.Scenario.Materials["wood"])
	}
}

func TestLoadComputesDerived(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(float64(cfg.Derived.FrameDT32)-1.0/60.0) > 1e-6 {
		t.Errorf("FrameDT32 = %v, want ~1/60", cfg.Derived.FrameDT32)
	}
	if cfg.Derived.AmbientTemp32 != 293.15 {
		t.Errorf("AmbientTemp32 = %v, want 293.15", cfg.Derived.AmbientTemp32)
	}
	if cfg.Derived.AmbientO232 != 0.21 {
		t.Errorf("AmbientO232 = %v, want 0.21", cfg.Derived.AmbientO232)
	}
}

func TestLoadOverrideFile(t *testing.T) {
	override := `
thermal:
  update_rate_hz: 10.0
combustion:
  ignition_probability: 0.9
scenario:
  frame_rate_hz: 30.0
`
	path := filepath.Join(t.TempDir(), "override.yaml")
	if err := os.WriteFile(path, []byte(override), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(override) error: %v", err)
	}

	if cfg.Thermal.UpdateRateHz != 10 {
		t.Errorf("thermal rate = %v, want overridden 10", cfg.Thermal.UpdateRateHz)
	}
	if cfg.Combustion.IgnitionProbability != 0.9 {
		t.Errorf("ignition probability = %v, want overridden 0.9", cfg.Combustion.IgnitionProbability)
	}
	// Fields absent from the override keep their defaults
	if cfg.Thermal.ConvectionCoefficient != 10 {
		t.Errorf("convection coefficient = %v, want default 10", cfg.Thermal.ConvectionCoefficient)
	}
	if cfg.Combustion.SpreadCheckIntervalS != 0.5 {
		t.Errorf("spread interval = %v, want default 0.5", cfg.Combustion.SpreadCheckIntervalS)
	}
	// Derived values follow the override
	if math.Abs(float64(cfg.Derived.FrameDT32)-1.0/30.0) > 1e-6 {
		t.Errorf("FrameDT32 = %v, want ~1/30", cfg.Derived.FrameDT32)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadZeroFrameRateFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zero.yaml")
	if err := os.WriteFile(path, []byte("scenario:\n  frame_rate_hz: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scenario.FrameRateHz != 60 {
		t.Errorf("frame rate = %v, want fallback 60", cfg.Scenario.FrameRateHz)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Combustion.SpreadMultiplier = 2.5

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if loaded.Combustion.SpreadMultiplier != 2.5 {
		t.Errorf("round-tripped spread multiplier = %v, want 2.5", loaded.Combustion.SpreadMultiplier)
	}
}

func TestInitAndCfg(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	if Cfg() == nil {
		t.Fatal("Cfg returned nil after Init")
	}
	if Cfg().World.AmbientTemperatureK != 293.15 {
		t.Errorf("global ambient temp = %v, want 293.15", Cfg().World.AmbientTemperatureK)
	}
}
