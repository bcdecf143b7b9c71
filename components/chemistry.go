package components

import "github.com/pthm-cable/pyre/chemistry"

// ElementFraction is one element's share of a material's composition.
type ElementFraction struct {
	Symbol       string
	MolarRatio   float32 // Moles of element per formula unit
	MassFraction float32 // 0-1
}

// ChemicalComposition describes what a material is made of and how it burns.
// It is owned and lifecycled by the host; the thermal and combustion systems
// consume it read-only.
type ChemicalComposition struct {
	Formula  string // e.g. "C6H10O5" for cellulose
	Elements []ElementFraction

	// Oxidation properties
	Combustible          bool
	OxidationRate        float32 // 0-10 scale
	OxygenPerMol         float32 // Moles of O2 per mole of compound
	HeatOfCombustionJKg  float32 // Energy released per kg of fuel burned
	CombustionEfficiency float32 // How complete the burn is (0-1)

	// Byproduct scaling, consumed by particle/visual collaborators
	SootProductionRate float32 // 0-1
	SmokeDensityFactor float32
	CO2ProductionRatio float32 // 1 = complete combustion, 0 = all CO
	WaterVaporRatio    float32
	AshResidueFraction float32 // 0-1 solid residue

	// Thermal decomposition
	CanDecompose          bool
	DecompositionTempK    float32
	DecompositionProducts []string
}

// MolecularWeight computes the compound's molecular weight (g/mol) against
// the injected element table.
func (c *ChemicalComposition) MolecularWeight(table *chemistry.Table) float64 {
	parts := make([]chemistry.Part, len(c.Elements))
	for i, e := range c.Elements {
		parts[i] = chemistry.Part{Symbol: e.Symbol, MolarRatio: float64(e.MolarRatio)}
	}
	return table.MolecularWeight(parts)
}

// CanOxidize reports whether the material can burn: it must be flagged
// combustible and contain a fuel element (carbon or hydrogen).
func (c *ChemicalComposition) CanOxidize() bool {
	if !c.Combustible {
		return false
	}
	for _, e := range c.Elements {
		if e.Symbol == "C" || e.Symbol == "H" {
			return true
		}
	}
	return false
}

// OxygenConsumption returns the O2 uptake (mol/s) for a given fuel burn rate.
func (c *ChemicalComposition) OxygenConsumption(burnRateMolS float32) float32 {
	return c.OxygenPerMol * burnRateMolS
}

// CO2Production returns the CO2 output (mol/s) for a given fuel burn rate.
// Carbon diverted to CO and soot does not count.
func (c *ChemicalComposition) CO2Production(burnRateMolS float32) float32 {
	for _, e := range c.Elements {
		if e.Symbol == "C" {
			return e.MolarRatio * c.CO2ProductionRatio * burnRateMolS
		}
	}
	return 0
}

// HeatRelease returns the energy (J) released by burning the given fuel mass,
// scaled by combustion efficiency.
func (c *ChemicalComposition) HeatRelease(fuelKg float32) float32 {
	return c.HeatOfCombustionJKg * fuelKg * c.CombustionEfficiency
}

// CombustionProducts returns product formulas and their molar quantities for
// one mole of fuel. Incomplete combustion splits carbon between CO2, CO and
// soot.
//
//	CxHyOz + O2 → x·CO2 + (y/2)·H2O (+ heat)
func (c *ChemicalComposition) CombustionProducts(incomplete bool) map[string]float32 {
	products := make(map[string]float32)
	if !c.Combustible {
		return products
	}

	var carbon, hydrogen float32
	for _, e := range c.Elements {
		switch e.Symbol {
		case "C":
			carbon = e.MolarRatio
		case "H":
			hydrogen = e.MolarRatio
		}
	}

	if incomplete || c.CombustionEfficiency < 0.9 {
		coRatio := 1 - c.CO2ProductionRatio
		products["CO2"] = carbon * c.CO2ProductionRatio
		products["CO"] = carbon * coRatio
		products["C"] = carbon * c.SootProductionRate // soot
	} else {
		products["CO2"] = carbon
	}

	products["H2O"] = (hydrogen / 2) * c.WaterVaporRatio

	if c.AshResidueFraction > 0 {
		products["Ash"] = c.AshResidueFraction
	}

	return products
}

// Composition presets matching the thermal material presets.

// WoodComposition returns cellulose (C6H10O5).
func WoodComposition() ChemicalComposition {
	return ChemicalComposition{
		Formula: "C6H10O5",
		Elements: []ElementFraction{
			{Symbol: "C", MolarRatio: 6, MassFraction: 0.444},
			{Symbol: "H", MolarRatio: 10, MassFraction: 0.062},
			{Symbol: "O", MolarRatio: 5, MassFraction: 0.494},
		},
		Combustible:          true,
		OxidationRate:        2,
		OxygenPerMol:         6,
		HeatOfCombustionJKg:  15e6,
		CombustionEfficiency: 0.85,
		SootProductionRate:   0.15,
		SmokeDensityFactor:   1.2,
		CO2ProductionRatio:   0.9,
		WaterVaporRatio:      1,
		AshResidueFraction:   0.05,
		CanDecompose:         true,
		DecompositionTempK:   523.15,
		DecompositionProducts: []string{
			"C", "CO", "H2O",
		},
	}
}

// GasolineComposition returns octane (C8H18).
func GasolineComposition() ChemicalComposition {
	return ChemicalComposition{
		Formula: "C8H18",
		Elements: []ElementFraction{
			{Symbol: "C", MolarRatio: 8, MassFraction: 0.842},
			{Symbol: "H", MolarRatio: 18, MassFraction: 0.158},
		},
		Combustible:          true,
		OxidationRate:        8,
		OxygenPerMol:         12.5,
		HeatOfCombustionJKg:  44e6,
		CombustionEfficiency: 0.95,
		SootProductionRate:   0.1,
		SmokeDensityFactor:   1.5,
		CO2ProductionRatio:   0.95,
		WaterVaporRatio:      1,
	}
}

// SteelComposition returns iron with trace carbon; not combustible.
func SteelComposition() ChemicalComposition {
	return ChemicalComposition{
		Formula: "Fe",
		Elements: []ElementFraction{
			{Symbol: "Fe", MolarRatio: 1, MassFraction: 0.98},
			{Symbol: "C", MolarRatio: 0.02, MassFraction: 0.02},
		},
	}
}

// ConcreteComposition returns calcium silicate; not combustible.
func ConcreteComposition() ChemicalComposition {
	return ChemicalComposition{
		Formula: "CaSiO3",
		Elements: []ElementFraction{
			{Symbol: "Ca", MolarRatio: 1, MassFraction: 0.345},
			{Symbol: "Si", MolarRatio: 1, MassFraction: 0.242},
			{Symbol: "O", MolarRatio: 3, MassFraction: 0.413},
		},
	}
}

// AluminumComposition returns pure aluminum; not combustible in bulk form.
func AluminumComposition() ChemicalComposition {
	return ChemicalComposition{
		Formula: "Al",
		Elements: []ElementFraction{
			{Symbol: "Al", MolarRatio: 1, MassFraction: 1},
		},
	}
}
