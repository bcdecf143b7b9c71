// Package chemistry provides the element lookup table used by chemical
// composition components. The table is explicitly constructed and passed by
// reference into whatever needs it; there is no global singleton, so tests can
// substitute synthetic tables.
package chemistry

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/gocarina/gocsv"
)

//go:embed elements.csv
var elementsCSV []byte

// Element holds the per-element constants the engine consumes.
type Element struct {
	Symbol        string  `csv:"symbol"`
	Name          string  `csv:"name"`
	AtomicNumber  int     `csv:"atomic_number"`
	AtomicMassAMU float64 `csv:"atomic_mass_amu"`
}

// Table is a read-only element lookup keyed by symbol.
type Table struct {
	bySymbol map[string]Element
}

// NewTable builds a table from an explicit element list.
func NewTable(elements []Element) *Table {
	t := &Table{bySymbol: make(map[string]Element, len(elements))}
	for _, e := range elements {
		t.bySymbol[e.Symbol] = e
	}
	return t
}

// LoadDefault builds the table from the embedded element data.
func LoadDefault() (*Table, error) {
	var elements []Element
	if err := gocsv.Unmarshal(bytes.NewReader(elementsCSV), &elements); err != nil {
		return nil, fmt.Errorf("parsing embedded element data: %w", err)
	}
	return NewTable(elements), nil
}

// MustLoadDefault is like LoadDefault but panics on error.
func MustLoadDefault() *Table {
	t, err := LoadDefault()
	if err != nil {
		panic(fmt.Sprintf("chemistry: failed to load element table: %v", err))
	}
	return t
}

// Lookup returns the element for a symbol.
func (t *Table) Lookup(symbol string) (Element, bool) {
	e, ok := t.bySymbol[symbol]
	return e, ok
}

// AtomicMass returns the atomic mass for a symbol, or 0 if unknown.
func (t *Table) AtomicMass(symbol string) float64 {
	return t.bySymbol[symbol].AtomicMassAMU
}

// Len returns the number of elements in the table.
func (t *Table) Len() int {
	return len(t.bySymbol)
}

// MolecularWeight sums atomic masses for a set of (symbol, molar ratio) pairs.
// Unknown symbols contribute nothing.
func (t *Table) MolecularWeight(parts []Part) float64 {
	var total float64
	for _, p := range parts {
		total += t.AtomicMass(p.Symbol) * p.MolarRatio
	}
	return total
}

// Part is one element's share of a compound formula.
type Part struct {
	Symbol     string
	MolarRatio float64
}
