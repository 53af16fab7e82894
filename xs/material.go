// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xs

import "math"

// FractionKind selects whether an isotope reference's Fraction is an
// atom-density or a mass fraction.
type FractionKind int

const (
	FractionAtom FractionKind = iota
	FractionMass
)

// avogadroBarn is Avogadro's number scaled by the barn (1e-24 cm2):
// multiplying a g/mol-normalised g/cm3 density by it yields atom/b-cm.
const avogadroBarn = 0.602214076

// neutronAMU converts an isotope's AWR into its molar mass in g/mol.
const neutronAMU = 1.00866491588

// IsotopeRef is one entry of a material's mixture.
type IsotopeRef struct {
	Isotope  *Isotope
	Fraction float64
	Kind     FractionKind

	// AtomDensity is the resolved atom/b-cm density, computed once at
	// setup from Fraction, Kind and the material's bulk Density.
	AtomDensity float64
}

// Material is a mixture identified by a user id, exposing Σ_t(E), 1/Σ_t(E)
// and an isotope-selection CDF per energy. For the
// macroscopic ("macro-xs") mode a Material is itself the sole isotope; see
// NewMacroMaterial.
type Material struct {
	Id       int
	Isotopes []IsotopeRef
	Density  float64 // atom/b-cm, or g/cm3 when MassDensity is set

	// MassDensity marks Density as g/cm3; Finalize converts it to
	// atom/b-cm using Avogadro's number and the isotopes' AWR.
	MassDensity bool

	// isoSampler selects an isotope (by index into Isotopes) given energy,
	// weighted by atomic-fraction σ_t; built once by Finalize.
	isoSampler *Sampler[int]
	energyGrid []float64
}

// NewMacroMaterial builds a single-isotope "material" for group (macro-xs)
// mode, where the material itself carries Σ_a, Σ_f, νΣ_f, χ and Σ_s
// directly. The caller constructs
// the single Isotope with group cross sections already expressed as
// "microscopic" quantities at unit density.
func NewMacroMaterial(id int, iso *Isotope) *Material {
	m := &Material{Id: id, Density: 1}
	m.Isotopes = []IsotopeRef{{Isotope: iso, Fraction: 1, Kind: FractionAtom, AtomDensity: 1}}
	m.energyGrid = iso.EnergyGrid
	m.isoSampler = NewSampler([]int{0}, nil)
	return m
}

// Finalize resolves each isotope's AtomDensity from its Fraction/Kind and
// the material's bulk Density, and builds the energy-indexed isotope
// selection sampler. All Isotopes must share the same EnergyGrid.
func (m *Material) Finalize() {
	if len(m.Isotopes) == 0 {
		return
	}
	m.energyGrid = m.Isotopes[0].Isotope.EnergyGrid

	// resolve atom densities. atom-fraction entries are normalised
	// directly against the bulk density; mass-fraction entries are
	// converted via each isotope's molar mass (AWR times the neutron
	// mass in amu). A g/cm3 bulk density picks up the Avogadro/barn
	// factor, and for atom fractions the mixture-average molar mass.
	density := m.Density
	if m.MassDensity {
		density *= avogadroBarn
		var avgMolar, totalAtomFrac float64
		for _, r := range m.Isotopes {
			if r.Kind == FractionAtom {
				avgMolar += r.Fraction * r.Isotope.AWR * neutronAMU
				totalAtomFrac += r.Fraction
			}
		}
		if totalAtomFrac > 0 {
			density *= totalAtomFrac / avgMolar
		}
	}
	var totalMassFrac float64
	for _, r := range m.Isotopes {
		if r.Kind == FractionMass {
			totalMassFrac += r.Fraction
		}
	}
	for i := range m.Isotopes {
		r := &m.Isotopes[i]
		switch r.Kind {
		case FractionAtom:
			r.AtomDensity = r.Fraction * density
		case FractionMass:
			norm := r.Fraction
			if totalMassFrac > 0 {
				norm /= totalMassFrac
			}
			r.AtomDensity = norm * density / (r.Isotope.AWR * neutronAMU)
		}
	}

	n := len(m.energyGrid)
	values := make([]int, len(m.Isotopes))
	for i := range values {
		values[i] = i
	}
	if len(values) == 1 {
		m.isoSampler = NewSampler(values, nil)
		return
	}
	cdf := make([][]float64, n)
	for g := 0; g < n; g++ {
		row := make([]float64, len(values)-1)
		var total float64
		weights := make([]float64, len(values))
		for i, r := range m.Isotopes {
			w := r.AtomDensity * r.Isotope.SigmaTotal(m.energyGrid[g])
			weights[i] = w
			total += w
		}
		var running float64
		for i := 0; i < len(values)-1; i++ {
			running += weights[i]
			if total > 0 {
				row[i] = running / total
			} else {
				row[i] = 1
			}
		}
		cdf[g] = row
	}
	m.isoSampler = NewSampler(values, cdf)
}

// SigmaTotal returns the macroscopic total cross section Σ_t(E).
func (m *Material) SigmaTotal(e float64) float64 {
	var total float64
	for _, r := range m.Isotopes {
		total += r.AtomDensity * r.Isotope.SigmaTotal(e)
	}
	return total
}

// MeanFreePath returns 1/Σ_t(E); +Inf for a void material (Σ_t == 0).
func (m *Material) MeanFreePath(e float64) float64 {
	st := m.SigmaTotal(e)
	if st <= 0 {
		return math.Inf(1)
	}
	return 1 / st
}

// SampleIsotope selects an isotope weighted by atomic-fraction σ_t at
// energy e.
func (m *Material) SampleIsotope(e float64, rng RNG) *Isotope {
	if len(m.Isotopes) == 1 {
		return m.Isotopes[0].Isotope
	}
	lo, _, alpha := energyRowIndex(m.energyGrid, e)
	// round to nearest explicit grid row for the coarse selection CDF;
	// reaction-level sampling still interpolates within the isotope.
	row := lo
	if alpha > 0.5 && lo+1 < len(m.energyGrid) {
		row = lo + 1
	}
	idx := m.isoSampler.Sample(row, rng.Float64())
	return m.Isotopes[idx].Isotope
}

// NuSigmaF returns ν·Σ_f(E), the fission-neutron-production macroscopic
// cross section, used by the track-length k-eff estimator.
func (m *Material) NuSigmaF(e float64) float64 {
	var total float64
	for _, r := range m.Isotopes {
		if !r.Isotope.Fissile {
			continue
		}
		lo, hi, alpha := energyRowIndex(r.Isotope.EnergyGrid, e)
		sigF := alpha*r.Isotope.SigmaFission[hi] + (1-alpha)*r.Isotope.SigmaFission[lo]
		total += r.AtomDensity * r.Isotope.NuAt(e) * sigF
	}
	return total
}

// Fissile reports whether the material contains any fissile isotope.
func (m *Material) Fissile() bool {
	for _, r := range m.Isotopes {
		if r.Isotope.Fissile {
			return true
		}
	}
	return false
}
