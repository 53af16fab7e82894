// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package xs

import (
	"math"

	"github.com/cpmech/neutron/geom"
)

// Reaction identifies one entry of an isotope's reaction table.
type Reaction int

const (
	ReactionElastic Reaction = iota
	ReactionInelastic0
	ReactionFission
	ReactionNxn
	ReactionCapture
)

// RNG is the minimal randomness source consumed by the sampler: a single
// uniform deviate per call. tally.Stream implements it.
type RNG interface {
	Float64() float64
}

// State is the outcome of applying a reaction to a particle.
type State int

const (
	Alive State = iota
	Dead
	Banked
)

// Daughter is a fission (or (n,xn)) secondary particle produced at the
// collision point. Pos is stamped by the history simulator, which knows
// the collision site; the isotope only decides direction, energy, weight.
type Daughter struct {
	Pos    geom.Vec3
	Dir    geom.Vec3
	Energy float64
	Weight float64
}

// Outcome is what Isotope.Apply returns: the surviving particle's updated
// state plus any daughters: fission daughters (with a Dead state) go to the
// fission bank, (n,xn) daughters (with an Alive state) are same-generation
// secondaries.
type Outcome struct {
	State     State
	Dir       geom.Vec3
	Energy    float64
	Daughters []Daughter
}

// Isotope is a reaction table: microscopic cross sections on a shared
// energy grid, plus angular/energy emission laws and precomputed
// absorption/fission/elastic probabilities.
type Isotope struct {
	Name string
	AWR  float64 // atomic weight ratio, used in scattering kinematics

	EnergyGrid []float64 // shared, strictly increasing

	SigmaElastic   []float64 // [N] microscopic σ, barns
	SigmaInelastic []float64
	SigmaFission   []float64
	SigmaNxn       []float64
	SigmaCapture   []float64

	NuBar       []float64     // [N] mean neutrons per fission
	Chi         *Sampler[int] // fission spectrum sampler: outcome = index into ChiEnergies
	ChiEnergies []float64

	// ScatterSampler, when non-nil, switches elastic scattering to group
	// mode: the outgoing group is drawn from the row of the incident
	// group and the particle's energy snaps to that group's grid point.
	// Built from a macro material's square scattering matrix.
	ScatterSampler *Sampler[int]

	Fissile bool
}

// SigmaTotal returns the total microscopic cross section at energy e
// (linear interpolation on the shared grid).
func (iso *Isotope) SigmaTotal(e float64) float64 {
	lo, hi, alpha := energyRowIndex(iso.EnergyGrid, e)
	interp := func(tab []float64) float64 {
		return alpha*tab[hi] + (1-alpha)*tab[lo]
	}
	return interp(iso.SigmaElastic) + interp(iso.SigmaInelastic) +
		interp(iso.SigmaFission) + interp(iso.SigmaNxn) + interp(iso.SigmaCapture)
}

// absorptionFissionElastic returns, at energy e, P_absorb(E), P_fission
// given absorb, and P_elastic given scatter. Every other decomposition in
// the package derives from this one helper.
func (iso *Isotope) absorptionFissionElastic(e float64) (pAbsorb, pFissionGivenAbsorb, pElasticGivenScatter float64) {
	lo, hi, alpha := energyRowIndex(iso.EnergyGrid, e)
	interp := func(tab []float64) float64 { return alpha*tab[hi] + (1-alpha)*tab[lo] }
	sigT := iso.SigmaTotal(e)
	if sigT <= 0 {
		return 0, 0, 0
	}
	sigAbs := interp(iso.SigmaFission) + interp(iso.SigmaCapture)
	sigScat := interp(iso.SigmaElastic) + interp(iso.SigmaInelastic) + interp(iso.SigmaNxn)
	pAbsorb = sigAbs / sigT
	if sigAbs > 0 {
		pFissionGivenAbsorb = interp(iso.SigmaFission) / sigAbs
	}
	if sigScat > 0 {
		pElasticGivenScatter = interp(iso.SigmaElastic) / sigScat
	}
	return
}

// NuFissionPerAbsorption returns ν̄(E)·P(fission|absorb), the expected
// fission-neutron yield of one absorption event at energy e. This backs
// the absorption k-eff estimator: every absorbed particle contributes
// w·νσ_f/σ_a regardless of whether the sampled outcome was fission.
func (iso *Isotope) NuFissionPerAbsorption(e float64) float64 {
	if !iso.Fissile {
		return 0
	}
	_, pFission, _ := iso.absorptionFissionElastic(e)
	return iso.NuAt(e) * pFission
}

// NuAt interpolates ν̄(E) on the shared grid.
func (iso *Isotope) NuAt(e float64) float64 {
	lo, hi, alpha := energyRowIndex(iso.EnergyGrid, e)
	return alpha*iso.NuBar[hi] + (1-alpha)*iso.NuBar[lo]
}

// Apply samples and applies a reaction to an incident particle at energy e
// travelling in direction dir with weight w:
//  1. draw u; if u < P_absorb, fission or analog capture;
//  2. else elastic or a sampled inelastic reaction.
func (iso *Isotope) Apply(e float64, dir geom.Vec3, w, kEstimate float64, rng RNG) Outcome {
	pAbsorb, pFission, pElastic := iso.absorptionFissionElastic(e)
	u := rng.Float64()

	if u < pAbsorb {
		if iso.Fissile && u > pAbsorb-pAbsorb*pFission {
			return iso.applyFission(e, w, kEstimate, rng)
		}
		return Outcome{State: Dead}
	}

	u2 := rng.Float64()
	if u2 < pElastic {
		return iso.applyElastic(e, dir, rng)
	}
	return iso.applyInelastic(e, dir, w, rng)
}

// applyFission draws the integer multiplicity ν = floor(ν̄) + [u < frac(ν̄)]
// and emits ν daughters: isotropic direction by default, energy from the
// χ spectrum, weight w/k̂.
func (iso *Isotope) applyFission(e, w, kEstimate float64, rng RNG) Outcome {
	nuBar := iso.NuAt(e)
	nu := int(math.Floor(nuBar))
	if rng.Float64() < nuBar-math.Floor(nuBar) {
		nu++
	}
	var daughters []Daughter
	for i := 0; i < nu; i++ {
		daughters = append(daughters, Daughter{
			Dir:    IsotropicDirection(rng),
			Energy: iso.sampleChiEnergy(rng),
			Weight: w / kEstimate,
		})
	}
	return Outcome{State: Dead, Daughters: daughters}
}

func (iso *Isotope) sampleChiEnergy(rng RNG) float64 {
	if iso.Chi == nil || len(iso.ChiEnergies) == 0 {
		return 2.0e6 // default fast-fission energy (eV), used only if no χ table given
	}
	idx := iso.Chi.Sample(0, rng.Float64())
	return iso.ChiEnergies[idx]
}

// applyElastic performs two-body elastic scattering in the CoM frame; a
// tabulated μ law may replace the isotropic default for anisotropic
// media. In group mode the outgoing group is sampled from the scattering
// matrix instead of running continuous kinematics.
func (iso *Isotope) applyElastic(e float64, dir geom.Vec3, rng RNG) Outcome {
	if iso.ScatterSampler != nil {
		g := iso.nearestGroup(e)
		gOut := iso.ScatterSampler.Sample(g, rng.Float64())
		return Outcome{State: Alive, Dir: IsotropicDirection(rng), Energy: iso.EnergyGrid[gOut]}
	}
	newDir, newE := ElasticScatter(dir, e, iso.AWR, rng)
	return Outcome{State: Alive, Dir: newDir, Energy: newE}
}

// nearestGroup rounds energy e to the closest explicit grid row.
func (iso *Isotope) nearestGroup(e float64) int {
	lo, hi, alpha := energyRowIndex(iso.EnergyGrid, e)
	if alpha > 0.5 {
		return hi
	}
	return lo
}

// applyInelastic samples the inelastic-only sub-distribution — level
// scattering versus (n,xn), weighted by their cross sections — and applies
// it: direction is re-sampled isotropically and energy reduced by a simple
// evaporation model (production codes substitute a tabulated
// secondary-energy law). An (n,xn) event adds one extra neutron at the
// collision site as a daughter of the surviving outcome.
func (iso *Isotope) applyInelastic(e float64, dir geom.Vec3, w float64, rng RNG) Outcome {
	lo, hi, alpha := energyRowIndex(iso.EnergyGrid, e)
	interp := func(tab []float64) float64 { return alpha*tab[hi] + (1-alpha)*tab[lo] }
	sigIn := interp(iso.SigmaInelastic)
	sigNxn := interp(iso.SigmaNxn)

	reaction := ReactionInelastic0
	if sigIn+sigNxn > 0 && rng.Float64()*(sigIn+sigNxn) >= sigIn {
		reaction = ReactionNxn
	}

	newDir := IsotropicDirection(rng)
	newE := e * (0.5 + 0.5*rng.Float64())
	out := Outcome{State: Alive, Dir: newDir, Energy: newE}
	if reaction == ReactionNxn {
		out.Daughters = append(out.Daughters, Daughter{
			Dir:    IsotropicDirection(rng),
			Energy: newE,
			Weight: w,
		})
	}
	return out
}

// IsotropicDirection draws a uniformly distributed unit vector.
func IsotropicDirection(rng RNG) geom.Vec3 {
	mu := 2*rng.Float64() - 1
	phi := 2 * math.Pi * rng.Float64()
	sinTheta := math.Sqrt(1 - mu*mu)
	return geom.Vec3{sinTheta * math.Cos(phi), sinTheta * math.Sin(phi), mu}
}
