// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import (
	"github.com/cpmech/neutron/csg"
	"github.com/cpmech/neutron/geom"
	"github.com/cpmech/neutron/tally"
	"github.com/cpmech/neutron/xs"
)

// Result is what RunHistory hands back to the driver: the particle's final
// status, the cell and position it ended in (the birthplace of any
// daughters), the number of material interfaces the primary walk crossed
// (transmit crossings and lattice slot walls; reflections and the final
// leak are not crossings), and the fission daughters banked during the
// history, including those of its (n,xn) secondaries.
type Result struct {
	Status    Status
	Cell      int
	Pos       geom.Vec3
	Crossings int
	Daughters []xs.Daughter
}

// RunHistory drives a single particle from its current state to
// termination (dead, leaked or banked), following the loop of:
// distance-to-collision against distance-to-surface, boundary crossing,
// and isotope/reaction sampling on collision. Every estimator increment
// goes straight into child, the caller's thread-local tally handle — no
// locking on this path.
//
// Fission daughters are collected into the Result for the next cycle's
// bank; (n,xn) secondaries belong to the current generation and are
// transported within this same history off a small local stack.
//
// kEstimate is the current k-eff estimate used to weight fission
// daughters.
func RunHistory(w *World, loc *csg.Locator, p Particle, kEstimate float64, rng *tally.Stream, child *tally.Child) Result {
	child.Add(tally.Population, p.Weight)

	var banked []xs.Daughter
	var secondaries []Particle
	res := w.walk(loc, p, kEstimate, rng, child, &banked, &secondaries)
	for len(secondaries) > 0 {
		q := secondaries[len(secondaries)-1]
		secondaries = secondaries[:len(secondaries)-1]
		w.walk(loc, q, kEstimate, rng, child, &banked, &secondaries)
	}
	res.Daughters = banked
	return res
}

// walk locates one particle and transports it to termination, appending
// fission daughters to banked and same-generation (n,xn) secondaries to
// secondaries. Locating on entry also refreshes the locator's frame
// stack, which DistanceToBoundary scans.
func (w *World) walk(loc *csg.Locator, p Particle, kEstimate float64, rng *tally.Stream, child *tally.Child, banked *[]xs.Daughter, secondaries *[]Particle) Result {
	hit := loc.PointInCell(p.Pos)
	if hit.Leaked || hit.Cell < 0 {
		child.Add(tally.Leakage, p.Weight)
		return Result{Status: Leaked, Cell: -1, Pos: p.Pos}
	}
	p.Cell = hit.Cell

	crossings := 0
	for {
		cell := w.Catalogue.Cells[p.Cell]
		if cell.Dead {
			child.Add(tally.Leakage, p.Weight)
			return Result{Status: Leaked, Cell: p.Cell, Pos: p.Pos, Crossings: crossings}
		}

		mat := w.materialOf(cell)
		dSurf, surf, farSense, ok := loc.DistanceToBoundary(p.Cell, p.Pos, p.Dir)
		void := mat == nil
		if mat != nil && mat.SigmaTotal(p.Energy) <= 0 {
			// a material cell with no cross section is a data defect, not a
			// declared void; count it and stream through
			loc.NegativeSigmaT++
			void = true
		}

		if !ok {
			if void {
				// a void cell with no bound in this direction can never
				// terminate the walk: a genuine setup gap, not a transport
				// error, but still handled as a bounded diagnostic rather
				// than looping forever.
				loc.LostParticles++
				child.Add(tally.Leakage, p.Weight)
				return Result{Status: Leaked, Cell: p.Cell, Pos: p.Pos, Crossings: crossings}
			}
			// a material cell with no bound in this direction still
			// terminates via collision almost surely, so treat the
			// boundary as infinitely far rather than lost.
			dSurf = geom.Inf
		}

		if void {
			p.Pos = p.Pos.Add(dSurf, p.Dir)
			if surf < 0 || w.Catalogue.Surfaces[surf].Boundary == geom.Transmit {
				crossings++
			}
			res, done := w.cross(loc, &p, surf, farSense, child)
			if done {
				res.Crossings = crossings
				return res
			}
			continue
		}

		sigT := mat.SigmaTotal(p.Energy)
		dColl := rng.ExpDeviate(sigT)

		if dColl >= dSurf {
			p.Pos = p.Pos.Add(dSurf, p.Dir)
			if mat.Fissile() {
				child.Add(tally.KeffTrackLength, p.Weight*dSurf*mat.NuSigmaF(p.Energy))
			}
			if surf < 0 || w.Catalogue.Surfaces[surf].Boundary == geom.Transmit {
				crossings++
			}
			res, done := w.cross(loc, &p, surf, farSense, child)
			if done {
				res.Crossings = crossings
				return res
			}
			continue
		}

		p.Pos = p.Pos.Add(dColl, p.Dir)
		fissile := mat.Fissile()
		if fissile {
			child.Add(tally.KeffTrackLength, p.Weight*dColl*mat.NuSigmaF(p.Energy))
			// per-collision fission yield: nu Sigma_f / Sigma_t
			child.Add(tally.KeffCollision, p.Weight*mat.NuSigmaF(p.Energy)/sigT)
		}

		iso := mat.SampleIsotope(p.Energy, rng)

		out := iso.Apply(p.Energy, p.Dir, p.Weight, kEstimate, rng)
		for i := range out.Daughters {
			out.Daughters[i].Pos = p.Pos
		}
		switch out.State {
		case xs.Dead:
			child.Add(tally.Absorption, p.Weight)
			child.Add(tally.KeffAbsorption, p.Weight*iso.NuFissionPerAbsorption(p.Energy))
			*banked = append(*banked, out.Daughters...)
			return Result{Status: Dead, Cell: p.Cell, Pos: p.Pos, Crossings: crossings}
		case xs.Banked:
			*banked = append(*banked, out.Daughters...)
			return Result{Status: Banked, Cell: p.Cell, Pos: p.Pos, Crossings: crossings}
		default:
			// an alive outcome's daughters are (n,xn) secondaries: same
			// generation, transported within this history
			for _, dd := range out.Daughters {
				*secondaries = append(*secondaries, Particle{
					Pos:    dd.Pos,
					Dir:    dd.Dir,
					Energy: dd.Energy,
					Weight: dd.Weight,
					Cell:   p.Cell,
					Status: Alive,
				})
			}
			p.Dir = out.Dir
			p.Energy = out.Energy
		}
	}
}

// surfaceNudge pushes the neighbour lookup point just past the crossed
// surface: exactly on the surface the half-space sense is ill-defined and
// the locator could re-find the cell just exited.
const surfaceNudge = 1e-9

// cross applies the boundary crossing state machine at the boundary hit
// and advances the particle into its neighbour. A negative surfIdx is an
// implicit lattice slot wall, which always transmits. Surface kinematics
// (sense, reflection normal) run in the frame the surface lives in, per
// the locator's last-hit frame. done is true when the history has ended
// (leak); otherwise p.Cell has been updated in place and the walk
// continues.
func (w *World) cross(loc *csg.Locator, p *Particle, surfIdx int, farSense bool, child *tally.Child) (Result, bool) {
	action := geom.ActionTransmit
	if surfIdx >= 0 {
		s := w.Catalogue.Surfaces[surfIdx]
		lp, ld := loc.HitLocal(p.Pos, p.Dir)
		var newDir geom.Vec3
		action, newDir = s.Cross(lp, ld)
		if action == geom.ActionReflect {
			p.Dir = loc.DirToRoot(newDir)
			return Result{}, false
		}
	}
	switch action {
	case geom.ActionLeak:
		child.Add(tally.Leakage, p.Weight)
		return Result{Status: Leaked, Cell: p.Cell, Pos: p.Pos}, true
	default:
		hit := loc.Neighbour(p.Pos.Add(surfaceNudge, p.Dir))
		if hit.Leaked || hit.Cell < 0 {
			child.Add(tally.Leakage, p.Weight)
			return Result{Status: Leaked, Cell: p.Cell, Pos: p.Pos}, true
		}
		p.Cell = hit.Cell
		return Result{}, false
	}
}

// materialOf returns cell's material, or nil for a void (no-material)
// fill.
func (w *World) materialOf(cell *csg.Cell) *xs.Material {
	if cell.Fill != csg.FillMaterial || cell.Material < 0 {
		return nil
	}
	return w.Materials[cell.Material]
}
