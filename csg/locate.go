// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csg

import (
	"math"

	"github.com/cpmech/neutron/geom"
)

// slotEps excludes the degenerate zero root when a ray starts exactly on
// a lattice slot wall; tieEps resolves a slot wall coinciding with a real
// surface in favour of the surface, whose boundary flag knows whether the
// crossing transmits, reflects or leaks.
const (
	slotEps = 1e-10
	tieEps  = 1e-9
)

// frame is one level of the locate chain: the cell whose surface literals
// bound the flight at this depth — or the lattice slot standing in for
// one — plus the accumulated affine transform from the root frame into
// this level's frame (local = rot·p + off, rot nil meaning identity).
type frame struct {
	cell    int // cell index at this depth, -1 for a lattice-slot level
	lattice int // lattice arena index for a slot level, else -1
	off     geom.Vec3
	rot     *[3][3]float64
}

func (f *frame) local(p geom.Vec3) geom.Vec3 {
	if f.rot != nil {
		p = matVec(*f.rot, p)
	}
	return geom.Vec3{p[0] + f.off[0], p[1] + f.off[1], p[2] + f.off[2]}
}

func (f *frame) localDir(d geom.Vec3) geom.Vec3 {
	if f.rot != nil {
		return matVec(*f.rot, d)
	}
	return d
}

func (f *frame) dirToRoot(d geom.Vec3) geom.Vec3 {
	if f.rot != nil {
		return matVecT(*f.rot, d)
	}
	return d
}

func matVec(m [3][3]float64, v geom.Vec3) geom.Vec3 {
	return geom.Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// matVecT multiplies by the transpose, the inverse of a rotation.
func matVecT(m [3][3]float64, v geom.Vec3) geom.Vec3 {
	return geom.Vec3{
		m[0][0]*v[0] + m[1][0]*v[1] + m[2][0]*v[2],
		m[0][1]*v[0] + m[1][1]*v[1] + m[2][1]*v[2],
		m[0][2]*v[0] + m[1][2]*v[1] + m[2][2]*v[2],
	}
}

// Locator holds the per-worker "last found cell" cache and the frame
// stack of the most recent locate. It must not be shared between
// goroutines: each history worker owns one, so the read-only Catalogue
// stays free of synchronisation. It doubles as the worker's sink for
// bounded runtime-transport diagnostics, which the driver folds into its
// run-wide counters at batch end.
type Locator struct {
	cat *Catalogue

	// lastCell[u] is the last cell index found in universe u, or -1.
	lastCell []int

	// stack is the chain of frames recorded by the last PointInCell, root
	// level first; DistanceToBoundary scans every level's surfaces plus
	// lattice slot walls, so a flight through nested universes is bounded
	// by its enclosing cells too.
	stack []frame

	// hitFrame is the frame of the boundary that won the last
	// DistanceToBoundary call, for local-frame crossing kinematics.
	hitFrame frame

	// LostParticles counts unresolved neighbour lookups: a bounded diagnostic, never fatal.
	LostParticles int

	// NaNIntersections counts ray/surface intersections that produced NaN.
	NaNIntersections int

	// NegativeSigmaT counts material lookups with Sigma_t <= 0, bumped by
	// the history simulator.
	NegativeSigmaT int
}

// NewLocator returns a fresh per-worker locator bound to cat.
func NewLocator(cat *Catalogue) *Locator {
	l := &Locator{cat: cat, lastCell: make([]int, len(cat.Universes))}
	for i := range l.lastCell {
		l.lastCell[i] = -1
	}
	return l
}

// Hit is the result of locating a point: the innermost cell containing it,
// that cell's local-frame point (after all translations/rotations along
// the recursion), and whether the point leaked out of the geometry. Lost
// marks the subset of leaks where a non-root universe failed to resolve
// the point — a floating-point artefact on a surface, not a real escape.
type Hit struct {
	Cell   int
	Local  geom.Vec3
	Leaked bool
	Lost   bool
}

// PointInCell recursively locates the innermost cell containing p, given
// in the root universe's frame, walking through nested universe/lattice
// fills and recording the frame chain for DistanceToBoundary.
func (l *Locator) PointInCell(p geom.Vec3) Hit {
	l.stack = l.stack[:0]
	return l.pointInUniverse(l.cat.RootUniverse, p, geom.Vec3{}, nil)
}

func (l *Locator) pointInUniverse(uidx int, q, off geom.Vec3, rot *[3][3]float64) Hit {
	u := l.cat.Universes[uidx]

	// recheck cache first
	if cached := l.lastCell[uidx]; cached >= 0 {
		if cell := l.cat.Cells[cached]; cell.Contains(l.cat.Surfaces, q) {
			l.stack = append(l.stack, frame{cell: cached, lattice: -1, off: off, rot: rot})
			return l.resolveFill(cached, q, off, rot)
		}
	}

	for _, ci := range u.Cells {
		cell := l.cat.Cells[ci]
		if cell.Contains(l.cat.Surfaces, q) {
			l.lastCell[uidx] = ci
			l.stack = append(l.stack, frame{cell: ci, lattice: -1, off: off, rot: rot})
			return l.resolveFill(ci, q, off, rot)
		}
	}

	// no child cell contains q: a leak, legal only at the root
	return Hit{Cell: -1, Local: q, Leaked: true, Lost: !u.Root}
}

// resolveFill applies the fill semantics of the cell found at ci.
func (l *Locator) resolveFill(ci int, q, off geom.Vec3, rot *[3][3]float64) Hit {
	cell := l.cat.Cells[ci]
	switch cell.Fill {
	case FillUniverse:
		q2, off2, rot2 := intoCell(cell, q, off, rot)
		return l.pointInUniverse(cell.Child, q2, off2, rot2)
	case FillLattice:
		lat := l.cat.Lattices[cell.Child]
		q2, off2, rot2 := intoCell(cell, q, off, rot)
		i, j, k, translate := lat.CellCoord(q2)
		uid := lat.At(i, j, k)
		if uid < 0 {
			return Hit{Cell: -1, Local: q2, Leaked: true}
		}
		q3 := q2.Sub(translate)
		off3 := off2.Sub(translate)
		l.stack = append(l.stack, frame{cell: -1, lattice: cell.Child, off: off3, rot: rot2})
		return l.pointInUniverse(uid, q3, off3, rot2)
	default:
		return Hit{Cell: ci, Local: q, Leaked: false}
	}
}

// intoCell composes the transform entering cell's filled content: the
// local point, and the accumulated offset/rotation from the root frame.
func intoCell(cell *Cell, q, off geom.Vec3, rot *[3][3]float64) (geom.Vec3, geom.Vec3, *[3][3]float64) {
	q2 := cell.ToLocal(q)
	off2 := off.Sub(cell.Translation)
	if !cell.HasRotation {
		return q2, off2, rot
	}
	r := cell.Rotation
	if rot != nil {
		r = matMul(cell.Rotation, *rot)
	}
	return q2, matVec(cell.Rotation, off2), &r
}

func matMul(a, b [3][3]float64) (c [3][3]float64) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				c[i][j] += a[i][k] * b[k][j]
			}
		}
	}
	return
}

// DistanceToBoundary returns the minimum positive distance at which the
// flight from p along d leaves the cell at ci, the hit surface index and
// far-side sense, scanning every level of the locate chain recorded by
// the last PointInCell: the innermost cell's literals, every enclosing
// cell's literals, and the walls of any lattice slot along the chain. A
// winning lattice wall has no surface — surf is -1 and the crossing is a
// plain transmit. ok is false if nothing bounds the flight (treated by
// the caller as lost for a void cell, or as an unbounded flight for a
// material cell).
//
// Callers must have located the particle with PointInCell (or Neighbour)
// since its last relocation; a direct query on an unlocated cell falls
// back to scanning that cell's own literals in the caller's frame.
func (l *Locator) DistanceToBoundary(ci int, p, d geom.Vec3) (dist float64, surf int, farSense bool, ok bool) {
	dist = geom.Inf
	surf = -1
	l.hitFrame = frame{cell: ci, lattice: -1}

	if n := len(l.stack); n == 0 || l.stack[n-1].cell != ci {
		cell := l.cat.Cells[ci]
		for _, sidx := range cell.Surfs {
			s := l.cat.Surfaces[sidx]
			t, sense := s.Intersect(p, d)
			if math.IsNaN(t) {
				l.NaNIntersections++
				continue
			}
			if t < dist {
				dist, surf, farSense, ok = t, sidx, sense, true
			}
		}
		return
	}

	wallDist := geom.Inf
	var wallFrame frame
	for fi := range l.stack {
		f := &l.stack[fi]
		lp, ld := f.local(p), f.localDir(d)
		if f.lattice >= 0 {
			if t := l.cat.Lattices[f.lattice].slotExit(lp, ld); t < wallDist {
				wallDist, wallFrame = t, *f
			}
			continue
		}
		cell := l.cat.Cells[f.cell]
		for _, sidx := range cell.Surfs {
			s := l.cat.Surfaces[sidx]
			t, sense := s.Intersect(lp, ld)
			if math.IsNaN(t) {
				l.NaNIntersections++
				continue
			}
			if t < dist {
				dist, surf, farSense, ok = t, sidx, sense, true
				l.hitFrame = *f
			}
		}
	}
	// a slot wall only wins clear of any real surface: on a coincident
	// boundary (a lattice flush against its bounding cell) the surface's
	// crossing semantics must apply
	if wallDist < dist-tieEps {
		dist, surf, farSense, ok = wallDist, -1, false, true
		l.hitFrame = wallFrame
	}
	return
}

// HitLocal maps a root-frame point and direction into the frame of the
// boundary that won the last DistanceToBoundary call, for crossing
// kinematics (surface sense, reflection normal) evaluated where the
// surface actually lives.
func (l *Locator) HitLocal(p, d geom.Vec3) (geom.Vec3, geom.Vec3) {
	return l.hitFrame.local(p), l.hitFrame.localDir(d)
}

// DirToRoot maps a direction from the last hit frame back to the root
// frame (the identity unless a rotation sits on the chain).
func (l *Locator) DirToRoot(d geom.Vec3) geom.Vec3 {
	return l.hitFrame.dirToRoot(d)
}

// Neighbour resolves the cell on the far side of a crossing by locating
// the hit point again from the root; the per-universe "last-found" cache
// makes the common case (same or sibling cell) O(1), so the walk-outward
// sibling search collapses to a cached re-lookup. An unresolved neighbour
// inside a nested universe bumps the lost-particle counter; a root-level
// escape is a genuine leak, not a diagnostic.
func (l *Locator) Neighbour(hitPoint geom.Vec3) Hit {
	h := l.PointInCell(hitPoint)
	if h.Lost {
		l.LostParticles++
	}
	return h
}
