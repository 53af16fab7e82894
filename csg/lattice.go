// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csg

import (
	"math"

	"github.com/cpmech/neutron/geom"
)

// LatticeKind selects the index arithmetic used by a Lattice.
type LatticeKind int

const (
	LatticeRect LatticeKind = iota
	LatticeHex
)

// Lattice is a special universe: a periodic tiling of child universes
// indexed by integer lattice coordinates.
type Lattice struct {
	Id    int
	Index int
	Kind  LatticeKind

	Pitch     geom.Vec3 // pitch vector
	Dimension [3]int    // number of cells along each axis
	Origin    geom.Vec3 // parent-frame lower corner (rect); centre of slot (0,0) in x-y (hex)

	// Universes is a row-major map from flattened lattice index to
	// universe-arena index; -1 marks an unfilled (outside) slot.
	Universes []int
}

// CellCoord computes the integer lattice coordinate containing p (rectangular
// kind) and the translation to apply before recursing: (i,j,k) = floor((p -
// origin) ./ pitch); translate to the cell's own centre, Origin +
// (i,j,k)+0.5 .* pitch, so the child universe always sees the point in the
// same pin-centred frame regardless of which cell it fell in.
func (l *Lattice) CellCoord(p geom.Vec3) (i, j, k int, translate geom.Vec3) {
	switch l.Kind {
	case LatticeHex:
		return l.indexHex(p)
	default:
		return l.indexRect(p)
	}
}

func (l *Lattice) indexRect(p geom.Vec3) (i, j, k int, translate geom.Vec3) {
	q := p.Sub(l.Origin)
	i = int(math.Floor(q[0] / l.Pitch[0]))
	j = int(math.Floor(q[1] / l.Pitch[1]))
	if l.Pitch[2] != 0 {
		k = int(math.Floor(q[2] / l.Pitch[2]))
	}
	translate = geom.Vec3{
		l.Origin[0] + (float64(i)+0.5)*l.Pitch[0],
		l.Origin[1] + (float64(j)+0.5)*l.Pitch[1],
		l.Origin[2] + (float64(k)+0.5)*l.Pitch[2],
	}
	return
}

// indexHex implements a pointy-top hexagonal lattice in the x-y plane, with
// the axial coordinate (i,j) converted from Cartesian offset via the
// standard axial-to-pixel inverse transform; the z axis behaves as rect.
func (l *Lattice) indexHex(p geom.Vec3) (i, j, k int, translate geom.Vec3) {
	q := p.Sub(l.Origin)
	size := l.Pitch[0] / math.Sqrt(3)
	qf := (math.Sqrt(3)/3*q[0] - 1.0/3*q[1]) / size
	rf := (2.0 / 3 * q[1]) / size
	i, j = axialRound(qf, rf)
	if l.Pitch[2] != 0 {
		k = int(math.Floor(q[2] / l.Pitch[2]))
	}
	cx := size * (math.Sqrt(3)*float64(i) + math.Sqrt(3)/2*float64(j))
	cy := size * (3.0 / 2 * float64(j))
	translate = geom.Vec3{
		l.Origin[0] + cx,
		l.Origin[1] + cy,
		l.Origin[2] + (float64(k)+0.5)*l.Pitch[2],
	}
	return
}

// axialRound rounds fractional axial coordinates to the nearest hex cell.
func axialRound(qf, rf float64) (int, int) {
	xf := qf
	zf := rf
	yf := -xf - zf
	rx := math.Round(xf)
	ry := math.Round(yf)
	rz := math.Round(zf)
	dx := math.Abs(rx - xf)
	dy := math.Abs(ry - yf)
	dz := math.Abs(rz - zf)
	if dx > dy && dx > dz {
		rx = -ry - rz
	} else if dy > dz {
		// ry unused further
	} else {
		rz = -rx - ry
	}
	return int(rx), int(rz)
}

// slotExit returns the distance at which a ray leaves the current lattice
// slot, with the ray given in the slot's own pin-centred frame. An axis
// with zero pitch is unbounded. Called by the locator's distance scan so
// transport can hand a particle from one slot to its neighbour.
func (l *Lattice) slotExit(q, d geom.Vec3) float64 {
	switch l.Kind {
	case LatticeHex:
		return l.slotExitHex(q, d)
	default:
		return l.slotExitRect(q, d)
	}
}

func (l *Lattice) slotExitRect(q, d geom.Vec3) float64 {
	t := geom.Inf
	for a := 0; a < 3; a++ {
		if l.Pitch[a] == 0 || d[a] == 0 {
			continue
		}
		half := 0.5 * l.Pitch[a]
		var cand float64
		if d[a] > 0 {
			cand = (half - q[a]) / d[a]
		} else {
			cand = (-half - q[a]) / d[a]
		}
		if cand > slotEps && cand < t {
			t = cand
		}
	}
	return t
}

// slotExitHex bounds the slot by the hexagon's three slabs (outward edge
// normals at 0, 60 and 120 degrees, apothem = pitch/2) plus the axial
// slab when the z pitch is non-zero.
func (l *Lattice) slotExitHex(q, d geom.Vec3) float64 {
	apothem := 0.5 * l.Pitch[0]
	t := geom.Inf
	for _, th := range []float64{0, math.Pi / 3, 2 * math.Pi / 3} {
		nx, ny := math.Cos(th), math.Sin(th)
		nq := nx*q[0] + ny*q[1]
		nd := nx*d[0] + ny*d[1]
		if nd == 0 {
			continue
		}
		var cand float64
		if nd > 0 {
			cand = (apothem - nq) / nd
		} else {
			cand = (-apothem - nq) / nd
		}
		if cand > slotEps && cand < t {
			t = cand
		}
	}
	if l.Pitch[2] != 0 && d[2] != 0 {
		half := 0.5 * l.Pitch[2]
		var cand float64
		if d[2] > 0 {
			cand = (half - q[2]) / d[2]
		} else {
			cand = (-half - q[2]) / d[2]
		}
		if cand > slotEps && cand < t {
			t = cand
		}
	}
	return t
}

// At returns the universe-arena index mapped to lattice coordinate (i,j,k),
// or -1 if the coordinate is outside the lattice's declared Dimension or
// maps to an unfilled slot.
func (l *Lattice) At(i, j, k int) int {
	if i < 0 || j < 0 || k < 0 || i >= l.Dimension[0] || j >= l.Dimension[1] || k >= l.Dimension[2] {
		return -1
	}
	idx := (k*l.Dimension[1]+j)*l.Dimension[0] + i
	if idx < 0 || idx >= len(l.Universes) {
		return -1
	}
	return l.Universes[idx]
}
