// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csg

import "github.com/cpmech/neutron/geom"

// FillKind is the kind of content filling a cell's interior.
type FillKind int

const (
	FillNone FillKind = iota // dead/void region: no material, terminates particles only if Dead
	FillMaterial
	FillUniverse
	FillLattice
)

// Cell is a named region of space, defined by a Boolean combination of
// surface half-spaces.
type Cell struct {
	Id    int  // stable user id
	Index int  // internal arena index
	Dead  bool // terminate particle on entry

	Expr Expr // lowered postfix Boolean expression over surface indices

	// Surfs is the distinct surface index set of Expr's literals, computed
	// once when the cell enters the catalogue so the per-step boundary
	// search never rescans the token vector.
	Surfs []int

	Fill     FillKind
	Material int // index into material arena, valid iff Fill == FillMaterial
	Child    int // index into universe/lattice arena, valid iff Fill is Universe/Lattice

	Translation geom.Vec3 // affine offset applied when recursing into Child
	HasRotation bool
	Rotation    [3][3]float64 // optional rotation matrix, applied after translation on the way in

	Universe int // index of the universe this cell belongs to (back-pointer)
}

// Contains reports whether p lies inside the cell's region.
func (c *Cell) Contains(surfaces []*geom.Surface, p geom.Vec3) bool {
	return c.Expr.Eval(surfaces, p)
}

// ToLocal maps a point from the parent universe's frame into the frame of
// the cell's filled child universe: translate, then (optionally) rotate.
func (c *Cell) ToLocal(p geom.Vec3) geom.Vec3 {
	q := p.Sub(c.Translation)
	if !c.HasRotation {
		return q
	}
	r := c.Rotation
	return geom.Vec3{
		r[0][0]*q[0] + r[0][1]*q[1] + r[0][2]*q[2],
		r[1][0]*q[0] + r[1][1]*q[1] + r[1][2]*q[2],
		r[2][0]*q[0] + r[2][1]*q[1] + r[2][2]*q[2],
	}
}
