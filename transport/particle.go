// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transport implements the history simulator: the single-particle
// random walk over the geometry (csg), collision physics (xs) and tallies
// (tally).
package transport

import "github.com/cpmech/neutron/geom"

// Status is a particle's lifecycle state.
type Status int

const (
	Alive Status = iota
	Dead
	Leaked
	Banked
)

// Particle is a single random-walk state: position, direction, energy,
// statistical weight, current cell and lifecycle status.
type Particle struct {
	Pos    geom.Vec3
	Dir    geom.Vec3
	Energy float64
	Weight float64
	Cell   int
	Status Status
}
