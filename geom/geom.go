// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package geom implements the implicit surface algebra: oriented quadric
// and planar primitives, ray/surface intersection, and the boundary-
// crossing state machine (transmit, reflect, vacuum).
package geom

import "math"

// Tol is the tolerance used to decide whether a point lies on a surface.
const Tol = 1e-12

// Kind identifies a surface primitive. The set is closed; dispatch on Kind
// is a small switch rather than an open interface hierarchy, mirroring the
// tagged-variant shape-factory idiom used for finite-element shapes.
type Kind int

const (
	PlaneX Kind = iota
	PlaneY
	PlaneZ
	Plane
	Sphere
	CylX
	CylY
	CylZ
	ConeX
	ConeY
	ConeZ
	Quadric
)

// Boundary is the crossing behaviour attached to a surface.
type Boundary int

const (
	Transmit Boundary = iota
	Reflect
	Vacuum
)

// Surface is an oriented implicit primitive f(x) = 0, identified by a
// stable user Id and an internal index into a Catalogue's arena.
type Surface struct {
	Id       int       // stable user id
	Index    int       // internal arena index
	Kind     Kind      // primitive kind
	Coeffs   []float64 // kind-specific coefficients, see NewSurface
	Boundary Boundary  // crossing behaviour
}

// NewSurface builds a Surface of the given kind from its coefficient list.
// Coefficient layouts (matching the §6 input object model):
//
//	PlaneX/PlaneY/PlaneZ: [d]                 f = x - d  (or y, z)
//	Plane:                [a,b,c,d]           f = a x + b y + c z - d
//	Sphere:               [x0,y0,z0,r]        f = (x-x0)²+(y-y0)²+(z-z0)²-r²
//	CylX/CylY/CylZ:       [c1,c2,r]           f = (u-c1)²+(v-c2)²-r² on the two non-axis coords
//	ConeX/ConeY/ConeZ:    [x0,y0,z0,r2]       f = (u-u0)²+(v-v0)²-r2·(axis-axis0)²
//	Quadric:              [A,B,C,D,E,F,G,H,J,K] general 2nd-order surface
func NewSurface(id int, kind Kind, coeffs []float64, boundary Boundary) *Surface {
	return &Surface{Id: id, Kind: kind, Coeffs: coeffs, Boundary: boundary}
}

// Vec3 is a minimal 3-vector; the hot path avoids gosl/la's general
// matrix machinery so that point evaluation stays allocation-free.
type Vec3 [3]float64

func (v Vec3) Add(s float64, d Vec3) Vec3 {
	return Vec3{v[0] + s*d[0], v[1] + s*d[1], v[2] + s*d[2]}
}

func (v Vec3) Dot(o Vec3) float64 { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }

func (v Vec3) Norm() float64 { return math.Sqrt(v.Dot(v)) }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v[0] * s, v[1] * s, v[2] * s} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }

// Normalize returns a unit vector; the zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// F evaluates the implicit function at p.
func (s *Surface) F(p Vec3) float64 {
	c := s.Coeffs
	switch s.Kind {
	case PlaneX:
		return p[0] - c[0]
	case PlaneY:
		return p[1] - c[0]
	case PlaneZ:
		return p[2] - c[0]
	case Plane:
		return c[0]*p[0] + c[1]*p[1] + c[2]*p[2] - c[3]
	case Sphere:
		dx, dy, dz := p[0]-c[0], p[1]-c[1], p[2]-c[2]
		return dx*dx + dy*dy + dz*dz - c[3]*c[3]
	case CylX:
		dy, dz := p[1]-c[0], p[2]-c[1]
		return dy*dy + dz*dz - c[2]*c[2]
	case CylY:
		dx, dz := p[0]-c[0], p[2]-c[1]
		return dx*dx + dz*dz - c[2]*c[2]
	case CylZ:
		dx, dy := p[0]-c[0], p[1]-c[1]
		return dx*dx + dy*dy - c[2]*c[2]
	case ConeX:
		dx, dy, dz := p[0]-c[0], p[1]-c[1], p[2]-c[2]
		return dy*dy + dz*dz - c[3]*dx*dx
	case ConeY:
		dx, dy, dz := p[0]-c[0], p[1]-c[1], p[2]-c[2]
		return dx*dx + dz*dz - c[3]*dy*dy
	case ConeZ:
		dx, dy, dz := p[0]-c[0], p[1]-c[1], p[2]-c[2]
		return dx*dx + dy*dy - c[3]*dz*dz
	case Quadric:
		x, y, z := p[0], p[1], p[2]
		return c[0]*x*x + c[1]*y*y + c[2]*z*z + c[3]*x*y + c[4]*y*z + c[5]*x*z +
			c[6]*x + c[7]*y + c[8]*z + c[9]
	}
	return math.NaN()
}

// Grad returns the (unnormalised) gradient of f at p, used as outward
// normal (sign flipped for the "inside" sense).
func (s *Surface) Grad(p Vec3) Vec3 {
	c := s.Coeffs
	switch s.Kind {
	case PlaneX:
		return Vec3{1, 0, 0}
	case PlaneY:
		return Vec3{0, 1, 0}
	case PlaneZ:
		return Vec3{0, 0, 1}
	case Plane:
		return Vec3{c[0], c[1], c[2]}
	case Sphere:
		return Vec3{2 * (p[0] - c[0]), 2 * (p[1] - c[1]), 2 * (p[2] - c[2])}
	case CylX:
		return Vec3{0, 2 * (p[1] - c[0]), 2 * (p[2] - c[1])}
	case CylY:
		return Vec3{2 * (p[0] - c[0]), 0, 2 * (p[2] - c[1])}
	case CylZ:
		return Vec3{2 * (p[0] - c[0]), 2 * (p[1] - c[1]), 0}
	case ConeX:
		return Vec3{-2 * c[3] * (p[0] - c[0]), 2 * (p[1] - c[1]), 2 * (p[2] - c[2])}
	case ConeY:
		return Vec3{2 * (p[0] - c[0]), -2 * c[3] * (p[1] - c[1]), 2 * (p[2] - c[2])}
	case ConeZ:
		return Vec3{2 * (p[0] - c[0]), 2 * (p[1] - c[1]), -2 * c[3] * (p[2] - c[2])}
	case Quadric:
		x, y, z := p[0], p[1], p[2]
		return Vec3{
			2*c[0]*x + c[3]*y + c[5]*z + c[6],
			2*c[1]*y + c[3]*x + c[4]*z + c[7],
			2*c[2]*z + c[4]*y + c[5]*x + c[8],
		}
	}
	return Vec3{}
}

// Sense returns true for the positive half-space (f(p) > 0); points
// within Tol of the surface have an undefined sense.
func (s *Surface) Sense(p Vec3) bool { return s.F(p) > 0 }
