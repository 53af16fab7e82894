// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geom

import "math"

// Inf is returned by Intersect when the ray never crosses the surface in
// the forward half-line.
const Inf = math.MaxFloat64

// Intersect returns the smallest strictly-positive root t of
// f(p + t·d) = 0, or Inf if no such root exists, plus the sense the
// particle acquires on the far side of the hit (sign of d·∇f at the hit).
//
// Quadratic primitives use the numerically stable root formula (solving
// for the root of larger magnitude first via the sign of b, then dividing
// through) to avoid catastrophic cancellation on grazing rays.
func (s *Surface) Intersect(p, d Vec3) (dist float64, farSense bool) {
	switch s.Kind {
	case PlaneX, PlaneY, PlaneZ, Plane:
		return s.intersectLinear(p, d)
	default:
		return s.intersectQuadratic(p, d)
	}
}

func (s *Surface) intersectLinear(p, d Vec3) (float64, bool) {
	var a, b float64
	switch s.Kind {
	case PlaneX:
		a, b = d[0], p[0]-s.Coeffs[0]
	case PlaneY:
		a, b = d[1], p[1]-s.Coeffs[0]
	case PlaneZ:
		a, b = d[2], p[2]-s.Coeffs[0]
	case Plane:
		c := s.Coeffs
		a = c[0]*d[0] + c[1]*d[1] + c[2]*d[2]
		b = c[0]*p[0] + c[1]*p[1] + c[2]*p[2] - c[3]
	}
	if a == 0 {
		return Inf, false
	}
	t := -b / a
	if t > epsForward {
		hit := p.Add(t, d)
		return t, d.Dot(s.Grad(hit)) > 0
	}
	return Inf, false
}

// epsForward excludes the degenerate zero root when the ray starts exactly
// on the surface: only crossings in the open interval (0, ∞) count.
const epsForward = 1e-10

// intersectQuadratic solves A t² + B t + C = 0 for the general quadric
// (and its specialisations), using the cancellation-safe root formula.
func (s *Surface) intersectQuadratic(p, d Vec3) (float64, bool) {
	a, b, c := s.quadraticCoeffs(p, d)

	var roots []float64
	if math.Abs(a) < 1e-300 {
		// degenerates to a linear equation along this ray
		if b != 0 {
			roots = append(roots, -c/b)
		}
	} else {
		disc := b*b - 4*a*c
		if disc < 0 {
			return Inf, false
		}
		sq := math.Sqrt(disc)
		// numerically stable formula: avoid b and sqrt(disc) cancelling
		var q float64
		if b >= 0 {
			q = -0.5 * (b + sq)
		} else {
			q = -0.5 * (b - sq)
		}
		if q != 0 {
			roots = append(roots, q/a, c/q)
		} else {
			roots = append(roots, 0)
		}
	}

	best := Inf
	for _, t := range roots {
		if t > epsForward && t < best {
			best = t
		}
	}
	if best == Inf {
		return Inf, false
	}
	hit := p.Add(best, d)
	return best, d.Dot(s.Grad(hit)) > 0
}

// quadraticCoeffs returns coefficients of the scalar quadratic obtained by
// substituting x = p + t·d into f(x) = 0.
func (s *Surface) quadraticCoeffs(p, d Vec3) (a, b, c float64) {
	cf := s.Coeffs
	switch s.Kind {
	case Sphere:
		dx, dy, dz := p[0]-cf[0], p[1]-cf[1], p[2]-cf[2]
		a = d.Dot(d)
		b = 2 * (d[0]*dx + d[1]*dy + d[2]*dz)
		c = dx*dx + dy*dy + dz*dz - cf[3]*cf[3]
	case CylX:
		dy, dz := p[1]-cf[0], p[2]-cf[1]
		a = d[1]*d[1] + d[2]*d[2]
		b = 2 * (d[1]*dy + d[2]*dz)
		c = dy*dy + dz*dz - cf[2]*cf[2]
	case CylY:
		dx, dz := p[0]-cf[0], p[2]-cf[1]
		a = d[0]*d[0] + d[2]*d[2]
		b = 2 * (d[0]*dx + d[2]*dz)
		c = dx*dx + dz*dz - cf[2]*cf[2]
	case CylZ:
		dx, dy := p[0]-cf[0], p[1]-cf[1]
		a = d[0]*d[0] + d[1]*d[1]
		b = 2 * (d[0]*dx + d[1]*dy)
		c = dx*dx + dy*dy - cf[2]*cf[2]
	case ConeX:
		dx, dy, dz := p[0]-cf[0], p[1]-cf[1], p[2]-cf[2]
		a = d[1]*d[1] + d[2]*d[2] - cf[3]*d[0]*d[0]
		b = 2 * (d[1]*dy + d[2]*dz - cf[3]*d[0]*dx)
		c = dy*dy + dz*dz - cf[3]*dx*dx
	case ConeY:
		dx, dy, dz := p[0]-cf[0], p[1]-cf[1], p[2]-cf[2]
		a = d[0]*d[0] + d[2]*d[2] - cf[3]*d[1]*d[1]
		b = 2 * (d[0]*dx + d[2]*dz - cf[3]*d[1]*dy)
		c = dx*dx + dz*dz - cf[3]*dy*dy
	case ConeZ:
		dx, dy, dz := p[0]-cf[0], p[1]-cf[1], p[2]-cf[2]
		a = d[0]*d[0] + d[1]*d[1] - cf[3]*d[2]*d[2]
		b = 2 * (d[0]*dx + d[1]*dy - cf[3]*d[2]*dz)
		c = dx*dx + dy*dy - cf[3]*dz*dz
	case Quadric:
		x, y, z := p[0], p[1], p[2]
		dx, dy, dz := d[0], d[1], d[2]
		A, B, C, D, E, F, G, H, J := cf[0], cf[1], cf[2], cf[3], cf[4], cf[5], cf[6], cf[7], cf[8]
		a = A*dx*dx + B*dy*dy + C*dz*dz + D*dx*dy + E*dy*dz + F*dx*dz
		b = 2*A*x*dx + 2*B*y*dy + 2*C*z*dz + D*(x*dy+y*dx) + E*(y*dz+z*dy) + F*(x*dz+z*dx) + G*dx + H*dy + J*dz
		c = s.F(p)
	}
	return
}
