// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package input

import (
	"fmt"
	"math"

	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/neutron/geom"
	"github.com/cpmech/neutron/mc"
	"github.com/cpmech/neutron/tally"
	"github.com/cpmech/neutron/transport"
	"github.com/cpmech/neutron/xs"
)

// Source is an alias for mc.Source: the §6 "source sampler / distribution"
// definitions below are consumed directly by mc.Driver.Run.
type Source = mc.Source

// BoxSource samples a point uniformly inside an axis-aligned box
// [Lo,Hi], isotropic direction, fixed starting energy.
type BoxSource struct {
	Lo, Hi geom.Vec3
	Energy float64
}

func (s BoxSource) Sample(rng *tally.Stream) transport.Particle {
	p := geom.Vec3{
		s.Lo[0] + rng.Float64()*(s.Hi[0]-s.Lo[0]),
		s.Lo[1] + rng.Float64()*(s.Hi[1]-s.Lo[1]),
		s.Lo[2] + rng.Float64()*(s.Hi[2]-s.Lo[2]),
	}
	return transport.Particle{Pos: p, Dir: xs.IsotropicDirection(rng), Energy: s.Energy, Weight: 1, Status: transport.Alive}
}

// CylSource samples a point uniformly inside a cylinder of the given
// radius and height about Center, with Axis selecting the cylinder axis
// (0, 1 or 2 for x, y, z).
type CylSource struct {
	Center geom.Vec3
	Radius float64
	Height float64
	Energy float64
	Axis   int
}

func (s CylSource) Sample(rng *tally.Stream) transport.Particle {
	r := s.Radius * math.Sqrt(rng.Float64())
	phi := 2 * math.Pi * rng.Float64()
	u, v := (s.Axis+1)%3, (s.Axis+2)%3
	p := s.Center
	p[u] += r * math.Cos(phi)
	p[v] += r * math.Sin(phi)
	p[s.Axis] += (rng.Float64() - 0.5) * s.Height
	return transport.Particle{Pos: p, Dir: xs.IsotropicDirection(rng), Energy: s.Energy, Weight: 1, Status: transport.Alive}
}

// IsotropicPointSource emits every particle from a fixed point with an
// isotropic direction.
type IsotropicPointSource struct {
	Point  geom.Vec3
	Energy float64
}

func (s IsotropicPointSource) Sample(rng *tally.Stream) transport.Particle {
	return transport.Particle{Pos: s.Point, Dir: xs.IsotropicDirection(rng), Energy: s.Energy, Weight: 1, Status: transport.Alive}
}

// CustomSource is the "custom" weighted-mixture source kind: a discrete
// choice among candidate points, each carrying an atom-density-style
// weight, sampled with the same composite-sampler machinery the reaction
// sampler uses — xs.Sampler[int] over
// a single energy row rather than a bespoke mechanism.
type CustomSource struct {
	Points []geom.Vec3
	Energy float64

	sampler *xs.Sampler[int]
}

// NewCustomSource builds a CustomSource from parallel points/weights
// slices; weights are normalised into a single-row CDF.
func NewCustomSource(points []geom.Vec3, weights []float64, energy float64) (*CustomSource, error) {
	if len(points) != len(weights) || len(points) == 0 {
		return nil, fmt.Errorf("input: custom source needs matching, non-empty points/weights")
	}
	values := make([]int, len(points))
	for i := range values {
		values[i] = i
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return nil, fmt.Errorf("input: custom source weights must sum to a positive value")
	}
	row := make([]float64, len(values)-1)
	var running float64
	for i := 0; i < len(row); i++ {
		running += weights[i]
		row[i] = running / total
	}
	return &CustomSource{Points: points, Energy: energy, sampler: xs.NewSampler(values, [][]float64{row})}, nil
}

func (s *CustomSource) Sample(rng *tally.Stream) transport.Particle {
	idx := s.sampler.Sample(0, rng.Float64())
	return transport.Particle{Pos: s.Points[idx], Dir: xs.IsotropicDirection(rng), Energy: s.Energy, Weight: 1, Status: transport.Alive}
}

// FuncEnergySource overrides an underlying source's fixed starting energy
// with a parameterised fun.Func evaluated as an inverse-CDF law against a
// fresh uniform draw: Energy = Fn.F(u, nil). See FuncDef for the
// Name/Type/Prms wire shape.
type FuncEnergySource struct {
	Base Source
	Fn   fun.Func
}

func (s FuncEnergySource) Sample(rng *tally.Stream) transport.Particle {
	p := s.Base.Sample(rng)
	p.Energy = s.Fn.F(rng.Float64(), nil)
	return p
}
