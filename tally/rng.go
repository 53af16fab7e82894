// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tally implements the RNG + tally substrate: a counter-based
// random number stream with cheap jump-ahead, and the hierarchical tally
// tree (per-thread children merged up to per-rank, per-rank merged up to
// global) used to accumulate batch statistics.
package tally

import "math"

// Stream is a counter-based uniform deviate source. Unlike a mutable
// math/rand.Source, a Stream's state is just (seed, counter): jumping to
// substream n never touches any other Stream, which is what lets the
// driver hand every (rank, history) pair its own independent, repeatable
// sequence without synchronisation.
type Stream struct {
	seed    uint64
	counter uint64
}

// NewStream builds the base stream for a run seed. The base is never
// mutated on the hot path; every call site jumps a clone instead.
func NewStream(seed uint64) Stream {
	return Stream{seed: seed}
}

// Jump returns a clone of s advanced by n substreams. Jumping is just
// setting the counter — O(1) and side-effect free — which is what makes
// per-history substream addressing cheap.
func (s Stream) Jump(n uint64) Stream {
	return Stream{seed: s.seed, counter: s.counter + n}
}

// Float64 draws the next uniform deviate in [0,1) and advances the
// stream's internal counter by one. Two Streams built from the same seed
// and jumped to the same counter always produce the same sequence.
func (s *Stream) Float64() float64 {
	s.counter++
	return float64(splitmix64(s.seed^s.counter)>>11) / (1 << 53)
}

// splitmix64 is a fast, well-mixed 64-bit hash used to turn a
// (seed, counter) pair into a uniform 64-bit word; see Steele, Lea &
// Flood, "Fast Splittable Pseudorandom Number Generators" (2014).
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}

// ExpDeviate draws a distance-to-collision sample -ln(u)/sigmaT for
// sigmaT > 0.
func (s *Stream) ExpDeviate(sigmaT float64) float64 {
	u := s.Float64()
	for u <= 0 {
		u = s.Float64()
	}
	return -math.Log(u) / sigmaT
}
