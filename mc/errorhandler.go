// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mc

import (
	"log"

	"github.com/cpmech/gosl/mpi"
)

// DiagCounters are the bounded runtime-transport diagnostics: incremented
// on the hot path with no allocation and no error return, and only
// inspected at batch boundaries. A first occurrence of any of these is a
// warning, never a fatal error; only an excessive rate trips Stop below.
type DiagCounters struct {
	LostParticles    int // unresolved neighbour after crossing (csg.Locator)
	NegativeSigmaT   int // Sigma_t <= 0 encountered in a material cell
	NaNIntersections int // NaN produced by a ray/surface intersection
}

// Add folds o into c — the same commutative, associative merge shape as
// tally.Batch.Add, used to combine per-worker counters at batch end.
func (c *DiagCounters) Add(o DiagCounters) {
	c.LostParticles += o.LostParticles
	c.NegativeSigmaT += o.NegativeSigmaT
	c.NaNIntersections += o.NaNIntersections
}

// Total sums every bounded counter.
func (c DiagCounters) Total() int {
	return c.LostParticles + c.NegativeSigmaT + c.NaNIntersections
}

// MaxLostParticleFraction is the per-run cap on diagnosed-but-tolerated
// transport errors, expressed as a fraction of the batch's particle
// count.
const MaxLostParticleFraction = 0.01

// Stop decides, with rank-wide consensus, whether this batch's
// accumulated diagnostics are bad enough to abort the run. A serial run
// decides locally; a parallel run all-reduces a per-rank "I want to stop"
// flag so every rank aborts together.
func (c DiagCounters) Stop(nParticlesThisBatch int) bool {
	wantStop := nParticlesThisBatch > 0 &&
		float64(c.Total())/float64(nParticlesThisBatch) > MaxLostParticleFraction

	if !mpi.IsOn() {
		if wantStop {
			log.Printf("mc: aborting run: lost-particle fraction exceeded %.4f (%d/%d)",
				MaxLostParticleFraction, c.Total(), nParticlesThisBatch)
		}
		return wantStop
	}

	n := mpi.Size()
	flags := make([]int, n)
	if wantStop {
		flags[mpi.Rank()] = 1
	}
	workspace := make([]int, n)
	mpi.IntAllReduceMax(flags, workspace)
	for _, f := range flags {
		if f > 0 {
			if mpi.Rank() == 0 {
				log.Printf("mc: aborting distributed run: a rank exceeded the lost-particle fraction")
			}
			return true
		}
	}
	return false
}
