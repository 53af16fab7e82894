// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tally

import (
	"math"
	"sync"
)

// Estimator names the six canonical per-batch estimators: population,
// leakage, absorption, and the three k-eff estimators (absorption,
// collision, track-length).
type Estimator int

const (
	Population Estimator = iota
	Leakage
	Absorption
	KeffAbsorption
	KeffCollision
	KeffTrackLength
	nEstimators
)

// NumEstimators is the number of estimators a Batch carries, for callers
// that serialise batches (the MPI reduce).
const NumEstimators = int(nEstimators)

// Child is a thread-local accumulator: one worker owns it for the whole
// batch and adds contributions with no locking on the hot path.
type Child struct {
	values [nEstimators]float64
}

// Add adds x to estimator e's running sum for this batch.
func (c *Child) Add(e Estimator, x float64) {
	c.values[e] += x
}

// Value returns c's running total for estimator e.
func (c *Child) Value(e Estimator) float64 { return c.values[e] }

// reset clears a recycled child before handing it to a new worker.
func (c *Child) reset() {
	for i := range c.values {
		c.values[i] = 0
	}
}

// Pool hands out Children to workers and reclaims them at batch end: idle
// pool allocates; busy pool pops an existing, already-reset, entry. A LIFO
// stack under a single mutex stands in for a spin lock — gosl-style code
// favours a plain mutex over a hand-rolled spinlock, and the pool is only
// touched at batch boundaries, never on the per-history hot path.
type Pool struct {
	mu    sync.Mutex
	free  []*Child
	batch []*Child // every child handed out this batch, for Reduce
}

// NewPool returns an empty pool; it grows lazily to the peak active
// thread count and never shrinks.
func NewPool() *Pool {
	return &Pool{}
}

// Acquire pops a reset Child from the free list, or allocates a new one.
func (p *Pool) Acquire() *Child {
	p.mu.Lock()
	defer p.mu.Unlock()
	var c *Child
	if n := len(p.free); n > 0 {
		c = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		c = &Child{}
	}
	p.batch = append(p.batch, c)
	return c
}

// Release returns c to the free list for reuse by a later batch.
func (p *Pool) Release(c *Child) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.free = append(p.free, c)
}

// Reduce sums every child handed out this batch into a Batch record,
// resets and frees them all, and clears the outstanding list.
func (p *Pool) Reduce() Batch {
	p.mu.Lock()
	defer p.mu.Unlock()
	var b Batch
	for _, c := range p.batch {
		for e := Estimator(0); e < nEstimators; e++ {
			b.values[e] += c.values[e]
		}
		c.reset()
		p.free = append(p.free, c)
	}
	p.batch = p.batch[:0]
	return b
}

// Batch is one rank's reduced totals for one batch, ready to be folded
// into the running Stats or all-reduced across ranks.
type Batch struct {
	values [nEstimators]float64
}

// Value returns the batch total for estimator e.
func (b Batch) Value(e Estimator) float64 { return b.values[e] }

// Values copies the batch totals into dst (length NumEstimators), the
// flat layout the MPI all-reduce ships between ranks.
func (b Batch) Values(dst []float64) {
	copy(dst, b.values[:])
}

// BatchOf rebuilds a Batch from a flat estimator slice produced by Values
// (possibly summed across ranks in between).
func BatchOf(vals []float64) Batch {
	var b Batch
	copy(b.values[:], vals)
	return b
}

// Add returns the elementwise sum of two batches. The merge is
// commutative and associative (merge(merge(a,b),c) == merge(a,merge(b,c))
// up to float ULPs), which is what lets children, ranks and batches fold
// in any order.
func (b Batch) Add(o Batch) Batch {
	var r Batch
	for e := range b.values {
		r.values[e] = b.values[e] + o.values[e]
	}
	return r
}

// Stats accumulates running (mean, variance) per estimator across active
// batches using Welford's online algorithm.
type Stats struct {
	n    int
	mean [nEstimators]float64
	m2   [nEstimators]float64
}

// Update folds one active batch's totals into the running statistics.
func (s *Stats) Update(b Batch) {
	s.n++
	for e := range b.values {
		delta := b.values[e] - s.mean[e]
		s.mean[e] += delta / float64(s.n)
		delta2 := b.values[e] - s.mean[e]
		s.m2[e] += delta * delta2
	}
}

// Mean returns the running mean for estimator e.
func (s *Stats) Mean(e Estimator) float64 { return s.mean[e] }

// Variance returns the sample variance for estimator e; zero until at
// least two batches have been folded in.
func (s *Stats) Variance(e Estimator) float64 {
	if s.n < 2 {
		return 0
	}
	return s.m2[e] / float64(s.n-1)
}

// StdDev returns the sample standard deviation for estimator e.
func (s *Stats) StdDev(e Estimator) float64 {
	v := s.Variance(e)
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}
