// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tally

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestPoolAcquireReduceReleases(tst *testing.T) {
	chk.PrintTitle("pool acquire/reduce round trip")
	p := NewPool()
	c1 := p.Acquire()
	c2 := p.Acquire()
	c1.Add(Population, 3)
	c2.Add(Population, 4)
	c1.Add(KeffCollision, 1.5)

	b := p.Reduce()
	chk.Scalar(tst, "population total", 1e-12, b.Value(Population), 7)
	chk.Scalar(tst, "keff-collision total", 1e-12, b.Value(KeffCollision), 1.5)

	// children must come back reset, ready for the next batch
	c3 := p.Acquire()
	if c3 != c1 && c3 != c2 {
		tst.Errorf("expected Reduce to return children to the free list")
	}
	c3.Add(Population, 1)
	b2 := p.Reduce()
	chk.Scalar(tst, "second batch starts from zero", 1e-12, b2.Value(Population), 1)
}

func TestBatchMergeAssociative(tst *testing.T) {
	chk.PrintTitle("batch merge associativity")
	mk := func(pop, leak float64) Batch {
		p := NewPool()
		c := p.Acquire()
		c.Add(Population, pop)
		c.Add(Leakage, leak)
		return p.Reduce()
	}
	a, b, c := mk(1, 0.1), mk(2, 0.2), mk(3, 0.3)
	left := a.Add(b).Add(c)
	right := a.Add(b.Add(c))
	chk.Scalar(tst, "population associative", 1e-12, left.Value(Population), right.Value(Population))
	chk.Scalar(tst, "leakage associative", 1e-12, left.Value(Leakage), right.Value(Leakage))
}

func TestStatsWelfordMeanAndVariance(tst *testing.T) {
	chk.PrintTitle("Welford running mean/variance")
	var s Stats
	mk := func(v float64) Batch {
		p := NewPool()
		c := p.Acquire()
		c.Add(KeffTrackLength, v)
		return p.Reduce()
	}
	samples := []float64{1.0, 1.0, 1.0}
	for _, v := range samples {
		s.Update(mk(v))
	}
	chk.Scalar(tst, "mean of constant samples", 1e-12, s.Mean(KeffTrackLength), 1.0)
	chk.Scalar(tst, "variance of constant samples", 1e-12, s.Variance(KeffTrackLength), 0.0)
}

func TestStatsVarianceRequiresTwoSamples(tst *testing.T) {
	chk.PrintTitle("variance undefined before 2 samples")
	var s Stats
	p := NewPool()
	c := p.Acquire()
	c.Add(Absorption, 5)
	s.Update(p.Reduce())
	chk.Scalar(tst, "single-sample variance reports zero", 1e-12, s.Variance(Absorption), 0)
}
