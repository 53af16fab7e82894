// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cpmech/neutron/geom"
	"github.com/cpmech/neutron/transport"
	"github.com/cpmech/neutron/xs"
)

func TestPartitionRoundRobinExtras(tst *testing.T) {
	// 10 particles over 3 ranks: sizes 4,3,3; stride is the running
	// offset of lower-ranked peers.
	start0, size0, stride0 := Partition(10, 3, 0)
	start1, size1, stride1 := Partition(10, 3, 1)
	start2, size2, stride2 := Partition(10, 3, 2)

	assert.Equal(tst, 4, size0)
	assert.Equal(tst, 3, size1)
	assert.Equal(tst, 3, size2)
	assert.Equal(tst, 0, stride0)
	assert.Equal(tst, 4, stride1)
	assert.Equal(tst, 7, stride2)
	assert.Equal(tst, stride0, start0)
	assert.Equal(tst, stride1, start1)
	assert.Equal(tst, stride2, start2)
	assert.Equal(tst, 10, size0+size1+size2)
}

func TestPartitionSingleRank(tst *testing.T) {
	start, size, stride := Partition(7, 1, 0)
	assert.Equal(tst, 0, start)
	assert.Equal(tst, 7, size)
	assert.Equal(tst, 0, stride)
}

func TestSplitDaughterWholeWeight(tst *testing.T) {
	// weight already >= 1: one copy per floor(weight), each renormalised.
	out := SplitDaughter(xs.Daughter{Weight: 2.7})
	assert.Len(tst, out, 2)
	for _, p := range out {
		assert.InDelta(tst, 1.35, p.Weight, 1e-12)
	}
}

func TestSplitDaughterSubUnitWeight(tst *testing.T) {
	// weight below 1: implicit capture still keeps exactly one copy,
	// carrying the full fractional weight rather than killing the daughter.
	out := SplitDaughter(xs.Daughter{Weight: 0.3})
	assert.Len(tst, out, 1)
	assert.InDelta(tst, 0.3, out[0].Weight, 1e-12)
}

func TestSplitDaughterWeightConservation(tst *testing.T) {
	for _, w := range []float64{0.1, 0.9, 1.0, 1.4, 3.9, 5.0} {
		out := SplitDaughter(xs.Daughter{Weight: w})
		var total float64
		for _, p := range out {
			total += p.Weight
		}
		assert.InDelta(tst, w, total, 1e-9)
	}
}

func TestSplitDaughterKeepsBirthSite(tst *testing.T) {
	d := xs.Daughter{
		Pos:    geom.Vec3{1, 2, 3},
		Dir:    geom.Vec3{0, 0, 1},
		Energy: 2e6,
		Weight: 2.0,
	}
	out := SplitDaughter(d)
	assert.Len(tst, out, 2)
	for _, p := range out {
		assert.Equal(tst, d.Pos, p.Pos)
		assert.Equal(tst, d.Dir, p.Dir)
		assert.Equal(tst, d.Energy, p.Energy)
	}
}

func TestFissionBankAppendAndParticles(tst *testing.T) {
	b := NewFissionBank(2)
	b.Append(BankEntry{Cell: 3, Particle: transport.Particle{Weight: 1}})
	b.Append(BankEntry{Cell: -1, Particle: transport.Particle{Weight: 0.5}})
	assert.Equal(tst, 2, b.Len())
	ps := b.Particles()
	assert.Len(tst, ps, 2)
	assert.Equal(tst, 1.0, ps[0].Weight)
	assert.Equal(tst, 0.5, ps[1].Weight)
}
