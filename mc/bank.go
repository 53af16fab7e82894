// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mc

import (
	"math"

	"github.com/cpmech/neutron/transport"
	"github.com/cpmech/neutron/xs"
)

// Partition computes, for n particles spread over p ranks, the contiguous
// slice [start, start+size) owned by rank r, and the stride — the sum of
// slice sizes of lower-ranked peers. Extra particles
// (n mod p) go round-robin to the first n-mod-p ranks.
func Partition(n, p, r int) (start, size, stride int) {
	base := n / p
	extra := n % p
	for i := 0; i < r; i++ {
		s := base
		if i < extra {
			s++
		}
		stride += s
	}
	size = base
	if r < extra {
		size++
	}
	start = stride
	return
}

// SplitDaughter implements the bank-rebuild normalisation: a fission
// daughter's weight already carries the w/k̂ scaling applied at emission;
// rebuild turns that single weighted daughter into max(1, floor(weight))
// copies of weight/copies each, implementing implicit capture with
// Russian-roulette-style bias control around the current k estimate
// without a second division by k̂.
func SplitDaughter(d xs.Daughter) []transport.Particle {
	n := int(math.Floor(d.Weight))
	if n < 1 {
		n = 1
	}
	w := d.Weight / float64(n)
	out := make([]transport.Particle, n)
	for i := range out {
		out[i] = transport.Particle{
			Pos:    d.Pos,
			Dir:    d.Dir,
			Energy: d.Energy,
			Weight: w,
			Status: transport.Alive,
		}
	}
	return out
}
