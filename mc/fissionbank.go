// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mc

import "github.com/cpmech/neutron/transport"

// BankEntry is one (cell reference, particle) pair of a fission bank.
// Cell is -1 for source particles that have not been located yet.
type BankEntry struct {
	Cell     int
	Particle transport.Particle
}

// FissionBank is an ordered sequence of banked particles: the read-only
// current-cycle source (built once from the user source, or from the
// previous cycle's rebuild) and, during a batch, the append-only per-
// worker output collected by the driver.
type FissionBank struct {
	Entries []BankEntry
}

// NewFissionBank returns an empty bank with capacity hint n.
func NewFissionBank(n int) *FissionBank {
	return &FissionBank{Entries: make([]BankEntry, 0, n)}
}

// Append adds one entry to the bank.
func (b *FissionBank) Append(e BankEntry) { b.Entries = append(b.Entries, e) }

// Len reports the bank's current size.
func (b *FissionBank) Len() int { return len(b.Entries) }

// Particles returns the bare particle slice, for callers that do not care
// about the per-entry cell references.
func (b *FissionBank) Particles() []transport.Particle {
	out := make([]transport.Particle, len(b.Entries))
	for i, e := range b.Entries {
		out[i] = e.Particle
	}
	return out
}
