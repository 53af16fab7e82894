// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mc implements the k-eff power-iteration driver: source sampling,
// the batch/cycle loop, fission-bank propagation, per-rank striding and
// distributed tally reduction.
package mc

// Policy selects how a rank's local slice of histories is executed within
// a batch: serial, a fixed worker pool, or static task ranges.
type Policy int

const (
	// PolicySingle runs every local history on the calling goroutine,
	// the determinism-debugging mode.
	PolicySingle Policy = iota
	// PolicyPool runs histories on a fixed pool of worker goroutines
	// pulling from a shared index channel (fork-join with work-stealing
	// in spirit, without a dedicated scheduler).
	PolicyPool
	// PolicyTaskRange partitions the local slice into contiguous
	// sub-ranges, one per worker, started and joined together.
	PolicyTaskRange
)

// Settings carries the tunables of the "setting" input kind and their
// documented defaults.
type Settings struct {
	Seed                   uint64
	Threads                int
	Policy                 Policy
	MaxRNGPerHistory       uint64
	MaxSourceSamples       uint64
	Batches                int
	Inactive               int
	Particles              int
	EnergyFreeGasThreshold float64
	AWRFreeGasThreshold    float64
}

// DefaultSettings returns the documented defaults: max_source_samples=100,
// max_rng_per_history=100000, multithread=tasks, seed=10.
func DefaultSettings() Settings {
	return Settings{
		Seed:             10,
		Threads:          1,
		Policy:           PolicyTaskRange,
		MaxRNGPerHistory: 100000,
		MaxSourceSamples: 100,
	}
}
