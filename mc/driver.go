// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mc

import (
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/cpmech/gosl/mpi"
	"github.com/cpmech/neutron/csg"
	"github.com/cpmech/neutron/tally"
	"github.com/cpmech/neutron/transport"
	"github.com/cpmech/neutron/xs"
)

// Source samples a fresh particle for the very first cycle's fission bank.
// Box, cylinder, isotropic-point and weighted-custom-mixture kinds all
// implement this by composing tally.Stream draws; see input.Source.
type Source interface {
	Sample(rng *tally.Stream) transport.Particle
}

// BatchRecord is one active batch's reduced k-eff estimates and elapsed
// wall time, the per-batch line of the persisted report.
type BatchRecord struct {
	Index     int
	KeffColl  float64
	KeffAbs   float64
	KeffTrack float64
	Elapsed   time.Duration
}

// Driver runs the k-eff power-iteration batch loop: it seeds RNG streams,
// fills the initial fission bank from a user Source, and for each batch
// drives the local slice of histories (transport.RunHistory) under the
// configured concurrency Policy, reduces tallies up through the hierarchy
// (tally.Pool, then an mpi all-reduce), and rebuilds the next bank by
// normalised splitting.
type Driver struct {
	World    *transport.World
	Settings Settings

	pool *tally.Pool
	base tally.Stream

	rank, nproc int

	// Diag accumulates bounded runtime-transport diagnostics across the
	// whole run; checked for an abort condition at every batch boundary
	// via Diag.Stop.
	Diag       DiagCounters
	warnedDiag bool
}

// NewDriver returns a Driver bound to world and settings. Rank/nproc are
// read from gosl/mpi when a parallel run is active (mpi.IsOn()); a serial
// run is rank 0 of 1.
func NewDriver(world *transport.World, settings Settings) *Driver {
	rank, nproc := 0, 1
	if mpi.IsOn() {
		rank, nproc = mpi.Rank(), mpi.Size()
	}
	return &Driver{
		World:    world,
		Settings: settings,
		pool:     tally.NewPool(),
		base:     tally.NewStream(settings.Seed),
		rank:     rank,
		nproc:    nproc,
	}
}

// Run drives the full criticality calculation: Settings.Inactive skip
// batches followed by (Settings.Batches - Settings.Inactive) active
// batches, returning the running (mean, variance) statistics over the
// active batches and the per-batch record sequence for the report.
func (d *Driver) Run(source Source) (*tally.Stats, []BatchRecord, error) {
	if d.Settings.Batches <= d.Settings.Inactive {
		return nil, nil, fmt.Errorf("mc: batches (%d) must exceed inactive (%d)", d.Settings.Batches, d.Settings.Inactive)
	}

	localBank := d.sampleInitialBank(source)
	kEstimate := 1.0

	var stats tally.Stats
	var records []BatchRecord

	for batch := 0; batch < d.Settings.Batches; batch++ {
		t0 := time.Now()

		// rebalance: every rank re-announces its real bank size and the
		// stride is recomputed as the cumulative sum of lower ranks'
		// actual sizes before any history of this batch starts. The bank
		// each rank carries is the organic set of daughters its own
		// histories produced, so an assumed even split would alias RNG
		// substreams across ranks; only the gathered true sizes keep
		// (seed, global history index) rank-count independent.
		sizes := d.allGatherInt(localBank.Len())
		globalN, stride := 0, 0
		for r, s := range sizes {
			if r < d.rank {
				stride += s
			}
			globalN += s
		}

		localBatch, daughters := d.runLocal(localBank, stride, kEstimate)
		if !d.warnedDiag && d.Diag.Total() > 0 {
			d.warnedDiag = true
			log.Printf("mc: runtime transport diagnostics: %d lost, %d bad Sigma_t, %d NaN intersections",
				d.Diag.LostParticles, d.Diag.NegativeSigmaT, d.Diag.NaNIntersections)
		}
		globalBatch := d.allReduceBatch(localBatch)

		n := globalN
		if n == 0 {
			n = 1
		}

		// every estimator is carried as a per-source-particle quantity
		// from here on: the k-eff totals become the batch's k estimates,
		// population/leakage/absorption become fractions of the batch
		perParticle := make([]float64, tally.NumEstimators)
		globalBatch.Values(perParticle)
		for i := range perParticle {
			perParticle[i] /= float64(n)
		}
		norm := tally.BatchOf(perParticle)

		active := batch >= d.Settings.Inactive
		if active {
			stats.Update(norm)
		}

		kEstimate = norm.Value(tally.KeffTrackLength)
		if kEstimate <= 0 || math.IsNaN(kEstimate) || math.IsInf(kEstimate, 0) {
			// a batch with no fission production would otherwise poison
			// the daughter weights of every later cycle
			kEstimate = 1
		}

		if active {
			records = append(records, BatchRecord{
				Index:     batch,
				KeffColl:  norm.Value(tally.KeffCollision),
				KeffAbs:   norm.Value(tally.KeffAbsorption),
				KeffTrack: norm.Value(tally.KeffTrackLength),
				Elapsed:   time.Since(t0),
			})
		}

		if d.Diag.Stop(localBank.Len()) {
			return &stats, records, fmt.Errorf("mc: run aborted: excessive lost-particle rate")
		}

		// advance the base stream past every substream this batch could
		// have touched, so the next batch's histories draw fresh sequences
		d.base = d.base.Jump(uint64(globalN) * d.Settings.MaxRNGPerHistory)

		localBank = d.rebuildBank(daughters)
	}

	return &stats, records, nil
}

// sampleInitialBank draws Settings.Particles source particles using the
// same RNG-striding pattern as history execution, restricted to this
// rank's slice. Source particles carry no cell yet; RunHistory locates
// them on entry.
func (d *Driver) sampleInitialBank(source Source) *FissionBank {
	_, size, stride := Partition(d.Settings.Particles, d.nproc, d.rank)
	bank := NewFissionBank(size)
	for i := 0; i < size; i++ {
		idx := uint64(stride+i) * d.Settings.MaxSourceSamples
		rng := d.base.Jump(idx)
		bank.Append(BankEntry{Cell: -1, Particle: source.Sample(&rng)})
	}
	// jump the base past the whole source pass; history substreams must
	// not alias the source substreams
	d.base = d.base.Jump(uint64(d.Settings.Particles) * d.Settings.MaxSourceSamples)
	return bank
}

// runLocal drives every particle in bank under the configured concurrency
// Policy, returning the reduced tally.Batch and every fission daughter
// banked during the batch, each paired with the cell it was born in.
func (d *Driver) runLocal(bank *FissionBank, stride int, kEstimate float64) (tally.Batch, []BankEntry) {
	switch d.Settings.Policy {
	case PolicySingle:
		return d.runRange(bank, stride, kEstimate)
	case PolicyPool:
		return d.runWorkers(bank, stride, kEstimate, true)
	default: // PolicyTaskRange
		return d.runWorkers(bank, stride, kEstimate, false)
	}
}

// bankDaughters converts one history's daughters into bank entries born
// in the cell the history ended in.
func bankDaughters(res transport.Result, out []BankEntry) []BankEntry {
	for _, dd := range res.Daughters {
		out = append(out, BankEntry{
			Cell: res.Cell,
			Particle: transport.Particle{
				Pos:    dd.Pos,
				Dir:    dd.Dir,
				Energy: dd.Energy,
				Weight: dd.Weight,
				Cell:   res.Cell,
				Status: transport.Banked,
			},
		})
	}
	return out
}

// runRange executes every history of bank sequentially on the calling
// goroutine — the single-threaded determinism-debugging mode.
func (d *Driver) runRange(bank *FissionBank, stride int, kEstimate float64) (tally.Batch, []BankEntry) {
	loc := csg.NewLocator(d.World.Catalogue)
	child := d.pool.Acquire()
	var daughters []BankEntry
	for i, entry := range bank.Entries {
		idx := uint64(stride+i) * d.Settings.MaxRNGPerHistory
		rng := d.base.Jump(idx)
		res := transport.RunHistory(d.World, loc, entry.Particle, kEstimate, &rng, child)
		daughters = bankDaughters(res, daughters)
	}
	d.Diag.Add(diagOf(loc))
	return d.pool.Reduce(), daughters
}

// diagOf snapshots a worker locator's bounded diagnostic counters.
func diagOf(loc *csg.Locator) DiagCounters {
	return DiagCounters{
		LostParticles:    loc.LostParticles,
		NegativeSigmaT:   loc.NegativeSigmaT,
		NaNIntersections: loc.NaNIntersections,
	}
}

// runWorkers drives bank concurrently across Settings.Threads goroutines.
// byChannel selects the fork-join pool (histories pulled one at a time
// from a shared index channel, work-stealing in spirit); otherwise the
// local slice is split into contiguous static sub-ranges, one per worker.
// The static split keeps the daughter concatenation order equal to the
// serial order, which is what makes the task-range policy reproducible
// across thread counts.
func (d *Driver) runWorkers(bank *FissionBank, stride int, kEstimate float64, byChannel bool) (tally.Batch, []BankEntry) {
	threads := d.Settings.Threads
	if threads < 1 {
		threads = 1
	}
	n := bank.Len()
	if threads > n && n > 0 {
		threads = n
	}
	if n == 0 {
		return tally.Batch{}, nil
	}

	var wg sync.WaitGroup
	results := make([][]BankEntry, threads)
	diags := make([]DiagCounters, threads)

	// runIndices executes exactly the history indices drained from
	// indices on one goroutine, writing its daughters and diagnostic
	// counters into its own worker-indexed slot — no shared mutable state
	// between goroutines, nothing to lock on this path.
	runIndices := func(worker int, indices func() (int, bool)) {
		defer wg.Done()
		loc := csg.NewLocator(d.World.Catalogue)
		child := d.pool.Acquire()
		var local []BankEntry
		for {
			i, ok := indices()
			if !ok {
				break
			}
			idx := uint64(stride+i) * d.Settings.MaxRNGPerHistory
			rng := d.base.Jump(idx)
			res := transport.RunHistory(d.World, loc, bank.Entries[i].Particle, kEstimate, &rng, child)
			local = bankDaughters(res, local)
		}
		diags[worker] = diagOf(loc)
		results[worker] = local
	}

	if byChannel {
		jobs := make(chan int, n)
		for i := 0; i < n; i++ {
			jobs <- i
		}
		close(jobs)
		for w := 0; w < threads; w++ {
			wg.Add(1)
			go runIndices(w, func() (int, bool) { i, ok := <-jobs; return i, ok })
		}
	} else {
		base, extra := n/threads, n%threads
		lo := 0
		for w := 0; w < threads; w++ {
			hi := lo + base
			if w < extra {
				hi++
			}
			wg.Add(1)
			i, hiLocal := lo, hi
			go runIndices(w, func() (int, bool) {
				if i >= hiLocal {
					return 0, false
				}
				v := i
				i++
				return v, true
			})
			lo = hi
		}
	}
	wg.Wait()

	var daughters []BankEntry
	for i, r := range results {
		daughters = append(daughters, r...)
		d.Diag.Add(diags[i])
	}
	return d.pool.Reduce(), daughters
}

// rebuildBank assembles the next cycle's local fission bank from this
// batch's daughters by normalised splitting, preserving each daughter's
// birth position and cell.
func (d *Driver) rebuildBank(daughters []BankEntry) *FissionBank {
	bank := NewFissionBank(len(daughters))
	for _, e := range daughters {
		for _, p := range SplitDaughter(xs.Daughter{
			Pos:    e.Particle.Pos,
			Dir:    e.Particle.Dir,
			Energy: e.Particle.Energy,
			Weight: e.Particle.Weight,
		}) {
			p.Cell = e.Cell
			bank.Append(BankEntry{Cell: e.Cell, Particle: p})
		}
	}
	return bank
}

// allGatherInt collects every rank's value of v into a rank-indexed slice
// (each rank contributes a one-hot vector to an all-reduce sum, which is
// an all-gather). A serial run returns just {v}. This feeds the per-batch
// stride rebalance: the cumulative sum over lower ranks' real bank sizes.
func (d *Driver) allGatherInt(v int) []int {
	if !mpi.IsOn() {
		return []int{v}
	}
	data := make([]float64, d.nproc)
	data[d.rank] = float64(v)
	workspace := make([]float64, d.nproc)
	mpi.AllReduceSum(data, workspace)
	out := make([]int, d.nproc)
	for i, x := range data {
		out[i] = int(x)
	}
	return out
}

// allReduceBatch folds every rank's local tally.Batch into the global
// batch total. A proper all-reduce is substituted for a point-to-point
// gather-at-rank-0: tally merges are commutative and associative, so the
// result is identical.
func (d *Driver) allReduceBatch(b tally.Batch) tally.Batch {
	if !mpi.IsOn() {
		return b
	}
	data := make([]float64, tally.NumEstimators)
	workspace := make([]float64, tally.NumEstimators)
	b.Values(data)
	mpi.AllReduceSum(data, workspace)
	return tally.BatchOf(data)
}
