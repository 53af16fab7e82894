// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mc

import (
	"bytes"
	goio "io"
	"time"

	"github.com/cpmech/gosl/io"
	"github.com/cpmech/neutron/tally"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
)

// Report is the persisted output of a run: a header (seed, geometry
// summary, material summary), per-active-batch k-eff and elapsed time,
// and the final running mean ± σ for each tally. RunID stamps a fresh
// UUID per run so a directory of saved reports from repeated invocations
// of the same input can be told apart at a glance.
type Report struct {
	RunID           string
	Seed            uint64
	GeometrySummary string
	MaterialSummary string
	Batches         []BatchRecord
	Stats           *tally.Stats
}

// NewReport builds a Report header; Batches/Stats are filled in after
// Driver.Run completes.
func NewReport(seed uint64, geomSummary, matSummary string) *Report {
	return &Report{
		RunID:           uuid.NewString(),
		Seed:            seed,
		GeometrySummary: geomSummary,
		MaterialSummary: matSummary,
	}
}

// Write renders the report as a plain-text file: io.Ff into a buffer,
// then one write to w.
func (r *Report) Write(w goio.Writer) error {
	b := new(bytes.Buffer)
	io.Ff(b, "neutron transport run %s\n", r.RunID)
	io.Ff(b, "seed: %d\n", r.Seed)
	io.Ff(b, "geometry: %s\n", r.GeometrySummary)
	io.Ff(b, "materials: %s\n\n", r.MaterialSummary)

	io.Ff(b, "%6s %12s %12s %12s %10s\n", "batch", "k(track)", "k(coll)", "k(abs)", "elapsed")
	for _, rec := range r.Batches {
		io.Ff(b, "%6d %12.6f %12.6f %12.6f %10s\n",
			rec.Index, rec.KeffTrack, rec.KeffColl, rec.KeffAbs, rec.Elapsed.Round(time.Microsecond))
	}

	if r.Stats != nil {
		mean, std := r.batchwiseKeffMeanStd()
		io.Ff(b, "\nfinal k-eff (track-length): %.6f +/- %.6f\n", mean, std)
		io.Ff(b, "final k-eff (collision):    %.6f +/- %.6f\n",
			r.Stats.Mean(tally.KeffCollision), r.Stats.StdDev(tally.KeffCollision))
		io.Ff(b, "final k-eff (absorption):   %.6f +/- %.6f\n",
			r.Stats.Mean(tally.KeffAbsorption), r.Stats.StdDev(tally.KeffAbsorption))
		io.Ff(b, "leakage:                    %.6f +/- %.6f\n",
			r.Stats.Mean(tally.Leakage), r.Stats.StdDev(tally.Leakage))
		io.Ff(b, "absorption:                 %.6f +/- %.6f\n",
			r.Stats.Mean(tally.Absorption), r.Stats.StdDev(tally.Absorption))
		io.Ff(b, "population:                 %.6f +/- %.6f\n",
			r.Stats.Mean(tally.Population), r.Stats.StdDev(tally.Population))
	}

	_, err := w.Write(b.Bytes())
	return err
}

// batchwiseKeffMeanStd recomputes mean/stddev of the per-batch
// track-length k-eff sequence with gonum/stat as a cross-check against
// the streaming Welford accumulation kept in r.Stats. Both run over the
// same per-particle-normalised active-batch values, so the two agree up to
// rounding.
func (r *Report) batchwiseKeffMeanStd() (mean, std float64) {
	if len(r.Batches) == 0 {
		return 0, 0
	}
	xs := make([]float64, len(r.Batches))
	for i, rec := range r.Batches {
		xs[i] = rec.KeffTrack
	}
	return stat.MeanStdDev(xs, nil)
}
