// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command neutronmc runs a Monte Carlo k-eff criticality calculation from
// one or more JSON input files, each a flat array of definition objects
// (surfaces, cells, lattices, materials, settings, source). The files'
// definitions are merged, lowered by input.Build, driven by mc.Driver.Run,
// and rendered to a persisted text report.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
	"github.com/cpmech/neutron/input"
	"github.com/cpmech/neutron/mc"
)

// Exit codes: 0 clean, 1 parse error (bad flags or
// malformed input file), 2 setup error (Build rejected the model), 3
// runtime error (the driver aborted or the report could not be written).
const (
	exitOK      = 0
	exitParse   = 1
	exitSetup   = 2
	exitRuntime = 3
)

func main() {
	mpi.Start(false)
	defer mpi.Stop(false)

	defer func() {
		if r := recover(); r != nil {
			if mpi.Rank() == 0 {
				io.PfRed("ERROR: %v\n", r)
			}
			os.Exit(exitRuntime)
		}
	}()

	seed := flag.Uint64("seed", 0, "override rng seed (0 keeps the input file's value)")
	batches := flag.Int("batches", 0, "override batch count (0 keeps the input file's value)")
	inactive := flag.Int("inactive", -1, "override inactive batch count (-1 keeps the input file's value)")
	particles := flag.Int("particles", 0, "override particles per batch (0 keeps the input file's value)")
	threads := flag.Int("threads", 0, "override worker thread count (0 keeps the input file's value)")
	output := flag.String("output", "", "report output path (default: stdout)")
	logdir := flag.String("logdir", ".", "directory for the per-rank setup log")
	flag.Parse()

	if flag.NArg() < 1 {
		if mpi.Rank() == 0 {
			io.PfRed("ERROR: missing input file\nusage: neutronmc [flags] <input.json> [more.json ...]\n")
		}
		os.Exit(exitParse)
	}

	if err := input.InitLogFile(*logdir, "neutronmc"); err != nil {
		io.PfRed("ERROR: %v\n", err)
		os.Exit(exitSetup)
	}
	defer input.FlushLog()

	// geometry, materials, settings and sources may live in separate input
	// documents; the definition arrays are concatenated before lowering
	var defs []input.Definition
	for _, fnamepath := range flag.Args() {
		fileDefs, err := readDefinitions(fnamepath)
		if input.LogErr(err, "reading input file "+fnamepath) {
			os.Exit(exitParse)
		}
		defs = append(defs, fileDefs...)
	}

	// NUCLEAR_DATA_PATH-backed isotope resolution; awr/fissile metadata a real ACE header would carry is
	// not part of the CSV stand-in, so every isotope an ace material
	// references gets the defaults AWR=1 and non-fissile.
	lib := input.NewEnvIsotopeLibrary(nil, nil)

	result, err := input.Build(defs, lib)
	if input.LogErr(err, "building model") {
		os.Exit(exitSetup)
	}

	applyOverrides(&result.Settings, *seed, *batches, *inactive, *particles, *threads)

	if input.LogErrCond(result.Source == nil, "missing source definition") ||
		input.LogErrCond(result.Settings.Batches <= 0, "missing criticality setting (batches)") ||
		input.LogErrCond(result.Settings.Particles <= 0, "missing criticality setting (particles)") {
		if mpi.Rank() == 0 {
			io.PfRed("ERROR: incomplete model, see log\n")
		}
		os.Exit(exitSetup)
	}

	// an unwritable output file is a setup error: fail before burning
	// batches, not after
	var outFile *os.File
	if *output != "" && mpi.Rank() == 0 {
		f, err := os.Create(*output)
		if err != nil {
			io.PfRed("ERROR: creating output file %s: %v\n", *output, err)
			os.Exit(exitSetup)
		}
		defer f.Close()
		outFile = f
	}

	verb := input.Verbosity()
	if mpi.Rank() == 0 && verb >= input.LevelMsg {
		io.Pfblue2("neutronmc: %s, %s\n", result.GeometrySummary, result.MaterialSummary)
	}

	driver := mc.NewDriver(result.TransportWorld(), result.Settings)
	stats, records, err := driver.Run(result.Source)
	if err != nil {
		input.LogErr(err, "criticality calculation")
		if mpi.Rank() == 0 {
			io.PfRed("ERROR: %v\n", err)
		}
		os.Exit(exitRuntime)
	}

	if mpi.Rank() != 0 {
		return
	}

	report := mc.NewReport(result.Settings.Seed, result.GeometrySummary, result.MaterialSummary)
	report.Batches = records
	report.Stats = stats

	if outFile != nil {
		// a write failure this late is a diagnostic, not a run failure:
		// fall back to the console so the results survive
		if err := report.Write(outFile); err != nil {
			io.PfRed("WARNING: writing report to %s: %v\n", *output, err)
			report.Write(os.Stdout)
		}
	} else if err := report.Write(os.Stdout); err != nil {
		io.PfRed("ERROR: writing report: %v\n", err)
		os.Exit(exitRuntime)
	}

	if verb >= input.LevelOk {
		io.Pfcyan("neutronmc: done (run %s)\n", report.RunID)
	}
}

// readDefinitions decodes fname's top-level JSON array of definition
// objects.
func readDefinitions(fname string) ([]input.Definition, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var defs []input.Definition
	if err := json.NewDecoder(f).Decode(&defs); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", fname, err)
	}
	return defs, nil
}

// applyOverrides layers CLI flags on top of the input file's "setting"
// object; a zero (or, for inactive, negative) flag value leaves the input
// file's value untouched.
func applyOverrides(s *mc.Settings, seed uint64, batches, inactive, particles, threads int) {
	if seed != 0 {
		s.Seed = seed
	}
	if batches != 0 {
		s.Batches = batches
	}
	if inactive >= 0 {
		s.Inactive = inactive
	}
	if particles != 0 {
		s.Particles = particles
	}
	if threads != 0 {
		s.Threads = threads
	}
}
