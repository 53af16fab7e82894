// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package input implements the parser-neutral input object model:
// JSON-decoded "definition objects" keyed by a closed set of Kind
// strings, and Build, which lowers them into the immutable catalogues
// (csg, xs) and settings the rest of the engine consumes.
package input

import (
	"encoding/json"

	"github.com/cpmech/gosl/fun"
)

// Definition is one raw input object: a Kind tag plus its kind-specific
// payload, deferred-decoded by Build. The set of kinds is
// closed; Build dispatches on Kind with a plain switch, never an open
// registry.
type Definition struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"-"`
}

// UnmarshalJSON captures Kind and keeps the rest of the object as raw
// bytes for Build to re-decode into the concrete kind-specific struct.
func (d *Definition) UnmarshalJSON(b []byte) error {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}
	d.Kind = probe.Kind
	d.Payload = append(json.RawMessage(nil), b...)
	return nil
}

// SurfaceDef is the "surface" input kind.
type SurfaceDef struct {
	Id       int       `json:"id"`
	Type     string    `json:"type"` // plane-x/y/z, plane, sphere, cyl-x/y/z, cone-x/y/z, quadric
	Coeffs   []float64 `json:"coeffs"`
	Boundary string    `json:"boundary"` // transmit (default), reflective, vacuum
}

// CellDef is the "cell" input kind. Surfaces is a postfix Boolean
// expression string over signed surface ids (see ParseExpr).
type CellDef struct {
	Id          int       `json:"id"`
	Surfaces    string    `json:"surfaces"`
	Type        string    `json:"type"` // none (default), dead
	Universe    int       `json:"universe"`
	Fill        int       `json:"fill"`     // universe id; 0 = no fill
	Material    string    `json:"material"` // id as string; "void" = no material
	Translation []float64 `json:"translation"`
}

// LatticeDef is the "lattice" input kind.
type LatticeDef struct {
	Id        int        `json:"id"`
	Type      string     `json:"type"` // rect, hex
	Dimension [3]int     `json:"dimension"`
	Pitch     [3]float64 `json:"pitch"`
	Origin    [3]float64 `json:"origin"`
	Universes []int      `json:"universes"` // row-major
}

// MacroMaterialDef is the "material (macro)" input kind: a group-xs
// material that is itself a single reaction bundle.
type MacroMaterialDef struct {
	Id         int         `json:"id"`
	EnergyGrid []float64   `json:"energy_grid"`
	SigmaA     []float64   `json:"sigma_a"`
	SigmaF     []float64   `json:"sigma_f"`
	NuSigmaF   []float64   `json:"nu_sigma_f"`
	Chi        []float64   `json:"chi"`
	SigmaS     [][]float64 `json:"sigma_s"` // square scattering matrix, row-major
}

// IsotopeFractionDef is one entry of an AceMaterialDef's isotope mixture.
type IsotopeFractionDef struct {
	Zaid     string  `json:"zaid"`
	Fraction float64 `json:"fraction"`
}

// AceMaterialDef is the "material (ace)" input kind: a continuous-energy
// mixture of isotopes referenced by ZAID.
type AceMaterialDef struct {
	Id       int                  `json:"id"`
	Density  float64              `json:"density"`
	Units    string               `json:"units"`    // g/cm3, atom/b-cm
	Fraction string               `json:"fraction"` // atom, weight
	Isotopes []IsotopeFractionDef `json:"isotopes"`
	Dataset  string               `json:"dataset"`
}

// SettingDef is the "setting" input kind: one named scalar tunable, or a
// nested criticality block.
type SettingDef struct {
	Name        string          `json:"name"`
	Seed        *uint64         `json:"seed,omitempty"`
	Multithread string          `json:"multithread,omitempty"`
	MaxRNG      *uint64         `json:"max_rng_per_history,omitempty"`
	MaxSource   *uint64         `json:"max_source_samples,omitempty"`
	EnergyFG    *float64        `json:"energy_freegas_threshold,omitempty"`
	AWRFG       *float64        `json:"awr_freegas_threshold,omitempty"`
	Criticality *CriticalityDef `json:"criticality,omitempty"`
}

// CriticalityDef is the nested "criticality" block of a "setting" object.
type CriticalityDef struct {
	Batches   int `json:"batches"`
	Inactive  int `json:"inactive"`
	Particles int `json:"particles"`
}

// SourceDef is the "source sampler / distribution" input kind;
// Type selects among box-{axes}, cyl-{axes}, isotropic, custom. Weights
// and Points back the "custom" weighted-mixture kind, reusing
// xs.Sampler[int] rather than inventing a second mechanism.
type SourceDef struct {
	Type    string       `json:"type"`
	Lo      [3]float64   `json:"lo,omitempty"`
	Hi      [3]float64   `json:"hi,omitempty"`
	Center  [3]float64   `json:"center,omitempty"`
	Radius  float64      `json:"radius,omitempty"`
	Height  float64      `json:"height,omitempty"`
	Energy  float64      `json:"energy,omitempty"`
	Weights []float64    `json:"weights,omitempty"` // "custom" kind: mixture weights
	Points  [][3]float64 `json:"points,omitempty"`  // "custom" kind: candidate positions

	// EnergyFunc, when present, overrides Energy with a parameterised
	// energy law evaluated per-source-sample (see FuncEnergySource).
	EnergyFunc *FuncDef `json:"energy_func,omitempty"`
}

// FuncDef names a parameterised function by its gosl/fun registry type
// (e.g. "cte", "rmp").
type FuncDef struct {
	Name string   `json:"name"`
	Type string   `json:"type"`
	Prms fun.Prms `json:"prms"`
}
