// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package input

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/neutron/csg"
	"github.com/cpmech/neutron/geom"
	"github.com/cpmech/neutron/mc"
	"github.com/cpmech/neutron/transport"
	"github.com/cpmech/neutron/xs"
)

// IsotopeLibrary resolves a ZAID to a pre-parsed per-isotope reaction
// table.
type IsotopeLibrary func(zaid string) (*xs.Isotope, error)

// NewEnvIsotopeLibrary builds an IsotopeLibrary that searches the colon-
// separated directories of NUCLEAR_DATA_PATH for "<zaid>.csv", loading it with xs.LoadIsotopeCSVFile —
// our CSV stand-in for the ACE-table format.
// awr/fissile supply the per-zaid metadata a real ACE header would carry.
func NewEnvIsotopeLibrary(awr map[string]float64, fissile map[string]bool) IsotopeLibrary {
	dirs := strings.Split(os.Getenv("NUCLEAR_DATA_PATH"), ":")
	return func(zaid string) (*xs.Isotope, error) {
		for _, dir := range dirs {
			if dir == "" {
				continue
			}
			fn := filepath.Join(dir, zaid+".csv")
			if _, err := os.Stat(fn); err != nil {
				continue
			}
			a, ok := awr[zaid]
			if !ok {
				a = 1 // metadata a real ACE header would carry
			}
			return xs.LoadIsotopeCSVFile(zaid, a, fissile[zaid], fn)
		}
		return nil, fmt.Errorf("input: isotope %s not found on NUCLEAR_DATA_PATH", zaid)
	}
}

// Result is everything Build lowers a definition list into: the immutable
// geometry catalogue, the material arena indexed to match csg.Cell's
// Material field, resolved run settings, and the initial particle source
// if a "source" definition was present.
type Result struct {
	Catalogue *csg.Catalogue
	Materials []*xs.Material
	Settings  mc.Settings
	Source    Source

	GeometrySummary string
	MaterialSummary string
}

// Build lowers a flat list of raw Definitions into a Result, dispatching
// on Kind with a closed switch. Every error returned here is a setup-time
// definition or data error: Build never panics, so the caller
// (cmd/neutronmc) can map the error to its setup exit code.
func Build(defs []Definition, isotopes IsotopeLibrary) (*Result, error) {
	cat := csg.NewCatalogue()
	res := &Result{Catalogue: cat, Settings: mc.DefaultSettings()}

	var surfaceDefs []SurfaceDef
	var cellDefs []CellDef
	var latticeDefs []LatticeDef
	var macroDefs []MacroMaterialDef
	var aceDefs []AceMaterialDef
	var sourceDef *SourceDef

	for _, d := range defs {
		switch d.Kind {
		case "surface":
			var s SurfaceDef
			if err := json.Unmarshal(d.Payload, &s); err != nil {
				return nil, fmt.Errorf("input: decoding surface: %w", err)
			}
			surfaceDefs = append(surfaceDefs, s)
		case "cell":
			var c CellDef
			if err := json.Unmarshal(d.Payload, &c); err != nil {
				return nil, fmt.Errorf("input: decoding cell: %w", err)
			}
			cellDefs = append(cellDefs, c)
		case "lattice":
			var l LatticeDef
			if err := json.Unmarshal(d.Payload, &l); err != nil {
				return nil, fmt.Errorf("input: decoding lattice: %w", err)
			}
			latticeDefs = append(latticeDefs, l)
		case "material":
			// the two material kinds are told apart by their fields: the
			// ace kind carries an isotope mixture, the macro kind carries
			// group cross sections directly
			var a AceMaterialDef
			if err := json.Unmarshal(d.Payload, &a); err != nil {
				return nil, fmt.Errorf("input: decoding material: %w", err)
			}
			if len(a.Isotopes) > 0 {
				aceDefs = append(aceDefs, a)
			} else {
				var m MacroMaterialDef
				if err := json.Unmarshal(d.Payload, &m); err != nil {
					return nil, fmt.Errorf("input: decoding macro material: %w", err)
				}
				macroDefs = append(macroDefs, m)
			}
		case "setting":
			var s SettingDef
			if err := json.Unmarshal(d.Payload, &s); err != nil {
				return nil, fmt.Errorf("input: decoding setting: %w", err)
			}
			applySetting(&res.Settings, s)
		case "source":
			var s SourceDef
			if err := json.Unmarshal(d.Payload, &s); err != nil {
				return nil, fmt.Errorf("input: decoding source: %w", err)
			}
			sourceDef = &s
		default:
			return nil, fmt.Errorf("input: unknown definition kind %q", d.Kind)
		}
	}

	if err := buildSurfaces(cat, surfaceDefs); err != nil {
		return nil, err
	}

	matIndex, err := buildMaterials(res, macroDefs, aceDefs, isotopes)
	if err != nil {
		return nil, err
	}

	if err := buildUniverses(cat, cellDefs, matIndex); err != nil {
		return nil, err
	}
	if err := buildLattices(cat, latticeDefs); err != nil {
		return nil, err
	}
	if err := linkFillsAndLattices(cat, cellDefs, latticeDefs); err != nil {
		return nil, err
	}

	if err := cat.TopoValidate(); err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}

	if sourceDef != nil {
		src, err := buildSource(*sourceDef)
		if err != nil {
			return nil, err
		}
		res.Source = src
	}

	res.GeometrySummary = fmt.Sprintf("%d surfaces, %d cells, %d universes, %d lattices",
		len(cat.Surfaces), len(cat.Cells), len(cat.Universes), len(cat.Lattices))
	res.MaterialSummary = fmt.Sprintf("%d materials", len(res.Materials))

	return res, nil
}

func applySetting(s *mc.Settings, d SettingDef) {
	switch d.Name {
	case "seed":
		if d.Seed != nil {
			s.Seed = *d.Seed
		}
	case "multithread":
		switch d.Multithread {
		case "single":
			s.Policy = mc.PolicySingle
		case "pool":
			s.Policy = mc.PolicyPool
		default:
			s.Policy = mc.PolicyTaskRange
		}
	case "max_rng_per_history":
		if d.MaxRNG != nil {
			s.MaxRNGPerHistory = *d.MaxRNG
		}
	case "max_source_samples":
		if d.MaxSource != nil {
			s.MaxSourceSamples = *d.MaxSource
		}
	case "energy_freegas_threshold":
		if d.EnergyFG != nil {
			s.EnergyFreeGasThreshold = *d.EnergyFG
			xs.FreeGasThreshold = *d.EnergyFG
		}
	case "awr_freegas_threshold":
		if d.AWRFG != nil {
			s.AWRFreeGasThreshold = *d.AWRFG
			xs.FreeGasAWRCutoff = *d.AWRFG
		}
	case "criticality":
		if d.Criticality != nil {
			s.Batches = d.Criticality.Batches
			s.Inactive = d.Criticality.Inactive
			s.Particles = d.Criticality.Particles
		}
	}
}

func surfaceKind(t string) (geom.Kind, bool) {
	switch t {
	case "plane-x":
		return geom.PlaneX, true
	case "plane-y":
		return geom.PlaneY, true
	case "plane-z":
		return geom.PlaneZ, true
	case "plane":
		return geom.Plane, true
	case "sphere":
		return geom.Sphere, true
	case "cyl-x":
		return geom.CylX, true
	case "cyl-y":
		return geom.CylY, true
	case "cyl-z":
		return geom.CylZ, true
	case "cone-x":
		return geom.ConeX, true
	case "cone-y":
		return geom.ConeY, true
	case "cone-z":
		return geom.ConeZ, true
	case "quadric":
		return geom.Quadric, true
	}
	return 0, false
}

func boundaryKind(b string) geom.Boundary {
	switch b {
	case "reflective":
		return geom.Reflect
	case "vacuum":
		return geom.Vacuum
	default:
		return geom.Transmit
	}
}

func buildSurfaces(cat *csg.Catalogue, defs []SurfaceDef) error {
	for _, d := range defs {
		kind, ok := surfaceKind(d.Type)
		if !ok {
			return fmt.Errorf("input: surface %d: unsupported surface type %q", d.Id, d.Type)
		}
		s := geom.NewSurface(d.Id, kind, d.Coeffs, boundaryKind(d.Boundary))
		if err := cat.AddSurface(s); err != nil {
			return fmt.Errorf("input: %w", err)
		}
	}
	return nil
}

// buildMaterials resolves macro and ace material definitions into the
// catalogue's Material arena, returning a lookup from material user id to
// arena index.
func buildMaterials(res *Result, macro []MacroMaterialDef, ace []AceMaterialDef, isotopes IsotopeLibrary) (map[int]int, error) {
	matIndex := map[int]int{}

	for _, d := range macro {
		n := len(d.EnergyGrid)
		if n < 2 || len(d.SigmaA) != n || len(d.SigmaF) != n || len(d.NuSigmaF) != n {
			return nil, fmt.Errorf("input: macro material %d: inconsistent group count", d.Id)
		}
		nu := make([]float64, n)
		sigF := make([]float64, n)
		sigCapture := make([]float64, n)
		for i := range nu {
			if d.SigmaF[i] > 0 {
				nu[i] = d.NuSigmaF[i] / d.SigmaF[i]
			}
			sigF[i] = d.SigmaF[i]
			sigCapture[i] = d.SigmaA[i] - d.SigmaF[i]
			if sigCapture[i] < 0 {
				return nil, fmt.Errorf("input: macro material %d: sigma_a < sigma_f at group %d", d.Id, i)
			}
		}
		sigScatter, scatterSampler, err := scatterMatrix(d)
		if err != nil {
			return nil, err
		}
		iso := &xs.Isotope{
			Name:           fmt.Sprintf("macro-%d", d.Id),
			AWR:            1,
			Fissile:        maxOf(sigF) > 0,
			EnergyGrid:     d.EnergyGrid,
			SigmaElastic:   sigScatter,
			SigmaInelastic: make([]float64, n),
			SigmaFission:   sigF,
			SigmaNxn:       make([]float64, n),
			SigmaCapture:   sigCapture,
			NuBar:          nu,
			ScatterSampler: scatterSampler,
		}
		if len(d.Chi) == n {
			iso.Chi, iso.ChiEnergies = chiSamplerFromTable(d.Chi, d.EnergyGrid)
		}
		mat := xs.NewMacroMaterial(d.Id, iso)
		mat.Finalize()
		matIndex[d.Id] = len(res.Materials)
		res.Materials = append(res.Materials, mat)
	}

	for _, d := range ace {
		mat := &xs.Material{Id: d.Id, Density: d.Density, MassDensity: d.Units == "g/cm3"}
		for _, ref := range d.Isotopes {
			iso, err := isotopes(ref.Zaid)
			if err != nil {
				return nil, fmt.Errorf("input: ace material %d: %w", d.Id, err)
			}
			kind := xs.FractionAtom
			if d.Fraction == "weight" {
				kind = xs.FractionMass
			}
			mat.Isotopes = append(mat.Isotopes, xs.IsotopeRef{Isotope: iso, Fraction: ref.Fraction, Kind: kind})
		}
		mat.Finalize()
		matIndex[d.Id] = len(res.Materials)
		res.Materials = append(res.Materials, mat)
	}

	return matIndex, nil
}

// scatterMatrix lowers a macro material's square group-to-group transfer
// matrix into the per-group total scattering cross section (row sums) and
// the group-mode outgoing-group sampler. A nil sampler (all-zero or
// absent matrix) leaves the material purely absorbing.
func scatterMatrix(d MacroMaterialDef) ([]float64, *xs.Sampler[int], error) {
	n := len(d.EnergyGrid)
	rowSums := make([]float64, n)
	if len(d.SigmaS) == 0 {
		return rowSums, nil, nil
	}
	if len(d.SigmaS) != n {
		return nil, nil, fmt.Errorf("input: macro material %d: sigma_s must be %dx%d", d.Id, n, n)
	}
	groups := make([]int, n)
	for g := range groups {
		groups[g] = g
	}
	cdf := make([][]float64, n)
	var any bool
	for g, row := range d.SigmaS {
		if len(row) != n {
			return nil, nil, fmt.Errorf("input: macro material %d: sigma_s row %d is not length %d", d.Id, g, n)
		}
		for gp, v := range row {
			if v < 0 {
				return nil, nil, fmt.Errorf("input: macro material %d: negative sigma_s at (%d,%d)", d.Id, g, gp)
			}
			rowSums[g] += v
		}
		if rowSums[g] > 0 {
			any = true
		}
		crow := make([]float64, n-1)
		var running float64
		for gp := 0; gp < n-1; gp++ {
			running += row[gp]
			if rowSums[g] > 0 {
				crow[gp] = running / rowSums[g]
			} else {
				crow[gp] = 1
			}
		}
		cdf[g] = crow
	}
	if !any {
		return rowSums, nil, nil
	}
	return rowSums, xs.NewSampler(groups, cdf), nil
}

func maxOf(xs []float64) float64 {
	var m float64
	for _, x := range xs {
		if x > m {
			m = x
		}
	}
	return m
}

// chiSamplerFromTable builds a trivial single-row fission-spectrum
// sampler over the macro material's own energy grid, used when a group
// material supplies a Chi vector directly rather than a continuous χ(E)
// law.
func chiSamplerFromTable(chi, grid []float64) (*xs.Sampler[int], []float64) {
	values := make([]int, len(chi))
	var total float64
	for i := range values {
		values[i] = i
		total += chi[i]
	}
	if total <= 0 || len(values) == 1 {
		return xs.NewSampler(values, nil), grid
	}
	row := make([]float64, len(values)-1)
	var running float64
	for i := 0; i < len(row); i++ {
		running += chi[i]
		row[i] = running / total
	}
	return xs.NewSampler(values, [][]float64{row}), grid
}

// buildUniverses materialises one csg.Universe per distinct "universe"
// field seen across cell definitions (universe 0 is the root), then adds
// every cell into its owning universe. Fill/lattice links are resolved
// afterwards by linkFillsAndLattices, once every universe exists.
func buildUniverses(cat *csg.Catalogue, defs []CellDef, matIndex map[int]int) error {
	universeIdx := map[int]int{}
	ensureUniverse := func(id int) int {
		if idx, ok := universeIdx[id]; ok {
			return idx
		}
		u := &csg.Universe{Id: id, Root: id == 0}
		cat.AddUniverse(u)
		universeIdx[id] = u.Index
		if id == 0 {
			cat.RootUniverse = u.Index
		}
		return u.Index
	}
	ensureUniverse(0) // root always exists, even with no cells naming it explicitly yet

	for _, d := range defs {
		uidx := ensureUniverse(d.Universe)

		cell := &csg.Cell{Id: d.Id, Dead: d.Type == "dead"}
		expr, err := ParseExpr(d.Surfaces, cat.SurfaceIndex)
		if err != nil {
			return err
		}
		cell.Expr = expr

		switch {
		case d.Material == "void" || d.Material == "":
			cell.Fill = csg.FillNone
			cell.Material = -1
		default:
			id, err := strconv.Atoi(d.Material)
			if err != nil {
				return fmt.Errorf("input: cell %d: bad material id %q", d.Id, d.Material)
			}
			midx, ok := matIndex[id]
			if !ok {
				return fmt.Errorf("input: cell %d: unknown material id %d", d.Id, id)
			}
			cell.Fill = csg.FillMaterial
			cell.Material = midx
		}

		if len(d.Translation) == 3 {
			cell.Translation = geom.Vec3{d.Translation[0], d.Translation[1], d.Translation[2]}
		}

		if err := cat.AddCell(cell, uidx); err != nil {
			return fmt.Errorf("input: %w", err)
		}
	}
	return nil
}

func buildLattices(cat *csg.Catalogue, defs []LatticeDef) error {
	for _, d := range defs {
		kind := csg.LatticeRect
		if d.Type == "hex" {
			kind = csg.LatticeHex
		}
		lat := &csg.Lattice{
			Id:        d.Id,
			Kind:      kind,
			Pitch:     geom.Vec3{d.Pitch[0], d.Pitch[1], d.Pitch[2]},
			Origin:    geom.Vec3{d.Origin[0], d.Origin[1], d.Origin[2]},
			Dimension: d.Dimension,
		}
		for _, uid := range d.Universes {
			idx, ok := cat.UniverseIndex(uid)
			if !ok {
				return fmt.Errorf("input: lattice %d: unknown universe id %d", d.Id, uid)
			}
			lat.Universes = append(lat.Universes, idx)
		}
		if err := cat.AddLattice(lat); err != nil {
			return fmt.Errorf("input: %w", err)
		}
	}
	return nil
}

// linkFillsAndLattices resolves each cell's "fill" field to a universe or
// lattice arena index now that every universe and lattice has been added.
func linkFillsAndLattices(cat *csg.Catalogue, defs []CellDef, latDefs []LatticeDef) error {
	latticeIds := map[int]bool{}
	for _, l := range latDefs {
		latticeIds[l.Id] = true
	}
	for _, d := range defs {
		if d.Fill == 0 {
			continue
		}
		cellIdx, ok := cat.CellIndex(d.Id)
		if !ok {
			continue
		}
		cell := cat.Cells[cellIdx]
		if latticeIds[d.Fill] {
			lidx, ok := cat.LatticeIndex(d.Fill)
			if !ok {
				return fmt.Errorf("input: cell %d: unknown lattice fill %d", d.Id, d.Fill)
			}
			cell.Fill = csg.FillLattice
			cell.Child = lidx
		} else {
			uidx, ok := cat.UniverseIndex(d.Fill)
			if !ok {
				return fmt.Errorf("input: cell %d: unknown universe fill %d", d.Id, d.Fill)
			}
			cell.Fill = csg.FillUniverse
			cell.Child = uidx
		}
	}
	return nil
}

func buildSource(d SourceDef) (Source, error) {
	var src Source
	var err error
	switch d.Type {
	case "box-xyz", "box":
		src = BoxSource{Lo: geom.Vec3(d.Lo), Hi: geom.Vec3(d.Hi), Energy: d.Energy}
	case "cyl-x":
		src = CylSource{Center: geom.Vec3(d.Center), Radius: d.Radius, Height: d.Height, Energy: d.Energy, Axis: 0}
	case "cyl-y":
		src = CylSource{Center: geom.Vec3(d.Center), Radius: d.Radius, Height: d.Height, Energy: d.Energy, Axis: 1}
	case "cyl-z", "cyl":
		src = CylSource{Center: geom.Vec3(d.Center), Radius: d.Radius, Height: d.Height, Energy: d.Energy, Axis: 2}
	case "isotropic":
		src = IsotropicPointSource{Point: geom.Vec3(d.Center), Energy: d.Energy}
	case "custom":
		pts := make([]geom.Vec3, len(d.Points))
		for i, p := range d.Points {
			pts[i] = geom.Vec3(p)
		}
		src, err = NewCustomSource(pts, d.Weights, d.Energy)
	default:
		return nil, fmt.Errorf("input: unknown source type %q", d.Type)
	}
	if err != nil {
		return nil, err
	}
	if d.EnergyFunc != nil {
		fn := fun.New(d.EnergyFunc.Type, d.EnergyFunc.Prms)
		src = FuncEnergySource{Base: src, Fn: fn}
	}
	return src, nil
}

// TransportWorld is a convenience constructor used by cmd/neutronmc to
// turn a Result into the transport.World the driver runs against.
func (r *Result) TransportWorld() *transport.World {
	return &transport.World{Catalogue: r.Catalogue, Materials: r.Materials}
}
