// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csg

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/neutron/geom"
)

// build3x3PinLattice builds a 3x3 rectangular lattice of identical pin
// universes, each pin an inner fuel sphere with moderator outside, tiled
// inside a bounded root cell.
func build3x3PinLattice(tst *testing.T) (*Catalogue, int) {
	cat := NewCatalogue()

	fuel := geom.NewSurface(1, geom.Sphere, []float64{0, 0, 0, 0.4}, geom.Transmit)
	must(tst, cat.AddSurface(fuel))

	pinUniv := &Universe{Id: 10}
	must(tst, cat.AddUniverse(pinUniv))
	pinIdx := pinUniv.Index

	fuelCell := &Cell{Id: 100, Fill: FillMaterial, Material: 0}
	fuelCell.Expr.Lit(fuel.Index, false)
	must(tst, cat.AddCell(fuelCell, pinIdx))

	modCell := &Cell{Id: 101, Fill: FillMaterial, Material: 1}
	modCell.Expr.Lit(fuel.Index, true)
	must(tst, cat.AddCell(modCell, pinIdx))

	lat := &Lattice{
		Id:        1,
		Kind:      LatticeRect,
		Pitch:     geom.Vec3{1.2, 1.2, 0},
		Dimension: [3]int{3, 3, 1},
		Origin:    geom.Vec3{-1.8, -1.8, 0},
	}
	for i := 0; i < 9; i++ {
		lat.Universes = append(lat.Universes, pinIdx)
	}
	must(tst, cat.AddLattice(lat))

	bound := geom.NewSurface(2, geom.Sphere, []float64{0, 0, 0, 100}, geom.Vacuum)
	must(tst, cat.AddSurface(bound))

	root := &Universe{Id: 1, Root: true}
	must(tst, cat.AddUniverse(root))

	latCell := &Cell{Id: 1, Fill: FillLattice, Child: lat.Index}
	latCell.Expr.Lit(bound.Index, false)
	must(tst, cat.AddCell(latCell, root.Index))

	return cat, fuelCell.Index
}

func TestLatticeLookupFindsFuelInEachPin(tst *testing.T) {
	chk.PrintTitle("3x3 lattice lookup")
	cat, fuelIdx := build3x3PinLattice(tst)
	loc := NewLocator(cat)

	for _, center := range []geom.Vec3{
		{-1.2, -1.2, 0}, {0, -1.2, 0}, {1.2, -1.2, 0},
		{-1.2, 0, 0}, {0, 0, 0}, {1.2, 0, 0},
		{-1.2, 1.2, 0}, {0, 1.2, 0}, {1.2, 1.2, 0},
	} {
		h := loc.PointInCell(center)
		if h.Cell != fuelIdx {
			tst.Errorf("expected fuel cell at pin centre %v, got cell %d", center, h.Cell)
		}
	}
}

func TestCatalogueTopoValidateDetectsCycle(tst *testing.T) {
	chk.PrintTitle("cyclic universe detection")
	cat := NewCatalogue()

	s := geom.NewSurface(1, geom.PlaneX, []float64{0}, geom.Transmit)
	must(tst, cat.AddSurface(s))

	uA := &Universe{Id: 1, Root: true}
	uB := &Universe{Id: 2}
	must(tst, cat.AddUniverse(uA))
	must(tst, cat.AddUniverse(uB))

	cellA := &Cell{Id: 1, Fill: FillUniverse, Child: uB.Index}
	cellA.Expr.Lit(s.Index, true)
	must(tst, cat.AddCell(cellA, uA.Index))

	cellB := &Cell{Id: 2, Fill: FillUniverse, Child: uA.Index} // cycle: B -> A -> B
	cellB.Expr.Lit(s.Index, false)
	must(tst, cat.AddCell(cellB, uB.Index))

	if err := cat.TopoValidate(); err == nil {
		tst.Errorf("expected cyclic universe error")
	}
}

func TestHexLatticeIndexRoundTrip(tst *testing.T) {
	chk.PrintTitle("hex lattice index arithmetic")
	lat := &Lattice{
		Id:        2,
		Kind:      LatticeHex,
		Pitch:     geom.Vec3{1.0, 1.0, 0},
		Dimension: [3]int{5, 5, 1},
	}
	// the centre of cell (i,j) must map back to (i,j), and the translate
	// must be that centre, so recursing with local.Sub(translate) puts the
	// child universe's origin at the cell centre.
	for _, ij := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {2, 1}, {1, 2}} {
		size := lat.Pitch[0] / math.Sqrt(3)
		cx := size * (math.Sqrt(3)*float64(ij[0]) + math.Sqrt(3)/2*float64(ij[1]))
		cy := size * (3.0 / 2 * float64(ij[1]))
		i, j, _, translate := lat.CellCoord(geom.Vec3{cx, cy, 0})
		if i != ij[0] || j != ij[1] {
			tst.Errorf("centre of (%d,%d) indexed as (%d,%d)", ij[0], ij[1], i, j)
		}
		chk.Scalar(tst, "translate x", 1e-12, translate[0], cx)
		chk.Scalar(tst, "translate y", 1e-12, translate[1], cy)
	}
}

func TestRectLatticeOutsideDimensionIsUnfilled(tst *testing.T) {
	chk.PrintTitle("rect lattice bounds")
	lat := &Lattice{
		Id:        3,
		Kind:      LatticeRect,
		Pitch:     geom.Vec3{1, 1, 1},
		Dimension: [3]int{2, 2, 1},
		Universes: []int{0, 0, 0, 0},
	}
	if lat.At(2, 0, 0) != -1 || lat.At(-1, 0, 0) != -1 || lat.At(0, 0, 1) != -1 {
		tst.Errorf("indices outside Dimension must map to the unfilled sentinel")
	}
}
