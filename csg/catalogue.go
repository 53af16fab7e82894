// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csg

import (
	"fmt"

	"github.com/cpmech/neutron/geom"
)

// Catalogue owns the immutable arenas for surfaces, cells, universes and
// lattices, built once at start-up and shared read-only by every worker.
// Cells reference surfaces/universes by stable internal index; this forms
// a DAG (universe → cell → universe) that TopoValidate checks is acyclic.
type Catalogue struct {
	Surfaces  []*geom.Surface
	Cells     []*Cell
	Universes []*Universe
	Lattices  []*Lattice

	RootUniverse int

	idToSurf map[int]int
	idToCell map[int]int
	idToUniv map[int]int
	idToLat  map[int]int
}

// NewCatalogue returns an empty catalogue ready for incremental population
// by the input-parsing layer.
func NewCatalogue() *Catalogue {
	return &Catalogue{
		idToSurf: map[int]int{},
		idToCell: map[int]int{},
		idToUniv: map[int]int{},
		idToLat:  map[int]int{},
	}
}

// AddSurface inserts s, assigning its internal index; duplicate user ids
// are a definition error.
func (c *Catalogue) AddSurface(s *geom.Surface) error {
	if _, dup := c.idToSurf[s.Id]; dup {
		return fmt.Errorf("duplicate surface id %d", s.Id)
	}
	s.Index = len(c.Surfaces)
	c.Surfaces = append(c.Surfaces, s)
	c.idToSurf[s.Id] = s.Index
	return nil
}

// AddUniverse inserts u and sets u.Index to its internal index; a
// duplicate user id is an error.
func (c *Catalogue) AddUniverse(u *Universe) error {
	if _, dup := c.idToUniv[u.Id]; dup {
		return fmt.Errorf("duplicate universe id %d", u.Id)
	}
	u.Index = len(c.Universes)
	c.Universes = append(c.Universes, u)
	c.idToUniv[u.Id] = u.Index
	return nil
}

// AddCell inserts cell into catalogue and into its owning universe's Cells
// list.
func (c *Catalogue) AddCell(cell *Cell, universeIndex int) error {
	if _, dup := c.idToCell[cell.Id]; dup {
		return fmt.Errorf("duplicate cell id %d", cell.Id)
	}
	cell.Index = len(c.Cells)
	cell.Universe = universeIndex
	cell.Surfs = cell.Expr.Surfaces()
	c.Cells = append(c.Cells, cell)
	c.idToCell[cell.Id] = cell.Index
	c.Universes[universeIndex].Cells = append(c.Universes[universeIndex].Cells, cell.Index)
	return nil
}

// AddLattice inserts l and sets l.Index to its internal index; a
// duplicate user id is an error.
func (c *Catalogue) AddLattice(l *Lattice) error {
	if _, dup := c.idToLat[l.Id]; dup {
		return fmt.Errorf("duplicate lattice id %d", l.Id)
	}
	l.Index = len(c.Lattices)
	c.Lattices = append(c.Lattices, l)
	c.idToLat[l.Id] = l.Index
	return nil
}

// SurfaceIndex, CellIndex, UniverseIndex resolve stable user ids to arena
// indices; ok is false for unknown ids (a definition error upstream).
func (c *Catalogue) SurfaceIndex(id int) (int, bool)  { i, ok := c.idToSurf[id]; return i, ok }
func (c *Catalogue) CellIndex(id int) (int, bool)     { i, ok := c.idToCell[id]; return i, ok }
func (c *Catalogue) UniverseIndex(id int) (int, bool) { i, ok := c.idToUniv[id]; return i, ok }
func (c *Catalogue) LatticeIndex(id int) (int, bool)  { i, ok := c.idToLat[id]; return i, ok }

// TopoValidate walks the universe → cell → universe graph from the root
// and returns an error if it is cyclic (a universe containing itself,
// transitively, through a chain of cell fills) — Design Note.
func (c *Catalogue) TopoValidate() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, len(c.Universes))
	var visit func(u int) error
	visit = func(u int) error {
		color[u] = gray
		for _, ci := range c.Universes[u].Cells {
			cell := c.Cells[ci]
			var child int
			switch cell.Fill {
			case FillUniverse:
				child = cell.Child
			case FillLattice:
				lat := c.Lattices[cell.Child]
				for _, uidx := range lat.Universes {
					if uidx < 0 {
						continue
					}
					if color[uidx] == gray {
						return fmt.Errorf("cyclic universe reference through lattice %d", lat.Id)
					}
					if color[uidx] == white {
						if err := visit(uidx); err != nil {
							return err
						}
					}
				}
				continue
			default:
				continue
			}
			if color[child] == gray {
				return fmt.Errorf("cyclic universe reference: universe %d contains itself", c.Universes[u].Id)
			}
			if color[child] == white {
				if err := visit(child); err != nil {
					return err
				}
			}
		}
		color[u] = black
		return nil
	}
	return visit(c.RootUniverse)
}
