// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import (
	"github.com/cpmech/neutron/csg"
	"github.com/cpmech/neutron/xs"
)

// World is the read-only universe a history runs against: the geometry
// catalogue plus the material arena it references by index.
type World struct {
	Catalogue *csg.Catalogue
	Materials []*xs.Material // indexed by csg.Cell.Material
}
