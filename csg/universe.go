// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package csg

// Universe is a collection of sibling cells whose regions partition the
// universe's domain: no overlap, union equals the domain.
type Universe struct {
	Id    int
	Index int
	Cells []int // indices into the Catalogue's cell arena

	// Root is true only for the single universe that covers all of ℝ³;
	// a point found in no child cell is "leaked" and that is only legal
	// at the root.
	Root bool
}
