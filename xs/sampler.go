// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package xs implements the reaction sampler and cross-section tables: the
// composite discrete distributions over reactions indexed by an energy
// grid, and the isotope/material mixture model that drives material
// interaction sampling.
package xs

import "sort"

// Sampler represents a conditional distribution P(T | energy index) as a
// row-major N × (R-1) matrix of cumulative probabilities, one row per
// energy-grid point (N rows) over the R outcomes; each row is a
// non-decreasing CDF with an implicit trailing 1.0.
type Sampler[T any] struct {
	Values []T         // [R] the R possible outcomes
	CDF    [][]float64 // [N][R-1] cumulative probabilities per energy-grid row
}

// NewSampler builds a Sampler from outcome values and one CDF row per
// energy-grid point; each row must have len(values)-1 entries (the final,
// implicit entry is always 1.0).
func NewSampler[T any](values []T, cdf [][]float64) *Sampler[T] {
	return &Sampler[T]{Values: values, CDF: cdf}
}

// Sample draws the outcome at energy-grid row i for uniform variate
// u ∈ [0,1). R=1 short-circuits to the sole outcome. u below row[0]
// returns outcome 0; u at or above the last explicit entry returns the
// last outcome.
func (s *Sampler[T]) Sample(i int, u float64) T {
	if len(s.Values) == 1 {
		return s.Values[0]
	}
	row := s.CDF[i]
	idx := lowerBound(len(row), func(k int) float64 { return row[k] }, u)
	return s.Values[idx]
}

// lowerBound returns the first index k in [0,n) with at(k) > u, or n if
// none (i.e. u falls in the implicit final, always-1.0 bucket). This is a
// monotone search over a closure, not a materialised row, so it serves
// both the plain and interpolated samplers identically.
func lowerBound(n int, at func(int) float64, u float64) int {
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if at(mid) > u {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// InterpolatedSampler holds one outcome set and two CDF rows for adjacent
// energy-grid points, and samples against the virtual row α·hi + (1-α)·lo
// without ever materialising it. It shares lowerBound with the plain
// Sampler; neither type embeds the other.
type InterpolatedSampler[T any] struct {
	Values []T
	Lo, Hi []float64 // CDF rows for the bracketing energy-grid points
}

// NewInterpolatedSampler builds an InterpolatedSampler over a fixed
// outcome set and two bracketing CDF rows.
func NewInterpolatedSampler[T any](values []T, lo, hi []float64) *InterpolatedSampler[T] {
	return &InterpolatedSampler[T]{Values: values, Lo: lo, Hi: hi}
}

// Sample draws an outcome for variate u using linear factor alpha ∈ [0,1]
// between the lo (alpha=0) and hi (alpha=1) rows.
func (s *InterpolatedSampler[T]) Sample(alpha, u float64) T {
	if len(s.Values) == 1 {
		return s.Values[0]
	}
	n := len(s.Lo)
	at := func(k int) float64 { return alpha*s.Hi[k] + (1-alpha)*s.Lo[k] }
	idx := lowerBound(n, at, u)
	return s.Values[idx]
}

// energyRowIndex locates the bracketing grid indices (lo, hi) and the
// interpolation factor alpha for energy e on a monotone increasing grid.
func energyRowIndex(grid []float64, e float64) (lo, hi int, alpha float64) {
	n := len(grid)
	if e <= grid[0] {
		return 0, 0, 0
	}
	if e >= grid[n-1] {
		return n - 1, n - 1, 0
	}
	hi = sort.Search(n, func(k int) bool { return grid[k] >= e })
	lo = hi - 1
	if grid[hi] == grid[lo] {
		alpha = 0
	} else {
		alpha = (e - grid[lo]) / (grid[hi] - grid[lo])
	}
	return
}
