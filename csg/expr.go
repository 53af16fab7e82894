// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package csg implements the constructive-solid-geometry locator: cells
// bounded by Boolean combinations of surfaces, universes that partition a
// cell's interior into siblings, and lattices that tile universes on an
// integer grid.
package csg

import "github.com/cpmech/neutron/geom"

// TokKind identifies one token of a lowered Boolean cell expression.
type TokKind int

const (
	TokLiteral TokKind = iota // a signed surface reference
	TokAnd
	TokOr
	TokNot
)

// Token is one entry of a postfix (reverse-Polish) expression. For
// TokLiteral, Surf is the internal surface index and Sense is the
// half-space (true = positive) required for the literal to hold.
type Token struct {
	Kind  TokKind
	Surf  int
	Sense bool
}

// MaxExprDepth bounds the evaluation stack of a lowered cell expression;
// expressions deeper than this are rejected at setup so Eval can keep a
// fixed-size stack with no per-point allocation.
const MaxExprDepth = 64

// Expr is a lowered Boolean cell expression: a flat postfix token vector
// evaluated with a constant-size boolean stack, allocation-free per point.
type Expr struct {
	Tokens []Token
}

// Lit appends a literal; And/Or/Not append the corresponding operator.
func (e *Expr) Lit(surf int, sense bool) *Expr {
	e.Tokens = append(e.Tokens, Token{Kind: TokLiteral, Surf: surf, Sense: sense})
	return e
}
func (e *Expr) And() *Expr { e.Tokens = append(e.Tokens, Token{Kind: TokAnd}); return e }
func (e *Expr) Or() *Expr  { e.Tokens = append(e.Tokens, Token{Kind: TokOr}); return e }
func (e *Expr) Not() *Expr { e.Tokens = append(e.Tokens, Token{Kind: TokNot}); return e }

// Eval evaluates the expression at point p against the given surface arena.
// senseOf(surfIndex) must return the actual sense of the point relative to
// that surface (cached per evaluation to avoid recomputing F twice for
// surfaces referenced by more than one literal).
func (e *Expr) Eval(surfaces []*geom.Surface, p geom.Vec3) bool {
	var stack [MaxExprDepth]bool
	sp := 0
	push := func(v bool) { stack[sp] = v; sp++ }
	pop := func() bool { sp--; return stack[sp] }

	// small per-call memo of surface sense, keyed by arena index; cells
	// rarely reference more than a handful of distinct surfaces so a
	// linear scan beats a map allocation.
	var seenIdx [16]int
	var seenVal [16]bool
	nseen := 0
	senseOf := func(idx int) bool {
		for i := 0; i < nseen; i++ {
			if seenIdx[i] == idx {
				return seenVal[i]
			}
		}
		v := surfaces[idx].Sense(p)
		if nseen < len(seenIdx) {
			seenIdx[nseen] = idx
			seenVal[nseen] = v
			nseen++
		}
		return v
	}

	for _, t := range e.Tokens {
		switch t.Kind {
		case TokLiteral:
			push(senseOf(t.Surf) == t.Sense)
		case TokAnd:
			b, a := pop(), pop()
			push(a && b)
		case TokOr:
			b, a := pop(), pop()
			push(a || b)
		case TokNot:
			push(!pop())
		}
	}
	if sp != 1 {
		return false // malformed expression; caught at setup time by validation
	}
	return stack[0]
}

// Surfaces returns the set of distinct surface indices referenced by the
// expression's literals — used to build a cell's candidate surface list
// for distance-to-boundary search.
func (e *Expr) Surfaces() []int {
	seen := map[int]bool{}
	var out []int
	for _, t := range e.Tokens {
		if t.Kind == TokLiteral && !seen[t.Surf] {
			seen[t.Surf] = true
			out = append(out, t.Surf)
		}
	}
	return out
}
