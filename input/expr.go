// Copyright 2024 The Neutron Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package input

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cpmech/neutron/csg"
)

// ParseExpr lowers a cell's postfix Boolean expression string into a
// csg.Expr. Tokens are whitespace-separated: a signed integer is a
// literal (positive id = positive half-space, negative id = negated),
// and "&", "|", "!" are the and/or/not operators. surfIndex resolves a user surface id to its catalogue index.
func ParseExpr(postfix string, surfIndex func(id int) (int, bool)) (csg.Expr, error) {
	var e csg.Expr
	depth, peak := 0, 0
	for _, tok := range strings.Fields(postfix) {
		switch tok {
		case "&":
			if depth < 2 {
				return csg.Expr{}, fmt.Errorf("input: malformed cell expression (operator without operands): %q", postfix)
			}
			e.And()
			depth--
		case "|":
			if depth < 2 {
				return csg.Expr{}, fmt.Errorf("input: malformed cell expression (operator without operands): %q", postfix)
			}
			e.Or()
			depth--
		case "!":
			if depth < 1 {
				return csg.Expr{}, fmt.Errorf("input: malformed cell expression (operator without operands): %q", postfix)
			}
			e.Not()
		default:
			id, err := strconv.Atoi(tok)
			if err != nil {
				return csg.Expr{}, fmt.Errorf("input: bad token %q in cell expression %q", tok, postfix)
			}
			sense := id > 0
			if id < 0 {
				id = -id
			}
			idx, ok := surfIndex(id)
			if !ok {
				return csg.Expr{}, fmt.Errorf("input: unknown surface id %d in cell expression %q", id, postfix)
			}
			e.Lit(idx, sense)
			depth++
			if depth > peak {
				peak = depth
			}
		}
	}
	if depth != 1 {
		return csg.Expr{}, fmt.Errorf("input: malformed cell expression (unbalanced): %q", postfix)
	}
	if peak > csg.MaxExprDepth {
		return csg.Expr{}, fmt.Errorf("input: cell expression exceeds max operand depth %d: %q", csg.MaxExprDepth, postfix)
	}
	return e, nil
}
