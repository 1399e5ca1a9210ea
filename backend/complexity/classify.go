// Package complexity assigns an asymptotic time or space class to a snippet
// model by matching a fixed list of patterns in priority order.
package complexity

import (
	"fmt"
	"strings"

	"github.com/tenntenn/codelens/backend/model"
)

var (
	binarySearchTime  = model.Verdict{Order: "O(log n)", Rationale: "Logarithmic (Binary Search)"}
	binarySearchSpace = model.Verdict{Order: "O(1)", Rationale: "Constant (Binary Search)"}
	recursiveTime     = model.Verdict{Order: "O(2^n)", Rationale: "Exponential (Recursive)"}
	recursiveSpace    = model.Verdict{Order: "O(n)", Rationale: "Linear (Recursive Stack)"}
	dataStructure     = model.Verdict{Order: "O(n)", Rationale: "Linear (Data Structure)"}
	linear            = model.Verdict{Order: "O(n)", Rationale: "Linear"}
	constant          = model.Verdict{Order: "O(1)", Rationale: "Constant"}
)

// Classify returns the verdict for p on the given axis. The first matching
// pattern wins: binary search, direct recursion, nested loops (time),
// allocation (space), a single loop (time), and constant otherwise.
func Classify(p *model.Program, axis model.Axis) model.Verdict {
	if HasBinarySearch(p) {
		if axis == model.Space {
			return binarySearchSpace
		}
		return binarySearchTime
	}
	if HasRecursion(p) {
		if axis == model.Space {
			return recursiveSpace
		}
		return recursiveTime
	}
	if axis == model.Space {
		if Allocates(p) {
			return dataStructure
		}
		return constant
	}
	switch depth := LoopDepth(p); {
	case depth >= 2:
		return model.Verdict{Order: fmt.Sprintf("O(n^%d)", depth), Rationale: "Polynomial (Nested Loops)"}
	case depth == 1:
		return linear
	}
	return constant
}

// HasBinarySearch reports whether p holds a loop bounded by two names,
// lo <= hi or lo < hi, whose body computes a midpoint.
func HasBinarySearch(p *model.Program) bool {
	found := false
	p.InspectAll(func(n model.Node) bool {
		if found {
			return false
		}
		loop, ok := n.(*model.Loop)
		if !ok {
			return true
		}
		lo, hi, ok := bounds(loop.Cond)
		if ok && computesMidpoint(loop.Body, lo, hi) {
			found = true
		}
		return !found
	})
	return found
}

// bounds extracts the two names of a lo <= hi style condition.
func bounds(cond model.Expr) (lo, hi string, ok bool) {
	b, isBin := cond.(*model.BinaryOp)
	if !isBin {
		return "", "", false
	}
	l, lok := b.Left.(*model.Identifier)
	r, rok := b.Right.(*model.Identifier)
	if !lok || !rok {
		return "", "", false
	}
	switch b.Op {
	case "<=", "<":
		return l.Name, r.Name, true
	case ">=", ">":
		return r.Name, l.Name, true
	}
	return "", "", false
}

func computesMidpoint(body []model.Stmt, lo, hi string) bool {
	found := false
	for _, s := range body {
		model.Inspect(s, func(n model.Node) bool {
			if found {
				return false
			}
			var name string
			var value model.Expr
			switch n := n.(type) {
			case *model.Assignment:
				name, value = n.Target, n.Value
			case *model.Declaration:
				name, value = n.Name, n.Value
			default:
				return true
			}
			if value == nil {
				return true
			}
			if strings.Contains(strings.ToLower(name), "mid") || (mentions(value, lo) && mentions(value, hi) && halves(value)) {
				found = true
			}
			return !found
		})
	}
	return found
}

func mentions(e model.Expr, name string) bool {
	found := false
	model.Inspect(e, func(n model.Node) bool {
		if id, ok := n.(*model.Identifier); ok && id.Name == name {
			found = true
		}
		return !found
	})
	return found
}

// halves reports whether e contains x / 2 or x >> 1.
func halves(e model.Expr) bool {
	found := false
	model.Inspect(e, func(n model.Node) bool {
		b, ok := n.(*model.BinaryOp)
		if !ok {
			return !found
		}
		lit, ok := b.Right.(*model.Literal)
		if ok && lit.Kind == model.Number {
			found = (b.Op == "/" && lit.Value == "2") || (b.Op == ">>" && lit.Value == "1")
		}
		return !found
	})
	return found
}

// HasRecursion reports whether a function calls itself by name. Calls
// through the function's own receiver or this count as well.
func HasRecursion(p *model.Program) bool {
	found := false
	p.InspectAll(func(n model.Node) bool {
		if found {
			return false
		}
		if fn, ok := n.(*model.FunctionDef); ok && fn.Name != "" && callsItself(fn) {
			found = true
		}
		return !found
	})
	return found
}

func callsItself(fn *model.FunctionDef) bool {
	found := false
	for _, s := range fn.Body {
		model.Inspect(s, func(n model.Node) bool {
			switch n := n.(type) {
			case *model.FunctionDef:
				return false
			case *model.Call:
				if n.Callee == fn.Name && selfReceiver(n.Recv, fn.Receiver) {
					found = true
				}
			}
			return !found
		})
		if found {
			return true
		}
	}
	return false
}

func selfReceiver(recv model.Expr, receiver string) bool {
	if recv == nil {
		return true
	}
	id, ok := recv.(*model.Identifier)
	if !ok {
		return false
	}
	return id.Name == "this" || (receiver != "" && id.Name == receiver)
}

// LoopDepth returns the maximum nesting depth of loops driven by a
// non-literal condition. Loops with a literal or absent condition do not
// depend on the input size and are not counted.
func LoopDepth(p *model.Program) int {
	depth := 0
	for _, s := range p.Body {
		depth = max(depth, loopDepth(s))
	}
	return depth
}

func loopDepth(n model.Node) int {
	d := 0
	for _, c := range model.Children(n) {
		d = max(d, loopDepth(c))
	}
	if loop, ok := n.(*model.Loop); ok && counts(loop) {
		d++
	}
	return d
}

func counts(loop *model.Loop) bool {
	if loop.Cond == nil {
		return false
	}
	_, isLit := loop.Cond.(*model.Literal)
	return !isLit
}

// Allocates reports whether p builds an array, slice, map or collection.
func Allocates(p *model.Program) bool {
	found := false
	p.InspectAll(func(n model.Node) bool {
		if _, ok := n.(*model.Collection); ok {
			found = true
		}
		return !found
	})
	return found
}
