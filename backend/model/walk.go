package model

import "fmt"

// Children returns the direct children of n in source order.
// It panics on node types it does not know, so a new variant cannot be
// silently skipped by the analyses built on top of it.
func Children(n Node) []Node {
	var out []Node
	stmts := func(list []Stmt) {
		for _, s := range list {
			if s != nil {
				out = append(out, s)
			}
		}
	}
	exprs := func(list ...Expr) {
		for _, e := range list {
			if e != nil {
				out = append(out, e)
			}
		}
	}
	switch n := n.(type) {
	case *Loop:
		if n.Init != nil {
			out = append(out, n.Init)
		}
		exprs(n.Cond)
		if n.Post != nil {
			out = append(out, n.Post)
		}
		stmts(n.Body)
	case *Conditional:
		if n.Init != nil {
			out = append(out, n.Init)
		}
		exprs(n.Test)
		stmts(n.Then)
		stmts(n.Else)
	case *FunctionDef:
		stmts(n.Body)
	case *Assignment:
		exprs(n.Dest, n.Value)
	case *Declaration:
		exprs(n.Value)
	case *ExprStmt:
		exprs(n.X)
	case *Return:
		exprs(n.Results...)
	case *Branch:
	case *Block:
		exprs(n.X)
		stmts(n.Body)
	case *Call:
		exprs(n.Recv)
		exprs(n.Args...)
	case *BinaryOp:
		exprs(n.Left, n.Right)
	case *UnaryOp:
		exprs(n.X)
	case *Literal, *Identifier, *Raw:
	case *Collection:
		exprs(n.Size)
		exprs(n.Elems...)
	case *FuncLit:
		stmts(n.Body)
	case *Opaque:
		exprs(n.Children...)
	default:
		panic(fmt.Sprintf("model: unexpected node %T", n))
	}
	return out
}

// Inspect traverses the tree rooted at n in depth-first order, calling f for
// each node. If f returns false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// InspectAll calls Inspect for every top-level statement of p.
func (p *Program) InspectAll(f func(Node) bool) {
	for _, s := range p.Body {
		Inspect(s, f)
	}
}

// Count returns the number of nodes in p.
func (p *Program) Count() int {
	n := 0
	p.InspectAll(func(Node) bool {
		n++
		return true
	})
	return n
}
