package rewrite

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/constant"
	"go/format"
	"go/scanner"
	"go/token"
	"go/version"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/tenntenn/codelens/backend/parser"
)

// Pass is one Go tree rewrite. Apply returns a new tree and leaves its
// argument untouched.
type Pass struct {
	Name  string
	Apply func(*ast.File) *ast.File
}

// rangeOverIntVersion is the first language version with range over int.
const rangeOverIntVersion = "go1.22"

// GoPasses returns the Go passes in application order. Loop
// canonicalization is only included when goVersion supports range over
// int; an empty goVersion means the latest version.
func GoPasses(goVersion string) []Pass {
	passes := []Pass{
		{Name: "constant-folding", Apply: copyOnWrite(foldConstants)},
		{Name: "dead-branch-elimination", Apply: copyOnWrite(eliminateDeadBranches)},
	}
	if goVersion == "" || !version.IsValid(goVersion) || version.Compare(goVersion, rangeOverIntVersion) >= 0 {
		passes = append(passes, Pass{Name: "loop-canonicalization", Apply: copyOnWrite(canonicalizeLoops)})
	}
	return passes
}

func copyOnWrite(f func(*ast.File)) func(*ast.File) *ast.File {
	return func(file *ast.File) *ast.File {
		c := cloneFile(file)
		f(c)
		return c
	}
}

// rewriteGo parses src, applies the passes and renders the result in the
// shape of the input: a file, a list of declarations or a list of
// statements.
func (e *Engine) rewriteGo(src string) (string, error) {
	gs, err := parser.ParseGo(src)
	if err != nil {
		return "", err
	}
	file := gs.File
	for _, p := range GoPasses(e.goVersion) {
		e.logger.Debug("applying pass", "pass", p.Name)
		file = p.Apply(file)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, gs.Fset, file); err != nil {
		return "", fmt.Errorf("render: %w", err)
	}
	out := unwrap(buf.String(), gs.Mode)
	if formatted, err := format.Source([]byte(out)); err == nil {
		out = string(formatted)
	}
	return out, nil
}

// unwrap removes the synthetic package clause or main function added to
// parse a snippet.
func unwrap(text string, mode parser.Mode) string {
	switch mode {
	case parser.DeclMode:
		_, rest, _ := strings.Cut(text, "\n")
		return strings.TrimLeft(rest, "\n")
	case parser.StmtMode:
		lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
		start := -1
		for i, l := range lines {
			if l == "func main() {" {
				start = i
				break
			}
		}
		if start < 0 || lines[len(lines)-1] != "}" {
			return text
		}
		raw := rawStringLines(text)
		body := lines[start+1 : len(lines)-1]
		for i, l := range body {
			// line numbers are 1-based and body starts after the func line
			if !raw[start+2+i] {
				body[i] = strings.TrimPrefix(l, "\t")
			}
		}
		// removed statements may leave a gap after the opening brace,
		// and a trailing newline in the snippet leaves one before the
		// closing brace
		for len(body) > 0 && body[0] == "" {
			body = body[1:]
		}
		for len(body) > 0 && body[len(body)-1] == "" {
			body = body[:len(body)-1]
		}
		if len(body) == 0 {
			return ""
		}
		return strings.Join(body, "\n") + "\n"
	}
	return text
}

// rawStringLines returns the numbers of the lines of text that continue a
// raw string literal. Their leading whitespace is part of the value.
func rawStringLines(text string) map[int]bool {
	fset := token.NewFileSet()
	f := fset.AddFile("", fset.Base(), len(text))
	var s scanner.Scanner
	s.Init(f, []byte(text), nil, 0)
	lines := map[int]bool{}
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		if tok != token.STRING || !strings.HasPrefix(lit, "`") {
			continue
		}
		first := f.Line(pos)
		for l := first + 1; l <= first+strings.Count(lit, "\n"); l++ {
			lines[l] = true
		}
	}
	return lines
}

// foldConstants evaluates binary expressions over literal operands.
func foldConstants(f *ast.File) {
	astutil.Apply(f, nil, func(c *astutil.Cursor) bool {
		switch n := c.Node().(type) {
		case *ast.BinaryExpr:
			if folded := fold(n); folded != nil {
				c.Replace(folded)
			}
		case *ast.ParenExpr:
			// (2 + 3) becomes (5) above; drop the parentheses left behind
			switch n.X.(type) {
			case *ast.BasicLit, *ast.Ident:
				c.Replace(n.X)
			}
		}
		return true
	})
}

func fold(b *ast.BinaryExpr) ast.Expr {
	x, xok := literalValue(b.X)
	y, yok := literalValue(b.Y)
	if !xok || !yok {
		return nil
	}
	isString := x.Kind() == constant.String && y.Kind() == constant.String
	isNumber := isNumeric(x) && isNumeric(y)

	switch b.Op {
	case token.ADD:
		if isString {
			return &ast.BasicLit{ValuePos: b.Pos(), Kind: token.STRING, Value: strconv.Quote(constant.StringVal(constant.BinaryOp(x, token.ADD, y)))}
		}
		if isNumber {
			return numberLit(constant.BinaryOp(x, b.Op, y), x, y, b.Pos())
		}
	case token.SUB, token.MUL:
		if isNumber {
			return numberLit(constant.BinaryOp(x, b.Op, y), x, y, b.Pos())
		}
	case token.QUO:
		if !isNumber || constant.Sign(y) == 0 {
			return nil
		}
		op := token.QUO
		if x.Kind() == constant.Int && y.Kind() == constant.Int {
			op = token.QUO_ASSIGN
		}
		return numberLit(constant.BinaryOp(x, op, y), x, y, b.Pos())
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		if isNumber {
			name := "false"
			if constant.Compare(x, b.Op, y) {
				name = "true"
			}
			return &ast.Ident{NamePos: b.Pos(), Name: name}
		}
	}
	return nil
}

func isNumeric(v constant.Value) bool {
	return v.Kind() == constant.Int || v.Kind() == constant.Float
}

// literalValue evaluates a basic literal, possibly parenthesized or
// negated.
func literalValue(e ast.Expr) (constant.Value, bool) {
	switch e := e.(type) {
	case *ast.BasicLit:
		if e.Kind == token.CHAR || e.Kind == token.IMAG {
			return nil, false
		}
		v := constant.MakeFromLiteral(e.Value, e.Kind, 0)
		return v, v.Kind() != constant.Unknown
	case *ast.ParenExpr:
		return literalValue(e.X)
	case *ast.UnaryExpr:
		if e.Op != token.SUB && e.Op != token.ADD {
			return nil, false
		}
		v, ok := literalValue(e.X)
		if !ok || !isNumeric(v) {
			return nil, false
		}
		return constant.UnaryOp(e.Op, v, 0), true
	}
	return nil, false
}

// numberLit renders v as a literal expression. Results of float operands
// keep a float literal so the constant keeps its default type.
func numberLit(v constant.Value, x, y constant.Value, pos token.Pos) ast.Expr {
	if v.Kind() == constant.Unknown {
		return nil
	}
	neg := constant.Sign(v) < 0
	if neg {
		v = constant.UnaryOp(token.SUB, v, 0)
	}
	var lit *ast.BasicLit
	if x.Kind() == constant.Float || y.Kind() == constant.Float {
		f, exact := constant.Float64Val(v)
		if !exact {
			return nil
		}
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if len(s) > 24 {
			return nil
		}
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		lit = &ast.BasicLit{ValuePos: pos, Kind: token.FLOAT, Value: s}
	} else {
		lit = &ast.BasicLit{ValuePos: pos, Kind: token.INT, Value: v.ExactString()}
	}
	if neg {
		return &ast.UnaryExpr{OpPos: pos, Op: token.SUB, X: lit}
	}
	return lit
}

// eliminateDeadBranches replaces if true / if false statements by the
// branch that is taken.
func eliminateDeadBranches(f *ast.File) {
	astutil.Apply(f, nil, func(c *astutil.Cursor) bool {
		s, ok := c.Node().(*ast.IfStmt)
		if !ok || s.Init != nil {
			return true
		}
		cond, ok := s.Cond.(*ast.Ident)
		if !ok || (cond.Name != "true" && cond.Name != "false") {
			return true
		}
		var taken []ast.Stmt
		var takenBlock *ast.BlockStmt
		if cond.Name == "true" {
			taken, takenBlock = s.Body.List, s.Body
		} else {
			switch e := s.Else.(type) {
			case *ast.BlockStmt:
				taken, takenBlock = e.List, e
			case *ast.IfStmt:
				taken = []ast.Stmt{e}
			}
		}

		if c.Index() < 0 {
			// not in a statement list, e.g. the else of another if
			switch {
			case takenBlock != nil:
				c.Replace(takenBlock)
			case len(taken) == 1:
				c.Replace(taken[0])
			default:
				c.Replace(&ast.BlockStmt{})
			}
			return true
		}
		if declares(taken) {
			c.Replace(&ast.BlockStmt{Lbrace: s.Pos(), List: taken, Rbrace: s.End() - 1})
			return true
		}
		for _, st := range taken {
			c.InsertBefore(st)
		}
		c.Delete()
		return true
	})
}

// declares reports whether splicing stmts into a parent list would
// introduce names into the parent scope.
func declares(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.DeclStmt, *ast.LabeledStmt:
			return true
		case *ast.AssignStmt:
			if s.Tok == token.DEFINE {
				return true
			}
		}
	}
	return false
}

// canonicalizeLoops rewrites
//
//	for i := range N { x = f(i) }
//
// with an integer literal N and a single assignment body into an explicit
// counter loop. Other shapes are left untouched.
func canonicalizeLoops(f *ast.File) {
	names := map[string]bool{}
	ast.Inspect(f, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			names[id.Name] = true
		}
		return true
	})

	astutil.Apply(f, nil, func(c *astutil.Cursor) bool {
		rs, ok := c.Node().(*ast.RangeStmt)
		if !ok || c.Index() < 0 {
			return true
		}
		key, body, n, ok := canonicalShape(rs)
		if !ok {
			return true
		}
		counter := freshName("_"+key.Name, names)
		names[counter] = true

		c.InsertBefore(&ast.AssignStmt{
			Lhs: []ast.Expr{ast.NewIdent(counter)},
			Tok: token.DEFINE,
			Rhs: []ast.Expr{&ast.BasicLit{Kind: token.INT, Value: "0"}},
		})
		c.Replace(&ast.ForStmt{
			For: rs.For,
			Cond: &ast.BinaryExpr{
				X:  ast.NewIdent(counter),
				Op: token.LSS,
				Y:  &ast.BasicLit{Kind: token.INT, Value: n.Value},
			},
			Body: &ast.BlockStmt{
				Lbrace: rs.Body.Lbrace,
				List: []ast.Stmt{
					&ast.AssignStmt{
						Lhs: []ast.Expr{ast.NewIdent(key.Name)},
						Tok: token.DEFINE,
						Rhs: []ast.Expr{ast.NewIdent(counter)},
					},
					body,
					&ast.IncDecStmt{X: ast.NewIdent(counter), Tok: token.INC},
				},
				Rbrace: rs.Body.Rbrace,
			},
		})
		return true
	})
}

// canonicalShape matches for k := range <int literal> { <assignment> }
// where the assignment reads k.
func canonicalShape(rs *ast.RangeStmt) (*ast.Ident, *ast.AssignStmt, *ast.BasicLit, bool) {
	key, ok := rs.Key.(*ast.Ident)
	if !ok || key.Name == "_" || rs.Value != nil || rs.Tok != token.DEFINE {
		return nil, nil, nil, false
	}
	n, ok := rs.X.(*ast.BasicLit)
	if !ok || n.Kind != token.INT {
		return nil, nil, nil, false
	}
	if len(rs.Body.List) != 1 {
		return nil, nil, nil, false
	}
	body, ok := rs.Body.List[0].(*ast.AssignStmt)
	if !ok || body.Tok == token.DEFINE {
		return nil, nil, nil, false
	}
	used := false
	ast.Inspect(body, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok && id.Name == key.Name {
			used = true
		}
		return !used
	})
	return key, body, n, used
}

func freshName(base string, taken map[string]bool) string {
	if !taken[base] {
		return base
	}
	for i := 1; ; i++ {
		name := base + strconv.Itoa(i)
		if !taken[name] {
			return name
		}
	}
}
