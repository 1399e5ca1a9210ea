package parser

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"regexp"
	"strings"

	"github.com/tenntenn/codelens/backend/model"
)

// Mode records how a Go snippet was completed into a compilable file.
type Mode int

const (
	// FileMode is a complete file with a package clause.
	FileMode Mode = iota
	// DeclMode is a list of top-level declarations.
	DeclMode
	// StmtMode is a list of statements.
	StmtMode
)

func (m Mode) String() string {
	switch m {
	case DeclMode:
		return "declarations"
	case StmtMode:
		return "statements"
	}
	return "file"
}

const (
	declPrefix = "package main\n"
	stmtPrefix = "package main\n\nfunc main() {\n"
	stmtSuffix = "\n}\n"

	parseMode = parser.ParseComments | parser.SkipObjectResolution
)

var topLevelFunc = regexp.MustCompile(`(?m)^func\s`)

// GoSource is a parsed Go snippet together with the wrapper that made it a
// file.
type GoSource struct {
	Fset *token.FileSet
	File *ast.File
	Mode Mode
	// Source is the user's text.
	Source string
	// Text is the parsed text including the wrapper.
	Text string
	// LineOffset is the number of wrapper lines before the user's text.
	LineOffset int
	// ByteOffset is the length of the wrapper prefix.
	ByteOffset int
}

// ParseFailure reports a Go grammar violation.
type ParseFailure struct {
	Message  string
	Location model.Position
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Location.Line, e.Location.Column, e.Message)
}

// ParseGo parses Go source code. The source may be a file, a list of
// declarations or a list of statements.
func ParseGo(src string) (*GoSource, error) {
	fileSrc, fileErr := parseWrapped(src, "", "", FileMode)
	if fileErr == nil {
		return fileSrc, nil
	}
	if startsWithPackage(src) {
		return nil, fileErr
	}

	declSrc, declErr := parseWrapped(src, declPrefix, "", DeclMode)
	if declErr == nil {
		return declSrc, nil
	}

	stmtSrc, stmtErr := parseWrapped(src, stmtPrefix, stmtSuffix, StmtMode)
	if stmtErr == nil {
		return stmtSrc, nil
	}

	if topLevelFunc.MatchString(src) {
		return nil, declErr
	}
	return nil, stmtErr
}

func parseWrapped(src, prefix, suffix string, mode Mode) (*GoSource, error) {
	text := prefix + src + suffix
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "main.go", text, parseMode)
	lineOffset := strings.Count(prefix, "\n")
	if err != nil {
		return nil, toParseFailure(err, lineOffset, src)
	}
	return &GoSource{
		Fset:       fset,
		File:       file,
		Mode:       mode,
		Source:     src,
		Text:       text,
		LineOffset: lineOffset,
		ByteOffset: len(prefix),
	}, nil
}

func toParseFailure(err error, lineOffset int, src string) *ParseFailure {
	var list scanner.ErrorList
	if !errors.As(err, &list) || len(list) == 0 {
		return &ParseFailure{Message: err.Error(), Location: model.Position{Line: 1, Column: 1}}
	}
	first := list[0]
	line := first.Pos.Line - lineOffset
	col := first.Pos.Column
	// Errors reported inside the wrapper suffix belong to the end of the
	// user's text.
	if last := strings.Count(src, "\n") + 1; line > last {
		line, col = last, 1
	}
	if line < 1 {
		line, col = 1, 1
	}
	return &ParseFailure{
		Message:  first.Msg,
		Location: model.Position{Line: line, Column: col},
	}
}

// startsWithPackage reports whether the first token of src is a package
// clause.
func startsWithPackage(src string) bool {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))
	var s scanner.Scanner
	s.Init(file, []byte(src), nil, 0)
	_, tok, _ := s.Scan()
	return tok == token.PACKAGE
}

// BuildGo converts a parsed Go snippet into a program model.
func BuildGo(gs *GoSource) *model.Program {
	c := &goConverter{src: gs}
	p := &model.Program{Language: model.Go, Source: gs.Source}
	if gs.Mode == StmtMode {
		for _, decl := range gs.File.Decls {
			if fn, ok := decl.(*ast.FuncDecl); ok && fn.Name.Name == "main" && fn.Body != nil {
				p.Body = c.stmts(fn.Body.List)
			}
		}
		return p
	}
	for _, decl := range gs.File.Decls {
		p.Body = append(p.Body, c.decl(decl)...)
	}
	return p
}

// goConverter converts go/ast nodes to model nodes.
type goConverter struct {
	src *GoSource
}

func (c *goConverter) position(pos token.Pos) model.Position {
	if !pos.IsValid() {
		return model.Position{}
	}
	position := c.src.Fset.Position(pos)
	return model.Position{
		Line:   position.Line - c.src.LineOffset,
		Column: position.Column,
		Offset: position.Offset - c.src.ByteOffset,
	}
}

func (c *goConverter) meta(n ast.Node) model.NodeMeta {
	return model.NodeMeta{Loc: model.Span{Start: c.position(n.Pos()), End: c.position(n.End())}}
}

// text returns the source text of n.
func (c *goConverter) text(n ast.Node) string {
	if n == nil {
		return ""
	}
	return c.between(n.Pos(), n.End())
}

func (c *goConverter) between(from, to token.Pos) string {
	if !from.IsValid() || !to.IsValid() {
		return ""
	}
	start := c.src.Fset.Position(from).Offset
	end := c.src.Fset.Position(to).Offset
	if start < 0 || end > len(c.src.Text) || start > end {
		return ""
	}
	return c.src.Text[start:end]
}

func (c *goConverter) decl(d ast.Decl) []model.Stmt {
	switch d := d.(type) {
	case *ast.FuncDecl:
		fn := &model.FunctionDef{
			NodeMeta: c.meta(d),
			Name:     d.Name.Name,
			Params:   c.params(d.Type.Params),
		}
		if d.Recv != nil && len(d.Recv.List) > 0 && len(d.Recv.List[0].Names) > 0 {
			fn.Receiver = d.Recv.List[0].Names[0].Name
		}
		if d.Body != nil {
			fn.Body = c.stmts(d.Body.List)
		}
		return []model.Stmt{fn}
	case *ast.GenDecl:
		return c.genDecl(d)
	}
	return nil
}

func (c *goConverter) genDecl(d *ast.GenDecl) []model.Stmt {
	if d.Tok != token.VAR && d.Tok != token.CONST {
		return nil
	}
	var out []model.Stmt
	for _, spec := range d.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok {
			continue
		}
		for i, name := range vs.Names {
			decl := &model.Declaration{
				NodeMeta: c.meta(vs),
				Name:     name.Name,
				Type:     c.text(vs.Type),
			}
			switch {
			case i < len(vs.Values):
				decl.Value = c.expr(vs.Values[i])
			case len(vs.Values) == 1:
				// var a, b = f()
				decl.Value = c.expr(vs.Values[0])
			default:
				if at, ok := vs.Type.(*ast.ArrayType); ok && at.Len != nil {
					decl.Value = &model.Collection{
						NodeMeta: c.meta(at),
						Kind:     model.CollectionAlloc,
						Type:     c.text(at),
						Size:     c.expr(at.Len),
					}
				}
			}
			out = append(out, decl)
		}
	}
	return out
}

func (c *goConverter) params(fl *ast.FieldList) []model.Param {
	if fl == nil {
		return nil
	}
	var out []model.Param
	for _, f := range fl.List {
		typ := c.text(f.Type)
		if len(f.Names) == 0 {
			out = append(out, model.Param{Type: typ})
		}
		for _, name := range f.Names {
			out = append(out, model.Param{Name: name.Name, Type: typ})
		}
	}
	return out
}

func (c *goConverter) stmts(list []ast.Stmt) []model.Stmt {
	var out []model.Stmt
	for _, s := range list {
		out = append(out, c.stmt(s)...)
	}
	return out
}

func (c *goConverter) block(b *ast.BlockStmt) []model.Stmt {
	if b == nil {
		return nil
	}
	return c.stmts(b.List)
}

func (c *goConverter) single(s ast.Stmt) model.Stmt {
	if s == nil {
		return nil
	}
	list := c.stmt(s)
	switch len(list) {
	case 0:
		return nil
	case 1:
		return list[0]
	}
	return &model.Block{NodeMeta: c.meta(s), Kind: "block", Body: list}
}

func (c *goConverter) stmt(s ast.Stmt) []model.Stmt {
	switch s := s.(type) {
	case *ast.AssignStmt:
		return c.assign(s)

	case *ast.IncDecStmt:
		op := "+"
		if s.Tok == token.DEC {
			op = "-"
		}
		a := &model.Assignment{
			NodeMeta: c.meta(s),
			Op:       s.Tok.String(),
			Value: &model.BinaryOp{
				NodeMeta: c.meta(s),
				Op:       op,
				Left:     c.expr(s.X),
				Right:    &model.Literal{NodeMeta: c.meta(s), Kind: model.Number, Value: "1"},
			},
		}
		c.target(a, s.X)
		return []model.Stmt{a}

	case *ast.DeclStmt:
		if gd, ok := s.Decl.(*ast.GenDecl); ok {
			return c.genDecl(gd)
		}

	case *ast.ExprStmt:
		return []model.Stmt{&model.ExprStmt{NodeMeta: c.meta(s), X: c.expr(s.X)}}

	case *ast.ReturnStmt:
		return []model.Stmt{&model.Return{NodeMeta: c.meta(s), Results: c.exprs(s.Results)}}

	case *ast.BranchStmt:
		b := &model.Branch{NodeMeta: c.meta(s), Keyword: s.Tok.String()}
		if s.Label != nil {
			b.Label = s.Label.Name
		}
		return []model.Stmt{b}

	case *ast.BlockStmt:
		return []model.Stmt{&model.Block{NodeMeta: c.meta(s), Kind: "block", Body: c.block(s)}}

	case *ast.IfStmt:
		return []model.Stmt{c.ifStmt(s)}

	case *ast.ForStmt:
		kind := model.For
		if s.Init == nil && s.Post == nil && s.Cond != nil {
			kind = model.While
		}
		return []model.Stmt{&model.Loop{
			NodeMeta: c.meta(s),
			Kind:     kind,
			Init:     c.single(s.Init),
			Cond:     c.expr(s.Cond),
			Post:     c.single(s.Post),
			Body:     c.block(s.Body),
			Header:   c.header(s.Pos(), s.Body),
		}}

	case *ast.RangeStmt:
		return []model.Stmt{&model.Loop{
			NodeMeta: c.meta(s),
			Kind:     model.Range,
			Cond:     c.expr(s.X),
			Body:     c.block(s.Body),
			Header:   c.header(s.Pos(), s.Body),
		}}

	case *ast.SwitchStmt:
		return []model.Stmt{&model.Block{
			NodeMeta: c.meta(s),
			Kind:     "switch",
			X:        c.expr(s.Tag),
			Body:     append(c.optional(s.Init), c.block(s.Body)...),
		}}

	case *ast.TypeSwitchStmt:
		return []model.Stmt{&model.Block{
			NodeMeta: c.meta(s),
			Kind:     "switch",
			Body:     append(append(c.optional(s.Init), c.stmt(s.Assign)...), c.block(s.Body)...),
		}}

	case *ast.SelectStmt:
		return []model.Stmt{&model.Block{NodeMeta: c.meta(s), Kind: "select", Body: c.block(s.Body)}}

	case *ast.CaseClause:
		var body []model.Stmt
		for _, e := range s.List {
			body = append(body, &model.ExprStmt{NodeMeta: c.meta(e), X: c.expr(e)})
		}
		return []model.Stmt{&model.Block{NodeMeta: c.meta(s), Kind: "case", Body: append(body, c.stmts(s.Body)...)}}

	case *ast.CommClause:
		return []model.Stmt{&model.Block{
			NodeMeta: c.meta(s),
			Kind:     "case",
			Body:     append(c.optional(s.Comm), c.stmts(s.Body)...),
		}}

	case *ast.LabeledStmt:
		return c.stmt(s.Stmt)

	case *ast.GoStmt:
		return []model.Stmt{&model.Block{NodeMeta: c.meta(s), Kind: "go", X: c.expr(s.Call)}}

	case *ast.DeferStmt:
		return []model.Stmt{&model.Block{NodeMeta: c.meta(s), Kind: "defer", X: c.expr(s.Call)}}

	case *ast.SendStmt:
		return []model.Stmt{&model.ExprStmt{
			NodeMeta: c.meta(s),
			X: &model.Opaque{
				NodeMeta: c.meta(s),
				Kind:     "send",
				Text:     c.text(s),
				Children: c.exprs([]ast.Expr{s.Chan, s.Value}),
			},
		}}
	}
	return nil
}

func (c *goConverter) optional(s ast.Stmt) []model.Stmt {
	if s == nil {
		return nil
	}
	return c.stmt(s)
}

func (c *goConverter) ifStmt(s *ast.IfStmt) *model.Conditional {
	cond := &model.Conditional{
		NodeMeta: c.meta(s),
		Init:     c.single(s.Init),
		Test:     c.expr(s.Cond),
		Then:     c.block(s.Body),
	}
	switch e := s.Else.(type) {
	case *ast.BlockStmt:
		cond.Else = c.block(e)
	case *ast.IfStmt:
		cond.Else = []model.Stmt{c.ifStmt(e)}
	}
	return cond
}

// header returns the loop header text without the opening brace.
func (c *goConverter) header(from token.Pos, body *ast.BlockStmt) string {
	return strings.TrimSpace(c.between(from, body.Lbrace))
}

func (c *goConverter) assign(s *ast.AssignStmt) []model.Stmt {
	var out []model.Stmt
	binOp := ""
	switch s.Tok {
	case token.ASSIGN, token.DEFINE:
	default:
		binOp = strings.TrimSuffix(s.Tok.String(), "=")
	}
	for i, lhs := range s.Lhs {
		a := &model.Assignment{NodeMeta: c.meta(s), Op: s.Tok.String()}
		c.target(a, lhs)
		var rhs ast.Expr
		switch {
		case len(s.Lhs) == len(s.Rhs):
			rhs = s.Rhs[i]
		case i == 0 && len(s.Rhs) > 0:
			rhs = s.Rhs[0]
		}
		if rhs != nil {
			a.Value = c.expr(rhs)
		}
		if binOp != "" {
			a.Value = &model.BinaryOp{NodeMeta: c.meta(s), Op: binOp, Left: c.expr(lhs), Right: a.Value}
		}
		out = append(out, a)
	}
	return out
}

func (c *goConverter) target(a *model.Assignment, lhs ast.Expr) {
	if id, ok := ast.Unparen(lhs).(*ast.Ident); ok {
		a.Target = id.Name
		return
	}
	a.Dest = c.expr(lhs)
}

func (c *goConverter) exprs(list []ast.Expr) []model.Expr {
	var out []model.Expr
	for _, e := range list {
		if e == nil {
			continue
		}
		if m := c.expr(e); m != nil {
			out = append(out, m)
		}
	}
	return out
}

func (c *goConverter) opaque(kind string, n ast.Expr, children ...ast.Expr) *model.Opaque {
	return &model.Opaque{NodeMeta: c.meta(n), Kind: kind, Text: c.text(n), Children: c.exprs(children)}
}

func (c *goConverter) expr(e ast.Expr) model.Expr {
	switch e := e.(type) {
	case nil:
		return nil

	case *ast.Ident:
		switch e.Name {
		case "true", "false":
			return &model.Literal{NodeMeta: c.meta(e), Kind: model.Bool, Value: e.Name}
		case "nil":
			return &model.Literal{NodeMeta: c.meta(e), Kind: model.Null, Value: e.Name}
		}
		return &model.Identifier{NodeMeta: c.meta(e), Name: e.Name}

	case *ast.BasicLit:
		kind := model.Number
		switch e.Kind {
		case token.STRING:
			kind = model.String
		case token.CHAR:
			kind = model.Char
		}
		return &model.Literal{NodeMeta: c.meta(e), Kind: kind, Value: e.Value}

	case *ast.BinaryExpr:
		return &model.BinaryOp{NodeMeta: c.meta(e), Op: e.Op.String(), Left: c.expr(e.X), Right: c.expr(e.Y)}

	case *ast.UnaryExpr:
		if e.Op == token.AND {
			if cl, ok := e.X.(*ast.CompositeLit); ok {
				return c.expr(cl)
			}
		}
		return &model.UnaryOp{NodeMeta: c.meta(e), Op: e.Op.String(), X: c.expr(e.X)}

	case *ast.StarExpr:
		return &model.UnaryOp{NodeMeta: c.meta(e), Op: "*", X: c.expr(e.X)}

	case *ast.ParenExpr:
		return c.expr(e.X)

	case *ast.CallExpr:
		return c.call(e)

	case *ast.CompositeLit:
		return c.compositeLit(e)

	case *ast.FuncLit:
		return &model.FuncLit{NodeMeta: c.meta(e), Params: c.params(e.Type.Params), Body: c.block(e.Body)}

	case *ast.IndexExpr:
		return c.opaque("index", e, e.X, e.Index)

	case *ast.IndexListExpr:
		return c.opaque("index", e, append([]ast.Expr{e.X}, e.Indices...)...)

	case *ast.SelectorExpr:
		return c.opaque("selector", e, e.X)

	case *ast.SliceExpr:
		return c.opaque("slice", e, e.X, e.Low, e.High, e.Max)

	case *ast.TypeAssertExpr:
		return c.opaque("assert", e, e.X)

	case *ast.KeyValueExpr:
		return c.opaque("kv", e, e.Key, e.Value)

	case *ast.ArrayType, *ast.MapType, *ast.ChanType, *ast.FuncType,
		*ast.InterfaceType, *ast.StructType, *ast.Ellipsis:
		return c.opaque("type", e)
	}
	return &model.Raw{NodeMeta: c.meta(e), Text: c.text(e)}
}

func (c *goConverter) call(e *ast.CallExpr) model.Expr {
	switch fun := ast.Unparen(e.Fun).(type) {
	case *ast.Ident:
		if fun.Name == "make" && len(e.Args) > 0 {
			col := &model.Collection{NodeMeta: c.meta(e), Kind: model.CollectionAlloc, Type: c.text(e.Args[0])}
			if len(e.Args) > 1 {
				col.Size = c.expr(e.Args[1])
			}
			return col
		}
		return &model.Call{NodeMeta: c.meta(e), Callee: fun.Name, Args: c.exprs(e.Args)}
	case *ast.SelectorExpr:
		return &model.Call{NodeMeta: c.meta(e), Callee: fun.Sel.Name, Recv: c.expr(fun.X), Args: c.exprs(e.Args)}
	}
	return &model.Call{NodeMeta: c.meta(e), Args: c.exprs(append([]ast.Expr{e.Fun}, e.Args...))}
}

func (c *goConverter) compositeLit(e *ast.CompositeLit) model.Expr {
	switch e.Type.(type) {
	case *ast.ArrayType, *ast.MapType, nil:
		return &model.Collection{
			NodeMeta: c.meta(e),
			Kind:     model.CollectionLiteral,
			Type:     c.text(e.Type),
			Elems:    c.exprs(e.Elts),
		}
	}
	// Struct literal: field keys are names, not reads.
	var values []ast.Expr
	for _, elt := range e.Elts {
		if kv, ok := elt.(*ast.KeyValueExpr); ok {
			values = append(values, kv.Value)
			continue
		}
		values = append(values, elt)
	}
	return c.opaque("composite", e, values...)
}
