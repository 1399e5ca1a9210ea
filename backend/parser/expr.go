package parser

import (
	"strings"

	"github.com/tenntenn/codelens/backend/model"
)

// precedence of binary operators of C++ and Java.
var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, ">": 7, "<=": 7, ">=": 7, "instanceof": 7,
	"<<": 8, ">>": 8, ">>>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

// expr parses toks[from:to] as one expression. It returns nil for an empty
// range and a Raw node when the tokens do not form an expression.
func (s *scan) expr(from, to int) model.Expr {
	if to <= from {
		return nil
	}
	p := &exprParser{scan: s, i: from, end: to}
	e, ok := p.parse()
	if !ok || p.i != to {
		meta := s.meta(from, to)
		return &model.Raw{NodeMeta: meta, Text: meta.Raw}
	}
	return e
}

type exprParser struct {
	*scan
	i   int
	end int
}

// bail is used to abort a parse that ran into unexpected tokens.
type bail struct{}

func (p *exprParser) parse() (e model.Expr, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isBail := r.(bail); !isBail {
				panic(r)
			}
			e, ok = nil, false
		}
	}()
	return p.assign(), true
}

func (p *exprParser) done() bool { return p.i >= p.end }

func (p *exprParser) cur() tok {
	if p.done() {
		panic(bail{})
	}
	return p.toks[p.i]
}

func (p *exprParser) is(text string) bool {
	if p.done() {
		return false
	}
	t := p.toks[p.i]
	return t.text == text && (t.kind == tokOp || t.kind == tokIdent)
}

func (p *exprParser) expect(text string) {
	if !p.is(text) {
		panic(bail{})
	}
	p.i++
}

func (p *exprParser) metaFrom(start int) model.NodeMeta {
	return p.meta(start, p.i)
}

// assign parses an assignment used as an expression.
func (p *exprParser) assign() model.Expr {
	start := p.i
	left := p.ternary()
	if !p.done() && p.cur().kind == tokOp && isAssignOp(p.cur().text) {
		p.i++
		right := p.assign()
		return &model.Opaque{NodeMeta: p.metaFrom(start), Kind: "assign", Text: p.text(start, p.i), Children: []model.Expr{left, right}}
	}
	return left
}

func (p *exprParser) ternary() model.Expr {
	start := p.i
	cond := p.binary(1)
	if !p.is("?") {
		return cond
	}
	p.i++
	a := p.assign()
	p.expect(":")
	b := p.assign()
	return &model.Opaque{NodeMeta: p.metaFrom(start), Kind: "ternary", Text: p.text(start, p.i), Children: []model.Expr{cond, a, b}}
}

func (p *exprParser) binary(minPrec int) model.Expr {
	start := p.i
	left := p.unary()
	for !p.done() {
		t := p.cur()
		if t.kind != tokOp && t.text != "instanceof" {
			break
		}
		prec, ok := precedence[t.text]
		if !ok || prec < minPrec {
			break
		}
		p.i++
		var right model.Expr
		if t.text == "instanceof" {
			right = p.typeName()
		} else {
			right = p.binary(prec + 1)
		}
		left = &model.BinaryOp{NodeMeta: p.metaFrom(start), Op: t.text, Left: left, Right: right}
	}
	return left
}

// typeName consumes a (possibly generic or qualified) type and returns it as
// an identifier.
func (p *exprParser) typeName() model.Expr {
	start := p.i
	if p.done() || p.cur().kind != tokIdent {
		panic(bail{})
	}
	p.i++
	for p.is(".") || p.is("::") {
		p.i++
		if p.done() || p.cur().kind != tokIdent {
			panic(bail{})
		}
		p.i++
	}
	if p.is("<") {
		p.skipTypeArgs()
	}
	for p.is("[") && p.i+1 < p.end && p.toks[p.i+1].text == "]" {
		p.i += 2
	}
	return &model.Identifier{NodeMeta: p.metaFrom(start), Name: p.text(start, p.i)}
}

// skipTypeArgs consumes a balanced <...> list within the expression range.
func (p *exprParser) skipTypeArgs() {
	depth := 0
	for !p.done() {
		switch p.cur().text {
		case "<":
			depth++
		case ">":
			depth--
		case ">>":
			depth -= 2
		case ">>>":
			depth -= 3
		case ";", "{", "}", "(", ")", "&&", "||":
			panic(bail{})
		}
		p.i++
		if depth <= 0 {
			return
		}
	}
	panic(bail{})
}

func (p *exprParser) unary() model.Expr {
	start := p.i
	t := p.cur()
	switch t.text {
	case "-", "+", "!", "~", "*", "&", "++", "--":
		if t.kind == tokOp {
			p.i++
			x := p.unary()
			return &model.UnaryOp{NodeMeta: p.metaFrom(start), Op: t.text, X: x}
		}
	case "new":
		if t.kind == tokIdent {
			return p.postfix(start, p.newExpr())
		}
	case "delete", "throw", "sizeof", "await", "co_await":
		if t.kind == tokIdent {
			p.i++
			if p.is("[") {
				p.i++
				p.expect("]")
			}
			x := p.unary()
			return &model.UnaryOp{NodeMeta: p.metaFrom(start), Op: t.text, X: x}
		}
	}
	return p.postfix(start, p.primary())
}

// postfix applies calls, indexing, member access and postfix operators to
// the operand x that starts at token start.
func (p *exprParser) postfix(start int, x model.Expr) model.Expr {
	for !p.done() {
		switch {
		case p.is("("):
			args := p.callArgs()
			callee := exprText(x)
			x = &model.Call{NodeMeta: p.metaFrom(start), Callee: callee, Args: args}
		case p.is("["):
			p.i++
			idx := p.assign()
			p.expect("]")
			x = &model.Opaque{NodeMeta: p.metaFrom(start), Kind: "index", Text: p.text(start, p.i), Children: []model.Expr{x, idx}}
		case p.is(".") || p.is("->"):
			arrow := p.is("->")
			p.i++
			if p.done() || p.cur().kind != tokIdent {
				panic(bail{})
			}
			name := p.cur().text
			p.i++
			if p.is("<") && p.looksLikeTypeArgs() {
				p.skipTypeArgs()
			}
			if p.is("(") {
				args := p.callArgs()
				x = &model.Call{NodeMeta: p.metaFrom(start), Callee: name, Recv: x, Arrow: arrow, Args: args}
				continue
			}
			x = &model.Opaque{NodeMeta: p.metaFrom(start), Kind: "selector", Text: p.text(start, p.i), Children: []model.Expr{x}}
		case p.is("++") || p.is("--"):
			op := p.cur().text
			p.i++
			x = &model.UnaryOp{NodeMeta: p.metaFrom(start), Op: "post" + op, X: x}
		default:
			return x
		}
	}
	return x
}

// looksLikeTypeArgs reports whether a "<" after a member name opens explicit
// type arguments followed by a call, as in obj.<T>method() or list.get<T>().
func (p *exprParser) looksLikeTypeArgs() bool {
	depth := 0
	for i := p.i; i < p.end; i++ {
		switch p.toks[i].text {
		case "<":
			depth++
		case ">":
			depth--
		case ">>":
			depth -= 2
		default:
			if t := p.toks[i]; t.kind != tokIdent && t.text != "," && t.text != "::" && t.text != "." && t.text != "?" {
				return false
			}
		}
		if depth <= 0 {
			return i+1 < p.end && p.toks[i+1].text == "("
		}
	}
	return false
}

func (p *exprParser) callArgs() []model.Expr {
	p.expect("(")
	var args []model.Expr
	for !p.is(")") {
		args = append(args, p.assign())
		if !p.is(",") {
			break
		}
		p.i++
	}
	p.expect(")")
	return args
}

func (p *exprParser) primary() model.Expr {
	start := p.i
	t := p.cur()
	switch t.kind {
	case tokNumber:
		p.i++
		return &model.Literal{NodeMeta: p.metaFrom(start), Kind: model.Number, Value: t.text}
	case tokString:
		p.i++
		// adjacent string literals are one literal
		for !p.done() && p.cur().kind == tokString {
			p.i++
		}
		return &model.Literal{NodeMeta: p.metaFrom(start), Kind: model.String, Value: p.text(start, p.i)}
	case tokChar:
		p.i++
		return &model.Literal{NodeMeta: p.metaFrom(start), Kind: model.Char, Value: t.text}
	case tokIdent:
		return p.ident()
	}

	switch t.text {
	case "(":
		if e, ok := p.cast(); ok {
			return e
		}
		p.i++
		e := p.assign()
		p.expect(")")
		return e
	case "{":
		p.i++
		var elems []model.Expr
		for !p.is("}") {
			elems = append(elems, p.assign())
			if !p.is(",") {
				break
			}
			p.i++
		}
		p.expect("}")
		return &model.Collection{NodeMeta: p.metaFrom(start), Kind: model.CollectionLiteral, Elems: elems}
	case "[":
		return p.lambda()
	case "::":
		p.i++
		return p.ident()
	}
	panic(bail{})
}

func (p *exprParser) ident() model.Expr {
	start := p.i
	t := p.cur()
	p.i++
	switch t.text {
	case "true", "false":
		return &model.Literal{NodeMeta: p.metaFrom(start), Kind: model.Bool, Value: t.text}
	case "null", "nullptr", "NULL":
		return &model.Literal{NodeMeta: p.metaFrom(start), Kind: model.Null, Value: t.text}
	}
	name := t.text
	for p.is("::") && p.i+1 < p.end && p.toks[p.i+1].kind == tokIdent {
		p.i += 2
		name = p.text(start, p.i)
	}
	// Java lambda: x -> expr
	if p.is("->") && p.i+1 < p.end && (p.toks[p.i+1].text == "{" || p.inLambdaContext(start)) {
		return p.arrowBody(start, []model.Param{{Name: name}})
	}
	// generic function call: f<T>(x)
	if p.is("<") && p.looksLikeTypeArgs() {
		p.skipTypeArgs()
		name = p.text(start, p.i)
	}
	return &model.Identifier{NodeMeta: p.metaFrom(start), Name: name}
}

// inLambdaContext reports whether an identifier followed by "->" starts a
// Java lambda rather than a C++ member access.
func (p *exprParser) inLambdaContext(start int) bool {
	if p.lang != model.Java {
		return false
	}
	if start == 0 {
		return true
	}
	switch p.toks[start-1].text {
	case "(", ",", "=", "return":
		return true
	}
	return false
}

// arrowBody parses the body after "->" of a Java lambda.
func (p *exprParser) arrowBody(start int, params []model.Param) model.Expr {
	p.expect("->")
	if p.is("{") {
		body := p.braceBody()
		return &model.FuncLit{NodeMeta: p.metaFrom(start), Params: params, Body: body}
	}
	e := p.assign()
	meta := e.Meta()
	return &model.FuncLit{NodeMeta: p.metaFrom(start), Params: params, Body: []model.Stmt{&model.Return{NodeMeta: *meta, Results: []model.Expr{e}}}}
}

// lambda parses a C++ lambda: [captures](params) specifiers { body }.
func (p *exprParser) lambda() model.Expr {
	start := p.i
	p.expect("[")
	for !p.is("]") {
		p.i++
		if p.done() {
			panic(bail{})
		}
	}
	p.i++
	var params []model.Param
	if p.is("(") {
		open := p.i
		depth := 0
		for {
			t := p.cur()
			if t.text == "(" {
				depth++
			} else if t.text == ")" {
				depth--
				if depth == 0 {
					break
				}
			}
			p.i++
		}
		for _, part := range splitTop(p.toks, open+1, p.i, ",") {
			if prm, ok := p.param(part[0], part[1]); ok {
				params = append(params, prm)
			}
		}
		p.i++
	}
	for !p.done() && !p.is("{") {
		p.i++
	}
	body := p.braceBody()
	return &model.FuncLit{NodeMeta: p.metaFrom(start), Params: params, Body: body}
}

// braceBody parses the statements of the braced block at the current token.
func (p *exprParser) braceBody() []model.Stmt {
	rb := p.matchBrace(p.i)
	sub := &scan{src: p.src, lang: p.lang, toks: p.toks[:rb], i: p.i + 1}
	body := sub.block(false)
	p.i = rb + 1
	return body
}

// matchBrace returns the index of the brace closing the one at open.
func (p *exprParser) matchBrace(open int) int {
	if !p.is("{") {
		panic(bail{})
	}
	depth := 0
	for i := open; i < p.end; i++ {
		switch p.toks[i].text {
		case "{":
			depth++
		case "}":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	panic(bail{})
}

var castableTypes = map[string]bool{
	"int": true, "long": true, "short": true, "char": true, "byte": true,
	"float": true, "double": true, "bool": true, "boolean": true,
	"unsigned": true, "signed": true, "size_t": true, "String": true,
	"Integer": true, "Long": true, "Double": true, "Object": true,
}

// cast parses "(T) x" when T is a known type name.
func (p *exprParser) cast() (model.Expr, bool) {
	start := p.i
	i := start + 1
	var names []string
	for i < p.end && (p.toks[i].kind == tokIdent || p.toks[i].text == "*" || p.toks[i].text == "&" || p.toks[i].text == "::") {
		names = append(names, p.toks[i].text)
		i++
	}
	if len(names) == 0 || i >= p.end || p.toks[i].text != ")" || !castableTypes[names[0]] {
		return nil, false
	}
	if i+1 >= p.end {
		return nil, false
	}
	p.i = i + 1
	x := p.unary()
	return &model.Opaque{NodeMeta: p.metaFrom(start), Kind: "cast", Text: p.text(start, p.i), Children: []model.Expr{x}}, true
}

// newExpr parses new T[n], new T[]{...}, new T(args) and new T{...}.
func (p *exprParser) newExpr() model.Expr {
	start := p.i
	p.expect("new")
	typeStart := p.i
	p.typeName()
	typ := p.text(typeStart, p.i)
	switch {
	case p.is("["):
		p.i++
		var size model.Expr
		if !p.is("]") {
			size = p.assign()
		}
		p.expect("]")
		for p.is("[") {
			p.i++
			if !p.is("]") {
				p.assign()
			}
			p.expect("]")
		}
		col := &model.Collection{Kind: model.CollectionAlloc, Type: typ + "[]", Size: size}
		if p.is("{") {
			lit := p.primary().(*model.Collection)
			col.Kind = model.CollectionLiteral
			col.Elems = lit.Elems
		}
		col.NodeMeta = p.metaFrom(start)
		return col
	case strings.HasSuffix(typ, "]") && p.is("{"):
		lit := p.primary().(*model.Collection)
		lit.Type = typ
		lit.NodeMeta = p.metaFrom(start)
		return lit
	}
	var args []model.Expr
	switch {
	case p.is("("):
		args = p.callArgs()
		if p.is("{") {
			// anonymous class body
			p.i = p.matchBrace(p.i) + 1
		}
	case p.is("{"):
		args = p.primary().(*model.Collection).Elems
	}
	if isCollectionType(typ) {
		col := &model.Collection{NodeMeta: p.metaFrom(start), Kind: model.CollectionAlloc, Type: typ}
		if len(args) > 0 {
			col.Size = args[0]
		}
		return col
	}
	return &model.Call{NodeMeta: p.metaFrom(start), Callee: "new " + typ, Args: args}
}

// exprText returns the name of a callee expression.
func exprText(e model.Expr) string {
	switch e := e.(type) {
	case *model.Identifier:
		return e.Name
	case *model.Opaque:
		return e.Text
	}
	return e.Meta().Raw
}
