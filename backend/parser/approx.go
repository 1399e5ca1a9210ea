package parser

import (
	"strings"

	"github.com/tenntenn/codelens/backend/model"
)

// BuildApprox builds the structural skeleton of a C++ or Java snippet.
//
// It never fails. Braces and parentheses are matched over a token stream;
// loop and conditional headers are recognized by keyword, and statement
// expressions go through a small expression parser that falls back to raw
// text. Every step consumes at least one token, so the scan terminates on
// any input.
func BuildApprox(src string, lang model.Language) *model.Program {
	s := &scan{src: src, lang: lang, toks: lex(src)}
	return &model.Program{
		Language:    lang,
		Approximate: true,
		Source:      src,
		Lines:       classifyLines(src),
		Body:        s.block(true),
	}
}

type scan struct {
	src  string
	lang model.Language
	toks []tok
	i    int
}

func (s *scan) eof() bool { return s.i >= len(s.toks) }

func (s *scan) peek() tok {
	if s.eof() {
		return tok{}
	}
	return s.toks[s.i]
}

// at reports whether the current token is an operator or keyword with text t.
func (s *scan) at(t string) bool {
	return !s.eof() && s.toks[s.i].text == t && s.toks[s.i].kind != tokString && s.toks[s.i].kind != tokChar
}

func (s *scan) accept(t string) bool {
	if s.at(t) {
		s.i++
		return true
	}
	return false
}

// meta builds node metadata for the tokens in [from, to).
func (s *scan) meta(from, to int) model.NodeMeta {
	return metaOf(s.src, s.toks, from, to)
}

func metaOf(src string, toks []tok, from, to int) model.NodeMeta {
	if from >= len(toks) || to <= from {
		if from > 0 && from <= len(toks) {
			end := toks[from-1].end
			return model.NodeMeta{Loc: model.Span{Start: end, End: end}, Approximate: true}
		}
		return model.NodeMeta{Approximate: true}
	}
	if to > len(toks) {
		to = len(toks)
	}
	first, last := toks[from], toks[to-1]
	return model.NodeMeta{
		Loc:         model.Span{Start: first.pos, End: last.end},
		Approximate: true,
		Raw:         src[first.pos.Offset:last.end.Offset],
	}
}

func (s *scan) text(from, to int) string {
	return s.meta(from, to).Raw
}

// block parses statements until the closing brace of the current block.
// At the top level stray closing braces are skipped.
func (s *scan) block(top bool) []model.Stmt {
	var out []model.Stmt
	for !s.eof() {
		if s.at("}") {
			if !top {
				return out
			}
			s.i++
			continue
		}
		if st := s.statement(); st != nil {
			out = append(out, st)
		}
	}
	return out
}

// body parses a loop or branch body: a braced block or a single statement.
func (s *scan) body() []model.Stmt {
	if s.accept("{") {
		list := s.block(false)
		s.accept("}")
		return list
	}
	if s.eof() || s.at("}") {
		return nil
	}
	if st := s.statement(); st != nil {
		return []model.Stmt{st}
	}
	return nil
}

// group returns the token range inside a parenthesized group starting at the
// current token and moves past its closing parenthesis. Without an opening
// parenthesis it returns an empty range.
func (s *scan) group() (from, to int) {
	if !s.at("(") {
		return s.i, s.i
	}
	s.i++
	from = s.i
	depth := 1
	for ; !s.eof(); s.i++ {
		switch s.toks[s.i].text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				to = s.i
				s.i++
				return from, to
			}
		case "{", "}", ";":
			// An unclosed header ends at the first structural token, unless
			// it is the separator of a for header.
			if s.toks[s.i].text != ";" || depth > 1 {
				return from, s.i
			}
		}
	}
	return from, s.i
}

func (s *scan) statement() model.Stmt {
	start := s.i
	t := s.peek()
	if t.kind == tokIdent {
		switch t.text {
		case "for":
			return s.forLoop()
		case "while":
			s.i++
			from, to := s.group()
			cond := s.expr(from, to)
			header := s.text(start, s.i)
			body := s.body()
			return &model.Loop{NodeMeta: s.meta(start, s.i), Kind: model.While, Cond: cond, Body: body, Header: header}
		case "do":
			s.i++
			body := s.body()
			var cond model.Expr
			if s.accept("while") {
				from, to := s.group()
				cond = s.expr(from, to)
				s.accept(";")
			}
			return &model.Loop{NodeMeta: s.meta(start, s.i), Kind: model.DoWhile, Cond: cond, Body: body, Header: "do-while"}
		case "if":
			return s.ifStmt()
		case "else":
			s.i++
			return s.blockOf(start, "else", s.body())
		case "switch", "synchronized":
			s.i++
			from, to := s.group()
			x := s.expr(from, to)
			b := &model.Block{Kind: t.text, X: x, Body: s.body()}
			b.NodeMeta = s.meta(start, s.i)
			return b
		case "try":
			s.i++
			if s.at("(") {
				// try-with-resources
				s.group()
			}
			body := s.body()
			for s.at("catch") || s.at("finally") {
				s.i++
				s.group()
				body = append(body, s.body()...)
			}
			return s.blockOf(start, "try", body)
		case "return", "co_return":
			s.i++
			from := s.i
			to := s.until()
			st := &model.Return{}
			if e := s.expr(from, to); e != nil {
				st.Results = []model.Expr{e}
			}
			s.accept(";")
			st.NodeMeta = s.meta(start, s.i)
			return st
		case "break", "continue", "goto":
			s.i++
			b := &model.Branch{Keyword: t.text}
			if s.peek().kind == tokIdent {
				b.Label = s.peek().text
			}
			s.until()
			s.accept(";")
			b.NodeMeta = s.meta(start, s.i)
			return b
		case "case", "default":
			for !s.eof() && !s.at(":") && !s.at("}") {
				s.i++
			}
			s.accept(":")
			return nil
		case "public", "private", "protected":
			if s.i+1 < len(s.toks) && s.toks[s.i+1].text == ":" {
				s.i += 2
				return nil
			}
		case "template":
			s.i++
			s.skipAngles()
			return nil
		case "using", "typedef", "import", "package":
			s.until()
			s.accept(";")
			return nil
		}
	}
	switch {
	case s.at("{"):
		s.i++
		body := s.block(false)
		s.accept("}")
		return s.blockOf(start, "block", body)
	case s.at(";"):
		s.i++
		return nil
	case s.at("@"):
		// Java annotation
		s.i++
		if s.peek().kind == tokIdent {
			s.i++
		}
		for s.accept(".") {
			s.i++
		}
		if s.at("(") {
			s.group()
		}
		return nil
	}
	return s.simple()
}

func (s *scan) blockOf(start int, kind string, body []model.Stmt) *model.Block {
	return &model.Block{NodeMeta: s.meta(start, s.i), Kind: kind, Body: body}
}

// skipAngles skips a balanced <...> group.
func (s *scan) skipAngles() {
	if !s.at("<") {
		return
	}
	depth := 0
	for ; !s.eof(); s.i++ {
		switch s.toks[s.i].text {
		case "<":
			depth++
		case ">":
			depth--
		case ">>":
			depth -= 2
		case ";", "{":
			return
		}
		if depth <= 0 {
			s.i++
			return
		}
	}
}

// until moves to the next top-level semicolon or closing brace and returns
// its index.
func (s *scan) until() int {
	depth := 0
	for ; !s.eof(); s.i++ {
		switch s.toks[s.i].text {
		case "(", "[", "{":
			depth++
		case ")", "]":
			if depth > 0 {
				depth--
			}
		case "}":
			if depth == 0 {
				return s.i
			}
			depth--
		case ";":
			if depth == 0 {
				return s.i
			}
		}
	}
	return s.i
}

func (s *scan) forLoop() model.Stmt {
	start := s.i
	s.i++
	from, to := s.group()
	header := s.text(start, s.i)
	loop := &model.Loop{Kind: model.For, Header: header}

	parts := splitTop(s.toks, from, to, ";")
	if len(parts) >= 3 {
		loop.Init = s.simpleFrom(parts[0][0], parts[0][1])
		loop.Cond = s.expr(parts[1][0], parts[1][1])
		loop.Post = s.simpleFrom(parts[2][0], parts[2][1])
	} else {
		// range-based for: for (T x : xs)
		loop.Kind = model.Range
		for i := from; i < to; i++ {
			if s.toks[i].text == ":" {
				loop.Cond = s.expr(i+1, to)
				break
			}
		}
		if loop.Cond == nil {
			loop.Cond = &model.Raw{NodeMeta: s.meta(from, to), Text: s.text(from, to)}
		}
	}
	loop.Body = s.body()
	loop.NodeMeta = s.meta(start, s.i)
	return loop
}

func (s *scan) ifStmt() model.Stmt {
	start := s.i
	s.i++
	from, to := s.group()
	cond := &model.Conditional{Test: s.expr(from, to), Then: s.body()}
	if s.accept("else") {
		if s.at("if") {
			if st := s.ifStmt(); st != nil {
				cond.Else = []model.Stmt{st}
			}
		} else {
			cond.Else = s.body()
		}
	}
	cond.NodeMeta = s.meta(start, s.i)
	return cond
}

// splitTop splits toks[from:to] at top-level separators.
func splitTop(toks []tok, from, to int, sep string) [][2]int {
	var parts [][2]int
	depth := 0
	begin := from
	for i := from; i < to; i++ {
		switch toks[i].text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 && toks[i].kind == tokOp {
				parts = append(parts, [2]int{begin, i})
				begin = i + 1
			}
		}
	}
	return append(parts, [2]int{begin, to})
}

// simple parses a statement that is not introduced by a keyword: a
// declaration, assignment or expression terminated by a semicolon, or a
// function/type header followed by a body.
func (s *scan) simple() model.Stmt {
	start := s.i
	depth := 0
	seenAssign := false
	for ; !s.eof(); s.i++ {
		t := s.toks[s.i]
		if t.kind == tokString || t.kind == tokChar {
			continue
		}
		switch t.text {
		case "(", "[":
			depth++
			continue
		case ")", "]":
			if depth > 0 {
				depth--
			}
			continue
		case "=":
			if depth == 0 {
				seenAssign = true
			}
		}
		if depth > 0 {
			if t.text == "{" {
				s.skipBraces()
				s.i--
			}
			continue
		}
		switch t.text {
		case ";":
			end := s.i
			s.i++
			return s.simpleFrom(start, end)
		case "}":
			return s.simpleFrom(start, s.i)
		case "{":
			if seenAssign || s.initializerBrace(start) {
				s.skipBraces()
				s.i--
				continue
			}
			return s.header(start, s.i)
		}
	}
	return s.simpleFrom(start, s.i)
}

// initializerBrace reports whether the brace at the current token opens an
// initializer list or lambda body rather than a block.
func (s *scan) initializerBrace(start int) bool {
	if s.i == start {
		return false
	}
	switch s.toks[s.i-1].text {
	case "=", ",", "(", "return", "->", "[", "]", "{":
		return true
	}
	return false
}

// skipBraces moves past a balanced {...} group starting at the current token.
func (s *scan) skipBraces() {
	depth := 0
	for ; !s.eof(); s.i++ {
		switch s.toks[s.i].text {
		case "{":
			depth++
		case "}":
			depth--
			if depth == 0 {
				s.i++
				return
			}
		}
	}
}

var typeKeywords = map[string]bool{
	"class": true, "struct": true, "interface": true, "enum": true,
	"namespace": true, "union": true, "record": true,
}

// header turns the tokens [start, brace) followed by a block into a type
// body, a function definition or a generic block.
func (s *scan) header(start, brace int) model.Stmt {
	for i := start; i < brace; i++ {
		if t := s.toks[i]; t.kind == tokIdent && typeKeywords[t.text] {
			name := ""
			if i+1 < brace && s.toks[i+1].kind == tokIdent {
				name = s.toks[i+1].text
			}
			s.i = brace + 1
			body := s.block(false)
			s.accept("}")
			s.accept(";")
			b := s.blockOf(start, t.text, body)
			b.Name = name
			return b
		}
	}

	if fn := s.funcHeader(start, brace); fn != nil {
		s.i = brace + 1
		fn.Body = s.block(false)
		s.accept("}")
		fn.NodeMeta = s.meta(start, s.i)
		return fn
	}

	name := s.text(start, brace)
	s.i = brace + 1
	body := s.block(false)
	s.accept("}")
	b := s.blockOf(start, "block", body)
	b.Name = name
	return b
}

var notFunctionNames = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"synchronized": true, "return": true, "new": true, "sizeof": true,
}

// funcHeader recognizes "T name(params) ... {" and returns the function
// without body.
func (s *scan) funcHeader(start, brace int) *model.FunctionDef {
	open := -1
	for i := start; i < brace; i++ {
		if s.toks[i].text == "(" && s.toks[i].kind == tokOp {
			open = i
			break
		}
	}
	if open <= start {
		return nil
	}
	nameTok := s.toks[open-1]
	if nameTok.kind != tokIdent || notFunctionNames[nameTok.text] {
		return nil
	}
	closeIdx := -1
	depth := 0
	for i := open; i < brace; i++ {
		switch s.toks[i].text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				closeIdx = i
			}
		}
		if closeIdx >= 0 {
			break
		}
	}
	if closeIdx < 0 {
		return nil
	}
	fn := &model.FunctionDef{Name: nameTok.text}
	if open-2 >= start && s.toks[open-2].text == "::" && open-3 >= start {
		fn.Receiver = s.toks[open-3].text
	}
	for _, part := range splitTop(s.toks, open+1, closeIdx, ",") {
		if p, ok := s.param(part[0], part[1]); ok {
			fn.Params = append(fn.Params, p)
		}
	}
	return fn
}

// param parses "T name" (optionally with a default value or array suffix).
func (s *scan) param(from, to int) (model.Param, bool) {
	for i := from; i < to; i++ {
		if s.toks[i].text == "=" {
			to = i
			break
		}
	}
	nameIdx := -1
	for i := to - 1; i >= from; i-- {
		if s.toks[i].kind == tokIdent {
			nameIdx = i
			break
		}
	}
	if nameIdx <= from {
		return model.Param{}, false
	}
	typ := s.text(from, nameIdx)
	if nameIdx+1 < to {
		typ += s.text(nameIdx+1, to)
	}
	return model.Param{Name: s.toks[nameIdx].text, Type: strings.TrimSpace(typ)}, true
}

// simpleFrom classifies the tokens [from, to) of one statement.
func (s *scan) simpleFrom(from, to int) model.Stmt {
	if to <= from {
		return nil
	}
	meta := s.meta(from, to)

	if st := s.incDec(from, to); st != nil {
		return st
	}
	if decls := s.declaration(from, to); len(decls) > 0 {
		if len(decls) == 1 {
			return decls[0]
		}
		return &model.Block{NodeMeta: meta, Kind: "declarations", Body: decls}
	}
	depth := 0
	for i := from; i < to; i++ {
		t := s.toks[i]
		switch t.text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		}
		if depth != 0 || t.kind != tokOp || !isAssignOp(t.text) {
			continue
		}
		a := &model.Assignment{NodeMeta: meta, Op: t.text}
		if i == from+1 && s.toks[from].kind == tokIdent {
			a.Target = s.toks[from].text
		} else {
			a.Dest = s.expr(from, i)
		}
		a.Value = s.expr(i+1, to)
		if t.text != "=" {
			left := s.expr(from, i)
			a.Value = &model.BinaryOp{NodeMeta: meta, Op: strings.TrimSuffix(t.text, "="), Left: left, Right: a.Value}
		}
		return a
	}
	return &model.ExprStmt{NodeMeta: meta, X: s.expr(from, to)}
}

func isAssignOp(op string) bool {
	switch op {
	case "=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=", ">>>=":
		return true
	}
	return false
}

func (s *scan) incDec(from, to int) model.Stmt {
	if to-from != 2 {
		return nil
	}
	a, b := s.toks[from], s.toks[from+1]
	var name, op string
	switch {
	case a.kind == tokIdent && (b.text == "++" || b.text == "--"):
		name, op = a.text, b.text
	case b.kind == tokIdent && (a.text == "++" || a.text == "--"):
		name, op = b.text, a.text
	default:
		return nil
	}
	meta := s.meta(from, to)
	binOp := op[:1]
	return &model.Assignment{
		NodeMeta: meta,
		Target:   name,
		Op:       op,
		Value: &model.BinaryOp{
			NodeMeta: meta,
			Op:       binOp,
			Left:     &model.Identifier{NodeMeta: meta, Name: name},
			Right:    &model.Literal{NodeMeta: meta, Kind: model.Number, Value: "1"},
		},
	}
}

var notTypeNames = map[string]bool{
	"return": true, "delete": true, "new": true, "throw": true, "case": true,
	"goto": true, "else": true, "sizeof": true, "typeof": true, "assert": true,
	"yield": true, "co_return": true, "co_yield": true, "co_await": true,
	"instanceof": true, "this": true, "super": true, "true": true, "false": true,
	"null": true, "nullptr": true,
}

// declaration recognizes "T a [= v], b [= w]" and returns one Declaration
// per declarator.
func (s *scan) declaration(from, to int) []model.Stmt {
	nameIdx := -1
	angle := 0
	for i := from; i < to; i++ {
		t := s.toks[i]
		if t.kind == tokIdent && i > from && angle == 0 {
			next := ""
			if i+1 < to {
				next = s.toks[i+1].text
			}
			switch next {
			case "", "=", ",", "[", "(", "{":
				if s.isType(from, i) {
					nameIdx = i
				}
			}
			if nameIdx >= 0 {
				break
			}
		}
		switch t.text {
		case "<":
			angle++
		case ">":
			angle--
		case ">>":
			angle -= 2
		}
		if !typeToken(t) {
			return nil
		}
	}
	if nameIdx < 0 {
		return nil
	}

	typeEnd := nameIdx
	// int *p, *q: the pointer belongs to the declarator.
	for typeEnd > from && (s.toks[typeEnd-1].text == "*" || s.toks[typeEnd-1].text == "&") && typeEnd-1 > from {
		typeEnd--
	}
	typ := strings.Join(strings.Fields(s.text(from, typeEnd)), " ")

	var out []model.Stmt
	for _, part := range splitTop(s.toks, typeEnd, to, ",") {
		if d := s.declarator(typ, part[0], part[1]); d != nil {
			out = append(out, d)
		}
	}
	return out
}

// isType reports whether toks[from:to] can be a type.
func (s *scan) isType(from, to int) bool {
	hasIdent := false
	angle := 0
	for i := from; i < to; i++ {
		t := s.toks[i]
		if t.kind == tokIdent {
			if notTypeNames[t.text] {
				return false
			}
			hasIdent = true
		}
		switch t.text {
		case "<":
			angle++
		case ">":
			angle--
		case ">>":
			angle -= 2
		}
	}
	if !hasIdent || angle != 0 {
		return false
	}
	switch last := s.toks[to-1]; last.text {
	case ".", "::", ",", "<":
		return false
	}
	return true
}

func typeToken(t tok) bool {
	if t.kind == tokIdent {
		return true
	}
	switch t.text {
	case "::", "<", ">", ">>", ",", "[", "]", "*", "&", ".", "?":
		return true
	}
	return false
}

var collectionTypes = map[string]bool{
	"vector": true, "list": true, "deque": true, "set": true, "map": true,
	"unordered_map": true, "unordered_set": true, "multiset": true, "multimap": true,
	"queue": true, "stack": true, "priority_queue": true, "array": true,
	"ArrayList": true, "LinkedList": true, "List": true, "HashMap": true,
	"TreeMap": true, "LinkedHashMap": true, "Map": true, "HashSet": true,
	"TreeSet": true, "LinkedHashSet": true, "Set": true, "ArrayDeque": true,
	"Deque": true, "Queue": true, "Stack": true, "PriorityQueue": true, "Vector": true,
}

// isCollectionType reports whether a type names an array or a standard
// container.
func isCollectionType(typ string) bool {
	if strings.Contains(typ, "[") {
		return true
	}
	base := typ
	if i := strings.IndexByte(base, '<'); i >= 0 {
		base = base[:i]
	}
	if i := strings.LastIndexAny(base, ":."); i >= 0 {
		base = base[i+1:]
	}
	return collectionTypes[strings.TrimSpace(base)]
}

// declarator parses one "[*]name [\[n\]] [= v | (args) | {init}]".
func (s *scan) declarator(typ string, from, to int) model.Stmt {
	i := from
	for i < to && (s.toks[i].text == "*" || s.toks[i].text == "&") {
		typ += s.toks[i].text
		i++
	}
	if i >= to || s.toks[i].kind != tokIdent {
		return nil
	}
	d := &model.Declaration{NodeMeta: s.meta(from, to), Name: s.toks[i].text, Type: typ}
	i++
	var size model.Expr
	for i < to && s.toks[i].text == "[" {
		open := i
		for i < to && s.toks[i].text != "]" {
			i++
		}
		d.Type += "[]"
		if e := s.expr(open+1, i); e != nil && size == nil {
			size = e
		}
		i++
	}
	switch {
	case i < to && s.toks[i].text == "=":
		d.Value = s.expr(i+1, to)
	case i < to && (s.toks[i].text == "(" || s.toks[i].text == "{"):
		args := s.args(i, to)
		switch {
		case isCollectionType(d.Type) && s.toks[i].text == "{":
			d.Value = &model.Collection{NodeMeta: s.meta(i, to), Kind: model.CollectionLiteral, Type: d.Type, Elems: args}
		case isCollectionType(d.Type):
			col := &model.Collection{NodeMeta: s.meta(i, to), Kind: model.CollectionAlloc, Type: d.Type}
			if len(args) > 0 {
				col.Size = args[0]
			}
			d.Value = col
		default:
			d.Value = &model.Call{NodeMeta: s.meta(i, to), Callee: d.Type, Args: args}
		}
	case size != nil:
		d.Value = &model.Collection{NodeMeta: d.NodeMeta, Kind: model.CollectionAlloc, Type: d.Type, Size: size}
	}
	return d
}

// args parses the comma separated expressions inside the group at open.
func (s *scan) args(open, to int) []model.Expr {
	closeText := ")"
	if s.toks[open].text == "{" {
		closeText = "}"
	}
	end := to
	if end > open+1 && s.toks[end-1].text == closeText {
		end--
	}
	var out []model.Expr
	if end <= open+1 {
		return nil
	}
	for _, part := range splitTop(s.toks, open+1, end, ",") {
		if e := s.expr(part[0], part[1]); e != nil {
			out = append(out, e)
		}
	}
	return out
}
