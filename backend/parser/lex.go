package parser

import (
	"strings"

	"github.com/tenntenn/codelens/backend/model"
)

type tokKind int

const (
	tokIdent tokKind = iota
	tokNumber
	tokString
	tokChar
	tokOp
)

// tok is a lexical token of a C-family snippet.
type tok struct {
	kind tokKind
	text string
	pos  model.Position
	end  model.Position
}

// operators sorted longest first so the lexer can take the longest match.
var operators = []string{
	">>>=",
	"<<=", ">>=", ">>>", "...", "->*",
	"::", "->", "++", "--", "==", "!=", "<=", ">=", "&&", "||",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>",
}

// lexer tokenizes C++ and Java source. Comments and preprocessor directives
// are skipped; unterminated literals end at the end of their line.
type lexer struct {
	src  string
	off  int
	line int
	col  int
	toks []tok
}

func lex(src string) []tok {
	l := &lexer{src: src, line: 1, col: 1}
	l.run()
	return l.toks
}

func (l *lexer) position() model.Position {
	return model.Position{Line: l.line, Column: l.col, Offset: l.off}
}

func (l *lexer) advance(n int) {
	for i := 0; i < n && l.off < len(l.src); i++ {
		if l.src[l.off] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.off++
	}
}

func (l *lexer) peekAt(i int) byte {
	if l.off+i < len(l.src) {
		return l.src[l.off+i]
	}
	return 0
}

func (l *lexer) atLineStart() bool {
	for i := l.off - 1; i >= 0; i-- {
		switch l.src[i] {
		case ' ', '\t', '\r':
			continue
		case '\n':
			return true
		}
		return false
	}
	return true
}

func (l *lexer) emit(kind tokKind, start model.Position) {
	l.toks = append(l.toks, tok{kind: kind, text: l.src[start.Offset:l.off], pos: start, end: l.position()})
}

func (l *lexer) run() {
	for l.off < len(l.src) {
		c := l.src[l.off]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v':
			l.advance(1)

		case c == '#' && l.atLineStart():
			l.skipDirective()

		case c == '/' && l.peekAt(1) == '/':
			l.skipLine()

		case c == '/' && l.peekAt(1) == '*':
			l.advance(2)
			for l.off < len(l.src) && !(l.src[l.off] == '*' && l.peekAt(1) == '/') {
				l.advance(1)
			}
			l.advance(2)

		case c == '"':
			start := l.position()
			if strings.HasPrefix(l.src[l.off:], `"""`) {
				l.advance(3)
				if end := strings.Index(l.src[l.off:], `"""`); end >= 0 {
					l.advance(end + 3)
				} else {
					l.advance(len(l.src))
				}
			} else {
				l.quoted('"')
			}
			l.emit(tokString, start)

		case c == '\'':
			start := l.position()
			l.quoted('\'')
			l.emit(tokChar, start)

		case isDigit(c) || (c == '.' && isDigit(l.peekAt(1))):
			start := l.position()
			l.number()
			l.emit(tokNumber, start)

		case isIdentStart(c):
			start := l.position()
			for l.off < len(l.src) && isIdentPart(l.src[l.off]) {
				l.advance(1)
			}
			l.emit(tokIdent, start)

		default:
			start := l.position()
			n := 1
			for _, op := range operators {
				if strings.HasPrefix(l.src[l.off:], op) {
					n = len(op)
					break
				}
			}
			l.advance(n)
			l.emit(tokOp, start)
		}
	}
}

func (l *lexer) skipLine() {
	for l.off < len(l.src) && l.src[l.off] != '\n' {
		l.advance(1)
	}
}

func (l *lexer) skipDirective() {
	for l.off < len(l.src) {
		if l.src[l.off] == '\\' && l.peekAt(1) == '\n' {
			l.advance(2)
			continue
		}
		if l.src[l.off] == '\n' {
			return
		}
		l.advance(1)
	}
}

// quoted consumes a string or char literal delimited by q.
func (l *lexer) quoted(q byte) {
	l.advance(1)
	for l.off < len(l.src) {
		switch l.src[l.off] {
		case '\\':
			if l.peekAt(1) == '\n' {
				l.advance(1)
				return
			}
			l.advance(2)
			continue
		case '\n':
			return
		case q:
			l.advance(1)
			return
		}
		l.advance(1)
	}
}

func (l *lexer) number() {
	for l.off < len(l.src) {
		c := l.src[l.off]
		switch {
		case isIdentPart(c) || c == '.':
			l.advance(1)
		case c == '\'' && isIdentPart(l.peekAt(1)):
			// C++14 digit separator
			l.advance(1)
		case (c == '+' || c == '-') && l.off > 0 && strings.ContainsRune("eEpP", rune(l.src[l.off-1])) && !isHexPrefixed(l.src, l.off):
			l.advance(1)
		default:
			return
		}
	}
}

// isHexPrefixed reports whether the number ending before off is a hex literal
// whose 'e' is a digit rather than an exponent marker.
func isHexPrefixed(src string, off int) bool {
	i := off - 1
	for i >= 0 && (isIdentPart(src[i]) || src[i] == '.') {
		i--
	}
	num := strings.ToLower(src[i+1 : off])
	return strings.HasPrefix(num, "0x") && !strings.ContainsRune(num, 'p')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

var controlKeywords = []string{
	"if", "else", "while", "for", "do", "switch", "case", "default",
	"try", "catch", "finally", "class", "struct", "namespace", "interface",
	"enum", "template", "public:", "private:", "protected:",
}

// classifyLines classifies each line of src as structural noise or a
// statement line.
func classifyLines(src string) []model.Line {
	raw := strings.Split(src, "\n")
	lines := make([]model.Line, 0, len(raw))
	inComment := false
	for i, text := range raw {
		trimmed := strings.TrimSpace(text)
		kind := model.LineStatement
		switch {
		case inComment:
			kind = model.LineComment
			if strings.Contains(trimmed, "*/") {
				inComment = false
			}
		case trimmed == "":
			kind = model.LineBlank
		case strings.Trim(trimmed, "{}; ") == "":
			kind = model.LineBrace
		case strings.HasPrefix(trimmed, "#"):
			kind = model.LineDirective
		case strings.HasPrefix(trimmed, "//"):
			kind = model.LineComment
		case strings.HasPrefix(trimmed, "/*"):
			kind = model.LineComment
			inComment = !strings.Contains(trimmed, "*/")
		case hasControlPrefix(trimmed):
			kind = model.LineControl
		}
		lines = append(lines, model.Line{Number: i + 1, Kind: kind, Text: text})
	}
	return lines
}

func hasControlPrefix(line string) bool {
	for _, kw := range controlKeywords {
		if !strings.HasPrefix(line, kw) {
			continue
		}
		rest := line[len(kw):]
		if rest == "" || !isIdentPart(rest[0]) {
			return true
		}
	}
	// declarations with modifiers before the type keyword
	fields := strings.Fields(line)
	for _, f := range fields {
		switch f {
		case "class", "interface", "enum", "struct":
			return true
		}
	}
	return false
}

// Token is a lexical token of a C++ or Java snippet.
type Token struct {
	Text string
	Pos  model.Position
	End  model.Position
	// Literal is set for string and character literals.
	Literal bool
	Ident   bool
}

// Tokens tokenizes a C++ or Java snippet. Comments and preprocessor
// directives are not part of the result.
func Tokens(src string) []Token {
	toks := lex(src)
	out := make([]Token, len(toks))
	for i, t := range toks {
		out[i] = Token{
			Text:    t.text,
			Pos:     t.pos,
			End:     t.end,
			Literal: t.kind == tokString || t.kind == tokChar,
			Ident:   t.kind == tokIdent,
		}
	}
	return out
}
