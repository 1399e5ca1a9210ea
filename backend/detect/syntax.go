package detect

import (
	"regexp"
	"strings"

	"github.com/tenntenn/codelens/backend/model"
	"github.com/tenntenn/codelens/backend/parser"
)

var braceLanguages = []model.Language{model.Cpp, model.Java}

// SyntaxDetectors returns the built-in syntax detectors in report order.
func SyntaxDetectors() []Detector {
	return []Detector{
		{
			Name:        "parse-error",
			Category:    model.Syntax,
			Severity:    model.SeverityError,
			Description: "The Go parser rejected the snippet.",
			Languages:   []model.Language{model.Go},
			Run:         parseError,
		},
		{
			Name:        "missing-semicolon",
			Category:    model.Syntax,
			Severity:    model.SeverityError,
			Description: "A statement line does not end with a semicolon.",
			Languages:   braceLanguages,
			Run:         missingSemicolon,
		},
		{
			Name:        "unmatched-braces",
			Category:    model.Syntax,
			Severity:    model.SeverityError,
			Description: "Opening and closing braces do not match.",
			Languages:   braceLanguages,
			Run:         unmatched("{", "}", "Unmatched braces detected"),
		},
		{
			Name:        "unmatched-parens",
			Category:    model.Syntax,
			Severity:    model.SeverityError,
			Description: "Opening and closing parentheses do not match.",
			Languages:   braceLanguages,
			Run:         unmatched("(", ")", "Unmatched parentheses detected"),
		},
		{
			Name:        "unterminated-string",
			Category:    model.Syntax,
			Severity:    model.SeverityError,
			Description: "A line holds an odd number of double quotes.",
			Languages:   braceLanguages,
			Run:         unterminatedString,
		},
		{
			Name:        "missing-include",
			Category:    model.Syntax,
			Severity:    model.SeverityError,
			Description: "Standard streams are used without including <iostream>.",
			Languages:   []model.Language{model.Cpp},
			Run:         missingInclude,
		},
		{
			Name:        "missing-class",
			Category:    model.Syntax,
			Severity:    model.SeverityError,
			Description: "Console output is used outside of a class declaration.",
			Languages:   []model.Language{model.Java},
			Run:         missingClass,
		},
	}
}

func parseError(in *Input) []model.Finding {
	if in.ParseErr == nil {
		return nil
	}
	return []model.Finding{at(in.ParseErr.Location, "Syntax Error: "+in.ParseErr.Message)}
}

// missingSemicolon flags statement lines that do not end a statement.
// Lines continuing an open parenthesis, followed by a continuation line or
// ending in a token that cannot end a statement are left alone.
func missingSemicolon(in *Input) []model.Finding {
	if in.Program == nil {
		return nil
	}
	lines := in.Program.Lines
	codes := make([]string, len(lines))
	for i, l := range lines {
		if l.Kind == model.LineStatement || l.Kind == model.LineControl || l.Kind == model.LineBrace {
			codes[i] = codePart(l.Text)
		}
	}

	var out []model.Finding
	depth := 0
	inTextBlock := false
	for i, l := range lines {
		code := codes[i]
		depth = max(0, depth+strings.Count(code, "(")-strings.Count(code, ")"))
		if strings.Count(l.Text, `"""`)%2 == 1 {
			inTextBlock = !inTextBlock
			continue
		}
		if inTextBlock || l.Kind != model.LineStatement || code == "" {
			continue
		}
		if depth > 0 || endsStatementOrContinues(code) || returnWord.MatchString(code) {
			continue
		}
		if strings.HasPrefix(code, "@") || (i > 0 && strings.HasSuffix(strings.TrimSpace(lines[i-1].Text), `\`)) {
			continue
		}
		next := nextCode(codes, i)
		if continuesLine(next) {
			continue
		}
		if strings.HasPrefix(next, "}") && i > 0 && strings.HasSuffix(prevCode(codes, i), ",") {
			// last element of a multi-line initializer or enum body
			continue
		}
		indent := len(l.Text) - len(strings.TrimLeft(l.Text, " \t"))
		out = append(out, at(model.Position{Line: l.Number, Column: indent + len(code) + 1}, "Missing semicolon"))
	}
	return out
}

func endsStatementOrContinues(code string) bool {
	last := code[len(code)-1]
	return strings.IndexByte("{};:,([+-*/%=&|<>!?.^~\\", last) >= 0
}

// continuesLine reports whether a line starting with next continues the
// previous line.
func continuesLine(next string) bool {
	for _, p := range []string{"{", ".", "->", "+", "-", "*", "/", "%", "&&", "||", "?", ":", "<<", ">>", "=", ")", ","} {
		if strings.HasPrefix(next, p) && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/*") {
			return true
		}
	}
	return false
}

func nextCode(codes []string, i int) string {
	for j := i + 1; j < len(codes); j++ {
		if codes[j] != "" {
			return codes[j]
		}
	}
	return ""
}

func prevCode(codes []string, i int) string {
	for j := i - 1; j >= 0; j-- {
		if codes[j] != "" {
			return codes[j]
		}
	}
	return ""
}

// codePart returns line without a trailing comment and surrounding space.
func codePart(line string) string {
	inStr, inChar := false, false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && (inStr || inChar):
			i++
		case c == '"' && !inChar:
			inStr = !inStr
		case c == '\'' && !inStr:
			inChar = !inChar
		case !inStr && !inChar && c == '/' && i+1 < len(line) && line[i+1] == '/':
			return strings.TrimSpace(line[:i])
		case !inStr && !inChar && c == '/' && i+1 < len(line) && line[i+1] == '*':
			if end := strings.Index(line[i+2:], "*/"); end >= 0 {
				return codePart(line[:i] + line[i+2+end+2:])
			}
			return strings.TrimSpace(line[:i])
		}
	}
	return strings.TrimSpace(line)
}

var returnWord = regexp.MustCompile(`\breturn\b`)

// unmatched reports the first unmatched open or close token.
func unmatched(open, closing, msg string) func(in *Input) []model.Finding {
	return func(in *Input) []model.Finding {
		var stack []model.Position
		var stray *model.Position
		for _, t := range parser.Tokens(in.Source) {
			if t.Literal {
				continue
			}
			switch t.Text {
			case open:
				stack = append(stack, t.Pos)
			case closing:
				if len(stack) == 0 {
					if stray == nil {
						pos := t.Pos
						stray = &pos
					}
					continue
				}
				stack = stack[:len(stack)-1]
			}
		}
		switch {
		case stray == nil && len(stack) == 0:
			return nil
		case stray == nil:
			return []model.Finding{at(stack[0], msg)}
		case len(stack) == 0 || stray.Offset < stack[0].Offset:
			return []model.Finding{at(*stray, msg)}
		}
		return []model.Finding{at(stack[0], msg)}
	}
}

func unterminatedString(in *Input) []model.Finding {
	if in.Program == nil {
		return nil
	}
	var out []model.Finding
	inTextBlock := false
	for _, l := range in.Program.Lines {
		if strings.Count(l.Text, `"""`)%2 == 1 {
			inTextBlock = !inTextBlock
			continue
		}
		if inTextBlock || l.Kind == model.LineComment || l.Kind == model.LineDirective {
			continue
		}
		if col, ok := oddQuote(l.Text); ok {
			out = append(out, at(model.Position{Line: l.Number, Column: col}, "Unterminated string literal detected"))
		}
	}
	return out
}

// oddQuote counts unescaped double quotes outside character literals and
// comments. It returns the column of the last quote when the count is odd.
func oddQuote(line string) (int, bool) {
	count, last := 0, 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\':
			i++
		case c == '"':
			count++
			last = i + 1
		case c == '\'' && count%2 == 0:
			// skip a character literal such as '"'
			if j := strings.IndexByte(line[i+1:], '\''); j >= 0 && j <= 2 {
				i += j + 1
			}
		case c == '/' && count%2 == 0 && i+1 < len(line) && line[i+1] == '/':
			return last, count%2 == 1
		}
	}
	return last, count%2 == 1
}

var iostreamInclude = regexp.MustCompile(`(?m)^\s*#\s*include\s*<(iostream|bits/stdc\+\+\.h)>`)

func missingInclude(in *Input) []model.Finding {
	if iostreamInclude.MatchString(in.Source) {
		return nil
	}
	for _, t := range parser.Tokens(in.Source) {
		if !t.Ident {
			continue
		}
		switch t.Text {
		case "cout", "cin", "cerr", "clog":
			return []model.Finding{at(t.Pos, "Missing iostream include")}
		}
	}
	return nil
}

func missingClass(in *Input) []model.Finding {
	if in.Program == nil {
		return nil
	}
	toks := parser.Tokens(in.Source)
	var use *model.Position
	for i := 0; i+4 < len(toks); i++ {
		if toks[i].Text == "System" && toks[i+1].Text == "." && toks[i+2].Text == "out" &&
			toks[i+3].Text == "." && strings.HasPrefix(toks[i+4].Text, "print") {
			pos := toks[i].Pos
			use = &pos
			break
		}
	}
	if use == nil {
		return nil
	}
	hasClass := false
	in.Program.InspectAll(func(n model.Node) bool {
		if b, ok := n.(*model.Block); ok {
			switch b.Kind {
			case "class", "interface", "enum", "record":
				hasClass = true
			}
		}
		return !hasClass
	})
	if hasClass {
		return nil
	}
	return []model.Finding{at(*use, "Missing class declaration")}
}
