package rewrite

import (
	"regexp"
	"strings"

	"github.com/tenntenn/codelens/backend/model"
)

// TextRule is one text rewrite over masked C++ or Java source. Rules see
// literals and comments only as placeholders.
type TextRule struct {
	Name  string
	Apply func(m *masked, text string) string
}

// TextRules returns the rules for lang in application order.
func TextRules(lang model.Language) []TextRule {
	rules := []TextRule{
		{Name: "duplicate-terminators", Apply: collapseTerminators},
		{Name: "blank-lines", Apply: removeBlankLines},
		{Name: "whitespace", Apply: collapseWhitespace},
		{Name: "loop-header", Apply: canonicalizeLoopHeader},
	}
	switch lang {
	case model.Cpp:
		rules = append(rules, TextRule{Name: "brace-init", Apply: braceInit})
	case model.Java:
		rules = append(rules, TextRule{Name: "string-concat", Apply: foldStringConcat})
	}
	return append(rules, TextRule{Name: "redundant-parens", Apply: collapseParens})
}

// rewriteText applies the rules to src once each, in order.
func (e *Engine) rewriteText(src string, lang model.Language) string {
	m := mask(src)
	text := m.text
	for _, r := range TextRules(lang) {
		e.logger.Debug("applying rule", "rule", r.Name)
		text = r.Apply(m, text)
	}
	return m.restore(text)
}

// collapseTerminators turns ";;" (with optional space between) outside
// parentheses into ";". For headers such as for (;;) are left alone.
func collapseTerminators(_ *masked, text string) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ';':
			b.WriteByte(c)
			if depth > 0 {
				continue
			}
			for {
				j := i + 1
				for j < len(text) && isSpace(text[j]) {
					j++
				}
				if j >= len(text) || text[j] != ';' {
					break
				}
				i = j
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func removeBlankLines(_ *masked, text string) string {
	trailing := strings.HasSuffix(text, "\n")
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	s := strings.Join(out, "\n")
	if trailing && s != "" {
		s += "\n"
	}
	return s
}

var innerSpace = regexp.MustCompile(`[ \t]{2,}`)

// collapseWhitespace keeps indentation, collapses runs of blanks inside a
// line into one space and drops trailing blanks.
func collapseWhitespace(_ *masked, text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		body := strings.TrimLeft(l, " \t")
		indent := l[:len(l)-len(body)]
		body = strings.TrimRight(innerSpace.ReplaceAllString(body, " "), " \t\r")
		lines[i] = indent + body
	}
	return strings.Join(lines, "\n")
}

var loopHeader = regexp.MustCompile(`(for\s*\(\s*(?:[\w:]+\s+)?(\w+)\s*=[^;()]*;\s*(\w+)\s*(?:<|<=|>|>=|!=)[^;]*;\s*)(\w+)\+\+(\s*\))`)

// canonicalizeLoopHeader rewrites the post statement of a counting loop
// from i++ to ++i when init, condition and post name the same variable.
func canonicalizeLoopHeader(_ *masked, text string) string {
	return loopHeader.ReplaceAllStringFunc(text, func(s string) string {
		sub := loopHeader.FindStringSubmatch(s)
		if sub[2] != sub[3] || sub[3] != sub[4] {
			return s
		}
		return sub[1] + "++" + sub[4] + sub[5]
	})
}

var zeroInit = regexp.MustCompile(`(?m)^([ \t]*)(int|long|short|unsigned|size_t|double|float|char|bool|auto)([ \t]+)(\w+)[ \t]*=[ \t]*\(*[ \t]*0[ \t]*\)*[ \t]*;`)

// braceInit rewrites "int x = 0;" declarations, with the zero possibly
// parenthesized, into value initialization.
func braceInit(_ *masked, text string) string {
	return zeroInit.ReplaceAllStringFunc(text, func(s string) string {
		sub := zeroInit.FindStringSubmatch(s)
		if sub[2] == "auto" {
			return s
		}
		return sub[1] + sub[2] + sub[3] + sub[4] + "{};"
	})
}

var stringChain = regexp.MustCompile("\x00[0-9]+\x00(?:[ \t]*\\+[ \t]*\x00[0-9]+\x00)+")

// foldStringConcat merges chains of adjacent string literals joined by +.
func foldStringConcat(m *masked, text string) string {
	var b strings.Builder
	last := 0
	for _, loc := range stringChain.FindAllStringIndex(text, -1) {
		start, end := loc[0], loc[1]
		if end < len(text) && (text[end] == '.' || text[end] == '[') {
			// the last literal is the receiver of a call or index
			continue
		}
		parts := placeholder.FindAllString(text[start:end], -1)
		var merged strings.Builder
		ok := true
		for _, p := range parts {
			seg, found := m.segmentAt(p)
			if !found || seg.kind != segString || len(seg.text) < 2 || !strings.HasSuffix(seg.text, `"`) {
				ok = false
				break
			}
			merged.WriteString(seg.text[1 : len(seg.text)-1])
		}
		if !ok {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(m.add(segString, `"`+merged.String()+`"`))
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

// parenPair is a matched pair of parentheses.
type parenPair struct {
	open, close int
	// nested is set when the pair is inside another pair.
	nested bool
}

// matchParens returns the matched parentheses of text keyed by the index of
// the opening one.
func matchParens(text string) map[int]parenPair {
	pairs := map[int]parenPair{}
	var stack []int
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(':
			stack = append(stack, i)
		case ')':
			if len(stack) > 0 {
				open := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				pairs[open] = parenPair{open: open, close: i, nested: len(stack) > 0}
			}
		}
	}
	return pairs
}

func hasTopLevelComma(s string) bool {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				return true
			}
		}
	}
	return false
}

var (
	decltypeBefore = regexp.MustCompile(`decltype\s*$`)
	returnBefore   = regexp.MustCompile(`\breturn\s*$`)
)

// collapseParens removes parentheses that only wrap another parenthesized
// expression, and parentheses around the whole right-hand side of a
// top-level assignment or return statement.
func collapseParens(_ *masked, text string) string {
	pairs := matchParens(text)
	// edits maps an index of text to its replacement.
	edits := map[int]string{}

	for open, p := range pairs {
		inner, ok := pairs[open+1]
		if !ok || inner.close != p.close-1 {
			continue
		}
		if decltypeBefore.MatchString(text[:open]) || hasTopLevelComma(text[open+2:p.close-1]) {
			continue
		}
		edits[open+1], edits[p.close-1] = "", ""
	}

	for open, p := range pairs {
		if _, dropped := edits[open]; dropped || p.nested {
			continue
		}
		content := text[open+1 : p.close]
		if content == "" || content != strings.TrimSpace(content) || hasTopLevelComma(content) {
			continue
		}
		if !strings.HasPrefix(strings.TrimLeft(text[p.close+1:], " \t"), ";") {
			continue
		}
		if !assignedOrReturned(strings.TrimRight(text[:open], " \t")) {
			continue
		}
		edits[open], edits[p.close] = "", ""
		if open > 0 && isWordByte(text[open-1]) {
			// return(x); keeps a space after the keyword
			edits[open] = " "
		}
	}

	if len(edits) == 0 {
		return text
	}
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		if r, ok := edits[i]; ok {
			b.WriteString(r)
			continue
		}
		b.WriteByte(text[i])
	}
	return b.String()
}

// assignedOrReturned reports whether before ends in an assignment operator
// or the return keyword.
func assignedOrReturned(before string) bool {
	if returnBefore.MatchString(before) {
		return true
	}
	if !strings.HasSuffix(before, "=") {
		return false
	}
	rest := before[:len(before)-1]
	if rest == "" || strings.HasSuffix(rest, "operator") {
		return false
	}
	switch rest[len(rest)-1] {
	case '=', '!', '<', '>':
		return false
	}
	return true
}
