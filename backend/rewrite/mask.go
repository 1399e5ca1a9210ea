package rewrite

import (
	"regexp"
	"strconv"
	"strings"
)

type segmentKind int

const (
	segString segmentKind = iota
	segTextBlock
	segChar
	segComment
)

type segment struct {
	kind segmentKind
	text string
}

// masked is source text whose literals and comments are replaced by
// placeholders of the form \x00N\x00, so text rules cannot see into them.
type masked struct {
	text     string
	segments []segment
}

var placeholder = regexp.MustCompile("\x00([0-9]+)\x00")

func (m *masked) add(kind segmentKind, text string) string {
	m.segments = append(m.segments, segment{kind: kind, text: text})
	return "\x00" + strconv.Itoa(len(m.segments)-1) + "\x00"
}

// mask hides string and character literals and comments of C++ or Java
// source.
func mask(src string) *masked {
	m := &masked{}
	var b strings.Builder
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src) - i
			}
			b.WriteString(m.add(segComment, src[i:i+end]))
			i += end
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			n := len(src) - i
			if end >= 0 {
				n = end + 4
			}
			b.WriteString(m.add(segComment, src[i:i+n]))
			i += n
		case strings.HasPrefix(src[i:], `"""`):
			end := strings.Index(src[i+3:], `"""`)
			n := len(src) - i
			if end >= 0 {
				n = end + 6
			}
			b.WriteString(m.add(segTextBlock, src[i:i+n]))
			i += n
		case c == 'R' && strings.HasPrefix(src[i:], `R"`) && (i == 0 || !isWordByte(src[i-1])):
			n := rawStringLen(src[i:])
			b.WriteString(m.add(segTextBlock, src[i:i+n]))
			i += n
		case c == '\'' && i > 0 && isDigitByte(src[i-1]) && i+1 < len(src) && isWordByte(src[i+1]):
			// digit separator
			b.WriteByte(c)
			i++
		case c == '"' || c == '\'':
			n := quotedLen(src[i:])
			kind := segString
			if c == '\'' {
				kind = segChar
			}
			b.WriteString(m.add(kind, src[i:i+n]))
			i += n
		default:
			b.WriteByte(c)
			i++
		}
	}
	m.text = b.String()
	return m
}

// quotedLen returns the length of the literal at the start of s. An
// unterminated literal ends at the end of the line.
func quotedLen(s string) int {
	q := s[0]
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '\n':
			return i
		case q:
			return i + 1
		}
	}
	return len(s)
}

// rawStringLen returns the length of a C++ raw string R"delim(...)delim".
func rawStringLen(s string) int {
	open := strings.IndexByte(s, '(')
	if open < 0 || open > 18 {
		return quotedLen(s[1:]) + 1
	}
	delim := ")" + s[2:open] + `"`
	end := strings.Index(s[open:], delim)
	if end < 0 {
		return len(s)
	}
	return open + end + len(delim)
}

func isWordByte(c byte) bool {
	return c == '_' || isDigitByte(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }

// restore puts the hidden text back into s.
func (m *masked) restore(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(p string) string {
		i, err := strconv.Atoi(p[1 : len(p)-1])
		if err != nil || i >= len(m.segments) {
			return p
		}
		return m.segments[i].text
	})
}

// segmentAt returns the segment of a placeholder string.
func (m *masked) segmentAt(p string) (segment, bool) {
	sub := placeholder.FindStringSubmatch(p)
	if sub == nil {
		return segment{}, false
	}
	i, err := strconv.Atoi(sub[1])
	if err != nil || i >= len(m.segments) {
		return segment{}, false
	}
	return m.segments[i], true
}
