package detect

import (
	"regexp"
	"sort"
	"strings"

	"github.com/tenntenn/codelens/backend/model"
)

// nullEvent records that a name became possibly null or definitely set.
type nullEvent struct {
	offset   int
	nullable bool
}

// nullDereference flags method-style calls on receivers that may be null at
// that point and are not checked anywhere before the call.
func nullDereference(in *Input) []model.Finding {
	p := in.Program
	if p == nil {
		return nil
	}
	events := map[string][]nullEvent{}
	record := func(name string, offset int, nullable bool) {
		events[name] = append(events[name], nullEvent{offset: offset, nullable: nullable})
	}

	type call struct {
		name string
		pos  model.Position
	}
	var calls []call

	p.InspectAll(func(n model.Node) bool {
		switch n := n.(type) {
		case *model.Declaration:
			nullable := isNull(n.Value) || (n.Value == nil && nullableType(in.Language, n.Type))
			record(n.Name, n.Span().Start.Offset, nullable)
		case *model.Assignment:
			if n.Target != "" && (n.Op == "=" || n.Op == ":=") {
				record(n.Target, n.Span().Start.Offset, isNull(n.Value))
			}
		case *model.FunctionDef:
			for _, prm := range n.Params {
				if prm.Name != "" && nullableParam(in.Language, prm.Type) {
					record(prm.Name, n.Span().Start.Offset, true)
				}
			}
		case *model.Call:
			id, ok := n.Recv.(*model.Identifier)
			if !ok {
				return true
			}
			if in.Language == model.Cpp && !n.Arrow {
				return true
			}
			calls = append(calls, call{name: id.Name, pos: id.Span().Start})
		}
		return true
	})

	var out []model.Finding
	reported := map[string]bool{}
	checks := map[string]*regexp.Regexp{}
	for _, c := range calls {
		if reported[c.name] || !nullableAt(events[c.name], c.pos.Offset) {
			continue
		}
		check, ok := checks[c.name]
		if !ok {
			check = nullCheck(c.name)
			checks[c.name] = check
		}
		if guarded(in.Source, check, c.pos.Offset) {
			continue
		}
		reported[c.name] = true
		out = append(out, at(c.pos, "Potential null pointer dereference: "+c.name))
	}
	return out
}

// nullableAt reports whether the last event before offset left the name
// possibly null.
func nullableAt(evs []nullEvent, offset int) bool {
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].offset < evs[j].offset })
	nullable := false
	for _, e := range evs {
		if e.offset >= offset {
			break
		}
		nullable = e.nullable
	}
	return nullable
}

func isNull(e model.Expr) bool {
	lit, ok := e.(*model.Literal)
	return ok && lit.Kind == model.Null
}

func nullableType(lang model.Language, typ string) bool {
	typ = strings.TrimSpace(typ)
	if typ == "" {
		return false
	}
	switch lang {
	case model.Go:
		return strings.HasPrefix(typ, "*") || strings.HasPrefix(typ, "interface") ||
			typ == "any" || typ == "error"
	case model.Java:
		return !isPrimitive(typ) && typ != "var"
	case model.Cpp:
		return strings.Contains(typ, "*")
	}
	return false
}

func nullableParam(lang model.Language, typ string) bool {
	if lang == model.Go {
		return false
	}
	return nullableType(lang, typ)
}

const nullWords = `(?:nil|null|nullptr|NULL)`

// nullCheck matches a null check of name.
func nullCheck(name string) *regexp.Regexp {
	n := regexp.QuoteMeta(name)
	return regexp.MustCompile(
		`\b` + n + `\s*[!=]=\s*` + nullWords + `\b` +
			`|\b` + nullWords + `\s*[!=]=\s*` + n + `\b` +
			`|\bif\s*\(\s*!?\s*` + n + `\s*(?:\)|&&|\|\|)` +
			`|requireNonNull\s*\(\s*` + n + `\b`)
}

// guarded reports whether check matches the source before offset.
func guarded(src string, check *regexp.Regexp, offset int) bool {
	if offset > len(src) {
		offset = len(src)
	}
	return check.MatchString(src[:offset])
}
