package detect

import (
	"strings"

	"github.com/tenntenn/codelens/backend/model"
)

// LogicDetectors returns the built-in logic detectors in report order.
func LogicDetectors() []Detector {
	return []Detector{
		{
			Name:        "infinite-loop",
			Category:    model.Logic,
			Severity:    model.SeverityWarning,
			Description: "A loop with a constant-true condition has no exit.",
			Run:         infiniteLoop,
		},
		{
			Name:        "unused-variable",
			Category:    model.Logic,
			Severity:    model.SeverityWarning,
			Description: "A value is assigned to a name that is never read afterwards.",
			Languages:   []model.Language{model.Go},
			Run:         unusedVariable,
		},
		{
			Name:        "division-by-zero",
			Category:    model.Logic,
			Severity:    model.SeverityError,
			Description: "A value is divided by the literal zero.",
			Run:         divisionByZero,
		},
		{
			Name:        "uninitialized-variable",
			Category:    model.Logic,
			Severity:    model.SeverityWarning,
			Description: "A primitive variable is declared without an initializer and never initialized.",
			Languages:   braceLanguages,
			Run:         uninitializedVariable,
		},
		{
			Name:        "null-dereference",
			Category:    model.Logic,
			Severity:    model.SeverityWarning,
			Description: "A method is called on a possibly null receiver without a guard.",
			Run:         nullDereference,
		},
	}
}

func infiniteLoop(in *Input) []model.Finding {
	if in.Program == nil {
		return nil
	}
	var out []model.Finding
	in.Program.InspectAll(func(n model.Node) bool {
		loop, ok := n.(*model.Loop)
		if !ok || loop.Kind == model.Range {
			return true
		}
		if loop.Cond != nil && !model.IsTrue(loop.Cond) {
			return true
		}
		if hasExit(loop.Body, true) {
			return true
		}
		header := strings.Join(strings.Fields(loop.Header), " ")
		out = append(out, at(loop.Span().Start, "Infinite loop detected: "+header))
		return true
	})
	return out
}

// hasExit reports whether stmts leave the enclosing loop. A plain break
// only counts at the loop's own level: nested loops and switch statements
// capture it.
func hasExit(stmts []model.Stmt, own bool) bool {
	for _, s := range stmts {
		found := false
		model.Inspect(s, func(n model.Node) bool {
			if found {
				return false
			}
			switch n := n.(type) {
			case *model.Return:
				found = true
			case *model.Branch:
				switch n.Keyword {
				case "goto":
					found = true
				case "break":
					found = own || n.Label != ""
				}
			case *model.Loop:
				found = hasExit(n.Body, false)
				return false
			case *model.Block:
				if n.Kind == "switch" || n.Kind == "select" {
					found = hasExit(n.Body, false)
					return false
				}
			case *model.Call:
				found = isExitCall(n)
			case *model.UnaryOp:
				found = n.Op == "throw"
			case *model.FuncLit:
				return false
			}
			return !found
		})
		if found {
			return true
		}
	}
	return false
}

func isExitCall(c *model.Call) bool {
	if c.Recv == nil {
		switch c.Callee {
		case "panic", "abort", "exit", "_exit", "quick_exit", "std::exit", "std::abort":
			return true
		}
		return false
	}
	id, ok := c.Recv.(*model.Identifier)
	if !ok {
		return false
	}
	return (id.Name == "os" && c.Callee == "Exit") || (id.Name == "System" && c.Callee == "exit")
}

type write struct {
	name  string
	start int
	end   int
	pos   model.Position
}

// unusedVariable flags assignments whose value is never read. A read counts
// when it comes later in the source, or anywhere inside a loop enclosing the
// write.
func unusedVariable(in *Input) []model.Finding {
	p := in.Program
	if p == nil || p.Approximate {
		return nil
	}
	var writes []write
	reads := map[string][]int{}
	var loops []model.Span

	p.InspectAll(func(n model.Node) bool {
		switch n := n.(type) {
		case *model.Assignment:
			if (n.Op == "=" || n.Op == ":=") && n.Target != "" && n.Target != "_" {
				writes = append(writes, writeOf(n.Target, n.Span()))
			}
		case *model.Declaration:
			if n.Value != nil && n.Name != "_" {
				writes = append(writes, writeOf(n.Name, n.Span()))
			}
		case *model.Identifier:
			reads[n.Name] = append(reads[n.Name], n.Span().Start.Offset)
		case *model.Loop:
			loops = append(loops, n.Span())
		}
		return true
	})

	var out []model.Finding
	reported := map[string]bool{}
	for _, w := range writes {
		if reported[w.name] || isRead(w, reads[w.name], loops) {
			continue
		}
		reported[w.name] = true
		out = append(out, at(w.pos, "Unused variable: "+w.name))
	}
	return out
}

func writeOf(name string, sp model.Span) write {
	return write{name: name, start: sp.Start.Offset, end: sp.End.Offset, pos: sp.Start}
}

func isRead(w write, reads []int, loops []model.Span) bool {
	for _, r := range reads {
		// The value of x = x + 1 is read by the next iteration or a later
		// statement, not by its own right-hand side.
		if r >= w.end {
			return true
		}
		for _, l := range loops {
			if l.Start.Offset <= w.start && w.end <= l.End.Offset &&
				l.Start.Offset <= r && r < l.End.Offset {
				return true
			}
		}
	}
	return false
}

func divisionByZero(in *Input) []model.Finding {
	if in.Program == nil {
		return nil
	}
	var out []model.Finding
	in.Program.InspectAll(func(n model.Node) bool {
		if b, ok := n.(*model.BinaryOp); ok && b.Op == "/" && model.IsZero(b.Right) {
			out = append(out, at(b.Right.Span().Start, "Potential division by zero"))
		}
		return true
	})
	return out
}

var primitiveTypes = map[string]bool{
	"int": true, "long": true, "short": true, "char": true, "float": true,
	"double": true, "bool": true, "boolean": true, "byte": true,
	"unsigned": true, "signed": true, "size_t": true, "int8_t": true,
	"int16_t": true, "int32_t": true, "int64_t": true, "uint8_t": true,
	"uint16_t": true, "uint32_t": true, "uint64_t": true,
}

func isPrimitive(typ string) bool {
	fields := strings.Fields(typ)
	if len(fields) == 0 || strings.ContainsAny(typ, "*&[<") {
		return false
	}
	return primitiveTypes[fields[len(fields)-1]]
}

var typeBlocks = map[string]bool{
	"class": true, "struct": true, "interface": true, "enum": true,
	"record": true, "union": true, "namespace": true,
}

// uninitializedVariable flags primitive locals declared without a value and
// never assigned, read into or passed by address anywhere in the snippet.
func uninitializedVariable(in *Input) []model.Finding {
	p := in.Program
	if p == nil {
		return nil
	}
	var decls []*model.Declaration
	initialized := map[string]bool{}

	var visit func(stmts []model.Stmt, inType bool)
	visit = func(stmts []model.Stmt, inType bool) {
		for _, s := range stmts {
			if b, ok := s.(*model.Block); ok && typeBlocks[b.Kind] {
				visit(b.Body, true)
				continue
			}
			model.Inspect(s, func(n model.Node) bool {
				switch n := n.(type) {
				case *model.Declaration:
					if n.Value == nil && !inType && isPrimitive(n.Type) {
						decls = append(decls, n)
					}
				case *model.Assignment:
					if n.Op == "=" && n.Target != "" {
						initialized[n.Target] = true
					}
				case *model.Opaque:
					if n.Kind == "assign" && len(n.Children) > 0 {
						if id, ok := n.Children[0].(*model.Identifier); ok {
							initialized[id.Name] = true
						}
					}
				case *model.BinaryOp:
					// cin >> x
					if id, ok := n.Right.(*model.Identifier); ok && n.Op == ">>" {
						initialized[id.Name] = true
					}
				case *model.UnaryOp:
					// scanf("%d", &x)
					if id, ok := n.X.(*model.Identifier); ok && n.Op == "&" {
						initialized[id.Name] = true
					}
				case *model.FunctionDef:
					visit(n.Body, false)
					return false
				case *model.Block:
					if typeBlocks[n.Kind] {
						visit(n.Body, true)
						return false
					}
				}
				return true
			})
		}
	}
	visit(p.Body, false)

	var out []model.Finding
	reported := map[string]bool{}
	for _, d := range decls {
		if initialized[d.Name] || reported[d.Name] {
			continue
		}
		reported[d.Name] = true
		out = append(out, at(d.Span().Start, "Potential uninitialized variable: "+d.Name))
	}
	return out
}
