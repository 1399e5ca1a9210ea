package parser_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tenntenn/codelens/backend/model"
	"github.com/tenntenn/codelens/backend/parser"
)

func TestParseGoModes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want parser.Mode
	}{
		{
			name: "file",
			src:  "package p\n\nfunc f() {}\n",
			want: parser.FileMode,
		},
		{
			name: "declarations",
			src:  "func f() int {\n\treturn 1\n}\n",
			want: parser.DeclMode,
		},
		{
			name: "statements",
			src:  "x := 1\nx++\n",
			want: parser.StmtMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gs, err := parser.ParseGo(tt.src)
			if err != nil {
				t.Fatalf("ParseGo() error = %v", err)
			}
			if gs.Mode != tt.want {
				t.Errorf("Mode = %v, want %v", gs.Mode, tt.want)
			}
		})
	}
}

func TestParseGoFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      string
		wantLine int
	}{
		{
			name:     "statement",
			src:      "x := 1\ny := (2\n",
			wantLine: 2,
		},
		{
			name:     "declaration",
			src:      "func f() {\n\treturn 1 +\n}\n",
			wantLine: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := parser.ParseGo(tt.src)
			var pf *parser.ParseFailure
			if !errors.As(err, &pf) {
				t.Fatalf("ParseGo() error = %v, want *ParseFailure", err)
			}
			if pf.Location.Line != tt.wantLine {
				t.Errorf("Location.Line = %d, want %d (%s)", pf.Location.Line, tt.wantLine, pf.Message)
			}
			if pf.Message == "" {
				t.Error("Message is empty")
			}
		})
	}
}

func TestBuildGoPositions(t *testing.T) {
	t.Parallel()

	src := "total := 0\nfor i := 0; i < 10; i++ {\n\ttotal += i\n}\n"
	p, err := parser.Build(src, model.Go)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if p.Approximate {
		t.Error("Go model is approximate")
	}
	if len(p.Body) != 2 {
		t.Fatalf("len(Body) = %d, want 2", len(p.Body))
	}
	loop, ok := p.Body[1].(*model.Loop)
	if !ok {
		t.Fatalf("Body[1] is %T, want *model.Loop", p.Body[1])
	}
	if got := loop.Span().Start.Line; got != 2 {
		t.Errorf("loop line = %d, want 2", got)
	}
	if got := loop.Span().Start.Offset; got != len("total := 0\n") {
		t.Errorf("loop offset = %d, want %d", got, len("total := 0\n"))
	}
	if loop.Header != "for i := 0; i < 10; i++" {
		t.Errorf("Header = %q", loop.Header)
	}
	if _, ok := loop.Cond.(*model.BinaryOp); !ok {
		t.Errorf("Cond is %T, want *model.BinaryOp", loop.Cond)
	}
}

func TestBuildGoNodes(t *testing.T) {
	t.Parallel()

	src := `func (s *Stack) Push(v int) {
	s.items = append(s.items, v)
}

func build(n int) []int {
	m := make(map[string]int)
	var arr [4]int
	_ = m
	_ = arr
	return []int{1, 2}
}
`
	p, err := parser.Build(src, model.Go)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var funcs []string
	var receivers []string
	collections := 0
	p.InspectAll(func(n model.Node) bool {
		switch n := n.(type) {
		case *model.FunctionDef:
			funcs = append(funcs, n.Name)
			receivers = append(receivers, n.Receiver)
		case *model.Collection:
			collections++
		}
		return true
	})

	if diff := cmp.Diff([]string{"Push", "build"}, funcs); diff != "" {
		t.Errorf("functions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"s", ""}, receivers); diff != "" {
		t.Errorf("receivers mismatch (-want +got):\n%s", diff)
	}
	// make(map...), [4]int and []int{1, 2}
	if collections != 3 {
		t.Errorf("collections = %d, want 3", collections)
	}
}
