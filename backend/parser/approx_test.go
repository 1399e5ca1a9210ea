package parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tenntenn/codelens/backend/model"
	"github.com/tenntenn/codelens/backend/parser"
)

// shape summarizes the statement kinds of a model for comparison.
func shape(stmts []model.Stmt) []string {
	var out []string
	for _, s := range stmts {
		switch s := s.(type) {
		case *model.Loop:
			out = append(out, s.Kind.String()+"{"+join(shape(s.Body))+"}")
		case *model.Conditional:
			out = append(out, "if{"+join(shape(s.Then))+"}else{"+join(shape(s.Else))+"}")
		case *model.FunctionDef:
			out = append(out, "func "+s.Name+"{"+join(shape(s.Body))+"}")
		case *model.Block:
			out = append(out, s.Kind+" "+s.Name+"{"+join(shape(s.Body))+"}")
		case *model.Declaration:
			out = append(out, "decl "+s.Type+" "+s.Name)
		case *model.Assignment:
			out = append(out, "assign "+s.Target+s.Op)
		case *model.Return:
			out = append(out, "return")
		case *model.Branch:
			out = append(out, s.Keyword)
		case *model.ExprStmt:
			out = append(out, "expr")
		}
	}
	return out
}

func join(s []string) string {
	out := ""
	for i, x := range s {
		if i > 0 {
			out += ";"
		}
		out += x
	}
	return out
}

func TestBuildApproxShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		lang model.Language
		src  string
		want []string
	}{
		{
			name: "cpp function with loops",
			lang: model.Cpp,
			src: `#include <iostream>
using namespace std;

int sum(int n) {
    int total = 0;
    for (int i = 0; i < n; i++) {
        total += i;
    }
    while (n > 0) n--;
    return total;
}
`,
			want: []string{"func sum{decl int total;for{assign total+=};while{assign n--};return}"},
		},
		{
			name: "java class",
			lang: model.Java,
			src: `public class Main {
    public static void main(String[] args) {
        int x;
        if (args.length > 0) {
            x = 1;
        } else {
            x = 2;
        }
        System.out.println(x);
    }
}
`,
			want: []string{"class Main{func main{decl int x;if{assign x=}else{assign x=};expr}}"},
		},
		{
			name: "do while and break",
			lang: model.Cpp,
			src:  "do { if (x) break; x++; } while (x < 10);",
			want: []string{"do-while{if{break}else{};assign x++}"},
		},
		{
			name: "range for",
			lang: model.Cpp,
			src:  "for (auto v : values) { total += v; }",
			want: []string{"range{assign total+=}"},
		},
		{
			name: "unbalanced input still terminates",
			lang: model.Java,
			src:  "void f( { int x = ; } } )",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := parser.Build(tt.src, tt.lang)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if !p.Approximate {
				t.Error("model is not approximate")
			}
			if tt.want == nil {
				return
			}
			if diff := cmp.Diff(tt.want, shape(p.Body)); diff != "" {
				t.Errorf("shape mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildApproxMarksEveryNode(t *testing.T) {
	t.Parallel()

	src := "int f(int n) { if (n <= 1) return n; return f(n - 1) + f(n - 2); }"
	p := parser.BuildApprox(src, model.Cpp)
	count := 0
	p.InspectAll(func(n model.Node) bool {
		count++
		if !n.Meta().Approximate {
			t.Errorf("%T is not marked approximate", n)
		}
		return true
	})
	if count == 0 {
		t.Fatal("empty model")
	}
}

func TestBuildApproxCollections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		lang model.Language
		src  string
		want bool
	}{
		{"cpp array", model.Cpp, "int a[100];", true},
		{"cpp vector", model.Cpp, "vector<int> v(n);", true},
		{"cpp new array", model.Cpp, "int* p = new int[n];", true},
		{"java new array", model.Java, "int[] a = new int[n];", true},
		{"java list", model.Java, "List<Integer> xs = new ArrayList<>();", true},
		{"java array literal", model.Java, "int[] a = {1, 2, 3};", true},
		{"scalar", model.Cpp, "int x = 5;", false},
		{"object", model.Java, "Scanner sc = new Scanner(System.in);", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := parser.BuildApprox(tt.src, tt.lang)
			got := false
			p.InspectAll(func(n model.Node) bool {
				if _, ok := n.(*model.Collection); ok {
					got = true
				}
				return !got
			})
			if got != tt.want {
				t.Errorf("has collection = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildApproxExpressions(t *testing.T) {
	t.Parallel()

	p := parser.BuildApprox("while (low <= high) { int mid = (low + high) / 2; }", model.Cpp)
	if len(p.Body) != 1 {
		t.Fatalf("len(Body) = %d, want 1", len(p.Body))
	}
	loop := p.Body[0].(*model.Loop)
	cond, ok := loop.Cond.(*model.BinaryOp)
	if !ok {
		t.Fatalf("Cond is %T, want *model.BinaryOp", loop.Cond)
	}
	if cond.Op != "<=" {
		t.Errorf("Op = %q, want <=", cond.Op)
	}
	decl := loop.Body[0].(*model.Declaration)
	div, ok := decl.Value.(*model.BinaryOp)
	if !ok || div.Op != "/" {
		t.Fatalf("Value = %#v, want a division", decl.Value)
	}
	if lit, ok := div.Right.(*model.Literal); !ok || lit.Value != "2" {
		t.Errorf("divisor = %#v, want literal 2", div.Right)
	}
	if got := loop.Span().Start; got.Line != 1 || got.Column != 1 {
		t.Errorf("loop start = %+v", got)
	}
}

func TestClassifyLines(t *testing.T) {
	t.Parallel()

	src := "#include <cstdio>\n\n// note\nint x = 1;\nif (x) {\n}\n/* a\n b */\n"
	p := parser.BuildApprox(src, model.Cpp)
	var got []model.LineKind
	for _, l := range p.Lines {
		got = append(got, l.Kind)
	}
	want := []model.LineKind{
		model.LineDirective, model.LineBlank, model.LineComment, model.LineStatement,
		model.LineControl, model.LineBrace, model.LineComment, model.LineComment, model.LineBlank,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("line kinds mismatch (-want +got):\n%s", diff)
	}
}
