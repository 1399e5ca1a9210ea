package rewrite_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tenntenn/codelens/backend/model"
	"github.com/tenntenn/codelens/backend/rewrite"
)

func TestOptimizeGo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "fold integers",
			src:  "x := 2 + 3\nfmt.Println(x)\n",
			want: "x := 5\nfmt.Println(x)\n",
		},
		{
			name: "no trailing newline",
			src:  "x := 2 + 3\nfmt.Println(x)",
			want: "x := 5\nfmt.Println(x)\n",
		},
		{
			name: "raw string keeps its indentation",
			src:  "s := `a\n\tb`\nfmt.Println(s)\n",
			want: "s := `a\n\tb`\nfmt.Println(s)\n",
		},
		{
			name: "fold after a raw string",
			src:  "s := `a\n\t\tb\n`\nn := 1 + 1\n",
			want: "s := `a\n\t\tb\n`\nn := 2\n",
		},
		{
			name: "fold through parentheses",
			src:  "z := (1 + 2) * 4\n",
			want: "z := 12\n",
		},
		{
			name: "integer division truncates",
			src:  "q := 7 / 2\n",
			want: "q := 3\n",
		},
		{
			name: "float keeps its kind",
			src:  "f := 1.5 * 2\n",
			want: "f := 3.0\n",
		},
		{
			name: "strings",
			src:  "s := \"a\" + \"b\"\n",
			want: "s := \"ab\"\n",
		},
		{
			name: "division by zero is kept",
			src:  "y := 10 / 0\n",
			want: "y := 10 / 0\n",
		},
		{
			name: "if true",
			src:  "if true {\n\tfmt.Println(\"a\")\n} else {\n\tfmt.Println(\"b\")\n}\n",
			want: "fmt.Println(\"a\")\n",
		},
		{
			name: "folded condition",
			src:  "if 1 > 2 {\n\tfmt.Println(\"a\")\n}\nfmt.Println(\"b\")\n",
			want: "fmt.Println(\"b\")\n",
		},
		{
			name: "range body other than an assignment",
			src:  "for i := range 3 {\n\tfmt.Println(i)\n}\n",
			want: "for i := range 3 {\n\tfmt.Println(i)\n}\n",
		},
		{
			name: "declarations",
			src:  "func f() int {\n\treturn 2 * 3\n}\n",
			want: "func f() int {\n\treturn 6\n}\n",
		},
		{
			name: "file",
			src:  "package p\n\nconst c = 1 + 1\n",
			want: "package p\n\nconst c = 2\n",
		},
	}

	e := rewrite.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := e.Optimize(tt.src, model.Go)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Optimize() mismatch (-want +got):\n%s", diff)
			}
			if again := e.Optimize(got, model.Go); again != got {
				t.Errorf("second Optimize() = %q, want %q", again, got)
			}
		})
	}
}

func TestOptimizeGoScopedBranch(t *testing.T) {
	t.Parallel()

	got := rewrite.New().Optimize("if true {\n\tx := 1\n\tfmt.Println(x)\n}\n", model.Go)
	if strings.Contains(got, "if") {
		t.Errorf("branch is kept:\n%s", got)
	}
	if !strings.HasPrefix(got, "{") || !strings.Contains(got, "x := 1") {
		t.Errorf("declaration is not kept in its own block:\n%s", got)
	}
}

func TestOptimizeGoLoops(t *testing.T) {
	t.Parallel()

	src := "sum := 0\nfor i := range 3 {\n\tsum = sum + i\n}\n"

	got := rewrite.New().Optimize(src, model.Go)
	for _, want := range []string{"_i := 0", "for _i < 3 {", "i := _i", "sum = sum + i", "_i++"} {
		if !strings.Contains(got, want) {
			t.Errorf("output lacks %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "range") {
		t.Errorf("range loop is kept:\n%s", got)
	}

	old := rewrite.New(rewrite.WithGoVersion("go1.21")).Optimize(src, model.Go)
	if diff := cmp.Diff(src, old); diff != "" {
		t.Errorf("go1.21 output mismatch (-want +got):\n%s", diff)
	}
}

// Only a single assignment body over a literal bound is rewritten. Other
// shapes could exit early or read the loop variable after an iteration is
// skipped, so they stay range loops.
func TestOptimizeGoLoopsUntouched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"variable bound", "for i := range n {\n\tsum = sum + i\n}\n"},
		{"two statements", "for i := range 3 {\n\tsum = sum + i\n\tcount = count + 1\n}\n"},
		{"key and value", "for i, v := range 3 {\n\tsum = sum + i + v\n}\n"},
		{"labeled", "outer:\n\tfor i := range 3 {\n\t\tsum = sum + i\n\t}\n"},
		{"continue", "for i := range 3 {\n\tif i == 1 {\n\t\tcontinue\n\t}\n\tsum = sum + i\n}\n"},
		{"break", "for i := range 3 {\n\tif sum > 2 {\n\t\tbreak\n\t}\n\tsum = sum + i\n}\n"},
	}

	e := rewrite.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := e.Optimize(tt.src, model.Go)
			if strings.HasPrefix(got, "// Error during optimization") {
				t.Fatalf("Optimize() failed:\n%s", got)
			}
			if !strings.Contains(got, "range") || strings.Contains(got, "_i") {
				t.Errorf("loop is rewritten:\n%s", got)
			}
		})
	}
}

func TestGoPasses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version string
		want    []string
	}{
		{"", []string{"constant-folding", "dead-branch-elimination", "loop-canonicalization"}},
		{"go1.22", []string{"constant-folding", "dead-branch-elimination", "loop-canonicalization"}},
		{"go1.21", []string{"constant-folding", "dead-branch-elimination"}},
		{"not a version", []string{"constant-folding", "dead-branch-elimination", "loop-canonicalization"}},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			t.Parallel()

			var got []string
			for _, p := range rewrite.GoPasses(tt.version) {
				got = append(got, p.Name)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("GoPasses() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOptimizeErrorNote(t *testing.T) {
	t.Parallel()

	e := rewrite.New()

	src := "x := (1\n"
	got := e.Optimize(src, model.Go)
	if !strings.HasPrefix(got, "// Error during optimization: ") || !strings.HasSuffix(got, "\n"+src) {
		t.Errorf("Optimize() = %q", got)
	}

	got = e.Optimize("print 1", model.Language("python"))
	want := "// Error during optimization: unsupported language \"python\"\nprint 1"
	if got != want {
		t.Errorf("Optimize() = %q, want %q", got, want)
	}
}
