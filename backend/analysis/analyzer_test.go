package analysis_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"

	"github.com/tenntenn/codelens/backend/analysis"
	"github.com/tenntenn/codelens/backend/model"
)

func TestRejectedInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		lang string
		want string
	}{
		{"empty", "", "go", analysis.NoInput},
		{"blank", " \n\t ", "cpp", analysis.NoInput},
		{"empty before language", "", "python", analysis.NoInput},
		{"unsupported", "print(1)", "python", analysis.Unsupported},
		{"empty tag", "x := 1", "", analysis.Unsupported},
	}

	a := analysis.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entries := map[string]func(src, lang string) string{
				"AnalyzeSyntax": a.AnalyzeSyntax,
				"AnalyzeLogic":  a.AnalyzeLogic,
				"ClassifyTime":  a.ClassifyTime,
				"ClassifySpace": a.ClassifySpace,
				"Optimize":      a.Optimize,
			}
			for name, f := range entries {
				if got := f(tt.src, tt.lang); got != tt.want {
					t.Errorf("%s() = %q, want %q", name, got, tt.want)
				}
			}

			res, err := a.Analyze(context.Background(), tt.src, tt.lang)
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			want := &model.AnalyzeResponse{
				Language:        tt.lang,
				SyntaxReport:    tt.want,
				LogicReport:     tt.want,
				TimeComplexity:  tt.want,
				SpaceComplexity: tt.want,
				Optimized:       tt.want,
			}
			if diff := cmp.Diff(want, res); diff != "" {
				t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDetectErrors(t *testing.T) {
	t.Parallel()

	a := analysis.New()
	if _, err := a.Detect("", "go", model.Syntax); !errors.Is(err, analysis.ErrEmptyInput) {
		t.Errorf("Detect() error = %v, want ErrEmptyInput", err)
	}
	if _, err := a.Detect("x", "ruby", model.Syntax); !errors.Is(err, analysis.ErrUnsupportedLanguage) {
		t.Errorf("Detect() error = %v, want ErrUnsupportedLanguage", err)
	}
	if _, err := a.Detect("x := (1", "go", model.Logic); !errors.Is(err, analysis.ErrSyntax) {
		t.Errorf("Detect() error = %v, want ErrSyntax", err)
	}
	if _, err := a.Classify("x := (1", "go", model.Time); !errors.Is(err, analysis.ErrSyntax) {
		t.Errorf("Classify() error = %v, want ErrSyntax", err)
	}
	if got := a.AnalyzeSyntax("x := (1", "go"); !strings.HasPrefix(got, "Line 1: Syntax Error: ") {
		t.Errorf("AnalyzeSyntax() = %q", got)
	}
	if got := a.Optimize("x := (1", "go"); !strings.HasPrefix(got, "// Error during optimization: ") {
		t.Errorf("Optimize() = %q", got)
	}
}

// TestScenarios runs the analyzer over the archives in testdata. The first
// file of an archive is the snippet; the other files hold the expected
// output of a stage and are compared when present.
func TestScenarios(t *testing.T) {
	t.Parallel()

	paths, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no test data")
	}

	a := analysis.New()
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			t.Parallel()

			ar, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatal(err)
			}
			src := ar.Files[0]
			lang, ok := model.LanguageForFile(src.Name)
			if !ok {
				t.Fatalf("unknown language of %s", src.Name)
			}

			res, err := a.Analyze(context.Background(), string(src.Data), string(lang))
			if err != nil {
				t.Fatalf("Analyze() error = %v", err)
			}
			got := map[string]string{
				"syntax":    res.SyntaxReport,
				"logic":     res.LogicReport,
				"time":      res.TimeComplexity,
				"space":     res.SpaceComplexity,
				"optimized": res.Optimized,
			}
			for _, f := range ar.Files[1:] {
				out, ok := got[f.Name]
				if !ok {
					t.Fatalf("unknown section %q", f.Name)
				}
				want := strings.TrimSuffix(string(f.Data), "\n")
				if diff := cmp.Diff(want, strings.TrimSuffix(out, "\n")); diff != "" {
					t.Errorf("%s mismatch (-want +got):\n%s", f.Name, diff)
				}
			}

			if res.SyntaxReport != a.AnalyzeSyntax(string(src.Data), string(lang)) {
				t.Error("Analyze and AnalyzeSyntax disagree")
			}
			if res.TimeComplexity != a.ClassifyTime(string(src.Data), string(lang)) {
				t.Error("Analyze and ClassifyTime disagree")
			}
		})
	}
}

func TestAnalyzeResponse(t *testing.T) {
	t.Parallel()

	src := "for (int i = 0; i < n; i++) { for (int j = 0; j < n; j++) { sum += i * j; } }"
	res, err := analysis.New().Analyze(context.Background(), src, "C++")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	want := &model.AnalyzeResponse{
		Language:        "cpp",
		SyntaxReport:    analysis.NoSyntaxErrors,
		LogicReport:     analysis.NoLogicErrors,
		TimeComplexity:  "O(n^2) - Polynomial (Nested Loops)",
		SpaceComplexity: "O(1) - Constant",
		Optimized:       "for (int i = 0; i < n; ++i) { for (int j = 0; j < n; ++j) { sum += i * j; } }",
		Time:            &model.Verdict{Order: "O(n^2)", Rationale: "Polynomial (Nested Loops)"},
		Space:           &model.Verdict{Order: "O(1)", Rationale: "Constant"},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("Analyze() mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeFindings(t *testing.T) {
	t.Parallel()

	src := "int main() {\n    while (true) { x = 1; }\n    x = 2\n}\n"
	res, err := analysis.New().Analyze(context.Background(), src, "cpp")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	var got []string
	for _, f := range res.Findings {
		got = append(got, string(f.Kind)+" "+f.Rule+" "+f.String())
	}
	want := []string{
		"syntax missing-semicolon Line 3: Missing semicolon",
		"logic infinite-loop Line 2: Infinite loop detected: while (true)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("findings mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	t.Parallel()

	src := "public class A {\n    int f(int n) {\n        if (n == 0) return 0;\n        return f(n - 1) / 0;\n    }\n}\n"
	a := analysis.New()
	first, err := a.Analyze(context.Background(), src, "java")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	for range 10 {
		again, err := a.Analyze(context.Background(), src, "java")
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("results differ (-first +again):\n%s", diff)
		}
	}
}

func TestAnalyzeCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := analysis.New().Analyze(ctx, "x := 1", "go")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Analyze() error = %v, want context.Canceled", err)
	}
}

func TestDisabledDetectors(t *testing.T) {
	t.Parallel()

	src := "while (true) { x = 1; }"
	if got := analysis.New().AnalyzeLogic(src, "cpp"); got == analysis.NoLogicErrors {
		t.Fatal("infinite loop is not reported")
	}
	a := analysis.New(analysis.WithDisabled("infinite-loop"))
	if got := a.AnalyzeLogic(src, "cpp"); got != analysis.NoLogicErrors {
		t.Errorf("AnalyzeLogic() = %q, want %q", got, analysis.NoLogicErrors)
	}
	if got, want := len(a.Detectors()), len(analysis.New().Detectors())-1; got != want {
		t.Errorf("len(Detectors()) = %d, want %d", got, want)
	}
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	res := &model.AnalyzeResponse{
		Language:        "go",
		SyntaxReport:    analysis.NoSyntaxErrors,
		LogicReport:     "Line 1: Unused variable: x\nLine 2: Unused variable: y",
		TimeComplexity:  "O(1) - Constant",
		SpaceComplexity: "O(1) - Constant",
		Optimized:       "x := 1\ny := 2\n",
	}
	var b strings.Builder
	if err := analysis.WriteText(&b, "a.go", res); err != nil {
		t.Fatal(err)
	}
	want := `== a.go (go)
Syntax:
  No syntax errors detected.
Logic:
  Line 1: Unused variable: x
  Line 2: Unused variable: y
Time complexity:
  O(1) - Constant
Space complexity:
  O(1) - Constant
Optimized:
  x := 1
  y := 2
`
	if diff := cmp.Diff(want, b.String()); diff != "" {
		t.Errorf("WriteText() mismatch (-want +got):\n%s", diff)
	}
}
