package analysis

import (
	"fmt"
	"io"
	"strings"

	"github.com/tenntenn/codelens/backend/model"
)

// Report renders findings of a category, one "Line N: message" per line.
func Report(findings []model.Finding, cat model.Category) string {
	if len(findings) == 0 {
		if cat == model.Logic {
			return NoLogicErrors
		}
		return NoSyntaxErrors
	}
	lines := make([]string, len(findings))
	for i, f := range findings {
		lines[i] = f.String()
	}
	return strings.Join(lines, "\n")
}

// WriteText writes res as a plain text report with one section per stage.
func WriteText(w io.Writer, name string, res *model.AnalyzeResponse) error {
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "== %s (%s)\n", name, res.Language)
	}
	section := func(title, body string) {
		fmt.Fprintf(&b, "%s:\n", title)
		for _, l := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
			fmt.Fprintf(&b, "  %s\n", l)
		}
	}
	section("Syntax", res.SyntaxReport)
	section("Logic", res.LogicReport)
	section("Time complexity", res.TimeComplexity)
	section("Space complexity", res.SpaceComplexity)
	section("Optimized", res.Optimized)
	_, err := io.WriteString(w, b.String())
	return err
}
