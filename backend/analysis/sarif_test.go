package analysis_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tenntenn/codelens/backend/analysis"
	"github.com/tenntenn/codelens/backend/model"
)

func TestToSARIF(t *testing.T) {
	t.Parallel()

	a := analysis.New()
	syntax, err := a.Detect("int main() {\n    int x = 1\n}\n", "cpp", model.Syntax)
	require.NoError(t, err)
	logic, err := a.Detect("while (true) { y = 2 / 0; }", "cpp", model.Logic)
	require.NoError(t, err)
	require.Len(t, syntax, 1)
	require.Len(t, logic, 2)

	report, err := analysis.ToSARIF(a.Detectors(),
		analysis.Artifact{URI: "a.cpp", Findings: syntax},
		analysis.Artifact{URI: "b.cpp", Findings: logic},
	)
	require.NoError(t, err)
	require.Len(t, report.Runs, 1)

	run := report.Runs[0]
	require.Equal(t, "codelens", run.Tool.Driver.Name)
	require.Len(t, run.Tool.Driver.Rules, len(a.Detectors()))
	require.Len(t, run.Results, 3)

	first := run.Results[0]
	require.Equal(t, "missing-semicolon", *first.RuleID)
	require.Equal(t, "Missing semicolon", *first.Message.Text)
	require.Equal(t, "error", *first.Level)
	loc := first.Locations[0].PhysicalLocation
	require.Equal(t, "a.cpp", *loc.ArtifactLocation.URI)
	require.Equal(t, 2, *loc.Region.StartLine)

	last := run.Results[2]
	require.Equal(t, "division-by-zero", *last.RuleID)
	require.Equal(t, "b.cpp", *last.Locations[0].PhysicalLocation.ArtifactLocation.URI)

	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf))
	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Equal(t, "2.1.0", doc["version"])
}

func TestToSARIFUnknownRule(t *testing.T) {
	t.Parallel()

	report, err := analysis.ToSARIF(nil, analysis.Artifact{
		URI:      "stdin.go",
		Findings: []model.Finding{{Rule: "custom", Severity: model.SeverityInfo, Message: "note"}},
	})
	require.NoError(t, err)

	run := report.Runs[0]
	require.Len(t, run.Tool.Driver.Rules, 1)
	res := run.Results[0]
	require.Equal(t, "note", *res.Level)
	region := res.Locations[0].PhysicalLocation.Region
	require.Equal(t, 1, *region.StartLine)
	require.Nil(t, region.StartColumn)
}
