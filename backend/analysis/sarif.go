package analysis

import (
	"fmt"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/tenntenn/codelens/backend/detect"
	"github.com/tenntenn/codelens/backend/model"
)

const (
	toolName = "codelens"
	toolURI  = "https://github.com/tenntenn/codelens"
)

// Artifact is the findings of one analyzed source.
type Artifact struct {
	URI      string
	Findings []model.Finding
}

// ToSARIF converts findings into a SARIF 2.1.0 report with one rule per
// detector and one result per finding.
func ToSARIF(detectors []detect.Detector, artifacts ...Artifact) (*sarif.Report, error) {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	rules := map[string]*sarif.ReportingDescriptor{}
	for _, d := range detectors {
		rules[d.Name] = run.AddRule(d.Name).
			WithDescription(d.Description).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{
				Level: sarifLevel(d.Severity),
			})
	}

	for _, a := range artifacts {
		for _, f := range a.Findings {
			rule, ok := rules[f.Rule]
			if !ok {
				rule = run.AddRule(f.Rule)
				rules[f.Rule] = rule
			}
			region := sarif.NewRegion().WithStartLine(max(f.Location.Line, 1))
			if f.Location.Column > 0 {
				region = region.WithStartColumn(f.Location.Column)
			}
			location := sarif.NewLocation().WithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewArtifactLocation().WithUri(a.URI)).
					WithRegion(region),
			)
			result := sarif.NewRuleResult(rule.ID).
				WithMessage(sarif.NewTextMessage(f.Message)).
				WithLevel(sarifLevel(f.Severity)).
				WithLocations([]*sarif.Location{location})
			run.AddResult(result)
		}
	}
	report.AddRun(run)
	return report, nil
}

func sarifLevel(s model.Severity) string {
	switch s {
	case model.SeverityError:
		return "error"
	case model.SeverityWarning:
		return "warning"
	case model.SeverityInfo:
		return "note"
	}
	return "none"
}
