// Package detect implements the syntax and logic detectors run over a
// snippet model.
package detect

import (
	"fmt"
	"slices"

	"github.com/hashicorp/go-hclog"

	"github.com/tenntenn/codelens/backend/model"
	"github.com/tenntenn/codelens/backend/parser"
)

// Input is what a detector inspects. Program is nil when a Go snippet
// failed to parse; ParseErr is set in that case.
type Input struct {
	Language model.Language
	Source   string
	Program  *model.Program
	ParseErr *parser.ParseFailure
}

// Detector is one independent rule.
type Detector struct {
	Name        string
	Category    model.Category
	Severity    model.Severity
	Description string
	// Languages the rule applies to; empty means every language.
	Languages []model.Language
	Run       func(in *Input) []model.Finding
}

func (d Detector) appliesTo(lang model.Language) bool {
	return len(d.Languages) == 0 || slices.Contains(d.Languages, lang)
}

// Registry is an ordered list of detectors.
type Registry struct {
	detectors []Detector
	disabled  map[string]bool
	logger    hclog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report recovered detector panics.
func WithLogger(l hclog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithDisabled turns off detectors by name.
func WithDisabled(names ...string) Option {
	return func(r *Registry) {
		for _, n := range names {
			r.disabled[n] = true
		}
	}
}

// NewRegistry returns a registry holding the given detectors in order.
func NewRegistry(detectors []Detector, opts ...Option) *Registry {
	r := &Registry{
		detectors: slices.Clone(detectors),
		disabled:  map[string]bool{},
		logger:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default returns a registry with all built-in detectors.
func Default(opts ...Option) *Registry {
	return NewRegistry(append(SyntaxDetectors(), LogicDetectors()...), opts...)
}

// Detectors returns the enabled detectors of the category in registration
// order.
func (r *Registry) Detectors(cat model.Category) []Detector {
	var out []Detector
	for _, d := range r.detectors {
		if d.Category == cat && !r.disabled[d.Name] {
			out = append(out, d)
		}
	}
	return out
}

// Run runs every enabled detector of the category that applies to the input
// language and returns the findings sorted by location.
func (r *Registry) Run(in *Input, cat model.Category) []model.Finding {
	var findings []model.Finding
	for _, d := range r.Detectors(cat) {
		if !d.appliesTo(in.Language) {
			continue
		}
		for _, f := range r.run(d, in) {
			f.Kind = d.Category
			f.Rule = d.Name
			if f.Severity == "" {
				f.Severity = d.Severity
			}
			findings = append(findings, f)
		}
	}
	model.SortFindings(findings)
	return findings
}

func (r *Registry) run(d Detector, in *Input) (fs []model.Finding) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("detector panicked", "detector", d.Name, "language", in.Language, "panic", fmt.Sprint(p))
			fs = nil
		}
	}()
	return d.Run(in)
}

func at(pos model.Position, msg string) model.Finding {
	return model.Finding{Message: msg, Location: pos}
}
