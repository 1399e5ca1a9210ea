// Package analysis is the entry point of the engine. It builds the model of a
// snippet once and hands it to the detectors, the complexity classifier and
// the rewrite engine.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/tenntenn/codelens/backend/complexity"
	"github.com/tenntenn/codelens/backend/detect"
	"github.com/tenntenn/codelens/backend/model"
	"github.com/tenntenn/codelens/backend/parser"
	"github.com/tenntenn/codelens/backend/rewrite"
)

// Result strings shared by every entry point.
const (
	NoInput        = "Please enter some code."
	Unsupported    = "Unsupported language"
	SyntaxBlocked  = "Unable to analyze due to syntax errors"
	NoSyntaxErrors = "No syntax errors detected."
	NoLogicErrors  = "No logical errors detected"
)

var (
	// ErrEmptyInput is returned for empty or whitespace-only sources.
	ErrEmptyInput = errors.New(NoInput)
	// ErrUnsupportedLanguage is returned for a language tag outside the
	// supported set.
	ErrUnsupportedLanguage = errors.New(Unsupported)
	// ErrSyntax is returned when an analysis needs a Go source that parses.
	ErrSyntax = errors.New(SyntaxBlocked)
)

// Analyzer runs the engine. It holds no per-request state and is safe for
// concurrent use.
type Analyzer struct {
	registry *detect.Registry
	engine   *rewrite.Engine
	logger   hclog.Logger
}

type options struct {
	logger    hclog.Logger
	goVersion string
	disabled  []string
}

// Option configures an Analyzer.
type Option func(*options)

// WithLogger sets the logger of the analyzer and its components.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithGoVersion sets the Go language version rewritten Go code must
// compile with.
func WithGoVersion(v string) Option {
	return func(o *options) { o.goVersion = v }
}

// WithDisabled turns off detectors by name.
func WithDisabled(names ...string) Option {
	return func(o *options) { o.disabled = append(o.disabled, names...) }
}

// New returns an Analyzer.
func New(opts ...Option) *Analyzer {
	o := &options{logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = hclog.NewNullLogger()
	}
	return &Analyzer{
		registry: detect.Default(
			detect.WithLogger(o.logger.Named("detect")),
			detect.WithDisabled(o.disabled...),
		),
		engine: rewrite.New(
			rewrite.WithLogger(o.logger.Named("rewrite")),
			rewrite.WithGoVersion(o.goVersion),
		),
		logger: o.logger,
	}
}

// snippet is a validated source with its model.
type snippet struct {
	lang     model.Language
	src      string
	program  *model.Program
	parseErr *parser.ParseFailure
}

// check validates the input without building a model.
func check(src, tag string) (model.Language, error) {
	if strings.TrimSpace(src) == "" {
		return "", ErrEmptyInput
	}
	lang, ok := model.ParseLanguage(tag)
	if !ok {
		return "", ErrUnsupportedLanguage
	}
	return lang, nil
}

func (a *Analyzer) prepare(src, tag string) (sn *snippet, err error) {
	lang, err := check(src, tag)
	if err != nil {
		return nil, err
	}
	sn = &snippet{lang: lang, src: src}
	defer func() {
		if p := recover(); p != nil {
			a.logger.Warn("model builder panicked", "language", lang, "panic", fmt.Sprint(p))
			sn.program = nil
		}
	}()

	p, err := parser.Build(src, lang)
	var pf *parser.ParseFailure
	switch {
	case errors.As(err, &pf):
		sn.parseErr = pf
	case err != nil:
		sn.parseErr = &parser.ParseFailure{Message: err.Error()}
	default:
		sn.program = p
		a.logger.Debug("model built", "language", lang, "approximate", p.Approximate, "nodes", p.Count())
	}
	return sn, nil
}

// Detect returns the findings of the category for src.
func (a *Analyzer) Detect(src, lang string, cat model.Category) ([]model.Finding, error) {
	sn, err := a.prepare(src, lang)
	if err != nil {
		return nil, err
	}
	return a.detect(sn, cat)
}

func (a *Analyzer) detect(sn *snippet, cat model.Category) ([]model.Finding, error) {
	if cat == model.Logic && sn.lang == model.Go && sn.program == nil {
		return nil, ErrSyntax
	}
	return a.registry.Run(&detect.Input{
		Language: sn.lang,
		Source:   sn.src,
		Program:  sn.program,
		ParseErr: sn.parseErr,
	}, cat), nil
}

// Classify returns the complexity verdict of src on the axis.
func (a *Analyzer) Classify(src, lang string, axis model.Axis) (model.Verdict, error) {
	sn, err := a.prepare(src, lang)
	if err != nil {
		return model.Verdict{}, err
	}
	return a.classify(sn, axis)
}

func (a *Analyzer) classify(sn *snippet, axis model.Axis) (v model.Verdict, err error) {
	if sn.program == nil {
		return model.Verdict{}, ErrSyntax
	}
	defer func() {
		if p := recover(); p != nil {
			a.logger.Warn("classifier panicked", "axis", axis, "panic", fmt.Sprint(p))
			v, err = complexity.Classify(&model.Program{}, axis), nil
		}
	}()
	return complexity.Classify(sn.program, axis), nil
}

// Detectors returns the enabled detectors in registration order.
func (a *Analyzer) Detectors() []detect.Detector {
	return append(a.registry.Detectors(model.Syntax), a.registry.Detectors(model.Logic)...)
}

// AnalyzeSyntax returns the syntax report of src.
func (a *Analyzer) AnalyzeSyntax(src, lang string) string {
	fs, err := a.Detect(src, lang, model.Syntax)
	if err != nil {
		return err.Error()
	}
	return Report(fs, model.Syntax)
}

// AnalyzeLogic returns the logic report of src.
func (a *Analyzer) AnalyzeLogic(src, lang string) string {
	fs, err := a.Detect(src, lang, model.Logic)
	if err != nil {
		return err.Error()
	}
	return Report(fs, model.Logic)
}

// ClassifyTime returns the time complexity of src.
func (a *Analyzer) ClassifyTime(src, lang string) string {
	v, err := a.Classify(src, lang, model.Time)
	if err != nil {
		return err.Error()
	}
	return v.String()
}

// ClassifySpace returns the space complexity of src.
func (a *Analyzer) ClassifySpace(src, lang string) string {
	v, err := a.Classify(src, lang, model.Space)
	if err != nil {
		return err.Error()
	}
	return v.String()
}

// Optimize returns the rewritten src.
func (a *Analyzer) Optimize(src, lang string) string {
	l, err := check(src, lang)
	if err != nil {
		return err.Error()
	}
	return a.engine.Optimize(src, l)
}

// Analyze runs every stage on src concurrently. Rejected inputs yield a
// response whose reports all hold the rejection message. The error is only
// set when ctx is done before the stages finish.
func (a *Analyzer) Analyze(ctx context.Context, src, lang string) (*model.AnalyzeResponse, error) {
	res := &model.AnalyzeResponse{Language: lang}
	sn, err := a.prepare(src, lang)
	if err != nil {
		msg := err.Error()
		res.SyntaxReport, res.LogicReport = msg, msg
		res.TimeComplexity, res.SpaceComplexity = msg, msg
		res.Optimized = msg
		return res, nil
	}
	res.Language = string(sn.lang)

	var syntax, logic []model.Finding
	var logicErr, timeErr, spaceErr error
	var timeV, spaceV model.Verdict

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		syntax, _ = a.detect(sn, model.Syntax)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		logic, logicErr = a.detect(sn, model.Logic)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		timeV, timeErr = a.classify(sn, model.Time)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		spaceV, spaceErr = a.classify(sn, model.Space)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res.Optimized = a.engine.Optimize(sn.src, sn.lang)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	res.SyntaxReport = Report(syntax, model.Syntax)
	res.Findings = append(res.Findings, syntax...)
	if logicErr != nil {
		res.LogicReport = logicErr.Error()
	} else {
		res.LogicReport = Report(logic, model.Logic)
		res.Findings = append(res.Findings, logic...)
	}
	res.TimeComplexity = verdictReport(timeV, timeErr, &res.Time)
	res.SpaceComplexity = verdictReport(spaceV, spaceErr, &res.Space)
	return res, nil
}

func verdictReport(v model.Verdict, err error, dst **model.Verdict) string {
	if err != nil {
		return err.Error()
	}
	*dst = &v
	return v.String()
}
