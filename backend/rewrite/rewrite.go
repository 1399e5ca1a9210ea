// Package rewrite produces a simplified version of a snippet. Go sources are
// rewritten on the syntax tree; C++ and Java sources go through an ordered
// list of text rules.
package rewrite

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/tenntenn/codelens/backend/model"
)

// Engine applies the rewrite rules of a language.
type Engine struct {
	goVersion string
	logger    hclog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithGoVersion sets the Go language version the output must compile with,
// such as "go1.21". Empty means the latest version.
func WithGoVersion(v string) Option {
	return func(e *Engine) { e.goVersion = v }
}

// WithLogger sets the engine logger.
func WithLogger(l hclog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New returns an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{logger: hclog.NewNullLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Optimize returns the rewritten src. It never fails: when the rewrite
// cannot be done the original text is returned after a comment line giving
// the reason.
func (e *Engine) Optimize(src string, lang model.Language) (out string) {
	defer func() {
		if p := recover(); p != nil {
			e.logger.Warn("rewrite panicked", "language", lang, "panic", fmt.Sprint(p))
			out = errorNote(fmt.Errorf("internal error: %v", p), src)
		}
	}()

	switch lang {
	case model.Go:
		res, err := e.rewriteGo(src)
		if err != nil {
			e.logger.Debug("rewrite failed", "error", err)
			return errorNote(err, src)
		}
		return res
	case model.Cpp, model.Java:
		return e.rewriteText(src, lang)
	}
	return errorNote(fmt.Errorf("unsupported language %q", lang), src)
}

func errorNote(err error, src string) string {
	return "// Error during optimization: " + err.Error() + "\n" + src
}
