package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/tenntenn/codelens/backend/model"
)

// langValue is a pflag.Value accepting the supported language tags.
type langValue struct {
	lang model.Language
}

var _ pflag.Value = (*langValue)(nil)

func (v *langValue) String() string { return string(v.lang) }

func (v *langValue) Set(s string) error {
	lang, ok := model.ParseLanguage(s)
	if !ok {
		return fmt.Errorf("unsupported language %q (want one of %s)", s, languageList())
	}
	v.lang = lang
	return nil
}

func (v *langValue) Type() string { return "language" }

func languageList() string {
	tags := make([]string, len(model.Languages))
	for i, l := range model.Languages {
		tags[i] = string(l)
	}
	return strings.Join(tags, ", ")
}

// Output formats of the analyze and batch commands.
const (
	formatText  = "text"
	formatJSON  = "json"
	formatSARIF = "sarif"
)

// formatValue is a pflag.Value for --format.
type formatValue string

var _ pflag.Value = (*formatValue)(nil)

func (v *formatValue) String() string { return string(*v) }

func (v *formatValue) Set(s string) error {
	switch s {
	case formatText, formatJSON, formatSARIF:
		*v = formatValue(s)
		return nil
	}
	return fmt.Errorf("unknown format %q (want text, json or sarif)", s)
}

func (v *formatValue) Type() string { return "format" }
