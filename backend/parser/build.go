package parser

import (
	"github.com/tenntenn/codelens/backend/model"
)

// Build builds the model of src in the given language.
//
// Go sources are parsed with go/parser; a snippet that does not parse in any
// wrapping mode yields a *ParseFailure. C++ and Java go through the
// approximate scanner and never fail.
func Build(src string, lang model.Language) (*model.Program, error) {
	if lang != model.Go {
		return BuildApprox(src, lang), nil
	}
	gs, err := ParseGo(src)
	if err != nil {
		return nil, err
	}
	return BuildGo(gs), nil
}
