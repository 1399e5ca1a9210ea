package parser

import (
	"errors"
	"fmt"
	"path"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/txtar"

	"github.com/tenntenn/codelens/backend/model"
)

// Archive is a set of snippets read from a txtar archive.
type Archive struct {
	Comment string
	Files   []model.SourceFile
	// GoVersion is the go directive of a go.mod entry, if any.
	GoVersion string
	// Skipped lists entries whose language could not be determined.
	Skipped []string
}

// ErrEmptyArchive is returned for an archive without snippets.
var ErrEmptyArchive = errors.New("no files found in txtar archive")

// ParseTxtar parses txtar format code containing multiple snippets. The
// language of each snippet is taken from its file extension.
func ParseTxtar(content []byte) (*Archive, error) {
	ar := txtar.Parse(content)
	a := &Archive{Comment: string(ar.Comment)}

	for _, f := range ar.Files {
		if path.Base(f.Name) == "go.mod" {
			mf, err := modfile.ParseLax(f.Name, f.Data, nil)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", f.Name, err)
			}
			if mf.Go != nil {
				a.GoVersion = "go" + mf.Go.Version
			}
			continue
		}
		lang, ok := model.LanguageForFile(f.Name)
		if !ok {
			a.Skipped = append(a.Skipped, f.Name)
			continue
		}
		a.Files = append(a.Files, model.SourceFile{
			Name:     f.Name,
			Language: lang,
			Content:  string(f.Data),
		})
	}

	if len(a.Files) == 0 {
		return nil, ErrEmptyArchive
	}
	return a, nil
}
