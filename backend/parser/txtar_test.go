package parser_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tenntenn/codelens/backend/model"
	"github.com/tenntenn/codelens/backend/parser"
)

func TestParseTxtar(t *testing.T) {
	t.Parallel()

	content := `snippets for review
-- go.mod --
module example.com/snippets

go 1.21
-- loop.go --
for i := 0; i < 3; i++ {
}
-- Main.java --
class Main {}
-- notes.txt --
not code
-- sort.cpp --
int main() { return 0; }
`
	ar, err := parser.ParseTxtar([]byte(content))
	if err != nil {
		t.Fatalf("ParseTxtar() error = %v", err)
	}

	if ar.Comment != "snippets for review\n" {
		t.Errorf("Comment = %q", ar.Comment)
	}
	if ar.GoVersion != "go1.21" {
		t.Errorf("GoVersion = %q, want go1.21", ar.GoVersion)
	}
	if diff := cmp.Diff([]string{"notes.txt"}, ar.Skipped); diff != "" {
		t.Errorf("Skipped mismatch (-want +got):\n%s", diff)
	}

	var got []model.Language
	for _, f := range ar.Files {
		got = append(got, f.Language)
	}
	want := []model.Language{model.Go, model.Java, model.Cpp}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("languages mismatch (-want +got):\n%s", diff)
	}
	if ar.Files[1].Content != "class Main {}\n" {
		t.Errorf("Files[1].Content = %q", ar.Files[1].Content)
	}
}

func TestParseTxtarErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "no files",
			content: "just a comment\n",
			wantErr: parser.ErrEmptyArchive,
		},
		{
			name:    "only unknown files",
			content: "-- a.txt --\nhello\n",
			wantErr: parser.ErrEmptyArchive,
		},
		{
			name:    "broken go.mod",
			content: "-- go.mod --\nmodule\ngo 1.22 extra words\n-- a.go --\nx := 1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := parser.ParseTxtar([]byte(tt.content))
			if err == nil {
				t.Fatal("ParseTxtar() error = nil")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseTxtar() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
