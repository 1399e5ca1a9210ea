package model_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tenntenn/codelens/backend/model"
)

func TestParseLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		tag    string
		want   model.Language
		wantOK bool
	}{
		{"go", model.Go, true},
		{"Golang", model.Go, true},
		{"cpp", model.Cpp, true},
		{"C++", model.Cpp, true},
		{" cxx ", model.Cpp, true},
		{"cc", model.Cpp, true},
		{"JAVA", model.Java, true},
		{"python", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			t.Parallel()

			got, ok := model.ParseLanguage(tt.tag)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLanguage(%q) = %q, %v; want %q, %v", tt.tag, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLanguageForFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		want   model.Language
		wantOK bool
	}{
		{"main.go", model.Go, true},
		{"dir/a.CPP", model.Cpp, true},
		{"b.hpp", model.Cpp, true},
		{"Main.java", model.Java, true},
		{"README", "", false},
		{"x.py", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := model.LanguageForFile(tt.name)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("LanguageForFile(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSortFindings(t *testing.T) {
	t.Parallel()

	fs := []model.Finding{
		{Message: "no location"},
		{Message: "b", Location: model.Position{Line: 3, Column: 1}},
		{Message: "a", Location: model.Position{Line: 1, Column: 5}},
		{Message: "first tie", Location: model.Position{Line: 3, Column: 1}},
		{Message: "c", Location: model.Position{Line: 1, Column: 2}},
	}
	model.SortFindings(fs)

	var got []string
	for _, f := range fs {
		got = append(got, f.Message)
	}
	want := []string{"c", "a", "b", "first tie", "no location"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SortFindings() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindingString(t *testing.T) {
	t.Parallel()

	f := model.Finding{Message: "Missing semicolon", Location: model.Position{Line: 4, Column: 9}}
	if got, want := f.String(), "Line 4: Missing semicolon"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	v := model.Verdict{Order: "O(n)", Rationale: "Linear"}
	if got, want := v.String(), "O(n) - Linear"; got != want {
		t.Errorf("Verdict.String() = %q, want %q", got, want)
	}
}
