package rewrite_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tenntenn/codelens/backend/model"
	"github.com/tenntenn/codelens/backend/rewrite"
)

func TestOptimizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		lang model.Language
		src  string
		want string
	}{
		{
			name: "duplicate terminators",
			lang: model.Cpp,
			src:  "int x = 1;;\nfor (;;) {\n}\n",
			want: "int x = 1;\nfor (;;) {\n}\n",
		},
		{
			name: "blank lines",
			lang: model.Java,
			src:  "int a = 1;\n\n\n   \nint b = 2;\n",
			want: "int a = 1;\nint b = 2;\n",
		},
		{
			name: "whitespace",
			lang: model.Cpp,
			src:  "int   a =  1;   \n    return  a;\n",
			want: "int a = 1;\n    return a;\n",
		},
		{
			name: "loop header",
			lang: model.Cpp,
			src:  "for (int i = 0; i < n; i++) {\n}\n",
			want: "for (int i = 0; i < n; ++i) {\n}\n",
		},
		{
			name: "loop header over other names",
			lang: model.Java,
			src:  "for (int i = 0; j < n; i++) {\n}\n",
			want: "for (int i = 0; j < n; i++) {\n}\n",
		},
		{
			name: "brace init",
			lang: model.Cpp,
			src:  "int count = 0;\nauto z = 0;\ndouble d = (0);\n",
			want: "int count{};\nauto z = 0;\ndouble d{};\n",
		},
		{
			name: "no brace init in java",
			lang: model.Java,
			src:  "int count = 0;\n",
			want: "int count = 0;\n",
		},
		{
			name: "string concatenation",
			lang: model.Java,
			src:  "String s = \"a\" + \"b\" + \"c\";\n",
			want: "String s = \"abc\";\n",
		},
		{
			name: "string receiver",
			lang: model.Java,
			src:  "int n = \"a\" + \"b\".length();\n",
			want: "int n = \"a\" + \"b\".length();\n",
		},
		{
			name: "no string folding in cpp",
			lang: model.Cpp,
			src:  "std::string s = \"a\" + \"b\";\n",
			want: "std::string s = \"a\" + \"b\";\n",
		},
		{
			name: "redundant parentheses",
			lang: model.Cpp,
			src:  "x = ((a + b));\nreturn(a);\nif ((a == b)) {\n}\n",
			want: "x = a + b;\nreturn a;\nif (a == b) {\n}\n",
		},
		{
			name: "call arguments are kept",
			lang: model.Java,
			src:  "x = f((a), b);\ny = (a, b);\n",
			want: "x = f((a), b);\ny = (a, b);\n",
		},
		{
			name: "literals and comments are untouched",
			lang: model.Cpp,
			src:  "// keep  two  spaces;;\nstd::cout << \"a  b;;\";\n",
			want: "// keep  two  spaces;;\nstd::cout << \"a  b;;\";\n",
		},
	}

	e := rewrite.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := e.Optimize(tt.src, tt.lang)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Optimize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOptimizeTextIdempotent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		lang model.Language
		src  string
	}{
		{
			name: "cpp",
			lang: model.Cpp,
			src: `#include <iostream>

int main() {
    int total = (0);;
    for (int i = (0); i < 10; i++) {
        total   +=  i;
    }
    return(total);
}
`,
		},
		{
			name: "java",
			lang: model.Java,
			src: `public class Main {

    public static void main(String[] args) {
        String s = "a" + "b";;
        int x = ((1 + 2));
        System.out.println(s   + x);
    }
}
`,
		},
	}

	e := rewrite.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			once := e.Optimize(tt.src, tt.lang)
			if once == tt.src {
				t.Fatal("nothing was rewritten")
			}
			if twice := e.Optimize(once, tt.lang); twice != once {
				t.Errorf("not idempotent:\nonce:\n%s\ntwice:\n%s", once, twice)
			}
		})
	}
}
