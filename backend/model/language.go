package model

import "strings"

// Language identifies one of the supported source languages.
type Language string

const (
	Go   Language = "go"
	Cpp  Language = "cpp"
	Java Language = "java"
)

// Languages lists the supported languages in display order.
var Languages = []Language{Go, Cpp, Java}

// ParseLanguage resolves a user supplied language tag.
// Tags are matched case-insensitively and a few common aliases are accepted.
func ParseLanguage(tag string) (Language, bool) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "go", "golang":
		return Go, true
	case "cpp", "c++", "cc", "cxx":
		return Cpp, true
	case "java":
		return Java, true
	}
	return "", false
}

// LanguageForFile guesses the language from a file name extension.
func LanguageForFile(name string) (Language, bool) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", false
	}
	switch strings.ToLower(name[i+1:]) {
	case "go":
		return Go, true
	case "cpp", "cc", "cxx", "hpp", "h":
		return Cpp, true
	case "java":
		return Java, true
	}
	return "", false
}

// Approximate reports whether the language is modeled without a full grammar.
func (l Language) Approximate() bool {
	return l != Go
}

// Extension returns the canonical file extension.
func (l Language) Extension() string {
	switch l {
	case Cpp:
		return ".cpp"
	case Java:
		return ".java"
	}
	return ".go"
}
