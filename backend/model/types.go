package model

// AnalyzeRequest represents a request to analyze a source snippet
type AnalyzeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// Position represents a position in source code
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

// AnalyzeResponse represents the response from analyzing a snippet.
// The report strings are always set; the structured fields are empty when
// the input was rejected (unsupported language, empty input).
type AnalyzeResponse struct {
	Language        string    `json:"language"`
	SyntaxReport    string    `json:"syntaxReport"`
	LogicReport     string    `json:"logicReport"`
	TimeComplexity  string    `json:"timeComplexity"`
	SpaceComplexity string    `json:"spaceComplexity"`
	Optimized       string    `json:"optimized"`
	Findings        []Finding `json:"findings,omitempty"`
	Time            *Verdict  `json:"time,omitempty"`
	Space           *Verdict  `json:"space,omitempty"`
}

// OptimizeRequest represents a request to rewrite a snippet
type OptimizeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// OptimizeResponse represents the rewritten snippet
type OptimizeResponse struct {
	Code string `json:"code"`
}

// SourceFile is one snippet of a multi-file archive
type SourceFile struct {
	Name     string   `json:"name"`
	Language Language `json:"language"`
	Content  string   `json:"content"`
}
