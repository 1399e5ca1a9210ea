//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"github.com/tenntenn/codelens/backend/analysis"
)

var analyzer = analysis.New()

func main() {
	c := make(chan struct{})

	js.Global().Set("codelensAnalyze", js.FuncOf(analyzeWrapper))
	js.Global().Set("codelensOptimize", js.FuncOf(optimizeWrapper))

	println("codelens WASM module loaded successfully")

	<-c
}

// analyzeWrapper wraps Analyzer.Analyze for JavaScript: (code, language).
func analyzeWrapper(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return map[string]any{
			"error": "code and language parameters are required",
		}
	}

	res, err := analyzer.Analyze(context.Background(), args[0].String(), args[1].String())
	if err != nil {
		return map[string]any{
			"error": err.Error(),
		}
	}

	// Convert response to JSON
	jsonBytes, err := json.Marshal(res)
	if err != nil {
		return map[string]any{
			"error": err.Error(),
		}
	}

	// Parse JSON string to JavaScript object
	return js.Global().Get("JSON").Call("parse", string(jsonBytes))
}

// optimizeWrapper wraps Analyzer.Optimize for JavaScript: (code, language).
func optimizeWrapper(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return map[string]any{
			"error": "code and language parameters are required",
		}
	}
	return analyzer.Optimize(args[0].String(), args[1].String())
}
