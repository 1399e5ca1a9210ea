package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/hashicorp/go-hclog"

	"github.com/tenntenn/codelens/backend/model"
)

// Register mounts the Connect procedures and the plain JSON endpoint on mux.
func (h *AnalyzerServiceHandler) Register(mux *http.ServeMux, logger hclog.Logger) {
	opts := []connect.HandlerOption{
		connect.WithCodec(&JSONCodec{}),
		connect.WithInterceptors(NewLoggingInterceptor(logger)),
	}
	mux.Handle(AnalyzeProcedure, connect.NewUnaryHandler(AnalyzeProcedure, h.Analyze, opts...))
	mux.Handle(OptimizeProcedure, connect.NewUnaryHandler(OptimizeProcedure, h.Optimize, opts...))
	mux.Handle("/api/analyze", withRequestID(logger, http.HandlerFunc(h.AnalyzeHTTP)))
}

// AnalyzeHTTP handles the /api/analyze endpoint
func (h *AnalyzerServiceHandler) AnalyzeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only accept POST requests
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// JSON escaping can at most double the source, plus the envelope.
	r.Body = http.MaxBytesReader(w, r.Body, int64(2*h.maxSourceBytes+4096))
	var req model.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.checkSize(req.Code); err != nil {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	res, err := h.analyzer.Analyze(r.Context(), req.Code, req.Language)
	if err != nil {
		hclog.FromContext(r.Context()).Warn("analyze failed", "error", err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		hclog.FromContext(r.Context()).Warn("encode response", "error", err)
	}
}
