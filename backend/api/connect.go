package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/hashicorp/go-hclog"

	"github.com/tenntenn/codelens/backend/analysis"
	"github.com/tenntenn/codelens/backend/config"
	"github.com/tenntenn/codelens/backend/model"
)

// Procedures of the Connect RPC AnalyzerService.
const (
	AnalyzeProcedure  = "/codelens.v1.AnalyzerService/Analyze"
	OptimizeProcedure = "/codelens.v1.AnalyzerService/Optimize"
)

// AnalyzerServiceHandler implements the Connect RPC AnalyzerService
type AnalyzerServiceHandler struct {
	analyzer       *analysis.Analyzer
	maxSourceBytes int
}

// NewAnalyzerServiceHandler creates a new AnalyzerServiceHandler. Sources
// longer than maxSourceBytes are rejected; zero means the default limit.
func NewAnalyzerServiceHandler(a *analysis.Analyzer, maxSourceBytes int) *AnalyzerServiceHandler {
	if maxSourceBytes <= 0 {
		maxSourceBytes = config.DefaultMaxSourceBytes
	}
	return &AnalyzerServiceHandler{analyzer: a, maxSourceBytes: maxSourceBytes}
}

// ErrSourceTooLarge is returned for sources over the configured limit.
var ErrSourceTooLarge = errors.New("source too large")

func (h *AnalyzerServiceHandler) checkSize(code string) error {
	if len(code) > h.maxSourceBytes {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrSourceTooLarge, len(code), h.maxSourceBytes)
	}
	return nil
}

// Analyze handles the Analyze RPC method
func (h *AnalyzerServiceHandler) Analyze(
	ctx context.Context,
	req *connect.Request[model.AnalyzeRequest],
) (*connect.Response[model.AnalyzeResponse], error) {
	if err := h.checkSize(req.Msg.Code); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	res, err := h.analyzer.Analyze(ctx, req.Msg.Code, req.Msg.Language)
	if err != nil {
		return nil, connect.NewError(contextCode(err), err)
	}
	hclog.FromContext(ctx).Debug("analyzed", "language", res.Language, "findings", len(res.Findings))
	return connect.NewResponse(res), nil
}

// Optimize handles the Optimize RPC method
func (h *AnalyzerServiceHandler) Optimize(
	ctx context.Context,
	req *connect.Request[model.OptimizeRequest],
) (*connect.Response[model.OptimizeResponse], error) {
	if err := h.checkSize(req.Msg.Code); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, connect.NewError(contextCode(err), err)
	}

	response := &model.OptimizeResponse{
		Code: h.analyzer.Optimize(req.Msg.Code, req.Msg.Language),
	}
	return connect.NewResponse(response), nil
}

func contextCode(err error) connect.Code {
	if errors.Is(err, context.DeadlineExceeded) {
		return connect.CodeDeadlineExceeded
	}
	if errors.Is(err, context.Canceled) {
		return connect.CodeCanceled
	}
	return connect.CodeInternal
}

// JSONCodec implements the JSON codec for the service messages
type JSONCodec struct{}

func (c *JSONCodec) Name() string {
	return "json"
}

func (c *JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
