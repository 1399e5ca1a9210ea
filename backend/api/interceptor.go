package api

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// RequestIDHeader carries the id assigned to each request.
const RequestIDHeader = "X-Request-Id"

// NewLoggingInterceptor assigns a request id to every RPC, puts a logger
// carrying it into the context and logs the outcome.
func NewLoggingInterceptor(logger hclog.Logger) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			id := uuid.NewString()
			l := logger.With("request_id", id, "procedure", req.Spec().Procedure)
			ctx = hclog.WithContext(ctx, l)

			start := time.Now()
			res, err := next(ctx, req)
			if err != nil {
				l.Warn("request failed", "code", connect.CodeOf(err).String(), "error", err, "duration", time.Since(start))
				return nil, err
			}
			res.Header().Set(RequestIDHeader, id)
			l.Info("request served", "duration", time.Since(start))
			return res, nil
		}
	}
}

// withRequestID is the plain HTTP counterpart of NewLoggingInterceptor.
func withRequestID(logger hclog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		l := logger.With("request_id", id, "path", r.URL.Path)
		w.Header().Set(RequestIDHeader, id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(hclog.WithContext(r.Context(), l)))
		l.Info("request served", "duration", time.Since(start))
	})
}
