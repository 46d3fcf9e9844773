package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"github.com/dshalev/slide-explainer/internal/common"
)

// RequestIDInterceptor stamps each RPC with a request ID and scoped logger.
func RequestIDInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		reqID := uuid.NewString()
		ctx = common.WithRequestID(ctx, reqID)
		ctx = common.WithLogger(ctx, logger.With("req_id", reqID))

		start := time.Now()
		resp, err := handler(ctx, req)
		elapsed := time.Since(start)

		if err != nil {
			logger.Warn("rpc failed", "method", info.FullMethod, "req_id", reqID, "elapsed_ms", elapsed.Milliseconds(), "error", err)
		} else {
			logger.Info("rpc ok", "method", info.FullMethod, "req_id", reqID, "elapsed_ms", elapsed.Milliseconds())
		}
		return resp, err
	}
}
