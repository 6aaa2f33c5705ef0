package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/tair/fulfillment-ledger/pkg/logger"
	"github.com/tair/fulfillment-ledger/pkg/metrics"
)

// observe counts the call and logs its outcome. The logger picks the trace
// id up from ctx.
func observe(ctx context.Context, method string, start time.Time, err error) {
	code := status.Code(err).String()
	metrics.GRPCRequests.WithLabelValues(method, code).Inc()

	if err != nil {
		logger.Error(ctx).
			Err(err).
			Str("method", method).
			Str("grpc_status", code).
			Dur("duration", time.Since(start)).
			Msg("gRPC call failed")
		return
	}
	logger.Debug(ctx).
		Str("method", method).
		Dur("duration", time.Since(start)).
		Msg("gRPC call completed")
}

// UnaryObserver records Check calls.
func UnaryObserver(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	observe(ctx, info.FullMethod, start, err)
	return resp, err
}

// StreamObserver records Watch streams once they end.
func StreamObserver(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	start := time.Now()
	err := handler(srv, ss)
	observe(ss.Context(), info.FullMethod, start, err)
	return err
}
