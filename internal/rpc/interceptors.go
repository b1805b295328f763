package rpc

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/redmonkez12/go-auth-service/internal/logging"
)

// recoveryInterceptor turns handler panics into codes.Internal
func (s *Server) recoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in gRPC handler", "method", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
			err = status.Error(codes.Internal, "internal error")
		}
	}()

	return handler(ctx, req)
}

// loggingInterceptor attaches a per-call logger to ctx and logs completion
func (s *Server) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	callLogger := s.logger.WithFields(map[string]any{
		"method":    info.FullMethod,
		"remote_ip": peerIP(ctx),
	})

	resp, err := handler(logging.WithLogger(ctx, callLogger), req)

	code := status.Code(err)
	callLogger.Log(ctx, levelForCode(code), "rpc completed",
		"code", code.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return resp, err
}

func levelForCode(code codes.Code) slog.Level {
	switch code {
	case codes.OK:
		return slog.LevelInfo
	case codes.Internal, codes.Unavailable, codes.Unknown, codes.DataLoss:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
