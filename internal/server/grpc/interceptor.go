package grpcserver

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

// RequestIDHeader is the metadata key carrying a caller supplied request id.
const RequestIDHeader = "x-request-id"

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(RequestIDHeader); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return uuid.NewString()
}

func (s *Server) requestIDUnary(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx = logpkg.ContextWith(ctx, logpkg.RequestIDKey, requestID(ctx))
	return handler(ctx, req)
}

func (s *Server) loggingUnary(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	resp, err := handler(ctx, req)
	l := s.logger.WithContext(ctx).With(logpkg.Str("method", info.FullMethod))
	if err != nil {
		l.Warn("rpc failed", logpkg.Str("code", status.Code(err).String()), logpkg.Err(err))
	} else {
		l.Debug("rpc")
	}
	return resp, err
}

type ctxStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (c *ctxStream) Context() context.Context { return c.ctx }

func (s *Server) requestIDStream(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx := logpkg.ContextWith(ss.Context(), logpkg.RequestIDKey, requestID(ss.Context()))
	return handler(srv, &ctxStream{ServerStream: ss, ctx: ctx})
}
