package grpcserver

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
	"github.com/EvModder/438-TSN/internal/runtime"
	timelinesvc "github.com/EvModder/438-TSN/internal/services/timelines"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

// Server owns the gRPC server instance and runtime.
type Server struct {
	rt     *runtime.Runtime
	svc    *timelinesvc.Service
	grpc   *grpc.Server
	health *health.Server
	logger logpkg.Logger
	lis    net.Listener
}

// New constructs a gRPC server and registers the SNetwork and health
// services. svc is shared with the other transports.
func New(rt *runtime.Runtime, svc *timelinesvc.Service, opts ...grpc.ServerOption) *Server {
	logger := rt.Logger().WithComponent("grpc")
	s := &Server{rt: rt, svc: svc, health: health.NewServer(), logger: logger}
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(s.requestIDUnary, s.loggingUnary),
		grpc.ChainStreamInterceptor(s.requestIDStream),
	}, opts...)
	s.grpc = grpc.NewServer(opts...)
	tsnv1.RegisterSNetworkServer(s.grpc, &snetworkSvc{svc: svc, logger: logger})
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.probe(context.Background())
	return s
}

// ListenAndServe binds to addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.lis = l
	s.logger.Info("grpc listening", logpkg.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(l) }()
	t := time.NewTicker(healthProbeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			s.health.Shutdown()
			s.grpc.GracefulStop()
			return nil
		case <-t.C:
			s.probe(ctx)
		case err := <-errCh:
			return err
		}
	}
}

// Close stops the server and closes the listener.
func (s *Server) Close() {
	if s.grpc != nil {
		s.health.Shutdown()
		s.grpc.GracefulStop()
	}
	if s.lis != nil {
		_ = s.lis.Close()
	}
}
