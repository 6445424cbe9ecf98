package grpcserver

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

// healthProbeInterval is how often storage health is re-checked.
const healthProbeInterval = 10 * time.Second

// probe maps runtime health onto the overall and SNetwork serving status.
func (s *Server) probe(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if err := s.rt.CheckHealth(ctx); err != nil {
		s.logger.Warn("health check failed", logpkg.Err(err))
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(tsnv1.SNetwork_ServiceName, st)
}
