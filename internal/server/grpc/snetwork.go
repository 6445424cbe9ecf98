package grpcserver

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
	"github.com/EvModder/438-TSN/internal/delivery"
	"github.com/EvModder/438-TSN/internal/registry"
	timelinesvc "github.com/EvModder/438-TSN/internal/services/timelines"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

type snetworkSvc struct {
	tsnv1.UnimplementedSNetworkServer
	svc    *timelinesvc.Service
	logger logpkg.Logger
}

func (s *snetworkSvc) CreateUser(ctx context.Context, req *tsnv1.CreateUserRequest) (*tsnv1.CreateUserReply, error) {
	st, err := s.svc.CreateUser(ctx, req.GetUsername())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &tsnv1.CreateUserReply{Status: st}, nil
}

func (s *snetworkSvc) Follow(ctx context.Context, req *tsnv1.PersonRequest) (*tsnv1.PersonReply, error) {
	st, err := s.svc.Follow(ctx, req.GetRequestUser(), req.GetTargetUser())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &tsnv1.PersonReply{Status: st}, nil
}

func (s *snetworkSvc) Unfollow(ctx context.Context, req *tsnv1.PersonRequest) (*tsnv1.PersonReply, error) {
	st, err := s.svc.Unfollow(ctx, req.GetRequestUser(), req.GetTargetUser())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &tsnv1.PersonReply{Status: st}, nil
}

func (s *snetworkSvc) ListUsers(ctx context.Context, req *tsnv1.ListRequest) (*tsnv1.ListReply, error) {
	all, followers, st, err := s.svc.ListUsers(ctx, req.GetUsername())
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &tsnv1.ListReply{AllUsers: all, Followers: followers, Status: st}, nil
}

// streamErr maps engine errors onto gRPC status errors for the Timeline stream.
func streamErr(err error) error {
	var se *timelinesvc.StorageError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &se):
		return status.Error(codes.Internal, err.Error())
	case errors.Is(err, registry.ErrUnknownUser):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, registry.ErrInvalidName),
		errors.Is(err, timelinesvc.ErrInvalidBody),
		errors.Is(err, timelinesvc.ErrInvalidFilter):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, timelinesvc.ErrClosed), errors.Is(err, delivery.ErrShutdown):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, delivery.ErrSuperseded):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, delivery.ErrSlowConsumer), errors.Is(err, delivery.ErrReplayOverflow):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, delivery.ErrClosed):
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Unknown, err.Error())
	}
}
