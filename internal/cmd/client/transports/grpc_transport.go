// Package transports provides pluggable transport implementations for the CLI.
package transports

import (
	"context"
	"errors"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
)

// GrpcTransport implements SocialTransport over gRPC. Calls go through
// tsnv1.NewSNetworkClient, which sends the "application/grpc+json"
// content-type the server requires; a bare conn.Invoke would not.
type GrpcTransport struct {
	dial func(ctx context.Context) (*grpc.ClientConn, error)
}

// NewGrpcTransport constructs a new GrpcTransport using the provided dialer.
func NewGrpcTransport(dial func(ctx context.Context) (*grpc.ClientConn, error)) *GrpcTransport {
	return &GrpcTransport{dial: dial}
}

func (t *GrpcTransport) withClient(ctx context.Context, fn func(cli tsnv1.SNetworkClient) error) error {
	conn, err := t.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	return fn(tsnv1.NewSNetworkClient(conn))
}

// CreateUser registers user.
func (t *GrpcTransport) CreateUser(ctx context.Context, user string) (st tsnv1.Status, err error) {
	err = t.withClient(ctx, func(cli tsnv1.SNetworkClient) error {
		resp, err := cli.CreateUser(ctx, &tsnv1.CreateUserRequest{Username: user})
		st = resp.GetStatus()
		return err
	})
	return st, err
}

// Follow makes user follow target.
func (t *GrpcTransport) Follow(ctx context.Context, user, target string) (st tsnv1.Status, err error) {
	err = t.withClient(ctx, func(cli tsnv1.SNetworkClient) error {
		resp, err := cli.Follow(ctx, &tsnv1.PersonRequest{RequestUser: user, TargetUser: target})
		st = resp.GetStatus()
		return err
	})
	return st, err
}

// Unfollow removes the user -> target edge.
func (t *GrpcTransport) Unfollow(ctx context.Context, user, target string) (st tsnv1.Status, err error) {
	err = t.withClient(ctx, func(cli tsnv1.SNetworkClient) error {
		resp, err := cli.Unfollow(ctx, &tsnv1.PersonRequest{RequestUser: user, TargetUser: target})
		st = resp.GetStatus()
		return err
	})
	return st, err
}

// ListUsers returns every known user and user's followers.
func (t *GrpcTransport) ListUsers(ctx context.Context, user string) (out ListResult, err error) {
	err = t.withClient(ctx, func(cli tsnv1.SNetworkClient) error {
		resp, err := cli.ListUsers(ctx, &tsnv1.ListRequest{Username: user})
		if err != nil {
			return err
		}
		out = ListResult{AllUsers: resp.GetAllUsers(), Followers: resp.GetFollowers(), Status: resp.GetStatus()}
		return nil
	})
	return out, err
}

// Timeline opens a timeline stream for user and sends the handshake. The
// connection stays open until the session is closed.
func (t *GrpcTransport) Timeline(ctx context.Context, user, filter string) (Session, error) {
	conn, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	stream, err := tsnv1.NewSNetworkClient(conn).Timeline(ctx)
	if err != nil {
		cancel()
		_ = conn.Close()
		return nil, err
	}
	s := &grpcSession{user: user, stream: stream, conn: conn, cancel: cancel}
	if err := stream.Send(&tsnv1.TimelineMessage{Username: user, Filter: filter}); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

type grpcSession struct {
	user   string
	stream tsnv1.SNetwork_TimelineClient
	conn   *grpc.ClientConn
	cancel context.CancelFunc
}

func (s *grpcSession) Send(body string) error {
	return s.stream.Send(&tsnv1.TimelineMessage{Username: s.user, Body: body})
}

func (s *grpcSession) Recv() (Post, error) {
	m, err := s.stream.Recv()
	if err != nil {
		if errors.Is(err, context.Canceled) || status.Code(err) == codes.Canceled {
			return Post{}, io.EOF
		}
		return Post{}, err
	}
	return Post{ID: m.ID, Author: m.GetUsername(), Body: m.GetBody(), Timestamp: m.Timestamp, Replayed: m.Replayed}, nil
}

func (s *grpcSession) CloseSend() error { return s.stream.CloseSend() }

func (s *grpcSession) Close() error {
	s.cancel()
	return s.conn.Close()
}
