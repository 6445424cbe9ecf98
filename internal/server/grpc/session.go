package grpcserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
	"github.com/EvModder/438-TSN/internal/delivery"
	timelinesvc "github.com/EvModder/438-TSN/internal/services/timelines"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

// Timeline runs one session: handshake, then a reader posting client messages
// and a writer draining the delivery channel. The session ends when either
// side stops, and the channel is always released before returning.
func (s *snetworkSvc) Timeline(stream tsnv1.SNetwork_TimelineServer) error {
	ctx := stream.Context()
	hello, err := stream.Recv()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	user := hello.GetUsername()
	ch, err := s.svc.Connect(ctx, user, timelinesvc.ConnectOptions{Filter: hello.GetFilter()})
	if err != nil {
		return streamErr(err)
	}
	l := s.logger.WithContext(logpkg.ContextWith(ctx, logpkg.UserKey, user)).With(logpkg.Str("session", ch.ID()))
	l.Info("timeline session started")

	var wg sync.WaitGroup
	writeErr := make(chan error, 1)
	readErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		writeErr <- writeLoop(stream, ch)
	}()
	go func() { readErr <- s.readLoop(ctx, stream, user) }()

	select {
	case err = <-readErr:
	case err = <-writeErr:
	}
	s.svc.Disconnect(user, ch)
	wg.Wait()
	l.Info("timeline session ended", logpkg.Err(err))
	return err
}

func (s *snetworkSvc) readLoop(ctx context.Context, stream tsnv1.SNetwork_TimelineServer, user string) error {
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if u := msg.GetUsername(); u != "" && u != user {
			return status.Error(codes.InvalidArgument, fmt.Sprintf("post as %q on %q's stream", u, user))
		}
		if _, err := s.svc.Post(ctx, user, msg.GetBody()); err != nil {
			return streamErr(err)
		}
	}
}

func writeLoop(stream tsnv1.SNetwork_TimelineServer, ch *delivery.Channel) error {
	for {
		select {
		case m := <-ch.C():
			if err := stream.Send(timelinesvc.WireMessage(m)); err != nil {
				return err
			}
		case <-ch.Done():
			return streamErr(ch.Err())
		}
	}
}
