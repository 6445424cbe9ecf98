package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
)

type snetworkStub struct {
	tsnv1.UnimplementedSNetworkServer
	mu      sync.Mutex
	users   map[string]bool
	follows []string
	hello   *tsnv1.TimelineMessage
}

func (s *snetworkStub) CreateUser(_ context.Context, req *tsnv1.CreateUserRequest) (*tsnv1.CreateUserReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users[req.GetUsername()] {
		return &tsnv1.CreateUserReply{Status: tsnv1.Status_FAILURE_ALREADY_EXISTS}, nil
	}
	s.users[req.GetUsername()] = true
	return &tsnv1.CreateUserReply{Status: tsnv1.Status_SUCCESS}, nil
}

func (s *snetworkStub) Follow(_ context.Context, req *tsnv1.PersonRequest) (*tsnv1.PersonReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.users[req.GetTargetUser()] {
		return &tsnv1.PersonReply{Status: tsnv1.Status_FAILURE_NOT_EXISTS}, nil
	}
	s.follows = append(s.follows, req.GetRequestUser()+"->"+req.GetTargetUser())
	return &tsnv1.PersonReply{Status: tsnv1.Status_SUCCESS}, nil
}

func (s *snetworkStub) ListUsers(_ context.Context, req *tsnv1.ListRequest) (*tsnv1.ListReply, error) {
	return &tsnv1.ListReply{AllUsers: []string{"alice", "bob"}, Followers: []string{"bob"}, Status: tsnv1.Status_SUCCESS}, nil
}

// Timeline echoes every post back as if it came from the timeline.
func (s *snetworkStub) Timeline(stream tsnv1.SNetwork_TimelineServer) error {
	hello, err := stream.Recv()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.hello = hello
	s.mu.Unlock()
	for {
		m, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		out := &tsnv1.TimelineMessage{Username: m.GetUsername(), Body: m.GetBody(), Timestamp: time.Date(2024, 3, 5, 10, 30, 0, 0, time.Local)}
		if err := stream.Send(out); err != nil {
			return err
		}
	}
}

func startGRPCStub(t *testing.T, svc tsnv1.SNetworkServer) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := grpc.NewServer()
	tsnv1.RegisterSNetworkServer(s, svc)
	go func() { _ = s.Serve(l) }()
	t.Cleanup(s.Stop)
	t.Setenv("TSN_GRPC", l.Addr().String())
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRoot()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestCreateUserAndFollow(t *testing.T) {
	stub := &snetworkStub{users: map[string]bool{}}
	startGRPCStub(t, stub)

	out, err := run(t, "", "-u", "alice", "create-user")
	require.NoError(t, err)
	require.Contains(t, out, "status: SUCCESS")

	out, err = run(t, "", "-u", "alice", "create-user")
	require.Error(t, err)
	require.Contains(t, out, "FAILURE_ALREADY_EXISTS")

	_, err = run(t, "", "-u", "bob", "follow", "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"bob->alice"}, stub.follows)

	_, err = run(t, "", "-u", "bob", "follow", "nobody")
	require.ErrorContains(t, err, "FAILURE_NOT_EXISTS")
}

func TestListPrintsUsers(t *testing.T) {
	startGRPCStub(t, &snetworkStub{users: map[string]bool{}})
	out, err := run(t, "", "-u", "alice", "list")
	require.NoError(t, err)
	require.Contains(t, out, "All users: alice, bob")
	require.Contains(t, out, "Followers: bob")
}

func TestTimelinePostsStdinAndPrintsPosts(t *testing.T) {
	stub := &snetworkStub{users: map[string]bool{"bob": true}}
	startGRPCStub(t, stub)

	out, err := run(t, "hello world\n\nsecond\n", "-u", "bob", "timeline", "--filter", `author != "x"`)
	require.NoError(t, err)
	require.Contains(t, out, "Now you are in the timeline")
	require.Contains(t, out, "bob (Tue Mar  5 10:30:00 2024) >> hello world")
	require.Contains(t, out, "bob (Tue Mar  5 10:30:00 2024) >> second")
	require.Equal(t, 2, strings.Count(out, ">>"))
	require.Equal(t, "bob", stub.hello.GetUsername())
	require.Equal(t, `author != "x"`, stub.hello.GetFilter())
}

func TestShellCommands(t *testing.T) {
	stub := &snetworkStub{users: map[string]bool{"alice": true}}
	startGRPCStub(t, stub)

	out, err := run(t, "follow alice\nLIST\nfrobnicate\nTIMELINE\nposted from shell\n", "-u", "carol", "shell")
	require.NoError(t, err)
	require.Equal(t, []string{"carol->alice"}, stub.follows)
	require.Contains(t, out, "All users: alice, bob")
	require.Contains(t, out, "unknown command: frobnicate")
	require.Contains(t, out, ">> posted from shell")
}
