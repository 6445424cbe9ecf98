package grpcserver

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
	cfgpkg "github.com/EvModder/438-TSN/internal/config"
	"github.com/EvModder/438-TSN/internal/runtime"
	timelinesvc "github.com/EvModder/438-TSN/internal/services/timelines"
	pebblestore "github.com/EvModder/438-TSN/internal/storage/pebble"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

const bufSize = 1 << 20

func dialer(s *grpc.Server) func(context.Context, string) (net.Conn, error) {
	lis := bufconn.Listen(bufSize)
	go func() { _ = s.Serve(lis) }()
	return func(ctx context.Context, s string) (net.Conn, error) { return lis.DialContext(ctx) }
}

func newTestClient(t *testing.T, mutate func(*cfgpkg.Config)) (*grpc.ClientConn, tsnv1.SNetworkClient) {
	t.Helper()
	cfg := cfgpkg.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways, Config: cfg, Logger: logpkg.NewNopLogger()})
	if err != nil {
		t.Fatalf("rt open: %v", err)
	}
	svc := timelinesvc.NewWithLogger(rt, logpkg.NewNopLogger())
	srv := New(rt, svc)
	d := dialer(srv.grpc)
	conn, err := grpc.NewClient("passthrough:///bufnet", grpc.WithContextDialer(d), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
		srv.grpc.Stop()
		svc.Close()
		_ = rt.Close()
	})
	return conn, tsnv1.NewSNetworkClient(conn)
}

func TestHealthOverGRPC(t *testing.T) {
	conn, _ := newTestClient(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: tsnv1.SNetwork_ServiceName})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", res.GetStatus())
	}
}

func TestUnaryOverGRPC(t *testing.T) {
	_, c := newTestClient(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, u := range []string{"alice", "bob"} {
		rep, err := c.CreateUser(ctx, &tsnv1.CreateUserRequest{Username: u})
		if err != nil || rep.GetStatus() != tsnv1.Status_SUCCESS {
			t.Fatalf("create %s: %v %v", u, rep.GetStatus(), err)
		}
	}
	rep, err := c.CreateUser(ctx, &tsnv1.CreateUserRequest{Username: "alice"})
	if err != nil || rep.GetStatus() != tsnv1.Status_FAILURE_ALREADY_EXISTS {
		t.Fatalf("duplicate create: %v %v", rep.GetStatus(), err)
	}
	fr, err := c.Follow(ctx, &tsnv1.PersonRequest{RequestUser: "bob", TargetUser: "alice"})
	if err != nil || fr.GetStatus() != tsnv1.Status_SUCCESS {
		t.Fatalf("follow: %v %v", fr.GetStatus(), err)
	}
	ur, err := c.Unfollow(ctx, &tsnv1.PersonRequest{RequestUser: "alice", TargetUser: "bob"})
	if err != nil || ur.GetStatus() != tsnv1.Status_FAILURE_INVALID {
		t.Fatalf("unfollow: %v %v", ur.GetStatus(), err)
	}
	lr, err := c.ListUsers(ctx, &tsnv1.ListRequest{Username: "alice"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lr.GetAllUsers()) != 2 || len(lr.GetFollowers()) != 1 || lr.GetFollowers()[0] != "bob" {
		t.Fatalf("list = %+v", lr)
	}
	lr, err = c.ListUsers(ctx, &tsnv1.ListRequest{Username: "nobody"})
	if err != nil || lr.GetStatus() != tsnv1.Status_FAILURE_NOT_EXISTS || len(lr.GetAllUsers()) != 2 {
		t.Fatalf("list unknown = %+v, %v", lr, err)
	}
}

func openTimeline(t *testing.T, ctx context.Context, c tsnv1.SNetworkClient, hello *tsnv1.TimelineMessage) tsnv1.SNetwork_TimelineClient {
	t.Helper()
	st, err := c.Timeline(ctx)
	if err != nil {
		t.Fatalf("open timeline: %v", err)
	}
	if err := st.Send(hello); err != nil {
		t.Fatalf("handshake: %v", err)
	}
	return st
}

func TestTimelineStreamFanout(t *testing.T) {
	_, c := newTestClient(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, u := range []string{"alice", "bob"} {
		if _, err := c.CreateUser(ctx, &tsnv1.CreateUserRequest{Username: u}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := c.Follow(ctx, &tsnv1.PersonRequest{RequestUser: "bob", TargetUser: "alice"}); err != nil {
		t.Fatalf("follow: %v", err)
	}

	bob := openTimeline(t, ctx, c, &tsnv1.TimelineMessage{Username: "bob"})
	alice := openTimeline(t, ctx, c, &tsnv1.TimelineMessage{Username: "alice"})
	if err := alice.Send(&tsnv1.TimelineMessage{Username: "alice", Body: "hello | world"}); err != nil {
		t.Fatalf("post: %v", err)
	}
	got, err := bob.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if got.Username != "alice" || got.Body != "hello | world" || got.ID == "" || got.Timestamp.IsZero() {
		t.Fatalf("got %+v", got)
	}
	_ = alice.CloseSend()
	_ = bob.CloseSend()
}

func TestTimelineErrors(t *testing.T) {
	_, c := newTestClient(t, func(cfg *cfgpkg.Config) { cfg.AllowAutoRegister = false })
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.CreateUser(ctx, &tsnv1.CreateUserRequest{Username: "alice"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	cases := []struct {
		name  string
		hello *tsnv1.TimelineMessage
		post  *tsnv1.TimelineMessage
		want  codes.Code
	}{
		{"unknown user", &tsnv1.TimelineMessage{Username: "ghost"}, nil, codes.NotFound},
		{"bad filter", &tsnv1.TimelineMessage{Username: "alice", Filter: "body +"}, nil, codes.InvalidArgument},
		{"impersonation", &tsnv1.TimelineMessage{Username: "alice"}, &tsnv1.TimelineMessage{Username: "bob", Body: "hi"}, codes.InvalidArgument},
		{"empty body", &tsnv1.TimelineMessage{Username: "alice"}, &tsnv1.TimelineMessage{Username: "alice"}, codes.InvalidArgument},
	}
	for _, tc := range cases {
		st := openTimeline(t, ctx, c, tc.hello)
		if tc.post != nil {
			if err := st.Send(tc.post); err != nil {
				t.Fatalf("%s: send: %v", tc.name, err)
			}
		}
		var err error
		for err == nil {
			_, err = st.Recv()
		}
		if status.Code(err) != tc.want {
			t.Fatalf("%s: code = %v (%v), want %v", tc.name, status.Code(err), err, tc.want)
		}
	}
}
