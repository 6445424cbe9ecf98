package timelinesvc

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	tsnv1 "github.com/EvModder/438-TSN/api/tsn/v1"
	cfgpkg "github.com/EvModder/438-TSN/internal/config"
	"github.com/EvModder/438-TSN/internal/delivery"
	"github.com/EvModder/438-TSN/internal/registry"
	"github.com/EvModder/438-TSN/internal/runtime"
	pebblestore "github.com/EvModder/438-TSN/internal/storage/pebble"
	"github.com/EvModder/438-TSN/internal/timeline"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

func newServiceForTest(t *testing.T, mutate func(*cfgpkg.Config)) (*Service, *runtime.Runtime) {
	t.Helper()
	cfg := cfgpkg.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever, Config: cfg})
	require.NoError(t, err)
	svc := NewWithLogger(rt, logpkg.NewNopLogger())
	t.Cleanup(func() {
		svc.Close()
		_ = rt.Close()
	})
	return svc, rt
}

func mustCreate(t *testing.T, svc *Service, users ...string) {
	t.Helper()
	for _, u := range users {
		st, err := svc.CreateUser(context.Background(), u)
		require.NoError(t, err)
		require.Equal(t, tsnv1.Status_SUCCESS, st, u)
	}
}

func mustFollow(t *testing.T, svc *Service, follower, followed string) {
	t.Helper()
	st, err := svc.Follow(context.Background(), follower, followed)
	require.NoError(t, err)
	require.Equal(t, tsnv1.Status_SUCCESS, st)
}

func recv(t *testing.T, ch *delivery.Channel, n int) []delivery.Message {
	t.Helper()
	out := make([]delivery.Message, 0, n)
	deadline := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case m := <-ch.C():
			out = append(out, m)
		case <-deadline:
			t.Fatalf("received %d of %d messages", len(out), n)
		}
	}
	return out
}

func requireQuiet(t *testing.T, ch *delivery.Channel) {
	t.Helper()
	select {
	case m := <-ch.C():
		t.Fatalf("unexpected message %+v", m)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCreateUserStatuses(t *testing.T) {
	svc, _ := newServiceForTest(t, nil)
	ctx := context.Background()
	cases := []struct {
		name string
		want tsnv1.Status
	}{
		{"alice", tsnv1.Status_SUCCESS},
		{"alice", tsnv1.Status_FAILURE_ALREADY_EXISTS},
		{"", tsnv1.Status_FAILURE_INVALID_USERNAME},
		{"bad\nname", tsnv1.Status_FAILURE_INVALID_USERNAME},
		{strings.Repeat("x", 65), tsnv1.Status_FAILURE_INVALID_USERNAME},
	}
	for _, c := range cases {
		st, err := svc.CreateUser(ctx, c.name)
		require.NoError(t, err)
		require.Equal(t, c.want, st, "%q", c.name)
	}
}

func TestFollowUnfollowStatuses(t *testing.T) {
	svc, _ := newServiceForTest(t, nil)
	ctx := context.Background()
	mustCreate(t, svc, "alice", "bob")

	st, _ := svc.Follow(ctx, "bob", "alice")
	require.Equal(t, tsnv1.Status_SUCCESS, st)
	st, _ = svc.Follow(ctx, "bob", "alice")
	require.Equal(t, tsnv1.Status_FAILURE_ALREADY_EXISTS, st)
	st, _ = svc.Follow(ctx, "bob", "bob")
	require.Equal(t, tsnv1.Status_FAILURE_INVALID_USERNAME, st)
	st, _ = svc.Follow(ctx, "bob", "nobody")
	require.Equal(t, tsnv1.Status_FAILURE_INVALID_USERNAME, st)

	st, _ = svc.Unfollow(ctx, "bob", "alice")
	require.Equal(t, tsnv1.Status_SUCCESS, st)
	st, _ = svc.Unfollow(ctx, "bob", "alice")
	require.Equal(t, tsnv1.Status_FAILURE_INVALID, st)
	st, _ = svc.Unfollow(ctx, "bob", "nobody")
	require.Equal(t, tsnv1.Status_FAILURE_INVALID_USERNAME, st)
}

func TestListUsers(t *testing.T) {
	svc, _ := newServiceForTest(t, nil)
	ctx := context.Background()
	mustCreate(t, svc, "carol", "alice", "bob")
	mustFollow(t, svc, "carol", "alice")
	mustFollow(t, svc, "bob", "alice")

	all, followers, st, err := svc.ListUsers(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, tsnv1.Status_SUCCESS, st)
	require.Equal(t, []string{"alice", "bob", "carol"}, all)
	require.Equal(t, []string{"carol", "bob"}, followers)

	all, followers, st, err = svc.ListUsers(ctx, "zed")
	require.NoError(t, err)
	require.Equal(t, tsnv1.Status_FAILURE_NOT_EXISTS, st)
	require.Len(t, all, 3)
	require.Empty(t, followers)
}

func TestFanoutLiveAndOffline(t *testing.T) {
	svc, rt := newServiceForTest(t, nil)
	ctx := context.Background()
	mustCreate(t, svc, "alice", "bob", "carol")
	mustFollow(t, svc, "bob", "alice")
	mustFollow(t, svc, "carol", "alice")

	bob, err := svc.Connect(ctx, "bob", ConnectOptions{})
	require.NoError(t, err)
	defer svc.Disconnect("bob", bob)

	p, err := svc.Post(ctx, "alice", "hello")
	require.NoError(t, err)

	got := recv(t, bob, 1)
	require.Equal(t, p.ID, got[0].Post.ID)
	require.False(t, got[0].Replayed)
	svc.fanouts.Wait()

	for _, u := range []string{"alice", "bob", "carol"} {
		tail, err := rt.Timelines().Tail(u, 10)
		require.NoError(t, err)
		require.Len(t, tail, 1, u)
		require.Equal(t, "hello", tail[0].Body)
		require.Equal(t, p.Timestamp.UnixNano(), tail[0].Timestamp.UnixNano())
	}

	carol, err := svc.Connect(ctx, "carol", ConnectOptions{})
	require.NoError(t, err)
	defer svc.Disconnect("carol", carol)
	replay := recv(t, carol, 1)
	require.True(t, replay[0].Replayed)
	require.Equal(t, p.ID, replay[0].Post.ID)
}

func TestAuthorNotPushedOwnPosts(t *testing.T) {
	svc, _ := newServiceForTest(t, nil)
	ctx := context.Background()
	mustCreate(t, svc, "alice")
	ch, err := svc.Connect(ctx, "alice", ConnectOptions{})
	require.NoError(t, err)
	defer svc.Disconnect("alice", ch)
	_, err = svc.Post(ctx, "alice", "me")
	require.NoError(t, err)
	svc.fanouts.Wait()
	requireQuiet(t, ch)
}

func TestPerAuthorOrdering(t *testing.T) {
	svc, _ := newServiceForTest(t, nil)
	ctx := context.Background()
	mustCreate(t, svc, "alice", "bob")
	mustFollow(t, svc, "bob", "alice")
	bob, err := svc.Connect(ctx, "bob", ConnectOptions{})
	require.NoError(t, err)
	defer svc.Disconnect("bob", bob)

	const n = 50
	for i := 0; i < n; i++ {
		_, err := svc.Post(ctx, "alice", fmt.Sprintf("m%02d", i))
		require.NoError(t, err)
	}
	got := recv(t, bob, n)
	for i, m := range got {
		require.Equal(t, fmt.Sprintf("m%02d", i), m.Post.Body)
	}
}

func TestAcceptanceOrderAcrossAuthors(t *testing.T) {
	svc, rt := newServiceForTest(t, nil)
	ctx := context.Background()
	mustCreate(t, svc, "alice", "carol", "bob")
	for i := 0; i < 200; i++ {
		name := fmt.Sprintf("fan%03d", i)
		mustCreate(t, svc, name)
		mustFollow(t, svc, name, "alice")
	}
	mustFollow(t, svc, "bob", "alice")
	mustFollow(t, svc, "bob", "carol")
	bob, err := svc.Connect(ctx, "bob", ConnectOptions{})
	require.NoError(t, err)
	defer svc.Disconnect("bob", bob)

	const rounds = 5
	var want []string
	for i := 0; i < rounds; i++ {
		for _, author := range []string{"alice", "carol"} {
			body := fmt.Sprintf("%s%d", author[:1], i)
			_, err := svc.Post(ctx, author, body)
			require.NoError(t, err)
			want = append(want, body)
		}
	}

	got := recv(t, bob, len(want))
	live := make([]string, len(got))
	for i, m := range got {
		live[i] = m.Post.Body
	}
	require.Equal(t, want, live)

	svc.fanouts.Wait()
	tail, err := rt.Timelines().Tail("bob", len(want))
	require.NoError(t, err)
	logged := make([]string, len(tail))
	for i, e := range tail {
		logged[i] = e.Body
	}
	require.Equal(t, want, logged)
}

func TestReplayTailBound(t *testing.T) {
	svc, _ := newServiceForTest(t, nil)
	ctx := context.Background()
	mustCreate(t, svc, "alice", "bob")
	mustFollow(t, svc, "bob", "alice")
	for i := 0; i < 25; i++ {
		_, err := svc.Post(ctx, "alice", fmt.Sprintf("m%02d", i))
		require.NoError(t, err)
	}
	svc.fanouts.Wait()

	bob, err := svc.Connect(ctx, "bob", ConnectOptions{})
	require.NoError(t, err)
	defer svc.Disconnect("bob", bob)
	got := recv(t, bob, 20)
	require.Equal(t, "m05", got[0].Post.Body)
	require.Equal(t, "m24", got[19].Post.Body)
	requireQuiet(t, bob)
}

func TestConnectDuringPostsDeliversExactlyOnce(t *testing.T) {
	svc, _ := newServiceForTest(t, func(c *cfgpkg.Config) {
		c.ReplayCount = 500
		c.ChannelBuffer = 1024
	})
	ctx := context.Background()
	mustCreate(t, svc, "alice", "bob")
	mustFollow(t, svc, "bob", "alice")

	const n = 200
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			if _, err := svc.Post(ctx, "alice", fmt.Sprintf("m%03d", i)); err != nil {
				t.Errorf("post: %v", err)
				return
			}
		}
	}()
	time.Sleep(5 * time.Millisecond)
	bob, err := svc.Connect(ctx, "bob", ConnectOptions{})
	require.NoError(t, err)
	defer svc.Disconnect("bob", bob)
	wg.Wait()

	got := recv(t, bob, n)
	for i, m := range got {
		require.Equal(t, fmt.Sprintf("m%03d", i), m.Post.Body)
	}
	requireQuiet(t, bob)
}

func TestReconnectSupersedes(t *testing.T) {
	svc, rt := newServiceForTest(t, nil)
	ctx := context.Background()
	mustCreate(t, svc, "bob")
	first, err := svc.Connect(ctx, "bob", ConnectOptions{})
	require.NoError(t, err)
	second, err := svc.Connect(ctx, "bob", ConnectOptions{})
	require.NoError(t, err)

	<-first.Done()
	require.ErrorIs(t, first.Err(), delivery.ErrSuperseded)
	require.Same(t, second, rt.Registry().LiveChannelOf("bob"))

	// A late disconnect of the old session leaves the new one online.
	svc.Disconnect("bob", first)
	require.Same(t, second, rt.Registry().LiveChannelOf("bob"))
	svc.Disconnect("bob", second)
	require.Nil(t, rt.Registry().LiveChannelOf("bob"))
}

func TestConnectAutoRegister(t *testing.T) {
	svc, rt := newServiceForTest(t, nil)
	ch, err := svc.Connect(context.Background(), "newbie", ConnectOptions{})
	require.NoError(t, err)
	defer svc.Disconnect("newbie", ch)
	require.True(t, rt.Registry().IsKnown("newbie"))
}

func TestConnectUnknownWithoutAutoRegister(t *testing.T) {
	svc, _ := newServiceForTest(t, func(c *cfgpkg.Config) { c.AllowAutoRegister = false })
	_, err := svc.Connect(context.Background(), "ghost", ConnectOptions{})
	require.ErrorIs(t, err, registry.ErrUnknownUser)
}

func TestPostValidation(t *testing.T) {
	svc, _ := newServiceForTest(t, func(c *cfgpkg.Config) { c.MaxBodyBytes = 8 })
	ctx := context.Background()
	mustCreate(t, svc, "alice")

	_, err := svc.Post(ctx, "ghost", "hi")
	require.ErrorIs(t, err, registry.ErrUnknownUser)
	_, err = svc.Post(ctx, "alice", "")
	require.ErrorIs(t, err, ErrInvalidBody)
	_, err = svc.Post(ctx, "alice", "123456789")
	require.ErrorIs(t, err, ErrInvalidBody)
	_, err = svc.Post(ctx, "alice", "a|b\\c\n")
	require.NoError(t, err)
}

func TestSlowConsumerIsDisconnected(t *testing.T) {
	svc, rt := newServiceForTest(t, func(c *cfgpkg.Config) {
		c.ReplayCount = 0
		c.ChannelBuffer = 1
		c.PushTimeoutMs = 20
	})
	ctx := context.Background()
	mustCreate(t, svc, "alice", "bob")
	mustFollow(t, svc, "bob", "alice")
	bob, err := svc.Connect(ctx, "bob", ConnectOptions{})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.Post(ctx, "alice", fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}
	svc.fanouts.Wait()

	require.ErrorIs(t, bob.Err(), delivery.ErrSlowConsumer)
	require.Nil(t, rt.Registry().LiveChannelOf("bob"))
	tail, err := rt.Timelines().Tail("bob", 10)
	require.NoError(t, err)
	require.Len(t, tail, 3)
}

func TestFilteredSession(t *testing.T) {
	svc, _ := newServiceForTest(t, nil)
	ctx := context.Background()
	mustCreate(t, svc, "alice", "bob")
	mustFollow(t, svc, "bob", "alice")
	_, err := svc.Post(ctx, "alice", "old news")
	require.NoError(t, err)
	_, err = svc.Post(ctx, "alice", "old go news")
	require.NoError(t, err)
	svc.fanouts.Wait()

	bob, err := svc.Connect(ctx, "bob", ConnectOptions{Filter: `body.contains("go")`})
	require.NoError(t, err)
	defer svc.Disconnect("bob", bob)
	replay := recv(t, bob, 1)
	require.Equal(t, "old go news", replay[0].Post.Body)

	_, err = svc.Post(ctx, "alice", "nothing here")
	require.NoError(t, err)
	_, err = svc.Post(ctx, "alice", "go 1.24 is out")
	require.NoError(t, err)
	live := recv(t, bob, 1)
	require.Equal(t, "go 1.24 is out", live[0].Post.Body)
	requireQuiet(t, bob)
}

func TestInvalidFilterRejected(t *testing.T) {
	svc, _ := newServiceForTest(t, nil)
	_, err := svc.Connect(context.Background(), "bob", ConnectOptions{Filter: "body +"})
	require.ErrorIs(t, err, ErrInvalidFilter)
	_, err = svc.Connect(context.Background(), "bob", ConnectOptions{Filter: "body"})
	require.ErrorIs(t, err, ErrInvalidFilter)
}

func TestFollowerAppendFailureIsIsolated(t *testing.T) {
	svc, rt := newServiceForTest(t, nil)
	ctx := context.Background()
	mustCreate(t, svc, "alice", "bob", "carol", "dave")
	for _, f := range []string{"bob", "carol", "dave"} {
		mustFollow(t, svc, f, "alice")
	}
	store := svc.appendPost
	svc.appendPost = func(ctx context.Context, owner string, p timeline.Post) error {
		if owner == "carol" {
			return errors.New("disk full")
		}
		return store(ctx, owner, p)
	}
	bob, err := svc.Connect(ctx, "bob", ConnectOptions{})
	require.NoError(t, err)
	defer svc.Disconnect("bob", bob)
	dave, err := svc.Connect(ctx, "dave", ConnectOptions{})
	require.NoError(t, err)
	defer svc.Disconnect("dave", dave)

	p, err := svc.Post(ctx, "alice", "still here")
	require.NoError(t, err)
	require.Equal(t, p.ID, recv(t, bob, 1)[0].Post.ID)
	require.Equal(t, p.ID, recv(t, dave, 1)[0].Post.ID)
	svc.fanouts.Wait()

	for user, n := range map[string]int{"alice": 1, "bob": 1, "carol": 0, "dave": 1} {
		tail, err := rt.Timelines().Tail(user, 10)
		require.NoError(t, err)
		require.Len(t, tail, n, user)
	}

	rec := httptest.NewRecorder()
	rt.Metrics().Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Contains(t, rec.Body.String(), `tsn_fanout_appends_total{result="error"} 1`)
	require.Contains(t, rec.Body.String(), `tsn_fanout_appends_total{result="ok"} 2`)
	require.Contains(t, rec.Body.String(), `tsn_posts_accepted_total 1`)
}

func TestAuthorAppendFailureRejectsPost(t *testing.T) {
	svc, rt := newServiceForTest(t, nil)
	ctx := context.Background()
	mustCreate(t, svc, "alice", "bob")
	mustFollow(t, svc, "bob", "alice")
	store := svc.appendPost
	svc.appendPost = func(ctx context.Context, owner string, p timeline.Post) error {
		if owner == "alice" {
			return errors.New("disk full")
		}
		return store(ctx, owner, p)
	}

	_, err := svc.Post(ctx, "alice", "lost")
	require.True(t, IsStorage(err), "%v", err)
	svc.fanouts.Wait()
	tail, err := rt.Timelines().Tail("bob", 10)
	require.NoError(t, err)
	require.Empty(t, tail)
}

func TestConnectRacingCloseIsShutDown(t *testing.T) {
	svc, rt := newServiceForTest(t, nil)
	mustCreate(t, svc, "bob")

	unlock := svc.recipients.Lock("bob")
	type result struct {
		ch  *delivery.Channel
		err error
	}
	done := make(chan result, 1)
	go func() {
		ch, err := svc.Connect(context.Background(), "bob", ConnectOptions{})
		done <- result{ch, err}
	}()
	time.Sleep(20 * time.Millisecond)
	svc.Close()
	unlock()

	r := <-done
	require.ErrorIs(t, r.err, ErrClosed)
	require.Nil(t, r.ch)
	require.Nil(t, rt.Registry().LiveChannelOf("bob"))
}

func TestCloseRejectsNewWork(t *testing.T) {
	svc, _ := newServiceForTest(t, nil)
	ctx := context.Background()
	mustCreate(t, svc, "alice")
	ch, err := svc.Connect(ctx, "alice", ConnectOptions{})
	require.NoError(t, err)
	svc.Close()

	<-ch.Done()
	require.ErrorIs(t, ch.Err(), delivery.ErrShutdown)
	_, err = svc.Connect(ctx, "alice", ConnectOptions{})
	require.ErrorIs(t, err, ErrClosed)
	_, err = svc.Post(ctx, "alice", "late")
	require.ErrorIs(t, err, ErrClosed)
}
