package registry

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/EvModder/438-TSN/internal/delivery"
	pebblestore "github.com/EvModder/438-TSN/internal/storage/pebble"
)

func openDB(t *testing.T, dir string) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	require.NoError(t, err)
	return db
}

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	db := openDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	r, err := Open(db, Options{})
	require.NoError(t, err)
	return r
}

func TestRegister(t *testing.T) {
	r := newRegistry(t)
	_, err := r.Register("alice")
	require.NoError(t, err)
	require.True(t, r.IsKnown("alice"))

	_, err = r.Register("alice")
	require.ErrorIs(t, err, ErrAlreadyExists)

	for _, bad := range []string{"", "new\nline", "nul\x00", strings.Repeat("x", 65), "\xff\xfe"} {
		_, err := r.Register(bad)
		require.ErrorIs(t, err, ErrInvalidName, "handle %q", bad)
	}
	require.Equal(t, []string{"alice"}, r.AllKnownUsers())
}

func TestRegisterConcurrentSameName(t *testing.T) {
	r := newRegistry(t)
	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Register("bob"); err == nil {
				ok.Add(1)
			} else if !errors.Is(err, ErrAlreadyExists) {
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, ok.Load())
}

func TestImportAndRegisterRaceSameName(t *testing.T) {
	r := newRegistry(t)
	r.pending["bob"] = struct{}{}
	require.ErrorIs(t, r.Import(Meta{Name: "bob", CreatedAtMs: 1}), ErrAlreadyExists)
	delete(r.pending, "bob")

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = r.Register("carol")
			} else {
				err = r.Import(Meta{Name: "carol", CreatedAtMs: int64(i)})
			}
			if err == nil {
				ok.Add(1)
			} else if !errors.Is(err, ErrAlreadyExists) {
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, ok.Load())
	require.Empty(t, r.pending)
}

func TestUsersSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	db := openDB(t, dir)
	r, err := Open(db, Options{})
	require.NoError(t, err)
	for _, u := range []string{"carol", "alice", "bob"} {
		_, err := r.Register(u)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	db2 := openDB(t, dir)
	t.Cleanup(func() { _ = db2.Close() })
	r2, err := Open(db2, Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob", "carol"}, r2.AllKnownUsers())
}

func TestPresenceLastConnectWins(t *testing.T) {
	r := newRegistry(t)
	_, err := r.Connect("ghost", delivery.New("ghost", delivery.Options{}))
	require.ErrorIs(t, err, ErrUnknownUser)

	_, _ = r.Register("alice")
	first := delivery.New("alice", delivery.Options{})
	second := delivery.New("alice", delivery.Options{})

	prev, err := r.Connect("alice", first)
	require.NoError(t, err)
	require.Nil(t, prev)

	prev, err = r.Connect("alice", second)
	require.NoError(t, err)
	require.Same(t, first, prev)
	require.Same(t, second, r.LiveChannelOf("alice"))

	// a stale session's disconnect must not clear the newer one
	require.False(t, r.Disconnect("alice", first))
	require.Same(t, second, r.LiveChannelOf("alice"))
	require.Equal(t, 1, r.OnlineCount())

	require.True(t, r.Disconnect("alice", second))
	require.Nil(t, r.LiveChannelOf("alice"))
}

func TestClosedChannelCountsAsOffline(t *testing.T) {
	r := newRegistry(t)
	_, _ = r.Register("alice")
	ch := delivery.New("alice", delivery.Options{})
	_, _ = r.Connect("alice", ch)
	ch.Close(delivery.ErrSlowConsumer)
	require.Nil(t, r.LiveChannelOf("alice"))
	require.Equal(t, 0, r.OnlineCount())
}

func TestCloseAll(t *testing.T) {
	r := newRegistry(t)
	_, _ = r.Register("alice")
	ch := delivery.New("alice", delivery.Options{})
	_, _ = r.Connect("alice", ch)
	r.CloseAll(delivery.ErrShutdown)
	require.False(t, ch.Alive())
	require.ErrorIs(t, ch.Err(), delivery.ErrShutdown)
	require.Nil(t, r.LiveChannelOf("alice"))
}
