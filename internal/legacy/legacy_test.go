package legacy

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/EvModder/438-TSN/internal/graph"
	"github.com/EvModder/438-TSN/internal/registry"
	pebblestore "github.com/EvModder/438-TSN/internal/storage/pebble"
	"github.com/EvModder/438-TSN/internal/timeline"
)

func newMigrator(t *testing.T) *Migrator {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	reg, err := registry.Open(db, registry.Options{})
	require.NoError(t, err)
	return &Migrator{
		Registry: reg,
		Graph:    graph.New(db, reg),
		Store:    timeline.NewStore(db, nil),
		Location: time.UTC,
	}
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return dir
}

func TestImportOriginalLayout(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"userlist.txt":        "alice\nbob\ncarol\n",
		"alice/followers.txt": "bob\ncarol\nghost\n",
		"alice/timeline.txt":  "alice|first \\| post|14-03-2018 09-26-53|\n",
		"bob/timeline.txt":    "alice|first \\| post|14-03-2018 09-26-53|\nbroken line\n",
	})
	m := newMigrator(t)
	st, err := m.Import(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 3, st.Users)
	require.Equal(t, 2, st.Follows)
	require.Equal(t, 2, st.Posts)
	require.Equal(t, 2, st.Skipped)

	fs, err := m.Graph.FollowersOf("alice")
	require.NoError(t, err)
	require.Equal(t, []string{"bob", "carol"}, fs)

	tail, err := m.Store.Tail("bob", 10)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	require.Equal(t, "alice", tail[0].Author)
	require.Equal(t, "first | post", tail[0].Body)
	require.Equal(t, time.Date(2018, 3, 14, 9, 26, 53, 0, time.UTC), tail[0].Timestamp.UTC())

	// A second import keeps existing data and adds nothing new.
	st, err = m.Import(context.Background(), dir)
	require.NoError(t, err)
	require.Zero(t, st.Users)
	require.Zero(t, st.Follows)
}

func TestExportImportRoundTrip(t *testing.T) {
	src := newMigrator(t)
	ctx := context.Background()
	for _, u := range []string{"alice", "bob"} {
		_, err := src.Registry.Register(u)
		require.NoError(t, err)
	}
	require.NoError(t, src.Graph.Add(ctx, "bob", "alice"))
	ts := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, body := range []string{"one", "two | with pipe", "three\nlines"} {
		p := timeline.Post{Author: "alice", Body: body, Timestamp: ts}
		_, err := src.Store.Append(ctx, "bob", p)
		require.NoError(t, err)
	}

	dir := t.TempDir()
	st, err := src.Export(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, Stats{Users: 2, Follows: 1, Posts: 3}, st)

	dst := newMigrator(t)
	_, err = dst.Import(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, dst.Registry.AllKnownUsers())
	tail, err := dst.Store.Tail("bob", 10)
	require.NoError(t, err)
	require.Len(t, tail, 3)
	require.Equal(t, "three\nlines", tail[2].Body)
	require.True(t, tail[1].Timestamp.Equal(ts))
}
