package timeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	pebblestore "github.com/EvModder/438-TSN/internal/storage/pebble"
	"github.com/EvModder/438-TSN/pkg/id"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db, nil)
}

func TestPayloadRoundTrip(t *testing.T) {
	g := id.NewGenerator()
	ts := time.Date(2024, 2, 29, 23, 59, 58, 123456789, time.UTC)
	for _, body := range []string{"hello", "a|b|c|", `back\slash`, "new\nline", "", "emoji 🎉"} {
		in := Post{ID: g.Next(), Author: "alice", Body: body, Timestamp: ts}
		out, err := decodePayload(encodePayload(in))
		if err != nil {
			t.Fatalf("decode %q: %v", body, err)
		}
		if out.ID != in.ID || out.Author != in.Author || out.Body != in.Body || !out.Timestamp.Equal(in.Timestamp) {
			t.Fatalf("round trip mismatch: %+v != %+v", out, in)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := decodePayload([]byte{0x12, 0xff}); err == nil {
		t.Fatalf("expected error for truncated payload")
	}
}

func TestAppendTail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < 25; i++ {
		p := Post{Author: "bob", Body: fmt.Sprintf("post %d", i), Timestamp: base.Add(time.Duration(i) * time.Second)}
		seq, err := s.Append(ctx, "alice", p)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if seq != uint64(i+1) {
			t.Fatalf("seq = %d, want %d", seq, i+1)
		}
	}
	tail, err := s.Tail("alice", 20)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(tail) != 20 {
		t.Fatalf("tail len = %d", len(tail))
	}
	if tail[0].Body != "post 5" || tail[19].Body != "post 24" {
		t.Fatalf("tail window: first=%q last=%q", tail[0].Body, tail[19].Body)
	}

	none, err := s.Tail("stranger", 20)
	if err != nil || len(none) != 0 {
		t.Fatalf("empty tail: %v %v", none, err)
	}
}

func TestReadPaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := s.Append(ctx, "carol", Post{Author: "carol", Body: fmt.Sprint(i), Timestamp: time.Now()}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	var got []string
	var from uint64
	for {
		page, next, err := s.Read("carol", from, 2)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		for _, e := range page {
			got = append(got, e.Body)
		}
		if next == 0 {
			break
		}
		from = next
	}
	if fmt.Sprint(got) != "[0 1 2 3 4]" {
		t.Fatalf("paged read = %v", got)
	}
}

func TestTrimOlderThan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	for i, age := range []time.Duration{48 * time.Hour, 25 * time.Hour, time.Hour} {
		if _, err := s.Append(ctx, "dave", Post{Author: "dave", Body: fmt.Sprint(i), Timestamp: now.Add(-age)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	n, err := s.TrimOlderThan(ctx, "dave", now.Add(-24*time.Hour), 0)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	if n != 2 {
		t.Fatalf("trimmed %d, want 2", n)
	}
	tail, _ := s.Tail("dave", 20)
	if len(tail) != 1 || tail[0].Body != "2" {
		t.Fatalf("survivors: %+v", tail)
	}
	// new appends continue the sequence after a trim
	seq, err := s.Append(ctx, "dave", Post{Author: "dave", Body: "3", Timestamp: now})
	if err != nil || seq != 4 {
		t.Fatalf("append after trim: seq=%d err=%v", seq, err)
	}
}
