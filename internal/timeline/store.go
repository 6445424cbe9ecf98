package timeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/EvModder/438-TSN/internal/eventlog"
	pebblestore "github.com/EvModder/438-TSN/internal/storage/pebble"
	logpkg "github.com/EvModder/438-TSN/pkg/log"
)

// Store is the durable, per-user, append-only timeline log. It does not
// validate owners; appending to a never-registered owner simply creates a log.
type Store struct {
	db     *pebblestore.DB
	logger logpkg.Logger

	openMu sync.Mutex
	logs   sync.Map // owner -> *eventlog.Log
}

// NewStore returns a Store over db.
func NewStore(db *pebblestore.DB, logger logpkg.Logger) *Store {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	return &Store{db: db, logger: logger}
}

func (s *Store) log(owner string) (*eventlog.Log, error) {
	if l, ok := s.logs.Load(owner); ok {
		return l.(*eventlog.Log), nil
	}
	s.openMu.Lock()
	defer s.openMu.Unlock()
	if l, ok := s.logs.Load(owner); ok {
		return l.(*eventlog.Log), nil
	}
	l, err := eventlog.OpenLog(s.db, owner)
	if err != nil {
		return nil, err
	}
	s.logs.Store(owner, l)
	return l, nil
}

// Append durably appends p to owner's log and returns its sequence. A failed
// write is retried once before the error is returned.
func (s *Store) Append(ctx context.Context, owner string, p Post) (uint64, error) {
	l, err := s.log(owner)
	if err != nil {
		return 0, err
	}
	rec := []eventlog.AppendRecord{{Header: encodeHeader(p), Payload: encodePayload(p)}}
	seqs, err := l.Append(ctx, rec)
	if err != nil && ctx.Err() == nil {
		s.logger.Warn("timeline append failed, retrying",
			logpkg.Str("owner", owner), logpkg.Err(err))
		seqs, err = l.Append(ctx, rec)
	}
	if err != nil {
		return 0, fmt.Errorf("append %s: %w", owner, err)
	}
	return seqs[0], nil
}

// Tail returns the newest n posts of owner oldest-first. An owner without a
// log yields an empty slice.
func (s *Store) Tail(owner string, n int) ([]Entry, error) {
	l, err := s.log(owner)
	if err != nil {
		return nil, err
	}
	items, err := l.Tail(n)
	if err != nil {
		return nil, fmt.Errorf("tail %s: %w", owner, err)
	}
	return decodeItems(items)
}

// Read pages forward through owner's log starting at seq from (0 = oldest).
// It returns the next sequence to read, 0 at the end.
func (s *Store) Read(owner string, from uint64, limit int) ([]Entry, uint64, error) {
	l, err := s.log(owner)
	if err != nil {
		return nil, 0, err
	}
	items, next, err := l.Read(eventlog.ReadOptions{Start: eventlog.TokenFromSeq(from), Limit: limit})
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", owner, err)
	}
	out, err := decodeItems(items)
	if err != nil {
		return nil, 0, err
	}
	return out, next.Seq(), nil
}

// TrimOlderThan removes owner's posts with a timestamp before cutoff.
func (s *Store) TrimOlderThan(ctx context.Context, owner string, cutoff time.Time, batch int) (int, error) {
	l, err := s.log(owner)
	if err != nil {
		return 0, err
	}
	n, _, err := l.TrimOlderThan(ctx, cutoff.UnixMilli(), batch, 0, headerTimestamp)
	return n, err
}

// TrimToMaxBytes drops owner's oldest posts until the stored size fits.
func (s *Store) TrimToMaxBytes(ctx context.Context, owner string, maxBytes int64, batch int) (int, error) {
	l, err := s.log(owner)
	if err != nil {
		return 0, err
	}
	return l.TrimToMaxBytes(ctx, maxBytes, batch)
}

func decodeItems(items []eventlog.Item) ([]Entry, error) {
	out := make([]Entry, 0, len(items))
	for _, it := range items {
		p, err := decodePayload(it.Payload)
		if err != nil {
			return nil, fmt.Errorf("seq %d: %w", it.Seq, err)
		}
		out = append(out, Entry{Seq: it.Seq, Post: p})
	}
	return out, nil
}
