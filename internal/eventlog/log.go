package eventlog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	pebblestore "github.com/EvModder/438-TSN/internal/storage/pebble"
)

// AppendRecord represents a single appendable entry.
type AppendRecord struct {
	Header  []byte
	Payload []byte
}

// Log provides append-only operations for one owner's log.
type Log struct {
	db    *pebblestore.DB
	owner string

	mu      sync.Mutex
	lastSeq uint64
}

// OpenLog initializes a Log and loads the last sequence from metadata (if any).
func OpenLog(db *pebblestore.DB, owner string) (*Log, error) {
	l := &Log{db: db, owner: owner}
	meta, err := db.Get(KeyLogMeta(owner))
	switch {
	case err == nil && len(meta) >= 8:
		l.lastSeq = binary.BigEndian.Uint64(meta[:8])
	case err == nil:
		return nil, fmt.Errorf("eventlog: short meta for %q", owner)
	case !errors.Is(err, pebblestore.ErrNotFound):
		return nil, fmt.Errorf("eventlog: load meta for %q: %w", owner, err)
	}
	return l, nil
}

// Owner returns the user whose log this is.
func (l *Log) Owner() string { return l.owner }

// LastSeq returns the sequence of the newest appended entry, 0 when empty.
func (l *Log) LastSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeq
}

// Append appends the provided records as a single atomic batch. Returns
// assigned seq numbers. On failure the in-memory sequence is left untouched so
// a retry reuses the same numbers.
func (l *Log) Append(ctx context.Context, recs []AppendRecord) ([]uint64, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.db.NewBatch()
	defer b.Close()

	seqs := make([]uint64, len(recs))
	next := l.lastSeq
	for i, r := range recs {
		next++
		if err := b.Set(KeyLogEntry(l.owner, next), EncodeRecord(r.Header, r.Payload), nil); err != nil {
			return nil, err
		}
		seqs[i] = next
	}

	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], next)
	if err := b.Set(KeyLogMeta(l.owner), meta[:], nil); err != nil {
		return nil, err
	}

	if err := l.db.CommitBatch(ctx, b); err != nil {
		return nil, err
	}
	l.lastSeq = next
	return seqs, nil
}
