package eventlog

import (
	"context"
	"time"

	"github.com/cockroachdb/pebble"
)

// HeaderTimestampExtractor extracts a write timestamp (ms) from an entry header.
// Returns (ms, true) if present and valid.
type HeaderTimestampExtractor func(header []byte) (int64, bool)

// TrimOlderThan deletes entries from the front of the log whose header
// timestamp is < cutoffMs, stopping at the first newer (or undecodable) entry.
// Deletes are committed in batches of up to batchLimit keys with an optional
// throttle between commits. Returns number of deleted entries and the last
// deleted sequence (0 if none).
func (l *Log) TrimOlderThan(ctx context.Context, cutoffMs int64, batchLimit int, throttle time.Duration, tsx HeaderTimestampExtractor) (int, uint64, error) {
	if batchLimit <= 0 {
		batchLimit = 1024
	}
	low, high := entryBounds(l.owner)
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	if err != nil {
		return 0, 0, err
	}
	defer iter.Close()

	deleted := 0
	var lastSeq uint64
	ok := iter.First()
	for ok {
		b := l.db.NewBatch()
		n := 0
		for ok && n < batchLimit {
			dec, err := DecodeRecord(iter.Value())
			if err != nil {
				ok = false
				break
			}
			ms, hasTs := tsx(dec.Header)
			if !hasTs || ms >= cutoffMs {
				ok = false
				break
			}
			if err := b.Delete(iter.Key(), nil); err != nil {
				b.Close()
				return deleted, lastSeq, err
			}
			lastSeq = seqFromKey(iter.Key())
			n++
			ok = iter.Next()
		}
		if n == 0 {
			b.Close()
			break
		}
		if err := l.db.CommitBatch(ctx, b); err != nil {
			b.Close()
			return deleted, lastSeq, err
		}
		b.Close()
		deleted += n
		if ok && throttle > 0 {
			select {
			case <-ctx.Done():
				return deleted, lastSeq, ctx.Err()
			case <-time.After(throttle):
			}
		}
	}
	return deleted, lastSeq, nil
}

// TrimToMaxBytes approximates retention by total value bytes. If the log
// holds more than maxBytes, the oldest entries are deleted until it fits.
// Batched like TrimOlderThan.
func (l *Log) TrimToMaxBytes(ctx context.Context, maxBytes int64, batchLimit int) (int, error) {
	if batchLimit <= 0 {
		batchLimit = 1024
	}
	if maxBytes < 0 {
		return 0, nil
	}
	low, high := entryBounds(l.owner)
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	var total int64
	for ok := iter.First(); ok; ok = iter.Next() {
		total += int64(len(iter.Value()))
	}
	if total <= maxBytes {
		return 0, nil
	}

	deleted := 0
	for ok := iter.First(); ok && total > maxBytes; {
		b := l.db.NewBatch()
		n := 0
		for ok && n < batchLimit && total > maxBytes {
			total -= int64(len(iter.Value()))
			if err := b.Delete(iter.Key(), nil); err != nil {
				b.Close()
				return deleted, err
			}
			n++
			ok = iter.Next()
		}
		if err := l.db.CommitBatch(ctx, b); err != nil {
			b.Close()
			return deleted, err
		}
		b.Close()
		deleted += n
	}
	return deleted, nil
}
