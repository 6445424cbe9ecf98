// Package eventlog implements the append-only per-user log that backs every
// timeline.
//
// # Overview
//
// Each owner (a user handle) has one log persisted in Pebble. Keys are
// lexicographically ordered for efficient range scans:
//   - tl/{owner}\x00m            (metadata: lastSeq)
//   - tl/{owner}\x00e{seq_be8}   (entries)
//
// Records are stored as: varint headerLen | header | payload | crc32c(header|payload).
// The header is opaque to this package; callers put whatever they need for
// trimming there (timelines store the post timestamp).
//
// API surface (internal)
//
//	l, _ := OpenLog(db, "alice")
//	seqs, _ := l.Append(ctx, []AppendRecord{{Header: h, Payload: p}})
//
//	// Read forward/reverse with an optional start token and limit
//	items, next, _ := l.Read(ReadOptions{Start: TokenFromSeq(seqs[0]), Limit: 100})
//	_ = next
//
//	// Newest n entries, oldest-first
//	tail, _ := l.Tail(20)
//
//	// Retention
//	_, _, _ = l.TrimOlderThan(ctx, cutoffMs, 1024, 0, tsExtractor)
//	_, _ = l.TrimToMaxBytes(ctx, maxBytes, 1024)
package eventlog
