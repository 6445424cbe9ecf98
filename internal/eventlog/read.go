package eventlog

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// Token encodes the starting position as seq (8 bytes big-endian).
type Token [8]byte

// TokenFromSeq returns a token positioned at seq.
func TokenFromSeq(seq uint64) Token { var t Token; binary.BigEndian.PutUint64(t[:], seq); return t }
func (t Token) Seq() uint64         { return binary.BigEndian.Uint64(t[:]) }
func (t Token) IsZero() bool        { return t == Token{} }

type ReadOptions struct {
	Start   Token // if zero, begin from the first (or last, when Reverse) entry
	Limit   int
	Reverse bool
}

type Item struct {
	Seq     uint64
	Header  []byte
	Payload []byte
}

// Read returns up to Limit items starting at Start (inclusive when forward,
// exclusive when reverse). The returned token is the position of the next
// unread entry, zero when the scan reached the end.
func (l *Log) Read(opts ReadOptions) ([]Item, Token, error) {
	var next Token
	low, high := entryBounds(l.owner)
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: low, UpperBound: high})
	if err != nil {
		return nil, next, err
	}
	defer iter.Close()

	items := make([]Item, 0, max(1, opts.Limit))
	startSeq := opts.Start.Seq()

	var valid bool
	step := iter.Next
	if opts.Reverse {
		step = iter.Prev
		if startSeq == 0 {
			valid = iter.Last()
		} else {
			valid = iter.SeekLT(KeyLogEntry(l.owner, startSeq))
		}
	} else {
		if startSeq == 0 {
			valid = iter.First()
		} else {
			valid = iter.SeekGE(KeyLogEntry(l.owner, startSeq))
		}
	}

	for ; valid && (opts.Limit <= 0 || len(items) < opts.Limit); valid = step() {
		seq := seqFromKey(iter.Key())
		dec, err := DecodeRecord(iter.Value())
		if err != nil {
			return items, next, fmt.Errorf("%s seq %d: %w", l.owner, seq, err)
		}
		items = append(items, Item{Seq: seq, Header: dec.Header, Payload: dec.Payload})
	}
	if err := iter.Error(); err != nil {
		return items, next, err
	}
	if valid {
		copy(next[:], iter.Key()[len(iter.Key())-8:])
	}
	return items, next, nil
}

// Tail returns the newest n entries oldest-first. A log with fewer entries
// returns all of them.
func (l *Log) Tail(n int) ([]Item, error) {
	if n <= 0 {
		return nil, nil
	}
	items, _, err := l.Read(ReadOptions{Reverse: true, Limit: n})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}
