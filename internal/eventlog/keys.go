package eventlog

import (
	"encoding/binary"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
//   - tl/{owner}\x00m            log metadata (lastSeq)
//   - tl/{owner}\x00e{seq_be8}   entries
//
// Owners never contain control characters, so the NUL terminator keeps the
// ranges of "bob" and "bobby" disjoint.

var (
	logPrefix = []byte("tl/")
	ownerTerm = byte(0x00)
	metaTag   = byte('m')
	entryTag  = byte('e')
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

func ownerKey(owner string, extra int) []byte {
	k := make([]byte, 0, len(logPrefix)+len(owner)+2+extra)
	k = append(k, logPrefix...)
	k = append(k, owner...)
	k = append(k, ownerTerm)
	return k
}

// KeyLogMeta builds the metadata key of owner's log.
func KeyLogMeta(owner string) []byte {
	return append(ownerKey(owner, 0), metaTag)
}

// KeyLogEntry builds the entry key with a big-endian sequence for proper ordering.
func KeyLogEntry(owner string, seq uint64) []byte {
	k := append(ownerKey(owner, 8), entryTag)
	return appendBE8(k, seq)
}

// entryBounds returns [low, high) covering every entry of owner.
func entryBounds(owner string) (low, high []byte) {
	low = append(ownerKey(owner, 0), entryTag)
	high = append(ownerKey(owner, 0), entryTag+1)
	return low, high
}

func seqFromKey(k []byte) uint64 {
	if len(k) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(k[len(k)-8:])
}
