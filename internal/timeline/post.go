package timeline

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/EvModder/438-TSN/pkg/id"
)

// Post is an immutable timeline entry.
type Post struct {
	ID        id.ID
	Author    string
	Body      string
	Timestamp time.Time
}

// Entry is a Post as stored in a particular user's log.
type Entry struct {
	Seq uint64
	Post
}

// Payload field numbers.
const (
	fieldID        protowire.Number = 1
	fieldAuthor    protowire.Number = 2
	fieldBody      protowire.Number = 3
	fieldTimestamp protowire.Number = 4
)

var errBadPayload = errors.New("timeline: malformed post payload")

// encodeHeader stores the timestamp in ms so retention can trim without
// decoding payloads.
func encodeHeader(p Post) []byte {
	return binary.BigEndian.AppendUint64(nil, uint64(p.Timestamp.UnixMilli()))
}

func headerTimestamp(h []byte) (int64, bool) {
	if len(h) < 8 {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(h[:8])), true
}

// encodePayload writes p in protobuf wire format. Fields are length
// delimited, so bodies may contain any byte sequence.
func encodePayload(p Post) []byte {
	b := make([]byte, 0, 32+len(p.Author)+len(p.Body))
	if !p.ID.IsZero() {
		b = protowire.AppendTag(b, fieldID, protowire.BytesType)
		b = protowire.AppendBytes(b, p.ID[:])
	}
	b = protowire.AppendTag(b, fieldAuthor, protowire.BytesType)
	b = protowire.AppendString(b, p.Author)
	b = protowire.AppendTag(b, fieldBody, protowire.BytesType)
	b = protowire.AppendString(b, p.Body)
	b = protowire.AppendTag(b, fieldTimestamp, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(p.Timestamp.UnixNano()))
	return b
}

func decodePayload(b []byte) (Post, error) {
	var p Post
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Post{}, fmt.Errorf("%w: %v", errBadPayload, protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldID && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(b)
			if m < 0 {
				return Post{}, fmt.Errorf("%w: id: %v", errBadPayload, protowire.ParseError(m))
			}
			pid, err := id.FromBytes(v)
			if err != nil {
				return Post{}, fmt.Errorf("%w: id: %v", errBadPayload, err)
			}
			p.ID = pid
			n = m
		case num == fieldAuthor && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return Post{}, fmt.Errorf("%w: author: %v", errBadPayload, protowire.ParseError(m))
			}
			p.Author = v
			n = m
		case num == fieldBody && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(b)
			if m < 0 {
				return Post{}, fmt.Errorf("%w: body: %v", errBadPayload, protowire.ParseError(m))
			}
			p.Body = v
			n = m
		case num == fieldTimestamp && typ == protowire.VarintType:
			v, m := protowire.ConsumeVarint(b)
			if m < 0 {
				return Post{}, fmt.Errorf("%w: timestamp: %v", errBadPayload, protowire.ParseError(m))
			}
			p.Timestamp = time.Unix(0, protowire.DecodeZigZag(v)).UTC()
			n = m
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Post{}, fmt.Errorf("%w: field %d: %v", errBadPayload, num, protowire.ParseError(n))
			}
		}
		b = b[n:]
	}
	return p, nil
}
