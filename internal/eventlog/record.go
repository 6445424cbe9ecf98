package eventlog

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// Record encoding: varint headerLen | header | payload | crc32c(header|payload)

// ErrCorruptRecord is returned when a stored record fails its length or
// checksum validation.
var ErrCorruptRecord = errors.New("eventlog: corrupt record")

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func EncodeRecord(header, payload []byte) []byte {
	out := make([]byte, 0, binary.MaxVarintLen64+len(header)+len(payload)+4)
	out = binary.AppendUvarint(out, uint64(len(header)))
	out = append(out, header...)
	out = append(out, payload...)

	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	return binary.BigEndian.AppendUint32(out, crc)
}

type Decoded struct {
	Header  []byte
	Payload []byte
}

// DecodeRecord validates and splits b. The returned slices are copies.
func DecodeRecord(b []byte) (Decoded, error) {
	if len(b) < 1+4 {
		return Decoded{}, ErrCorruptRecord
	}
	hlen, n := binary.Uvarint(b)
	if n <= 0 || hlen > uint64(len(b)) || n+int(hlen)+4 > len(b) {
		return Decoded{}, ErrCorruptRecord
	}
	header := b[n : n+int(hlen)]
	payload := b[n+int(hlen) : len(b)-4]
	crc := crc32.Update(0, castagnoli, header)
	crc = crc32.Update(crc, castagnoli, payload)
	if crc != binary.BigEndian.Uint32(b[len(b)-4:]) {
		return Decoded{}, ErrCorruptRecord
	}
	return Decoded{Header: append([]byte(nil), header...), Payload: append([]byte(nil), payload...)}, nil
}
