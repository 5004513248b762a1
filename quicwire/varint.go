// Package quicwire wraps the QUIC variable-length integer encoding of
// RFC 9000, Section 16, used to frame lists of encoded values.
package quicwire

import (
	"bytes"

	"github.com/quic-go/quic-go/quicvarint"
)

// MaxVarint is the largest value that AppendVarint can encode.
const MaxVarint = quicvarint.Max

// AppendVarint appends the varint encoding of i to b. It panics when i
// exceeds MaxVarint.
func AppendVarint(b []byte, i uint64) []byte {
	return quicvarint.Append(b, i)
}

// ConsumeVarint parses a varint from the front of b and returns it with the
// number of bytes read. The length is zero when b holds no complete varint.
func ConsumeVarint(b []byte) (uint64, int) {
	r := bytes.NewReader(b)
	v, err := quicvarint.Read(r)
	if err != nil {
		return 0, 0
	}
	return v, len(b) - r.Len()
}
