// Package wire implements the length-prefixed envelope used to carry an
// optional inner payload across a stream, and the TCP stream framing built
// on top of it. Both follow the same 4-byte big-endian length-prefix
// convention: a prefix of 0 means an empty payload, and hitting end of
// stream while reading the prefix itself means no payload was sent at all.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameLength bounds how large a single frame's declared length may be,
// guarding a misbehaving or garbled peer from making a reader allocate an
// unbounded buffer.
const MaxFrameLength = 64 << 20 // 64 MiB

// WriteBytesRef writes body as a length-prefixed frame: a 4-byte
// big-endian length followed by body itself.
func WriteBytesRef(w io.Writer, body []byte) error {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(body)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("wire: write length prefix: %w", err)
	}
	if len(body) == 0 {
		return nil
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("wire: write body: %w", err)
	}
	return nil
}

// ReadBytesRef reads a length-prefixed frame from r. It reports ok=false
// with a nil error when r hits EOF before any byte of the length prefix is
// read: the envelope was never sent, as opposed to being sent and
// truncated, which is reported as an error.
func ReadBytesRef(r io.Reader) (body []byte, ok bool, err error) {
	var prefix [4]byte
	n, err := io.ReadFull(r, prefix[:])
	if err != nil {
		if n == 0 && err == io.EOF {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("wire: read length prefix: %w", err)
	}

	length := binary.BigEndian.Uint32(prefix[:])
	if length > MaxFrameLength {
		return nil, false, fmt.Errorf("wire: declared frame length %d exceeds max %d", length, MaxFrameLength)
	}
	if length == 0 {
		return []byte{}, true, nil
	}

	body = make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, false, fmt.Errorf("wire: read body: %w", err)
	}
	return body, true, nil
}
