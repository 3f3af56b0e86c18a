// Package transport provides the concrete collaborators the handshake
// core consumes through narrow interfaces: a TCP-backed Channel, a
// RequestSender/ReplyChannel pair that frame handshake payloads onto it,
// and a small dispatcher for the response-dispatch layer: routing an
// inbound frame to either the server path or a pending client handler.
//
// None of this outer envelope is specified by the handshake core itself;
// the core treats the outer transport-request/response header as opaque
// and inherited from whatever carries it. This package exists so the
// module is runnable end to end.
package transport

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/opensearch-project/go-transport-handshake/handshake"
	"github.com/opensearch-project/go-transport-handshake/version"
	"github.com/opensearch-project/go-transport-handshake/wire"
)

type envelopeKind uint8

const (
	kindRequest envelopeKind = iota
	kindResponse
)

// envelope is the minimal outer header every frame this package sends
// carries: which action it routes to, which pending handshake it belongs
// to, and the sender's reported wire version (distinct from any version
// carried in the handshake payload itself; see handshake.HandleHandshake).
type envelope struct {
	kind        envelopeKind
	requestID   uint64
	wireVersion version.Version
	payload     []byte
}

func encodeEnvelope(e envelope) ([]byte, error) {
	var buf bytes.Buffer
	if err := wire.WriteBytesRef(&buf, []byte(handshake.ActionName)); err != nil {
		return nil, fmt.Errorf("transport: encode envelope action: %w", err)
	}
	if err := buf.WriteByte(byte(e.kind)); err != nil {
		return nil, fmt.Errorf("transport: encode envelope kind: %w", err)
	}
	var idBuf [8]byte
	binary.BigEndian.PutUint64(idBuf[:], e.requestID)
	if _, err := buf.Write(idBuf[:]); err != nil {
		return nil, fmt.Errorf("transport: encode envelope request id: %w", err)
	}
	if err := version.Write(&buf, e.wireVersion); err != nil {
		return nil, fmt.Errorf("transport: encode envelope wire version: %w", err)
	}
	if _, err := buf.Write(e.payload); err != nil {
		return nil, fmt.Errorf("transport: encode envelope payload: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeEnvelope(frame []byte) (envelope, error) {
	r := bytes.NewReader(frame)

	action, ok, err := wire.ReadBytesRef(r)
	if err != nil {
		return envelope{}, fmt.Errorf("transport: decode envelope action: %w", err)
	}
	if !ok {
		return envelope{}, fmt.Errorf("transport: decode envelope: frame too short for action name")
	}
	if string(action) != handshake.ActionName {
		return envelope{}, fmt.Errorf("transport: decode envelope: unknown action %q", action)
	}

	kindByte, err := r.ReadByte()
	if err != nil {
		return envelope{}, fmt.Errorf("transport: decode envelope kind: %w", err)
	}

	var idBuf [8]byte
	if _, err := io.ReadFull(r, idBuf[:]); err != nil {
		return envelope{}, fmt.Errorf("transport: decode envelope request id: %w", err)
	}

	wireVersion, err := version.Read(r)
	if err != nil {
		return envelope{}, fmt.Errorf("transport: decode envelope wire version: %w", err)
	}

	payload := make([]byte, r.Len())
	if _, err := io.ReadFull(r, payload); err != nil {
		return envelope{}, fmt.Errorf("transport: decode envelope payload: %w", err)
	}

	return envelope{
		kind:        envelopeKind(kindByte),
		requestID:   binary.BigEndian.Uint64(idBuf[:]),
		wireVersion: wireVersion,
		payload:     payload,
	}, nil
}
