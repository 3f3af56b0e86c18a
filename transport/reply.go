package transport

import (
	"bytes"
	"fmt"

	"github.com/opensearch-project/go-transport-handshake/handshake"
)

// newReplyChannel returns a handshake.ReplyChannel that writes its
// response back on ch, tagged with requestID so the peer's Dispatcher can
// route it to the right pending handshake.
func newReplyChannel(ch handshake.Channel, requestID uint64) handshake.ReplyChannel {
	return &simpleReplyChannel{ch: ch, requestID: requestID}
}

type simpleReplyChannel struct {
	ch        handshake.Channel
	requestID uint64
}

// SendResponse encodes resp as a HandshakeResponse payload and writes it
// back on the requester's channel, wrapped in this package's envelope.
func (r *simpleReplyChannel) SendResponse(resp handshake.HandshakeResponse) error {
	var payload bytes.Buffer
	if err := handshake.EncodeResponse(&payload, resp); err != nil {
		return fmt.Errorf("transport: encode handshake response: %w", err)
	}

	frame, err := encodeEnvelope(envelope{
		kind:        kindResponse,
		requestID:   r.requestID,
		wireVersion: resp.Version,
		payload:     payload.Bytes(),
	})
	if err != nil {
		return err
	}
	return r.ch.Write(frame)
}
