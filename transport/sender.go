package transport

import (
	"bytes"
	"fmt"

	"github.com/opensearch-project/go-transport-handshake/handshake"
	"github.com/opensearch-project/go-transport-handshake/version"
)

// ChannelRequestSender implements handshake.RequestSender directly over a
// handshake.Channel, framing the advertised version as a length-prefixed
// inner blob and wrapping it in this package's envelope so the peer's
// Dispatcher can route the reply back to the right pending handshake.
type ChannelRequestSender struct{}

// NewChannelRequestSender returns a ready-to-use ChannelRequestSender. It
// holds no state; the type exists so callers have something to pass as a
// handshake.RequestSender.
func NewChannelRequestSender() *ChannelRequestSender { return &ChannelRequestSender{} }

// SendRequest encodes advertised as a HandshakeRequest payload, wraps it
// in the envelope, and writes it on ch.
func (s *ChannelRequestSender) SendRequest(peer string, ch handshake.Channel, requestID uint64, advertised version.Version) error {
	var payload bytes.Buffer
	if err := handshake.EncodeRequest(&payload, advertised); err != nil {
		return fmt.Errorf("transport: encode handshake request: %w", err)
	}

	frame, err := encodeEnvelope(envelope{
		kind:        kindRequest,
		requestID:   requestID,
		wireVersion: advertised,
		payload:     payload.Bytes(),
	})
	if err != nil {
		return err
	}
	return ch.Write(frame)
}
