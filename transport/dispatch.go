package transport

import (
	"bytes"

	"github.com/sirupsen/logrus"

	"github.com/opensearch-project/go-transport-handshake/handshake"
)

// Dispatcher is the response-dispatch layer surrounding the handshake
// core: on receipt of a handshake-action frame it looks up the pending
// handshake by request id and delivers the decoded response, or, for an
// inbound request, invokes the server path and writes the reply. Routing
// inbound frames to pending handshakes sits outside the handshake core's
// own scope; this is one concrete realization of it, not part of the
// core itself.
type Dispatcher struct {
	handshaker *handshake.Handshaker
}

// NewDispatcher binds a Dispatcher to handshaker.
func NewDispatcher(handshaker *handshake.Handshaker) *Dispatcher {
	return &Dispatcher{handshaker: handshaker}
}

// OnFrame is a FrameHandler: wire it to a TCPChannel's onFrame callback
// to have inbound request and response frames routed automatically.
func (d *Dispatcher) OnFrame(ch handshake.Channel) FrameHandler {
	return func(frame []byte) {
		env, err := decodeEnvelope(frame)
		if err != nil {
			logrus.WithError(err).Warn("dispatcher: dropping malformed frame")
			return
		}

		switch env.kind {
		case kindRequest:
			d.handleRequest(ch, env)
		case kindResponse:
			d.handleResponse(env)
		default:
			logrus.WithField("kind", env.kind).Warn("dispatcher: unknown envelope kind")
		}
	}
}

func (d *Dispatcher) handleRequest(ch handshake.Channel, env envelope) {
	reply := newReplyChannel(ch, env.requestID)
	if err := d.handshaker.HandleHandshake(reply, env.requestID, bytes.NewReader(env.payload), env.wireVersion); err != nil {
		logrus.WithError(err).WithField("request_id", env.requestID).Warn("dispatcher: handshake request failed")
	}
}

func (d *Dispatcher) handleResponse(env envelope) {
	handler, ok := d.handshaker.RemoveHandler(env.requestID)
	if !ok {
		logrus.WithField("request_id", env.requestID).Debug("dispatcher: response for unknown or already-resolved handshake")
		return
	}

	resp, err := handshake.DecodeResponse(bytes.NewReader(env.payload))
	if err != nil {
		// The entry is already removed, so the decode failure goes through
		// OnException and reaches the sink as a HandshakeFailedError
		// wrapping err, not as a ProtocolError.
		handler.OnException(err)
		return
	}
	handler.OnResponse(resp.Version)
}
