// Package handshake implements the node-to-node wire-version negotiation
// core: request/response codec, the pending-handshake table, one-shot
// completion under racing event sources, and the client/server
// orchestration that ties them together.
package handshake

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opensearch-project/go-transport-handshake/internal/clock"
	"github.com/opensearch-project/go-transport-handshake/version"
)

// ActionName is the protocol action identifier the outer dispatch layer
// routes inbound handshake frames by.
const ActionName = "internal:tcp/handshake"

// Channel is the minimal surface the core needs from a transport
// connection: write a framed message, learn when the connection dies, and
// close it. Transports implement this; the core only ever consumes it.
type Channel interface {
	Write(frame []byte) error
	AddCloseListener(fn func())
	Close() error
}

// RequestSender dispatches a framed outbound handshake request on a
// channel. It may fail synchronously, in which case the core treats the
// failure as a local exception.
type RequestSender interface {
	SendRequest(peer string, ch Channel, requestID uint64, advertised version.Version) error
}

// ReplyChannel is the server-path counterpart of RequestSender: it writes
// a serialized HandshakeResponse frame back to the requester.
type ReplyChannel interface {
	SendResponse(resp HandshakeResponse) error
}

// Handshaker is the orchestrator: it owns the pending table, the local
// version, and the scheduler and sender it was constructed with. It has
// the lifetime of the transport that created it; nothing here is
// process-global.
type Handshaker struct {
	localVersion version.Version
	scheduler    clock.Scheduler
	sender       RequestSender
	table        *PendingTable
	metrics      *Metrics
	count        uint64
}

// NewHandshaker builds a Handshaker for localVersion, using scheduler to
// arm timeouts and sender to dispatch outbound requests.
func NewHandshaker(localVersion version.Version, scheduler clock.Scheduler, sender RequestSender) *Handshaker {
	table := NewPendingTable()
	return &Handshaker{
		localVersion: localVersion,
		scheduler:    scheduler,
		sender:       sender,
		table:        table,
		metrics:      NewMetrics(table),
	}
}

// Metrics returns the Handshaker's Prometheus collectors, for the caller
// to register with whatever registry the process uses.
func (h *Handshaker) Metrics() *Metrics { return h.metrics }

// NumPendingHandshakes reports the live size of the pending table.
func (h *Handshaker) NumPendingHandshakes() int { return h.table.Len() }

// NumHandshakes reports the total number of SendHandshake calls made,
// regardless of outcome.
func (h *Handshaker) NumHandshakes() uint64 { return atomic.LoadUint64(&h.count) }

// RemoveHandler pops the handler for requestID out of the pending table,
// if it is still present. The outer dispatch layer calls this when an
// inbound response or remote-exception frame names requestID, then
// invokes OnResponse/OnException on the returned handler directly.
func (h *Handshaker) RemoveHandler(requestID uint64) (*HandshakeResponseHandler, bool) {
	return h.table.Remove(requestID)
}

// SendHandshake begins a handshake on a freshly opened channel: it arms a
// pending entry, computes the advertised minimum-compatible version, and
// dispatches the request. sink fires exactly once, from whichever of
// {response, remote exception, timeout, channel close, send failure}
// resolves first.
func (h *Handshaker) SendHandshake(requestID uint64, peer string, ch Channel, timeout time.Duration, sink Sink) {
	atomic.AddUint64(&h.count, 1)
	h.metrics.incHandshakes()

	handler := NewHandshakeResponseHandler(requestID, h.localVersion, sink, h.table)
	h.table.Insert(requestID, handler)

	ch.AddCloseListener(func() {
		handler.OnLocalException(&ConnectionResetError{RequestID: requestID})
	})

	advertised := version.AdvertisedMinCompatible(h.localVersion)

	if err := h.sender.SendRequest(peer, ch, requestID, advertised); err != nil {
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"peer":       peer,
			"error":      err,
		}).Warn("handshake: send failed")
		handler.OnLocalException(&SendFailureError{RequestID: requestID, Cause: err})
		return
	}

	h.scheduler.Schedule(func() {
		handler.OnLocalException(&TimeoutError{RequestID: requestID, Duration: timeout, Peer: peer})
	}, timeout)
}

// HandleHandshake implements the server path: decode a request from
// stream, verify it was fully drained, and reply through reply with the
// version selected per the remoteWireVersion rule. remoteWireVersion is
// the version the inbound frame's outer header reported; it is distinct
// from, and may differ from, the version carried inside the decoded payload.
func (h *Handshaker) HandleHandshake(reply ReplyChannel, requestID uint64, stream io.Reader, remoteWireVersion version.Version) error {
	if _, err := DecodeRequest(stream); err != nil {
		return &ProtocolError{RequestID: requestID, Cause: err}
	}

	if n, err := drainExtra(stream); n > 0 {
		return &ProtocolError{RequestID: requestID, Available: n}
	} else if err != nil {
		return &ProtocolError{RequestID: requestID, Cause: err}
	}

	selected := version.ResponseVersion(h.localVersion, remoteWireVersion)
	logrus.WithFields(logrus.Fields{
		"request_id":  requestID,
		"local":       h.localVersion,
		"remote_wire": remoteWireVersion,
		"selected":    selected,
	}).Debug("handshake: responding")

	if err := reply.SendResponse(HandshakeResponse{Version: selected}); err != nil {
		return &ProtocolError{RequestID: requestID, Cause: fmt.Errorf("send response: %w", err)}
	}
	return nil
}

// drainExtra reports how many bytes remain on stream past what
// DecodeRequest consumed. Any non-EOF read error is returned as-is.
func drainExtra(stream io.Reader) (int, error) {
	var buf [256]byte
	total := 0
	for {
		n, err := stream.Read(buf[:])
		total += n
		if err != nil {
			if err == io.EOF {
				return total, nil
			}
			return total, err
		}
		if n == 0 {
			return total, nil
		}
	}
}
