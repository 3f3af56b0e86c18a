package handshake

import (
	"sync/atomic"

	"github.com/opensearch-project/go-transport-handshake/version"
)

// Sink is the caller-supplied completion callback for a handshake: exactly
// one of its two arguments is non-zero, and it fires at most once.
type Sink func(v version.Version, err error)

// HandshakeResponseHandler is the per-handshake one-shot completion state.
// At most one of OnResponse, OnException, OnLocalException ever invokes
// the sink, enforced by a compare-and-swap on done.
type HandshakeResponseHandler struct {
	requestID    uint64
	localVersion version.Version
	sink         Sink
	table        *PendingTable
	done         atomic.Bool
}

// NewHandshakeResponseHandler builds a handler bound to table, the same
// table it was (or is about to be) inserted into. OnLocalException needs
// it to perform its own removal.
func NewHandshakeResponseHandler(requestID uint64, localVersion version.Version, sink Sink, table *PendingTable) *HandshakeResponseHandler {
	return &HandshakeResponseHandler{
		requestID:    requestID,
		localVersion: localVersion,
		sink:         sink,
		table:        table,
	}
}

// OnResponse resolves the sink with the negotiated version, or with
// UnsupportedVersionError if local and remote are not compatible. The
// caller must have already removed this handler's entry from PendingTable
// (via Handshaker.RemoveHandler) before calling this; OnResponse only
// guards against a second terminal event winning the race.
func (h *HandshakeResponseHandler) OnResponse(remote version.Version) {
	if !h.done.CompareAndSwap(false, true) {
		return
	}
	if h.localVersion.IsCompatible(remote) {
		h.sink(remote, nil)
		return
	}
	h.sink(0, &UnsupportedVersionError{Local: h.localVersion, Remote: remote})
}

// OnException resolves the sink with HandshakeFailedError, wrapping a
// remote-reported exception. As with OnResponse, the caller is expected
// to have already removed this handler from PendingTable.
func (h *HandshakeResponseHandler) OnException(cause error) {
	if !h.done.CompareAndSwap(false, true) {
		return
	}
	h.sink(0, &HandshakeFailedError{RequestID: h.requestID, Cause: cause})
}

// OnLocalException handles the three locally-detected terminal events
// (timeout, send failure, channel close). Unlike OnResponse/OnException it
// performs its own PendingTable removal first: that removal is the
// linearization point, and only the caller that observes a still-present
// entry is allowed to proceed to the done CAS and resolve the sink. This
// is what makes timeout/close/send-failure idempotent against a response
// or remote exception arriving at nearly the same instant.
func (h *HandshakeResponseHandler) OnLocalException(err error) {
	if _, removed := h.table.Remove(h.requestID); !removed {
		return
	}
	if !h.done.CompareAndSwap(false, true) {
		return
	}
	h.sink(0, err)
}
