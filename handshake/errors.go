package handshake

import (
	"fmt"
	"time"

	"github.com/opensearch-project/go-transport-handshake/version"
)

// ConnectionResetError means the channel closed before a response arrived.
type ConnectionResetError struct {
	RequestID uint64
}

func (e *ConnectionResetError) Error() string {
	return fmt.Sprintf("handshake %d: connection reset before a response arrived", e.RequestID)
}

// TimeoutError means the scheduled deadline fired before a response arrived.
type TimeoutError struct {
	RequestID uint64
	Duration  time.Duration
	Peer      string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("handshake %d: timed out after %s waiting for %s", e.RequestID, e.Duration, e.Peer)
}

// SendFailureError means the RequestSender threw synchronously.
type SendFailureError struct {
	RequestID uint64
	Cause     error
}

func (e *SendFailureError) Error() string {
	return fmt.Sprintf("handshake %d: send failed: %v", e.RequestID, e.Cause)
}

func (e *SendFailureError) Unwrap() error { return e.Cause }

// UnsupportedVersionError means the response decoded cleanly but the local
// and remote versions are not compatible.
type UnsupportedVersionError struct {
	Local, Remote version.Version
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported version: local %s is not compatible with remote %s", e.Local, e.Remote)
}

// HandshakeFailedError means the handshake was resolved through OnException:
// the remote side reported an exception instead of a decodable response, or
// the dispatch layer could not decode the response frame (transport's
// Dispatcher reports a response decode failure this way, wrapping the
// decode error as Cause).
type HandshakeFailedError struct {
	RequestID uint64
	Cause     error
}

func (e *HandshakeFailedError) Error() string {
	return fmt.Sprintf("handshake %d: remote reported a failure: %v", e.RequestID, e.Cause)
}

func (e *HandshakeFailedError) Unwrap() error { return e.Cause }

// ProtocolError is returned by the server path (HandleHandshake): a request
// decode left trailing bytes on the stream, or an I/O error occurred while
// decoding the request or sending the response. The client path does not
// produce it; a response that fails to decode reaches the sink as a
// HandshakeFailedError.
type ProtocolError struct {
	RequestID uint64
	Available int
	Cause     error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("handshake %d: protocol error: %v", e.RequestID, e.Cause)
	}
	return fmt.Sprintf("handshake %d: protocol error: %d trailing byte(s) on stream", e.RequestID, e.Available)
}

func (e *ProtocolError) Unwrap() error { return e.Cause }
