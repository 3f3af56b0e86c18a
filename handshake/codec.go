package handshake

import (
	"bytes"
	"fmt"
	"io"

	"github.com/opensearch-project/go-transport-handshake/version"
	"github.com/opensearch-project/go-transport-handshake/wire"
)

// HandshakeRequest carries a single optional advertised version. A nil
// Version means the sender either predates the field or sent an explicitly
// empty inner blob; both decode to the same "absent" state.
type HandshakeRequest struct {
	Version *version.Version
}

// HandshakeResponse carries the responder's selected version.
type HandshakeResponse struct {
	Version version.Version
}

// EncodeRequest writes v into a small buffer with write_version, then
// writes that buffer as a length-prefixed bytes-reference blob. The
// indirection lets the inner blob grow later without breaking parsers
// that only know how to skip a bytes-reference.
func EncodeRequest(w io.Writer, v version.Version) error {
	var inner bytes.Buffer
	if err := version.Write(&inner, v); err != nil {
		return fmt.Errorf("handshake: encode request version: %w", err)
	}
	if err := wire.WriteBytesRef(w, inner.Bytes()); err != nil {
		return fmt.Errorf("handshake: encode request: %w", err)
	}
	return nil
}

// DecodeRequest reads a HandshakeRequest from r. Hitting end-of-stream
// while reading the bytes-reference, or reading a zero-length blob, both
// yield a nil Version rather than an error.
func DecodeRequest(r io.Reader) (*HandshakeRequest, error) {
	body, ok, err := wire.ReadBytesRef(r)
	if err != nil {
		return nil, fmt.Errorf("handshake: decode request: %w", err)
	}
	if !ok || len(body) == 0 {
		return &HandshakeRequest{}, nil
	}

	v, err := version.Read(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("handshake: decode request version: %w", err)
	}
	return &HandshakeRequest{Version: &v}, nil
}

// EncodeResponse writes response as a single write_version call; unlike
// the request there is no length-prefixed wrapper.
func EncodeResponse(w io.Writer, resp HandshakeResponse) error {
	if err := version.Write(w, resp.Version); err != nil {
		return fmt.Errorf("handshake: encode response: %w", err)
	}
	return nil
}

// DecodeResponse reads a HandshakeResponse from r.
func DecodeResponse(r io.Reader) (HandshakeResponse, error) {
	v, err := version.Read(r)
	if err != nil {
		return HandshakeResponse{}, fmt.Errorf("handshake: decode response: %w", err)
	}
	return HandshakeResponse{Version: v}, nil
}
