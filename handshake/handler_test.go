package handshake

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensearch-project/go-transport-handshake/version"
)

func newSinkCounter() (Sink, *int32, *version.Version, *error) {
	var calls int32
	var gotV version.Version
	var gotErr error
	sink := func(v version.Version, err error) {
		atomic.AddInt32(&calls, 1)
		gotV = v
		gotErr = err
	}
	return sink, &calls, &gotV, &gotErr
}

func TestOnResponseCompatible(t *testing.T) {
	table := NewPendingTable()
	sink, calls, gotV, gotErr := newSinkCounter()
	local := version.New(2, 5, 0, 0)
	h := NewHandshakeResponseHandler(1, local, sink, table)

	h.OnResponse(local)

	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
	assert.NoError(t, *gotErr)
	assert.Equal(t, local, *gotV)
}

func TestOnResponseIncompatible(t *testing.T) {
	table := NewPendingTable()
	sink, calls, _, gotErr := newSinkCounter()
	local := version.V2_0_0
	remote := version.New(0, 50, 0, 0)
	h := NewHandshakeResponseHandler(1, local, sink, table)

	h.OnResponse(remote)

	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
	var unsupported *UnsupportedVersionError
	require.ErrorAs(t, *gotErr, &unsupported)
	assert.Equal(t, local, unsupported.Local)
	assert.Equal(t, remote, unsupported.Remote)
}

func TestOnExceptionResolvesHandshakeFailed(t *testing.T) {
	table := NewPendingTable()
	sink, calls, _, gotErr := newSinkCounter()
	h := NewHandshakeResponseHandler(9, version.V2_0_0, sink, table)

	cause := errors.New("remote transport exception")
	h.OnException(cause)

	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
	var failed *HandshakeFailedError
	require.ErrorAs(t, *gotErr, &failed)
	assert.ErrorIs(t, failed, cause)
}

func TestOnLocalExceptionRemovesAndResolves(t *testing.T) {
	table := NewPendingTable()
	sink, calls, _, gotErr := newSinkCounter()
	h := NewHandshakeResponseHandler(5, version.V2_0_0, sink, table)
	table.Insert(5, h)

	cause := &ConnectionResetError{RequestID: 5}
	h.OnLocalException(cause)

	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
	assert.Equal(t, error(cause), *gotErr)
	assert.Equal(t, 0, table.Len())
}

func TestOnLocalExceptionNoOpWhenAlreadyRemoved(t *testing.T) {
	table := NewPendingTable()
	sink, calls, _, _ := newSinkCounter()
	h := NewHandshakeResponseHandler(5, version.V2_0_0, sink, table)
	// Never inserted: simulates the dispatch layer having already popped
	// the entry via RemoveHandler (e.g. a response arrived first).

	h.OnLocalException(&ConnectionResetError{RequestID: 5})

	assert.EqualValues(t, 0, atomic.LoadInt32(calls))
}

func TestSecondTerminalEventIsDropped(t *testing.T) {
	table := NewPendingTable()
	sink, calls, _, _ := newSinkCounter()
	local := version.V2_0_0
	h := NewHandshakeResponseHandler(1, local, sink, table)

	h.OnResponse(local)
	h.OnException(errors.New("too late"))
	h.OnResponse(local)

	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

// TestRacingTerminalEvents exercises the four terminal-event sources
// concurrently many times, asserting the sink fires exactly once every
// time regardless of which source wins.
func TestRacingTerminalEvents(t *testing.T) {
	const trials = 500
	for trial := 0; trial < trials; trial++ {
		table := NewPendingTable()
		var calls int32
		sink := func(version.Version, error) { atomic.AddInt32(&calls, 1) }
		local := version.V2_0_0
		h := NewHandshakeResponseHandler(1, local, sink, table)
		table.Insert(1, h)

		var wg sync.WaitGroup
		wg.Add(4)
		go func() { defer wg.Done(); h.OnResponse(local) }()
		go func() { defer wg.Done(); h.OnException(errors.New("remote failure")) }()
		go func() { defer wg.Done(); h.OnLocalException(&TimeoutError{RequestID: 1}) }()
		go func() { defer wg.Done(); h.OnLocalException(&ConnectionResetError{RequestID: 1}) }()
		wg.Wait()

		assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "trial %d", trial)
		assert.Equal(t, 0, table.Len(), "trial %d", trial)
	}
}
