package transport

import (
	"net"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opensearch-project/go-transport-handshake/wire"
)

// FrameHandler processes one fully-framed inbound blob.
type FrameHandler func(frame []byte)

// TCPChannel adapts a net.Conn into handshake.Channel: Write frames a
// blob with the wire package's length-prefix convention, a background
// goroutine reads frames off the connection and hands each to whatever
// FrameHandler is currently registered, and a read error or EOF fires the
// close listeners exactly once (adapted from the accept-loop /
// per-connection-goroutine shape of the source TCP transport, narrowed to
// a single connection rather than a registry of many).
//
// The frame handler is set separately from construction (SetFrameHandler)
// rather than passed in up front, mirroring the source transport's
// register-handler-then-run-loop ordering: a Dispatcher for this channel
// often needs the *TCPChannel itself (to build a reply channel) before it
// can be constructed.
type TCPChannel struct {
	conn net.Conn

	mu             sync.Mutex
	onFrame        FrameHandler
	closeListeners []func()
	closeOnce      sync.Once
}

// NewTCPChannel wraps conn and starts its read loop immediately. Frames
// received before a handler is registered via SetFrameHandler are
// silently dropped.
func NewTCPChannel(conn net.Conn) *TCPChannel {
	c := &TCPChannel{conn: conn}
	go c.readLoop()
	return c
}

// SetFrameHandler registers fn to be invoked, from the read-loop
// goroutine, for every subsequent frame received. fn must not block.
func (c *TCPChannel) SetFrameHandler(fn FrameHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFrame = fn
}

func (c *TCPChannel) frameHandler() FrameHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.onFrame
}

func (c *TCPChannel) readLoop() {
	log := logrus.WithField("remote", c.conn.RemoteAddr())
	for {
		body, ok, err := wire.ReadBytesRef(c.conn)
		if err != nil {
			log.WithError(err).Debug("tcp channel: read failed, closing")
			c.fireClose()
			return
		}
		if !ok {
			log.Debug("tcp channel: peer closed the connection")
			c.fireClose()
			return
		}
		if fn := c.frameHandler(); fn != nil {
			fn(body)
		}
	}
}

func (c *TCPChannel) fireClose() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		listeners := append([]func(){}, c.closeListeners...)
		c.mu.Unlock()
		for _, fn := range listeners {
			fn()
		}
	})
}

// Write sends frame as a single length-prefixed blob.
func (c *TCPChannel) Write(frame []byte) error {
	return wire.WriteBytesRef(c.conn, frame)
}

// AddCloseListener registers fn to fire at most once when the channel
// closes for any reason.
func (c *TCPChannel) AddCloseListener(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeListeners = append(c.closeListeners, fn)
}

// Close shuts down the underlying connection and fires close listeners.
func (c *TCPChannel) Close() error {
	err := c.conn.Close()
	c.fireClose()
	return err
}
