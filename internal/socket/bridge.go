// Package socket bridges a remote debugging target into panel events.
package socket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/telemetry"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/ws"
)

const (
	// Time allowed for the target WebSocket handshake.
	handshakeTimeout = 10 * time.Second

	// Time allowed to write a message to the target.
	writeWait = 10 * time.Second
)

// Callbacks are the hooks a bridge invokes, injected at construction.
// All callbacks run on the bridge's read goroutine (or the caller's, for
// page-originated events) and stop firing once the bridge is disposed.
type Callbacks struct {
	// OnEvent receives translated socket lifecycle events: open after the
	// dial, message for each target frame, error on abnormal failure and
	// close when the target connection ends.
	OnEvent func(event ws.SocketEvent, message string, hasMessage bool)

	// OnClose fires once, after the close event has been delivered.
	OnClose func()

	// OnReportError receives error strings the page surfaces through the
	// bridge. The payload may or may not be JSON.
	OnReportError func(raw string)
}

// Bridge relays between one remote debugging target and one panel. It
// owns the target connection and all its network I/O.
type Bridge struct {
	targetURL string
	callbacks Callbacks
	reporter  telemetry.Reporter

	conn    *websocket.Conn
	writeMu sync.Mutex

	// send forwards an unwrapped page payload to the target. Replaced in
	// tests to observe forwarding without a live connection.
	send func(message []byte) error

	mu            sync.RWMutex
	closed        bool
	closedCh      chan struct{}
	droppedFrames int
}

// NewBridge creates a bridge for the given target. Events flow through
// the injected callbacks; telemetry frames from the page flow to reporter.
func NewBridge(targetURL string, callbacks Callbacks, reporter telemetry.Reporter) *Bridge {
	b := &Bridge{
		targetURL: targetURL,
		callbacks: callbacks,
		reporter:  reporter,
		closedCh:  make(chan struct{}),
	}
	b.send = b.writeToTarget
	return b
}

// TargetURL returns the remote debugging target URL.
func (b *Bridge) TargetURL() string {
	return b.targetURL
}

// Dial connects to the target and starts the read pump. The open event
// is delivered before any message events.
func (b *Bridge) Dial(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, resp, err := dialer.DialContext(ctx, b.targetURL, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("failed to dial target %s: %w", b.targetURL, err)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		conn.Close()
		return fmt.Errorf("bridge is disposed")
	}
	b.conn = conn
	b.mu.Unlock()

	b.emitEvent(ws.SocketEventOpen, "", false)

	go b.readPump()

	return nil
}

// readPump reads target frames and translates them into events. The
// close event is delivered before the close callback fires.
func (b *Bridge) readPump() {
	for {
		b.mu.RLock()
		conn := b.conn
		b.mu.RUnlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if b.IsDisposed() {
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.emitEvent(ws.SocketEventError, "", false)
			}
			b.emitEvent(ws.SocketEventClose, "", false)
			if cb := b.callbacks.OnClose; cb != nil {
				cb()
			}
			return
		}

		b.emitEvent(ws.SocketEventMessage, string(message), true)
	}
}

// emitEvent delivers one translated event unless the bridge is disposed.
func (b *Bridge) emitEvent(event ws.SocketEvent, message string, hasMessage bool) {
	if b.IsDisposed() {
		return
	}
	if cb := b.callbacks.OnEvent; cb != nil {
		cb(event, message, hasMessage)
	}
}

// SendToTarget writes a message to the target connection.
func (b *Bridge) SendToTarget(message []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("bridge is disposed")
	}
	conn := b.conn
	b.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("bridge is not connected")
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
		return fmt.Errorf("failed to write to target: %w", err)
	}

	return nil
}

// writeToTarget is the default send path.
func (b *Bridge) writeToTarget(message []byte) error {
	return b.SendToTarget(message)
}

// Dispose closes the target connection and stops the pump. Idempotent;
// events arriving on a disposed bridge are dropped.
func (b *Bridge) Dispose() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	conn := b.conn
	close(b.closedCh)
	b.mu.Unlock()

	if conn != nil {
		b.writeMu.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		b.writeMu.Unlock()

		conn.Close()
	}
}

// IsDisposed returns true once the bridge has been disposed.
func (b *Bridge) IsDisposed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// Done returns a channel closed when the bridge is disposed.
func (b *Bridge) Done() <-chan struct{} {
	return b.closedCh
}

// DroppedFrames returns the number of page frames dropped by the parser.
func (b *Bridge) DroppedFrames() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.droppedFrames
}
