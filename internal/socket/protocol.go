package socket

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/ws"
)

// Page frame names. The panel page posts frames of the form "name:body";
// the name selects the handler and the body shape belongs to that handler.
const (
	FrameWebSocket   = "websocket"
	FrameTelemetry   = "telemetry"
	FrameReportError = "reportError"
)

// TelemetryEventPageError is reported when a telemetry frame from the
// page cannot be decoded.
const TelemetryEventPageError = "view/screencast/telemetry"

// websocketBody is the body of a "websocket" page frame. Message holds
// the payload headed for the target; its shape is opaque here.
type websocketBody struct {
	Message json.RawMessage `json:"message"`
}

// telemetryBody is the body of a "telemetry" page frame.
type telemetryBody struct {
	Event      string            `json:"event"`
	Properties map[string]string `json:"properties"`
}

// parseFrame splits a page frame into its name and body. The body may
// be empty; a frame with no separator has no name and is dropped.
func parseFrame(raw []byte) (name, body string, ok bool) {
	frame := string(raw)
	idx := strings.IndexByte(frame, ':')
	if idx <= 0 {
		return "", "", false
	}
	return frame[:idx], frame[idx+1:], true
}

// HandleWebviewMessage dispatches one raw frame from the panel page.
// "websocket" bodies are unwrapped and forwarded to the target verbatim,
// "telemetry" bodies go to the reporter, "reportError" bodies go to the
// error-report callback. Unknown or malformed frames are counted and
// dropped; they never reach the target. No-op once the bridge is disposed.
func (b *Bridge) HandleWebviewMessage(raw []byte) {
	if b.IsDisposed() {
		return
	}

	name, body, ok := parseFrame(raw)
	if !ok {
		b.dropFrame()
		return
	}

	switch name {
	case FrameWebSocket:
		var parsed websocketBody
		if err := json.Unmarshal([]byte(body), &parsed); err != nil || len(parsed.Message) == 0 {
			b.dropFrame()
			return
		}
		if err := b.send(messageBytes(parsed.Message)); err != nil {
			b.emitEvent(ws.SocketEventError, "", false)
		}

	case FrameTelemetry:
		if b.reporter == nil {
			return
		}
		var parsed telemetryBody
		if err := json.Unmarshal([]byte(body), &parsed); err != nil || parsed.Event == "" {
			b.reporter.ReportEvent(TelemetryEventPageError, map[string]string{"message": body})
			return
		}
		b.reporter.ReportEvent(parsed.Event, parsed.Properties)

	case FrameReportError:
		if cb := b.callbacks.OnReportError; cb != nil {
			cb(body)
		}

	default:
		b.dropFrame()
	}
}

// messageBytes extracts the target payload from an unwrapped message.
// JSON strings are unquoted so the target sees the inner text; any other
// JSON value is forwarded as its raw encoding.
func messageBytes(msg json.RawMessage) []byte {
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		return []byte(s)
	}
	return []byte(msg)
}

// dropFrame counts one dropped page frame.
func (b *Bridge) dropFrame() {
	b.mu.Lock()
	b.droppedFrames++
	b.mu.Unlock()
}

// String implements fmt.Stringer for diagnostics.
func (b *Bridge) String() string {
	return fmt.Sprintf("bridge(%s)", b.targetURL)
}
