package socket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/ws"
)

// eventRecorder collects bridge callback invocations.
type eventRecorder struct {
	mu      sync.Mutex
	events  []ws.SocketEvent
	payload []string
	closed  int
	errors  []string
}

func (r *eventRecorder) callbacks() Callbacks {
	return Callbacks{
		OnEvent: func(event ws.SocketEvent, message string, hasMessage bool) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, event)
			if hasMessage {
				r.payload = append(r.payload, message)
			}
		},
		OnClose: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.closed++
		},
		OnReportError: func(raw string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errors = append(r.errors, raw)
		},
	}
}

func (r *eventRecorder) snapshot() ([]ws.SocketEvent, []string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := append([]ws.SocketEvent(nil), r.events...)
	payload := append([]string(nil), r.payload...)
	return events, payload, r.closed
}

// recordingReporter collects telemetry events for assertions.
type recordingReporter struct {
	mu     sync.Mutex
	names  []string
	propss []map[string]string
}

func (r *recordingReporter) ReportEvent(name string, props map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.propss = append(r.propss, props)
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		raw  string
		name string
		body string
		ok   bool
	}{
		{"websocket:{\"message\":\"x\"}", "websocket", "{\"message\":\"x\"}", true},
		{"reportError:boom", "reportError", "boom", true},
		{"telemetry:", "telemetry", "", true},
		{"a:b:c", "a", "b:c", true},
		{"noseparator", "", "", false},
		{":leading", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		name, body, ok := parseFrame([]byte(tt.raw))
		if name != tt.name || body != tt.body || ok != tt.ok {
			t.Errorf("parseFrame(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.raw, name, body, ok, tt.name, tt.body, tt.ok)
		}
	}
}

func TestHandleWebviewMessageForwardsWebSocketFrames(t *testing.T) {
	recorder := &eventRecorder{}
	b := NewBridge("ws://localhost:9222/devtools/page/A", recorder.callbacks(), nil)

	var forwarded [][]byte
	b.send = func(message []byte) error {
		forwarded = append(forwarded, message)
		return nil
	}

	b.HandleWebviewMessage([]byte(`websocket:{"message":"{\"id\":1,\"method\":\"Page.enable\"}"}`))

	if len(forwarded) != 1 {
		t.Fatalf("expected 1 forwarded message, got %d", len(forwarded))
	}
	if got := string(forwarded[0]); got != `{"id":1,"method":"Page.enable"}` {
		t.Errorf("forwarded = %q", got)
	}
	if b.DroppedFrames() != 0 {
		t.Errorf("dropped %d frames, want 0", b.DroppedFrames())
	}
}

func TestHandleWebviewMessageDropsUnknownFrames(t *testing.T) {
	recorder := &eventRecorder{}
	b := NewBridge("ws://localhost:9222/devtools/page/A", recorder.callbacks(), nil)

	var forwarded int
	b.send = func(message []byte) error {
		forwarded++
		return nil
	}

	b.HandleWebviewMessage([]byte("bogus:payload"))
	b.HandleWebviewMessage([]byte("no separator"))
	b.HandleWebviewMessage([]byte(`websocket:not json`))

	if forwarded != 0 {
		t.Errorf("unknown frames must never reach the target, forwarded %d", forwarded)
	}
	if b.DroppedFrames() != 3 {
		t.Errorf("dropped %d frames, want 3", b.DroppedFrames())
	}
}

func TestHandleWebviewMessageDispatchesErrorReports(t *testing.T) {
	recorder := &eventRecorder{}
	b := NewBridge("ws://localhost:9222/devtools/page/A", recorder.callbacks(), nil)

	raw := `{"errorCode":1,"title":"Oops","message":"failed"}`
	b.HandleWebviewMessage([]byte("reportError:" + raw))

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.errors) != 1 || recorder.errors[0] != raw {
		t.Errorf("error reports = %v, want the body verbatim", recorder.errors)
	}
}

func TestHandleWebviewMessageForwardsTelemetry(t *testing.T) {
	recorder := &eventRecorder{}
	reporter := &recordingReporter{}
	b := NewBridge("ws://localhost:9222/devtools/page/A", recorder.callbacks(), reporter)

	b.HandleWebviewMessage([]byte(`telemetry:{"event":"view/screencast/open","properties":{"target":"x"}}`))
	b.HandleWebviewMessage([]byte(`telemetry:garbage`))

	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	if len(reporter.names) != 2 {
		t.Fatalf("expected 2 telemetry events, got %d", len(reporter.names))
	}
	if reporter.names[0] != "view/screencast/open" || reporter.propss[0]["target"] != "x" {
		t.Errorf("telemetry event = %q %v", reporter.names[0], reporter.propss[0])
	}
	if reporter.names[1] != TelemetryEventPageError {
		t.Errorf("malformed telemetry routed to %q", reporter.names[1])
	}
}

func TestDisposedBridgeAbsorbsFrames(t *testing.T) {
	recorder := &eventRecorder{}
	b := NewBridge("ws://localhost:9222/devtools/page/A", recorder.callbacks(), nil)

	var forwarded int
	b.send = func(message []byte) error {
		forwarded++
		return nil
	}

	b.Dispose()
	b.Dispose() // second call is a no-op

	b.HandleWebviewMessage([]byte(`websocket:{"message":"{}"}`))
	b.HandleWebviewMessage([]byte("reportError:boom"))

	if forwarded != 0 {
		t.Error("disposed bridge must not forward to the target")
	}
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.errors) != 0 {
		t.Error("disposed bridge must not dispatch error reports")
	}

	select {
	case <-b.Done():
	default:
		t.Error("Done channel should be closed after dispose")
	}
}

// newTargetServer stands in for a remote debugging target. It echoes
// nothing; the test script drives what it sends.
func newTargetServer(t *testing.T, script func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("target upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		script(conn)
	}))
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestDialDeliversOpenMessagesAndClose(t *testing.T) {
	server := newTargetServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"method":"Page.screencastFrame"}`))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
	})
	defer server.Close()

	recorder := &eventRecorder{}
	b := NewBridge(wsURL(server), recorder.callbacks(), nil)
	defer b.Dispose()

	if err := b.Dial(context.Background()); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		_, _, closed := recorder.snapshot()
		if closed == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for close callback")
		case <-time.After(10 * time.Millisecond):
		}
	}

	events, payload, _ := recorder.snapshot()
	if len(events) < 3 || events[0] != ws.SocketEventOpen {
		t.Fatalf("events = %v, want open first", events)
	}
	if events[1] != ws.SocketEventMessage {
		t.Errorf("second event = %v, want message", events[1])
	}
	if events[len(events)-1] != ws.SocketEventClose {
		t.Errorf("last event = %v, want close before the close callback", events[len(events)-1])
	}
	if len(payload) != 1 || payload[0] != `{"method":"Page.screencastFrame"}` {
		t.Errorf("payload = %v", payload)
	}
}

func TestDialFailure(t *testing.T) {
	recorder := &eventRecorder{}
	b := NewBridge("ws://127.0.0.1:1/devtools/page/none", recorder.callbacks(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := b.Dial(ctx); err == nil {
		t.Fatal("Dial to an unreachable target should fail")
	}

	events, _, closed := recorder.snapshot()
	if len(events) != 0 || closed != 0 {
		t.Errorf("failed dial must not emit events: %v closed=%d", events, closed)
	}
}

func TestSendToTargetRoundTrip(t *testing.T) {
	received := make(chan string, 1)
	server := newTargetServer(t, func(conn *websocket.Conn) {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- string(message)
		time.Sleep(50 * time.Millisecond)
	})
	defer server.Close()

	recorder := &eventRecorder{}
	b := NewBridge(wsURL(server), recorder.callbacks(), nil)
	defer b.Dispose()

	if err := b.Dial(context.Background()); err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	b.HandleWebviewMessage([]byte(`websocket:{"message":"{\"id\":42}"}`))

	select {
	case got := <-received:
		if got != `{"id":42}` {
			t.Errorf("target received %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the target to receive the message")
	}
}
