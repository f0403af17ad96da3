// Package panel owns the screencast panel lifecycle: a registry holding
// at most one live controller, and the controller bridging the panel
// surface, the socket bridge and the view renderer.
package panel

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/model"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/telemetry"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/view"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/ws"
)

// TelemetryEventError is the telemetry event emitted for error reports
// that do not match the structured dialog shape.
const TelemetryEventError = "view/screencast/error"

// Surface is the panel UI surface the controller posts into. The
// WebSocket service implements it; tests substitute fakes.
type Surface interface {
	CreateSurface(panelID string, onMessage func(raw []byte), onVisibility func(visible bool))
	PostEnvelope(panelID string, event ws.SocketEvent, message string, hasMessage bool) error
	PresentDialog(panelID string, errorCode json.RawMessage, title, message string) error
	NotifyDisposed(panelID string, reason string)
	Release(panelID string)
	IsVisible(panelID string) bool
}

// Renderer produces the panel page HTML.
type Renderer interface {
	Render(data view.Data) (string, error)
}

// Bridge is the socket bridge to the remote debugging target.
type Bridge interface {
	Dial(ctx context.Context) error
	HandleWebviewMessage(raw []byte)
	Dispose()
	IsDisposed() bool
}

// History persists panel lifecycle records.
type History interface {
	Create(ctx context.Context, panel *model.Panel) error
	MarkDisposed(ctx context.Context, id string, reason string) error
	Delete(ctx context.Context, id string) error
}

// errorPayload is the structured shape an error report must match to be
// surfaced as a dialog. The error code is kept raw so string and numeric
// codes both survive.
type errorPayload struct {
	ErrorCode json.RawMessage `json:"errorCode"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
}

// Controller bridges one live panel: the surface its pages attach to,
// the bridge to the remote debugging target, and the rendered view.
// Disposed is terminal; a new show request constructs a fresh instance.
type Controller struct {
	id        string
	targetURL string
	title     string
	cspSource string
	created   time.Time

	registry *Registry
	surface  Surface
	bridge   Bridge
	renderer Renderer
	resolver *view.Resolver
	reporter telemetry.Reporter
	history  History

	mu       sync.Mutex
	disposed bool
	visible  bool
	html     string
}

// ID returns the panel ID.
func (c *Controller) ID() string {
	return c.id
}

// TargetURL returns the remote debugging target URL.
func (c *Controller) TargetURL() string {
	return c.targetURL
}

// IsDisposed returns true once the controller has been disposed.
func (c *Controller) IsDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// IsVisible returns true while at least one page is attached.
func (c *Controller) IsVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// Show renders the panel HTML for first display. Serving the page counts
// as the first show, so this render bypasses the visibility check.
func (c *Controller) Show() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return "", model.ErrPanelDisposed
	}
	if err := c.renderLocked(); err != nil {
		return "", err
	}
	return c.html, nil
}

// HTML returns the most recently rendered panel HTML, which may be empty
// before the first show.
func (c *Controller) HTML() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.html
}

// Update re-renders the panel HTML, but only while the panel is visible.
// Invisible panels keep their last render; disposed panels never render.
func (c *Controller) Update() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed || !c.visible {
		return nil
	}
	return c.renderLocked()
}

// renderLocked resolves the three bundled resource URIs, passes them with
// the CSP source unchanged to the renderer, and stores its output verbatim.
func (c *Controller) renderLocked() error {
	html, err := c.renderer.Render(view.Data{
		CSPSource:     c.cspSource,
		ScriptURI:     c.resolver.ScriptURI(),
		StylesheetURI: c.resolver.StylesheetURI(),
		IconFontURI:   c.resolver.IconFontURI(),
		TargetURL:     c.targetURL,
		Title:         c.title,
	})
	if err != nil {
		return err
	}
	c.html = html
	return nil
}

// PostToWebview wraps the event into the fixed wire envelope and posts
// it to the panel surface. The message key is omitted when hasMessage is
// false. Fire-and-forget, ordered per panel; no-op after disposal.
func (c *Controller) PostToWebview(event ws.SocketEvent, message string, hasMessage bool) {
	if c.IsDisposed() {
		return
	}
	if err := c.surface.PostEnvelope(c.id, event, message, hasMessage); err != nil {
		log.Printf("panel %s: failed to post envelope: %v", c.id, err)
	}
}

// ReportError routes one error string surfaced by the bridge. Strings
// matching the structured dialog shape reach the dialog; everything
// else, malformed JSON included, goes to telemetry.
func (c *Controller) ReportError(raw string) {
	if c.IsDisposed() {
		return
	}

	var payload errorPayload
	if err := json.Unmarshal([]byte(raw), &payload); err == nil &&
		len(payload.ErrorCode) > 0 && payload.Title != "" && payload.Message != "" {
		if err := c.surface.PresentDialog(c.id, payload.ErrorCode, payload.Title, payload.Message); err != nil {
			log.Printf("panel %s: failed to present dialog: %v", c.id, err)
		}
		return
	}

	c.reporter.ReportEvent(TelemetryEventError, map[string]string{"message": raw})
}

// Dispose tears the panel down: the registry slot is cleared, the
// surface released, the bridge disposed and the history row marked.
// Idempotent; second and later calls are no-ops.
func (c *Controller) Dispose(reason string) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.visible = false
	bridge := c.bridge
	c.mu.Unlock()

	if c.registry != nil {
		c.registry.clear(c)
	}

	c.surface.NotifyDisposed(c.id, reason)
	c.surface.Release(c.id)

	if bridge != nil {
		bridge.Dispose()
	}

	if c.history != nil {
		if err := c.history.MarkDisposed(context.Background(), c.id, reason); err != nil {
			log.Printf("panel %s: failed to record disposal: %v", c.id, err)
		}
	}
}

// handleWebviewMessage forwards one raw page frame to the bridge without
// interpreting it. Frames arriving before the bridge is wired or after
// disposal are dropped.
func (c *Controller) handleWebviewMessage(raw []byte) {
	c.mu.Lock()
	bridge := c.bridge
	disposed := c.disposed
	c.mu.Unlock()

	if disposed || bridge == nil {
		return
	}
	bridge.HandleWebviewMessage(raw)
}

// handleVisibility reacts to attach-state transitions. Regaining
// visibility re-renders the view; losing it does not dispose, the panel
// keeps its state in the background.
func (c *Controller) handleVisibility(visible bool) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.visible = visible
	c.mu.Unlock()

	if visible {
		if err := c.Update(); err != nil {
			log.Printf("panel %s: failed to re-render: %v", c.id, err)
		}
	}
}
