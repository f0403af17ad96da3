package panel

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/model"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/socket"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/telemetry"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/view"
)

// BridgeCallbacks are the hooks the registry wires into a new bridge.
type BridgeCallbacks = socket.Callbacks

// BridgeFactory constructs a bridge for a target with the given
// callbacks already wired. Tests substitute fakes.
type BridgeFactory func(targetURL string, callbacks BridgeCallbacks) Bridge

// Config holds the collaborators a Registry needs.
type Config struct {
	Surface   Surface
	Renderer  Renderer
	Resolver  *view.Resolver
	Reporter  telemetry.Reporter
	History   History
	NewBridge BridgeFactory
	CSPSource string
}

// Registry owns the zero-or-one live panel controller. It replaces a
// hidden process-wide static: constructed once in main and passed to
// every consumer that shows or closes the panel.
type Registry struct {
	cfg Config

	// showMu serializes CreateOrShow end to end so overlapping show
	// requests cannot both observe an empty slot and leak a live
	// controller.
	showMu sync.Mutex

	mu     sync.Mutex
	active *Controller
}

// NewRegistry creates a Registry. When no bridge factory is given the
// real socket bridge is dialed.
func NewRegistry(cfg Config) *Registry {
	r := &Registry{cfg: cfg}
	if r.cfg.NewBridge == nil {
		r.cfg.NewBridge = func(targetURL string, callbacks BridgeCallbacks) Bridge {
			return socket.NewBridge(targetURL, callbacks, cfg.Reporter)
		}
	}
	return r
}

// CreateOrShow shows a panel for the target. An existing live panel is
// always disposed first, completely, before the new one is constructed;
// panels restart rather than retarget in place.
func (r *Registry) CreateOrShow(ctx context.Context, targetURL, title string) (*Controller, error) {
	r.showMu.Lock()
	defer r.showMu.Unlock()

	r.mu.Lock()
	old := r.active
	r.active = nil
	r.mu.Unlock()

	if old != nil {
		old.Dispose(model.DisposeReasonSuperseded)
	}

	now := time.Now()
	record := &model.Panel{
		ID:        uuid.New().String(),
		TargetURL: targetURL,
		Title:     title,
		Status:    model.PanelStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if r.cfg.History != nil {
		if err := r.cfg.History.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to persist panel: %w", err)
		}
	}

	c := &Controller{
		id:        record.ID,
		targetURL: targetURL,
		title:     title,
		cspSource: r.cfg.CSPSource,
		created:   now,
		registry:  r,
		surface:   r.cfg.Surface,
		renderer:  r.cfg.Renderer,
		resolver:  r.cfg.Resolver,
		reporter:  r.cfg.Reporter,
		history:   r.cfg.History,
	}

	// The surface carries pages; wire its two event sources first so no
	// attach outruns the controller.
	r.cfg.Surface.CreateSurface(c.id, c.handleWebviewMessage, c.handleVisibility)

	bridge := r.cfg.NewBridge(targetURL, BridgeCallbacks{
		OnEvent: c.PostToWebview,
		OnClose: func() {
			c.Dispose(model.DisposeReasonSocketClosed)
		},
		OnReportError: c.ReportError,
	})

	c.mu.Lock()
	c.bridge = bridge
	c.mu.Unlock()

	if err := bridge.Dial(ctx); err != nil {
		// Roll back: the panel never went live.
		bridge.Dispose()
		r.cfg.Surface.Release(c.id)
		if r.cfg.History != nil {
			if derr := r.cfg.History.Delete(context.Background(), c.id); derr != nil {
				log.Printf("panel %s: failed to roll back record: %v", c.id, derr)
			}
		}
		return nil, fmt.Errorf("failed to connect to target: %w", err)
	}

	// The target can vanish between Dial returning and this point; the
	// close callback disposes the controller, and a disposed controller
	// must never be published as active.
	r.mu.Lock()
	if !c.IsDisposed() {
		r.active = c
	}
	r.mu.Unlock()

	return c, nil
}

// Active returns the live controller, or nil when no panel is shown.
func (r *Registry) Active() *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// DisposeActive disposes the live panel with the given reason. Returns
// ErrNoActivePanel when no panel is live.
func (r *Registry) DisposeActive(reason string) error {
	r.mu.Lock()
	c := r.active
	r.mu.Unlock()

	if c == nil {
		return model.ErrNoActivePanel
	}
	c.Dispose(reason)
	return nil
}

// Close is the shutdown hook: it disposes the live panel, if any.
func (r *Registry) Close() {
	if err := r.DisposeActive(model.DisposeReasonShutdown); err != nil && err != model.ErrNoActivePanel {
		log.Printf("registry: failed to dispose on shutdown: %v", err)
	}
}

// clear empties the registry slot if it still holds c. Disposal of a
// superseded controller must not evict its successor.
func (r *Registry) clear(c *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == c {
		r.active = nil
	}
}

// Panel returns a snapshot record of the controller for API responses.
func (c *Controller) Panel() *model.Panel {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := model.PanelStatusActive
	if c.disposed {
		status = model.PanelStatusDisposed
	}
	return &model.Panel{
		ID:        c.id,
		TargetURL: c.targetURL,
		Title:     c.title,
		Status:    status,
		CreatedAt: c.created,
		UpdatedAt: c.created,
	}
}
