package model

import (
	"net/url"
	"time"
)

// PanelStatus represents the lifecycle state of a screencast panel.
type PanelStatus string

const (
	PanelStatusActive   PanelStatus = "active"
	PanelStatusDisposed PanelStatus = "disposed"
)

// Dispose reasons recorded when a panel leaves the active state.
const (
	DisposeReasonPanelClosed  = "panel_closed"
	DisposeReasonSocketClosed = "socket_closed"
	DisposeReasonExplicit     = "explicit"
	DisposeReasonSuperseded   = "superseded"
	DisposeReasonShutdown     = "shutdown"
)

// Panel represents one screencast panel instance bound to a remote
// debugging target. A disposed panel is terminal; showing the same
// target again creates a new record.
type Panel struct {
	ID            string      `json:"id"`
	TargetURL     string      `json:"targetUrl"`
	Title         string      `json:"title,omitempty"`
	Status        PanelStatus `json:"status"`
	DisposeReason string      `json:"disposeReason,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	DisposedAt    *time.Time  `json:"disposedAt,omitempty"`
}

// Lifetime returns how long the panel has been (or was) active.
func (p *Panel) Lifetime() time.Duration {
	if p.DisposedAt != nil {
		return p.DisposedAt.Sub(p.CreatedAt)
	}
	return time.Since(p.CreatedAt)
}

// CreatePanelRequest represents a request to show a panel for a target.
type CreatePanelRequest struct {
	TargetURL string `json:"targetUrl" binding:"required"`
	Title     string `json:"title"`
}

// Validate validates the create panel request.
func (r *CreatePanelRequest) Validate() error {
	if r.TargetURL == "" {
		return ErrTargetRequired
	}
	u, err := url.Parse(r.TargetURL)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
		return ErrInvalidTargetURL
	}
	return nil
}

// LaunchRequest represents a request to launch a browser with a
// remote debugging port.
type LaunchRequest struct {
	BrowserPath string `json:"browserPath" binding:"required"`
	Port        int    `json:"port"`
	StartURL    string `json:"startUrl"`
	UserDataDir string `json:"userDataDir"`
}

// Validate validates the launch request.
func (r *LaunchRequest) Validate() error {
	if r.BrowserPath == "" {
		return ErrBrowserPathRequired
	}
	if r.Port < 0 || r.Port > 65535 {
		return ErrInvalidPort
	}
	return nil
}

// BrowserStatus represents the state of a launched browser process.
type BrowserStatus string

const (
	BrowserStatusRunning BrowserStatus = "running"
	BrowserStatusExited  BrowserStatus = "exited"
)

// Browser represents a browser process launched by this service.
type Browser struct {
	ID          string        `json:"id"`
	BrowserPath string        `json:"browserPath"`
	Port        int           `json:"port"`
	StartURL    string        `json:"startUrl,omitempty"`
	PID         *int          `json:"pid,omitempty"`
	ExitCode    *int          `json:"exitCode,omitempty"`
	Status      BrowserStatus `json:"status"`
	StartedAt   time.Time     `json:"startedAt"`
}

// Target represents one attachable page reported by a browser's
// remote debugging endpoint. Field names follow the /json/list wire
// format so the response can be forwarded as-is.
type Target struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	Type                 string `json:"type"`
	URL                  string `json:"url"`
	WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	DevtoolsFrontendURL  string `json:"devtoolsFrontendUrl,omitempty"`
	FaviconURL           string `json:"faviconUrl,omitempty"`
}
