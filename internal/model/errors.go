package model

import "errors"

var (
	// ErrTargetRequired is returned when a panel creation request is missing the target URL.
	ErrTargetRequired = errors.New("target url is required")

	// ErrInvalidTargetURL is returned when the target URL is not a ws:// or wss:// URL.
	ErrInvalidTargetURL = errors.New("target url must be a ws or wss url")

	// ErrPanelNotFound is returned when a panel is not found.
	ErrPanelNotFound = errors.New("panel not found")

	// ErrNoActivePanel is returned when an operation requires a live panel and none exists.
	ErrNoActivePanel = errors.New("no active panel")

	// ErrPanelDisposed is returned when an operation is attempted on a disposed panel.
	ErrPanelDisposed = errors.New("panel is disposed")

	// ErrBrowserPathRequired is returned when a launch request is missing the browser path.
	ErrBrowserPathRequired = errors.New("browser path is required")

	// ErrInvalidPort is returned when a launch request carries an out-of-range port.
	ErrInvalidPort = errors.New("port must be between 0 and 65535")

	// ErrBrowserNotFound is returned when a launched browser process is not found.
	ErrBrowserNotFound = errors.New("browser not found")
)
