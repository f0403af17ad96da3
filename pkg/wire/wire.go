// Package wire exposes the panel wire contract for front-end tooling
// and embedders: the fixed envelope posted to panel pages and the frame
// names pages post back.
package wire

import (
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/socket"
	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/ws"
)

// Re-export the frame shapes posted to panel pages.
type (
	Envelope      = ws.Envelope
	DialogFrame   = ws.DialogFrame
	DisposedFrame = ws.DisposedFrame
	SocketEvent   = ws.SocketEvent
)

// Channels posted to the panel page.
const (
	ChannelWebSocket = ws.ChannelWebSocket
	ChannelDialog    = ws.ChannelDialog
	ChannelDisposed  = ws.ChannelDisposed
)

// Socket lifecycle events carried on the websocket channel.
const (
	SocketEventOpen    = ws.SocketEventOpen
	SocketEventMessage = ws.SocketEventMessage
	SocketEventError   = ws.SocketEventError
	SocketEventClose   = ws.SocketEventClose
)

// Frame names the page prefixes onto messages it posts back, as
// "name:body".
const (
	FrameWebSocket   = socket.FrameWebSocket
	FrameTelemetry   = socket.FrameTelemetry
	FrameReportError = socket.FrameReportError
)
