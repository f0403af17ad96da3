// Package ws provides the WebSocket transport between the service and
// attached panel pages.
package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mmdmahdiniazi/vscode-edge-devtools/internal/buffer"
)

// Frame channels posted to the panel page. Every frame carries a
// channel discriminator the page switches on.
const (
	// ChannelWebSocket carries translated socket lifecycle events.
	ChannelWebSocket = "websocket"
	// ChannelDialog carries structured error dialogs.
	ChannelDialog = "dialog"
	// ChannelDisposed announces panel teardown.
	ChannelDisposed = "disposed"
)

// SocketEvent enumerates the socket lifecycle events forwarded to the page.
type SocketEvent string

const (
	SocketEventOpen    SocketEvent = "open"
	SocketEventMessage SocketEvent = "message"
	SocketEventError   SocketEvent = "error"
	SocketEventClose   SocketEvent = "close"
)

// Envelope is the fixed wire shape posted into the panel page for socket
// traffic. Message is omitted entirely when the event carries none; it is
// never null.
type Envelope struct {
	Channel string      `json:"channel"`
	Event   SocketEvent `json:"event"`
	Message *string     `json:"message,omitempty"`
}

// DialogFrame surfaces a structured error to the page as a modal dialog.
// ErrorCode is forwarded verbatim, so string and numeric codes survive.
type DialogFrame struct {
	Channel   string          `json:"channel"`
	ErrorCode json.RawMessage `json:"errorCode,omitempty"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
}

// DisposedFrame announces that the panel behind this page is gone.
type DisposedFrame struct {
	Channel string `json:"channel"`
	Reason  string `json:"reason,omitempty"`
}

// Client represents one attached panel page connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	panelID string
	send    chan []byte
	mu      sync.Mutex
	closed  bool
}

// NewClient creates a new client for an attached page.
func NewClient(hub *Hub, conn *websocket.Conn, panelID string) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		panelID: panelID,
		send:    make(chan []byte, 256),
	}
}

// Send queues a frame to be sent to the client.
func (c *Client) Send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- data:
	default:
		// Buffer full, close the client
		c.closeLocked()
	}
}

// Close closes the client connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// IsClosed returns true if the client is closed.
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// PanelID returns the panel this client is attached to.
func (c *Client) PanelID() string {
	return c.panelID
}

// Conn returns the underlying WebSocket connection.
func (c *Client) Conn() *websocket.Conn {
	return c.conn
}

// SendChan returns the send channel for the client.
func (c *Client) SendChan() <-chan []byte {
	return c.send
}

// Hub manages the page connections of one panel. Frames posted through
// the hub are also buffered so that late-attaching pages can catch up.
type Hub struct {
	panelID string
	clients map[*Client]bool
	history *buffer.FrameBuffer
	mu      sync.RWMutex

	// Callbacks
	onMessage    func(client *Client, raw []byte)
	onVisibility func(visible bool)
}

// Replay bounds per panel.
const (
	historyFrames = 512
	historyBytes  = 1 << 20
)

// NewHub creates a new Hub for the given panel.
func NewHub(panelID string) *Hub {
	return &Hub{
		panelID: panelID,
		clients: make(map[*Client]bool),
		history: buffer.NewFrameBuffer(historyFrames, historyBytes),
	}
}

// PanelID returns the panel ID for this hub.
func (h *Hub) PanelID() string {
	return h.panelID
}

// SetOnMessage sets the callback for raw frames arriving from pages.
// Payload shape is opaque at this layer.
func (h *Hub) SetOnMessage(callback func(client *Client, raw []byte)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMessage = callback
}

// SetOnVisibility sets the callback for attach-state transitions. It
// fires with true when the first page attaches and with false when the
// last one detaches.
func (h *Hub) SetOnVisibility(callback func(visible bool)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onVisibility = callback
}

// Register adds a client to the hub. Buffered history is queued to the
// client first, under the same lock that serializes Post, so the client
// sees the replayed suffix and then live frames, each exactly once.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	for _, frame := range h.history.ReadAll() {
		client.Send(frame)
	}
	h.clients[client] = true
	clientCount := len(h.clients)
	onVisibility := h.onVisibility
	h.mu.Unlock()

	if clientCount == 1 && onVisibility != nil {
		onVisibility(true)
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, known := h.clients[client]
	delete(h.clients, client)
	clientCount := len(h.clients)
	onVisibility := h.onVisibility
	h.mu.Unlock()

	client.Close()

	if known && clientCount == 0 && onVisibility != nil {
		onVisibility(false)
	}
}

// Post buffers a frame for replay and sends it to all attached pages.
// Buffering and fan-out happen under one lock so frames posted around an
// attach are neither lost nor duplicated for the attaching page.
func (h *Hub) Post(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.history.Append(data)
	for client := range h.clients {
		client.Send(data)
	}
}

// Broadcast sends a frame to all attached pages without buffering it.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		client.Send(data)
	}
}

// History returns the buffered frames in delivery order.
func (h *Hub) History() [][]byte {
	return h.history.ReadAll()
}

// ClientCount returns the number of attached pages.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HasClients returns true if any page is attached.
func (h *Hub) HasClients() bool {
	return h.ClientCount() > 0
}

// HandleMessage dispatches a raw frame from a page to the message callback.
func (h *Hub) HandleMessage(client *Client, raw []byte) {
	h.mu.RLock()
	callback := h.onMessage
	h.mu.RUnlock()

	if callback != nil {
		callback(client, raw)
	}
}

// Close closes all page connections and the hub.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[*Client]bool)
	h.mu.Unlock()

	for _, client := range clients {
		client.Close()
	}
	h.history.Clear()
}

// HubManager manages the hubs of live panels.
type HubManager struct {
	hubs map[string]*Hub
	mu   sync.RWMutex
}

// NewHubManager creates a new HubManager.
func NewHubManager() *HubManager {
	return &HubManager{
		hubs: make(map[string]*Hub),
	}
}

// GetOrCreate returns an existing hub or creates a new one for the panel.
func (m *HubManager) GetOrCreate(panelID string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[panelID]; ok {
		return hub
	}

	hub := NewHub(panelID)
	m.hubs[panelID] = hub
	return hub
}

// Get returns the hub for the panel, or nil if not found.
func (m *HubManager) Get(panelID string) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[panelID]
}

// Remove removes the hub for the panel, closing its connections.
func (m *HubManager) Remove(panelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[panelID]; ok {
		hub.Close()
		delete(m.hubs, panelID)
	}
}

// Close closes all hubs.
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, hub := range m.hubs {
		hub.Close()
	}
	m.hubs = make(map[string]*Hub)
}
