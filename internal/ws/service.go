package ws

import (
	"encoding/json"
	"fmt"
)

// Service exposes panel surfaces over the WebSocket transport. Each live
// panel owns one surface: a hub fanning frames out to its attached pages.
// Surfaces keep working with zero pages attached; frames posted meanwhile
// are buffered for replay.
type Service struct {
	hubManager *HubManager
	handler    *Handler
}

// NewService creates a new WebSocket service.
func NewService() *Service {
	hubManager := NewHubManager()
	handler := NewHandler(hubManager)

	return &Service{
		hubManager: hubManager,
		handler:    handler,
	}
}

// Handler returns the WebSocket handler.
func (s *Service) Handler() *Handler {
	return s.handler
}

// HubManager returns the hub manager.
func (s *Service) HubManager() *HubManager {
	return s.hubManager
}

// CreateSurface creates the surface for a panel and wires its callbacks.
// onMessage receives raw page frames; onVisibility fires on attach-state
// transitions.
func (s *Service) CreateSurface(panelID string, onMessage func(raw []byte), onVisibility func(visible bool)) {
	hub := s.hubManager.GetOrCreate(panelID)

	if onMessage != nil {
		hub.SetOnMessage(func(c *Client, raw []byte) {
			onMessage(raw)
		})
	}
	if onVisibility != nil {
		hub.SetOnVisibility(onVisibility)
	}
}

// PostEnvelope posts a socket lifecycle event to the panel's pages using
// the fixed wire envelope. The message key is omitted when hasMessage is
// false. Fire-and-forget, ordered per panel.
func (s *Service) PostEnvelope(panelID string, event SocketEvent, message string, hasMessage bool) error {
	hub := s.hubManager.Get(panelID)
	if hub == nil {
		return fmt.Errorf("no surface for panel %s", panelID)
	}

	envelope := Envelope{
		Channel: ChannelWebSocket,
		Event:   event,
	}
	if hasMessage {
		envelope.Message = &message
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	hub.Post(data)
	return nil
}

// PresentDialog surfaces a structured error dialog on the panel's pages.
// The error code is forwarded verbatim.
func (s *Service) PresentDialog(panelID string, errorCode json.RawMessage, title, message string) error {
	hub := s.hubManager.Get(panelID)
	if hub == nil {
		return fmt.Errorf("no surface for panel %s", panelID)
	}

	frame := DialogFrame{
		Channel:   ChannelDialog,
		ErrorCode: errorCode,
		Title:     title,
		Message:   message,
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal dialog frame: %w", err)
	}

	hub.Post(data)
	return nil
}

// NotifyDisposed announces panel teardown to attached pages.
func (s *Service) NotifyDisposed(panelID string, reason string) {
	hub := s.hubManager.Get(panelID)
	if hub == nil {
		return
	}

	frame := DisposedFrame{
		Channel: ChannelDisposed,
		Reason:  reason,
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return
	}

	hub.Broadcast(data)
}

// Release tears the panel's surface down, closing attached pages.
func (s *Service) Release(panelID string) {
	s.hubManager.Remove(panelID)
}

// IsVisible returns true while at least one page is attached to the panel.
func (s *Service) IsVisible(panelID string) bool {
	hub := s.hubManager.Get(panelID)
	if hub == nil {
		return false
	}
	return hub.HasClients()
}

// ClientCount returns the number of pages attached to the panel.
func (s *Service) ClientCount(panelID string) int {
	hub := s.hubManager.Get(panelID)
	if hub == nil {
		return 0
	}
	return hub.ClientCount()
}

// Close tears down all surfaces.
func (s *Service) Close() {
	s.hubManager.Close()
}
