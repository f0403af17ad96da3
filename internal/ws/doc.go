// Package ws provides WebSocket connection handling between the service
// and attached panel pages.
//
// The package implements:
//   - Hub: Manages the page connections of one panel
//   - HubManager: Manages hubs across live panels
//   - Handler: Upgrades page connections and pumps frames
//   - Service: Exposes panel surfaces (post, dialog, release, visibility)
//
// Key features:
//   - Fixed wire envelope for socket lifecycle events posted to pages
//   - Replay: buffered frames are queued to a page on attach, in order
//   - Surface keepalive: panels stay live with zero pages attached
//   - Opaque inbound frames: page payloads are relayed without parsing
package ws
