// Package api implements the HTTP REST API and WebSocket server for the
// zigbee bridge.
//
// This package provides:
//   - REST endpoints for device snapshots, property reads and writes, and pairing
//   - A WebSocket hub that relays adapter notifications to subscribed clients
//   - Optional HS256 JWT authentication on everything except health and metrics
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//   - A Prometheus scrape endpoint at /metrics
//
// # Architecture
//
// The Hub is registered with the adapter as a zigbee.Host. Property changes,
// device additions and removals, and device events are broadcast on the
// device.property_changed, device.added, device.removed and device.event
// channels. Writes flow the other way through Bridge.SetProperty, which
// validates and publishes on every broker prefix.
//
// The server follows the same lifecycle pattern as other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
