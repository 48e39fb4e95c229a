package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/gray-logic-zigbee/internal/bridges/zigbee"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/logging"
)

// Frame types exchanged with WebSocket clients.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FramePing        = "ping"
	FramePong        = "pong"
	FrameEvent       = "event"
	FrameAck         = "ack"
	FrameError       = "error"

	// wsSendBufferSize is the per-client outbound frame buffer.
	wsSendBufferSize = 256
)

// Channels a client can subscribe to. ChannelAll matches every channel.
const (
	ChannelDeviceAdded           = "device.added"
	ChannelDeviceRemoved         = "device.removed"
	ChannelDevicePropertyChanged = "device.property_changed"
	ChannelDeviceEvent           = "device.event"
	ChannelAll                   = "*"
)

// Frame is the envelope for every WebSocket message in both directions.
type Frame struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Channel   string          `json:"channel,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// Subscription is the payload of subscribe and unsubscribe frames.
// Devices narrows delivery to the listed device ids; empty means all.
type Subscription struct {
	Channels []string `json:"channels"`
	Devices  []string `json:"devices,omitempty"`
}

// Hub fans adapter notifications out to WebSocket clients. It implements
// zigbee.Host; a slow client loses frames rather than stalling the adapter.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

var _ zigbee.Host = (*Hub)(nil)

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu       sync.RWMutex
	channels map[string]struct{}
	devices  map[string]struct{}

	dropped atomic.Uint64
}

func newWSClient(hub *Hub, conn *websocket.Conn) *wsClient {
	return &wsClient{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, wsSendBufferSize),
		channels: make(map[string]struct{}),
		devices:  make(map[string]struct{}),
	}
}

// Origin checking is done by corsMiddleware.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// NewHub creates a hub with no clients.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// Run blocks until ctx ends, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n)
}

// remove closes the client's send channel exactly once, whichever of the
// read pump and Run gets there first.
func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	close(c.send)
	h.logger.Debug("websocket client disconnected",
		"clients", n,
		"dropped_frames", c.dropped.Load())
}

// publish delivers one notification to every client whose subscription
// matches channel and deviceID.
func (h *Hub) publish(channel, deviceID string, payload any) {
	data, err := encodeFrame(FrameEvent, "", channel, payload)
	if err != nil {
		h.logger.Error("encoding websocket frame failed", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		if c.wants(channel, deviceID) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(data)
	}
}

// DeviceAdded publishes the new device's description.
func (h *Hub) DeviceAdded(device zigbee.DeviceDescription) {
	h.publish(ChannelDeviceAdded, device.ID, device)
}

// DeviceRemoved publishes the removed device's id.
func (h *Hub) DeviceRemoved(deviceID string) {
	h.publish(ChannelDeviceRemoved, deviceID, map[string]string{"device_id": deviceID})
}

// PropertyChanged publishes a property's new value.
func (h *Hub) PropertyChanged(change zigbee.PropertyChange) {
	h.publish(ChannelDevicePropertyChanged, change.DeviceID, change)
}

// EventEmitted publishes a device event.
func (h *Hub) EventEmitted(event zigbee.Event) {
	h.publish(ChannelDeviceEvent, event.DeviceID, event)
}

// handleWebSocket upgrades the request. authMiddleware has already run.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.hub.serve(conn)
}

// serve registers conn and starts its read and write loops.
func (h *Hub) serve(conn *websocket.Conn) {
	c := newWSClient(h, conn)
	h.add(c)

	pingInterval := time.Duration(h.cfg.PingInterval) * time.Second
	pongWait := time.Duration(h.cfg.PongTimeout) * time.Second
	go c.writeLoop(pingInterval, pongWait)
	go c.readLoop(int64(h.cfg.MaxMessageSize), pingInterval+pongWait)
}

func (c *wsClient) readLoop(limit int64, idle time.Duration) {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	extend := func() error { return c.conn.SetReadDeadline(time.Now().Add(idle)) }
	c.conn.SetReadLimit(limit)
	extend() //nolint:errcheck // a dead conn fails the first read
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		// Application pings count as liveness too.
		extend() //nolint:errcheck // checked by the next read
		c.handleFrame(data)
	}
}

func (c *wsClient) writeLoop(pingInterval, writeWait time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	write := func(kind int, data []byte) error {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		return c.conn.WriteMessage(kind, data)
	}

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				write(websocket.CloseMessage, nil) //nolint:errcheck // closing anyway
				return
			}
			if write(websocket.TextMessage, data) != nil {
				return
			}
		case <-ticker.C:
			if write(websocket.PingMessage, nil) != nil {
				return
			}
		}
	}
}

func (c *wsClient) handleFrame(data []byte) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		c.reply(FrameError, "", map[string]string{"message": "invalid JSON frame"})
		return
	}

	switch f.Type {
	case FrameSubscribe, FrameUnsubscribe:
		var sub Subscription
		if err := json.Unmarshal(f.Payload, &sub); err != nil || len(sub.Channels) == 0 {
			c.reply(FrameError, f.ID, map[string]string{"message": "payload must list channels"})
			return
		}
		c.update(sub, f.Type == FrameSubscribe)
		c.reply(FrameAck, f.ID, sub)
	case FramePing:
		c.reply(FramePong, f.ID, nil)
	default:
		c.reply(FrameError, f.ID, map[string]string{"message": "unknown frame type: " + f.Type})
	}
}

// update adds or removes the channels and device filters in sub.
func (c *wsClient) update(sub Subscription, subscribe bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range sub.Channels {
		if subscribe {
			c.channels[ch] = struct{}{}
		} else {
			delete(c.channels, ch)
		}
	}
	for _, id := range sub.Devices {
		if subscribe {
			c.devices[id] = struct{}{}
		} else {
			delete(c.devices, id)
		}
	}
}

func (c *wsClient) wants(channel, deviceID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, all := c.channels[ChannelAll]
	_, named := c.channels[channel]
	if !all && !named {
		return false
	}
	if len(c.devices) == 0 {
		return true
	}
	_, ok := c.devices[deviceID]
	return ok
}

func (c *wsClient) reply(frameType, id string, payload any) {
	data, err := encodeFrame(frameType, id, "", payload)
	if err != nil {
		return
	}
	c.enqueue(data)
}

// enqueue never blocks. A full buffer drops the frame; a send channel closed
// by a concurrent disconnect is absorbed.
func (c *wsClient) enqueue(data []byte) {
	defer func() {
		recover() //nolint:errcheck // send on closed channel after disconnect
	}()

	select {
	case c.send <- data:
	default:
		c.dropped.Add(1)
	}
}

func encodeFrame(frameType, id, channel string, payload any) ([]byte, error) {
	f := Frame{
		Type:      frameType,
		ID:        id,
		Channel:   channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		f.Payload = raw
	}
	return json.Marshal(f)
}

