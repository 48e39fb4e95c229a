package zigbee

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-zigbee/internal/catalog"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/mqtt"
)

// MockBusClient implements BusClient for testing.
type MockBusClient struct {
	mu            sync.Mutex
	published     []mockPublish
	subscriptions []string
	handlers      map[string]mqtt.MessageHandler
	connected     bool
	publishErr    error
	subscribeErr  error
	closed        bool
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

func NewMockBusClient() *MockBusClient {
	return &MockBusClient{
		connected: true,
		handlers:  make(map[string]mqtt.MessageHandler),
	}
}

func (m *MockBusClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, mockPublish{Topic: topic, Payload: payload, QoS: qos, Retained: retained})
	return nil
}

func (m *MockBusClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeErr != nil {
		return m.subscribeErr
	}
	m.subscriptions = append(m.subscriptions, topic)
	m.handlers[topic] = handler
	return nil
}

func (m *MockBusClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *MockBusClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.connected = false
	return nil
}

func (m *MockBusClient) setConnected(v bool) {
	m.mu.Lock()
	m.connected = v
	m.mu.Unlock()
}

// Deliver simulates the broker delivering a message on topic. Like paho,
// every handler whose subscription filter matches the topic is called, so
// overlapping subscriptions deliver the message more than once.
func (m *MockBusClient) Deliver(t *testing.T, topic string, payload []byte) {
	t.Helper()
	m.mu.Lock()
	var matched []mqtt.MessageHandler
	filters := make([]string, 0, len(m.handlers))
	for filter := range m.handlers {
		filters = append(filters, filter)
	}
	slices.Sort(filters)
	for _, filter := range filters {
		if topicMatches(filter, topic) {
			matched = append(matched, m.handlers[filter])
		}
	}
	m.mu.Unlock()

	if len(matched) == 0 {
		t.Fatalf("no subscription matches %q", topic)
	}
	for _, handler := range matched {
		if err := handler(topic, payload); err != nil {
			t.Fatalf("handler(%q) error = %v", topic, err)
		}
	}
}

// Invoke calls the handler registered for subscription directly, for
// topics a broker would not route to it.
func (m *MockBusClient) Invoke(t *testing.T, subscription, topic string, payload []byte) {
	t.Helper()
	m.mu.Lock()
	handler, ok := m.handlers[subscription]
	m.mu.Unlock()
	if !ok {
		t.Fatalf("no handler subscribed to %q", subscription)
	}
	if err := handler(topic, payload); err != nil {
		t.Fatalf("handler(%q) error = %v", topic, err)
	}
}

// topicMatches applies MQTT filter rules: "+" matches one level and a
// trailing "#" matches the rest.
func topicMatches(filter, topic string) bool {
	fs := strings.Split(filter, "/")
	ts := strings.Split(topic, "/")
	for i, f := range fs {
		if f == "#" {
			return true
		}
		if i >= len(ts) || (f != "+" && f != ts[i]) {
			return false
		}
	}
	return len(fs) == len(ts)
}

func (m *MockBusClient) getPublished() []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mockPublish, len(m.published))
	copy(out, m.published)
	return out
}

func (m *MockBusClient) publishedTo(topic string) []mockPublish {
	var out []mockPublish
	for _, p := range m.getPublished() {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func (m *MockBusClient) getSubscriptions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.subscriptions...)
}

// recordingHost implements Host and records every notification.
type recordingHost struct {
	mu      sync.Mutex
	added   []DeviceDescription
	removed []string
	changes []PropertyChange
	events  []Event
}

func (h *recordingHost) DeviceAdded(d DeviceDescription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.added = append(h.added, d)
}

func (h *recordingHost) DeviceRemoved(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removed = append(h.removed, id)
}

func (h *recordingHost) PropertyChanged(c PropertyChange) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.changes = append(h.changes, c)
}

func (h *recordingHost) EventEmitted(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHost) getEvents() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.events...)
}

func (h *recordingHost) getChanges() []PropertyChange {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]PropertyChange(nil), h.changes...)
}

func (h *recordingHost) getAdded() []DeviceDescription {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]DeviceDescription(nil), h.added...)
}

func (h *recordingHost) getRemoved() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.removed...)
}

// testLogger implements Logger and discards output.
type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// doubler multiplies numbers by two on the way to the bus and halves them
// on the way back.
func doubleToBus(v any) any {
	if f, ok := catalog.AsFloat(v); ok {
		return f * 2
	}
	return v
}

func halveFromBus(v any) any {
	if f, ok := catalog.AsFloat(v); ok {
		return f / 2
	}
	return v
}

func testCatalog() *catalog.Catalog {
	return catalog.Builtin().Merge(catalog.New(map[string]catalog.Entry{
		"doubler": {
			Name:  "Test Doubler",
			Types: []string{"MultiLevelSwitch"},
			Properties: map[string]catalog.PropertySpec{
				"level": {
					Value:   0.0,
					ToBus:   doubleToBus,
					FromBus: halveFromBus,
					Metadata: catalog.Metadata{
						Title: "Level",
						Type:  catalog.TypeNumber,
					},
				},
			},
		},
	}))
}

type testRig struct {
	adapter *Adapter
	host    *recordingHost
	clients map[string]*MockBusClient
}

// newTestRig starts an adapter with one mock client per prefix.
func newTestRig(t *testing.T, prefixes ...string) *testRig {
	t.Helper()
	if len(prefixes) == 0 {
		prefixes = []string{"zigbee2mqtt"}
	}

	rig := &testRig{
		host:    &recordingHost{},
		clients: make(map[string]*MockBusClient),
	}
	var mu sync.Mutex
	dial := func(prefix string) (BusClient, error) {
		mu.Lock()
		defer mu.Unlock()
		c := NewMockBusClient()
		rig.clients[prefix] = c
		return c, nil
	}

	a, err := NewAdapter(Options{
		Catalog:  testCatalog(),
		Prefixes: prefixes,
		Dial:     dial,
		QoS:      1,
		Host:     rig.host,
		Logger:   testLogger{},
	})
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(a.Stop)

	rig.adapter = a
	return rig
}

func (r *testRig) client(prefix string) *MockBusClient {
	return r.clients[prefix]
}

// sync waits for every message posted so far to be handled.
func (r *testRig) sync(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.adapter.loop.do(ctx, func() {}); err != nil {
		t.Fatalf("sync: %v", err)
	}
}

// setHost swaps the host on the dispatch loop.
func (r *testRig) setHost(t *testing.T, h Host) {
	t.Helper()
	if err := r.adapter.loop.do(context.Background(), func() { r.adapter.host = h }); err != nil {
		t.Fatalf("setHost: %v", err)
	}
}

func (r *testRig) deliverDeviceList(t *testing.T, prefix string, records ...map[string]any) {
	t.Helper()
	payload, err := json.Marshal(records)
	if err != nil {
		t.Fatal(err)
	}
	r.client(prefix).Deliver(t, deviceListTopic(prefix), payload)
	r.sync(t)
}

func (r *testRig) deliverState(t *testing.T, prefix, name string, msg any) {
	t.Helper()
	payload, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	r.client(prefix).Deliver(t, deviceTopic(prefix, name), payload)
	r.sync(t)
}

func (r *testRig) propertyValue(t *testing.T, deviceID, name string) any {
	t.Helper()
	d, err := r.adapter.Device(context.Background(), deviceID)
	if err != nil {
		t.Fatalf("Device(%q) error = %v", deviceID, err)
	}
	p, ok := d.Property(name)
	if !ok {
		t.Fatalf("device %q has no property %q", deviceID, name)
	}
	v, err := p.Value(context.Background())
	if err != nil {
		t.Fatalf("Value() error = %v", err)
	}
	return v
}

var errPublish = errors.New("broker unavailable")
