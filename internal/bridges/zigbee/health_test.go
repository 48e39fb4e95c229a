package zigbee

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func lastHealth(t *testing.T, c *MockBusClient, topic string) HealthMessage {
	t.Helper()
	msgs := c.publishedTo(topic)
	if len(msgs) == 0 {
		t.Fatalf("no health published to %s", topic)
	}
	last := msgs[len(msgs)-1]
	if !last.Retained || last.QoS != 1 {
		t.Errorf("health publish retained=%v qos=%d, want retained qos 1", last.Retained, last.QoS)
	}
	var msg HealthMessage
	if err := json.Unmarshal(last.Payload, &msg); err != nil {
		t.Fatalf("health payload: %v", err)
	}
	return msg
}

func newHealthRig(t *testing.T, prefixes ...string) (*Adapter, map[string]*MockBusClient) {
	t.Helper()
	clients := make(map[string]*MockBusClient)
	for _, p := range prefixes {
		clients[p] = NewMockBusClient()
	}
	a, err := NewAdapter(Options{
		Catalog:        testCatalog(),
		Prefixes:       prefixes,
		Dial:           func(p string) (BusClient, error) { return clients[p], nil },
		BridgeID:       "zigbee-test",
		Version:        "1.2.3",
		HealthInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewAdapter() error = %v", err)
	}
	return a, clients
}

func TestHealthReporter_PublishNow(t *testing.T) {
	a, clients := newHealthRig(t, "a", "b")
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	if err := a.health.PublishNow(); err != nil {
		t.Fatalf("PublishNow() error = %v", err)
	}

	msg := lastHealth(t, clients["a"], "graylogic/health/zigbee/zigbee-test")
	if msg.Status != HealthHealthy {
		t.Errorf("Status = %q, want healthy", msg.Status)
	}
	if msg.Bridge != "zigbee-test" || msg.Version != "1.2.3" {
		t.Errorf("message = %+v", msg)
	}
	if len(msg.Connections) != 2 {
		t.Errorf("Connections = %+v", msg.Connections)
	}
	if got := len(clients["b"].publishedTo("graylogic/health/zigbee/zigbee-test")); got != 0 {
		t.Errorf("second prefix health publishes = %d, want 0", got)
	}
}

func TestHealthReporter_DegradedWhenPrefixDown(t *testing.T) {
	a, clients := newHealthRig(t, "a", "b")
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	clients["a"].setConnected(false)
	if err := a.health.PublishNow(); err != nil {
		t.Fatalf("PublishNow() error = %v", err)
	}

	msg := lastHealth(t, clients["b"], a.health.Topic())
	if msg.Status != HealthDegraded {
		t.Errorf("Status = %q, want degraded", msg.Status)
	}
	if msg.Reason == "" {
		t.Error("Reason is empty")
	}
}

func TestHealthReporter_StopPublishesStopping(t *testing.T) {
	a, clients := newHealthRig(t, "a")
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	a.Stop()

	msg := lastHealth(t, clients["a"], a.health.Topic())
	if msg.Status != HealthStopping {
		t.Errorf("Status = %q, want stopping", msg.Status)
	}
}

func TestHealthReporter_NoConnectedPrefix(t *testing.T) {
	a, clients := newHealthRig(t, "a")
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop()

	clients["a"].setConnected(false)
	if err := a.health.PublishNow(); err != ErrNotConnected {
		t.Errorf("PublishNow() error = %v, want ErrNotConnected", err)
	}
}

func TestHealthReporter_DefaultInterval(t *testing.T) {
	h := NewHealthReporter(HealthReporterConfig{BridgeID: "x"})
	if h.interval != 30*time.Second {
		t.Errorf("interval = %v, want 30s", h.interval)
	}
	if err := h.PublishNow(); err != nil {
		t.Errorf("PublishNow() without source error = %v", err)
	}
}
