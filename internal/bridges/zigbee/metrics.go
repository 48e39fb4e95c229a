package zigbee

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Drop reasons recorded by graylogic_zigbee_messages_dropped_total.
const (
	dropForeign       = "foreign_topic"
	dropMalformed     = "malformed"
	dropUnknownDevice = "unknown_device"
	dropUnknownModel  = "unknown_model"
)

// Metrics holds the adapter's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	messagesReceived *prometheus.CounterVec
	messagesDropped  *prometheus.CounterVec
	publishedTotal   *prometheus.CounterVec
	devices          prometheus.Gauge
	events           prometheus.Counter
}

// NewMetrics creates the adapter collectors and registers them with reg.
// It panics if a collector is already registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		messagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graylogic",
			Subsystem: "zigbee",
			Name:      "messages_received_total",
			Help:      "Inbound bus messages by prefix and route.",
		}, []string{"prefix", "route"}),
		messagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graylogic",
			Subsystem: "zigbee",
			Name:      "messages_dropped_total",
			Help:      "Inbound bus messages discarded, by reason.",
		}, []string{"reason"}),
		publishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graylogic",
			Subsystem: "zigbee",
			Name:      "messages_published_total",
			Help:      "Outbound publishes by prefix and result.",
		}, []string{"prefix", "result"}),
		devices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "graylogic",
			Subsystem: "zigbee",
			Name:      "devices",
			Help:      "Registered devices.",
		}),
		events: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "graylogic",
			Subsystem: "zigbee",
			Name:      "events_emitted_total",
			Help:      "Device events raised to the host.",
		}),
	}

	reg.MustRegister(m.messagesReceived, m.messagesDropped, m.publishedTotal, m.devices, m.events)
	return m
}

func (m *Metrics) messageReceived(prefix string, kind routeKind) {
	if m == nil {
		return
	}
	m.messagesReceived.WithLabelValues(prefix, kind.String()).Inc()
}

func (m *Metrics) messageDropped(reason string) {
	if m == nil {
		return
	}
	m.messagesDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) published(prefix string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.publishedTotal.WithLabelValues(prefix, result).Inc()
}

func (m *Metrics) setDevices(n int) {
	if m == nil {
		return
	}
	m.devices.Set(float64(n))
}

func (m *Metrics) eventEmitted() {
	if m == nil {
		return
	}
	m.events.Inc()
}
