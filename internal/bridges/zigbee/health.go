package zigbee

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/mqtt"
)

// HealthStatus represents the operational status of the adapter.
type HealthStatus string

const (
	// HealthHealthy means every prefix connection is up.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded means at least one prefix connection is down.
	HealthDegraded HealthStatus = "degraded"

	// HealthStopping is published once during shutdown.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage is the retained status document.
// Topic: graylogic/health/zigbee/<bridge-id>
type HealthMessage struct {
	Bridge         string             `json:"bridge"`
	Timestamp      time.Time          `json:"timestamp"`
	Status         HealthStatus       `json:"status"`
	Version        string             `json:"version"`
	UptimeSeconds  int64              `json:"uptime_seconds"`
	Connections    []ConnectionStatus `json:"connections"`
	DevicesManaged int                `json:"devices_managed"`
	Reason         string             `json:"reason,omitempty"`
}

// healthSource is what the reporter needs from the adapter.
type healthSource interface {
	Connections() []ConnectionStatus
	DeviceCount() int
	publishHealth(topic string, payload []byte) error
}

// HealthReporterConfig holds configuration for the health reporter.
type HealthReporterConfig struct {
	BridgeID string
	Version  string

	// Interval defaults to 30 seconds.
	Interval time.Duration

	Source healthSource
}

// HealthReporter publishes the adapter's status at a fixed interval.
type HealthReporter struct {
	bridgeID  string
	version   string
	startTime time.Time
	interval  time.Duration
	source    healthSource

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// NewHealthReporter creates a reporter. Call Start to begin reporting.
func NewHealthReporter(cfg HealthReporterConfig) *HealthReporter {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HealthReporter{
		bridgeID:  cfg.BridgeID,
		version:   cfg.Version,
		startTime: time.Now(),
		interval:  interval,
		source:    cfg.Source,
		done:      make(chan struct{}),
	}
}

// Start begins periodic reporting until ctx ends or Stop is called.
func (h *HealthReporter) Start(ctx context.Context) {
	h.wg.Add(1)
	go h.reportLoop(ctx)
}

// Stop ends reporting and publishes a final "stopping" status.
// Safe to call multiple times.
func (h *HealthReporter) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.wg.Wait()

		//nolint:errcheck // best-effort during shutdown
		h.publishStatus(HealthStopping, "shutdown")
	})
}

// SetLogger sets the logger for this reporter.
func (h *HealthReporter) SetLogger(logger Logger) {
	h.loggerMu.Lock()
	h.logger = logger
	h.loggerMu.Unlock()
}

// PublishNow publishes the current status immediately.
func (h *HealthReporter) PublishNow() error {
	status, reason := h.determineStatus()
	return h.publishStatus(status, reason)
}

// Topic returns the retained health topic.
func (h *HealthReporter) Topic() string {
	return mqtt.Topics{}.BridgeHealth("zigbee", h.bridgeID)
}

func (h *HealthReporter) reportLoop(ctx context.Context) {
	defer h.wg.Done()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	if err := h.PublishNow(); err != nil {
		h.logError("failed to publish initial health", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ticker.C:
			if err := h.PublishNow(); err != nil {
				h.logError("failed to publish health", err)
			}
		}
	}
}

func (h *HealthReporter) determineStatus() (HealthStatus, string) {
	for _, c := range h.source.Connections() {
		if !c.Connected {
			return HealthDegraded, "prefix " + c.Prefix + " disconnected"
		}
	}
	return HealthHealthy, ""
}

func (h *HealthReporter) buildMessage(status HealthStatus, reason string) HealthMessage {
	return HealthMessage{
		Bridge:         h.bridgeID,
		Timestamp:      time.Now().UTC(),
		Status:         status,
		Version:        h.version,
		UptimeSeconds:  int64(time.Since(h.startTime).Seconds()),
		Connections:    h.source.Connections(),
		DevicesManaged: h.source.DeviceCount(),
		Reason:         reason,
	}
}

func (h *HealthReporter) publishStatus(status HealthStatus, reason string) error {
	if h.source == nil {
		return nil
	}
	payload, err := json.Marshal(h.buildMessage(status, reason))
	if err != nil {
		return err
	}
	return h.source.publishHealth(h.Topic(), payload)
}

func (h *HealthReporter) logError(msg string, err error) {
	h.loggerMu.RLock()
	logger := h.logger
	h.loggerMu.RUnlock()

	if logger != nil {
		logger.Error(msg, "error", err)
	}
}
