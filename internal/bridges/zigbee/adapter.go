package zigbee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-zigbee/internal/catalog"
	"github.com/nerrad567/gray-logic-zigbee/internal/infrastructure/mqtt"
)

// BusClient is one broker connection. *mqtt.Client satisfies it.
type BusClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
	Close() error
}

// DialFunc opens the broker connection for one topic prefix.
type DialFunc func(prefix string) (BusClient, error)

// Logger is the structured logger used by the adapter.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options holds configuration for creating an adapter.
type Options struct {
	// Catalog is the model capability catalog. Required.
	Catalog *catalog.Catalog

	// Prefixes are the zigbee2mqtt base topics, in connection order. Required.
	Prefixes []string

	// Dial opens one connection per prefix. Required.
	Dial DialFunc

	// QoS is used for every subscription and publish.
	QoS byte

	// Host receives notifications. Optional.
	Host Host

	// Logger is optional.
	Logger Logger

	// Metrics is optional.
	Metrics *Metrics

	// BridgeID and Version label health messages.
	BridgeID string
	Version  string

	// HealthInterval enables periodic health publishing when positive.
	HealthInterval time.Duration
}

type connection struct {
	prefix string
	client BusClient
}

// ConnectionStatus reports the state of one prefix's broker connection.
type ConnectionStatus struct {
	Prefix    string `json:"prefix"`
	Connected bool   `json:"connected"`
}

// Adapter bridges zigbee2mqtt topics to the device/property/event model.
//
// Registry and property state are owned by a single dispatch loop; every
// exported method is safe for concurrent use.
type Adapter struct {
	catalog  *catalog.Catalog
	prefixes []string
	dial     DialFunc
	qos      byte
	host     Host
	metrics  *Metrics

	// conns is fixed once Start has dialled every prefix.
	conns []*connection

	// devices is only touched on the dispatch loop.
	devices     map[string]*Device
	deviceCount atomic.Int64

	loop   *dispatcher
	health *HealthReporter

	started  atomic.Bool
	stopOnce sync.Once

	logger   Logger
	loggerMu sync.RWMutex
}

// NewAdapter creates an adapter. Call Start to connect.
func NewAdapter(opts Options) (*Adapter, error) {
	if opts.Catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if len(opts.Prefixes) == 0 {
		return nil, ErrNoPrefixes
	}
	for _, p := range opts.Prefixes {
		if p == "" || strings.ContainsAny(p, "+#") {
			return nil, fmt.Errorf("invalid topic prefix %q", p)
		}
	}
	if opts.Dial == nil {
		return nil, fmt.Errorf("dial function is required")
	}

	host := opts.Host
	if host == nil {
		host = noopHost{}
	}

	a := &Adapter{
		catalog:  opts.Catalog,
		prefixes: slices.Clone(opts.Prefixes),
		dial:     opts.Dial,
		qos:      opts.QoS,
		host:     host,
		metrics:  opts.Metrics,
		devices:  make(map[string]*Device),
		logger:   opts.Logger,
	}
	a.loop = newDispatcher(func(r any) {
		a.logError("recovered panic on dispatch loop", fmt.Errorf("panic: %v", r))
	})

	if opts.HealthInterval > 0 {
		a.health = NewHealthReporter(HealthReporterConfig{
			BridgeID: opts.BridgeID,
			Version:  opts.Version,
			Interval: opts.HealthInterval,
			Source:   a,
		})
		if opts.Logger != nil {
			a.health.SetLogger(opts.Logger)
		}
	}

	return a, nil
}

// Start connects every prefix, subscribes to its device-list and device
// wildcard topics, and asks zigbee2mqtt to publish the device list.
// A failed Start leaves nothing open and may be retried.
func (a *Adapter) Start(ctx context.Context) error {
	if !a.started.CompareAndSwap(false, true) {
		return fmt.Errorf("adapter already started")
	}

	conns, err := a.connect()
	if err != nil {
		a.loop.discard()
		a.started.Store(false)
		return err
	}
	a.conns = conns
	a.loop.start()

	for _, c := range a.conns {
		if err := c.client.Publish(deviceListRequestTopic(c.prefix), nil, a.qos, false); err != nil {
			a.logWarn("requesting device list failed", "prefix", c.prefix, "error", err)
		}
	}

	if a.health != nil {
		a.health.Start(ctx)
	}

	a.logInfo("zigbee adapter started",
		"prefixes", a.prefixes,
		"models", a.catalog.Len())
	return nil
}

// connect dials and subscribes every prefix in order. Messages that arrive
// before the dispatch loop starts stay queued. On failure every connection
// opened so far is closed.
func (a *Adapter) connect() ([]*connection, error) {
	conns := make([]*connection, 0, len(a.prefixes))
	fail := func(err error) ([]*connection, error) {
		for _, c := range conns {
			c.client.Close() //nolint:errcheck // already failing
		}
		return nil, err
	}

	for _, prefix := range a.prefixes {
		client, err := a.dial(prefix)
		if err != nil {
			return fail(fmt.Errorf("connecting prefix %q: %w", prefix, err))
		}
		conns = append(conns, &connection{prefix: prefix, client: client})

		for _, topic := range []string{deviceListTopic(prefix), deviceWildcardTopic(prefix)} {
			if err := client.Subscribe(topic, a.qos, a.messageHandler(prefix)); err != nil {
				return fail(fmt.Errorf("subscribing %s: %w", topic, err))
			}
		}
		a.logInfo("subscribed to zigbee2mqtt", "prefix", prefix)
	}
	return conns, nil
}

// Stop shuts the adapter down and closes every connection.
// Safe to call multiple times.
func (a *Adapter) Stop() {
	a.stopOnce.Do(func() {
		if a.health != nil {
			a.health.Stop()
		}
		a.loop.stop()
		for _, c := range a.conns {
			if err := c.client.Close(); err != nil {
				a.logWarn("closing connection failed", "prefix", c.prefix, "error", err)
			}
		}
		a.logInfo("zigbee adapter stopped")
	})
}

// messageHandler posts inbound messages for prefix onto the dispatch loop.
func (a *Adapter) messageHandler(prefix string) mqtt.MessageHandler {
	return func(topic string, payload []byte) error {
		if !a.loop.post(func() { a.handleMessage(prefix, topic, payload) }) {
			return ErrNotRunning
		}
		return nil
	}
}

// PublishMessage JSON-encodes msg and publishes it to "<prefix>/<topic>" on
// every connection. Per-connection failures are joined into the result.
func (a *Adapter) PublishMessage(ctx context.Context, topic string, msg any) error {
	var err error
	if loopErr := a.loop.do(ctx, func() {
		err = a.publishMessage(topic, msg)
	}); loopErr != nil {
		return loopErr
	}
	return err
}

// publishMessage must run on the dispatch loop.
func (a *Adapter) publishMessage(topic string, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding message for %s: %w", topic, err)
	}

	var errs []error
	for _, c := range a.conns {
		full := c.prefix + "/" + topic
		if err := c.client.Publish(full, payload, a.qos, false); err != nil {
			a.metrics.published(c.prefix, false)
			errs = append(errs, fmt.Errorf("%s: %w", full, err))
			continue
		}
		a.metrics.published(c.prefix, true)
	}
	return errors.Join(errs...)
}

// StartPairing re-requests the device list on every connection. Opening
// the zigbee network for joining is left to zigbee2mqtt itself.
func (a *Adapter) StartPairing(ctx context.Context, timeout time.Duration) error {
	var errs []error
	err := a.loop.do(ctx, func() {
		for _, c := range a.conns {
			if err := c.client.Publish(deviceListRequestTopic(c.prefix), nil, a.qos, false); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", c.prefix, err))
			}
		}
	})
	if err != nil {
		return err
	}
	a.logInfo("pairing requested", "timeout", timeout)
	return errors.Join(errs...)
}

// CancelPairing is accepted for symmetry with StartPairing and does nothing.
func (a *Adapter) CancelPairing(_ context.Context) error {
	a.logDebug("pairing cancel requested")
	return nil
}

// Device returns the registered device with the given friendly name.
func (a *Adapter) Device(ctx context.Context, id string) (*Device, error) {
	var device *Device
	if err := a.loop.do(ctx, func() {
		device = a.devices[id]
	}); err != nil {
		return nil, err
	}
	if device == nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return device, nil
}

// Devices returns snapshots of every registered device, sorted by id.
func (a *Adapter) Devices(ctx context.Context) ([]DeviceDescription, error) {
	var out []DeviceDescription
	err := a.loop.do(ctx, func() {
		out = make([]DeviceDescription, 0, len(a.devices))
		for _, d := range a.devices {
			out = append(out, d.describe())
		}
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(x, y DeviceDescription) int {
		return strings.Compare(x.ID, y.ID)
	})
	return out, nil
}

// DescribeDevice returns a snapshot of one device.
func (a *Adapter) DescribeDevice(ctx context.Context, id string) (DeviceDescription, error) {
	var (
		desc  DeviceDescription
		found bool
	)
	if err := a.loop.do(ctx, func() {
		if d, ok := a.devices[id]; ok {
			desc, found = d.describe(), true
		}
	}); err != nil {
		return DeviceDescription{}, err
	}
	if !found {
		return DeviceDescription{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	return desc, nil
}

// SetProperty looks up a device property and calls SetValue on it.
func (a *Adapter) SetProperty(ctx context.Context, deviceID, name string, value any) (any, error) {
	var (
		result any
		err    error
	)
	if loopErr := a.loop.do(ctx, func() {
		device, ok := a.devices[deviceID]
		if !ok {
			err = fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
			return
		}
		p, ok := device.properties[name]
		if !ok {
			err = fmt.Errorf("%w: %s.%s", ErrPropertyNotFound, deviceID, name)
			return
		}
		result, err = p.setValue(value)
	}); loopErr != nil {
		return nil, loopErr
	}
	return result, err
}

// DeviceCount returns the number of registered devices.
func (a *Adapter) DeviceCount() int {
	return int(a.deviceCount.Load())
}

// Connections reports each prefix's connection state, in prefix order.
// Before Start, every prefix is reported disconnected.
func (a *Adapter) Connections() []ConnectionStatus {
	if !a.started.Load() || len(a.conns) == 0 {
		out := make([]ConnectionStatus, len(a.prefixes))
		for i, p := range a.prefixes {
			out[i] = ConnectionStatus{Prefix: p}
		}
		return out
	}
	out := make([]ConnectionStatus, len(a.conns))
	for i, c := range a.conns {
		out[i] = ConnectionStatus{Prefix: c.prefix, Connected: c.client.IsConnected()}
	}
	return out
}

// Catalog returns the catalog the adapter was built with.
func (a *Adapter) Catalog() *catalog.Catalog {
	return a.catalog
}

// SetLogger sets the logger for this adapter.
func (a *Adapter) SetLogger(logger Logger) {
	a.loggerMu.Lock()
	a.logger = logger
	a.loggerMu.Unlock()
}

func (a *Adapter) getLogger() Logger {
	a.loggerMu.RLock()
	defer a.loggerMu.RUnlock()
	return a.logger
}

func (a *Adapter) logDebug(msg string, args ...any) {
	if logger := a.getLogger(); logger != nil {
		logger.Debug(msg, args...)
	}
}

func (a *Adapter) logInfo(msg string, args ...any) {
	if logger := a.getLogger(); logger != nil {
		logger.Info(msg, args...)
	}
}

func (a *Adapter) logWarn(msg string, args ...any) {
	if logger := a.getLogger(); logger != nil {
		logger.Warn(msg, args...)
	}
}

func (a *Adapter) logError(msg string, err error, args ...any) {
	if logger := a.getLogger(); logger != nil {
		logger.Error(msg, append([]any{"error", err}, args...)...)
	}
}

// publishHealth publishes a retained status document on the first
// connected prefix.
func (a *Adapter) publishHealth(topic string, payload []byte) error {
	for _, c := range a.conns {
		if c.client.IsConnected() {
			return c.client.Publish(topic, payload, 1, true)
		}
	}
	return ErrNotConnected
}
