package statecache

import (
	"context"
	"encoding/json"
	"maps"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-zigbee/internal/bridges/zigbee"
)

const (
	defaultQueueSize = 256
	writeTimeout     = 2 * time.Second
)

// Logger is the logging interface used by the mirror.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// store is satisfied by *Cache.
type store interface {
	Set(ctx context.Context, id string, stateJSON []byte) error
	Delete(ctx context.Context, id string) error
	RemoveAllExcept(ctx context.Context, keepIDs []string) ([]string, error)
}

// Document is the JSON stored per device.
type Document struct {
	ID        string         `json:"id"`
	ModelID   string         `json:"model_id"`
	State     map[string]any `json:"state"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type op struct {
	id  string
	doc []byte // nil means delete
}

// Mirror is a zigbee.Host that keeps a copy of every device's cached
// property values in Redis. The current values are tracked in memory on
// the adapter's dispatch loop; whole documents are written by a background
// goroutine.
type Mirror struct {
	store  store
	logger Logger

	// docs is only touched from Host callbacks, which the adapter
	// serialises.
	docs map[string]*Document

	queue    chan op
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

var _ zigbee.Host = (*Mirror)(nil)

// NewMirror creates a mirror writing through cache.
func NewMirror(cache *Cache, logger Logger) *Mirror {
	return newMirror(cache, logger)
}

func newMirror(s store, logger Logger) *Mirror {
	return &Mirror{
		store:  s,
		logger: logger,
		docs:   make(map[string]*Document),
		queue:  make(chan op, defaultQueueSize),
		done:   make(chan struct{}),
	}
}

// Start clears stale documents left by a previous run and launches the
// writer goroutine.
func (m *Mirror) Start(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, writeTimeout)
	removed, err := m.store.RemoveAllExcept(cctx, nil)
	cancel()
	if err != nil {
		m.logError("clearing stale device state failed", err)
	} else if len(removed) > 0 && m.logger != nil {
		m.logger.Warn("removed stale device state", "count", len(removed))
	}

	m.wg.Add(1)
	go m.run(ctx)
}

// Stop flushes queued writes and waits for the writer to exit.
func (m *Mirror) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
	})
}

func (m *Mirror) DeviceAdded(device zigbee.DeviceDescription) {
	doc := &Document{
		ID:        device.ID,
		ModelID:   device.ModelID,
		State:     make(map[string]any, len(device.Properties)),
		UpdatedAt: time.Now().UTC(),
	}
	for name, p := range device.Properties {
		doc.State[name] = p.Value
	}
	m.docs[device.ID] = doc
	m.enqueueDoc(doc)
}

func (m *Mirror) DeviceRemoved(deviceID string) {
	delete(m.docs, deviceID)
	m.enqueue(op{id: deviceID})
}

func (m *Mirror) PropertyChanged(change zigbee.PropertyChange) {
	doc, ok := m.docs[change.DeviceID]
	if !ok {
		return
	}
	doc.State[change.Property] = change.Value
	doc.UpdatedAt = change.Time
	m.enqueueDoc(doc)
}

func (m *Mirror) EventEmitted(zigbee.Event) {}

func (m *Mirror) enqueueDoc(doc *Document) {
	snapshot := *doc
	snapshot.State = maps.Clone(doc.State)

	data, err := json.Marshal(snapshot)
	if err != nil {
		m.logError("encoding device state failed", err)
		return
	}
	m.enqueue(op{id: doc.ID, doc: data})
}

func (m *Mirror) enqueue(o op) {
	select {
	case m.queue <- o:
	default:
		if m.logger != nil {
			m.logger.Warn("state cache queue full, dropping update", "device_id", o.id)
		}
	}
}

func (m *Mirror) run(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case o := <-m.queue:
			m.apply(ctx, o)
		case <-ctx.Done():
			return
		case <-m.done:
			for {
				select {
				case o := <-m.queue:
					m.apply(ctx, o)
				default:
					return
				}
			}
		}
	}
}

func (m *Mirror) apply(ctx context.Context, o op) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	var err error
	if o.doc == nil {
		err = m.store.Delete(wctx, o.id)
	} else {
		err = m.store.Set(wctx, o.id, o.doc)
	}
	if err != nil {
		m.logError("state cache write failed", err, "device_id", o.id)
	}
}

func (m *Mirror) logError(msg string, err error, args ...any) {
	if m.logger != nil {
		m.logger.Error(msg, append([]any{"error", err}, args...)...)
	}
}
