package history

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-zigbee/internal/bridges/zigbee"
)

const (
	defaultBufferSize    = 1024
	defaultPruneInterval = 24 * time.Hour
	writeTimeout         = 5 * time.Second
)

// Logger is the logging interface used by the recorder.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// store is the part of Repository the recorder writes through.
type store interface {
	RecordPropertyChange(ctx context.Context, change zigbee.PropertyChange) error
	RecordEvent(ctx context.Context, event zigbee.Event) error
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// RecorderConfig configures a Recorder.
type RecorderConfig struct {
	// BufferSize bounds queued writes. Default: 1024.
	BufferSize int

	// Retention enables pruning when positive.
	Retention time.Duration

	// PruneInterval defaults to 24h.
	PruneInterval time.Duration

	Logger Logger
}

// Recorder is a zigbee.Host that appends property changes and events to
// the audit log. Notifications are queued and written by a background
// goroutine; when the queue is full the record is dropped and logged.
type Recorder struct {
	store         store
	queue         chan func(context.Context) error
	retention     time.Duration
	pruneInterval time.Duration
	logger        Logger

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

var _ zigbee.Host = (*Recorder)(nil)

// NewRecorder creates a recorder. Call Start before notifications arrive.
func NewRecorder(repo *Repository, cfg RecorderConfig) *Recorder {
	return newRecorder(repo, cfg)
}

func newRecorder(s store, cfg RecorderConfig) *Recorder {
	size := cfg.BufferSize
	if size <= 0 {
		size = defaultBufferSize
	}
	interval := cfg.PruneInterval
	if interval <= 0 {
		interval = defaultPruneInterval
	}
	return &Recorder{
		store:         s,
		queue:         make(chan func(context.Context) error, size),
		retention:     cfg.Retention,
		pruneInterval: interval,
		logger:        cfg.Logger,
		done:          make(chan struct{}),
	}
}

// Start launches the writer goroutine.
func (r *Recorder) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.run(ctx)
}

// Stop drains queued writes and waits for the writer to exit.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.wg.Wait()
	})
}

func (r *Recorder) DeviceAdded(zigbee.DeviceDescription) {}

func (r *Recorder) DeviceRemoved(string) {}

func (r *Recorder) PropertyChanged(change zigbee.PropertyChange) {
	r.enqueue(func(ctx context.Context) error {
		return r.store.RecordPropertyChange(ctx, change)
	})
}

func (r *Recorder) EventEmitted(event zigbee.Event) {
	r.enqueue(func(ctx context.Context) error {
		return r.store.RecordEvent(ctx, event)
	})
}

func (r *Recorder) enqueue(write func(context.Context) error) {
	select {
	case r.queue <- write:
	default:
		r.logWarn("history queue full, dropping record")
	}
}

func (r *Recorder) run(ctx context.Context) {
	defer r.wg.Done()

	var prune <-chan time.Time
	if r.retention > 0 {
		ticker := time.NewTicker(r.pruneInterval)
		defer ticker.Stop()
		prune = ticker.C
		r.prune(ctx)
	}

	for {
		select {
		case write := <-r.queue:
			r.write(ctx, write)
		case <-prune:
			r.prune(ctx)
		case <-ctx.Done():
			return
		case <-r.done:
			r.drain(ctx)
			return
		}
	}
}

func (r *Recorder) drain(ctx context.Context) {
	for {
		select {
		case write := <-r.queue:
			r.write(ctx, write)
		default:
			return
		}
	}
}

func (r *Recorder) write(ctx context.Context, write func(context.Context) error) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()
	if err := write(wctx); err != nil {
		r.logError("history write failed", err)
	}
}

func (r *Recorder) prune(ctx context.Context) {
	n, err := r.store.Prune(ctx, r.retention)
	if err != nil {
		r.logError("history prune failed", err)
		return
	}
	if n > 0 && r.logger != nil {
		r.logger.Info("history pruned", "rows", n, "retention", r.retention)
	}
}

func (r *Recorder) logWarn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}

func (r *Recorder) logError(msg string, err error) {
	if r.logger != nil {
		r.logger.Error(msg, "error", err)
	}
}
