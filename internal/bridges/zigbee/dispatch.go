package zigbee

import (
	"context"
	"sync"
)

// dispatcher serialises all registry and property mutation onto a single
// goroutine. Broker callbacks post work without blocking; host calls use
// do and wait for the closure to finish.
//
// The queue is unbounded so that paho's delivery goroutines never stall
// behind a loop that is itself waiting on a broker acknowledgement.
type dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	closed  bool
	running bool

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}

	onPanic func(recovered any)
}

func newDispatcher(onPanic func(any)) *dispatcher {
	return &dispatcher{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		onPanic: onPanic,
	}
}

// start launches the loop goroutine. Calling start twice is a no-op.
func (d *dispatcher) start() {
	d.mu.Lock()
	if d.running || d.closed {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	go d.run()
}

func (d *dispatcher) run() {
	defer close(d.stopped)

	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()

		for _, fn := range batch {
			select {
			case <-d.done:
				return
			default:
			}
			d.exec(fn)
		}

		select {
		case <-d.wake:
		case <-d.done:
			return
		}
	}
}

// exec runs one closure; a panic is reported and does not kill the loop.
func (d *dispatcher) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil && d.onPanic != nil {
			d.onPanic(r)
		}
	}()
	fn()
}

// post enqueues fn without waiting. It returns false once the dispatcher
// has been stopped.
func (d *dispatcher) post(fn func()) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

// discard drops every queued closure that has not started.
func (d *dispatcher) discard() {
	d.mu.Lock()
	d.queue = nil
	d.mu.Unlock()
}

// do enqueues fn and waits for it to complete. If ctx ends first, do
// returns ctx.Err() and fn still runs later.
func (d *dispatcher) do(ctx context.Context, fn func()) error {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()
	if !running {
		return ErrNotRunning
	}

	complete := make(chan struct{})
	if !d.post(func() {
		defer close(complete)
		fn()
	}) {
		return ErrNotRunning
	}

	select {
	case <-complete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopped:
		select {
		case <-complete:
			return nil
		default:
			return ErrNotRunning
		}
	}
}

// stop ends the loop and waits for the closure in progress to return.
// Queued closures that have not started are dropped.
func (d *dispatcher) stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	running := d.running
	d.queue = nil
	d.mu.Unlock()

	close(d.done)
	if running {
		<-d.stopped
	}
}
