package zigbee

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatcher_RunsInOrder(t *testing.T) {
	d := newDispatcher(nil)
	d.start()
	defer d.stop()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		if !d.post(func() { got = append(got, i) }) {
			t.Fatal("post() = false on running dispatcher")
		}
	}
	if err := d.do(context.Background(), func() {}); err != nil {
		t.Fatalf("do() error = %v", err)
	}

	if len(got) != 100 {
		t.Fatalf("ran %d closures, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, out of order", i, v)
		}
	}
}

func TestDispatcher_RecoversPanic(t *testing.T) {
	var panics atomic.Int32
	d := newDispatcher(func(any) { panics.Add(1) })
	d.start()
	defer d.stop()

	err := d.do(context.Background(), func() { panic("boom") })
	if err != nil {
		t.Fatalf("do() error = %v", err)
	}

	ran := false
	if err := d.do(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("do() after panic error = %v", err)
	}
	if !ran {
		t.Error("loop stopped after panic")
	}
	if panics.Load() != 1 {
		t.Errorf("panics = %d, want 1", panics.Load())
	}
}

func TestDispatcher_DoContextCancelled(t *testing.T) {
	d := newDispatcher(nil)
	d.start()
	defer d.stop()

	release := make(chan struct{})
	d.post(func() { <-release })
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := d.do(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("do() error = %v, want DeadlineExceeded", err)
	}
}

func TestDispatcher_NotRunning(t *testing.T) {
	d := newDispatcher(nil)

	if err := d.do(context.Background(), func() {}); !errors.Is(err, ErrNotRunning) {
		t.Errorf("do() before start error = %v, want ErrNotRunning", err)
	}

	d.start()
	d.stop()
	d.stop()

	if d.post(func() {}) {
		t.Error("post() after stop = true")
	}
	if err := d.do(context.Background(), func() {}); !errors.Is(err, ErrNotRunning) {
		t.Errorf("do() after stop error = %v, want ErrNotRunning", err)
	}
}
