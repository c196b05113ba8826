package dispatch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestKickRunsStep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan struct{}, 8)
	d := New(func() { ran <- struct{}{} })
	d.Start(ctx)

	d.Kick()
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for step")
	}
}

func TestKickNeverBlocks(t *testing.T) {
	d := New(func() {})
	// Not started: repeated kicks must still return immediately.
	for i := 0; i < 100; i++ {
		d.Kick()
	}
}

func TestKicksCoalesce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	gate := make(chan struct{})
	d := New(func() {
		runs.Add(1)
		<-gate
	})
	d.Start(ctx)

	d.Kick()
	// Wait for the first run to start, then pile on kicks while it is busy.
	for runs.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	for i := 0; i < 10; i++ {
		d.Kick()
	}
	gate <- struct{}{} // release first run
	gate <- struct{}{} // the ten kicks coalesce into exactly one more

	// Allow any stragglers to surface.
	time.Sleep(20 * time.Millisecond)
	if got := runs.Load(); got != 2 {
		t.Fatalf("runs = %d, want 2 (coalesced)", got)
	}
	cancel()
	d.Wait()
}

func TestAtMostOneConcurrentRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var active, peak atomic.Int32
	d := New(func() {
		if n := active.Add(1); n > peak.Load() {
			peak.Store(n)
		}
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
	})
	d.Start(ctx)

	for i := 0; i < 50; i++ {
		d.Kick()
		time.Sleep(time.Millisecond)
	}
	cancel()
	d.Wait()

	if peak.Load() != 1 {
		t.Fatalf("peak concurrency = %d, want 1", peak.Load())
	}
}

func TestCancelAndWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := New(func() {})
	d.Start(ctx)
	d.Kick()
	cancel()

	done := make(chan struct{})
	go func() { d.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after cancel")
	}
}
