package stopflag

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSetIsIdempotent(t *testing.T) {
	t.Parallel()
	f := New()

	if f.IsSet() {
		t.Fatalf("new flag should not be set")
	}

	f.Set()
	f.Set() // must not panic on double close

	if !f.IsSet() {
		t.Fatalf("flag should be set")
	}

	select {
	case <-f.Done():
	default:
		t.Fatalf("Done channel should be closed after Set")
	}
}

func TestSetWakesAllWaiters(t *testing.T) {
	t.Parallel()
	f := New()

	const waiters = 8
	var wg sync.WaitGroup
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer wg.Done()
			<-f.Done()
		}()
	}

	f.Set()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("waiters were not woken")
	}
}

func TestSleepCancelled(t *testing.T) {
	t.Parallel()
	f := New()

	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Set()
	}()

	start := time.Now()
	err := f.Sleep(5 * time.Second)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("Sleep did not abort promptly")
	}
}

func TestSleepCompletes(t *testing.T) {
	t.Parallel()
	f := New()
	if err := f.Sleep(time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestContextCancelledBySet(t *testing.T) {
	t.Parallel()
	f := New()

	ctx, cancel := f.Context(context.Background())
	defer cancel()

	f.Set()

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("context was not cancelled by Set")
	}
}

func TestContextReleasedByCancel(t *testing.T) {
	t.Parallel()
	f := New()

	ctx, cancel := f.Context(context.Background())
	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("cancel did not propagate")
	}
	if f.IsSet() {
		t.Fatalf("cancel must not set the flag")
	}
}
