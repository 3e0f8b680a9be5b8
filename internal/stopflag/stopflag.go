// Package stopflag provides a one-shot cancellation signal shared across
// goroutines. Setting the flag wakes every waiter at once, and it is safe to
// set from any goroutine, including a signal handler.
package stopflag

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCancelled is returned by operations aborted because the flag was set.
var ErrCancelled = errors.New("cancelled")

// Flag is a one-shot signal. The zero value is not usable; call New.
type Flag struct {
	mu   sync.Mutex
	set  bool
	done chan struct{}
}

// New returns an unset Flag.
func New() *Flag {
	return &Flag{done: make(chan struct{})}
}

// Set trips the flag. It is idempotent: once set, the flag stays set.
func (f *Flag) Set() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.set {
		f.set = true
		close(f.done)
	}
}

// IsSet reports whether the flag has been set.
func (f *Flag) IsSet() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.set
}

// Done returns a channel that is closed when the flag is set. Waiting for
// cancellation is a receive on this channel.
func (f *Flag) Done() <-chan struct{} {
	return f.done
}

// Context derives a context from parent that is cancelled as soon as the flag
// is set. Callers must call the returned cancel func when the guarded
// operation completes so the watcher goroutine is released.
func (f *Flag) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-f.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Sleep blocks for d, or returns ErrCancelled early if the flag is set first.
func (f *Flag) Sleep(d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-f.done:
		return ErrCancelled
	}
}
