package session

import (
	"context"
	"sync"
	"time"

	"github.com/replwire/replwire/pkg/termcaps"
)

// DefaultSizeTimeout bounds how long WindowSize waits for the first size
// sample before reporting unknown.
const DefaultSizeTimeout = 2 * time.Second

// sizeWait bridges the recurring size-changed event stream to a one-shot,
// timeout-bounded wait for the first sample. It is created before any bytes
// are read so a size that races ahead of the first waiter is never lost.
type sizeWait struct {
	timeout time.Duration

	mu    sync.Mutex
	size  termcaps.WindowSize
	first chan struct{} // closed once, on the first publish

	resizes chan termcaps.WindowSize // conflated standing notification
}

func newSizeWait(timeout time.Duration) *sizeWait {
	if timeout <= 0 {
		timeout = DefaultSizeTimeout
	}
	return &sizeWait{
		timeout: timeout,
		first:   make(chan struct{}),
		resizes: make(chan termcaps.WindowSize, 1),
	}
}

// publish records a size sample. The first sample resolves the one-shot
// cell; every sample, including the first, lands on the standing channel.
// It never blocks, with or without consumers.
func (w *sizeWait) publish(size termcaps.WindowSize) {
	w.mu.Lock()
	select {
	case <-w.first:
	default:
		w.size = size
		close(w.first)
	}
	w.mu.Unlock()

	select {
	case <-w.resizes:
	default:
	}
	select {
	case w.resizes <- size:
	default:
	}
}

// wait returns the first published size, or (zero, false) once the timeout
// elapses or ctx is cancelled. Unknown size is a normal outcome, not an
// error.
func (w *sizeWait) wait(ctx context.Context) (termcaps.WindowSize, bool) {
	select {
	case <-w.first:
		return w.size, true
	default:
	}

	timer := time.NewTimer(w.timeout)
	defer timer.Stop()
	select {
	case <-w.first:
		return w.size, true
	case <-timer.C:
		return termcaps.WindowSize{}, false
	case <-ctx.Done():
		return termcaps.WindowSize{}, false
	}
}
