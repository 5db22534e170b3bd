package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replwire/replwire/pkg/termcaps"
)

func TestSizeWaitTimeout(t *testing.T) {
	w := newSizeWait(100 * time.Millisecond)

	start := time.Now()
	size, ok := w.wait(context.Background())
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.Zero(t, size)
	// Not early, not much late.
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestSizeWaitFirstPublishWins(t *testing.T) {
	w := newSizeWait(time.Second)
	w.publish(termcaps.WindowSize{Cols: 80, Rows: 24})
	w.publish(termcaps.WindowSize{Cols: 120, Rows: 40})

	// The one-shot cell keeps the first sample...
	size, ok := w.wait(context.Background())
	require.True(t, ok)
	assert.Equal(t, termcaps.WindowSize{Cols: 80, Rows: 24}, size)

	// ...and repeated waits see it immediately.
	size, ok = w.wait(context.Background())
	require.True(t, ok)
	assert.Equal(t, termcaps.WindowSize{Cols: 80, Rows: 24}, size)

	// The standing notification is conflated to the latest sample.
	select {
	case latest := <-w.resizes:
		assert.Equal(t, termcaps.WindowSize{Cols: 120, Rows: 40}, latest)
	default:
		t.Fatal("expected a pending resize notification")
	}
}

func TestSizeWaitPublishRacesAheadOfWaiter(t *testing.T) {
	w := newSizeWait(time.Second)

	go func() {
		time.Sleep(20 * time.Millisecond)
		w.publish(termcaps.WindowSize{Cols: 100, Rows: 50})
	}()

	size, ok := w.wait(context.Background())
	require.True(t, ok)
	assert.Equal(t, termcaps.WindowSize{Cols: 100, Rows: 50}, size)
}

func TestSizeWaitContextCancellation(t *testing.T) {
	w := newSizeWait(10 * time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, ok := w.wait(ctx)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSizeWaitToleratesZeroWaiters(t *testing.T) {
	w := newSizeWait(time.Second)
	// Nobody is listening; publishes must not block.
	for i := 0; i < 100; i++ {
		w.publish(termcaps.WindowSize{Cols: uint16(i + 1), Rows: 24})
	}
	size, ok := w.wait(context.Background())
	require.True(t, ok)
	assert.Equal(t, termcaps.WindowSize{Cols: 1, Rows: 24}, size)
}
