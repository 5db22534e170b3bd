package session

import (
	"context"
	"io"

	"github.com/replwire/replwire/pkg/telnet"
	"github.com/replwire/replwire/pkg/termcaps"
)

// Terminal is the duplex text channel handed to the command engine. Reads
// yield already-decoded display text; writes accept arbitrary text that the
// session escapes and frames before transmission. The engine never sees
// protocol bytes.
type Terminal struct {
	s  *Session
	in *io.PipeReader
}

// Read returns decoded input. It reports io.EOF when the session drains,
// whatever the underlying cause; the engine sees only "input ended".
func (t *Terminal) Read(p []byte) (int, error) {
	n, err := t.in.Read(p)
	if err != nil {
		return n, io.EOF
	}
	return n, nil
}

// Write escapes p as needed for the carrier and enqueues it for the send
// loop. This is the only place outbound escaping happens. Writes after the
// session has begun closing are dropped.
func (t *Terminal) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	t.s.outLog.Write(p)

	// The engine may reuse p (io.Copy does); the frame must be owned.
	var frame []byte
	if t.s.msgs != nil {
		frame = append([]byte(nil), p...)
	} else {
		frame = append([]byte(nil), telnet.EscapeIAC(p)...)
	}
	t.s.enqueue(frame)
	return len(p), nil
}

// Metadata returns the current terminal metadata snapshot.
func (t *Terminal) Metadata() Info {
	return t.s.Metadata()
}

// MetadataUpdates exposes the conflated metadata change notification.
func (t *Terminal) MetadataUpdates() <-chan Info {
	return t.s.MetadataUpdates()
}

// WindowSize waits, bounded, for the first reported window size. The false
// return means the size is (still) unknown; callers treat that as normal.
func (t *Terminal) WindowSize(ctx context.Context) (termcaps.WindowSize, bool) {
	return t.s.WindowSize(ctx)
}

// Resizes exposes the standing size-changed notification. It is conflated:
// a slow consumer observes the latest size, not every intermediate one.
func (t *Terminal) Resizes() <-chan termcaps.WindowSize {
	return t.s.Resizes()
}
