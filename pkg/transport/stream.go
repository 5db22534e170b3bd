package transport

import (
	"io"
	"sync/atomic"
	"time"
)

// readDeadliner is the subset of net.Conn used to unblock a pending Read.
type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// Stream adapts a bidirectional byte stream (a TCP connection, a named
// pipe) into a Carrier. The underlying stream's lifetime stays with the
// caller: Close only marks the adapter end-of-use and, when the stream
// supports read deadlines, kicks any blocked Read loose.
type Stream struct {
	rw     io.ReadWriter
	closed atomic.Bool
}

// NewStream wraps rw. rw is typically a net.Conn but any io.ReadWriter works;
// without deadline support a Read blocked in the kernel stays blocked until
// the owner closes the stream itself.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{rw: rw}
}

func (s *Stream) Read(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, io.EOF
	}
	n, err := s.rw.Read(p)
	if err != nil {
		// Reset, timeout-after-close, genuine EOF: all end the stream.
		return n, io.EOF
	}
	return n, nil
}

func (s *Stream) Write(p []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if _, err := s.rw.Write(p); err != nil {
		return ErrClosed
	}
	return nil
}

// Close marks the adapter closed and unblocks a pending Read. It never
// closes the wrapped stream.
func (s *Stream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if d, ok := s.rw.(readDeadliner); ok {
		d.SetReadDeadline(time.Now())
	}
	return nil
}
