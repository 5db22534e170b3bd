// Package session wires a transport carrier, the negotiation protocols and
// an externally supplied command engine into one session lifecycle:
// Created → Negotiating → Active → Draining → Closed.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/replwire/replwire/pkg/replctl"
	"github.com/replwire/replwire/pkg/telnet"
	"github.com/replwire/replwire/pkg/termcaps"
	"github.com/replwire/replwire/pkg/transport"
)

// Engine is the command layer driving a session. It reads decoded input
// from the terminal and writes output text back; when Run returns, the
// session drains and closes. A nil error and context cancellation are both
// normal completions.
type Engine interface {
	Run(ctx context.Context, term *Terminal) error
}

// DefaultDrainGrace bounds how long a closing session waits for in-flight
// writes and for the receive loop to let go of the carrier.
const DefaultDrainGrace = time.Second

type sessionState int32

const (
	stateCreated sessionState = iota
	stateNegotiating
	stateActive
	stateDraining
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateCreated:
		return "created"
	case stateNegotiating:
		return "negotiating"
	case stateActive:
		return "active"
	case stateDraining:
		return "draining"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

// Session owns one connection's transport framing and terminal negotiation.
// Create one per accepted connection and call Run exactly once.
type Session struct {
	carrier transport.Carrier        // byte carrier, telnet negotiation
	msgs    transport.MessageCarrier // message carrier, in-band control

	meta  *Metadata
	sizes *sizeWait

	// Pending output queue: many producers, one drain goroutine, which is
	// the only writer touching the carrier.
	out      chan []byte
	sendStop chan struct{}
	sendDone chan struct{}
	stopOnce sync.Once

	logger      *slog.Logger
	transcript  TranscriptCollector
	outLog      io.Writer
	sizeTimeout time.Duration
	drainGrace  time.Duration

	state  atomic.Int32
	cancel context.CancelFunc
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Without one the session is silent.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithTranscript records the session's decoded input and output.
func WithTranscript(collector TranscriptCollector) Option {
	return func(s *Session) { s.transcript = collector }
}

// WithSizeTimeout bounds the one-shot WindowSize wait.
func WithSizeTimeout(d time.Duration) Option {
	return func(s *Session) { s.sizeTimeout = d }
}

// WithDrainGrace bounds the Draining phase.
func WithDrainGrace(d time.Duration) Option {
	return func(s *Session) { s.drainGrace = d }
}

// New creates a session over a byte carrier. Terminal metadata is carried by
// telnet option negotiation embedded in the byte stream.
func New(carrier transport.Carrier, opts ...Option) *Session {
	s := newSession(opts)
	s.carrier = carrier
	return s
}

// NewMessage creates a session over a message carrier. Terminal metadata is
// carried by sentinel-prefixed control messages in the text stream.
func NewMessage(carrier transport.MessageCarrier, opts ...Option) *Session {
	s := newSession(opts)
	s.msgs = carrier
	return s
}

func newSession(opts []Option) *Session {
	s := &Session{
		meta:       newMetadata(),
		out:        make(chan []byte, 256),
		sendStop:   make(chan struct{}),
		sendDone:   make(chan struct{}),
		transcript: noopTranscript{},
		outLog:     io.Discard,
		drainGrace: DefaultDrainGrace,
	}
	for _, opt := range opts {
		opt(s)
	}
	// Created eagerly, before any bytes are read, so a size negotiated
	// during the handshake cannot outrun the first waiter.
	s.sizes = newSizeWait(s.sizeTimeout)
	return s
}

// Metadata returns the current terminal metadata snapshot.
func (s *Session) Metadata() Info {
	return s.meta.Snapshot()
}

// MetadataUpdates exposes the conflated metadata change notification.
func (s *Session) MetadataUpdates() <-chan Info {
	return s.meta.Updates()
}

// WindowSize waits, bounded by the configured timeout, for the first
// reported window size. false means unknown, which callers treat as normal.
func (s *Session) WindowSize(ctx context.Context) (termcaps.WindowSize, bool) {
	return s.sizes.wait(ctx)
}

// Resizes exposes the standing size-changed notification.
func (s *Session) Resizes() <-chan termcaps.WindowSize {
	return s.sizes.resizes
}

// Run drives the session until the engine completes, the carrier ends, or
// ctx is cancelled, then drains and closes. Cancellation and carrier loss
// are normal terminations, not errors; only an engine failure is returned.
func (s *Session) Run(ctx context.Context, engine Engine) error {
	if engine == nil {
		return errors.New("session: nil engine")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancel = cancel

	pr, pw := io.Pipe()
	term := &Terminal{s: s, in: pr}
	inLog := s.transcript.StreamWriter("input")
	s.outLog = s.transcript.StreamWriter("output")
	defer s.transcript.Close()

	go s.sendLoop()

	if s.carrier != nil {
		s.toState(stateNegotiating)
		for _, frame := range telnet.ServerOffer() {
			s.enqueue(frame)
		}
	}
	s.toState(stateActive)

	recvDone := make(chan struct{})
	go func() {
		defer close(recvDone)
		defer pw.Close()
		s.receiveLoop(ctx, pw, inLog)
	}()

	engineDone := make(chan error, 1)
	go func() { engineDone <- engine.Run(ctx, term) }()

	var engineErr error
	select {
	case engineErr = <-engineDone:
	case <-recvDone:
		// Carrier ended; the engine sees EOF on its next read. Give it
		// a bounded chance to finish cleanly.
		select {
		case engineErr = <-engineDone:
		case <-ctx.Done():
		case <-time.After(s.drainGrace):
		}
	case <-ctx.Done():
	}

	s.toState(stateDraining)
	cancel()
	// Unblocks an engine still mid-read and a receive loop stuck handing
	// off display bytes.
	pr.Close()
	s.stopSend()

	s.toState(stateClosed)
	s.meta.close()
	if s.carrier != nil {
		s.carrier.Close()
	} else {
		s.msgs.Close()
	}
	select {
	case <-recvDone:
	case <-time.After(s.drainGrace):
	}

	if engineErr != nil && !errors.Is(engineErr, context.Canceled) {
		return engineErr
	}
	return nil
}

func (s *Session) toState(st sessionState) {
	s.state.Store(int32(st))
	if s.logger != nil {
		s.logger.Debug("session state", "state", st.String())
	}
}

func (s *Session) currentState() sessionState {
	return sessionState(s.state.Load())
}

// enqueue adds an owned frame to the pending output queue. Frames enqueued
// after the send loop has been stopped are dropped.
func (s *Session) enqueue(frame []byte) {
	select {
	case <-s.sendStop:
		return
	default:
	}
	select {
	case s.out <- frame:
	case <-s.sendStop:
	}
}

// sendLoop is the single carrier writer. A write failure marks the session
// for draining but the loop keeps consuming so producers never block on a
// dead carrier.
func (s *Session) sendLoop() {
	defer close(s.sendDone)
	for {
		select {
		case frame := <-s.out:
			if err := s.writeFrame(frame); err != nil {
				if s.logger != nil {
					s.logger.Debug("carrier write failed", "error", err)
				}
				s.cancel()
			}
		case <-s.sendStop:
			// Flush whatever is already queued, then exit.
			for {
				select {
				case frame := <-s.out:
					s.writeFrame(frame)
				default:
					return
				}
			}
		}
	}
}

func (s *Session) writeFrame(frame []byte) error {
	if s.msgs != nil {
		return s.msgs.WriteMessage(frame)
	}
	return s.carrier.Write(frame)
}

func (s *Session) stopSend() {
	s.stopOnce.Do(func() { close(s.sendStop) })
	select {
	case <-s.sendDone:
	case <-time.After(s.drainGrace):
	}
}

func (s *Session) receiveLoop(ctx context.Context, pw *io.PipeWriter, inLog io.Writer) {
	if s.msgs != nil {
		s.receiveMessages(ctx, pw, inLog)
		return
	}

	parser := telnet.NewParser(telnet.Sinks{
		Display: func(b []byte) {
			inLog.Write(b)
			pw.Write(b)
		},
		Reply:        s.enqueue,
		WindowSize:   s.handleSize,
		TerminalType: s.handleTerminalType,
	})

	buf := make([]byte, 4096)
	for ctx.Err() == nil {
		n, err := s.carrier.Read(buf)
		if n > 0 {
			parser.Feed(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func (s *Session) receiveMessages(ctx context.Context, pw *io.PipeWriter, inLog io.Writer) {
	for ctx.Err() == nil {
		data, err := s.msgs.ReadMessage()
		if err != nil {
			return
		}
		if line := string(data); replctl.IsControl(line) {
			if msg, ok := replctl.Parse(line); ok {
				s.applyControl(msg)
			} else if s.logger != nil {
				s.logger.Debug("dropping malformed control message")
			}
			continue
		}
		inLog.Write(data)
		if _, err := pw.Write(data); err != nil {
			return
		}
	}
}

func (s *Session) handleSize(cols, rows uint16) {
	if s.currentState() >= stateDraining {
		return
	}
	size := termcaps.WindowSize{Cols: cols, Rows: rows}
	s.sizes.publish(size)
	s.meta.setSize(size)
	if s.logger != nil {
		s.logger.Debug("window size reported", "cols", cols, "rows", rows)
	}
}

func (s *Session) handleTerminalType(name string) {
	if s.currentState() >= stateDraining {
		return
	}
	s.meta.setTerminal(name)
	if s.logger != nil {
		s.logger.Debug("terminal identity reported", "terminal", name)
	}
}

func (s *Session) applyControl(msg replctl.Message) {
	if s.currentState() >= stateDraining {
		return
	}
	if msg.Terminal != "" {
		s.meta.setTerminal(msg.Terminal)
	}
	if msg.Size != nil {
		s.sizes.publish(*msg.Size)
		s.meta.setSize(*msg.Size)
	}
	if msg.ANSI != nil {
		s.meta.setANSI(*msg.ANSI)
	}
	s.meta.addCaps(msg.Caps)
	if s.logger != nil {
		s.logger.Debug("control message applied", "kind", msg.Kind.String())
	}
}
