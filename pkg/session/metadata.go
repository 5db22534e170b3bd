package session

import (
	"sync"

	"github.com/replwire/replwire/pkg/termcaps"
)

// Info is an immutable snapshot of a session's terminal metadata. Pointer
// fields are nil until the peer has reported the value.
type Info struct {
	Terminal string
	Size     *termcaps.WindowSize
	ANSI     *bool
	Caps     termcaps.Capability
}

// Metadata is the session-scoped terminal metadata record. Negotiation
// callbacks are the only writers; everyone else reads snapshots. Writers
// always publish whole replacement values, never partial mutation visible
// mid-update.
type Metadata struct {
	mu      sync.RWMutex
	info    Info
	closed  bool
	updates chan Info
}

func newMetadata() *Metadata {
	return &Metadata{updates: make(chan Info, 1)}
}

// Snapshot returns the current metadata.
func (m *Metadata) Snapshot() Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.info
}

// Updates is a conflated change notification: it always holds the latest
// snapshot and never blocks the writer, so it is safe with zero readers.
func (m *Metadata) Updates() <-chan Info {
	return m.updates
}

func (m *Metadata) setSize(size termcaps.WindowSize) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info.Size = &size
	m.info.Caps |= termcaps.CapResizeReporting
	m.publishLocked()
}

func (m *Metadata) setTerminal(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info.Terminal = name
	m.info.Caps |= termcaps.CapIdentityReporting
	m.publishLocked()
}

func (m *Metadata) setANSI(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info.ANSI = &v
	if v {
		m.info.Caps |= termcaps.CapAnsi
	}
	m.publishLocked()
}

func (m *Metadata) addCaps(caps termcaps.Capability) {
	if caps == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.info.Caps |= caps
	m.publishLocked()
}

// close stops further notifications. A closed session must not emit events.
func (m *Metadata) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *Metadata) publishLocked() {
	if m.closed {
		return
	}
	// Replace whatever snapshot is still unconsumed.
	select {
	case <-m.updates:
	default:
	}
	select {
	case m.updates <- m.info:
	default:
	}
}
