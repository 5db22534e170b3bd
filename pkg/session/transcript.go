package session

import (
	"bytes"
	"io"
	"sync"
)

// TranscriptCollector records the decoded text flowing through a session.
// Stream names are "input" (what the peer typed, after protocol decoding)
// and "output" (what the engine wrote, before escaping).
type TranscriptCollector interface {
	// StreamWriter returns a writer for the named stream.
	StreamWriter(name string) io.Writer

	// Close releases the collector's resources.
	Close() error
}

type noopTranscript struct{}

func (noopTranscript) StreamWriter(string) io.Writer { return io.Discard }
func (noopTranscript) Close() error                  { return nil }

// MemoryTranscript collects transcript data in memory, mainly for tests and
// short-lived diagnostic capture.
type MemoryTranscript struct {
	mu      sync.Mutex
	streams map[string]*bytes.Buffer
}

// NewMemoryTranscript returns an empty in-memory collector.
func NewMemoryTranscript() *MemoryTranscript {
	return &MemoryTranscript{streams: make(map[string]*bytes.Buffer)}
}

func (m *MemoryTranscript) StreamWriter(name string) io.Writer {
	return &memoryStreamWriter{transcript: m, name: name}
}

func (m *MemoryTranscript) Close() error { return nil }

// StreamData returns a copy of the bytes collected for a stream.
func (m *MemoryTranscript) StreamData(name string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.streams[name]
	if !ok {
		return nil
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out
}

type memoryStreamWriter struct {
	transcript *MemoryTranscript
	name       string
}

func (w *memoryStreamWriter) Write(p []byte) (int, error) {
	m := w.transcript
	m.mu.Lock()
	defer m.mu.Unlock()
	buf, ok := m.streams[w.name]
	if !ok {
		buf = &bytes.Buffer{}
		m.streams[w.name] = buf
	}
	return buf.Write(p)
}
