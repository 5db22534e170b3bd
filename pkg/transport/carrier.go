// Package transport normalizes the carrier shapes a session can run on (a
// raw byte stream, a binary WebSocket, a text-message WebSocket) into two
// small duplex abstractions.
package transport

import "errors"

// ErrClosed is returned by writes after the carrier has been closed or has
// broken. The session layer treats it as "session over", not as a fault.
var ErrClosed = errors.New("transport: carrier closed")

// Carrier is a duplex byte channel. Read follows io.Reader semantics with
// one refinement: every failure mode of the underlying connection, including
// a local Close, surfaces as io.EOF. A session cannot distinguish a reset
// peer from a finished one, and does not need to.
type Carrier interface {
	Read(p []byte) (int, error)
	Write(p []byte) error
	Close() error
}

// MessageCarrier is a duplex channel of whole, already-delimited messages.
// ReadMessage returns io.EOF once the peer or the local side has closed.
type MessageCarrier interface {
	ReadMessage() ([]byte, error)
	WriteMessage(p []byte) error
	Close() error
}
