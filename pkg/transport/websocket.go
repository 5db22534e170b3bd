package transport

import (
	"io"
	"sync/atomic"
	"time"

	gorillaws "github.com/gorilla/websocket"
)

// closeGrace bounds the graceful close handshake before the connection is
// torn down hard.
const closeGrace = time.Second

// WebSocket adapts a gorilla connection in binary mode into a byte Carrier:
// each Write becomes one binary frame, Reads drain one frame at a time into
// the caller's buffer. A close frame from the peer reads as io.EOF.
type WebSocket struct {
	conn    *gorillaws.Conn
	readBuf []byte
	closed  atomic.Bool
}

// NewWebSocket wraps conn as a binary byte carrier. The adapter takes over
// the connection; nothing else may read or write it.
func NewWebSocket(conn *gorillaws.Conn) *WebSocket {
	return &WebSocket{conn: conn}
}

func (w *WebSocket) Read(p []byte) (int, error) {
	if len(w.readBuf) > 0 {
		n := copy(p, w.readBuf)
		w.readBuf = w.readBuf[n:]
		return n, nil
	}
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			// Close frames, broken connections and local Close all
			// land here; the session sees a finished stream.
			return 0, io.EOF
		}
		if messageType != gorillaws.BinaryMessage || len(data) == 0 {
			continue
		}
		n := copy(p, data)
		if n < len(data) {
			w.readBuf = data[n:]
		}
		return n, nil
	}
}

func (w *WebSocket) Write(p []byte) error {
	if w.closed.Load() {
		return ErrClosed
	}
	if err := w.conn.WriteMessage(gorillaws.BinaryMessage, p); err != nil {
		return ErrClosed
	}
	return nil
}

// Close runs the close handshake with a bounded deadline, then closes the
// connection, unblocking any pending Read.
func (w *WebSocket) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	return closeConn(w.conn)
}

// TextWebSocket adapts a gorilla connection into a MessageCarrier: one text
// frame per message in each direction. Used where terminal metadata travels
// in-band as sentinel-prefixed text messages.
type TextWebSocket struct {
	conn   *gorillaws.Conn
	closed atomic.Bool
}

// NewTextWebSocket wraps conn as a text message carrier.
func NewTextWebSocket(conn *gorillaws.Conn) *TextWebSocket {
	return &TextWebSocket{conn: conn}
}

func (w *TextWebSocket) ReadMessage() ([]byte, error) {
	_, data, err := w.conn.ReadMessage()
	if err != nil {
		return nil, io.EOF
	}
	return data, nil
}

func (w *TextWebSocket) WriteMessage(p []byte) error {
	if w.closed.Load() {
		return ErrClosed
	}
	if err := w.conn.WriteMessage(gorillaws.TextMessage, p); err != nil {
		return ErrClosed
	}
	return nil
}

func (w *TextWebSocket) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	return closeConn(w.conn)
}

func closeConn(conn *gorillaws.Conn) error {
	deadline := time.Now().Add(closeGrace)
	// Best effort: the peer may already be gone.
	conn.WriteControl(gorillaws.CloseMessage,
		gorillaws.FormatCloseMessage(gorillaws.CloseNormalClosure, ""),
		deadline)
	conn.SetReadDeadline(deadline)
	return conn.Close()
}
