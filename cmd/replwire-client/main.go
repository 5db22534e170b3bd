// replwire-client is a terminal-side client for the text-message transport.
// It puts the local terminal into raw mode, announces its identity, size and
// capabilities with an in-band hello, forwards keystrokes as text messages
// and reports window changes as resize messages.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"golang.org/x/term"

	"github.com/replwire/replwire/pkg/replctl"
	"github.com/replwire/replwire/pkg/termcaps"
)

func main() {
	url := flag.String("url", "ws://127.0.0.1:8080/text", "server WebSocket URL (text mode endpoint)")
	terminal := flag.String("terminal", "", "terminal identity to report (defaults to $TERM)")
	flag.Parse()

	if err := run(*url, *terminal); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(url, terminal string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dialer := *gorillaws.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer conn.Close()

	// The dial goroutine, the keystroke pump and the resize watcher all
	// write; gorilla allows one writer at a time.
	var writeMu sync.Mutex
	send := func(messageType int, data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(messageType, data)
	}

	if terminal == "" {
		terminal = os.Getenv("TERM")
	}
	caps := termcaps.CapAnsi | termcaps.CapResizeReporting
	if terminal != "" {
		caps |= termcaps.CapIdentityReporting
	}

	fd := int(os.Stdin.Fd())
	var size *termcaps.WindowSize
	if term.IsTerminal(fd) {
		if cols, rows, err := term.GetSize(fd); err == nil && cols > 0 && rows > 0 {
			size = &termcaps.WindowSize{Cols: uint16(cols), Rows: uint16(rows)}
		}
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("failed to enter raw mode: %w", err)
		}
		defer term.Restore(fd, oldState)
	}

	hello := replctl.FormatHello(terminal, size, true, caps)
	if err := send(gorillaws.TextMessage, []byte(hello)); err != nil {
		return fmt.Errorf("failed to send hello: %w", err)
	}

	watchWinch(ctx, func() {
		cols, rows, err := term.GetSize(fd)
		if err != nil || cols <= 0 || rows <= 0 {
			return
		}
		resize := replctl.FormatResize(termcaps.WindowSize{Cols: uint16(cols), Rows: uint16(rows)})
		send(gorillaws.TextMessage, []byte(resize))
	})

	// Keystrokes out.
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				if err := send(gorillaws.TextMessage, buf[:n]); err != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	// Server output in, until the server closes or ctx is cancelled.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			os.Stdout.Write(data)
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(gorillaws.CloseMessage,
			gorillaws.FormatCloseMessage(gorillaws.CloseNormalClosure, ""),
			deadline)
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
	return nil
}
