// Package replctl implements the in-band control protocol used on
// message-based carriers that have no native negotiation channel. Terminal
// metadata travels inside ordinary text messages behind a fixed sentinel:
//
//	@@repl:hello;terminal=xterm-256color;cols=120;rows=40;ansi=true;caps=ansi,resize-reporting
//	@@repl:resize;cols=80;rows=24
//
// Each control message occupies exactly one transport message; there is no
// resumability concern here.
package replctl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/replwire/replwire/pkg/termcaps"
)

// Sentinel prefixes every control message. A message without it is plain
// display input and must be forwarded unchanged.
const Sentinel = "@@repl:"

// Kind discriminates the control message variants.
type Kind int

const (
	KindHello Kind = iota
	KindResize
)

func (k Kind) String() string {
	switch k {
	case KindHello:
		return "hello"
	case KindResize:
		return "resize"
	}
	return "unknown"
}

// Message is a parsed control message. Resize carries only Size; Hello may
// carry any subset of the fields.
type Message struct {
	Kind     Kind
	Terminal string
	Size     *termcaps.WindowSize
	ANSI     *bool
	Caps     termcaps.Capability
}

// IsControl reports whether line is addressed to the control protocol.
// Sentinel-prefixed lines are protocol traffic even when they fail to parse;
// they are never display input.
func IsControl(line string) bool {
	return strings.HasPrefix(line, Sentinel)
}

// Parse decodes one control message. The second return is false when line is
// not a control message, or carries an unknown kind, or is a resize without a
// usable size. Unknown keys are ignored for forward compatibility; malformed
// cols/rows drop the size field without failing the message.
func Parse(line string) (Message, bool) {
	if !IsControl(line) {
		return Message{}, false
	}
	body := strings.TrimSuffix(line[len(Sentinel):], "\n")
	body = strings.TrimSuffix(body, "\r")

	fields := strings.Split(body, ";")
	var msg Message
	switch fields[0] {
	case "hello":
		msg.Kind = KindHello
	case "resize":
		msg.Kind = KindResize
	default:
		return Message{}, false
	}

	var cols, rows uint16
	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "terminal":
			msg.Terminal = value
		case "cols":
			cols = parseDim(value)
		case "rows":
			rows = parseDim(value)
		case "ansi":
			if v, err := strconv.ParseBool(value); err == nil {
				msg.ANSI = &v
			}
		case "caps":
			msg.Caps = termcaps.ParseCapabilities(value)
		}
	}
	if cols > 0 && rows > 0 {
		msg.Size = &termcaps.WindowSize{Cols: cols, Rows: rows}
	}
	if msg.Kind == KindResize && msg.Size == nil {
		return Message{}, false
	}
	return msg, true
}

// parseDim parses a window dimension; non-numeric or non-positive values
// (including anything beyond 16 bits) come back as 0, dropping the field.
func parseDim(value string) uint16 {
	n, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		return 0
	}
	return uint16(n)
}

// Encode renders the message in wire form (no trailing newline).
func (m Message) Encode() string {
	var b strings.Builder
	b.WriteString(Sentinel)
	b.WriteString(m.Kind.String())
	if m.Terminal != "" {
		fmt.Fprintf(&b, ";terminal=%s", m.Terminal)
	}
	if m.Size != nil {
		fmt.Fprintf(&b, ";cols=%d;rows=%d", m.Size.Cols, m.Size.Rows)
	}
	if m.ANSI != nil {
		fmt.Fprintf(&b, ";ansi=%t", *m.ANSI)
	}
	if m.Caps != 0 {
		fmt.Fprintf(&b, ";caps=%s", m.Caps)
	}
	return b.String()
}

// FormatHello builds the hello a client-side terminal emits on connect.
func FormatHello(terminal string, size *termcaps.WindowSize, ansi bool, caps termcaps.Capability) string {
	return Message{
		Kind:     KindHello,
		Terminal: terminal,
		Size:     size,
		ANSI:     &ansi,
		Caps:     caps,
	}.Encode()
}

// FormatResize builds a resize report.
func FormatResize(size termcaps.WindowSize) string {
	return Message{Kind: KindResize, Size: &size}.Encode()
}
