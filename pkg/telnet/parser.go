package telnet

import "bytes"

// maxSubnegotiation bounds the subnegotiation buffer so a peer that never
// sends IAC SE cannot grow it without limit. An oversized subnegotiation is
// discarded when it finally terminates.
const maxSubnegotiation = 4096

type parseState int

const (
	stateData parseState = iota
	stateIAC
	stateNegotiation
	stateSubneg
	stateSubnegIAC
)

// Sinks receives the parser's output. Display and Reply must be non-nil;
// the event callbacks may be nil if the caller does not care. All callbacks
// are invoked synchronously from Feed, in input order.
type Sinks struct {
	// Display receives runs of in-band display bytes with all escaping
	// removed. It may be called several times per Feed.
	Display func([]byte)

	// Reply receives complete negotiation responses (already escaped,
	// ready for the wire) that the parser wants sent back to the peer.
	Reply func([]byte)

	// WindowSize fires when a valid NAWS subnegotiation arrives. Both
	// values are guaranteed non-zero.
	WindowSize func(cols, rows uint16)

	// TerminalType fires when a terminal-type IS subnegotiation with a
	// non-empty name arrives.
	TerminalType func(name string)
}

// Parser is a resumable telnet negotiation parser. A control sequence may be
// split across any number of Feed calls; the parser keeps exactly enough
// state to resume. It is owned by a single goroutine and needs no locking.
type Parser struct {
	sinks Sinks

	state   parseState
	pending byte // WILL/WONT/DO/DONT awaiting its option byte
	subBuf  bytes.Buffer
	subOver bool
}

// NewParser returns a parser delivering output through sinks.
func NewParser(sinks Sinks) *Parser {
	return &Parser{sinks: sinks}
}

// Feed consumes one chunk of raw bytes from the wire. Malformed sequences
// are dropped silently; display bytes and control effects are delivered in
// the order they appear in the chunk.
func (p *Parser) Feed(chunk []byte) {
	runStart := -1 // start of the current display run within chunk

	flush := func(end int) {
		if runStart >= 0 && end > runStart {
			p.display(chunk[runStart:end])
		}
		runStart = -1
	}

	for i := 0; i < len(chunk); i++ {
		b := chunk[i]
		switch p.state {
		case stateData:
			if b == IAC {
				flush(i)
				p.state = stateIAC
			} else if runStart < 0 {
				runStart = i
			}

		case stateIAC:
			switch b {
			case IAC:
				// Escaped literal 255.
				p.display([]byte{IAC})
				p.state = stateData
			case Will, Wont, Do, Dont:
				p.pending = b
				p.state = stateNegotiation
			case SB:
				p.subBuf.Reset()
				p.subOver = false
				p.state = stateSubneg
			default:
				// Commands we do not handle (NOP, GA, ...) are dropped.
				p.state = stateData
			}

		case stateNegotiation:
			p.negotiate(p.pending, b)
			p.state = stateData

		case stateSubneg:
			if b == IAC {
				p.state = stateSubnegIAC
			} else {
				p.subWrite(b)
			}

		case stateSubnegIAC:
			switch b {
			case IAC:
				// Escaped 255 inside the subnegotiation payload.
				p.subWrite(IAC)
				p.state = stateSubneg
			case SE:
				p.endSubnegotiation()
				p.state = stateData
			default:
				// Anything else is a protocol violation; drop the
				// whole subnegotiation and resynchronize.
				p.subBuf.Reset()
				p.state = stateData
			}
		}
	}
	flush(len(chunk))
}

func (p *Parser) display(b []byte) {
	if p.sinks.Display != nil {
		p.sinks.Display(b)
	}
}

func (p *Parser) reply(seq ...byte) {
	if p.sinks.Reply != nil {
		p.sinks.Reply(seq)
	}
}

// negotiate answers a WILL/WONT/DO/DONT for the given option. Only the fixed
// allow-lists produce automatic responses; everything else is refused or, for
// WONT/DONT, absorbed without reply.
func (p *Parser) negotiate(cmd, opt byte) {
	switch cmd {
	case Will:
		switch opt {
		case OptBinary, OptNAWS, OptTerminalType:
			p.reply(IAC, Do, opt)
		default:
			p.reply(IAC, Dont, opt)
		}
	case Do:
		switch opt {
		case OptEcho, OptSuppressGoAhead:
			p.reply(IAC, Will, opt)
		default:
			p.reply(IAC, Wont, opt)
		}
	}
}

func (p *Parser) subWrite(b byte) {
	if p.subBuf.Len() >= maxSubnegotiation {
		p.subOver = true
		return
	}
	p.subBuf.WriteByte(b)
}

// endSubnegotiation dispatches a completed SB ... SE payload by its leading
// option byte. Malformed or unknown payloads fire nothing.
func (p *Parser) endSubnegotiation() {
	defer p.subBuf.Reset()
	if p.subOver {
		return
	}
	buf := p.subBuf.Bytes()
	if len(buf) == 0 {
		return
	}

	switch buf[0] {
	case OptNAWS:
		if len(buf) < 5 {
			return
		}
		cols := uint16(buf[1])<<8 | uint16(buf[2])
		rows := uint16(buf[3])<<8 | uint16(buf[4])
		if cols == 0 || rows == 0 {
			return
		}
		if p.sinks.WindowSize != nil {
			p.sinks.WindowSize(cols, rows)
		}

	case OptTerminalType:
		if len(buf) < 2 || buf[1] != TerminalTypeIs {
			return
		}
		name := buf[2:]
		if len(name) == 0 {
			return
		}
		if p.sinks.TerminalType != nil {
			p.sinks.TerminalType(string(name))
		}
	}
}
