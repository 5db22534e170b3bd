package telnet

import "bytes"

// EscapeIAC prepares display bytes for transmission by doubling every
// literal 255. The input is returned unchanged (no copy) when nothing
// needs escaping.
func EscapeIAC(data []byte) []byte {
	if bytes.IndexByte(data, IAC) < 0 {
		return data
	}
	out := make([]byte, 0, len(data)+4)
	for _, b := range data {
		out = append(out, b)
		if b == IAC {
			out = append(out, IAC)
		}
	}
	return out
}

// ServerOffer is the fixed negotiation opener a session sends before any
// bytes are read. Terminal-type is requested before window-size: most peers
// answer terminal-type first, which makes the identity available early. The
// SB SEND asks the peer to report its terminal name once it agrees.
func ServerOffer() [][]byte {
	return [][]byte{
		{IAC, Do, OptTerminalType},
		{IAC, SB, OptTerminalType, TerminalTypeSend, IAC, SE},
		{IAC, Do, OptNAWS},
		{IAC, Will, OptEcho},
		{IAC, Will, OptSuppressGoAhead},
	}
}
