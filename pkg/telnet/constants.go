// Package telnet implements the negotiation side of the telnet protocol:
// option negotiation (WILL/WONT/DO/DONT), subnegotiation (SB ... SE) and
// IAC byte-stuffing. It does not interpret display escape sequences; bytes
// that are not part of a control sequence pass through untouched.
package telnet

// Command bytes (RFC 854).
const (
	SE   byte = 240 // end of subnegotiation
	SB   byte = 250 // begin subnegotiation
	Will byte = 251
	Wont byte = 252
	Do   byte = 253
	Dont byte = 254
	IAC  byte = 255 // interpret as command
)

// Option bytes.
const (
	OptBinary          byte = 0  // RFC 856
	OptEcho            byte = 1  // RFC 857
	OptSuppressGoAhead byte = 3  // RFC 858
	OptTerminalType    byte = 24 // RFC 1091
	OptNAWS            byte = 31 // RFC 1073, window size reporting
)

// Terminal-type subnegotiation markers (RFC 1091).
const (
	TerminalTypeIs   byte = 0
	TerminalTypeSend byte = 1
)
