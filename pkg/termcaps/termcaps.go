// Package termcaps holds the terminal metadata types shared by the wire
// protocols and the session layer.
package termcaps

import "strings"

// Capability is a bitset of terminal capabilities a peer can report.
type Capability uint8

const (
	CapAnsi Capability = 1 << iota
	CapVTInput
	CapResizeReporting
	CapIdentityReporting
)

var capNames = []struct {
	cap  Capability
	name string
}{
	{CapAnsi, "ansi"},
	{CapVTInput, "vt-input"},
	{CapResizeReporting, "resize-reporting"},
	{CapIdentityReporting, "identity-reporting"},
}

// ParseCapability matches a single capability token, case-insensitively.
// Unknown tokens report false.
func ParseCapability(token string) (Capability, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	for _, c := range capNames {
		if c.name == token {
			return c.cap, true
		}
	}
	return 0, false
}

// ParseCapabilities folds a comma-separated capability list into a bitset,
// ignoring unknown tokens.
func ParseCapabilities(list string) Capability {
	var caps Capability
	for _, token := range strings.Split(list, ",") {
		if c, ok := ParseCapability(token); ok {
			caps |= c
		}
	}
	return caps
}

// Has reports whether all capabilities in mask are set.
func (c Capability) Has(mask Capability) bool {
	return c&mask == mask
}

// Tokens returns the set capabilities as canonical tokens.
func (c Capability) Tokens() []string {
	var tokens []string
	for _, n := range capNames {
		if c&n.cap != 0 {
			tokens = append(tokens, n.name)
		}
	}
	return tokens
}

// String renders the bitset as a comma-separated token list.
func (c Capability) String() string {
	return strings.Join(c.Tokens(), ",")
}

// WindowSize is a terminal size sample in character cells. Both values are
// non-zero in any size the protocols report.
type WindowSize struct {
	Cols uint16
	Rows uint16
}
