// Package engine contains command engines that drive a session's decoded
// text channel. The session layer only knows the Engine interface; these
// implementations are the demo/reference collaborators.
package engine

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/replwire/replwire/pkg/session"
)

// Echo is a minimal line-oriented engine: it prompts, echoes lines back and
// understands a couple of built-ins. Used by the demo server and the tests.
type Echo struct {
	// Prompt precedes every input line. Defaults to "> ".
	Prompt string
}

func (e *Echo) prompt() string {
	if e.Prompt == "" {
		return "> "
	}
	return e.Prompt
}

// Run reads lines until the input ends, the peer quits, or ctx is cancelled.
func (e *Echo) Run(ctx context.Context, term *session.Terminal) error {
	fmt.Fprint(term, e.prompt())

	scanner := bufio.NewScanner(term)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		switch strings.TrimSpace(line) {
		case "quit", "exit":
			fmt.Fprint(term, "bye\r\n")
			return nil
		case "size":
			if info := term.Metadata(); info.Size != nil {
				fmt.Fprintf(term, "%dx%d\r\n", info.Size.Cols, info.Size.Rows)
			} else if size, ok := term.WindowSize(ctx); ok {
				fmt.Fprintf(term, "%dx%d\r\n", size.Cols, size.Rows)
			} else {
				fmt.Fprint(term, "unknown\r\n")
			}
		case "":
		default:
			fmt.Fprintf(term, "%s\r\n", line)
		}
		fmt.Fprint(term, e.prompt())
	}
	// Input ended; scanner errors here are session teardown, not faults.
	return nil
}
