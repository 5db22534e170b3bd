package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	creackpty "github.com/creack/pty"

	"github.com/replwire/replwire/pkg/session"
)

// Shell bridges the session's decoded text channel to a local subprocess on
// a PTY. Window-size reports from the peer propagate to the PTY so the
// subprocess sees resizes.
type Shell struct {
	// Path and Args configure the subprocess. Defaults to a login bash.
	Path string
	Args []string

	// Env entries are appended to the inherited environment.
	Env []string

	Logger *slog.Logger
}

// Run starts the subprocess and pumps bytes both ways until it exits, the
// input ends, or ctx is cancelled.
func (sh *Shell) Run(ctx context.Context, term *session.Terminal) error {
	path := sh.Path
	args := sh.Args
	if path == "" {
		path = "bash"
		args = []string{"-l"}
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Env = append(os.Environ(), sh.Env...)
	if !hasTermVar(cmd.Env) {
		termName := term.Metadata().Terminal
		if termName == "" {
			termName = "xterm"
		}
		cmd.Env = append(cmd.Env, "TERM="+termName)
	}

	ptmx, err := creackpty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start shell with PTY: %w", err)
	}
	defer ptmx.Close()

	if size, ok := term.WindowSize(ctx); ok {
		if err := creackpty.Setsize(ptmx, &creackpty.Winsize{Cols: size.Cols, Rows: size.Rows}); err != nil && sh.Logger != nil {
			sh.Logger.Warn("failed to set initial PTY size", "error", err)
		}
	}

	// Later resizes during the session.
	go func() {
		for {
			select {
			case size := <-term.Resizes():
				if err := creackpty.Setsize(ptmx, &creackpty.Winsize{Cols: size.Cols, Rows: size.Rows}); err != nil && sh.Logger != nil {
					sh.Logger.Warn("failed to resize PTY", "error", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	inDone := make(chan struct{})
	outDone := make(chan struct{})
	go func() {
		defer close(inDone)
		io.Copy(ptmx, term)
	}()
	go func() {
		defer close(outDone)
		io.Copy(term, ptmx)
	}()

	select {
	case <-inDone:
	case <-outDone:
	case <-ctx.Done():
	}

	err = cmd.Wait()
	if code := exitCode(err); code != 0 && sh.Logger != nil {
		sh.Logger.Debug("shell exited", "code", code)
	}
	return nil
}

func hasTermVar(env []string) bool {
	for _, e := range env {
		if strings.HasPrefix(e, "TERM=") {
			return true
		}
	}
	return false
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
