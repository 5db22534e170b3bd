//go:build unix

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// watchWinch invokes onResize for every SIGWINCH until ctx is cancelled.
func watchWinch(ctx context.Context, onResize func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case <-ch:
				onResize()
			case <-ctx.Done():
				return
			}
		}
	}()
}
