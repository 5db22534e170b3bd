//go:build !unix

package main

import "context"

// watchWinch is a no-op on platforms without SIGWINCH.
func watchWinch(ctx context.Context, onResize func()) {}
