// replwire-server exposes an interactive command session over raw TCP
// (telnet negotiation) and WebSocket (binary byte mode on /terminal, text
// message mode with in-band control on /text).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	gorillaws "github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/replwire/replwire/pkg/engine"
	"github.com/replwire/replwire/pkg/session"
	"github.com/replwire/replwire/pkg/transport"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	listenTCP := flag.String("listen-tcp", "", "TCP listen address (overrides config)")
	listenHTTP := flag.String("listen-http", "", "HTTP/WebSocket listen address (overrides config)")
	engineName := flag.String("engine", "", "command engine: echo or shell (overrides config)")
	shellCmd := flag.String("shell", "", "shell engine command line (overrides config)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	logJSON := flag.Bool("log-json", false, "log in JSON format")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "listen-tcp":
			cfg.ListenTCP = *listenTCP
		case "listen-http":
			cfg.ListenHTTP = *listenHTTP
		case "engine":
			cfg.Engine = *engineName
		case "shell":
			fields := strings.Fields(*shellCmd)
			if len(fields) > 0 {
				cfg.ShellCommand = fields[0]
				cfg.ShellArgs = fields[1:]
			}
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-json":
			cfg.LogJSON = *logJSON
		}
	})
	if err := cfg.validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	if cfg.ListenTCP != "" {
		g.Go(func() error { return serveTCP(ctx, cfg, logger) })
	}
	if cfg.ListenHTTP != "" {
		g.Go(func() error { return serveHTTP(ctx, cfg, logger) })
	}
	return g.Wait()
}

func newEngine(cfg Config, logger *slog.Logger) session.Engine {
	if cfg.Engine == "shell" {
		return &engine.Shell{
			Path:   cfg.ShellCommand,
			Args:   cfg.ShellArgs,
			Logger: logger,
		}
	}
	return &engine.Echo{}
}

func serveTCP(ctx context.Context, cfg Config, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", cfg.ListenTCP)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenTCP, err)
	}
	logger.Info("listening", "proto", "tcp", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go func() {
			defer conn.Close()
			l := logger.With("remote", conn.RemoteAddr().String())
			sess := session.New(transport.NewStream(conn), session.WithLogger(l))
			if err := sess.Run(ctx, newEngine(cfg, l)); err != nil {
				l.Warn("session ended with error", "error", err)
			}
		}()
	}
}

func serveHTTP(ctx context.Context, cfg Config, logger *slog.Logger) error {
	upgrader := gorillaws.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			// TODO: restrict origins once the browser client ships.
			return true
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/terminal", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		l := logger.With("remote", r.RemoteAddr, "mode", "binary")
		sess := session.New(transport.NewWebSocket(conn), session.WithLogger(l))
		if err := sess.Run(r.Context(), newEngine(cfg, l)); err != nil {
			l.Warn("session ended with error", "error", err)
		}
	})
	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		l := logger.With("remote", r.RemoteAddr, "mode", "text")
		sess := session.NewMessage(transport.NewTextWebSocket(conn), session.WithLogger(l))
		if err := sess.Run(r.Context(), newEngine(cfg, l)); err != nil {
			l.Warn("session ended with error", "error", err)
		}
	})

	server := &http.Server{
		Addr:    cfg.ListenHTTP,
		Handler: mux,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	logger.Info("listening", "proto", "http", "addr", cfg.ListenHTTP)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
