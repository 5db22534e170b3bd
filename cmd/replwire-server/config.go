package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration. Flags override file values.
type Config struct {
	// ListenTCP is the address for raw byte-stream sessions (telnet
	// negotiation). Empty disables the listener.
	ListenTCP string `yaml:"listen_tcp"`

	// ListenHTTP is the address for WebSocket sessions. Empty disables
	// the listener.
	ListenHTTP string `yaml:"listen_http"`

	// Engine selects the command engine: "echo" or "shell".
	Engine string `yaml:"engine"`

	// ShellCommand is the program the shell engine runs.
	ShellCommand string   `yaml:"shell_command"`
	ShellArgs    []string `yaml:"shell_args"`

	LogLevel string `yaml:"log_level"` // debug, info, warn, error
	LogJSON  bool   `yaml:"log_json"`
}

func defaultConfig() Config {
	return Config{
		ListenTCP:  "127.0.0.1:4023",
		ListenHTTP: "127.0.0.1:8080",
		Engine:     "echo",
		LogLevel:   "info",
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.ListenTCP == "" && c.ListenHTTP == "" {
		return fmt.Errorf("nothing to listen on: set listen_tcp or listen_http")
	}
	switch c.Engine {
	case "echo", "shell":
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}
	return nil
}
