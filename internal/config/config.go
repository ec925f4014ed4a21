package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the client engine settings, loaded from a TOML file.
type Config struct {
	// ServerURL is the websocket endpoint of the chat server,
	// e.g. "ws://127.0.0.1:8000/ws/chat".
	ServerURL string `toml:"server_url"`

	// ReconnectDelay is the fixed delay between reconnect attempts.
	ReconnectDelay duration `toml:"reconnect_delay"`

	// ConnectDelay is the debounce before the first dial after Connect,
	// so rapid identity changes don't cause connect storms.
	ConnectDelay duration `toml:"connect_delay"`

	// PageLimit is the number of messages requested per history page.
	PageLimit int `toml:"page_limit"`

	// LogPath is the log file location.
	LogPath string `toml:"log_path"`
}

// duration wraps time.Duration with TOML string encoding ("1s", "100ms").
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns d as a time.Duration.
func (d duration) Duration() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServerURL:      "ws://127.0.0.1:8000/ws/chat",
		ReconnectDelay: duration(time.Second),
		ConnectDelay:   duration(100 * time.Millisecond),
		PageLimit:      5,
		LogPath:        "chatsync.log",
	}
}

// Load reads config from the given path, filling unset fields with defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = Default().PageLimit
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
