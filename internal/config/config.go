package config

import (
	"net/url"
	"strings"
	"time"
)

// Config holds client configuration values.
type Config struct {
	ServerURL        string        `mapstructure:"server_url" yaml:"server_url"`
	SocketPath       string        `mapstructure:"socket_path" yaml:"socket_path"`
	StoragePath      string        `mapstructure:"storage_path" yaml:"storage_path"`
	LogLevel         string        `mapstructure:"log_level" yaml:"log_level"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout" yaml:"handshake_timeout"`
	MaxMessageBytes  int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:        "http://localhost:5000",
		SocketPath:       "/socket",
		StoragePath:      "evidark.db",
		LogLevel:         "info",
		HandshakeTimeout: 10 * time.Second,
		MaxMessageBytes:  1 << 20,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.SocketPath != "" {
		c.SocketPath = other.SocketPath
	}
	if other.StoragePath != "" {
		c.StoragePath = other.StoragePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.HandshakeTimeout != 0 {
		c.HandshakeTimeout = other.HandshakeTimeout
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
}

// SocketURL derives the websocket endpoint from ServerURL and SocketPath.
// http and https map to ws and wss; a ws or wss base is kept as is.
func (c Config) SocketURL() (string, error) {
	u, err := url.Parse(strings.TrimSpace(c.ServerURL))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	if c.SocketPath != "" {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.TrimPrefix(c.SocketPath, "/")
	}
	return u.String(), nil
}
