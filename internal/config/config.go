package config

import "time"

// SendMode selects how outbound messages reach the server.
type SendMode string

const (
	// SendModeRest posts the message over HTTP and reconciles on the ack.
	SendModeRest SendMode = "rest"
	// SendModePublish publishes over the socket and reconciles on the echo.
	SendModePublish SendMode = "publish"
)

// Config holds client configuration values.
type Config struct {
	ServerURL      string        `mapstructure:"server_url" yaml:"server_url"`
	SocketURL      string        `mapstructure:"socket_url" yaml:"socket_url"`
	SendMode       SendMode      `mapstructure:"send_mode" yaml:"send_mode"`
	EchoWindow     time.Duration `mapstructure:"echo_window" yaml:"echo_window"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ArchivePath    string        `mapstructure:"archive_path" yaml:"archive_path"`
	LogLevel       string        `mapstructure:"log_level" yaml:"log_level"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		ServerURL:      "http://localhost:8080",
		SocketURL:      "ws://localhost:8080/ws",
		SendMode:       SendModeRest,
		EchoWindow:     5 * time.Second,
		RequestTimeout: 10 * time.Second,
		ArchivePath:    "wirechat.db",
		LogLevel:       "info",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.ServerURL != "" {
		c.ServerURL = other.ServerURL
	}
	if other.SocketURL != "" {
		c.SocketURL = other.SocketURL
	}
	if other.SendMode != "" {
		c.SendMode = other.SendMode
	}
	if other.EchoWindow != 0 {
		c.EchoWindow = other.EchoWindow
	}
	if other.RequestTimeout != 0 {
		c.RequestTimeout = other.RequestTimeout
	}
	if other.ArchivePath != "" {
		c.ArchivePath = other.ArchivePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
}
