package config

import "time"

// Config holds server configuration values.
type Config struct {
	// Addr is the TCP listen address for the line protocol.
	Addr string `mapstructure:"addr" yaml:"addr"`
	// WSAddr is the optional HTTP listen address for the WebSocket bridge.
	// Empty disables the bridge.
	WSAddr string `mapstructure:"ws_addr" yaml:"ws_addr"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// DatabasePath points at a SQLite file for credentials. Empty keeps
	// credentials in memory for the lifetime of the process.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	// HashPasswords stores bcrypt digests instead of raw passwords.
	HashPasswords bool `mapstructure:"hash_passwords" yaml:"hash_passwords"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:            ":5555",
		WSAddr:          "",
		LogLevel:        "info",
		DatabasePath:    "",
		HashPasswords:   false,
		ShutdownTimeout: 5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Used to layer command line flags on top of file and env values.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.WSAddr != "" {
		c.WSAddr = other.WSAddr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.HashPasswords {
		c.HashPasswords = true
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}
