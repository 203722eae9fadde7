package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is the default HTTP server port.
	DefaultPort = "8080"

	// DefaultDatabaseURL is empty; must be provided via flag, environment or config file.
	DefaultDatabaseURL = ""

	// DefaultLogLevel is used when neither flag nor config sets one.
	DefaultLogLevel = "info"

	// DefaultAutoDismissDelay is how long a resolved session stays visible.
	DefaultAutoDismissDelay = 1500 * time.Millisecond

	// DefaultWriteTimeout bounds a single event store write.
	DefaultWriteTimeout = 10 * time.Second
)

type Server struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Database struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Session struct {
	AutoDismissDelay time.Duration `yaml:"auto_dismiss_delay"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
}

type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Log      Log      `yaml:"log"`
	Session  Session  `yaml:"session"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads a YAML config file. Unset values fall back to their defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) validate() error {
	if c.Session.AutoDismissDelay < 0 {
		return fmt.Errorf("session.auto_dismiss_delay must not be negative")
	}
	if c.Session.WriteTimeout < 0 {
		return fmt.Errorf("session.write_timeout must not be negative")
	}
	if c.Database.MinConns > 0 && c.Database.MaxConns > 0 && c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) exceeds max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	return nil
}

func (c *Config) applyDefaults() {
	// Defaults
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Session.AutoDismissDelay == 0 {
		c.Session.AutoDismissDelay = DefaultAutoDismissDelay
	}
	if c.Session.WriteTimeout == 0 {
		c.Session.WriteTimeout = DefaultWriteTimeout
	}
}
