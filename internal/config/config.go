package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Queue   QueueConfig   `yaml:"queue"`
	Callers CallersConfig `yaml:"callers"`
	Status  StatusConfig  `yaml:"status"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
	NATS    NATSConfig    `yaml:"nats"`
}

type QueueConfig struct {
	Capacity int `yaml:"capacity"`
}

type CallersConfig struct {
	Count    int           `yaml:"count"`
	Interval time.Duration `yaml:"interval"` // e.g. 250ms
}

type StatusConfig struct {
	Interval time.Duration `yaml:"interval"` // e.g. 1s
	Cron     string        `yaml:"cron"`     // overrides interval, e.g. "*/5 * * * * *"
}

type MetricsConfig struct {
	Addr string `yaml:"addr"` // e.g. ":9090"; empty disables the endpoint
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json", "text"
}

type NATSConfig struct {
	URL     string `yaml:"url"` // empty disables status publishing
	Subject string `yaml:"subject"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every zero field with its default.
func (c *Config) ApplyDefaults() {
	if c.Queue.Capacity == 0 {
		c.Queue.Capacity = 64
	}
	if c.Callers.Count == 0 {
		c.Callers.Count = 3
	}
	if c.Callers.Interval == 0 {
		c.Callers.Interval = 250 * time.Millisecond
	}
	if c.Status.Interval == 0 {
		c.Status.Interval = time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "ownr.status"
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Queue.Capacity < 1 {
		errs = append(errs, fmt.Errorf("queue.capacity must be >= 1, got %d", c.Queue.Capacity))
	}
	if c.Callers.Count < 0 {
		errs = append(errs, fmt.Errorf("callers.count must be >= 0, got %d", c.Callers.Count))
	}
	if c.Callers.Interval < 0 {
		errs = append(errs, fmt.Errorf("callers.interval must be positive, got %s", c.Callers.Interval))
	}
	if c.Status.Interval < 0 {
		errs = append(errs, fmt.Errorf("status.interval must be positive, got %s", c.Status.Interval))
	}
	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return lvl, nil
}

// NewLogger builds the process logger described by l.
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	lvl, _ := l.SlogLevel()
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
