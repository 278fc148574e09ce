package gatt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidIdleTimeout   = errors.New("gatt: invalid stream idle timeout")
	ErrInvalidSweepInterval = errors.New("gatt: invalid sweep interval")
	ErrMissingName          = errors.New("gatt: missing host name")
)

// HostConfig configures one transport host.
type HostConfig struct {
	Name string
	// StreamIdleTimeout bounds how long a partial inbound stream or an
	// unfinished outbound cursor may sit untouched before the janitor drops it.
	StreamIdleTimeout time.Duration
	SweepInterval     time.Duration
	AdminListenAddr   string
	// Characteristics restricts the ids served; empty accepts any id.
	Characteristics []string
}

func DefaultHostConfig() HostConfig {
	return HostConfig{
		Name:              "blehost",
		StreamIdleTimeout: 30 * time.Second,
		SweepInterval:     5 * time.Second,
		AdminListenAddr:   "127.0.0.1:9400",
	}
}

// WithDefaults fills zero values from DefaultHostConfig.
func (c HostConfig) WithDefaults() HostConfig {
	def := DefaultHostConfig()
	if strings.TrimSpace(c.Name) == "" {
		c.Name = def.Name
	}
	if c.StreamIdleTimeout == 0 {
		c.StreamIdleTimeout = def.StreamIdleTimeout
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = def.SweepInterval
	}
	return c
}

func (c HostConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrMissingName
	}
	if c.StreamIdleTimeout <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidIdleTimeout, c.StreamIdleTimeout)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSweepInterval, c.SweepInterval)
	}
	return nil
}
