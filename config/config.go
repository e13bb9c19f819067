// Package config defines the runtime configuration for telemon and the
// helpers that validate it.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"telemon/internal/errors"
	"telemon/internal/transport"
)

// Config holds every tuneable for a single telemon session.
type Config struct {
	// ── Inputs ───────────────────────────────────────────────────────
	Device       string // serial device path (positional argument)
	Baud         int
	KeyboardOnly bool // -K: clock and keyboard echo, no serial feed

	// ── Timing ───────────────────────────────────────────────────────
	Interval time.Duration // clock re-arm interval

	// ── Output ───────────────────────────────────────────────────────
	Verbose int
	LogFile string
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		Baud:     DefaultBaud,
		Interval: DefaultInterval,
	}
}

// SerialEnabled reports whether the session reads a serial feed.
func (c *Config) SerialEnabled() bool { return !c.KeyboardOnly }

// ParseBaud accepts a decimal baud rate supported by the opener.
func ParseBaud(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid baud rate %q", s)
	}
	if !transport.ValidBaud(n) {
		return 0, fmt.Errorf("unsupported baud rate %d", n)
	}
	return n, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.KeyboardOnly {
		if c.Device != "" {
			return &errors.ConfigError{
				Field:   "keyboard-only",
				Message: fmt.Sprintf("no serial device is read, but %q was given", c.Device),
				Hint:    "drop -K to monitor the device",
			}
		}
	} else if c.Device == "" {
		return errors.ErrMissingDevice
	}

	if c.SerialEnabled() && !transport.ValidBaud(c.Baud) {
		return &errors.ConfigError{
			Field:   "baud",
			Value:   c.Baud,
			Message: "unsupported rate",
			Hint:    "use one of " + bauds(),
		}
	}

	if c.Interval <= 0 {
		return &errors.ConfigError{
			Field:   "interval",
			Value:   c.Interval,
			Message: "must be positive",
		}
	}
	return nil
}

func bauds() string {
	s := make([]string, len(transport.SupportedBauds))
	for i, b := range transport.SupportedBauds {
		s[i] = strconv.Itoa(b)
	}
	return strings.Join(s, ", ")
}
