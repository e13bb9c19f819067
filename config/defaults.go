package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultBaud matches the sensor firmware's serial setup.
	DefaultBaud = 9600

	// DefaultInterval is the clock refresh period.
	DefaultInterval = 1 * time.Second
)
