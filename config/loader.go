package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)
//
// Only ambient knobs are read from the environment.  The device path
// always comes from the command line.

import (
	"os"
	"strconv"
)

// LoadFromEnv overlays TELEMON_* environment variables onto cfg.  Only
// non-empty, well-formed values override.  Call it BEFORE CLI flag
// parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("TELEMON_BAUD"); v != "" {
		if b, err := ParseBaud(v); err == nil {
			cfg.Baud = b
		}
	}
	if v := envInt("TELEMON_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if v := os.Getenv("TELEMON_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
