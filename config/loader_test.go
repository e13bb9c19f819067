package config

import (
	"testing"
)

func TestLoadFromEnv_Baud(t *testing.T) {
	t.Setenv("TELEMON_BAUD", "115200")
	cfg := Default()
	LoadFromEnv(cfg)
	if cfg.Baud != 115200 {
		t.Errorf("Baud = %d, want 115200", cfg.Baud)
	}
}

func TestLoadFromEnv_InvalidBaudIgnored(t *testing.T) {
	t.Setenv("TELEMON_BAUD", "14400")
	cfg := Default()
	LoadFromEnv(cfg)
	if cfg.Baud != DefaultBaud {
		t.Errorf("Baud = %d, want default %d", cfg.Baud, DefaultBaud)
	}
}

func TestLoadFromEnv_Verbose(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"2", 2},
		{"0", 0},
		{"loud", 0},
		{"-1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TELEMON_VERBOSE", tt.value)
			cfg := Default()
			LoadFromEnv(cfg)
			if cfg.Verbose != tt.want {
				t.Errorf("Verbose = %d, want %d", cfg.Verbose, tt.want)
			}
		})
	}
}

func TestLoadFromEnv_LogFile(t *testing.T) {
	t.Setenv("TELEMON_LOG_FILE", "/tmp/telemon.log")
	cfg := Default()
	LoadFromEnv(cfg)
	if cfg.LogFile != "/tmp/telemon.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
}

// The device path is deliberately not read from the environment.
func TestLoadFromEnv_NoDevice(t *testing.T) {
	t.Setenv("TELEMON_DEVICE", "/dev/ttyUSB0")
	cfg := Default()
	LoadFromEnv(cfg)
	if cfg.Device != "" {
		t.Errorf("Device = %q, want empty", cfg.Device)
	}
}

func TestLoadFromEnv_Empty(t *testing.T) {
	cfg := Default()
	LoadFromEnv(cfg)
	if cfg.Baud != DefaultBaud || cfg.Verbose != 0 || cfg.LogFile != "" {
		t.Errorf("unexpected overlay: %+v", cfg)
	}
}
