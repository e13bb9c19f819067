package core

import (
	"context"
	"io"

	"telemon/config"
	"telemon/internal/errors"
	"telemon/internal/input"
	"telemon/internal/metrics"
	"telemon/internal/retry"
	"telemon/internal/session"
	"telemon/internal/transport"
	"telemon/util"
)

// Deps are the platform collaborators a Mode runs against.
type Deps struct {
	Opener  transport.Opener
	Keys    input.KeySource
	Screen  io.Writer
	Metrics *metrics.Collector

	// Backoff governs opening the device.  Nil uses retry.DeviceBackoff.
	Backoff *retry.Backoff
}

// Build constructs the session for cfg.  The serial device is opened
// here, so an open failure aborts startup before anything runs.
func Build(ctx context.Context, cfg *config.Config, deps Deps, logger *util.Logger) (Mode, error) {
	opts := session.Options{
		Interval: cfg.Interval,
		Keys:     deps.Keys,
		Screen:   deps.Screen,
		Logger:   logger,
		Metrics:  deps.Metrics,
	}

	if cfg.SerialEnabled() {
		port, err := openDevice(ctx, cfg.Device, deps, logger)
		if err != nil {
			return nil, err
		}
		opts.Port = port
		opts.Device = cfg.Device
	}

	return session.New(opts), nil
}

// ── helpers ──────────────────────────────────────────────────────────

func openDevice(ctx context.Context, device string, deps Deps, logger *util.Logger) (transport.Port, error) {
	b := deps.Backoff
	if b == nil {
		b = retry.DeviceBackoff(errors.IsBusyDevice)
	}

	var port transport.Port
	err := b.Do(ctx, func(attempt int) error {
		if attempt > 1 {
			logger.Verbose("retrying open of %s (attempt %d)", device, attempt)
		}
		p, err := deps.Opener.Open(device)
		if err != nil {
			return err
		}
		port = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return port, nil
}
