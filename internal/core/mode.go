// Package core is the orchestration layer.  It turns a validated
// Config into a runnable Mode, acquiring the serial device on the way.
//
// Architecture layers (bottom → top):
//
//	transport  →  serial / clock / input  →  session  →  core  →  cmd (CLI)
package core

import "context"

// Mode is one complete monitor run.  It owns its lifecycle from the
// first screen draw to the final drain.
type Mode interface {
	Run(ctx context.Context) error
}
