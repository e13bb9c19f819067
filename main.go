// telemon - a terminal telemetry monitor for serial sensors.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"telemon/cmd"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "telemon: %v\n", err)
		os.Exit(1)
	}
}
