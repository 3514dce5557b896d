// ./main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/muuktest/selector-feedback/cmd"
	"github.com/muuktest/selector-feedback/internal/observability"
)

// main is the entry point for the muuk CLI.
func main() {
	// Interrupts cancel the context so a running analysis stops between steps.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := cmd.Execute(ctx)
	stop()
	observability.Sync()

	if err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
