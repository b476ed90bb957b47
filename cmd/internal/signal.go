package internal

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
)

// setupSignals returns a context cancelled on SIGINT or SIGTERM
func setupSignals(ctx context.Context, logger logr.Logger) (context.Context, context.CancelFunc) {
	logger.WithName("signals").V(2).Info("setup signals...")
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}
