package internal

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"go.uber.org/automaxprocs/maxprocs"
)

// setupMaxProcs aligns GOMAXPROCS with the container CPU quota
func setupMaxProcs(logger logr.Logger) context.CancelFunc {
	logger = logger.WithName("maxprocs")
	logger.V(2).Info("setup maxprocs...")
	undo, err := maxprocs.Set(
		maxprocs.Logger(
			func(format string, args ...interface{}) {
				logger.V(2).Info(fmt.Sprintf(format, args...))
			},
		),
	)
	if err != nil {
		logger.Error(err, "failed to configure maxprocs")
		return nil
	}
	return undo
}
