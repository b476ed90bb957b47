package internal

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/kyverno/admission-engine/pkg/config"
	"github.com/kyverno/admission-engine/pkg/logging"
)

// setupLogger configures the global logger, the flag takes precedence over the configuration file
func setupLogger(configuration config.Configuration) logr.Logger {
	format := loggingFormat
	if format == "" && configuration != nil {
		format = configuration.GetLogFormat()
	}
	if format == "" {
		format = logging.TextFormat
	}
	if err := logging.Setup(format, loggingTsFormat, verbosity); err != nil {
		fmt.Fprintln(os.Stderr, "failed to setup logger:", err)
		os.Exit(1)
	}
	return logging.WithName("setup")
}
