package internal

import (
	"github.com/kyverno/admission-engine/pkg/logging"
	"github.com/spf13/pflag"
)

var (
	// logging
	loggingFormat   string
	loggingTsFormat string
	verbosity       int
	// configuration
	configFile     string
	concurrency    int
	failurePolicy  string
	webhookTimeout string
	// tracing
	tracingEnabled bool
	tracingAddress string
	tracingPort    string
	tracingCreds   string
)

func initLoggingFlags(flagset *pflag.FlagSet) {
	flagset.StringVar(&loggingFormat, "loggingFormat", "", "This determines the output format of the logger, text or json. Overrides the configuration file.")
	flagset.StringVar(&loggingTsFormat, "loggingtsFormat", logging.DefaultTime, "This determines the timestamp format of the json logger.")
	flagset.IntVarP(&verbosity, "verbosity", "v", 2, "Number for the log level verbosity.")
}

func initConfigurationFlags(flagset *pflag.FlagSet) {
	flagset.StringVar(&configFile, "config", "", "Path to the engine configuration file.")
	flagset.IntVar(&concurrency, "concurrency", 0, "Maximum number of rules evaluated in parallel. Overrides the configuration file.")
	flagset.StringVar(&failurePolicy, "failurePolicy", "", "Admission response when no verdict is available in time, Ignore or Fail. Overrides the configuration file.")
	flagset.StringVar(&webhookTimeout, "webhookTimeout", "", "Time budget of an admission review, e.g. 10s. Overrides the configuration file.")
}

func initTracingFlags(flagset *pflag.FlagSet) {
	flagset.BoolVar(&tracingEnabled, "enableTracing", false, "Set this flag to 'true', to enable tracing.")
	flagset.StringVar(&tracingPort, "tracingPort", "4317", "Tracing receiver port, defaults to '4317'.")
	flagset.StringVar(&tracingAddress, "tracingAddress", "", "Tracing receiver address, defaults to ''.")
	flagset.StringVar(&tracingCreds, "tracingCreds", "", "Path to the CA bundle used by the Opentelemetry Tracing Client. If empty string is set, means an insecure connection will be used")
}

// InitFlags registers the setup flags on the given flag set
func InitFlags(config Configuration, flagset *pflag.FlagSet) {
	// logging
	initLoggingFlags(flagset)
	// configuration
	initConfigurationFlags(flagset)
	// tracing
	if config.UsesTracing() {
		initTracingFlags(flagset)
	}
}
