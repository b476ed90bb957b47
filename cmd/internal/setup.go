package internal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/kyverno/admission-engine/pkg/config"
	"github.com/kyverno/admission-engine/pkg/metrics"
)

func shutdown(logger logr.Logger, sdowns ...context.CancelFunc) context.CancelFunc {
	return func() {
		for i := range sdowns {
			if sdowns[i] != nil {
				logger.V(2).Info("shutting down...")
				defer sdowns[i]()
			}
		}
	}
}

type SetupResult struct {
	Logger         logr.Logger
	Configuration  config.Configuration
	MetricsManager metrics.MetricsConfigManager
	MetricsHandler http.Handler
}

// Setup loads the configuration, configures logging and the optional process wide
// facilities, the returned context is cancelled on SIGINT or SIGTERM.
func Setup(parent context.Context, cfg Configuration, name string) (context.Context, SetupResult, context.CancelFunc) {
	configuration, err := loadConfiguration()
	logger := setupLogger(configuration)
	checkError(logger, err, "failed to load configuration", "path", configFile)
	ShowVersion(logger)
	var sdownMaxProcs context.CancelFunc
	if cfg.UsesMaxProcs() {
		sdownMaxProcs = setupMaxProcs(logger)
	}
	ctx, sdownSignals := setupSignals(parent, logger)
	var metricsManager metrics.MetricsConfigManager
	var metricsHandler http.Handler
	var sdownMetrics context.CancelFunc
	if cfg.UsesMetrics() {
		metricsManager, metricsHandler, sdownMetrics = SetupMetrics(ctx, logger)
	}
	var sdownTracing context.CancelFunc
	if cfg.UsesTracing() {
		sdownTracing = SetupTracing(logger, name)
	}
	return ctx,
		SetupResult{
			Logger:         logger,
			Configuration:  configuration,
			MetricsManager: metricsManager,
			MetricsHandler: metricsHandler,
		},
		shutdown(logger.WithName("shutdown"), sdownMaxProcs, sdownMetrics, sdownTracing, sdownSignals)
}

// loadConfiguration reads the configuration file and applies the flag overrides
func loadConfiguration() (config.Configuration, error) {
	configuration, err := config.LoadFile(configFile)
	if err != nil {
		return nil, err
	}
	configuration.SetConcurrency(concurrency)
	if failurePolicy != "" {
		switch config.FailurePolicy(failurePolicy) {
		case config.Ignore, config.Fail:
			configuration.SetFailurePolicy(config.FailurePolicy(failurePolicy))
		default:
			return nil, fmt.Errorf("failurePolicy must be %s or %s, got %s", config.Ignore, config.Fail, failurePolicy)
		}
	}
	if webhookTimeout != "" {
		timeout, err := time.ParseDuration(webhookTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid webhookTimeout %s: %w", webhookTimeout, err)
		}
		configuration.SetWebhookTimeout(timeout)
	}
	return configuration, nil
}
