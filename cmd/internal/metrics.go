package internal

import (
	"context"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/kyverno/admission-engine/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otlp "go.opentelemetry.io/otel"
)

// SetupMetrics creates the metrics manager backed by a dedicated prometheus registry,
// the returned handler serves the registry content.
func SetupMetrics(ctx context.Context, logger logr.Logger) (metrics.MetricsConfigManager, http.Handler, context.CancelFunc) {
	logger = logger.WithName("metrics")
	logger.V(2).Info("setup metrics...")
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	provider, err := metrics.NewPrometheusConfig(logger, registry)
	checkError(logger, err, "failed to init metrics")
	// Pass logger to opentelemetry so JSON format is used (when configured)
	otlp.SetLogger(logger)
	metricsConfig, err := metrics.NewMetricsConfigManager(logger, provider)
	checkError(logger, err, "failed to init metrics instruments")
	metrics.SetManager(metricsConfig)
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{ErrorLog: promLogger{logger}})
	cancel := func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 20*time.Second)
		defer cancel()
		metrics.ShutDownController(ctx, provider)
	}
	return metricsConfig, handler, cancel
}

type promLogger struct {
	logger logr.Logger
}

func (l promLogger) Println(v ...interface{}) {
	l.logger.Info("prometheus handler", "message", v)
}
