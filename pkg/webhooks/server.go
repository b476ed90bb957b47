package webhooks

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/julienschmidt/httprouter"
	"github.com/kyverno/admission-engine/pkg/config"
	"github.com/kyverno/admission-engine/pkg/logging"
	"github.com/kyverno/admission-engine/pkg/metrics"
	"github.com/kyverno/admission-engine/pkg/tracing"
	"github.com/kyverno/admission-engine/pkg/webhooks/handlers"
)

type Server interface {
	// Run the server until the context is cancelled
	Run(context.Context) error
	// Handler returns the root HTTP handler
	Handler() http.Handler
}

type Probes interface {
	IsReady() bool
	IsLive() bool
}

// Options configures the server listener
type Options struct {
	// Address is the listen address, e.g. `:9443`
	Address string
	// CertFile and KeyFile enable TLS when both are set
	CertFile string
	KeyFile  string
	// DumpPayload logs every admission request and response
	DumpPayload bool
	// MetricsHandler serves the metrics endpoint when set
	MetricsHandler http.Handler
}

type server struct {
	server   *http.Server
	certFile string
	keyFile  string
}

// NewServer creates the admission webhook server
func NewServer(
	resourceHandlers ResourceHandlers,
	configuration config.Configuration,
	metricsConfig metrics.MetricsConfigManager,
	probes Probes,
	options Options,
) Server {
	mux := httprouter.New()
	resourceLogger := logging.WithName("resource-webhook")
	registerAdmission(mux, config.MutatingWebhookServicePath, "MUTATE", resourceHandlers.Mutate, resourceLogger.WithName("mutate"), configuration, metricsConfig, options)
	registerAdmission(mux, config.ValidatingWebhookServicePath, "VALIDATE", resourceHandlers.Validate, resourceLogger.WithName("validate"), configuration, metricsConfig, options)
	mux.HandlerFunc("GET", config.LivenessServicePath, handlers.Probe(probes.IsLive))
	mux.HandlerFunc("GET", config.ReadinessServicePath, handlers.Probe(probes.IsReady))
	if options.MetricsHandler != nil {
		mux.Handler("GET", config.MetricsPath, options.MetricsHandler)
	}
	s := &server{
		certFile: options.CertFile,
		keyFile:  options.KeyFile,
		server: &http.Server{
			Addr:              options.Address,
			Handler:           tracing.Handler(mux, "webhooks"),
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			ReadHeaderTimeout: 30 * time.Second,
			IdleTimeout:       5 * time.Minute,
			ErrorLog:          logging.StdLogger(logging.WithName("server"), ""),
		},
	}
	if s.tls() {
		s.server.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
			CipherSuites: []uint16{
				// AEADs w/ ECDHE
				tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
				tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
				tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
				tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			},
		}
	}
	return s
}

func registerAdmission(
	mux *httprouter.Router,
	path string,
	name string,
	handler handlers.AdmissionHandler,
	logger logr.Logger,
	configuration config.Configuration,
	metricsConfig metrics.MetricsConfigManager,
	options Options,
) {
	mux.HandlerFunc(
		"POST",
		path,
		handler.
			WithTrace(name).
			WithTimeout(configuration.GetWebhookTimeout(), configuration.GetFailurePolicy()).
			WithSubResourceFilter().
			WithDump(options.DumpPayload).
			WithMetrics(metricsConfig).
			WithAdmission(logger).
			ToHandlerFunc(),
	)
}

func (s *server) tls() bool {
	return s.certFile != "" && s.keyFile != ""
}

func (s *server) Handler() http.Handler {
	return s.server.Handler
}

func (s *server) Run(ctx context.Context) error {
	errs := make(chan error, 1)
	go func() {
		var err error
		if s.tls() {
			err = s.server.ListenAndServeTLS(s.certFile, s.keyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()
	logging.V(2).Info("webhook server started", "address", s.server.Addr, "tls", s.tls())
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logging.Error(err, "failed to shutdown server")
		return s.server.Close()
	}
	return nil
}
