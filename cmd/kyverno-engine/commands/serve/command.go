package serve

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/kyverno/admission-engine/cmd/internal"
	"github.com/kyverno/admission-engine/cmd/kyverno-engine/command"
	"github.com/kyverno/admission-engine/pkg/engine"
	"github.com/kyverno/admission-engine/pkg/engine/match"
	"github.com/kyverno/admission-engine/pkg/logging"
	"github.com/kyverno/admission-engine/pkg/policystore"
	"github.com/kyverno/admission-engine/pkg/webhooks"
	"github.com/kyverno/admission-engine/pkg/webhooks/resource"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type options struct {
	address        string
	certFile       string
	keyFile        string
	dumpPayload    bool
	watch          bool
	debounce       time.Duration
	resyncSchedule string
}

func Command() *cobra.Command {
	var opts options
	appConfig := internal.NewConfiguration(
		internal.WithMetrics(),
		internal.WithTracing(),
		internal.WithMaxProcs(),
	)
	cmd := &cobra.Command{
		Use:          "serve [policy paths...]",
		Short:        command.FormatDescription(true, description...),
		Long:         command.FormatDescription(false, description...),
		Example:      command.FormatExamples(examples...),
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, setup, sdown := internal.Setup(cmd.Context(), appConfig, "kyverno-engine")
			defer sdown()
			return opts.run(ctx, setup, args)
		},
	}
	internal.InitFlags(appConfig, cmd.Flags())
	cmd.Flags().StringVar(&opts.address, "address", ":9443", "Listen address of the webhook server.")
	cmd.Flags().StringVar(&opts.certFile, "tlsCertFile", "", "Path to the PEM encoded TLS certificate, the server listens over plain HTTP when not set.")
	cmd.Flags().StringVar(&opts.keyFile, "tlsKeyFile", "", "Path to the PEM encoded TLS private key.")
	cmd.Flags().BoolVar(&opts.dumpPayload, "dumpPayload", false, "Set this flag to activate/deactivate debug mode.")
	cmd.Flags().BoolVar(&opts.watch, "watch", true, "Reload the policies when the policy files change.")
	cmd.Flags().DurationVar(&opts.debounce, "watchDebounce", 500*time.Millisecond, "Quiet interval after a policy file change before the policies are reloaded.")
	cmd.Flags().StringVar(&opts.resyncSchedule, "resync", "", "Cron schedule reloading the policies, e.g. '@every 10m'. Disabled when empty.")
	return cmd
}

type engineServer struct {
	server webhooks.Server
	store  *policystore.Store
	reload policystore.ReloadFunc
	paths  []string
}

// newEngineServer loads the policies and wires the store, the engine and the webhook server
func (o options) newEngineServer(ctx context.Context, setup internal.SetupResult, policyPaths []string) (*engineServer, error) {
	paths := make([]string, 0, len(policyPaths))
	for _, path := range policyPaths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		paths = append(paths, abs)
	}
	store := policystore.NewStore(logging.WithName("policystore"), setup.MetricsManager)
	reload := store.Reloader(osfs.New("/"), paths...)
	if err := reload(ctx); err != nil {
		return nil, fmt.Errorf("failed to load policies (%w)", err)
	}
	setup.Logger.Info("policies loaded", "count", store.Snapshot().Len())
	eng, err := engine.NewEngine(setup.Configuration, setup.MetricsManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine (%w)", err)
	}
	resourceHandlers := resource.NewHandlers(eng, func() match.PolicySet { return store.Snapshot() })
	server := webhooks.NewServer(
		resourceHandlers,
		setup.Configuration,
		setup.MetricsManager,
		probes{store: store},
		webhooks.Options{
			Address:        o.address,
			CertFile:       o.certFile,
			KeyFile:        o.keyFile,
			DumpPayload:    o.dumpPayload,
			MetricsHandler: setup.MetricsHandler,
		},
	)
	return &engineServer{
		server: server,
		store:  store,
		reload: reload,
		paths:  paths,
	}, nil
}

func (o options) run(ctx context.Context, setup internal.SetupResult, policyPaths []string) error {
	logger := setup.Logger.WithName("serve")
	s, err := o.newEngineServer(ctx, setup, policyPaths)
	if err != nil {
		return err
	}
	var resync *policystore.Resync
	if o.resyncSchedule != "" {
		resync, err = policystore.NewResync(logger.WithName("resync"), o.resyncSchedule, s.reload)
		if err != nil {
			return err
		}
	}
	group, ctx := errgroup.WithContext(ctx)
	if o.watch {
		watcher := policystore.NewWatcher(logger.WithName("watcher"), o.debounce, s.reload)
		group.Go(func() error {
			return watcher.Run(ctx, s.paths...)
		})
	}
	if resync != nil {
		group.Go(func() error {
			resync.Run(ctx)
			return nil
		})
	}
	group.Go(func() error {
		logger.Info("starting webhook server", "address", o.address, "tls", o.certFile != "")
		return s.server.Run(ctx)
	})
	return group.Wait()
}
