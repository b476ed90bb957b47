package policystore

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
)

// Resync reloads the policy set on a cron schedule
type Resync struct {
	log      logr.Logger
	cron     *cron.Cron
	schedule cron.Schedule
	reload   ReloadFunc
}

// NewResync validates the standard cron expression (e.g. `*/5 * * * *` or `@every 1m`)
func NewResync(log logr.Logger, schedule string, reload ReloadFunc) (*Resync, error) {
	s, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid resync schedule %q", schedule)
	}
	return &Resync{
		log:      log,
		cron:     cron.New(),
		schedule: s,
		reload:   reload,
	}, nil
}

func (r *Resync) run(ctx context.Context) {
	if err := r.reload(ctx); err != nil {
		r.log.Error(err, "policy resync failed")
		return
	}
	r.log.V(3).Info("policies resynced")
}

// Run starts the schedule and blocks until the context is cancelled
func (r *Resync) Run(ctx context.Context) {
	r.cron.Schedule(r.schedule, cron.FuncJob(func() { r.run(ctx) }))
	r.cron.Start()
	defer r.cron.Stop()
	<-ctx.Done()
}
