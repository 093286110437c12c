// Package worker runs the periodic maintenance jobs of the booking service.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/bookingdesk/config"
	"github.com/Domenick1991/bookingdesk/internal/service/booking"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type Scheduler struct {
	cron        *cron.Cron
	maintenance booking.MaintenanceUseCase
	batchSize   int
	log         logrus.FieldLogger
}

func NewScheduler(maintenance booking.MaintenanceUseCase, batchSize int, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger))),
		maintenance: maintenance,
		batchSize:   batchSize,
		log:         log,
	}
}

// Schedule registers the hold sweep, the seat conflict scan and the outbox relay. Jobs run
// with ctx, so cancelling it aborts the job in flight.
func (s *Scheduler) Schedule(ctx context.Context, cfg config.WorkerConfig) error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) (int, error)
	}{
		{name: "expire_holds", spec: cfg.HoldSweepSpec, run: s.maintenance.ExpireHolds},
		{name: "resolve_seat_conflicts", spec: cfg.SeatConflictSpec, run: s.maintenance.ResolveSeatConflicts},
		{name: "relay_outbox", spec: cfg.OutboxRelaySpec, run: s.relay},
	}
	for _, j := range jobs {
		if _, err := s.cron.AddFunc(j.spec, func() { s.runJob(ctx, j.name, j.run) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", j.name, j.spec, err)
		}
		s.log.WithFields(logrus.Fields{"job": j.name, "spec": j.spec}).Info("job scheduled")
	}
	return nil
}

func (s *Scheduler) relay(ctx context.Context) (int, error) {
	return s.maintenance.RelayOutbox(ctx, s.batchSize)
}

func (s *Scheduler) runJob(ctx context.Context, name string, run func(context.Context) (int, error)) {
	start := time.Now()
	n, err := run(ctx)
	entry := s.log.WithFields(logrus.Fields{
		"job":         name,
		"affected":    n,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("job failed")
		return
	}
	if n > 0 {
		entry.Info("job finished")
		return
	}
	entry.Debug("job finished")
}

// Run starts the scheduler and blocks until ctx is done, then waits for running jobs.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
	return nil
}
