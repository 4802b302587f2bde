package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DailySweepSpec fires every day at 03:00 in the scheduler's location.
const DailySweepSpec = "0 3 * * *"

// Job is a fire-and-forget task. It receives a context that is cancelled
// when the scheduler stops.
type Job func(ctx context.Context)

type Scheduler struct {
	cron   *cron.Cron
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}

	log := slog.Default().With("component", "scheduler")
	adapter := cronLogger{log: log}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter)),
		),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under a standard five-field cron spec.
func (s *Scheduler) Add(name string, spec string, job Job) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		started := time.Now()
		s.log.Info("scheduled job starting", "job", name)
		job(s.ctx)
		s.log.Info("scheduled job done", "job", name, "duration_ms", time.Since(started).Milliseconds())
	})
	if err != nil {
		return 0, fmt.Errorf("schedule %s with %q: %w", name, spec, err)
	}

	return id, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// NextRun is zero until the scheduler has started.
func (s *Scheduler) NextRun(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

// Stop prevents new runs, cancels the context of a running job and waits
// for it to return or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	s.cancel()

	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for scheduled jobs: %w", ctx.Err())
	}
}

// Next computes the first activation of spec strictly after from.
func Next(spec string, from time.Time) (time.Time, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	return schedule.Next(from), nil
}

// cronLogger routes robfig/cron's logging into slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
