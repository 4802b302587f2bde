package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"sftp-gateway/internal/metrics"
	"sftp-gateway/internal/model"
	"sftp-gateway/internal/remote"
)

// Sweeper runs the retention policy over a single remote directory. Each
// run opens its own session and closes it before returning.
type Sweeper struct {
	dialer      remote.Dialer
	dir         string
	policy      Policy
	concurrency int
	timeout     time.Duration
	now         func() time.Time
	log         *slog.Logger
}

type Option func(*Sweeper)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

// WithConcurrency bounds how many deletes are in flight at once.
func WithConcurrency(n int) Option {
	return func(s *Sweeper) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithTimeout caps the wall time of one run. Zero means no cap.
func WithTimeout(d time.Duration) Option {
	return func(s *Sweeper) { s.timeout = d }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Sweeper) {
		if log != nil {
			s.log = log
		}
	}
}

func NewSweeper(dialer remote.Dialer, dir string, policy Policy, opts ...Option) *Sweeper {
	s := &Sweeper{
		dialer:      dialer,
		dir:         path.Clean(dir),
		policy:      policy,
		concurrency: 1,
		now:         time.Now,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "recycle_sweeper", "dir", s.dir)

	return s
}

func (s *Sweeper) Directory() string {
	return s.dir
}

// Run deletes every expired entry. Per-entry failures do not stop the
// remaining deletes; they are joined into the returned error.
func (s *Sweeper) Run(ctx context.Context) (model.SweepReport, error) {
	return s.run(ctx, false)
}

// DryRun lists what Run would delete without deleting anything.
func (s *Sweeper) DryRun(ctx context.Context) (model.SweepReport, error) {
	return s.run(ctx, true)
}

// RunScheduled is the scheduler entry point. Errors are logged, never
// returned; the next scheduled run retries whatever is left.
func (s *Sweeper) RunScheduled(ctx context.Context) {
	if _, err := s.Run(ctx); err != nil {
		s.log.Error("recycle bin cleanup error", "error", err)
	}
}

func (s *Sweeper) run(ctx context.Context, dryRun bool) (model.SweepReport, error) {
	report := model.SweepReport{
		Directory:  s.dir,
		StartedAt:  s.now(),
		Candidates: []string{},
		Deleted:    []string{},
		DryRun:     dryRun,
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	session, err := s.dialer.Dial(ctx)
	if err != nil {
		if !errors.Is(err, remote.ErrConnection) {
			err = fmt.Errorf("%w: %w", remote.ErrConnection, err)
		}
		s.finish(&report, err)
		return report, err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			s.log.Warn("closing remote session failed", "error", closeErr)
		}
	}()

	entries, err := session.List(ctx, s.dir)
	if err != nil {
		if !errors.Is(err, remote.ErrList) {
			err = fmt.Errorf("%w: %s: %w", remote.ErrList, s.dir, err)
		}
		s.finish(&report, err)
		return report, err
	}

	// Ages are measured against the moment the listing arrived.
	listedAt := s.now()
	report.ListedAt = listedAt
	report.Listed = len(entries)

	candidates := s.policy.Candidates(entries, listedAt)
	for _, entry := range candidates {
		report.Candidates = append(report.Candidates, entry.Name)
	}

	if dryRun {
		for _, entry := range candidates {
			s.log.Info("would delete old file", "name", entry.Name, "age_days", roundDays(s.policy.AgeDays(entry.ModifiedAt, listedAt)))
		}
		s.finish(&report, nil)
		return report, nil
	}

	err = s.deleteAll(ctx, session, candidates, listedAt, &report)
	s.finish(&report, err)
	return report, err
}

func (s *Sweeper) deleteAll(ctx context.Context, session remote.Session, candidates []model.RemoteEntry, listedAt time.Time, report *model.SweepReport) error {
	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(s.concurrency)

	for _, entry := range candidates {
		g.Go(func() error {
			target := path.Join(s.dir, entry.Name)
			err := session.Delete(ctx, target)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				report.Deleted = append(report.Deleted, entry.Name)
				s.log.Info("deleted old file", "name", entry.Name, "age_days", roundDays(s.policy.AgeDays(entry.ModifiedAt, listedAt)))
			case remote.IsNotFound(err):
				// Already gone, most likely removed by an overlapping run.
				report.Missing = append(report.Missing, entry.Name)
				s.log.Warn("old file already gone", "name", entry.Name)
			default:
				report.Failed = append(report.Failed, entry.Name)
				errs = append(errs, err)
				s.log.Error("deleting old file failed", "name", entry.Name, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(report.Deleted)
	sort.Strings(report.Missing)
	sort.Strings(report.Failed)

	return errors.Join(errs...)
}

func (s *Sweeper) finish(report *model.SweepReport, err error) {
	report.FinishedAt = s.now()
	duration := report.FinishedAt.Sub(report.StartedAt)

	outcome := "ok"
	switch {
	case len(report.Failed) > 0:
		outcome = "partial"
	case err != nil:
		outcome = "failed"
	}

	if !report.DryRun {
		metrics.RecordSweep(outcome, len(report.Deleted), len(report.Failed), duration, report.FinishedAt)
	}

	attrs := []any{
		"outcome", outcome,
		"listed", report.Listed,
		"candidates", len(report.Candidates),
		"deleted", len(report.Deleted),
		"duration_ms", duration.Milliseconds(),
	}
	if len(report.Failed) > 0 {
		attrs = append(attrs, "failed", len(report.Failed))
	}
	if len(report.Missing) > 0 {
		attrs = append(attrs, "missing", len(report.Missing))
	}
	if err != nil && outcome == "failed" {
		attrs = append(attrs, "error", err)
		s.log.Error("recycle bin sweep failed", attrs...)
		return
	}

	s.log.Info("recycle bin sweep finished", attrs...)
}

func roundDays(days float64) float64 {
	return float64(int64(days*100)) / 100
}
