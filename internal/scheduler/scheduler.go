// Package scheduler runs the periodic background jobs: fixed-rate property
// appreciation and escrow auto-release. Jobs call the same service methods the
// HTTP API uses.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ndewijer/Property-Investment-Backend/internal/logger"
	"github.com/ndewijer/Property-Investment-Backend/internal/metrics"
)

// Job names, also used as the "job" metric label.
const (
	JobAppreciation  = "appreciation"
	JobEscrowRelease = "escrow_auto_release"
)

// Appreciator applies due fixed-rate appreciation.
type Appreciator interface {
	ApplyAppreciation(ctx context.Context, now time.Time) (int, error)
}

// EscrowReleaser releases held payments whose inspection window has passed.
type EscrowReleaser interface {
	ReleaseExpired(ctx context.Context, now time.Time) (int, error)
}

// Config holds cron specifications. An empty spec disables the job.
type Config struct {
	AppreciationSchedule  string
	EscrowReleaseSchedule string
}

// Scheduler wraps a cron runner with the registered jobs.
type Scheduler struct {
	cron     *cron.Cron
	metrics  *metrics.Metrics
	now      func() time.Time
	timeout  time.Duration
	baseCtx  context.Context
	cancelFn context.CancelFunc
}

// New creates a Scheduler and registers the jobs.
// Returns an error if a cron specification cannot be parsed.
func New(cfg Config, appreciator Appreciator, releaser EscrowReleaser, m *metrics.Metrics) (*Scheduler, error) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
		timeout:  5 * time.Minute,
		baseCtx:  ctx,
		cancelFn: cancel,
	}

	if cfg.AppreciationSchedule != "" {
		if _, err := s.cron.AddFunc(cfg.AppreciationSchedule, func() {
			s.Run(JobAppreciation, appreciator.ApplyAppreciation)
		}); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid appreciation schedule %q: %w", cfg.AppreciationSchedule, err)
		}
	}

	if cfg.EscrowReleaseSchedule != "" {
		if _, err := s.cron.AddFunc(cfg.EscrowReleaseSchedule, func() {
			s.Run(JobEscrowRelease, releaser.ReleaseExpired)
		}); err != nil {
			cancel()
			return nil, fmt.Errorf("invalid escrow release schedule %q: %w", cfg.EscrowReleaseSchedule, err)
		}
	}

	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Get().Infow("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops scheduling new runs and waits for running jobs to finish or ctx
// to expire, whichever comes first. Jobs still running when ctx expires are
// cancelled.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.Get().Warnw("scheduler stop timed out, cancelling running jobs")
	}
	s.cancelFn()
}

// Run executes one job immediately and records its outcome.
func (s *Scheduler) Run(job string, fn func(ctx context.Context, now time.Time) (int, error)) {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.timeout)
	defer cancel()

	start := time.Now()
	count, err := fn(ctx, s.now())
	if err != nil {
		s.metrics.JobRuns.WithLabelValues(job, "error").Inc()
		logger.Get().Errorw("scheduled job failed",
			"job", job,
			"processed", count,
			"duration", time.Since(start),
			"error", err,
		)
		return
	}

	s.metrics.JobRuns.WithLabelValues(job, "success").Inc()
	logger.Get().Infow("scheduled job completed",
		"job", job,
		"processed", count,
		"duration", time.Since(start),
	)
}
