package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ndewijer/Property-Investment-Backend/internal/logger"
	"github.com/ndewijer/Property-Investment-Backend/internal/metrics"
)

type jobFunc func(ctx context.Context, now time.Time) (int, error)

func (f jobFunc) ApplyAppreciation(ctx context.Context, now time.Time) (int, error) { return f(ctx, now) }
func (f jobFunc) ReleaseExpired(ctx context.Context, now time.Time) (int, error)    { return f(ctx, now) }

func noop(context.Context, time.Time) (int, error) { return 0, nil }

func TestNew(t *testing.T) {
	logger.Init("test")

	t.Run("valid schedules register jobs", func(t *testing.T) {
		s, err := New(Config{
			AppreciationSchedule:  "0 2 * * *",
			EscrowReleaseSchedule: "@every 5m",
		}, jobFunc(noop), jobFunc(noop), metrics.New())
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}
		if n := len(s.cron.Entries()); n != 2 {
			t.Errorf("Expected 2 jobs, got %d", n)
		}
	})

	t.Run("empty schedule disables job", func(t *testing.T) {
		s, err := New(Config{EscrowReleaseSchedule: "@every 1m"}, jobFunc(noop), jobFunc(noop), metrics.New())
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}
		if n := len(s.cron.Entries()); n != 1 {
			t.Errorf("Expected 1 job, got %d", n)
		}
	})

	t.Run("invalid schedule", func(t *testing.T) {
		_, err := New(Config{AppreciationSchedule: "every tuesday"}, jobFunc(noop), jobFunc(noop), metrics.New())
		if err == nil {
			t.Error("Expected error for invalid schedule, got nil")
		}
	})
}

func TestScheduler_Run(t *testing.T) {
	logger.Init("test")
	fixed := time.Date(2024, time.June, 15, 2, 0, 0, 0, time.UTC)

	t.Run("success passes clock and counts run", func(t *testing.T) {
		m := metrics.New()
		s, err := New(Config{}, jobFunc(noop), jobFunc(noop), m)
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}
		s.now = func() time.Time { return fixed }

		var got time.Time
		s.Run(JobAppreciation, func(_ context.Context, now time.Time) (int, error) {
			got = now
			return 3, nil
		})

		if !got.Equal(fixed) {
			t.Errorf("Expected job to run at %v, got %v", fixed, got)
		}
		if v := testutil.ToFloat64(m.JobRuns.WithLabelValues(JobAppreciation, "success")); v != 1 {
			t.Errorf("Expected 1 successful run, got %v", v)
		}
	})

	t.Run("failure counts error outcome", func(t *testing.T) {
		m := metrics.New()
		s, err := New(Config{}, jobFunc(noop), jobFunc(noop), m)
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}

		s.Run(JobEscrowRelease, func(context.Context, time.Time) (int, error) {
			return 0, errors.New("database is locked")
		})

		if v := testutil.ToFloat64(m.JobRuns.WithLabelValues(JobEscrowRelease, "error")); v != 1 {
			t.Errorf("Expected 1 failed run, got %v", v)
		}
		if v := testutil.ToFloat64(m.JobRuns.WithLabelValues(JobEscrowRelease, "success")); v != 0 {
			t.Errorf("Expected 0 successful runs, got %v", v)
		}
	})

	t.Run("stop cancels job context", func(t *testing.T) {
		s, err := New(Config{}, jobFunc(noop), jobFunc(noop), metrics.New())
		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}
		s.Start()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)

		var jobErr error
		s.Run(JobAppreciation, func(ctx context.Context, _ time.Time) (int, error) {
			jobErr = ctx.Err()
			return 0, nil
		})
		if !errors.Is(jobErr, context.Canceled) {
			t.Errorf("Expected cancelled context after Stop, got %v", jobErr)
		}
	})
}
