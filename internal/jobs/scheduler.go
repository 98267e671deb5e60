package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Locker grants a lease so one replica runs a job per tick.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(), ok bool, err error)
}

type Entry struct {
	Name       string
	Interval   time.Duration
	Job        Job
	RunAtStart bool
}

// Scheduler runs each entry on its own ticker. A failing or panicking job is
// logged and the schedule continues.
type Scheduler struct {
	Entries []Entry
	Locker  Locker // optional
	Timeout time.Duration
	Logger  *slog.Logger
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	for _, e := range s.Entries {
		if e.Interval <= 0 {
			return fmt.Errorf("job %s: interval must be positive", e.Name)
		}
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, e := range s.Entries {
		g.Go(func() error {
			s.loop(gctx, e)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, e Entry) {
	s.logger().Info("job scheduled", "job", e.Name, "interval", e.Interval)
	if e.RunAtStart {
		s.RunOnce(ctx, e)
	}
	t := time.NewTicker(e.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.RunOnce(ctx, e)
		}
	}
}

// RunOnce invokes the job now. It reports whether the job actually ran and
// returned without error.
func (s *Scheduler) RunOnce(ctx context.Context, e Entry) (ok bool) {
	log := s.logger().With("job", e.Name)
	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", "panic", r)
			ok = false
		}
	}()

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if s.Locker != nil {
		release, held, err := s.Locker.TryLock(ctx, e.Name, timeout)
		switch {
		case err != nil:
			// fail open: a lock outage must not silence the jobs
			log.Warn("job lock unavailable, running anyway", "err", err)
		case !held:
			log.Debug("job skipped, lease held elsewhere")
			return false
		default:
			defer release()
		}
	}

	jctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	if err := e.Job.Run(jctx); err != nil {
		log.Error("job failed", "err", err, "took", time.Since(start))
		return false
	}
	log.Info("job done", "took", time.Since(start))
	return true
}
