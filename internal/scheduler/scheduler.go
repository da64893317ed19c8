// Package scheduler runs periodic maintenance jobs such as the expired
// booking sweep and trip reminders.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/WuorBhang/alx-backend-travel-app/internal/lease"
)

// Locker grants a lease per job window so that only one replica runs the job
// in each interval.
type Locker interface {
	TryAcquire(ctx context.Context, name string, ttl time.Duration) (*lease.Lease, error)
}

// Job is one periodic task. Run returns how many items it processed.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int, error)
}

// Scheduler runs a fixed set of jobs, each on its own ticker.
type Scheduler struct {
	jobs   []Job
	locker Locker
	log    *slog.Logger
}

// New constructs a Scheduler. locker may be nil when a single replica runs.
func New(locker Locker, log *slog.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{jobs: jobs, locker: locker, log: log}
}

// Start runs every job on its own ticker and blocks until ctx is cancelled
// and all in-flight ticks have returned.
func (s *Scheduler) Start(ctx context.Context) {
	var wg sync.WaitGroup
	for _, job := range s.jobs {
		if job.Interval <= 0 {
			s.log.Info("scheduler job disabled", "job", job.Name)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.loop(ctx, job)
		}()
	}
	wg.Wait()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	s.log.Info("scheduler job started", "job", job.Name, "interval", job.Interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, job)
		}
	}
}

// tick runs job once if this replica wins the lease for the current window.
// The lease is kept until it expires at the end of the window, so a replica
// ticking later in the same window skips. A failed run gives it back.
func (s *Scheduler) tick(ctx context.Context, job Job) {
	var held *lease.Lease
	if s.locker != nil {
		l, err := s.locker.TryAcquire(ctx, leaseName(job, time.Now()), job.Interval)
		if err != nil {
			s.log.Warn("scheduler lease failed", "job", job.Name, "error", err)
			return
		}
		if l == nil {
			return
		}
		held = l
	}

	n, err := job.Run(ctx)
	if err != nil {
		s.log.Error("scheduler job failed", "job", job.Name, "error", err)
		if held != nil {
			if err := held.Release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("scheduler lease release failed", "job", job.Name, "error", err)
			}
		}
		return
	}
	if n > 0 {
		s.log.Info("scheduler job done", "job", job.Name, "processed", n)
	}
}

// leaseName names the lease for the interval window containing now.
func leaseName(job Job, now time.Time) string {
	return fmt.Sprintf("%s:%d", job.Name, now.Truncate(job.Interval).Unix())
}
