package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WuorBhang/alx-backend-travel-app/internal/lease"
)

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

func countingJob(name string, interval time.Duration, calls *atomic.Int32, err error) Job {
	return Job{
		Name:     name,
		Interval: interval,
		Run: func(context.Context) (int, error) {
			calls.Add(1)
			return 1, err
		},
	}
}

func TestScheduler_RunsJobs(t *testing.T) {
	var sweeps, reminders atomic.Int32
	s := New(nil, discardLogger(),
		countingJob("sweep", 20*time.Millisecond, &sweeps, nil),
		countingJob("reminders", 20*time.Millisecond, &reminders, errors.New("db error")),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	assert.GreaterOrEqual(t, sweeps.Load(), int32(1))
	assert.GreaterOrEqual(t, reminders.Load(), int32(1), "a failing job keeps ticking")
}

func TestScheduler_DisabledJob(t *testing.T) {
	var calls atomic.Int32
	s := New(nil, discardLogger(), countingJob("off", 0, &calls, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	s.Start(ctx)

	assert.Zero(t, calls.Load())
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	var calls atomic.Int32
	s := New(nil, discardLogger(), countingJob("sweep", time.Hour, &calls, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}
}

func newTestLocker(t *testing.T) (*miniredis.Miniredis, *lease.Locker) {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return srv, lease.NewLocker(rdb, "travel:")
}

func TestScheduler_SkipsWhenLeaseHeldElsewhere(t *testing.T) {
	srv, locker := newTestLocker(t)

	var calls atomic.Int32
	s := New(locker, discardLogger(), countingJob("sweep", 24*time.Hour, &calls, nil))
	job := s.jobs[0]
	key := "travel:lock:" + leaseName(job, time.Now())

	held, err := locker.TryAcquire(context.Background(), leaseName(job, time.Now()), time.Minute)
	require.NoError(t, err)
	require.NotNil(t, held)

	s.tick(context.Background(), job)
	assert.Zero(t, calls.Load())

	require.NoError(t, held.Release(context.Background()))
	s.tick(context.Background(), job)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, srv.Exists(key), "lease outlives the run")

	other := New(locker, discardLogger(), job)
	other.tick(context.Background(), job)
	assert.Equal(t, int32(1), calls.Load(), "second replica skips the same window")

	srv.FastForward(24 * time.Hour)
	other.tick(context.Background(), job)
	assert.Equal(t, int32(2), calls.Load(), "expired lease frees the job")
}

func TestScheduler_FailedRunReleasesLease(t *testing.T) {
	srv, locker := newTestLocker(t)

	var calls atomic.Int32
	s := New(locker, discardLogger(), countingJob("reminders", 24*time.Hour, &calls, errors.New("db error")))
	job := s.jobs[0]

	s.tick(context.Background(), job)
	assert.False(t, srv.Exists("travel:lock:"+leaseName(job, time.Now())))

	s.tick(context.Background(), job)
	assert.Equal(t, int32(2), calls.Load())
}

func TestLeaseName_OnePerWindow(t *testing.T) {
	job := Job{Name: "sweep", Interval: time.Hour}
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, leaseName(job, base), leaseName(job, base.Add(59*time.Minute)))
	assert.NotEqual(t, leaseName(job, base), leaseName(job, base.Add(time.Hour)))
}
