package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func newTestScheduler(t *testing.T, jobs []Job) *Scheduler {
	t.Helper()
	s, err := NewScheduler(jobs, nil, nil, testLogger(), time.Minute, time.Minute)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	return s
}

func TestNewSchedulerRejectsBadRunAt(t *testing.T) {
	for _, runAt := range []string{"", "9", "24:00", "09:60", "half past"} {
		_, err := NewScheduler([]Job{{Name: "x", RunAt: runAt, Run: func(context.Context) error { return nil }}},
			nil, nil, testLogger(), time.Minute, time.Minute)
		if err == nil {
			t.Fatalf("expected %q to be rejected", runAt)
		}
	}
}

func TestTickFiresOncePerDay(t *testing.T) {
	var runs atomic.Int32
	s := newTestScheduler(t, []Job{{
		Name:  "scan",
		RunAt: "09:00",
		Run:   func(context.Context) error { runs.Add(1); return nil },
	}})

	now := time.Date(2026, 2, 10, 8, 59, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.Tick(context.Background())
	s.wg.Wait()
	if runs.Load() != 0 {
		t.Fatalf("job fired before its scheduled time")
	}

	now = time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	s.Tick(context.Background())
	s.wg.Wait()
	if runs.Load() != 1 {
		t.Fatalf("expected one run at the scheduled time, got %d", runs.Load())
	}

	now = time.Date(2026, 2, 10, 9, 1, 0, 0, time.UTC)
	s.Tick(context.Background())
	s.wg.Wait()
	if runs.Load() != 1 {
		t.Fatalf("job fired twice on the same day")
	}

	now = time.Date(2026, 2, 11, 9, 0, 0, 0, time.UTC)
	s.Tick(context.Background())
	s.wg.Wait()
	if runs.Load() != 2 {
		t.Fatalf("expected the job to fire again the next day, got %d", runs.Load())
	}
}

func TestTickSkipsRunningJob(t *testing.T) {
	var runs atomic.Int32
	s := newTestScheduler(t, []Job{{
		Name:  "scan",
		RunAt: "09:00",
		Run:   func(context.Context) error { runs.Add(1); return nil },
	}})
	s.now = func() time.Time { return time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC) }

	s.mu.Lock()
	s.running["scan"] = true
	s.mu.Unlock()

	s.Tick(context.Background())
	s.wg.Wait()
	if runs.Load() != 0 {
		t.Fatalf("expected overlapping tick skipped")
	}
}

func TestRunOneRecoversPanicAndIsolatesFailures(t *testing.T) {
	var survived atomic.Bool
	s := newTestScheduler(t, []Job{
		{Name: "panics", RunAt: "09:00", Run: func(context.Context) error { panic("boom") }},
		{Name: "fails", RunAt: "09:00", Run: func(context.Context) error { return errors.New("db down") }},
		{Name: "healthy", RunAt: "09:00", Run: func(context.Context) error { survived.Store(true); return nil }},
	})
	s.now = func() time.Time { return time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC) }

	s.Tick(context.Background())
	s.wg.Wait()
	if !survived.Load() {
		t.Fatalf("expected healthy job to run despite sibling panic and error")
	}
}

type fakeLocker struct {
	granted  bool
	locked   []string
	unlocked []string
}

func (l *fakeLocker) TryLock(_ context.Context, name string, _ time.Duration) (bool, error) {
	l.locked = append(l.locked, name)
	return l.granted, nil
}

func (l *fakeLocker) Unlock(_ context.Context, name string) error {
	l.unlocked = append(l.unlocked, name)
	return nil
}

func TestRunOneHonorsCrossInstanceLock(t *testing.T) {
	var runs atomic.Int32
	locker := &fakeLocker{granted: false}
	s, err := NewScheduler([]Job{{
		Name:  "scan",
		RunAt: "09:00",
		Run:   func(context.Context) error { runs.Add(1); return nil },
	}}, locker, nil, testLogger(), time.Minute, time.Minute)
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.now = func() time.Time { return time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC) }

	s.Tick(context.Background())
	s.wg.Wait()
	if runs.Load() != 0 {
		t.Fatalf("expected run skipped when another instance holds the lock")
	}

	locker.granted = true
	s.now = func() time.Time { return time.Date(2026, 2, 11, 9, 0, 0, 0, time.UTC) }
	s.Tick(context.Background())
	s.wg.Wait()
	if runs.Load() != 1 {
		t.Fatalf("expected run once lock acquired, got %d", runs.Load())
	}
	if len(locker.unlocked) != 1 {
		t.Fatalf("expected lock released after run")
	}
}
