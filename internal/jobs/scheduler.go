package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/microlend/backend/internal/observability"
)

// Job is a scheduled scan. RunAt is a wall-clock time of day ("HH:MM"); the
// job fires once per day when that time passes.
type Job struct {
	Name  string
	RunAt string
	Run   func(ctx context.Context) error
}

// Locker serializes a job across scheduler replicas. A nil Locker means
// single-instance deployment and only the in-process guard applies.
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, name string) error
}

// Scheduler drives the monitoring jobs. Each job gets its own failure
// boundary: a panic or error in one run is logged and never reaches the
// other jobs or the next tick. A slow run never overlaps the job's next
// scheduled tick; the later tick is skipped instead.
type Scheduler struct {
	jobs       []Job
	locker     Locker
	metrics    *observability.JobMetrics
	logger     *slog.Logger
	jobTimeout time.Duration
	lockTTL    time.Duration
	now        func() time.Time

	mu      sync.Mutex
	running map[string]bool
	lastRun map[string]time.Time
	wg      sync.WaitGroup
}

func NewScheduler(jobs []Job, locker Locker, metrics *observability.JobMetrics, logger *slog.Logger, jobTimeout, lockTTL time.Duration) (*Scheduler, error) {
	if jobTimeout <= 0 {
		jobTimeout = 5 * time.Minute
	}
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	for _, j := range jobs {
		if _, _, err := parseRunAt(j.RunAt); err != nil {
			return nil, fmt.Errorf("job %s: %w", j.Name, err)
		}
	}
	return &Scheduler{
		jobs:       jobs,
		locker:     locker,
		metrics:    metrics,
		logger:     logger,
		jobTimeout: jobTimeout,
		lockTTL:    lockTTL,
		now:        func() time.Time { return time.Now().UTC() },
		running:    map[string]bool{},
		lastRun:    map[string]time.Time{},
	}, nil
}

// Run ticks once a minute and fires every job whose scheduled time of day
// has passed since its last run. It blocks until ctx is cancelled and all
// in-flight runs have drained.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick fires all due jobs. Exposed so tests and callers can drive the
// schedule without waiting on the wall clock.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now()
	for _, job := range s.jobs {
		if s.due(job, now) {
			s.launch(ctx, job, now)
		}
	}
}

func (s *Scheduler) due(job Job, now time.Time) bool {
	hour, minute, _ := parseRunAt(job.RunAt)
	scheduled := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.Before(scheduled) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun[job.Name].Before(scheduled)
}

func (s *Scheduler) launch(ctx context.Context, job Job, now time.Time) {
	s.mu.Lock()
	if s.running[job.Name] {
		s.mu.Unlock()
		s.logger.Warn("job still running, skipping tick", "job", job.Name)
		s.metrics.ObserveRun(job.Name, "skipped", 0)
		return
	}
	s.running[job.Name] = true
	s.lastRun[job.Name] = now
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			s.running[job.Name] = false
			s.mu.Unlock()
		}()
		s.runOne(ctx, job)
	}()
}

func (s *Scheduler) runOne(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", "job", job.Name, "panic", r)
			s.metrics.ObserveRun(job.Name, "error", 0)
		}
	}()

	if s.locker != nil {
		acquired, err := s.locker.TryLock(ctx, job.Name, s.lockTTL)
		if err != nil {
			s.logger.Error("job lock failed", "job", job.Name, "err", err)
			s.metrics.ObserveRun(job.Name, "error", 0)
			return
		}
		if !acquired {
			s.logger.Info("job locked by another instance, skipping", "job", job.Name)
			s.metrics.ObserveRun(job.Name, "skipped", 0)
			return
		}
		defer func() {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), job.Name); err != nil {
				s.logger.Error("job unlock failed", "job", job.Name, "err", err)
			}
		}()
	}

	runCtx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	start := s.now()
	err := job.Run(runCtx)
	elapsed := s.now().Sub(start)

	switch {
	case err == nil:
		s.logger.Info("job completed", "job", job.Name, "elapsed", elapsed.String())
		s.metrics.ObserveRun(job.Name, "ok", elapsed)
	case runCtx.Err() != nil:
		s.logger.Error("job timed out", "job", job.Name, "timeout", s.jobTimeout.String())
		s.metrics.ObserveRun(job.Name, "error", elapsed)
	default:
		s.logger.Error("job failed", "job", job.Name, "err", err)
		s.metrics.ObserveRun(job.Name, "error", elapsed)
	}
}

func parseRunAt(runAt string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(runAt), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid run time %q, want HH:MM", runAt)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid run time %q, want HH:MM", runAt)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid run time %q, want HH:MM", runAt)
	}
	return hour, minute, nil
}
