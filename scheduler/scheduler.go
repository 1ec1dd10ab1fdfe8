// Package scheduler runs background maintenance jobs on gocron, guarding each
// job against overlapping runs and recording per-job execution metadata.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/heritagehub/cms/logger"
)

// DefaultShutdownTimeout bounds how long Shutdown waits for running jobs.
const DefaultShutdownTimeout = 30 * time.Second

type jobEntry struct {
	job       Job
	schedule  Schedule
	metadata  *JobMetadata
	gocronJob gocron.Job

	mu      sync.Mutex
	running bool
}

// tryLock reports whether the caller may run the job now.
func (e *jobEntry) tryLock() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return false
	}
	e.running = true
	return true
}

func (e *jobEntry) unlock() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
}

// Scheduler owns a lazily created gocron scheduler and the jobs registered on it.
type Scheduler struct {
	logger          logger.Logger
	shutdownTimeout time.Duration

	scheduler gocron.Scheduler
	jobs      map[string]*jobEntry
	mu        sync.RWMutex

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
	wg             sync.WaitGroup
}

// New creates a Scheduler. gocron is started on the first Register call.
// A non-positive shutdownTimeout selects DefaultShutdownTimeout.
func New(log logger.Logger, shutdownTimeout time.Duration) *Scheduler {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		logger:          log,
		shutdownTimeout: shutdownTimeout,
		jobs:            make(map[string]*jobEntry),
		shutdownCtx:     ctx,
		shutdownCancel:  cancel,
	}
}

// Register schedules job under a unique jobID.
func (s *Scheduler) Register(jobID string, schedule Schedule, job Job) error {
	if jobID == "" {
		return &ValidationError{Field: "jobID", Message: "must not be empty"}
	}
	if err := schedule.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdownCtx.Err() != nil {
		return ErrShuttingDown
	}
	if _, exists := s.jobs[jobID]; exists {
		return &ValidationError{Field: "jobID", Message: fmt.Sprintf("'%s' already registered", jobID)}
	}
	if err := s.ensureStarted(); err != nil {
		return err
	}

	entry := &jobEntry{
		job:      job,
		schedule: schedule,
		metadata: &JobMetadata{
			JobID:          jobID,
			ScheduleType:   string(schedule.Type),
			CronExpression: schedule.CronExpression(),
			HumanReadable:  schedule.String(),
		},
	}

	gj, err := s.scheduler.NewJob(
		definition(schedule),
		gocron.NewTask(func() { s.run(entry, TriggerScheduled) }),
		gocron.WithName(jobID),
	)
	if err != nil {
		return fmt.Errorf("scheduler: failed to schedule job '%s': %w", jobID, err)
	}
	entry.gocronJob = gj
	s.jobs[jobID] = entry

	s.logger.Info().
		Str("jobID", jobID).
		Str("schedule", schedule.String()).
		Msg("Job registered")
	return nil
}

// ensureStarted must be called with s.mu held.
func (s *Scheduler) ensureStarted() error {
	if s.scheduler != nil {
		return nil
	}
	gs, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("scheduler: failed to create gocron scheduler: %w", err)
	}
	s.scheduler = gs
	s.scheduler.Start()
	s.logger.Debug().Msg("Scheduler started")
	return nil
}

func definition(schedule Schedule) gocron.JobDefinition {
	switch schedule.Type {
	case ScheduleTypeDaily:
		return gocron.DailyJob(1, gocron.NewAtTimes(
			gocron.NewAtTime(uint(schedule.Hour), uint(schedule.Minute), 0), //nolint:gosec // validated 0-23 / 0-59
		))
	case ScheduleTypeCron:
		return gocron.CronJob(schedule.Cron, false)
	default:
		return gocron.DurationJob(schedule.Interval)
	}
}

// Trigger runs jobID once in the background. The run is skipped, and counted as
// such, when the job is already running.
func (s *Scheduler) Trigger(jobID string) error {
	s.mu.RLock()
	entry, ok := s.jobs[jobID]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if s.shutdownCtx.Err() != nil {
		return ErrShuttingDown
	}

	go s.run(entry, TriggerManual)
	return nil
}

// Jobs returns a snapshot of every registered job ordered by ID.
func (s *Scheduler) Jobs() []*JobMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*JobMetadata, 0, len(s.jobs))
	for _, entry := range s.jobs {
		snap := entry.metadata.snapshot()
		if entry.gocronJob != nil {
			if next, err := entry.gocronJob.NextRun(); err == nil && !next.IsZero() {
				snap.NextExecutionTime = &next
			}
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobID < out[j].JobID })
	return out
}

func (s *Scheduler) run(entry *jobEntry, trigger string) {
	jobID := entry.metadata.JobID

	// Shutdown cancels under s.mu, so a run admitted here is always counted
	// before wg.Wait starts.
	s.mu.RLock()
	if s.shutdownCtx.Err() != nil {
		s.mu.RUnlock()
		s.logger.Warn().Str("jobID", jobID).Msg("Job trigger skipped - scheduler is shutting down")
		return
	}
	if !entry.tryLock() {
		s.mu.RUnlock()
		s.logger.Warn().
			Str("jobID", jobID).
			Str("triggerType", trigger).
			Msg("Job trigger skipped - job is already running")
		entry.metadata.incrementSkipped()
		return
	}
	s.wg.Add(1)
	s.mu.RUnlock()

	defer func() {
		entry.unlock()
		s.wg.Done()
	}()

	ctx, cancel := context.WithCancel(context.WithValue(s.shutdownCtx, triggerKey{}, trigger))
	defer cancel()

	s.execute(ctx, entry, trigger)
}

func (s *Scheduler) execute(ctx context.Context, entry *jobEntry, trigger string) {
	jobID := entry.metadata.JobID
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("jobID", jobID).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Job panicked - recovered and marked as failed")
			entry.metadata.record(trigger, StatusFailure)
		}
	}()

	err := entry.job.Execute(ctx)
	duration := time.Since(start)

	if err != nil {
		s.logger.Error().
			Err(err).
			Str("jobID", jobID).
			Str("triggerType", trigger).
			Dur("duration", duration).
			Msg("Job execution failed")
		entry.metadata.record(trigger, StatusFailure)
		return
	}

	s.logger.Info().
		Str("jobID", jobID).
		Str("triggerType", trigger).
		Dur("duration", duration).
		Msg("Job execution completed")
	entry.metadata.record(trigger, StatusSuccess)
}

// Shutdown stops new triggers, cancels running jobs and waits for them to
// return, up to the configured timeout. Later calls are no-ops.
func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	gs := s.scheduler
	s.scheduler = nil
	s.shutdownCancel()
	s.mu.Unlock()

	if gs == nil {
		return nil
	}

	s.logger.Info().Msg("Initiating graceful scheduler shutdown")
	if err := gs.Shutdown(); err != nil {
		return fmt.Errorf("scheduler: shutdown failed: %w", err)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Scheduler stopped")
		return nil
	case <-time.After(s.shutdownTimeout):
		s.logger.Warn().Dur("timeout", s.shutdownTimeout).Msg("Shutdown timeout reached, some jobs may not have completed")
		return fmt.Errorf("scheduler: shutdown timeout after %v", s.shutdownTimeout)
	}
}
