// Package scheduler runs the monitoring cycles on fixed intervals.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job represents a scheduled task
type Job func(ctx context.Context) error

// Scheduler manages periodic tasks. Job errors are logged, never fatal:
// the loop is designed to run indefinitely.
type Scheduler struct {
	cron *cron.Cron
	jobs map[string]cron.EntryID
	log  logrus.FieldLogger
}

// New creates a new scheduler. A cycle can outlast its own interval (a
// single reply takes longer than the mention poll period), so ticks that
// fire while the same job is still running are skipped, not stacked.
func New(log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log)))),
		jobs: make(map[string]cron.EntryID),
		log:  log,
	}
}

// AddJob adds a job with a cron schedule (including "@every" expressions).
func (s *Scheduler) AddJob(name, schedule string, job Job) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		s.log.WithField("job", name).Info("starting job")
		start := time.Now()

		if err := job(ctx); err != nil {
			s.log.WithField("job", name).Errorf("job failed: %v", err)
		} else {
			s.log.WithField("job", name).Infof("job completed in %v", time.Since(start))
		}
	})

	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}

	s.jobs[name] = entryID
	s.log.WithField("job", name).Infof("added job (schedule: %s)", schedule)

	return nil
}

// AddWatchJob schedules the passive monitoring cycle.
func (s *Scheduler) AddWatchJob(intervalMinutes int, job Job) error {
	if intervalMinutes <= 0 {
		intervalMinutes = 30
	}
	return s.AddJob("watch", fmt.Sprintf("@every %dm", intervalMinutes), job)
}

// AddMentionJob schedules the mention polling cycle.
func (s *Scheduler) AddMentionJob(intervalSeconds int, job Job) error {
	if intervalSeconds <= 0 {
		intervalSeconds = 60
	}
	return s.AddJob("mentions", fmt.Sprintf("@every %ds", intervalSeconds), job)
}

// Start begins running scheduled jobs
func (s *Scheduler) Start() {
	s.log.Info("starting scheduler")
	s.cron.Start()
}

// Stop halts the scheduler and returns a context that is done once running
// jobs have finished.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("stopping scheduler")
	return s.cron.Stop()
}
