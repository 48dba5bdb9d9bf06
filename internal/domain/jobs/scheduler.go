package jobs

import (
	"context"
	"errors"

	"hoa-http-service/internal/domain/services"
	Logger "hoa-http-service/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler triggers the jobs of a Runner on their cron specs
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
}

// NewScheduler registers every job with a non-empty schedule
func NewScheduler(runner *Runner) (*Scheduler, error) {
	cronLogger := cron.PrintfLogger(Logger.InfoLogger)
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		runner: runner,
	}

	for _, name := range runner.Names() {
		job, _ := runner.Job(name)
		if job.Schedule == "" {
			Logger.Info("jobs: %s disabled", name)
			continue
		}

		name := name
		if _, err := s.cron.AddFunc(job.Schedule, func() { s.trigger(name) }); err != nil {
			return nil, err
		}
		Logger.Info("jobs: %s scheduled at %q", name, job.Schedule)
	}
	return s, nil
}

func (s *Scheduler) trigger(name string) {
	_, err := s.runner.RunNow(context.Background(), name)
	if errors.Is(err, services.ErrLockNotAcquired) {
		Logger.Info("jobs: %s is running on another instance", name)
	}
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops triggering jobs and waits for running ones
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		Logger.Warning("jobs: shutdown timed out with jobs still running")
	}
}

// Entries returns the number of scheduled jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
