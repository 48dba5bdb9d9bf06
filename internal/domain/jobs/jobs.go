package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"
	"hoa-http-service/internal/infrastructure/config"
	Logger "hoa-http-service/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job names
const (
	CloseSurveys         = "close-surveys"
	PublishAnnouncements = "publish-announcements"
	VotingRights         = "voting-rights"
	PastDueReminders     = "past-due-reminders"
	YearlyAssessments    = "yearly-assessments"
)

// lockTTL bounds how long a crashed instance can block a job
const lockTTL = 30 * time.Minute

// ErrJobNotFound is returned for unknown job names
var ErrJobNotFound = errors.New("job not found")

// Job is one batch task
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context, now time.Time) (*services.BatchResult, error)
}

// Runner executes jobs under a distributed lock and records every run
type Runner struct {
	db     *gorm.DB
	config *config.Config
	locker services.Locker
	now    func() time.Time
	jobs   map[string]Job

	surveys       services.InterfaceSurveyService
	announcements services.InterfaceAnnouncementService
	billing       services.InterfaceBillingService
	messages      services.InterfaceMessageService
	notifier      services.InterfaceNotifier
}

// NewRunner registers the jobs against the services of c
func NewRunner(c *container.ServiceContainer) *Runner {
	cfg := c.GetConfig()
	r := &Runner{
		db:            c.GetDB(),
		config:        cfg,
		locker:        c.GetService("locker").(services.Locker),
		now:           c.Now,
		surveys:       c.GetService("survey").(services.InterfaceSurveyService),
		announcements: c.GetService("announcement").(services.InterfaceAnnouncementService),
		billing:       c.GetService("billing").(services.InterfaceBillingService),
		messages:      c.GetService("message").(services.InterfaceMessageService),
		notifier:      c.GetService("notifier").(services.InterfaceNotifier),
	}

	r.jobs = map[string]Job{
		CloseSurveys: {
			Name:     CloseSurveys,
			Schedule: cfg.CloseSurveysSchedule,
			Run:      r.surveys.CloseExpired,
		},
		PublishAnnouncements: {
			Name:     PublishAnnouncements,
			Schedule: cfg.PublishAnnouncementsSchedule,
			Run:      r.announcements.PublishDue,
		},
		VotingRights: {
			Name:     VotingRights,
			Schedule: cfg.VotingRightsSchedule,
			Run:      r.updateVotingRights,
		},
		PastDueReminders: {
			Name:     PastDueReminders,
			Schedule: cfg.PastDueRemindersSchedule,
			Run:      r.sendPastDueReminders,
		},
		YearlyAssessments: {
			Name:     YearlyAssessments,
			Schedule: cfg.YearlyAssessmentsSchedule,
			Run:      r.issueYearlyAssessments,
		},
	}
	return r
}

// Names returns the registered job names in order
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Job returns the job registered under name
func (r *Runner) Job(name string) (Job, bool) {
	job, ok := r.jobs[name]
	return job, ok
}

// RunNow runs job name once. It returns services.ErrLockNotAcquired when
// another instance is running the same job.
func (r *Runner) RunNow(ctx context.Context, name string) (*models.JobRun, error) {
	job, ok := r.jobs[name]
	if !ok {
		return nil, ErrJobNotFound
	}

	token, err := r.locker.Lock(ctx, "job:"+name, lockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := r.locker.Unlock(context.Background(), "job:"+name, token); err != nil {
			Logger.Warning("jobs: unlock %s: %v", name, err)
		}
	}()

	started := r.now()
	run := &models.JobRun{
		JobName:   name,
		RunID:     uuid.NewString(),
		StartedAt: started,
	}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, fmt.Errorf("record job run: %w", err)
	}
	Logger.Info("jobs: %s started (run %s)", name, run.RunID)

	result, runErr := job.Run(ctx, started)

	finished := r.now()
	run.FinishedAt = &finished
	if result != nil {
		run.Processed = result.Processed
		run.Skipped = result.Skipped
		run.Failed = result.Failed
		if details, err := json.Marshal(result); err == nil {
			run.Details = datatypes.JSON(details)
		}
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := r.db.Save(run).Error; err != nil {
		Logger.Error("jobs: update run %s: %v", run.RunID, err)
	}

	if runErr != nil {
		Logger.Error("jobs: %s failed: %v", name, runErr)
		return run, runErr
	}
	Logger.Info("jobs: %s finished: %d processed, %d skipped, %d failed", name, run.Processed, run.Skipped, run.Failed)
	return run, nil
}

// Runs returns the latest runs of name, or of every job when name is empty
func (r *Runner) Runs(name string, limit int) ([]models.JobRun, error) {
	db := r.db.Order("started_at DESC, id DESC").Limit(limit)
	if name != "" {
		db = db.Where("job_name = ?", name)
	}
	var runs []models.JobRun
	if err := db.Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
