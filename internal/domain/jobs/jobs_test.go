package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/infrastructure/config"
	"hoa-http-service/internal/test/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuePastDueFine(t *testing.T, env *testutil.Env, admin *models.Owner, account *models.Account, cents int64) {
	t.Helper()

	vt := env.CreateViolationType(t, fmt.Sprintf("Fine %d", cents), cents)
	_, err := env.Billing().IssueViolation(context.Background(), admin.ID, services.ViolationInput{
		AccountID:       account.ID,
		ViolationTypeID: vt.ID,
		DueDate:         env.Clock.Now().AddDate(0, 0, -10),
	})
	require.NoError(t, err)
}

func TestRunNow(t *testing.T) {
	env := testutil.NewEnv(t)
	runner := NewRunner(env.Container)
	ctx := context.Background()

	assert.Equal(t, []string{CloseSurveys, PastDueReminders, PublishAnnouncements, VotingRights, YearlyAssessments}, runner.Names())

	_, err := runner.RunNow(ctx, "defrag")
	assert.ErrorIs(t, err, ErrJobNotFound)

	run, err := runner.RunNow(ctx, CloseSurveys)
	require.NoError(t, err)
	assert.Equal(t, CloseSurveys, run.JobName)
	assert.NotEmpty(t, run.RunID)
	assert.Equal(t, testutil.Start, run.StartedAt)
	require.NotNil(t, run.FinishedAt)
	assert.Empty(t, run.Error)

	// The lock is released after each run
	_, err = runner.RunNow(ctx, CloseSurveys)
	require.NoError(t, err)

	runs, err := runner.Runs(CloseSurveys, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	_, err = runner.RunNow(ctx, PublishAnnouncements)
	require.NoError(t, err)
	runs, err = runner.Runs("", 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestRunNowHonorsLock(t *testing.T) {
	env := testutil.NewEnv(t)
	runner := NewRunner(env.Container)
	ctx := context.Background()

	token, err := env.Store.Lock(ctx, "job:"+CloseSurveys, time.Minute)
	require.NoError(t, err)

	_, err = runner.RunNow(ctx, CloseSurveys)
	assert.ErrorIs(t, err, services.ErrLockNotAcquired)

	runs, err := runner.Runs(CloseSurveys, 10)
	require.NoError(t, err)
	assert.Empty(t, runs)

	// Other jobs are not blocked
	_, err = runner.RunNow(ctx, VotingRights)
	assert.NoError(t, err)

	require.NoError(t, env.Store.Unlock(ctx, "job:"+CloseSurveys, token))
	_, err = runner.RunNow(ctx, CloseSurveys)
	assert.NoError(t, err)
}

func TestCloseSurveysJob(t *testing.T) {
	env := testutil.NewEnv(t)
	runner := NewRunner(env.Container)
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")

	_, err := env.Surveys().Create(admin.ID, services.SurveyInput{
		Question: "Allow chickens?",
		Answers:  []string{"Yes", "No"},
		EndDate:  testutil.Start.Add(24 * time.Hour),
	})
	require.NoError(t, err)

	env.Clock.Advance(48 * time.Hour)
	run, err := runner.RunNow(context.Background(), CloseSurveys)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Processed)

	var details services.BatchResult
	require.NoError(t, json.Unmarshal(run.Details, &details))
	assert.Equal(t, []uint{admin.ID}, details.Notifications.Sent)
}

func TestVotingRightsJob(t *testing.T) {
	env := testutil.NewEnv(t)
	runner := NewRunner(env.Container)
	ctx := context.Background()

	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")
	ada, adaAccount := env.CreateOwnerWithAccount(t, "Ada", "ada@example.com")
	bob, _ := env.CreateOwnerWithAccount(t, "Bob", "bob@example.com")
	require.NoError(t, env.DB.Model(bob).Update("has_voting_rights", false).Error)

	issuePastDueFine(t, env, admin, adaAccount, 5000)

	run, err := runner.RunNow(ctx, VotingRights)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Processed)
	assert.Equal(t, 1, run.Skipped)
	assert.Zero(t, run.Failed)

	var reloaded models.Owner
	env.Reload(t, &reloaded, ada.ID)
	assert.False(t, reloaded.HasVotingRights)
	env.Reload(t, &reloaded, bob.ID)
	assert.True(t, reloaded.HasVotingRights)

	_, err = env.Billing().MakePayment(ada.ID, services.PaymentInput{
		AccountID:   adaAccount.ID,
		AmountCents: 5000,
		Card:        &services.CardInput{Number: "4242424242424242", ExpMonth: 1, ExpYear: 2030},
	})
	require.NoError(t, err)

	run, err = runner.RunNow(ctx, VotingRights)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Processed)
	env.Reload(t, &reloaded, ada.ID)
	assert.True(t, reloaded.HasVotingRights)
}

func TestPastDueRemindersJob(t *testing.T) {
	env := testutil.NewEnv(t)
	runner := NewRunner(env.Container)
	ctx := context.Background()

	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")
	ada, adaAccount := env.CreateOwnerWithAccount(t, "Ada", "ada@example.com")
	_, bobAccount := env.CreateOwnerWithAccount(t, "Bob", "bob@example.com")

	issuePastDueFine(t, env, admin, adaAccount, 5000)
	rate := env.CreateAssessmentRate(t, 2026, 3000, false)
	_, err := env.Billing().IssueAssessment(ctx, admin.ID, services.AssessmentInput{AccountID: bobAccount.ID, AssessmentRateID: rate.ID})
	require.NoError(t, err)

	run, err := runner.RunNow(ctx, PastDueReminders)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Processed)
	assert.Equal(t, 1, run.Skipped)

	inbox, _, err := env.Messages().Inbox(ada.ID, models.PaginationQuery{})
	require.NoError(t, err)
	require.NotEmpty(t, inbox)
	assert.Equal(t, "Past due balance reminder", inbox[0].Subject)
	assert.Contains(t, inbox[0].Body, "$50.00")

	var reminders int
	for _, e := range env.Mailer.SentTo("ada@example.com") {
		if e.Subject == "Past due balance reminder" {
			reminders++
		}
	}
	assert.Equal(t, 1, reminders)

	for _, e := range env.Mailer.SentTo("bob@example.com") {
		assert.NotEqual(t, "Past due balance reminder", e.Subject)
	}
}

func TestYearlyAssessmentsJob(t *testing.T) {
	env := testutil.NewEnv(t)
	runner := NewRunner(env.Container)
	ctx := context.Background()

	ada, adaAccount := env.CreateOwnerWithAccount(t, "Ada", "ada@example.com")
	env.CreateOwnerWithAccount(t, "Bob", "bob@example.com")
	cal, _ := env.CreateOwnerWithAccount(t, "Cal", "cal@example.com")
	require.NoError(t, env.DB.Model(&models.OwnerProperty{}).
		Where("owner_id = ?", cal.ID).
		Update("sell_date", models.StartOfDay(testutil.Start).AddDate(0, 0, -1)).Error)

	// Without a yearly rate there is nothing to do
	run, err := runner.RunNow(ctx, YearlyAssessments)
	require.NoError(t, err)
	assert.Zero(t, run.Processed)

	env.CreateAssessmentRate(t, 2026, 30000, true)
	run, err = runner.RunNow(ctx, YearlyAssessments)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Processed)
	assert.Zero(t, run.Failed)

	var charges []models.Charge
	require.NoError(t, env.DB.Where("account_id = ?", adaAccount.ID).Find(&charges).Error)
	require.Len(t, charges, 1)
	assert.Equal(t, int64(30000), charges[0].AmountCents)
	assert.Equal(t, models.SystemOwnerID, charges[0].IssuedBy)
	assert.Equal(t, "2026 dues", charges[0].Description)

	var account models.Account
	env.Reload(t, &account, adaAccount.ID)
	assert.Equal(t, int64(30000), account.BalanceCents)

	emails := env.Mailer.SentTo(ada.Email)
	require.Len(t, emails, 1)
	assert.Equal(t, "New assessment: 2026 dues", emails[0].Subject)
	assert.Empty(t, env.Mailer.SentTo("cal@example.com"))

	// Running again does not charge twice
	run, err = runner.RunNow(ctx, YearlyAssessments)
	require.NoError(t, err)
	assert.Zero(t, run.Processed)

	var total int64
	require.NoError(t, env.DB.Model(&models.Charge{}).Count(&total).Error)
	assert.Equal(t, int64(2), total)
}

func TestScheduler(t *testing.T) {
	env := testutil.NewEnv(t)
	scheduler, err := NewScheduler(NewRunner(env.Container))
	require.NoError(t, err)
	assert.Equal(t, 5, scheduler.Entries())

	disabled := testutil.NewEnv(t, func(cfg *config.Config) {
		cfg.YearlyAssessmentsSchedule = ""
	})
	scheduler, err = NewScheduler(NewRunner(disabled.Container))
	require.NoError(t, err)
	assert.Equal(t, 4, scheduler.Entries())

	broken := testutil.NewEnv(t, func(cfg *config.Config) {
		cfg.CloseSurveysSchedule = "every tuesday"
	})
	_, err = NewScheduler(NewRunner(broken.Container))
	assert.Error(t, err)
}
