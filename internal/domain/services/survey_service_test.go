package services_test

import (
	"context"
	"testing"
	"time"

	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/test/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekLongSurvey(question string) services.SurveyInput {
	return services.SurveyInput{
		Question: question,
		Answers:  []string{"Yes", "No", " "},
		EndDate:  testutil.Start.Add(7 * 24 * time.Hour),
	}
}

func TestCreateSurvey(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")
	resident := env.CreateOwner(t, "Ada", "ada@example.com")

	survey, err := env.Surveys().Create(admin.ID, weekLongSurvey(" Repave the pool deck? "))
	require.NoError(t, err)
	assert.Equal(t, "Repave the pool deck?", survey.Question)
	assert.Equal(t, "Yes", survey.Answer1)
	assert.Equal(t, "No", survey.Answer2)
	assert.Empty(t, survey.Answer3)
	assert.Equal(t, testutil.Start, survey.StartDate)
	assert.Equal(t, models.SurveyActive, survey.Status)

	tests := []struct {
		name  string
		input services.SurveyInput
	}{
		{"one answer", services.SurveyInput{Question: "Q", Answers: []string{"Yes"}, EndDate: testutil.Start.Add(time.Hour)}},
		{"five answers", services.SurveyInput{Question: "Q", Answers: []string{"a", "b", "c", "d", "e"}, EndDate: testutil.Start.Add(time.Hour)}},
		{"no question", services.SurveyInput{Answers: []string{"a", "b"}, EndDate: testutil.Start.Add(time.Hour)}},
		{"ends in the past", services.SurveyInput{Question: "Q", Answers: []string{"a", "b"}, EndDate: testutil.Start.Add(-time.Hour)}},
		{"ends before it starts", services.SurveyInput{
			Question:  "Q",
			Answers:   []string{"a", "b"},
			StartDate: testutil.Start.Add(48 * time.Hour),
			EndDate:   testutil.Start.Add(24 * time.Hour),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Surveys().Create(admin.ID, tt.input)
			assert.ErrorIs(t, err, services.ErrValidation)
		})
	}

	_, err = env.Surveys().Create(resident.ID, weekLongSurvey("Mine?"))
	assert.ErrorIs(t, err, services.ErrPermissionDenied)
}

func TestRespondAndResults(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")
	ada := env.CreateOwner(t, "Ada", "ada@example.com")
	bob := env.CreateOwner(t, "Bob", "bob@example.com")

	survey, err := env.Surveys().Create(admin.ID, weekLongSurvey("Repave the pool deck?"))
	require.NoError(t, err)

	_, err = env.Surveys().Respond(ada.ID, survey.ID, 3)
	assert.ErrorIs(t, err, services.ErrInvalidAnswer)
	_, err = env.Surveys().Respond(ada.ID, 9999, 1)
	assert.ErrorIs(t, err, services.ErrSurveyNotFound)

	_, err = env.Surveys().Respond(ada.ID, survey.ID, 1)
	require.NoError(t, err)
	_, err = env.Surveys().Respond(ada.ID, survey.ID, 2)
	assert.ErrorIs(t, err, services.ErrAlreadyResponded)

	_, err = env.Surveys().Respond(bob.ID, survey.ID, 1)
	require.NoError(t, err)
	_, err = env.Surveys().Respond(admin.ID, survey.ID, 2)
	require.NoError(t, err)

	results, err := env.Surveys().Results(survey.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), results.Total)
	require.Len(t, results.Answers, 2)
	assert.Equal(t, int64(2), results.Answers[0].Count)
	assert.Equal(t, 66.7, results.Answers[0].Percentage)
	assert.Equal(t, int64(1), results.Answers[1].Count)
	assert.Equal(t, 33.3, results.Answers[1].Percentage)

	views, err := env.Surveys().List(context.Background(), ada.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].MyAnswer)
	assert.Equal(t, 1, *views[0].MyAnswer)
	assert.False(t, views[0].CanRespond)
	assert.Nil(t, views[0].Results)

	_, err = env.Surveys().Results(9999)
	assert.ErrorIs(t, err, services.ErrSurveyNotFound)
}

func TestCloseExpired(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")
	ada := env.CreateOwner(t, "Ada", "ada@example.com")
	env.CreateOwner(t, "Bob", "bob@example.com")

	survey, err := env.Surveys().Create(admin.ID, weekLongSurvey("Repave the pool deck?"))
	require.NoError(t, err)
	_, err = env.Surveys().Respond(ada.ID, survey.ID, 1)
	require.NoError(t, err)

	// Still open
	result, err := env.Surveys().CloseExpired(ctx, env.Clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)

	env.Clock.Advance(8 * 24 * time.Hour)
	_, err = env.Surveys().Respond(admin.ID, survey.ID, 2)
	assert.ErrorIs(t, err, services.ErrSurveyClosed)

	result, err = env.Surveys().CloseExpired(ctx, env.Clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Len(t, result.Notifications.Sent, 3)

	var closed models.Survey
	env.Reload(t, &closed, survey.ID)
	assert.Equal(t, models.SurveyInactive, closed.Status)
	assert.True(t, closed.ResultsSent)

	emails := env.Mailer.SentTo("bob@example.com")
	require.Len(t, emails, 1)
	assert.Equal(t, "Survey results: Repave the pool deck?", emails[0].Subject)
	assert.Contains(t, emails[0].HTMLBody, "100.0%")

	inbox, _, err := env.Messages().Inbox(ada.ID, models.PaginationQuery{})
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Survey results: Repave the pool deck?", inbox[0].Subject)
	assert.True(t, inbox[0].Sender.IsSystem())

	// Results go out once
	result, err = env.Surveys().CloseExpired(ctx, env.Clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Len(t, env.Mailer.SentTo("bob@example.com"), 1)
}

func TestCloseExpiredSkipsClaimedSurveys(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")

	survey, err := env.Surveys().Create(admin.ID, weekLongSurvey("Allow chickens?"))
	require.NoError(t, err)
	require.NoError(t, env.DB.Model(&models.Survey{}).Where("id = ?", survey.ID).Update("results_sent", true).Error)

	env.Clock.Advance(8 * 24 * time.Hour)
	result, err := env.Surveys().CloseExpired(context.Background(), env.Clock.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, env.Mailer.SentTo("bea@example.com"))
}

func TestListClosesExpiredSurveys(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")
	ada := env.CreateOwner(t, "Ada", "ada@example.com")

	expiring, err := env.Surveys().Create(admin.ID, weekLongSurvey("Repave the pool deck?"))
	require.NoError(t, err)

	later := weekLongSurvey("Install solar lights?")
	later.StartDate = testutil.Start.Add(10 * 24 * time.Hour)
	later.EndDate = testutil.Start.Add(20 * 24 * time.Hour)
	upcoming, err := env.Surveys().Create(admin.ID, later)
	require.NoError(t, err)

	_, err = env.Surveys().Respond(ada.ID, upcoming.ID, 1)
	assert.ErrorIs(t, err, services.ErrSurveyClosed)

	env.Clock.Advance(8 * 24 * time.Hour)
	views, err := env.Surveys().List(ctx, ada.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byID := map[uint]services.SurveyView{}
	for _, v := range views {
		byID[v.ID] = v
	}
	assert.Equal(t, models.SurveyInactive, byID[expiring.ID].Status)
	require.NotNil(t, byID[expiring.ID].Results)
	assert.Equal(t, int64(0), byID[expiring.ID].Results.Total)
	assert.False(t, byID[upcoming.ID].CanRespond)
	assert.Len(t, env.Mailer.SentTo("ada@example.com"), 1)

	env.Clock.Advance(3 * 24 * time.Hour)
	views, err = env.Surveys().List(ctx, ada.ID)
	require.NoError(t, err)
	for _, v := range views {
		if v.ID == upcoming.ID {
			assert.True(t, v.CanRespond)
		}
	}
	assert.Len(t, env.Mailer.SentTo("ada@example.com"), 1)
}
