package services_test

import (
	"context"
	"errors"
	"testing"

	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/infrastructure/mail"
	"hoa-http-service/internal/test/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotify(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	ada := env.CreateOwner(t, "Ada", "ada@example.com")
	bob := env.CreateOwner(t, "Bob", "bob@example.com")
	cal := env.CreateOwner(t, "Cal", "cal@example.com")

	placeholder := models.Owner{Email: models.PlaceholderEmail("lot-7")}
	require.NoError(t, env.DB.Create(&placeholder).Error)

	off := false
	_, err := env.Owners().UpdateNotificationPreferences(bob.ID, services.PreferenceInput{EmailMessages: &off})
	require.NoError(t, err)

	env.Mailer.FailFor["cal@example.com"] = errors.New("mailbox full")

	data := map[string]interface{}{"subject": "Hello", "sender": "Board", "body": "Hi all"}
	report := env.Notifier().Notify(ctx, models.CategoryMessages,
		[]uint{ada.ID, ada.ID, bob.ID, cal.ID, placeholder.ID, 9999}, mail.TemplateMessage, data)

	assert.Equal(t, []uint{ada.ID}, report.Sent)
	assert.ElementsMatch(t, []uint{bob.ID, placeholder.ID, 9999}, report.Skipped)
	require.Contains(t, report.Failed, cal.ID)
	assert.Contains(t, report.Failed[cal.ID], "mailbox full")
	assert.True(t, report.HasFailures())

	emails := env.Mailer.SentTo("ada@example.com")
	require.Len(t, emails, 1)
	assert.Equal(t, "New message: Hello", emails[0].Subject)
	assert.Contains(t, emails[0].HTMLBody, "Hello Ada Tester")

	t.Run("critical ignores preferences", func(t *testing.T) {
		report := env.Notifier().Notify(ctx, models.CategoryCritical, []uint{bob.ID}, mail.TemplateTemporaryPassword,
			map[string]interface{}{"password": "abc123"})
		assert.Equal(t, []uint{bob.ID}, report.Sent)
	})

	t.Run("no recipients", func(t *testing.T) {
		report := env.Notifier().Notify(ctx, models.CategoryMessages, nil, mail.TemplateMessage, data)
		assert.Empty(t, report.Sent)
		assert.False(t, report.HasFailures())
	})
}

func TestNotificationReportMerge(t *testing.T) {
	report := services.NewNotificationReport()
	report.Merge(&services.NotificationReport{Sent: []uint{1}, Skipped: []uint{2}, Failed: map[uint]string{3: "boom"}})
	report.Merge(nil)
	report.Merge(&services.NotificationReport{Sent: []uint{4}})

	assert.Equal(t, []uint{1, 4}, report.Sent)
	assert.Equal(t, []uint{2}, report.Skipped)
	assert.Equal(t, map[uint]string{3: "boom"}, report.Failed)
}
