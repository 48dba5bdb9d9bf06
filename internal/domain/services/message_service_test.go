package services_test

import (
	"context"
	"errors"
	"testing"

	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/test/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSendMessage(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada := env.CreateOwner(t, "Ada", "ada@example.com")
	bob := env.CreateOwner(t, "Bob", "bob@example.com")

	msg, report, err := env.Messages().Send(ctx, models.OwnerSender(ada.ID), services.SendInput{
		Recipients: []uint{bob.ID, bob.ID},
		Subject:    " Fence ",
		Body:       "Can we talk about the fence?",
	})
	require.NoError(t, err)
	assert.Equal(t, "Fence", msg.Subject)
	require.Len(t, msg.Recipients, 1)
	assert.Equal(t, []uint{bob.ID}, report.Sent)

	emails := env.Mailer.SentTo("bob@example.com")
	require.Len(t, emails, 1)
	assert.Equal(t, "New message: Fence", emails[0].Subject)
	assert.Contains(t, emails[0].HTMLBody, "Ada Tester")

	inbox, total, err := env.Messages().Inbox(bob.ID, models.PaginationQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Ada Tester", inbox[0].SenderName)
	assert.Equal(t, models.OwnerSender(ada.ID), inbox[0].Sender)
	assert.False(t, inbox[0].IsRead)

	sent, total, err := env.Messages().Sent(ada.ID, models.PaginationQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, sent, 1)
	assert.Equal(t, []uint{bob.ID}, sent[0].RecipientIDs)

	require.NoError(t, env.Messages().MarkRead(bob.ID, msg.ID))
	require.NoError(t, env.Messages().MarkRead(bob.ID, msg.ID))
	inbox, _, err = env.Messages().Inbox(bob.ID, models.PaginationQuery{})
	require.NoError(t, err)
	assert.True(t, inbox[0].IsRead)

	assert.ErrorIs(t, env.Messages().MarkRead(ada.ID, msg.ID), services.ErrMessageNotFound)
}

func TestSendMessageValidation(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada := env.CreateOwner(t, "Ada", "ada@example.com")
	bob := env.CreateOwner(t, "Bob", "bob@example.com")

	tests := []struct {
		name   string
		sender models.Sender
		input  services.SendInput
		want   error
	}{
		{"no recipients", models.OwnerSender(ada.ID), services.SendInput{Subject: "Hi"}, services.ErrValidation},
		{"only the system id", models.OwnerSender(ada.ID), services.SendInput{Recipients: []uint{models.SystemOwnerID}, Subject: "Hi"}, services.ErrValidation},
		{"no subject", models.OwnerSender(ada.ID), services.SendInput{Recipients: []uint{bob.ID}, Subject: " "}, services.ErrValidation},
		{"system sender", models.SystemSender(), services.SendInput{Recipients: []uint{bob.ID}, Subject: "Hi"}, services.ErrValidation},
		{"unknown recipient", models.OwnerSender(ada.ID), services.SendInput{Recipients: []uint{bob.ID, 9999}, Subject: "Hi"}, services.ErrOwnerNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.Messages().Send(ctx, tt.sender, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	var count int64
	require.NoError(t, env.DB.Model(&models.Message{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSendMessageMailFailure(t *testing.T) {
	env := testutil.NewEnv(t)
	ada := env.CreateOwner(t, "Ada", "ada@example.com")
	bob := env.CreateOwner(t, "Bob", "bob@example.com")
	env.Mailer.FailFor["bob@example.com"] = errors.New("connection refused")

	msg, report, err := env.Messages().Send(context.Background(), models.OwnerSender(ada.ID), services.SendInput{
		Recipients: []uint{bob.ID},
		Subject:    "Dues",
	})
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	assert.Contains(t, report.Failed, bob.ID)

	_, total, err := env.Messages().Inbox(bob.ID, models.PaginationQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestReplyAndThread(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada := env.CreateOwner(t, "Ada", "ada@example.com")
	bob := env.CreateOwner(t, "Bob", "bob@example.com")
	eve := env.CreateOwner(t, "Eve", "eve@example.com")

	first, _, err := env.Messages().Send(ctx, models.OwnerSender(ada.ID), services.SendInput{Recipients: []uint{bob.ID}, Subject: "Fence"})
	require.NoError(t, err)

	reply, _, err := env.Messages().Send(ctx, models.OwnerSender(bob.ID), services.SendInput{
		Recipients: []uint{ada.ID},
		Subject:    "Re: Fence",
		ParentID:   &first.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)

	aside, _, err := env.Messages().Send(ctx, models.OwnerSender(bob.ID), services.SendInput{
		Recipients: []uint{eve.ID},
		Subject:    "Re: Fence (fwd)",
		ParentID:   &first.ID,
	})
	require.NoError(t, err)

	thread, err := env.Messages().Thread(ada.ID, reply.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, first.ID, thread[0].ID)
	assert.Equal(t, reply.ID, thread[1].ID)

	thread, err = env.Messages().Thread(bob.ID, first.ID)
	require.NoError(t, err)
	assert.Len(t, thread, 3)

	thread, err = env.Messages().Thread(eve.ID, aside.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.Equal(t, aside.ID, thread[0].ID)

	_, err = env.Messages().Thread(eve.ID, first.ID)
	assert.ErrorIs(t, err, services.ErrMessageNotFound)

	_, _, err = env.Messages().Send(ctx, models.OwnerSender(eve.ID), services.SendInput{
		Recipients: []uint{ada.ID},
		Subject:    "Re: Fence",
		ParentID:   &first.ID,
	})
	assert.ErrorIs(t, err, services.ErrMessageNotFound)
}

func TestReplyToSystemMessage(t *testing.T) {
	env := testutil.NewEnv(t)
	ada := env.CreateOwner(t, "Ada", "ada@example.com")
	bob := env.CreateOwner(t, "Bob", "bob@example.com")

	var notice *models.Message
	require.NoError(t, env.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		notice, err = env.Messages().SendSystemTx(tx, []uint{ada.ID, models.SystemOwnerID}, "Pool closed", "Maintenance")
		return err
	}))
	require.Len(t, notice.Recipients, 1)

	inbox, _, err := env.Messages().Inbox(ada.ID, models.PaginationQuery{})
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, services.SystemSenderName, inbox[0].SenderName)

	_, _, err = env.Messages().Send(context.Background(), models.OwnerSender(ada.ID), services.SendInput{
		Recipients: []uint{bob.ID},
		Subject:    "Re: Pool closed",
		ParentID:   &notice.ID,
	})
	assert.ErrorIs(t, err, services.ErrInvalidReply)
}
