package services_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/test/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func validCard() *services.CardInput {
	return &services.CardInput{Number: "4111 1111 1111 1111", HolderName: "Ada Tester", ExpMonth: 12, ExpYear: 2028}
}

func TestIssueViolation(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")
	owner, account := env.CreateOwnerWithAccount(t, "Ada", "ada@example.com")
	parking := env.CreateViolationType(t, "Parking", 2500)

	result, err := env.Billing().IssueViolation(ctx, admin.ID, services.ViolationInput{
		AccountID:       account.ID,
		ViolationTypeID: parking.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2500), result.Charge.AmountCents)
	assert.Equal(t, models.ChargeViolation, result.Charge.Kind)
	assert.Equal(t, "Parking violation", result.Charge.Description)
	assert.Equal(t, models.StartOfDay(testutil.Start).AddDate(0, 0, services.DefaultDueDays), result.Charge.DueDate)
	assert.Equal(t, "Violation notice: Parking", result.Message.Subject)
	assert.Equal(t, []uint{owner.ID}, result.Notifications.Sent)

	var reloaded models.Account
	env.Reload(t, &reloaded, account.ID)
	assert.Equal(t, int64(2500), reloaded.BalanceCents)

	inbox, total, err := env.Messages().Inbox(owner.ID, models.PaginationQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, inbox, 1)
	assert.True(t, inbox[0].Sender.IsSystem())
	assert.Equal(t, services.SystemSenderName, inbox[0].SenderName)

	emails := env.Mailer.SentTo("ada@example.com")
	require.Len(t, emails, 1)
	assert.Equal(t, "Violation notice: Parking", emails[0].Subject)
	assert.Contains(t, emails[0].HTMLBody, "$25.00")

	t.Run("rate changes leave issued charges alone", func(t *testing.T) {
		_, err := env.Billing().UpdateViolationType(admin.ID, parking.ID, services.ViolationTypeInput{RateCents: 9000})
		require.NoError(t, err)

		var charge models.Charge
		env.Reload(t, &charge, result.Charge.ID)
		assert.Equal(t, int64(2500), charge.AmountCents)

		second, err := env.Billing().IssueViolation(ctx, admin.ID, services.ViolationInput{
			AccountID:       account.ID,
			ViolationTypeID: parking.ID,
			Description:     "Boat in driveway",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(9000), second.Charge.AmountCents)
		assert.Equal(t, "Boat in driveway", second.Charge.Description)
	})

	t.Run("billing emails respect preferences", func(t *testing.T) {
		off := false
		_, err := env.Owners().UpdateNotificationPreferences(owner.ID, services.PreferenceInput{EmailBilling: &off})
		require.NoError(t, err)
		before := len(env.Mailer.SentTo("ada@example.com"))

		result, err := env.Billing().IssueViolation(ctx, admin.ID, services.ViolationInput{
			AccountID:       account.ID,
			ViolationTypeID: parking.ID,
		})
		require.NoError(t, err)
		assert.Equal(t, []uint{owner.ID}, result.Notifications.Skipped)
		assert.Len(t, env.Mailer.SentTo("ada@example.com"), before)
	})

	t.Run("inactive type", func(t *testing.T) {
		off := false
		litter := env.CreateViolationType(t, "Litter", 1000)
		_, err := env.Billing().UpdateViolationType(admin.ID, litter.ID, services.ViolationTypeInput{Active: &off})
		require.NoError(t, err)

		_, err = env.Billing().IssueViolation(ctx, admin.ID, services.ViolationInput{AccountID: account.ID, ViolationTypeID: litter.ID})
		assert.ErrorIs(t, err, services.ErrValidation)

		active, err := env.Billing().ListViolationTypes(true)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, "Parking", active[0].Name)

		all, err := env.Billing().ListViolationTypes(false)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("unknown type and account", func(t *testing.T) {
		_, err := env.Billing().IssueViolation(ctx, admin.ID, services.ViolationInput{AccountID: account.ID, ViolationTypeID: 9999})
		assert.ErrorIs(t, err, services.ErrRateNotFound)

		_, err = env.Billing().IssueViolation(ctx, admin.ID, services.ViolationInput{AccountID: 9999, ViolationTypeID: parking.ID})
		assert.ErrorIs(t, err, services.ErrAccountNotFound)
	})

	t.Run("requires assess fines", func(t *testing.T) {
		treasurer := env.CreateRole(t, "Treasurer", false, true, false)
		member := env.CreateBoardMember(t, "Cal", "cal@example.com", treasurer)

		_, err := env.Billing().IssueViolation(ctx, member.ID, services.ViolationInput{AccountID: account.ID, ViolationTypeID: parking.ID})
		assert.ErrorIs(t, err, services.ErrPermissionDenied)

		_, err = env.Billing().IssueViolation(ctx, owner.ID, services.ViolationInput{AccountID: account.ID, ViolationTypeID: parking.ID})
		assert.ErrorIs(t, err, services.ErrPermissionDenied)
	})
}

// messagesFailingAfterWrite stores the system message and then fails
type messagesFailingAfterWrite struct {
	services.InterfaceMessageService
}

func (m messagesFailingAfterWrite) SendSystemTx(tx *gorm.DB, recipients []uint, subject, body string) (*models.Message, error) {
	if _, err := m.InterfaceMessageService.SendSystemTx(tx, recipients, subject, body); err != nil {
		return nil, err
	}
	return nil, errors.New("message store unavailable")
}

func TestIssueViolationRollsBackTogether(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")
	_, account := env.CreateOwnerWithAccount(t, "Ada", "ada@example.com")
	parking := env.CreateViolationType(t, "Parking", 2500)

	billing := services.NewBillingService(env.DB, env.Config, messagesFailingAfterWrite{env.Messages()}, env.Notifier(), env.Clock.Now)
	_, err := billing.IssueViolation(context.Background(), admin.ID, services.ViolationInput{
		AccountID:       account.ID,
		ViolationTypeID: parking.ID,
	})
	require.Error(t, err)

	var reloaded models.Account
	env.Reload(t, &reloaded, account.ID)
	assert.Equal(t, int64(0), reloaded.BalanceCents)

	var charges, messages int64
	require.NoError(t, env.DB.Model(&models.Charge{}).Count(&charges).Error)
	require.NoError(t, env.DB.Model(&models.Message{}).Count(&messages).Error)
	assert.Zero(t, charges)
	assert.Zero(t, messages)
	assert.Zero(t, env.Mailer.Count())
}

func TestIssueViolationKeepsChargeWhenEmailFails(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")
	owner, account := env.CreateOwnerWithAccount(t, "Ada", "ada@example.com")
	parking := env.CreateViolationType(t, "Parking", 2500)
	env.Mailer.FailFor[owner.Email] = errors.New("mailbox unavailable")

	result, err := env.Billing().IssueViolation(context.Background(), admin.ID, services.ViolationInput{
		AccountID:       account.ID,
		ViolationTypeID: parking.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Notifications)
	assert.Contains(t, result.Notifications.Failed, owner.ID)
	assert.Empty(t, result.Notifications.Sent)

	var reloaded models.Account
	env.Reload(t, &reloaded, account.ID)
	assert.Equal(t, int64(2500), reloaded.BalanceCents)

	var charge models.Charge
	env.Reload(t, &charge, result.Charge.ID)
	assert.Equal(t, int64(2500), charge.AmountCents)

	inbox, total, err := env.Messages().Inbox(owner.ID, models.PaginationQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, inbox, 1)
}

func TestIssueAssessment(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")
	_, account := env.CreateOwnerWithAccount(t, "Ada", "ada@example.com")
	rate := env.CreateAssessmentRate(t, 2026, 30000, true)

	due := testutil.Start.AddDate(0, 2, 0)
	result, err := env.Billing().IssueAssessment(ctx, admin.ID, services.AssessmentInput{
		AccountID:        account.ID,
		AssessmentRateID: rate.ID,
		DueDate:          due,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30000), result.Charge.AmountCents)
	assert.Equal(t, models.ChargeAssessment, result.Charge.Kind)
	assert.Equal(t, models.StartOfDay(due), result.Charge.DueDate)
	require.NotNil(t, result.Charge.AssessmentRateID)
	assert.Equal(t, rate.ID, *result.Charge.AssessmentRateID)

	emails := env.Mailer.SentTo("ada@example.com")
	require.Len(t, emails, 1)
	assert.Equal(t, "New assessment: 2026 dues", emails[0].Subject)

	_, err = env.Billing().IssueAssessment(ctx, admin.ID, services.AssessmentInput{AccountID: account.ID, AssessmentRateID: 9999})
	assert.ErrorIs(t, err, services.ErrRateNotFound)
}

func TestMakePayment(t *testing.T) {
	env := testutil.NewEnv(t)
	owner, account := env.CreateOwnerWithAccount(t, "Ada", "ada@example.com")
	other, otherAccount := env.CreateOwnerWithAccount(t, "Bob", "bob@example.com")

	payment, err := env.Billing().MakePayment(owner.ID, services.PaymentInput{
		AccountID:   account.ID,
		AmountCents: 1000,
		Card:        validCard(),
	})
	require.NoError(t, err)
	require.NotNil(t, payment.CreditCard)
	assert.Equal(t, "1111", payment.CreditCard.LastFour)
	assert.Equal(t, testutil.Start, payment.PaidAt)
	assert.Regexp(t, `^R-20260310-[0-9A-F]{10}$`, payment.ReceiptNumber)
	cardID := payment.CreditCard.ID

	var reloaded models.Account
	env.Reload(t, &reloaded, account.ID)
	assert.Equal(t, int64(-1000), reloaded.BalanceCents)

	t.Run("stored card by id", func(t *testing.T) {
		again, err := env.Billing().MakePayment(owner.ID, services.PaymentInput{AccountID: account.ID, AmountCents: 500, CardID: &cardID})
		require.NoError(t, err)
		assert.Equal(t, cardID, again.CreditCardID)
	})

	t.Run("same number reuses the card", func(t *testing.T) {
		card := validCard()
		card.Number = "4111111111111111"
		card.ExpYear = 2029
		again, err := env.Billing().MakePayment(owner.ID, services.PaymentInput{AccountID: account.ID, AmountCents: 500, Card: card})
		require.NoError(t, err)
		assert.Equal(t, cardID, again.CreditCardID)

		cards, err := env.Billing().ListCards(owner.ID, account.ID)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		assert.Equal(t, 2029, cards[0].ExpYear)
	})

	t.Run("card of another account", func(t *testing.T) {
		_, err := env.Billing().MakePayment(other.ID, services.PaymentInput{AccountID: otherAccount.ID, AmountCents: 500, CardID: &cardID})
		assert.ErrorIs(t, err, services.ErrCardNotFound)
	})

	t.Run("account of another owner", func(t *testing.T) {
		_, err := env.Billing().MakePayment(other.ID, services.PaymentInput{AccountID: account.ID, AmountCents: 500, Card: validCard()})
		assert.ErrorIs(t, err, services.ErrAccountNotFound)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := env.Billing().MakePayment(owner.ID, services.PaymentInput{AccountID: account.ID, AmountCents: 0, Card: validCard()})
		assert.ErrorIs(t, err, services.ErrInvalidAmount)

		_, err = env.Billing().MakePayment(owner.ID, services.PaymentInput{AccountID: account.ID, AmountCents: 100})
		assert.ErrorIs(t, err, services.ErrValidation)

		expired := validCard()
		expired.Number = "5555555555554444"
		expired.ExpMonth = 2
		expired.ExpYear = 2026
		_, err = env.Billing().MakePayment(owner.ID, services.PaymentInput{AccountID: account.ID, AmountCents: 100, Card: expired})
		assert.ErrorIs(t, err, services.ErrValidation)

		short := validCard()
		short.Number = "4111"
		_, err = env.Billing().MakePayment(owner.ID, services.PaymentInput{AccountID: account.ID, AmountCents: 100, Card: short})
		assert.ErrorIs(t, err, services.ErrValidation)

		badMonth := validCard()
		badMonth.ExpMonth = 13
		_, err = env.Billing().MakePayment(owner.ID, services.PaymentInput{AccountID: account.ID, AmountCents: 100, Card: badMonth})
		assert.ErrorIs(t, err, services.ErrValidation)
	})

	// Rejected payments leave the balance alone
	env.Reload(t, &reloaded, account.ID)
	assert.Equal(t, int64(-2000), reloaded.BalanceCents)

	payments, total, err := env.Billing().ListPayments(owner.ID, account.ID, models.PaginationQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, payments, 3)
}

func TestReceipt(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")
	owner, account := env.CreateOwnerWithAccount(t, "Ada", "ada@example.com")
	stranger := env.CreateOwner(t, "Eve", "eve@example.com")

	payment, err := env.Billing().MakePayment(owner.ID, services.PaymentInput{AccountID: account.ID, AmountCents: 12345, Card: validCard()})
	require.NoError(t, err)

	data, receipt, err := env.Billing().Receipt(owner.ID, payment.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Equal(t, payment.ReceiptNumber, receipt.ReceiptNumber)

	_, _, err = env.Billing().Receipt(admin.ID, payment.ID)
	assert.NoError(t, err)

	_, _, err = env.Billing().Receipt(stranger.ID, payment.ID)
	assert.ErrorIs(t, err, services.ErrPaymentNotFound)

	_, _, err = env.Billing().Receipt(owner.ID, 9999)
	assert.ErrorIs(t, err, services.ErrPaymentNotFound)
}

func TestGetAccountPastDue(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")
	owner, account := env.CreateOwnerWithAccount(t, "Ada", "ada@example.com")
	stranger := env.CreateOwner(t, "Eve", "eve@example.com")
	fine := env.CreateViolationType(t, "Noise", 5000)
	rate := env.CreateAssessmentRate(t, 2026, 3000, false)

	_, err := env.Billing().IssueViolation(ctx, admin.ID, services.ViolationInput{
		AccountID:       account.ID,
		ViolationTypeID: fine.ID,
		DueDate:         testutil.Start.AddDate(0, 0, -10),
	})
	require.NoError(t, err)
	_, err = env.Billing().IssueAssessment(ctx, admin.ID, services.AssessmentInput{AccountID: account.ID, AssessmentRateID: rate.ID})
	require.NoError(t, err)

	detail, err := env.Billing().GetAccount(owner.ID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(8000), detail.BalanceCents)
	assert.Equal(t, int64(5000), detail.PastDueCents)
	assert.Equal(t, int64(2), detail.ChargeCount)
	assert.Equal(t, "Ada Tester", detail.OwnerName)
	assert.Nil(t, detail.LastPaymentAt)

	// Board members can look at any account
	_, err = env.Billing().GetAccount(admin.ID, account.ID)
	require.NoError(t, err)

	_, err = env.Billing().GetAccount(stranger.ID, account.ID)
	assert.ErrorIs(t, err, services.ErrAccountNotFound)

	_, err = env.Billing().MakePayment(owner.ID, services.PaymentInput{AccountID: account.ID, AmountCents: 6000, Card: validCard()})
	require.NoError(t, err)

	detail, err = env.Billing().GetAccount(owner.ID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), detail.BalanceCents)
	assert.Equal(t, int64(0), detail.PastDueCents)
	assert.Equal(t, int64(1), detail.PaymentCount)
	require.NotNil(t, detail.LastPaymentAt)

	// Once the assessment falls due the remaining balance is past due
	env.Clock.Advance(31 * 24 * time.Hour)
	detail, err = env.Billing().GetAccount(owner.ID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), detail.PastDueCents)

	charges, total, err := env.Billing().ListCharges(owner.ID, account.ID, models.PaginationQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, charges, 2)
	assert.Equal(t, models.ChargeAssessment, charges[0].Kind)
	assert.NotNil(t, charges[0].AssessmentRate)
	assert.NotNil(t, charges[1].ViolationType)

	_, _, err = env.Billing().ListCharges(stranger.ID, account.ID, models.PaginationQuery{})
	assert.ErrorIs(t, err, services.ErrAccountNotFound)
}

func TestAssessmentRates(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")

	yearly, err := env.Billing().CreateAssessmentRate(admin.ID, services.AssessmentRateInput{Year: 2026, AmountCents: 30000, IsYearly: true})
	require.NoError(t, err)
	assert.Equal(t, "2026 assessment", yearly.Description)

	_, err = env.Billing().CreateAssessmentRate(admin.ID, services.AssessmentRateInput{Year: 2026, AmountCents: 100, IsYearly: true})
	assert.ErrorIs(t, err, services.ErrYearlyRateExists)

	special, err := env.Billing().CreateAssessmentRate(admin.ID, services.AssessmentRateInput{Year: 2026, AmountCents: 5000, Description: "Roof repair"})
	require.NoError(t, err)

	_, err = env.Billing().UpdateAssessmentRate(admin.ID, special.ID, services.AssessmentRateInput{IsYearly: true})
	assert.ErrorIs(t, err, services.ErrYearlyRateExists)

	// Updating the yearly rate itself keeps it yearly
	updated, err := env.Billing().UpdateAssessmentRate(admin.ID, yearly.ID, services.AssessmentRateInput{AmountCents: 32000, IsYearly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(32000), updated.AmountCents)

	_, err = env.Billing().CreateAssessmentRate(admin.ID, services.AssessmentRateInput{Year: 1999, AmountCents: 100})
	assert.ErrorIs(t, err, services.ErrValidation)
	_, err = env.Billing().CreateAssessmentRate(admin.ID, services.AssessmentRateInput{Year: 2027, AmountCents: 0})
	assert.ErrorIs(t, err, services.ErrInvalidAmount)

	found, err := env.Billing().YearlyRate(2026)
	require.NoError(t, err)
	assert.Equal(t, yearly.ID, found.ID)

	_, err = env.Billing().YearlyRate(2027)
	assert.ErrorIs(t, err, services.ErrRateNotFound)

	rates, err := env.Billing().ListAssessmentRates(2026)
	require.NoError(t, err)
	assert.Len(t, rates, 2)

	resident := env.CreateOwner(t, "Ada", "ada@example.com")
	_, err = env.Billing().CreateAssessmentRate(resident.ID, services.AssessmentRateInput{Year: 2028, AmountCents: 100})
	assert.ErrorIs(t, err, services.ErrPermissionDenied)
}

func TestViolationTypes(t *testing.T) {
	env := testutil.NewEnv(t)
	admin := env.CreateBoardMember(t, "Bea", "bea@example.com")

	vt, err := env.Billing().CreateViolationType(admin.ID, services.ViolationTypeInput{Name: " Trash ", RateCents: 1500})
	require.NoError(t, err)
	assert.Equal(t, "Trash", vt.Name)
	assert.True(t, vt.Active)

	_, err = env.Billing().CreateViolationType(admin.ID, services.ViolationTypeInput{Name: "Lawn"})
	assert.ErrorIs(t, err, services.ErrInvalidAmount)
	_, err = env.Billing().CreateViolationType(admin.ID, services.ViolationTypeInput{RateCents: 100})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = env.Billing().UpdateViolationType(admin.ID, 9999, services.ViolationTypeInput{RateCents: 100})
	assert.ErrorIs(t, err, services.ErrRateNotFound)
}
