package services

import (
	"context"
	"errors"
	"fmt"
	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/infrastructure/config"
	"hoa-http-service/internal/infrastructure/mail"
	"hoa-http-service/internal/infrastructure/pdf"
	Logger "hoa-http-service/pkg/logger"
	"hoa-http-service/pkg/utils"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultDueDays is used when a charge is issued without a due date
const DefaultDueDays = 30

// ViolationInput issues a fine
type ViolationInput struct {
	AccountID       uint      `json:"account_id" binding:"required"`
	ViolationTypeID uint      `json:"violation_type_id" binding:"required"`
	Description     string    `json:"description"`
	DueDate         time.Time `json:"due_date"`
}

// AssessmentInput issues an assessment
type AssessmentInput struct {
	AccountID        uint      `json:"account_id" binding:"required"`
	AssessmentRateID uint      `json:"assessment_rate_id" binding:"required"`
	DueDate          time.Time `json:"due_date"`
}

// CardInput is a card entered at payment time. The number is never stored.
type CardInput struct {
	Number     string `json:"number"`
	HolderName string `json:"holder_name"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
}

// PaymentInput pays an account with a new card or a stored one
type PaymentInput struct {
	AccountID   uint       `json:"account_id" binding:"required"`
	AmountCents int64      `json:"amount_cents" binding:"required"`
	CardID      *uint      `json:"card_id"`
	Card        *CardInput `json:"card"`
}

// ViolationTypeInput creates or updates a violation type
type ViolationTypeInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	RateCents   int64  `json:"rate_cents"`
	Active      *bool  `json:"active"`
}

// AssessmentRateInput creates or updates an assessment rate
type AssessmentRateInput struct {
	Year        int    `json:"year"`
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	IsYearly    bool   `json:"is_yearly"`
}

// ChargeNotice is what is emailed once a charge transaction commits
type ChargeNotice struct {
	Recipients []uint
	Template   string
	Data       map[string]interface{}
}

// ChargeResult is returned when a charge is issued
type ChargeResult struct {
	Charge        *models.Charge      `json:"charge"`
	Message       *models.Message     `json:"message"`
	Notifications *NotificationReport `json:"-"`
}

// AccountDetail is an account with its current ownership and totals
type AccountDetail struct {
	models.Account
	OwnerName     string     `json:"owner_name"`
	PastDueCents  int64      `json:"past_due_cents"`
	ChargeCount   int64      `json:"charge_count"`
	PaymentCount  int64      `json:"payment_count"`
	LastPaymentAt *time.Time `json:"last_payment_at,omitempty"`
}

// InterfaceBillingService defines the billing interface
type InterfaceBillingService interface {
	IssueViolation(ctx context.Context, actorID uint, input ViolationInput) (*ChargeResult, error)
	IssueAssessment(ctx context.Context, actorID uint, input AssessmentInput) (*ChargeResult, error)
	ApplyChargeTx(tx *gorm.DB, charge *models.Charge) (*models.Message, *ChargeNotice, error)
	NotifyCharge(ctx context.Context, notice *ChargeNotice) *NotificationReport
	MakePayment(ownerID uint, input PaymentInput) (*models.Payment, error)
	Receipt(ownerID, paymentID uint) ([]byte, *models.Payment, error)
	GetAccount(ownerID, accountID uint) (*AccountDetail, error)
	ListCharges(ownerID, accountID uint, query models.PaginationQuery) ([]models.Charge, int64, error)
	ListPayments(ownerID, accountID uint, query models.PaginationQuery) ([]models.Payment, int64, error)
	ListCards(ownerID, accountID uint) ([]models.CreditCard, error)
	ListViolationTypes(activeOnly bool) ([]models.ViolationType, error)
	CreateViolationType(actorID uint, input ViolationTypeInput) (*models.ViolationType, error)
	UpdateViolationType(actorID, id uint, input ViolationTypeInput) (*models.ViolationType, error)
	ListAssessmentRates(year int) ([]models.AssessmentRate, error)
	CreateAssessmentRate(actorID uint, input AssessmentRateInput) (*models.AssessmentRate, error)
	UpdateAssessmentRate(actorID, id uint, input AssessmentRateInput) (*models.AssessmentRate, error)
	YearlyRate(year int) (*models.AssessmentRate, error)
}

// BillingService issues charges and records payments
type BillingService struct {
	DB       *gorm.DB
	Config   *config.Config
	Messages InterfaceMessageService
	Notifier InterfaceNotifier
	Now      Clock
}

// NewBillingService creates a new billing service
func NewBillingService(db *gorm.DB, cfg *config.Config, messages InterfaceMessageService, notifier InterfaceNotifier, now Clock) InterfaceBillingService {
	if now == nil {
		now = SystemClock
	}
	return &BillingService{DB: db, Config: cfg, Messages: messages, Notifier: notifier, Now: now}
}

func (s *BillingService) dueDateOr(due time.Time) time.Time {
	if due.IsZero() {
		return models.StartOfDay(s.Now()).AddDate(0, 0, DefaultDueDays)
	}
	return models.StartOfDay(due)
}

// accessAccount loads accountID for its owner or for any board member
func (s *BillingService) accessAccount(db *gorm.DB, ownerID, accountID uint) (*models.Account, error) {
	account, err := ownsAccount(db, ownerID, accountID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}
	if _, roleErr := loadActiveRole(db, ownerID, s.Now()); roleErr != nil {
		return nil, err
	}

	var other models.Account
	if err := db.Preload("Property").First(&other, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &other, nil
}

// 1 IssueViolation fines an account at the rate of the violation type
func (s *BillingService) IssueViolation(ctx context.Context, actorID uint, input ViolationInput) (*ChargeResult, error) {
	if _, err := requireCapability(s.DB, actorID, s.Now(), models.CapAssessFines); err != nil {
		return nil, err
	}

	var violationType models.ViolationType
	if err := s.DB.First(&violationType, input.ViolationTypeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRateNotFound
		}
		return nil, err
	}
	if !violationType.Active {
		return nil, fmt.Errorf("%w: violation type is inactive", ErrValidation)
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = violationType.Description
	}
	typeID := violationType.ID
	charge := &models.Charge{
		AccountID:       input.AccountID,
		Kind:            models.ChargeViolation,
		AmountCents:     violationType.RateCents,
		Description:     description,
		DueDate:         s.dueDateOr(input.DueDate),
		ViolationTypeID: &typeID,
		IssuedBy:        actorID,
		ViolationType:   &violationType,
	}
	return s.issue(ctx, charge)
}

// 2 IssueAssessment charges an account the amount of an assessment rate
func (s *BillingService) IssueAssessment(ctx context.Context, actorID uint, input AssessmentInput) (*ChargeResult, error) {
	if _, err := requireCapability(s.DB, actorID, s.Now(), models.CapAssessFines); err != nil {
		return nil, err
	}

	var rate models.AssessmentRate
	if err := s.DB.First(&rate, input.AssessmentRateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRateNotFound
		}
		return nil, err
	}

	rateID := rate.ID
	charge := &models.Charge{
		AccountID:        input.AccountID,
		Kind:             models.ChargeAssessment,
		AmountCents:      rate.AmountCents,
		Description:      rate.Description,
		DueDate:          s.dueDateOr(input.DueDate),
		AssessmentRateID: &rateID,
		IssuedBy:         actorID,
		AssessmentRate:   &rate,
	}
	return s.issue(ctx, charge)
}

func (s *BillingService) issue(ctx context.Context, charge *models.Charge) (*ChargeResult, error) {
	var (
		msg    *models.Message
		notice *ChargeNotice
	)
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		msg, notice, err = s.ApplyChargeTx(tx, charge)
		return err
	})
	if err != nil {
		return nil, err
	}

	Logger.Info("billing: %s charge %d of %s on account %d", charge.Kind, charge.ID, pdf.FormatCents(charge.AmountCents), charge.AccountID)
	return &ChargeResult{
		Charge:        charge,
		Message:       msg,
		Notifications: s.NotifyCharge(ctx, notice),
	}, nil
}

// 3 ApplyChargeTx inserts the charge, raises the balance by its amount and
// sends a system message to the active owners of the account, all inside tx
func (s *BillingService) ApplyChargeTx(tx *gorm.DB, charge *models.Charge) (*models.Message, *ChargeNotice, error) {
	if charge.AmountCents <= 0 {
		return nil, nil, ErrInvalidAmount
	}

	var account models.Account
	if err := tx.Preload("Property").First(&account, charge.AccountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, err
	}

	if err := tx.Omit("ViolationType", "AssessmentRate").Create(charge).Error; err != nil {
		return nil, nil, err
	}
	if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).
		UpdateColumn("balance_cents", gorm.Expr("balance_cents + ?", charge.AmountCents)).Error; err != nil {
		return nil, nil, err
	}

	recipients, err := activeOwnerIDs(tx, account.PropertyID, s.Now())
	if err != nil {
		return nil, nil, err
	}
	if len(recipients) == 0 {
		recipients = []uint{account.OwnerID}
	}

	property := propertyLabel(account.Property)
	amount := pdf.FormatCents(charge.AmountCents)
	dueDate := charge.DueDate.Format("January 2, 2006")

	notice := &ChargeNotice{Recipients: recipients}
	var subject, body string
	switch charge.Kind {
	case models.ChargeViolation:
		name := "Violation"
		if charge.ViolationType != nil {
			name = charge.ViolationType.Name
		}
		subject = "Violation notice: " + name
		body = fmt.Sprintf("A violation (%s) was recorded for %s. A fine of %s is due %s.", name, property, amount, dueDate)
		if charge.Description != "" {
			body += "\n\n" + charge.Description
		}
		notice.Template = mail.TemplateViolation
		notice.Data = map[string]interface{}{
			"violationName": name,
			"description":   charge.Description,
			"property":      property,
			"amount":        amount,
			"dueDate":       dueDate,
		}
	default:
		subject = "New assessment: " + charge.Description
		body = fmt.Sprintf("An assessment (%s) of %s was issued for %s, due %s.", charge.Description, amount, property, dueDate)
		notice.Template = mail.TemplateAssessment
		notice.Data = map[string]interface{}{
			"description": charge.Description,
			"property":    property,
			"amount":      amount,
			"dueDate":     dueDate,
		}
	}

	msg, err := s.Messages.SendSystemTx(tx, recipients, subject, body)
	if err != nil {
		return nil, nil, err
	}
	return msg, notice, nil
}

// 4 NotifyCharge emails a committed charge to its recipients
func (s *BillingService) NotifyCharge(ctx context.Context, notice *ChargeNotice) *NotificationReport {
	if notice == nil {
		return NewNotificationReport()
	}
	return s.Notifier.Notify(ctx, models.CategoryBilling, notice.Recipients, notice.Template, notice.Data)
}

// 5 MakePayment charges a card and lowers the balance
func (s *BillingService) MakePayment(ownerID uint, input PaymentInput) (*models.Payment, error) {
	if input.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if input.CardID == nil && input.Card == nil {
		return nil, fmt.Errorf("%w: a card is required", ErrValidation)
	}

	now := s.Now()
	var payment models.Payment
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		account, err := ownsAccount(tx, ownerID, input.AccountID)
		if err != nil {
			return err
		}

		var card models.CreditCard
		if input.CardID != nil {
			if err := tx.Where("id = ? AND account_id = ?", *input.CardID, account.ID).First(&card).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCardNotFound
				}
				return err
			}
		} else {
			stored, err := storeCard(tx, account.ID, *input.Card, now)
			if err != nil {
				return err
			}
			card = *stored
		}

		payment = models.Payment{
			AccountID:     account.ID,
			CreditCardID:  card.ID,
			PaidBy:        ownerID,
			AmountCents:   input.AmountCents,
			ReceiptNumber: receiptNumber(now),
			PaidAt:        now,
		}
		if err := tx.Omit("CreditCard", "Account").Create(&payment).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Account{}).Where("id = ?", account.ID).
			UpdateColumn("balance_cents", gorm.Expr("balance_cents - ?", input.AmountCents)).Error; err != nil {
			return err
		}
		payment.CreditCard = &card
		return nil
	})
	if err != nil {
		return nil, err
	}

	Logger.Info("billing: payment %s of %s on account %d", payment.ReceiptNumber, pdf.FormatCents(payment.AmountCents), payment.AccountID)
	return &payment, nil
}

func receiptNumber(now time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("R-%s-%s", now.Format("20060102"), id[:10])
}

// storeCard returns the card of account with the same number, creating it when new
func storeCard(tx *gorm.DB, accountID uint, input CardInput, now time.Time) (*models.CreditCard, error) {
	number := utils.NormalizeCardNumber(input.Number)
	if len(number) < 12 || len(number) > 19 {
		return nil, fmt.Errorf("%w: invalid card number", ErrValidation)
	}
	if input.ExpMonth < 1 || input.ExpMonth > 12 {
		return nil, fmt.Errorf("%w: invalid card expiry", ErrValidation)
	}
	expires := time.Date(input.ExpYear, time.Month(input.ExpMonth)+1, 1, 0, 0, 0, 0, now.Location())
	if !expires.After(now) {
		return nil, fmt.Errorf("%w: card is expired", ErrValidation)
	}

	card := models.CreditCard{AccountID: accountID, CardHash: utils.HashCardNumber(number)}
	err := tx.Where("account_id = ? AND card_hash = ?", card.AccountID, card.CardHash).First(&card).Error
	if err == nil {
		if err := tx.Model(&card).Updates(map[string]interface{}{
			"holder_name": strings.TrimSpace(input.HolderName),
			"exp_month":   input.ExpMonth,
			"exp_year":    input.ExpYear,
		}).Error; err != nil {
			return nil, err
		}
		return &card, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	card.LastFour = utils.LastFour(number)
	card.HolderName = strings.TrimSpace(input.HolderName)
	card.ExpMonth = input.ExpMonth
	card.ExpYear = input.ExpYear
	if err := tx.Create(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// 6 Receipt renders the PDF receipt of a payment
func (s *BillingService) Receipt(ownerID, paymentID uint) ([]byte, *models.Payment, error) {
	var payment models.Payment
	if err := s.DB.Preload("CreditCard").First(&payment, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPaymentNotFound
		}
		return nil, nil, err
	}

	account, err := s.accessAccount(s.DB, ownerID, payment.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, nil, ErrPaymentNotFound
		}
		return nil, nil, err
	}

	var payer models.Owner
	if err := s.DB.First(&payer, account.OwnerID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	receipt := pdf.Receipt{
		AssociationName: s.Config.AssociationName,
		ReceiptNumber:   payment.ReceiptNumber,
		PaidAt:          payment.PaidAt,
		OwnerName:       payer.FullName(),
		PropertyAddress: propertyLabel(account.Property),
		AccountID:       account.ID,
		AmountCents:     payment.AmountCents,
		BalanceCents:    account.BalanceCents,
	}
	if payment.CreditCard != nil {
		receipt.CardLastFour = payment.CreditCard.LastFour
	}

	data, err := pdf.RenderReceipt(receipt)
	if err != nil {
		return nil, nil, err
	}
	return data, &payment, nil
}

// 7 GetAccount returns an account with its past due amount
func (s *BillingService) GetAccount(ownerID, accountID uint) (*AccountDetail, error) {
	account, err := s.accessAccount(s.DB, ownerID, accountID)
	if err != nil {
		return nil, err
	}

	detail := &AccountDetail{Account: *account}

	var owner models.Owner
	if err := s.DB.First(&owner, account.OwnerID).Error; err == nil {
		detail.OwnerName = owner.FullName()
	}

	if err := s.DB.Model(&models.Charge{}).Where("account_id = ?", account.ID).Count(&detail.ChargeCount).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.Payment{}).Where("account_id = ?", account.ID).Count(&detail.PaymentCount).Error; err != nil {
		return nil, err
	}

	var last models.Payment
	if err := s.DB.Where("account_id = ?", account.ID).Order("paid_at DESC").First(&last).Error; err == nil {
		detail.LastPaymentAt = &last.PaidAt
	}

	pastDue, err := PastDueCents(s.DB, account.ID, account.BalanceCents, s.Now())
	if err != nil {
		return nil, err
	}
	detail.PastDueCents = pastDue
	return detail, nil
}

// PastDueCents is the part of balance that is covered by charges due before
// now. Payments settle the oldest charges first.
func PastDueCents(db *gorm.DB, accountID uint, balance int64, now time.Time) (int64, error) {
	if balance <= 0 {
		return 0, nil
	}

	var notYetDue int64
	if err := db.Model(&models.Charge{}).
		Where("account_id = ? AND due_date >= ?", accountID, models.StartOfDay(now)).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&notYetDue).Error; err != nil {
		return 0, err
	}

	pastDue := balance - notYetDue
	if pastDue < 0 {
		return 0, nil
	}
	return pastDue, nil
}

// 8 ListCharges pages through the charges of an account, newest first
func (s *BillingService) ListCharges(ownerID, accountID uint, query models.PaginationQuery) ([]models.Charge, int64, error) {
	if _, err := s.accessAccount(s.DB, ownerID, accountID); err != nil {
		return nil, 0, err
	}
	query.Normalize()

	var total int64
	if err := s.DB.Model(&models.Charge{}).Where("account_id = ?", accountID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var charges []models.Charge
	if err := s.DB.Preload("ViolationType").Preload("AssessmentRate").
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Offset(query.Offset()).
		Limit(query.PageSize).
		Find(&charges).Error; err != nil {
		return nil, 0, err
	}
	return charges, total, nil
}

// 9 ListPayments pages through the payments of an account, newest first
func (s *BillingService) ListPayments(ownerID, accountID uint, query models.PaginationQuery) ([]models.Payment, int64, error) {
	if _, err := s.accessAccount(s.DB, ownerID, accountID); err != nil {
		return nil, 0, err
	}
	query.Normalize()

	var total int64
	if err := s.DB.Model(&models.Payment{}).Where("account_id = ?", accountID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []models.Payment
	if err := s.DB.Preload("CreditCard").
		Where("account_id = ?", accountID).
		Order("paid_at DESC, id DESC").
		Offset(query.Offset()).
		Limit(query.PageSize).
		Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// 10 ListCards returns the stored cards of an account
func (s *BillingService) ListCards(ownerID, accountID uint) ([]models.CreditCard, error) {
	if _, err := ownsAccount(s.DB, ownerID, accountID); err != nil {
		return nil, err
	}

	var cards []models.CreditCard
	if err := s.DB.Where("account_id = ?", accountID).Order("id").Find(&cards).Error; err != nil {
		return nil, err
	}
	return cards, nil
}

// 11 ListViolationTypes returns the violation types by name
func (s *BillingService) ListViolationTypes(activeOnly bool) ([]models.ViolationType, error) {
	db := s.DB.Order("name")
	if activeOnly {
		db = db.Where("active = ?", true)
	}

	var types []models.ViolationType
	if err := db.Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// 12 CreateViolationType adds a violation type
func (s *BillingService) CreateViolationType(actorID uint, input ViolationTypeInput) (*models.ViolationType, error) {
	if _, err := requireCapability(s.DB, actorID, s.Now(), models.CapChangeRates); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if input.RateCents <= 0 {
		return nil, ErrInvalidAmount
	}

	vt := models.ViolationType{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		RateCents:   input.RateCents,
		Active:      input.Active == nil || *input.Active,
	}
	if err := s.DB.Create(&vt).Error; err != nil {
		return nil, err
	}
	return &vt, nil
}

// 13 UpdateViolationType changes a violation type. Existing charges keep their amounts.
func (s *BillingService) UpdateViolationType(actorID, id uint, input ViolationTypeInput) (*models.ViolationType, error) {
	if _, err := requireCapability(s.DB, actorID, s.Now(), models.CapChangeRates); err != nil {
		return nil, err
	}

	var vt models.ViolationType
	if err := s.DB.First(&vt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRateNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if name := strings.TrimSpace(input.Name); name != "" {
		updates["name"] = name
	}
	if input.Description != "" {
		updates["description"] = strings.TrimSpace(input.Description)
	}
	if input.RateCents < 0 {
		return nil, ErrInvalidAmount
	}
	if input.RateCents > 0 {
		updates["rate_cents"] = input.RateCents
	}
	if input.Active != nil {
		updates["active"] = *input.Active
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&vt).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &vt, nil
}

// 14 ListAssessmentRates returns the rates of year, or every rate when year is 0
func (s *BillingService) ListAssessmentRates(year int) ([]models.AssessmentRate, error) {
	db := s.DB.Order("year DESC, id")
	if year > 0 {
		db = db.Where("year = ?", year)
	}

	var rates []models.AssessmentRate
	if err := db.Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

// ensureSingleYearly fails when year already has a yearly rate other than exceptID
func ensureSingleYearly(tx *gorm.DB, year int, exceptID uint) error {
	var count int64
	if err := tx.Model(&models.AssessmentRate{}).
		Where("year = ? AND is_yearly = ? AND id <> ?", year, true, exceptID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrYearlyRateExists
	}
	return nil
}

// 15 CreateAssessmentRate adds a rate. A year has at most one yearly rate.
func (s *BillingService) CreateAssessmentRate(actorID uint, input AssessmentRateInput) (*models.AssessmentRate, error) {
	if _, err := requireCapability(s.DB, actorID, s.Now(), models.CapChangeRates); err != nil {
		return nil, err
	}
	if input.Year < 2000 || input.Year > 2200 {
		return nil, fmt.Errorf("%w: invalid year", ErrValidation)
	}
	if input.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	rate := models.AssessmentRate{
		Year:        input.Year,
		Description: strings.TrimSpace(input.Description),
		AmountCents: input.AmountCents,
		IsYearly:    input.IsYearly,
	}
	if rate.Description == "" {
		rate.Description = fmt.Sprintf("%d assessment", input.Year)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if rate.IsYearly {
			if err := ensureSingleYearly(tx, rate.Year, 0); err != nil {
				return err
			}
		}
		return tx.Create(&rate).Error
	})
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// 16 UpdateAssessmentRate changes a rate. Existing charges keep their amounts.
func (s *BillingService) UpdateAssessmentRate(actorID, id uint, input AssessmentRateInput) (*models.AssessmentRate, error) {
	if _, err := requireCapability(s.DB, actorID, s.Now(), models.CapChangeRates); err != nil {
		return nil, err
	}
	if input.AmountCents < 0 {
		return nil, ErrInvalidAmount
	}

	var rate models.AssessmentRate
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rate, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRateNotFound
			}
			return err
		}

		if input.Year > 0 {
			rate.Year = input.Year
		}
		if d := strings.TrimSpace(input.Description); d != "" {
			rate.Description = d
		}
		if input.AmountCents > 0 {
			rate.AmountCents = input.AmountCents
		}
		rate.IsYearly = input.IsYearly

		if rate.IsYearly {
			if err := ensureSingleYearly(tx, rate.Year, rate.ID); err != nil {
				return err
			}
		}
		return tx.Save(&rate).Error
	})
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// 17 YearlyRate returns the yearly rate of year
func (s *BillingService) YearlyRate(year int) (*models.AssessmentRate, error) {
	var rate models.AssessmentRate
	if err := s.DB.Where("year = ? AND is_yearly = ?", year, true).First(&rate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRateNotFound
		}
		return nil, err
	}
	return &rate, nil
}
