package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/infrastructure/mail"
	"hoa-http-service/internal/infrastructure/pdf"
	Logger "hoa-http-service/pkg/logger"

	"gorm.io/gorm"
)

// updateVotingRights revokes the voting rights of owners with a past due
// balance and restores them for everyone else
func (r *Runner) updateVotingRights(ctx context.Context, now time.Time) (*services.BatchResult, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Owner{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}

	return services.RunBatch(ctx, r.db, ids, func(tx *gorm.DB, id uint) (services.AfterCommit, error) {
		var owner models.Owner
		if err := tx.First(&owner, id).Error; err != nil {
			return nil, err
		}

		var accounts []models.Account
		if err := tx.Where("owner_id = ?", id).Find(&accounts).Error; err != nil {
			return nil, err
		}
		var owed int64
		for _, a := range accounts {
			pastDue, err := services.PastDueCents(tx, a.ID, a.BalanceCents, now)
			if err != nil {
				return nil, err
			}
			owed += pastDue
		}

		entitled := owed == 0
		if owner.HasVotingRights == entitled {
			return nil, services.ErrSkipped
		}
		if err := tx.Model(&owner).Update("has_voting_rights", entitled).Error; err != nil {
			return nil, err
		}
		Logger.Info("jobs: owner %d voting rights set to %t", id, entitled)
		return nil, nil
	})
}

// sendPastDueReminders messages every account with a past due balance
func (r *Runner) sendPastDueReminders(ctx context.Context, now time.Time) (*services.BatchResult, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Account{}).
		Where("balance_cents > 0").
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}

	return services.RunBatch(ctx, r.db, ids, func(tx *gorm.DB, id uint) (services.AfterCommit, error) {
		var account models.Account
		if err := tx.Preload("Property").First(&account, id).Error; err != nil {
			return nil, err
		}
		pastDue, err := services.PastDueCents(tx, account.ID, account.BalanceCents, now)
		if err != nil {
			return nil, err
		}
		if pastDue == 0 {
			return nil, services.ErrSkipped
		}

		property := account.Property.Address
		if account.Property.Unit != "" {
			property += " #" + account.Property.Unit
		}
		amount := pdf.FormatCents(pastDue)
		recipients := []uint{account.OwnerID}

		body := fmt.Sprintf("Your account for %s has a past due balance of %s. Voting rights are suspended while a balance is past due.", property, amount)
		if _, err := r.messages.SendSystemTx(tx, recipients, "Past due balance reminder", body); err != nil {
			return nil, err
		}

		return func(ctx context.Context) *services.NotificationReport {
			return r.notifier.Notify(ctx, models.CategoryReminders, recipients, mail.TemplatePastDue, map[string]interface{}{
				"property": property,
				"amount":   amount,
			})
		}, nil
	})
}

// issueYearlyAssessments charges the yearly rate of the current year to every
// active account that has not been charged it yet
func (r *Runner) issueYearlyAssessments(ctx context.Context, now time.Time) (*services.BatchResult, error) {
	rate, err := r.billing.YearlyRate(now.Year())
	if err != nil {
		if errors.Is(err, services.ErrRateNotFound) {
			Logger.Warning("jobs: no yearly assessment rate for %d", now.Year())
			return &services.BatchResult{Errors: map[uint]string{}, Notifications: services.NewNotificationReport()}, nil
		}
		return nil, err
	}

	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Account{}).
		Joins("JOIN owner_properties op ON op.owner_id = accounts.owner_id AND op.property_id = accounts.property_id").
		Where("op.purchase_date <= ? AND (op.sell_date IS NULL OR op.sell_date > ?)", now, now).
		Where("NOT EXISTS (SELECT 1 FROM charges c WHERE c.account_id = accounts.id AND c.assessment_rate_id = ?)", rate.ID).
		Distinct().
		Order("accounts.id").
		Pluck("accounts.id", &ids).Error; err != nil {
		return nil, err
	}

	dueDate := models.StartOfDay(now).AddDate(0, 0, r.config.YearlyAssessmentDueDays)
	return services.RunBatch(ctx, r.db, ids, func(tx *gorm.DB, id uint) (services.AfterCommit, error) {
		var existing int64
		if err := tx.Model(&models.Charge{}).
			Where("account_id = ? AND assessment_rate_id = ?", id, rate.ID).
			Count(&existing).Error; err != nil {
			return nil, err
		}
		if existing > 0 {
			return nil, services.ErrSkipped
		}

		rateID := rate.ID
		charge := &models.Charge{
			AccountID:        id,
			Kind:             models.ChargeAssessment,
			AmountCents:      rate.AmountCents,
			Description:      rate.Description,
			DueDate:          dueDate,
			AssessmentRateID: &rateID,
			IssuedBy:         models.SystemOwnerID,
			AssessmentRate:   rate,
		}
		_, notice, err := r.billing.ApplyChargeTx(tx, charge)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) *services.NotificationReport {
			return r.billing.NotifyCharge(ctx, notice)
		}, nil
	})
}
