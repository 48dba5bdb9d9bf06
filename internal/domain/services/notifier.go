package services

import (
	"context"
	"fmt"
	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/infrastructure/mail"
	Logger "hoa-http-service/pkg/logger"

	"gorm.io/gorm"
)

// NotificationReport summarizes one fan-out of emails. Failed maps owner id to
// the delivery error.
type NotificationReport struct {
	Sent    []uint          `json:"sent"`
	Skipped []uint          `json:"skipped"`
	Failed  map[uint]string `json:"failed,omitempty"`
}

// NewNotificationReport returns an empty report
func NewNotificationReport() *NotificationReport {
	return &NotificationReport{Sent: []uint{}, Skipped: []uint{}, Failed: map[uint]string{}}
}

// Merge appends other into r
func (r *NotificationReport) Merge(other *NotificationReport) {
	if other == nil {
		return
	}
	r.Sent = append(r.Sent, other.Sent...)
	r.Skipped = append(r.Skipped, other.Skipped...)
	for id, msg := range other.Failed {
		r.Failed[id] = msg
	}
}

// HasFailures reports whether any delivery failed
func (r *NotificationReport) HasFailures() bool {
	return r != nil && len(r.Failed) > 0
}

// InterfaceNotifier sends templated emails to owners
type InterfaceNotifier interface {
	Notify(ctx context.Context, category models.NotificationCategory, recipients []uint, template string, data map[string]interface{}) *NotificationReport
}

// Notifier sends emails after the caller's transaction has committed
type Notifier struct {
	DB        *gorm.DB
	Mailer    mail.Mailer
	Templates *mail.Templates
}

// NewNotifier creates a new notifier
func NewNotifier(db *gorm.DB, mailer mail.Mailer, templates *mail.Templates) *Notifier {
	return &Notifier{DB: db, Mailer: mailer, Templates: templates}
}

// Notify emails every recipient whose preferences allow category. Unregistered
// owners only have placeholder addresses and are skipped. Critical emails
// ignore preferences.
func (n *Notifier) Notify(ctx context.Context, category models.NotificationCategory, recipients []uint, template string, data map[string]interface{}) *NotificationReport {
	report := NewNotificationReport()
	if len(recipients) == 0 {
		return report
	}

	var owners []models.Owner
	if err := n.DB.WithContext(ctx).Preload("NotificationPreference").
		Where("id IN ?", recipients).Find(&owners).Error; err != nil {
		for _, id := range recipients {
			report.Failed[id] = err.Error()
		}
		Logger.Error("notify %s: load recipients: %v", template, err)
		return report
	}

	byID := make(map[uint]*models.Owner, len(owners))
	for i := range owners {
		byID[owners[i].ID] = &owners[i]
	}

	seen := make(map[uint]bool, len(recipients))
	for _, id := range recipients {
		if seen[id] {
			continue
		}
		seen[id] = true

		owner, ok := byID[id]
		if !ok {
			report.Skipped = append(report.Skipped, id)
			continue
		}
		if category != models.CategoryCritical && !owner.IsRegistered {
			report.Skipped = append(report.Skipped, id)
			continue
		}
		if !owner.NotificationPreference.Allows(category) {
			report.Skipped = append(report.Skipped, id)
			continue
		}

		payload := make(map[string]interface{}, len(data)+1)
		for k, v := range data {
			payload[k] = v
		}
		payload["name"] = owner.FullName()

		email, err := n.Templates.Render(template, owner.Email, payload)
		if err == nil {
			err = n.Mailer.Send(ctx, email)
		}
		if err != nil {
			report.Failed[id] = fmt.Sprintf("%s: %v", owner.Email, err)
			Logger.Warning("notify %s: owner %d: %v", template, id, err)
			continue
		}
		report.Sent = append(report.Sent, id)
	}

	return report
}
