package models

import "fmt"

// SystemOwnerID is the issuer of charges created by jobs. It never belongs to an
// owner row and is never a message recipient.
const SystemOwnerID uint = 999999999

// PlaceholderEmailDomain marks owners created before their identity is known.
const PlaceholderEmailDomain = "placeholder.local"

// Owner represents a homeowner
type Owner struct {
	BaseModel
	FirstName           string `gorm:"type:varchar(50)" json:"first_name"`
	LastName            string `gorm:"type:varchar(50)" json:"last_name"`
	Email               string `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Phone               string `gorm:"type:varchar(20)" json:"phone"`
	Password            string `gorm:"type:varchar(100)" json:"-"`
	IsTemporaryPassword bool   `gorm:"default:false" json:"is_temporary_password"`
	IsRegistered        bool   `gorm:"default:false" json:"is_registered"`
	HasVotingRights     bool   `json:"has_voting_rights"`
	// RegistrationCodeHash is cleared once the owner registers.
	RegistrationCodeHash string `gorm:"type:varchar(100)" json:"-"`

	NotificationPreference *NotificationPreference `gorm:"foreignKey:OwnerID" json:"notification_preference,omitempty"`
	Ownerships             []OwnerProperty         `gorm:"foreignKey:OwnerID" json:"ownerships,omitempty"`
}

// FullName returns "First Last", or the email for placeholders
func (o *Owner) FullName() string {
	if o.FirstName == "" && o.LastName == "" {
		return o.Email
	}
	if o.LastName == "" {
		return o.FirstName
	}
	return o.FirstName + " " + o.LastName
}

// PlaceholderEmail returns the unique email stored on a placeholder owner
func PlaceholderEmail(seed string) string {
	return fmt.Sprintf("pending+%s@%s", seed, PlaceholderEmailDomain)
}

// NotificationCategory selects the preference flag a notification is gated by
type NotificationCategory string

const (
	CategoryMessages      NotificationCategory = "messages"
	CategoryAnnouncements NotificationCategory = "announcements"
	CategoryBilling       NotificationCategory = "billing"
	CategorySurveys       NotificationCategory = "surveys"
	CategoryReminders     NotificationCategory = "reminders"
	// CategoryCritical bypasses preferences (password reset).
	CategoryCritical NotificationCategory = "critical"
)

// NotificationPreference holds one email flag per category
type NotificationPreference struct {
	BaseModel
	OwnerID            uint `gorm:"uniqueIndex;not null" json:"owner_id"`
	EmailMessages      bool `json:"email_messages"`
	EmailAnnouncements bool `json:"email_announcements"`
	EmailBilling       bool `json:"email_billing"`
	EmailSurveys       bool `json:"email_surveys"`
	EmailReminders     bool `json:"email_reminders"`
}

// DefaultNotificationPreference opts an owner into every category
func DefaultNotificationPreference(ownerID uint) NotificationPreference {
	return NotificationPreference{
		OwnerID:            ownerID,
		EmailMessages:      true,
		EmailAnnouncements: true,
		EmailBilling:       true,
		EmailSurveys:       true,
		EmailReminders:     true,
	}
}

// Allows reports whether an email of category may be sent. A nil preference
// allows everything.
func (p *NotificationPreference) Allows(category NotificationCategory) bool {
	if category == CategoryCritical || p == nil {
		return true
	}
	switch category {
	case CategoryMessages:
		return p.EmailMessages
	case CategoryAnnouncements:
		return p.EmailAnnouncements
	case CategoryBilling:
		return p.EmailBilling
	case CategorySurveys:
		return p.EmailSurveys
	case CategoryReminders:
		return p.EmailReminders
	default:
		return false
	}
}
