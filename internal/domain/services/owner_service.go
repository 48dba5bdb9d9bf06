package services

import (
	"errors"
	"fmt"
	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/infrastructure/config"
	Logger "hoa-http-service/pkg/logger"
	"hoa-http-service/pkg/utils"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// registrationCodeLength is the length of the one-time code a new owner
// registers with
const registrationCodeLength = 10

// CreateAccountInput describes a new ownership created by the board
type CreateAccountInput struct {
	Address      string    `json:"address" binding:"required"`
	Unit         string    `json:"unit"`
	LotNumber    string    `json:"lot_number"`
	PurchaseDate time.Time `json:"purchase_date" binding:"required"`
}

// ProfileInput holds the editable profile fields. Empty fields are left unchanged.
type ProfileInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// PreferenceInput updates notification flags. Nil flags are left unchanged.
type PreferenceInput struct {
	EmailMessages      *bool `json:"email_messages"`
	EmailAnnouncements *bool `json:"email_announcements"`
	EmailBilling       *bool `json:"email_billing"`
	EmailSurveys       *bool `json:"email_surveys"`
	EmailReminders     *bool `json:"email_reminders"`
}

// InterfaceOwnerService defines the owner service interface
type InterfaceOwnerService interface {
	CreateAccount(actorID uint, input CreateAccountInput) (*models.Account, error)
	GetProfile(ownerID uint) (*models.Owner, error)
	UpdateProfile(ownerID uint, input ProfileInput) (*models.Owner, error)
	UpdateNotificationPreferences(ownerID uint, input PreferenceInput) (*models.NotificationPreference, error)
	ListOwners(query models.PaginationQuery) ([]models.Owner, int64, error)
	RecordSale(actorID, ownerPropertyID uint, sellDate time.Time) (*models.OwnerProperty, error)
	ListAccounts(ownerID uint) ([]models.Account, error)
}

// OwnerService manages owners, properties and accounts
type OwnerService struct {
	DB     *gorm.DB
	Config *config.Config
	Now    Clock
}

// NewOwnerService creates a new owner service
func NewOwnerService(db *gorm.DB, cfg *config.Config, now Clock) InterfaceOwnerService {
	if now == nil {
		now = SystemClock
	}
	return &OwnerService{DB: db, Config: cfg, Now: now}
}

func activeOwnerships(db *gorm.DB, now time.Time) *gorm.DB {
	return db.Where("purchase_date <= ? AND (sell_date IS NULL OR sell_date > ?)", now, now)
}

// activeOwnerIDs returns the owners currently holding propertyID
func activeOwnerIDs(db *gorm.DB, propertyID uint, now time.Time) ([]uint, error) {
	var ids []uint
	err := activeOwnerships(db.Model(&models.OwnerProperty{}), now).
		Where("property_id = ?", propertyID).
		Distinct().
		Pluck("owner_id", &ids).Error
	return ids, err
}

// ownsAccount reports whether ownerID holds accountID
func ownsAccount(db *gorm.DB, ownerID, accountID uint) (*models.Account, error) {
	var account models.Account
	if err := db.Preload("Property").First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if account.OwnerID != ownerID {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func propertyLabel(p *models.Property) string {
	if p == nil {
		return ""
	}
	if p.Unit == "" {
		return p.Address
	}
	return p.Address + " #" + p.Unit
}

// 1 CreateAccount creates the property (or reuses it), a placeholder owner,
// the ownership and a zero balance account in one transaction
func (s *OwnerService) CreateAccount(actorID uint, input CreateAccountInput) (*models.Account, error) {
	if _, err := requireCapability(s.DB, actorID, s.Now(), models.CapChangeMembers); err != nil {
		return nil, err
	}
	address := strings.TrimSpace(input.Address)
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", ErrValidation)
	}
	if input.PurchaseDate.IsZero() {
		return nil, fmt.Errorf("%w: purchase date is required", ErrValidation)
	}

	registrationCode, err := utils.RandomPassword(registrationCodeLength)
	if err != nil {
		return nil, err
	}
	codeHash, err := utils.HashPassword(registrationCode)
	if err != nil {
		return nil, err
	}

	var account models.Account
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		property := models.Property{Address: address, Unit: strings.TrimSpace(input.Unit)}
		if err := tx.Where("address = ? AND unit = ?", property.Address, property.Unit).
			Attrs(models.Property{LotNumber: strings.TrimSpace(input.LotNumber)}).
			FirstOrCreate(&property).Error; err != nil {
			return err
		}

		owner := models.Owner{
			Email:                models.PlaceholderEmail(uuid.NewString()),
			HasVotingRights:      true,
			RegistrationCodeHash: codeHash,
		}
		if err := tx.Create(&owner).Error; err != nil {
			return err
		}
		pref := models.DefaultNotificationPreference(owner.ID)
		if err := tx.Create(&pref).Error; err != nil {
			return err
		}

		ownership := models.OwnerProperty{
			OwnerID:      owner.ID,
			PropertyID:   property.ID,
			PurchaseDate: models.StartOfDay(input.PurchaseDate),
		}
		if err := tx.Create(&ownership).Error; err != nil {
			return err
		}

		account = models.Account{OwnerID: owner.ID, PropertyID: property.ID}
		if err := tx.Create(&account).Error; err != nil {
			return err
		}
		account.Owner = &owner
		account.Property = &property
		account.RegistrationCode = registrationCode
		return nil
	})
	if err != nil {
		return nil, err
	}

	Logger.Info("owners: account %d created for %s by owner %d", account.ID, propertyLabel(account.Property), actorID)
	return &account, nil
}

// 2 GetProfile returns the owner with preferences and ownerships
func (s *OwnerService) GetProfile(ownerID uint) (*models.Owner, error) {
	var owner models.Owner
	err := s.DB.Preload("NotificationPreference").
		Preload("Ownerships.Property").
		First(&owner, ownerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}
	return &owner, nil
}

// 3 UpdateProfile changes name, phone and email
func (s *OwnerService) UpdateProfile(ownerID uint, input ProfileInput) (*models.Owner, error) {
	owner, err := s.GetProfile(ownerID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if v := strings.TrimSpace(input.FirstName); v != "" {
		updates["first_name"] = v
	}
	if v := strings.TrimSpace(input.LastName); v != "" {
		updates["last_name"] = v
	}
	if v := strings.TrimSpace(input.Phone); v != "" {
		updates["phone"] = v
	}
	if email := normalizeEmail(input.Email); email != "" && email != owner.Email {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		var taken int64
		if err := s.DB.Model(&models.Owner{}).Where("email = ? AND id <> ?", email, ownerID).Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, ErrOwnerAlreadyExists
		}
		updates["email"] = email
	}

	if len(updates) > 0 {
		if err := s.DB.Model(&models.Owner{}).Where("id = ?", ownerID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.GetProfile(ownerID)
}

// 4 UpdateNotificationPreferences sets the given flags, creating the row when missing
func (s *OwnerService) UpdateNotificationPreferences(ownerID uint, input PreferenceInput) (*models.NotificationPreference, error) {
	if _, err := s.GetProfile(ownerID); err != nil {
		return nil, err
	}

	var pref models.NotificationPreference
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("owner_id = ?", ownerID).First(&pref).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			pref = models.DefaultNotificationPreference(ownerID)
		} else if err != nil {
			return err
		}

		if input.EmailMessages != nil {
			pref.EmailMessages = *input.EmailMessages
		}
		if input.EmailAnnouncements != nil {
			pref.EmailAnnouncements = *input.EmailAnnouncements
		}
		if input.EmailBilling != nil {
			pref.EmailBilling = *input.EmailBilling
		}
		if input.EmailSurveys != nil {
			pref.EmailSurveys = *input.EmailSurveys
		}
		if input.EmailReminders != nil {
			pref.EmailReminders = *input.EmailReminders
		}
		return tx.Save(&pref).Error
	})
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// 5 ListOwners pages through owners, optionally filtered by name or email
func (s *OwnerService) ListOwners(query models.PaginationQuery) ([]models.Owner, int64, error) {
	query.Normalize()

	db := s.DB.Model(&models.Owner{})
	if search := strings.TrimSpace(query.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		db = db.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var owners []models.Owner
	if err := db.Preload("Ownerships.Property").
		Order("id").
		Offset(query.Offset()).
		Limit(query.PageSize).
		Find(&owners).Error; err != nil {
		return nil, 0, err
	}
	return owners, total, nil
}

// 6 RecordSale ends an ownership on sellDate
func (s *OwnerService) RecordSale(actorID, ownerPropertyID uint, sellDate time.Time) (*models.OwnerProperty, error) {
	if _, err := requireCapability(s.DB, actorID, s.Now(), models.CapChangeMembers); err != nil {
		return nil, err
	}

	var ownership models.OwnerProperty
	if err := s.DB.Preload("Property").First(&ownership, ownerPropertyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: ownership %d", ErrRecordNotFound, ownerPropertyID)
		}
		return nil, err
	}
	if ownership.SellDate != nil {
		return nil, fmt.Errorf("%w: ownership already ended", ErrValidation)
	}
	sold := models.StartOfDay(sellDate)
	if sold.Before(ownership.PurchaseDate) {
		return nil, fmt.Errorf("%w: sell date precedes purchase date", ErrValidation)
	}

	if err := s.DB.Model(&ownership).Update("sell_date", sold).Error; err != nil {
		return nil, err
	}
	ownership.SellDate = &sold

	Logger.Info("owners: ownership %d sold on %s", ownership.ID, sold.Format("2006-01-02"))
	return &ownership, nil
}

// 7 ListAccounts returns the accounts of ownerID with their properties
func (s *OwnerService) ListAccounts(ownerID uint) ([]models.Account, error) {
	var accounts []models.Account
	if err := s.DB.Preload("Property").
		Where("owner_id = ?", ownerID).
		Order("id").
		Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}
