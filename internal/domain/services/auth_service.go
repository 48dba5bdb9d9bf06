package services

import (
	"context"
	"errors"
	"fmt"
	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/infrastructure/config"
	"hoa-http-service/internal/infrastructure/mail"
	Logger "hoa-http-service/pkg/logger"
	"hoa-http-service/pkg/utils"
	netmail "net/mail"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"
)

// MinPasswordLength is the shortest password accepted on register and change
const MinPasswordLength = 8

// temporaryPasswordLength is the length of generated reset passwords
const temporaryPasswordLength = 12

// LoginResult is returned by every operation that issues a token
type LoginResult struct {
	Token               string    `json:"token"`
	ExpiresAt           time.Time `json:"expires_at"`
	OwnerID             uint      `json:"owner_id"`
	Role                string    `json:"role"`
	IsTemporaryPassword bool      `json:"is_temporary_password"`
	Name                string    `json:"name"`
}

// RegisterInput completes a placeholder owner
type RegisterInput struct {
	AccountID uint `json:"account_id" binding:"required"`
	// RegistrationCode is handed out by the board when the account is created.
	RegistrationCode string `json:"registration_code" binding:"required"`
	Email            string `json:"email" binding:"required"`
	Password         string `json:"password" binding:"required"`
	FirstName        string `json:"first_name" binding:"required"`
	LastName         string `json:"last_name" binding:"required"`
	Phone            string `json:"phone"`
}

// InterfaceAuthService defines the authentication interface
type InterfaceAuthService interface {
	Login(email, password string) (*LoginResult, error)
	Refresh(token string) (*LoginResult, error)
	Register(input RegisterInput) (*LoginResult, error)
	ChangePassword(ownerID uint, current, next string) (*LoginResult, error)
	ForgotPassword(ctx context.Context, email string)
	ResetPassword(ctx context.Context, email string) (*NotificationReport, error)
	Wait()
}

// AuthService authenticates owners
type AuthService struct {
	DB       *gorm.DB
	Config   *config.Config
	JWT      InterfaceJWTService
	Notifier InterfaceNotifier
	Throttle Throttle
	Now      Clock

	resets sync.WaitGroup
}

// NewAuthService creates a new authentication service
func NewAuthService(db *gorm.DB, cfg *config.Config, jwtService InterfaceJWTService, notifier InterfaceNotifier, throttle Throttle, now Clock) InterfaceAuthService {
	if now == nil {
		now = SystemClock
	}
	return &AuthService{
		DB:       db,
		Config:   cfg,
		JWT:      jwtService,
		Notifier: notifier,
		Throttle: throttle,
		Now:      now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if _, err := netmail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if strings.HasSuffix(email, "@"+models.PlaceholderEmailDomain) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}
	return nil
}

// issue signs a token for owner with the role it holds right now
func (s *AuthService) issue(owner *models.Owner) (*LoginResult, error) {
	role := RoleResident
	if _, err := loadActiveRole(s.DB, owner.ID, s.Now()); err == nil {
		role = RoleBoardMember
	} else if !errors.Is(err, ErrNoActiveRole) {
		return nil, err
	}

	token, expiresAt, err := s.JWT.GenerateToken(owner.ID, role, owner.IsTemporaryPassword)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:               token,
		ExpiresAt:           expiresAt,
		OwnerID:             owner.ID,
		Role:                role,
		IsTemporaryPassword: owner.IsTemporaryPassword,
		Name:                owner.FullName(),
	}, nil
}

// 1 Login checks the password and issues a token. Unknown emails and wrong
// passwords return the same error.
func (s *AuthService) Login(email, password string) (*LoginResult, error) {
	var owner models.Owner
	if err := s.DB.Where("email = ?", normalizeEmail(email)).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !owner.IsRegistered || owner.Password == "" || !utils.CheckPasswordHash(password, owner.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issue(&owner)
}

// 2 Refresh re-signs a token that expired within the refresh window
func (s *AuthService) Refresh(token string) (*LoginResult, error) {
	claims, err := s.JWT.ExtractRefreshClaims(token)
	if err != nil {
		return nil, err
	}

	var owner models.Owner
	if err := s.DB.First(&owner, claims.OwnerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}

	return s.issue(&owner)
}

// 3 Register completes the placeholder owner of an account
func (s *AuthService) Register(input RegisterInput) (*LoginResult, error) {
	email := normalizeEmail(input.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrValidation)
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	var owner models.Owner
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.First(&account, input.AccountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		if err := tx.First(&owner, account.OwnerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOwnerNotFound
			}
			return err
		}
		if owner.RegistrationCodeHash == "" || !utils.CheckPasswordHash(input.RegistrationCode, owner.RegistrationCodeHash) {
			return ErrInvalidRegistrationCode
		}
		if owner.IsRegistered {
			return ErrAlreadyRegistered
		}

		var taken int64
		if err := tx.Model(&models.Owner{}).Where("email = ? AND id <> ?", email, owner.ID).Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return ErrOwnerAlreadyExists
		}

		owner.Email = email
		owner.Password = hash
		owner.FirstName = strings.TrimSpace(input.FirstName)
		owner.LastName = strings.TrimSpace(input.LastName)
		owner.Phone = strings.TrimSpace(input.Phone)
		owner.IsRegistered = true
		owner.IsTemporaryPassword = false
		owner.RegistrationCodeHash = ""
		return tx.Save(&owner).Error
	})
	if err != nil {
		return nil, err
	}

	Logger.Info("auth: owner %d registered on account %d", owner.ID, input.AccountID)
	return s.issue(&owner)
}

// 4 ChangePassword replaces the password and clears the temporary flag
func (s *AuthService) ChangePassword(ownerID uint, current, next string) (*LoginResult, error) {
	if err := validatePassword(next); err != nil {
		return nil, err
	}

	var owner models.Owner
	if err := s.DB.First(&owner, ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(current, owner.Password) {
		return nil, ErrInvalidCredentials
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Model(&owner).Updates(map[string]interface{}{
		"password":              hash,
		"is_temporary_password": false,
	}).Error; err != nil {
		return nil, err
	}
	owner.IsTemporaryPassword = false

	return s.issue(&owner)
}

// 5 ForgotPassword starts a password reset in the background and returns at
// once, so known and unknown emails answer alike.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) {
	ctx = context.WithoutCancel(ctx)
	s.resets.Add(1)
	go func() {
		defer s.resets.Done()
		if _, err := s.ResetPassword(ctx, email); err != nil {
			Logger.Error("auth: password reset: %v", err)
		}
	}()
}

// 6 ResetPassword emails a temporary password. Unknown and throttled emails
// return an empty report.
func (s *AuthService) ResetPassword(ctx context.Context, email string) (*NotificationReport, error) {
	email = normalizeEmail(email)
	report := NewNotificationReport()

	var owner models.Owner
	if err := s.DB.Where("email = ? AND is_registered = ?", email, true).First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return report, nil
		}
		return nil, err
	}

	allowed, err := s.Throttle.Allow(ctx, "forgot-password:"+email, s.Config.PasswordResetLimit, s.Config.PasswordResetWindow)
	if err != nil {
		Logger.Warning("auth: forgot password throttle: %v", err)
		return report, nil
	}
	if !allowed {
		Logger.Warning("auth: forgot password throttled for owner %d", owner.ID)
		return report, nil
	}

	password, err := utils.RandomPassword(temporaryPasswordLength)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Model(&owner).Updates(map[string]interface{}{
		"password":              hash,
		"is_temporary_password": true,
	}).Error; err != nil {
		return nil, err
	}

	return s.Notifier.Notify(ctx, models.CategoryCritical, []uint{owner.ID}, mail.TemplateTemporaryPassword,
		map[string]interface{}{"password": password}), nil
}

// 7 Wait blocks until every background reset has finished
func (s *AuthService) Wait() {
	s.resets.Wait()
}
