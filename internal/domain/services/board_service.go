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

	"gorm.io/gorm"
)

// BootstrapRoleName is the role given to the first board member
const BootstrapRoleName = "President"

// RoleInput holds the editable fields of a board member role
type RoleInput struct {
	Name             string `json:"name" binding:"required"`
	CanAssessFines   bool   `json:"can_assess_fines"`
	CanChangeRates   bool   `json:"can_change_rates"`
	CanChangeMembers bool   `json:"can_change_members"`
}

// InterfaceBoardService defines the board administration interface
type InterfaceBoardService interface {
	ListRoles() ([]models.BoardMemberRole, error)
	CreateRole(actorID uint, input RoleInput) (*models.BoardMemberRole, error)
	UpdateRole(actorID, roleID uint, input RoleInput) (*models.BoardMemberRole, error)
	ListMembers() ([]models.OwnerBoardMember, error)
	AssignRole(actorID, ownerID, roleID uint) (*models.OwnerBoardMember, error)
	EndRole(actorID, ownerID uint) error
	ActiveRole(ownerID uint) (*models.OwnerBoardMember, error)
	BoardMemberIDs() ([]uint, error)
	Bootstrap(email, password string) (*models.Owner, error)
}

// BoardService manages board member roles and assignments
type BoardService struct {
	DB     *gorm.DB
	Config *config.Config
	Now    Clock
}

// NewBoardService creates a new board service
func NewBoardService(db *gorm.DB, cfg *config.Config, now Clock) InterfaceBoardService {
	if now == nil {
		now = SystemClock
	}
	return &BoardService{DB: db, Config: cfg, Now: now}
}

func activeAssignments(db *gorm.DB, now time.Time) *gorm.DB {
	return db.Where("start_date <= ? AND (end_date IS NULL OR end_date > ?)", now, now)
}

// loadActiveRole returns the active assignment of ownerID with its role
func loadActiveRole(db *gorm.DB, ownerID uint, now time.Time) (*models.OwnerBoardMember, error) {
	var member models.OwnerBoardMember
	err := activeAssignments(db.Preload("Role"), now).
		Where("owner_id = ?", ownerID).
		Order("start_date DESC").
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveRole
		}
		return nil, err
	}
	return &member, nil
}

// requireCapability returns ErrPermissionDenied unless ownerID currently holds
// a role granting capability
func requireCapability(db *gorm.DB, ownerID uint, now time.Time, capability models.Capability) (*models.OwnerBoardMember, error) {
	member, err := loadActiveRole(db, ownerID, now)
	if err != nil {
		if errors.Is(err, ErrNoActiveRole) {
			return nil, ErrPermissionDenied
		}
		return nil, err
	}
	if !member.Role.Has(capability) {
		return nil, ErrPermissionDenied
	}
	return member, nil
}

// 1 ListRoles returns every role
func (s *BoardService) ListRoles() ([]models.BoardMemberRole, error) {
	var roles []models.BoardMemberRole
	if err := s.DB.Order("id").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// 2 CreateRole adds a role
func (s *BoardService) CreateRole(actorID uint, input RoleInput) (*models.BoardMemberRole, error) {
	if _, err := requireCapability(s.DB, actorID, s.Now(), models.CapChangeMembers); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrValidation)
	}

	role := models.BoardMemberRole{
		Name:             name,
		CanAssessFines:   input.CanAssessFines,
		CanChangeRates:   input.CanChangeRates,
		CanChangeMembers: input.CanChangeMembers,
	}
	if err := s.DB.Create(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// 3 UpdateRole changes the name and capabilities of a role
func (s *BoardService) UpdateRole(actorID, roleID uint, input RoleInput) (*models.BoardMemberRole, error) {
	if _, err := requireCapability(s.DB, actorID, s.Now(), models.CapChangeMembers); err != nil {
		return nil, err
	}

	var role models.BoardMemberRole
	if err := s.DB.First(&role, roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{
		"can_assess_fines":   input.CanAssessFines,
		"can_change_rates":   input.CanChangeRates,
		"can_change_members": input.CanChangeMembers,
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		updates["name"] = name
	}
	if err := s.DB.Model(&role).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// 4 ListMembers returns the active assignments with owner and role
func (s *BoardService) ListMembers() ([]models.OwnerBoardMember, error) {
	var members []models.OwnerBoardMember
	err := activeAssignments(s.DB.Preload("Owner").Preload("Role"), s.Now()).
		Order("start_date").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// 5 AssignRole gives ownerID the role starting today
func (s *BoardService) AssignRole(actorID, ownerID, roleID uint) (*models.OwnerBoardMember, error) {
	now := s.Now()
	if _, err := requireCapability(s.DB, actorID, now, models.CapChangeMembers); err != nil {
		return nil, err
	}
	if ownerID == models.SystemOwnerID {
		return nil, fmt.Errorf("%w: the system account cannot hold a role", ErrValidation)
	}

	var member models.OwnerBoardMember
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var owner models.Owner
		if err := tx.First(&owner, ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOwnerNotFound
			}
			return err
		}
		if !owner.IsRegistered {
			return fmt.Errorf("%w: owner has not registered", ErrValidation)
		}

		var role models.BoardMemberRole
		if err := tx.First(&role, roleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return err
		}

		if _, err := loadActiveRole(tx, ownerID, now); err == nil {
			return ErrActiveRoleExists
		} else if !errors.Is(err, ErrNoActiveRole) {
			return err
		}

		member = models.OwnerBoardMember{
			OwnerID:   ownerID,
			RoleID:    roleID,
			StartDate: models.StartOfDay(now),
		}
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		member.Owner = &owner
		member.Role = &role
		return nil
	})
	if err != nil {
		return nil, err
	}

	Logger.Info("board: owner %d assigned role %d by owner %d", ownerID, roleID, actorID)
	return &member, nil
}

// 6 EndRole ends the active assignment of ownerID as of today
func (s *BoardService) EndRole(actorID, ownerID uint) error {
	now := s.Now()
	if _, err := requireCapability(s.DB, actorID, now, models.CapChangeMembers); err != nil {
		return err
	}
	if ownerID == models.SystemOwnerID || ownerID == actorID {
		return ErrCannotEndRole
	}

	member, err := loadActiveRole(s.DB, ownerID, now)
	if err != nil {
		return err
	}

	today := models.StartOfDay(now)
	if err := s.DB.Model(member).Update("end_date", today).Error; err != nil {
		return err
	}

	Logger.Info("board: role of owner %d ended by owner %d", ownerID, actorID)
	return nil
}

// 7 ActiveRole returns the current assignment of ownerID, or ErrNoActiveRole
func (s *BoardService) ActiveRole(ownerID uint) (*models.OwnerBoardMember, error) {
	return loadActiveRole(s.DB, ownerID, s.Now())
}

// 8 BoardMemberIDs returns the owner ids of every active board member
func (s *BoardService) BoardMemberIDs() ([]uint, error) {
	var ids []uint
	err := activeAssignments(s.DB.Model(&models.OwnerBoardMember{}), s.Now()).
		Distinct().
		Pluck("owner_id", &ids).Error
	return ids, err
}

// 9 Bootstrap creates a board member with every capability when nobody holds
// an active role. The password is marked temporary.
func (s *BoardService) Bootstrap(email, password string) (*models.Owner, error) {
	now := s.Now()

	var active int64
	if err := activeAssignments(s.DB.Model(&models.OwnerBoardMember{}), now).Count(&active).Error; err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, nil
	}

	var owner models.Owner
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", strings.ToLower(email)).First(&owner).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hash, err := utils.HashPassword(password)
			if err != nil {
				return err
			}
			owner = models.Owner{
				FirstName:           "Board",
				LastName:            "Administrator",
				Email:               strings.ToLower(email),
				Password:            hash,
				IsTemporaryPassword: true,
				IsRegistered:        true,
				HasVotingRights:     true,
			}
			if err := tx.Create(&owner).Error; err != nil {
				return err
			}
			pref := models.DefaultNotificationPreference(owner.ID)
			if err := tx.Create(&pref).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var role models.BoardMemberRole
		err = tx.Where("name = ?", BootstrapRoleName).First(&role).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role = models.BoardMemberRole{
				Name:             BootstrapRoleName,
				CanAssessFines:   true,
				CanChangeRates:   true,
				CanChangeMembers: true,
			}
			if err := tx.Create(&role).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		return tx.Create(&models.OwnerBoardMember{
			OwnerID:   owner.ID,
			RoleID:    role.ID,
			StartDate: models.StartOfDay(now),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	Logger.Info("board: bootstrapped board member %s", owner.Email)
	return &owner, nil
}

// requireBoardMember returns ErrPermissionDenied unless ownerID holds any active role
func requireBoardMember(db *gorm.DB, ownerID uint, now time.Time) (*models.OwnerBoardMember, error) {
	member, err := loadActiveRole(db, ownerID, now)
	if errors.Is(err, ErrNoActiveRole) {
		return nil, ErrPermissionDenied
	}
	return member, err
}
