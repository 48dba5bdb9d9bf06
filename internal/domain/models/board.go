package models

import "time"

// BoardMemberRole defines the capabilities of a board position
type BoardMemberRole struct {
	BaseModel
	Name             string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	CanAssessFines   bool   `gorm:"default:false" json:"can_assess_fines"`
	CanChangeRates   bool   `gorm:"default:false" json:"can_change_rates"`
	CanChangeMembers bool   `gorm:"default:false" json:"can_change_members"`
}

// Capability names one flag of a BoardMemberRole
type Capability string

const (
	CapAssessFines   Capability = "assess_fines"
	CapChangeRates   Capability = "change_rates"
	CapChangeMembers Capability = "change_members"
)

// Has reports whether the role grants capability
func (r *BoardMemberRole) Has(capability Capability) bool {
	if r == nil {
		return false
	}
	switch capability {
	case CapAssessFines:
		return r.CanAssessFines
	case CapChangeRates:
		return r.CanChangeRates
	case CapChangeMembers:
		return r.CanChangeMembers
	default:
		return false
	}
}

// OwnerBoardMember assigns a role to an owner for a period of time
type OwnerBoardMember struct {
	BaseModel
	OwnerID   uint       `gorm:"index;not null" json:"owner_id"`
	RoleID    uint       `gorm:"index;not null" json:"role_id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	Owner *Owner           `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Role  *BoardMemberRole `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

// ActiveAt reports whether the assignment covers t
func (m *OwnerBoardMember) ActiveAt(t time.Time) bool {
	if m.StartDate.After(t) {
		return false
	}
	return m.EndDate == nil || m.EndDate.After(t)
}
