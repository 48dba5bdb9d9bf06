package models

import "time"

// Property is a physical unit of the association
type Property struct {
	BaseModel
	Address   string `gorm:"type:varchar(150);not null;uniqueIndex:idx_property_address_unit" json:"address"`
	Unit      string `gorm:"type:varchar(20);uniqueIndex:idx_property_address_unit" json:"unit"`
	LotNumber string `gorm:"type:varchar(20)" json:"lot_number"`
}

// OwnerProperty maps an owner to a property for a period of time
type OwnerProperty struct {
	BaseModel
	OwnerID      uint       `gorm:"index;not null" json:"owner_id"`
	PropertyID   uint       `gorm:"index;not null" json:"property_id"`
	PurchaseDate time.Time  `json:"purchase_date"`
	SellDate     *time.Time `json:"sell_date,omitempty"`

	Owner    *Owner    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}

// ActiveAt reports whether the ownership covers t
func (op *OwnerProperty) ActiveAt(t time.Time) bool {
	if op.PurchaseDate.After(t) {
		return false
	}
	return op.SellDate == nil || op.SellDate.After(t)
}

// Account is the financial ledger of an owner for a property
type Account struct {
	BaseModel
	OwnerID      uint  `gorm:"not null;uniqueIndex:idx_account_owner_property" json:"owner_id"`
	PropertyID   uint  `gorm:"not null;uniqueIndex:idx_account_owner_property" json:"property_id"`
	BalanceCents int64 `gorm:"not null;default:0" json:"balance_cents"`

	// RegistrationCode is only set on the account returned at creation.
	RegistrationCode string `gorm:"-" json:"registration_code,omitempty"`

	Owner    *Owner    `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Property *Property `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
}
