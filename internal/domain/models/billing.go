package models

import "time"

// ChargeKind distinguishes violation fines from assessments
type ChargeKind string

const (
	ChargeViolation  ChargeKind = "VIOLATION"
	ChargeAssessment ChargeKind = "ASSESSMENT"
)

// ViolationType is a kind of rule violation and its fine
type ViolationType struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	RateCents   int64  `gorm:"not null" json:"rate_cents"`
	Active      bool   `json:"active"`
}

// AssessmentRate is a dues amount; at most one per year is flagged yearly
type AssessmentRate struct {
	BaseModel
	Year        int    `gorm:"index;not null" json:"year"`
	Description string `gorm:"type:varchar(200)" json:"description"`
	AmountCents int64  `gorm:"not null" json:"amount_cents"`
	IsYearly    bool   `gorm:"default:false" json:"is_yearly"`
}

// Charge is a debit against an account
type Charge struct {
	BaseModel
	AccountID        uint       `gorm:"index;not null" json:"account_id"`
	Kind             ChargeKind `gorm:"type:varchar(20);not null" json:"kind"`
	AmountCents      int64      `gorm:"not null" json:"amount_cents"`
	Description      string     `gorm:"type:text" json:"description"`
	DueDate          time.Time  `gorm:"index" json:"due_date"`
	ViolationTypeID  *uint      `json:"violation_type_id,omitempty"`
	AssessmentRateID *uint      `gorm:"index" json:"assessment_rate_id,omitempty"`
	IssuedBy         uint       `json:"issued_by"`

	ViolationType  *ViolationType  `gorm:"foreignKey:ViolationTypeID" json:"violation_type,omitempty"`
	AssessmentRate *AssessmentRate `gorm:"foreignKey:AssessmentRateID" json:"assessment_rate,omitempty"`
}

// CreditCard keeps only the SHA-256 of the number and its last four digits
type CreditCard struct {
	BaseModel
	AccountID  uint   `gorm:"not null;uniqueIndex:idx_card_account_hash" json:"account_id"`
	CardHash   string `gorm:"type:char(64);not null;uniqueIndex:idx_card_account_hash" json:"-"`
	LastFour   string `gorm:"type:char(4);not null" json:"last_four"`
	HolderName string `gorm:"type:varchar(100)" json:"holder_name"`
	ExpMonth   int    `json:"exp_month"`
	ExpYear    int    `json:"exp_year"`
}

// Payment is a credit against an account
type Payment struct {
	BaseModel
	AccountID     uint      `gorm:"index;not null" json:"account_id"`
	CreditCardID  uint      `json:"credit_card_id"`
	PaidBy        uint      `json:"paid_by"`
	AmountCents   int64     `gorm:"not null" json:"amount_cents"`
	ReceiptNumber string    `gorm:"type:varchar(50);uniqueIndex" json:"receipt_number"`
	PaidAt        time.Time `json:"paid_at"`

	CreditCard *CreditCard `gorm:"foreignKey:CreditCardID" json:"credit_card,omitempty"`
	Account    *Account    `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}
