package models

// SenderKind tells system messages from owner messages
type SenderKind string

const (
	SenderSystem SenderKind = "system"
	SenderOwner  SenderKind = "owner"
)

// Sender is either the system or an owner
type Sender struct {
	Kind    SenderKind `json:"kind"`
	OwnerID uint       `json:"owner_id,omitempty"`
}

// SystemSender is the sender of automated messages
func SystemSender() Sender {
	return Sender{Kind: SenderSystem}
}

// OwnerSender is the sender of a message written by an owner
func OwnerSender(ownerID uint) Sender {
	return Sender{Kind: SenderOwner, OwnerID: ownerID}
}

// IsSystem reports whether the sender is the system
func (s Sender) IsSystem() bool {
	return s.Kind == SenderSystem
}

// Message is sent once and fanned out through OwnerMessage rows.
// SenderID is nil for system messages.
type Message struct {
	BaseModel
	SenderID *uint  `gorm:"index" json:"-"`
	ParentID *uint  `gorm:"index" json:"parent_id,omitempty"`
	Subject  string `gorm:"type:varchar(200);not null" json:"subject"`
	Body     string `gorm:"type:text" json:"body"`

	Recipients []OwnerMessage `gorm:"foreignKey:MessageID" json:"recipients,omitempty"`
}

// Sender returns the typed sender of the message
func (m *Message) Sender() Sender {
	if m.SenderID == nil {
		return SystemSender()
	}
	return OwnerSender(*m.SenderID)
}

// OwnerMessage maps a message to one recipient
type OwnerMessage struct {
	BaseModel
	MessageID uint `gorm:"not null;uniqueIndex:idx_owner_message" json:"message_id"`
	OwnerID   uint `gorm:"not null;uniqueIndex:idx_owner_message;index" json:"owner_id"`
	IsRead    bool `gorm:"default:false" json:"is_read"`

	Message *Message `gorm:"foreignKey:MessageID" json:"message,omitempty"`
}
