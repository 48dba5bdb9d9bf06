package services

import (
	"context"
	"errors"
	"fmt"
	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/infrastructure/config"
	"hoa-http-service/internal/infrastructure/mail"
	"strings"

	"gorm.io/gorm"
)

// SystemSenderName is shown as the sender of system messages
const SystemSenderName = "HOA System"

// SendInput is a message written by an owner
type SendInput struct {
	Recipients []uint `json:"recipients" binding:"required"`
	Subject    string `json:"subject" binding:"required"`
	Body       string `json:"body"`
	ParentID   *uint  `json:"parent_id"`
}

// MessageView is a message as seen by one owner
type MessageView struct {
	models.Message
	Sender       models.Sender `json:"sender"`
	SenderName   string        `json:"sender_name"`
	IsRead       bool          `json:"is_read"`
	RecipientIDs []uint        `json:"recipient_ids,omitempty"`
}

// BoardRecipient is a board member an owner can write to
type BoardRecipient struct {
	OwnerID uint   `json:"owner_id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
}

// InterfaceMessageService defines the messaging interface
type InterfaceMessageService interface {
	Send(ctx context.Context, sender models.Sender, input SendInput) (*models.Message, *NotificationReport, error)
	SendSystemTx(tx *gorm.DB, recipients []uint, subject, body string) (*models.Message, error)
	Inbox(ownerID uint, query models.PaginationQuery) ([]MessageView, int64, error)
	Sent(ownerID uint, query models.PaginationQuery) ([]MessageView, int64, error)
	Thread(ownerID, messageID uint) ([]MessageView, error)
	MarkRead(ownerID, messageID uint) error
	BoardRecipients() ([]BoardRecipient, error)
}

// MessageService stores owner and system messages
type MessageService struct {
	DB       *gorm.DB
	Config   *config.Config
	Notifier InterfaceNotifier
	Now      Clock
}

// NewMessageService creates a new message service
func NewMessageService(db *gorm.DB, cfg *config.Config, notifier InterfaceNotifier, now Clock) InterfaceMessageService {
	if now == nil {
		now = SystemClock
	}
	return &MessageService{DB: db, Config: cfg, Notifier: notifier, Now: now}
}

// distinctRecipients drops duplicates and the reserved system id
func distinctRecipients(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || id == models.SystemOwnerID || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// createMessage inserts the message and one OwnerMessage per recipient
func createMessage(tx *gorm.DB, senderID *uint, parentID *uint, recipients []uint, subject, body string) (*models.Message, error) {
	msg := models.Message{
		SenderID: senderID,
		ParentID: parentID,
		Subject:  subject,
		Body:     body,
	}
	if err := tx.Omit("Recipients").Create(&msg).Error; err != nil {
		return nil, err
	}

	if len(recipients) > 0 {
		rows := make([]models.OwnerMessage, 0, len(recipients))
		for _, id := range recipients {
			rows = append(rows, models.OwnerMessage{MessageID: msg.ID, OwnerID: id})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return nil, err
		}
		msg.Recipients = rows
	}
	return &msg, nil
}

// 1 Send stores an owner message and emails the recipients after commit
func (s *MessageService) Send(ctx context.Context, sender models.Sender, input SendInput) (*models.Message, *NotificationReport, error) {
	if sender.IsSystem() {
		return nil, nil, fmt.Errorf("%w: system messages are sent by workflows", ErrValidation)
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, nil, fmt.Errorf("%w: subject is required", ErrValidation)
	}
	recipients := distinctRecipients(input.Recipients)
	if len(recipients) == 0 {
		return nil, nil, fmt.Errorf("%w: at least one recipient is required", ErrValidation)
	}

	var msg *models.Message
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var found int64
		if err := tx.Model(&models.Owner{}).Where("id IN ?", recipients).Count(&found).Error; err != nil {
			return err
		}
		if int(found) != len(recipients) {
			return ErrOwnerNotFound
		}

		if input.ParentID != nil {
			parent, err := s.visibleMessage(tx, sender.OwnerID, *input.ParentID)
			if err != nil {
				return err
			}
			if parent.Sender().IsSystem() {
				return ErrInvalidReply
			}
		}

		senderID := sender.OwnerID
		var err error
		msg, err = createMessage(tx, &senderID, input.ParentID, recipients, subject, input.Body)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	senderName := s.ownerName(sender.OwnerID)
	report := s.Notifier.Notify(ctx, models.CategoryMessages, recipients, mail.TemplateMessage, map[string]interface{}{
		"subject": subject,
		"sender":  senderName,
		"body":    input.Body,
	})
	return msg, report, nil
}

// 2 SendSystemTx stores a system message inside the caller's transaction.
// The caller emails after commit.
func (s *MessageService) SendSystemTx(tx *gorm.DB, recipients []uint, subject, body string) (*models.Message, error) {
	return createMessage(tx, nil, nil, distinctRecipients(recipients), subject, body)
}

// 3 Inbox returns the messages received by ownerID, newest first
func (s *MessageService) Inbox(ownerID uint, query models.PaginationQuery) ([]MessageView, int64, error) {
	query.Normalize()

	base := s.DB.Model(&models.OwnerMessage{}).Where("owner_id = ?", ownerID)
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OwnerMessage
	if err := s.DB.Preload("Message").
		Where("owner_id = ?", ownerID).
		Order("id DESC").
		Offset(query.Offset()).
		Limit(query.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	messages := make([]models.Message, 0, len(rows))
	read := make(map[uint]bool, len(rows))
	for _, row := range rows {
		if row.Message == nil {
			continue
		}
		messages = append(messages, *row.Message)
		read[row.MessageID] = row.IsRead
	}

	views, err := s.views(messages, func(m *models.Message) bool { return read[m.ID] })
	return views, total, err
}

// 4 Sent returns the messages written by ownerID, newest first
func (s *MessageService) Sent(ownerID uint, query models.PaginationQuery) ([]MessageView, int64, error) {
	query.Normalize()

	base := s.DB.Model(&models.Message{}).Where("sender_id = ?", ownerID)
	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []models.Message
	if err := s.DB.Preload("Recipients").
		Where("sender_id = ?", ownerID).
		Order("id DESC").
		Offset(query.Offset()).
		Limit(query.PageSize).
		Find(&messages).Error; err != nil {
		return nil, 0, err
	}

	views, err := s.views(messages, func(*models.Message) bool { return true })
	return views, total, err
}

// 5 Thread returns the conversation containing messageID, oldest first,
// limited to the messages ownerID sent or received
func (s *MessageService) Thread(ownerID, messageID uint) ([]MessageView, error) {
	msg, err := s.visibleMessage(s.DB, ownerID, messageID)
	if err != nil {
		return nil, err
	}

	root := msg
	for root.ParentID != nil {
		var parent models.Message
		if err := s.DB.First(&parent, *root.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return nil, err
		}
		root = &parent
	}

	thread := []models.Message{*root}
	frontier := []uint{root.ID}
	for len(frontier) > 0 {
		var children []models.Message
		if err := s.DB.Where("parent_id IN ?", frontier).Order("id").Find(&children).Error; err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, child := range children {
			thread = append(thread, child)
			frontier = append(frontier, child.ID)
		}
	}

	ids := make([]uint, 0, len(thread))
	for _, m := range thread {
		ids = append(ids, m.ID)
	}
	var mine []models.OwnerMessage
	if err := s.DB.Where("message_id IN ? AND owner_id = ?", ids, ownerID).Find(&mine).Error; err != nil {
		return nil, err
	}
	received := make(map[uint]bool, len(mine))
	read := make(map[uint]bool, len(mine))
	for _, row := range mine {
		received[row.MessageID] = true
		read[row.MessageID] = row.IsRead
	}

	visible := thread[:0]
	for _, m := range thread {
		if received[m.ID] || (m.SenderID != nil && *m.SenderID == ownerID) {
			visible = append(visible, m)
		}
	}

	return s.views(visible, func(m *models.Message) bool {
		if received[m.ID] {
			return read[m.ID]
		}
		return true
	})
}

// 6 MarkRead flags the message as read for ownerID
func (s *MessageService) MarkRead(ownerID, messageID uint) error {
	result := s.DB.Model(&models.OwnerMessage{}).
		Where("message_id = ? AND owner_id = ?", messageID, ownerID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.DB.Model(&models.OwnerMessage{}).
			Where("message_id = ? AND owner_id = ?", messageID, ownerID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrMessageNotFound
		}
	}
	return nil
}

// 7 BoardRecipients lists the active board members
func (s *MessageService) BoardRecipients() ([]BoardRecipient, error) {
	var members []models.OwnerBoardMember
	if err := activeAssignments(s.DB.Preload("Owner").Preload("Role"), s.Now()).
		Order("start_date").
		Find(&members).Error; err != nil {
		return nil, err
	}

	out := make([]BoardRecipient, 0, len(members))
	for _, m := range members {
		r := BoardRecipient{OwnerID: m.OwnerID}
		if m.Owner != nil {
			r.Name = m.Owner.FullName()
		}
		if m.Role != nil {
			r.Role = m.Role.Name
		}
		out = append(out, r)
	}
	return out, nil
}

// visibleMessage loads messageID if ownerID sent or received it
func (s *MessageService) visibleMessage(db *gorm.DB, ownerID, messageID uint) (*models.Message, error) {
	var msg models.Message
	if err := db.First(&msg, messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	if msg.SenderID != nil && *msg.SenderID == ownerID {
		return &msg, nil
	}

	var count int64
	if err := db.Model(&models.OwnerMessage{}).
		Where("message_id = ? AND owner_id = ?", messageID, ownerID).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrMessageNotFound
	}
	return &msg, nil
}

func (s *MessageService) ownerName(ownerID uint) string {
	var owner models.Owner
	if err := s.DB.Select("id", "first_name", "last_name", "email").First(&owner, ownerID).Error; err != nil {
		return fmt.Sprintf("Owner %d", ownerID)
	}
	return owner.FullName()
}

// views attaches sender names to messages
func (s *MessageService) views(messages []models.Message, isRead func(*models.Message) bool) ([]MessageView, error) {
	senderIDs := make([]uint, 0, len(messages))
	for _, m := range messages {
		if m.SenderID != nil {
			senderIDs = append(senderIDs, *m.SenderID)
		}
	}

	names := map[uint]string{}
	if len(senderIDs) > 0 {
		var owners []models.Owner
		if err := s.DB.Select("id", "first_name", "last_name", "email").
			Where("id IN ?", senderIDs).Find(&owners).Error; err != nil {
			return nil, err
		}
		for i := range owners {
			names[owners[i].ID] = owners[i].FullName()
		}
	}

	views := make([]MessageView, 0, len(messages))
	for i := range messages {
		m := &messages[i]
		view := MessageView{Message: *m, Sender: m.Sender(), IsRead: isRead(m)}
		if view.Sender.IsSystem() {
			view.SenderName = SystemSenderName
		} else {
			view.SenderName = names[view.Sender.OwnerID]
		}
		for _, r := range m.Recipients {
			view.RecipientIDs = append(view.RecipientIDs, r.OwnerID)
		}
		view.Message.Recipients = nil
		views = append(views, view)
	}
	return views, nil
}
