package services

import (
	"context"
	"errors"
	"fmt"
	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/infrastructure/config"
	"hoa-http-service/internal/infrastructure/mail"
	Logger "hoa-http-service/pkg/logger"
	"strings"
	"time"

	"gorm.io/gorm"
)

// AnnouncementInput holds the text fields of an announcement. A nil or past
// PublishDate publishes immediately.
type AnnouncementInput struct {
	Title       string     `form:"title" json:"title"`
	Body        string     `form:"body" json:"body"`
	PublishDate *time.Time `form:"publish_date" json:"publish_date" time_format:"2006-01-02T15:04:05Z07:00"`
	RemoveImage bool       `form:"remove_image" json:"remove_image"`
}

// InterfaceAnnouncementService defines the announcement interface
type InterfaceAnnouncementService interface {
	Create(ctx context.Context, actorID uint, input AnnouncementInput, image *Upload) (*models.Announcement, *NotificationReport, error)
	Update(ctx context.Context, actorID, id uint, input AnnouncementInput, image *Upload) (*models.Announcement, *NotificationReport, error)
	Delete(actorID, id uint) error
	List(query models.PaginationQuery, includeUnpublished bool) ([]models.Announcement, int64, error)
	Get(id uint, includeUnpublished bool) (*models.Announcement, error)
	Image(id uint) ([]byte, string, error)
	PublishDue(ctx context.Context, now time.Time) (*BatchResult, error)
}

// AnnouncementService publishes announcements to every registered owner
type AnnouncementService struct {
	DB       *gorm.DB
	Config   *config.Config
	Notifier InterfaceNotifier
	Now      Clock
}

// NewAnnouncementService creates a new announcement service
func NewAnnouncementService(db *gorm.DB, cfg *config.Config, notifier InterfaceNotifier, now Clock) InterfaceAnnouncementService {
	if now == nil {
		now = SystemClock
	}
	return &AnnouncementService{DB: db, Config: cfg, Notifier: notifier, Now: now}
}

// registeredOwnerIDs returns every registered owner
func registeredOwnerIDs(db *gorm.DB) ([]uint, error) {
	var ids []uint
	err := db.Model(&models.Owner{}).Where("is_registered = ?", true).Pluck("id", &ids).Error
	return ids, err
}

func (s *AnnouncementService) notifyPublished(ctx context.Context, a *models.Announcement) *NotificationReport {
	recipients, err := registeredOwnerIDs(s.DB.WithContext(ctx))
	if err != nil {
		Logger.Error("announcements: load recipients: %v", err)
		return NewNotificationReport()
	}
	return s.Notifier.Notify(ctx, models.CategoryAnnouncements, recipients, mail.TemplateAnnouncement, map[string]interface{}{
		"title": a.Title,
		"body":  a.Body,
	})
}

// 1 Create stores an announcement, publishing it now unless it is scheduled
func (s *AnnouncementService) Create(ctx context.Context, actorID uint, input AnnouncementInput, image *Upload) (*models.Announcement, *NotificationReport, error) {
	now := s.Now()
	if _, err := requireBoardMember(s.DB, actorID, now); err != nil {
		return nil, nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	a := models.Announcement{
		Title:       title,
		Body:        input.Body,
		AuthorID:    actorID,
		Status:      models.AnnouncementPublished,
		PublishDate: now,
	}
	if input.PublishDate != nil && input.PublishDate.After(now) {
		a.Status = models.AnnouncementScheduled
		a.PublishDate = *input.PublishDate
	}
	if image != nil {
		mimeType, err := validateImage(image, s.Config.MaxImageBytes)
		if err != nil {
			return nil, nil, err
		}
		a.Image = image.Data
		a.ImageMime = mimeType
	}

	if err := s.DB.Create(&a).Error; err != nil {
		return nil, nil, err
	}
	Logger.Info("announcements: %d created as %s by owner %d", a.ID, a.Status, actorID)

	if a.Status != models.AnnouncementPublished {
		return &a, NewNotificationReport(), nil
	}
	return &a, s.notifyPublished(ctx, &a), nil
}

// 2 Update changes an announcement. Moving the publish date of a scheduled
// announcement to the past publishes it.
func (s *AnnouncementService) Update(ctx context.Context, actorID, id uint, input AnnouncementInput, image *Upload) (*models.Announcement, *NotificationReport, error) {
	now := s.Now()
	if _, err := requireBoardMember(s.DB, actorID, now); err != nil {
		return nil, nil, err
	}

	var a models.Announcement
	if err := s.DB.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrAnnouncementNotFound
		}
		return nil, nil, err
	}

	if title := strings.TrimSpace(input.Title); title != "" {
		a.Title = title
	}
	if input.Body != "" {
		a.Body = input.Body
	}
	if image != nil {
		mimeType, err := validateImage(image, s.Config.MaxImageBytes)
		if err != nil {
			return nil, nil, err
		}
		a.Image = image.Data
		a.ImageMime = mimeType
	} else if input.RemoveImage {
		a.Image = nil
		a.ImageMime = ""
	}

	publishNow := false
	if a.Status == models.AnnouncementScheduled && input.PublishDate != nil {
		if input.PublishDate.After(now) {
			a.PublishDate = *input.PublishDate
		} else {
			a.Status = models.AnnouncementPublished
			a.PublishDate = now
			publishNow = true
		}
	}

	if err := s.DB.Save(&a).Error; err != nil {
		return nil, nil, err
	}
	if !publishNow {
		return &a, NewNotificationReport(), nil
	}
	return &a, s.notifyPublished(ctx, &a), nil
}

// 3 Delete removes an announcement
func (s *AnnouncementService) Delete(actorID, id uint) error {
	if _, err := requireBoardMember(s.DB, actorID, s.Now()); err != nil {
		return err
	}
	result := s.DB.Delete(&models.Announcement{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAnnouncementNotFound
	}
	return nil
}

// listColumns leaves the image out of list queries
var listColumns = []string{"id", "created_at", "updated_at", "title", "body", "image_mime", "status", "publish_date", "author_id"}

// 4 List pages through announcements, newest first
func (s *AnnouncementService) List(query models.PaginationQuery, includeUnpublished bool) ([]models.Announcement, int64, error) {
	query.Normalize()

	db := s.DB.Model(&models.Announcement{})
	if !includeUnpublished {
		db = db.Where("status = ?", models.AnnouncementPublished)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var announcements []models.Announcement
	if err := db.Select(listColumns).
		Order("publish_date DESC, id DESC").
		Offset(query.Offset()).
		Limit(query.PageSize).
		Find(&announcements).Error; err != nil {
		return nil, 0, err
	}
	return announcements, total, nil
}

// 5 Get returns one announcement without its image
func (s *AnnouncementService) Get(id uint, includeUnpublished bool) (*models.Announcement, error) {
	var a models.Announcement
	if err := s.DB.Select(listColumns).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnnouncementNotFound
		}
		return nil, err
	}
	if !includeUnpublished && a.Status != models.AnnouncementPublished {
		return nil, ErrAnnouncementNotFound
	}
	return &a, nil
}

// 6 Image returns the image bytes and MIME type of a published announcement
func (s *AnnouncementService) Image(id uint) ([]byte, string, error) {
	var a models.Announcement
	if err := s.DB.Where("status = ?", models.AnnouncementPublished).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrAnnouncementNotFound
		}
		return nil, "", err
	}
	if !a.HasImage() {
		return nil, "", ErrAnnouncementNotFound
	}
	return a.Image, a.ImageMime, nil
}

// 7 PublishDue publishes every scheduled announcement whose date has come
func (s *AnnouncementService) PublishDue(ctx context.Context, now time.Time) (*BatchResult, error) {
	var ids []uint
	if err := s.DB.WithContext(ctx).Model(&models.Announcement{}).
		Where("status = ? AND publish_date <= ?", models.AnnouncementScheduled, now).
		Order("publish_date").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}

	return RunBatch(ctx, s.DB, ids, func(tx *gorm.DB, id uint) (AfterCommit, error) {
		result := tx.Model(&models.Announcement{}).
			Where("id = ? AND status = ?", id, models.AnnouncementScheduled).
			Update("status", models.AnnouncementPublished)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrSkipped
		}

		var a models.Announcement
		if err := tx.Select(listColumns).First(&a, id).Error; err != nil {
			return nil, err
		}
		Logger.Info("announcements: %d published", id)
		return func(ctx context.Context) *NotificationReport {
			return s.notifyPublished(ctx, &a)
		}, nil
	})
}
