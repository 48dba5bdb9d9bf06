package models

import "time"

// AnnouncementStatus is the publication state of an announcement
type AnnouncementStatus string

const (
	AnnouncementDraft     AnnouncementStatus = "DRAFT"
	AnnouncementScheduled AnnouncementStatus = "SCHEDULED"
	AnnouncementPublished AnnouncementStatus = "PUBLISHED"
)

// Announcement is published to every owner, now or on PublishDate
type Announcement struct {
	BaseModel
	Title       string             `gorm:"type:varchar(200);not null" json:"title"`
	Body        string             `gorm:"type:text" json:"body"`
	Image       []byte             `gorm:"type:longblob" json:"-"`
	ImageMime   string             `gorm:"type:varchar(50)" json:"image_mime,omitempty"`
	Status      AnnouncementStatus `gorm:"type:varchar(20);index;not null" json:"status"`
	PublishDate time.Time          `gorm:"index" json:"publish_date"`
	AuthorID    uint               `json:"author_id"`
}

// HasImage reports whether an image is attached
func (a *Announcement) HasImage() bool {
	return len(a.Image) > 0
}
