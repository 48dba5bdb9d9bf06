package models

import (
	"time"

	"gorm.io/datatypes"
)

// JobRun records one execution of a scheduled job
type JobRun struct {
	BaseModel
	JobName    string         `gorm:"type:varchar(50);index;not null" json:"job_name"`
	RunID      string         `gorm:"type:char(36);uniqueIndex;not null" json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Processed  int            `json:"processed"`
	Skipped    int            `json:"skipped"`
	Failed     int            `json:"failed"`
	Error      string         `gorm:"type:text" json:"error,omitempty"`
	Details    datatypes.JSON `json:"details,omitempty"`
}

// AllModels lists every table for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&Owner{},
		&NotificationPreference{},
		&Property{},
		&OwnerProperty{},
		&Account{},
		&ViolationType{},
		&AssessmentRate{},
		&Charge{},
		&CreditCard{},
		&Payment{},
		&Message{},
		&OwnerMessage{},
		&Announcement{},
		&Document{},
		&Survey{},
		&OwnerSurvey{},
		&BoardMemberRole{},
		&OwnerBoardMember{},
		&JobRun{},
	}
}
