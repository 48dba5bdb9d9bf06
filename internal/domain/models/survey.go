package models

import "time"

// SurveyStatus is ACTIVE until results are sent, then INACTIVE for good
type SurveyStatus string

const (
	SurveyActive   SurveyStatus = "ACTIVE"
	SurveyInactive SurveyStatus = "INACTIVE"
)

// MaxSurveyAnswers is the number of fixed answer slots
const MaxSurveyAnswers = 4

// Survey is a single-choice question with up to four answers
type Survey struct {
	BaseModel
	Question    string       `gorm:"type:varchar(500);not null" json:"question"`
	Answer1     string       `gorm:"type:varchar(200)" json:"answer_1"`
	Answer2     string       `gorm:"type:varchar(200)" json:"answer_2"`
	Answer3     string       `gorm:"type:varchar(200)" json:"answer_3"`
	Answer4     string       `gorm:"type:varchar(200)" json:"answer_4"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `gorm:"index" json:"end_date"`
	Status      SurveyStatus `gorm:"type:varchar(20);index;not null" json:"status"`
	ResultsSent bool         `gorm:"default:false" json:"results_sent"`
	CreatedBy   uint         `json:"created_by"`
}

// Answers returns the four answer slots, empty slots included
func (s *Survey) Answers() [MaxSurveyAnswers]string {
	return [MaxSurveyAnswers]string{s.Answer1, s.Answer2, s.Answer3, s.Answer4}
}

// ValidAnswer reports whether answer (1-based) names a non-empty slot
func (s *Survey) ValidAnswer(answer int) bool {
	if answer < 1 || answer > MaxSurveyAnswers {
		return false
	}
	return s.Answers()[answer-1] != ""
}

// Expired reports whether the end date has passed at now
func (s *Survey) Expired(now time.Time) bool {
	return now.After(s.EndDate)
}

// OwnerSurvey is one owner's answer to a survey
type OwnerSurvey struct {
	BaseModel
	SurveyID uint `gorm:"not null;uniqueIndex:idx_owner_survey" json:"survey_id"`
	OwnerID  uint `gorm:"not null;uniqueIndex:idx_owner_survey" json:"owner_id"`
	Answer   int  `gorm:"not null" json:"answer"`
}
