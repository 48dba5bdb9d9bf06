package services

import (
	"context"
	"errors"
	"fmt"
	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/infrastructure/config"
	"hoa-http-service/internal/infrastructure/mail"
	Logger "hoa-http-service/pkg/logger"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"
)

// SurveyInput creates a survey with two to four answers
type SurveyInput struct {
	Question  string    `json:"question" binding:"required"`
	Answers   []string  `json:"answers" binding:"required"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date" binding:"required"`
}

// AnswerResult is the tally of one answer slot
type AnswerResult struct {
	Answer     int     `json:"answer"`
	Text       string  `json:"text"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// SurveyResults is the tally of a survey
type SurveyResults struct {
	SurveyID uint           `json:"survey_id"`
	Question string         `json:"question"`
	Total    int64          `json:"total"`
	Answers  []AnswerResult `json:"answers"`
}

// SurveyView is a survey as seen by one owner
type SurveyView struct {
	models.Survey
	MyAnswer   *int           `json:"my_answer,omitempty"`
	CanRespond bool           `json:"can_respond"`
	Results    *SurveyResults `json:"results,omitempty"`
}

// InterfaceSurveyService defines the survey interface
type InterfaceSurveyService interface {
	Create(actorID uint, input SurveyInput) (*models.Survey, error)
	List(ctx context.Context, ownerID uint) ([]SurveyView, error)
	Respond(ownerID, surveyID uint, answer int) (*models.OwnerSurvey, error)
	Results(surveyID uint) (*SurveyResults, error)
	CloseExpired(ctx context.Context, now time.Time) (*BatchResult, error)
}

// SurveyService runs owner surveys
type SurveyService struct {
	DB       *gorm.DB
	Config   *config.Config
	Messages InterfaceMessageService
	Notifier InterfaceNotifier
	Now      Clock
}

// NewSurveyService creates a new survey service
func NewSurveyService(db *gorm.DB, cfg *config.Config, messages InterfaceMessageService, notifier InterfaceNotifier, now Clock) InterfaceSurveyService {
	if now == nil {
		now = SystemClock
	}
	return &SurveyService{DB: db, Config: cfg, Messages: messages, Notifier: notifier, Now: now}
}

// 1 Create opens a survey
func (s *SurveyService) Create(actorID uint, input SurveyInput) (*models.Survey, error) {
	now := s.Now()
	if _, err := requireBoardMember(s.DB, actorID, now); err != nil {
		return nil, err
	}

	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrValidation)
	}
	var answers []string
	for _, a := range input.Answers {
		if a = strings.TrimSpace(a); a != "" {
			answers = append(answers, a)
		}
	}
	if len(answers) < 2 || len(answers) > models.MaxSurveyAnswers {
		return nil, fmt.Errorf("%w: a survey needs 2 to %d answers", ErrValidation, models.MaxSurveyAnswers)
	}

	start := input.StartDate
	if start.IsZero() {
		start = now
	}
	if !input.EndDate.After(start) || !input.EndDate.After(now) {
		return nil, fmt.Errorf("%w: end date must be in the future and after the start date", ErrValidation)
	}

	slots := [models.MaxSurveyAnswers]string{}
	copy(slots[:], answers)
	survey := models.Survey{
		Question:  question,
		Answer1:   slots[0],
		Answer2:   slots[1],
		Answer3:   slots[2],
		Answer4:   slots[3],
		StartDate: start,
		EndDate:   input.EndDate,
		Status:    models.SurveyActive,
		CreatedBy: actorID,
	}
	if err := s.DB.Create(&survey).Error; err != nil {
		return nil, err
	}

	Logger.Info("surveys: %d created by owner %d, closes %s", survey.ID, actorID, survey.EndDate.Format(time.RFC3339))
	return &survey, nil
}

// 2 List closes expired surveys, then returns every survey with the owner's
// answer and the results of closed ones
func (s *SurveyService) List(ctx context.Context, ownerID uint) ([]SurveyView, error) {
	now := s.Now()
	if _, err := s.CloseExpired(ctx, now); err != nil {
		Logger.Warning("surveys: lazy close: %v", err)
	}

	var surveys []models.Survey
	if err := s.DB.WithContext(ctx).Order("end_date DESC, id DESC").Find(&surveys).Error; err != nil {
		return nil, err
	}

	var mine []models.OwnerSurvey
	if err := s.DB.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&mine).Error; err != nil {
		return nil, err
	}
	answered := make(map[uint]int, len(mine))
	for _, r := range mine {
		answered[r.SurveyID] = r.Answer
	}

	views := make([]SurveyView, 0, len(surveys))
	for i := range surveys {
		view := SurveyView{Survey: surveys[i]}
		if a, ok := answered[surveys[i].ID]; ok {
			answer := a
			view.MyAnswer = &answer
		}
		if surveys[i].Status == models.SurveyInactive {
			results, err := tally(s.DB.WithContext(ctx), &surveys[i])
			if err != nil {
				return nil, err
			}
			view.Results = results
		} else {
			view.CanRespond = view.MyAnswer == nil && surveyOpen(&surveys[i], now)
		}
		views = append(views, view)
	}
	return views, nil
}

func surveyOpen(survey *models.Survey, now time.Time) bool {
	return survey.Status == models.SurveyActive && !survey.Expired(now) && !now.Before(survey.StartDate)
}

// 3 Respond records the owner's answer (1-based)
func (s *SurveyService) Respond(ownerID, surveyID uint, answer int) (*models.OwnerSurvey, error) {
	now := s.Now()

	var response models.OwnerSurvey
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var survey models.Survey
		if err := tx.First(&survey, surveyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSurveyNotFound
			}
			return err
		}
		if !surveyOpen(&survey, now) {
			return ErrSurveyClosed
		}
		if !survey.ValidAnswer(answer) {
			return ErrInvalidAnswer
		}

		var count int64
		if err := tx.Model(&models.OwnerSurvey{}).
			Where("survey_id = ? AND owner_id = ?", surveyID, ownerID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyResponded
		}

		response = models.OwnerSurvey{SurveyID: surveyID, OwnerID: ownerID, Answer: answer}
		if err := tx.Create(&response).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyResponded
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// 4 Results tallies a survey
func (s *SurveyService) Results(surveyID uint) (*SurveyResults, error) {
	var survey models.Survey
	if err := s.DB.First(&survey, surveyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSurveyNotFound
		}
		return nil, err
	}
	return tally(s.DB, &survey)
}

type answerCount struct {
	Answer int
	Count  int64
}

// tally counts the answers of survey. Percentages are rounded to one decimal.
func tally(db *gorm.DB, survey *models.Survey) (*SurveyResults, error) {
	var counts []answerCount
	if err := db.Model(&models.OwnerSurvey{}).
		Select("answer, COUNT(*) AS count").
		Where("survey_id = ?", survey.ID).
		Group("answer").
		Scan(&counts).Error; err != nil {
		return nil, err
	}

	byAnswer := make(map[int]int64, len(counts))
	var total int64
	for _, c := range counts {
		byAnswer[c.Answer] = c.Count
		total += c.Count
	}

	results := &SurveyResults{SurveyID: survey.ID, Question: survey.Question, Total: total}
	for i, text := range survey.Answers() {
		if text == "" {
			continue
		}
		r := AnswerResult{Answer: i + 1, Text: text, Count: byAnswer[i+1]}
		if total > 0 {
			r.Percentage = math.Round(float64(r.Count)*1000/float64(total)) / 10
		}
		results.Answers = append(results.Answers, r)
	}
	return results, nil
}

// 5 CloseExpired closes every active survey past its end date. The close is
// claimed by a conditional update, so only one caller broadcasts the results
// even when the job and the lazy path race.
func (s *SurveyService) CloseExpired(ctx context.Context, now time.Time) (*BatchResult, error) {
	var ids []uint
	if err := s.DB.WithContext(ctx).Model(&models.Survey{}).
		Where("status = ? AND end_date < ?", models.SurveyActive, now).
		Order("end_date").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return &BatchResult{Errors: map[uint]string{}, Notifications: NewNotificationReport()}, nil
	}

	return RunBatch(ctx, s.DB, ids, func(tx *gorm.DB, id uint) (AfterCommit, error) {
		claim := tx.Model(&models.Survey{}).
			Where("id = ? AND results_sent = ?", id, false).
			Updates(map[string]interface{}{
				"status":       models.SurveyInactive,
				"results_sent": true,
			})
		if claim.Error != nil {
			return nil, claim.Error
		}
		if claim.RowsAffected != 1 {
			return nil, ErrSkipped
		}

		var survey models.Survey
		if err := tx.First(&survey, id).Error; err != nil {
			return nil, err
		}
		results, err := tally(tx, &survey)
		if err != nil {
			return nil, err
		}

		recipients, err := registeredOwnerIDs(tx)
		if err != nil {
			return nil, err
		}
		if _, err := s.Messages.SendSystemTx(tx, recipients, "Survey results: "+survey.Question, resultsText(results)); err != nil {
			return nil, err
		}

		Logger.Info("surveys: %d closed with %d responses", id, results.Total)
		return func(ctx context.Context) *NotificationReport {
			return s.Notifier.Notify(ctx, models.CategorySurveys, recipients, mail.TemplateSurveyResults, resultsData(results))
		}, nil
	})
}

func resultsText(r *SurveyResults) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The survey %q has closed with %d responses.\n", r.Question, r.Total)
	for _, a := range r.Answers {
		fmt.Fprintf(&b, "\n%s: %d (%.1f%%)", a.Text, a.Count, a.Percentage)
	}
	return b.String()
}

func resultsData(r *SurveyResults) map[string]interface{} {
	rows := make([]map[string]interface{}, 0, len(r.Answers))
	for _, a := range r.Answers {
		rows = append(rows, map[string]interface{}{
			"answer":     a.Text,
			"count":      a.Count,
			"percentage": fmt.Sprintf("%.1f", a.Percentage),
		})
	}
	return map[string]interface{}{
		"question": r.Question,
		"total":    r.Total,
		"results":  rows,
	}
}
