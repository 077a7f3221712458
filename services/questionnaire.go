package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/navia-app/navia/models"
	"github.com/navia-app/navia/utils"
)

var (
	ErrQuestionnaireNotFound = errors.New("questionnaire not found")
	ErrInvalidAnswers        = errors.New("answers are not valid JSON")
)

// QuestionnaireInput is the full set of onboarding answers.
type QuestionnaireInput struct {
	CareerGoal      string          `json:"career_goal" binding:"required,max=128"`
	ExperienceLevel string          `json:"experience_level" binding:"omitempty,oneof=student entry mid senior"`
	Answers         json.RawMessage `json:"answers"`
}

// QuestionnaireService stores one questionnaire per user.
type QuestionnaireService struct {
	db *gorm.DB
}

func NewQuestionnaireService(db *gorm.DB) *QuestionnaireService {
	return &QuestionnaireService{db: db}
}

// Save inserts or replaces the user's questionnaire and mirrors the career goal onto the user.
func (s *QuestionnaireService) Save(ctx context.Context, userID uint, in QuestionnaireInput) (*models.Questionnaire, error) {
	answers := datatypes.JSON("{}")
	if len(in.Answers) > 0 {
		if !json.Valid(in.Answers) {
			return nil, ErrInvalidAnswers
		}
		answers = datatypes.JSON(in.Answers)
	}
	q := models.Questionnaire{
		UserID:          userID,
		CareerGoal:      utils.SanitizeText(in.CareerGoal),
		ExperienceLevel: in.ExperienceLevel,
		Answers:         answers,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"career_goal", "experience_level", "answers", "updated_at"}),
		}).Create(&q).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Update("career_goal", q.CareerGoal).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save questionnaire: %w", err)
	}
	return s.Get(ctx, userID)
}

// Get returns the user's questionnaire.
func (s *QuestionnaireService) Get(ctx context.Context, userID uint) (*models.Questionnaire, error) {
	var q models.Questionnaire
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrQuestionnaireNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load questionnaire: %w", err)
	}
	return &q, nil
}

// Delete removes the user's questionnaire. The career goal on the user is kept.
func (s *QuestionnaireService) Delete(ctx context.Context, userID uint) error {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Questionnaire{})
	if res.Error != nil {
		return fmt.Errorf("delete questionnaire: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrQuestionnaireNotFound
	}
	return nil
}
