package models

import (
	"time"

	"gorm.io/datatypes"
)

// Questionnaire stores a user's onboarding answers. Answers is free-form JSON keyed by question.
type Questionnaire struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	CareerGoal      string         `gorm:"size:128" json:"career_goal"`
	ExperienceLevel string         `gorm:"size:32" json:"experience_level"`
	Answers         datatypes.JSON `json:"answers"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
