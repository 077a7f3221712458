package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SolutionLine is one line of a reference solution and its indentation depth.
type SolutionLine struct {
	Text        string `json:"text"`
	IndentLevel int    `json:"indentLevel"`
}

// Blind75Problem is a coding problem of the technical practice bank.
type Blind75Problem struct {
	ID              string         `gorm:"primaryKey;size:36" json:"id"`
	Title           string         `gorm:"size:255;not null;uniqueIndex" json:"title"`
	ProblemType     string         `gorm:"size:64;not null" json:"type"`
	Difficulty      string         `gorm:"size:16;not null" json:"difficulty"`
	TimeComplexity  string         `gorm:"size:32;not null" json:"time"`
	SpaceComplexity string         `gorm:"size:32;not null" json:"space"`
	Prompt          string         `gorm:"type:text;not null" json:"prompt"`
	Solution        datatypes.JSON `gorm:"not null" json:"solution"`
}

func (p *Blind75Problem) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Lines decodes the stored solution.
func (p *Blind75Problem) Lines() ([]SolutionLine, error) {
	var lines []SolutionLine
	if len(p.Solution) == 0 {
		return lines, nil
	}
	if err := json.Unmarshal(p.Solution, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// WrongSubmission records a bank problem the user got wrong.
type WrongSubmission struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	ProblemType string    `gorm:"size:64;not null" json:"problem_type"`
	Difficulty  string    `gorm:"size:16" json:"difficulty"`
	Status      string    `gorm:"size:16;not null;default:wrong" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func (w *WrongSubmission) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.Status == "" {
		w.Status = "wrong"
	}
	return nil
}
