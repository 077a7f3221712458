package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/navia-app/navia/models"
	"github.com/navia-app/navia/utils"
)

var (
	ErrProblemBankEmpty = errors.New("problem bank is empty")
	ErrInvalidProblem   = errors.New("invalid problem")
)

// WrongInput describes a bank problem the user failed.
type WrongInput struct {
	Title       string `json:"title" binding:"required,max=255"`
	ProblemType string `json:"problem_type" binding:"required,max=64"`
	Difficulty  string `json:"difficulty" binding:"max=16"`
}

// ProblemService serves the Blind 75 bank and the user's wrong answers.
type ProblemService struct {
	db   *gorm.DB
	intn func(int) int
}

func NewProblemService(db *gorm.DB) *ProblemService {
	return &ProblemService{db: db, intn: rand.IntN}
}

// Random returns one problem picked uniformly from the bank.
func (s *ProblemService) Random(ctx context.Context) (*models.Blind75Problem, error) {
	db := s.db.WithContext(ctx)
	var n int64
	if err := db.Model(&models.Blind75Problem{}).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("count problems: %w", err)
	}
	if n == 0 {
		return nil, ErrProblemBankEmpty
	}
	var p models.Blind75Problem
	err := db.Order("title").Offset(s.intn(int(n))).Limit(1).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// bank shrank between count and read
		return nil, ErrProblemBankEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("load problem: %w", err)
	}
	return &p, nil
}

// RecordWrong stores a failed attempt for userID.
func (s *ProblemService) RecordWrong(ctx context.Context, userID uint, in WrongInput) (*models.WrongSubmission, error) {
	db := s.db.WithContext(ctx)
	var n int64
	if err := db.Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if n == 0 {
		return nil, ErrUserNotFound
	}
	w := models.WrongSubmission{
		UserID:      userID,
		Title:       utils.SanitizeText(in.Title),
		ProblemType: utils.SanitizeText(in.ProblemType),
		Difficulty:  utils.SanitizeText(in.Difficulty),
	}
	if w.Title == "" || w.ProblemType == "" {
		return nil, fmt.Errorf("%w: title and problem_type are required", ErrInvalidProblem)
	}
	if err := db.Create(&w).Error; err != nil {
		return nil, fmt.Errorf("record wrong submission: %w", err)
	}
	return &w, nil
}

// ListWrong returns the user's wrong submissions, newest first.
func (s *ProblemService) ListWrong(ctx context.Context, userID uint) ([]models.WrongSubmission, error) {
	out := []models.WrongSubmission{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list wrong submissions: %w", err)
	}
	return out, nil
}

// ImportJSON reads a JSON array of problems and upserts them by title.
func (s *ProblemService) ImportJSON(ctx context.Context, r io.Reader) (int, error) {
	var problems []models.Blind75Problem
	if err := json.NewDecoder(r).Decode(&problems); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidProblem, err)
	}
	return s.Import(ctx, problems)
}

// Import upserts the problems by title in one transaction and returns how many were written.
func (s *ProblemService) Import(ctx context.Context, problems []models.Blind75Problem) (int, error) {
	for i := range problems {
		p := &problems[i]
		p.ID = ""
		p.Title = strings.TrimSpace(p.Title)
		if p.Title == "" || p.ProblemType == "" || p.Difficulty == "" {
			return 0, fmt.Errorf("%w: entry %d needs title, type and difficulty", ErrInvalidProblem, i)
		}
		lines, err := p.Lines()
		if err != nil || len(lines) == 0 {
			return 0, fmt.Errorf("%w: %q has no readable solution", ErrInvalidProblem, p.Title)
		}
	}
	if len(problems) == 0 {
		return 0, nil
	}
	var written int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "title"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"problem_type", "difficulty", "time_complexity", "space_complexity", "prompt", "solution",
			}),
		}).CreateInBatches(&problems, 100)
		written = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("import problems: %w", err)
	}
	return int(written), nil
}
