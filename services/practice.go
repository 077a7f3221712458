package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/navia-app/navia/models"
	"github.com/navia-app/navia/utils"
)

// ErrStatNotFound means no daily stat exists for the (user, date) pair.
var ErrStatNotFound = errors.New("daily stat not found")

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 365
)

// PracticeService owns the daily stat table and the streak engine.
type PracticeService struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

// NewPracticeService creates a service; loc decides which calendar date "today" is.
func NewPracticeService(db *gorm.DB, loc *time.Location) *PracticeService {
	if loc == nil {
		loc = time.Local
	}
	return &PracticeService{db: db, loc: loc, now: time.Now}
}

// Location returns the timezone used for calendar dates.
func (s *PracticeService) Location() *time.Location { return s.loc }

// Today returns midnight of the current date in the service location.
func (s *PracticeService) Today() time.Time {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc)
}

// dayKey maps a date onto the stored column value. The zero time means today.
func (s *PracticeService) dayKey(date time.Time) string {
	if date.IsZero() {
		date = s.now()
	}
	return models.DateKey(date.In(s.loc))
}

// Get returns the stat for the date or ErrStatNotFound.
func (s *PracticeService) Get(ctx context.Context, userID uint, date time.Time) (*models.DailyStat, error) {
	return findStat(s.db.WithContext(ctx), userID, s.dayKey(date))
}

func findStat(db *gorm.DB, userID uint, day string) (*models.DailyStat, error) {
	var stat models.DailyStat
	err := db.Where("user_id = ? AND date = ?", userID, day).First(&stat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load daily stat %s: %w", day, err)
	}
	return &stat, nil
}

// GetOrCreate returns the stat for the date, creating it when missing.
// A new row starts with nothing answered and the most recent earlier non-zero goal.
func (s *PracticeService) GetOrCreate(ctx context.Context, userID uint, date time.Time) (*models.DailyStat, error) {
	db := s.db.WithContext(ctx)
	day := s.dayKey(date)

	stat, err := findStat(db, userID, day)
	if err == nil {
		return stat, nil
	}
	if !errors.Is(err, ErrStatNotFound) {
		return nil, err
	}

	goal, err := latestGoal(db, userID, day)
	if err != nil {
		return nil, err
	}
	return insertOrGet(db, &models.DailyStat{UserID: userID, Date: day, Goal: goal})
}

// insertOrGet inserts the row unless (user_id, date) already exists, in which case
// the row written by the concurrent creator is returned.
func insertOrGet(db *gorm.DB, stat *models.DailyStat) (*models.DailyStat, error) {
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(stat)
	if res.Error != nil && !utils.IsUniqueViolation(res.Error) {
		return nil, fmt.Errorf("create daily stat %s: %w", stat.Date, res.Error)
	}
	if res.Error != nil || res.RowsAffected == 0 {
		utils.Sugar.Debugf("daily stat user=%d date=%s created concurrently, reloading", stat.UserID, stat.Date)
		return findStat(db, stat.UserID, stat.Date)
	}
	return stat, nil
}

// LatestGoal returns the most recent non-zero goal set strictly before date, or 0.
func (s *PracticeService) LatestGoal(ctx context.Context, userID uint, before time.Time) (int, error) {
	return latestGoal(s.db.WithContext(ctx), userID, s.dayKey(before))
}

func latestGoal(db *gorm.DB, userID uint, before string) (int, error) {
	var goals []int
	err := db.Model(&models.DailyStat{}).
		Where("user_id = ? AND date < ? AND goal > 0", userID, before).
		Order("date DESC").
		Limit(1).
		Pluck("goal", &goals).Error
	if err != nil {
		return 0, fmt.Errorf("load latest goal: %w", err)
	}
	if len(goals) == 0 {
		return 0, nil
	}
	return goals[0], nil
}

// Update applies the patch to an existing row. Only patched columns are written.
func (s *PracticeService) Update(ctx context.Context, userID uint, date time.Time, patch models.DailyStatPatch) (*models.DailyStat, error) {
	db := s.db.WithContext(ctx)
	stat, err := findStat(db, userID, s.dayKey(date))
	if err != nil {
		return nil, err
	}
	cols := patch.Apply(stat)
	if len(cols) == 0 {
		return stat, nil
	}
	if err := db.Model(stat).Updates(cols).Error; err != nil {
		return nil, fmt.Errorf("update daily stat %s: %w", stat.Date, err)
	}
	return stat, nil
}

// CalculateStreak counts consecutive goal-met days ending at the last finished day on
// or before date. Days without a goal are ignored; they neither extend nor break a run.
// Gaps in the calendar are not treated as misses.
func (s *PracticeService) CalculateStreak(ctx context.Context, userID uint, date time.Time) (int, error) {
	var rows []models.DailyStat
	err := s.db.WithContext(ctx).
		Select("date", "goal", "answered").
		Where("user_id = ? AND date <= ? AND goal > 0", userID, s.dayKey(date)).
		Order("date DESC").
		Find(&rows).Error
	if err != nil {
		return 0, fmt.Errorf("load streak history: %w", err)
	}
	return streakFrom(rows), nil
}

// streakFrom expects goal > 0 rows ordered newest first. Unmet days at the head are
// skipped so an in-progress day reports the streak of the previous finished one.
func streakFrom(rows []models.DailyStat) int {
	if len(rows) == 0 {
		return 0
	}
	if !rows[0].GoalMet() {
		return streakFrom(rows[1:])
	}
	n := 0
	for _, r := range rows {
		if !r.GoalMet() {
			break
		}
		n++
	}
	return n
}

// RefreshStreak stores the computed streak on the row for date when it drifted.
// It writes at most one column and returns nil, nil when the row does not exist.
func (s *PracticeService) RefreshStreak(ctx context.Context, userID uint, date time.Time) (*models.DailyStat, error) {
	streak, err := s.CalculateStreak(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	stat, err := findStat(db, userID, s.dayKey(date))
	if errors.Is(err, ErrStatNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if stat.Streak == streak {
		return stat, nil
	}
	if err := db.Model(stat).UpdateColumn("streak", streak).Error; err != nil {
		return nil, fmt.Errorf("refresh streak %s: %w", stat.Date, err)
	}
	stat.Streak = streak
	return stat, nil
}

// History returns up to limit most recent rows, newest first, each with a refreshed streak.
func (s *PracticeService) History(ctx context.Context, userID uint, limit int) ([]models.DailyStat, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	var rows []models.DailyStat
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	for i := range rows {
		date, err := models.ParseDate(rows[i].Date, s.loc)
		if err != nil {
			return nil, fmt.Errorf("stored date %q: %w", rows[i].Date, err)
		}
		refreshed, err := s.RefreshStreak(ctx, userID, date)
		if err != nil {
			return nil, err
		}
		if refreshed != nil {
			rows[i] = *refreshed
		}
	}
	return rows, nil
}

// SetGoal sets the goal for date and refreshes the streak.
func (s *PracticeService) SetGoal(ctx context.Context, userID uint, date time.Time, goal int) (*models.DailyStat, error) {
	if goal < 0 {
		return nil, fmt.Errorf("goal must not be negative: %d", goal)
	}
	return s.modify(ctx, userID, date, func(stat *models.DailyStat) models.DailyStatPatch {
		return models.DailyStatPatch{Goal: &goal}
	})
}

// AddAnswers increments the answered counter. Answered never decreases.
func (s *PracticeService) AddAnswers(ctx context.Context, userID uint, date time.Time, increment int) (*models.DailyStat, error) {
	if increment < 1 {
		return nil, fmt.Errorf("increment must be positive: %d", increment)
	}
	return s.modify(ctx, userID, date, func(stat *models.DailyStat) models.DailyStatPatch {
		answered := stat.Answered + increment
		return models.DailyStatPatch{Answered: &answered}
	})
}

// AddScore adds points to the day's score.
func (s *PracticeService) AddScore(ctx context.Context, userID uint, date time.Time, points int) (*models.DailyStat, error) {
	return s.modify(ctx, userID, date, func(stat *models.DailyStat) models.DailyStatPatch {
		score := stat.Score + points
		return models.DailyStatPatch{Score: &score}
	})
}

// modify runs get-or-create, then a locked read-patch-write, then a streak refresh.
func (s *PracticeService) modify(ctx context.Context, userID uint, date time.Time, build func(*models.DailyStat) models.DailyStatPatch) (*models.DailyStat, error) {
	if _, err := s.GetOrCreate(ctx, userID, date); err != nil {
		return nil, err
	}
	day := s.dayKey(date)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stat, err := findStat(tx.Clauses(clause.Locking{Strength: "UPDATE"}), userID, day)
		if err != nil {
			return err
		}
		cols := build(stat).Apply(stat)
		if len(cols) == 0 {
			return nil
		}
		return tx.Model(stat).Updates(cols).Error
	})
	if err != nil {
		return nil, fmt.Errorf("modify daily stat %s: %w", day, err)
	}
	return s.RefreshStreak(ctx, userID, date)
}

// RefreshDay refreshes the streak of every row stored for date and returns how many changed.
func (s *PracticeService) RefreshDay(ctx context.Context, date time.Time) (int, error) {
	var userIDs []uint
	if err := s.db.WithContext(ctx).Model(&models.DailyStat{}).
		Where("date = ?", s.dayKey(date)).
		Pluck("user_id", &userIDs).Error; err != nil {
		return 0, fmt.Errorf("list users for %s: %w", s.dayKey(date), err)
	}
	changed := 0
	for _, id := range userIDs {
		before, err := s.Get(ctx, id, date)
		if err != nil {
			return changed, err
		}
		after, err := s.RefreshStreak(ctx, id, date)
		if err != nil {
			return changed, err
		}
		if after != nil && after.Streak != before.Streak {
			changed++
		}
	}
	return changed, nil
}
