package models

import "time"

// DateLayout is the calendar date format stored in DailyStat.Date.
// Fixed-width ISO dates sort lexicographically, so range filters work the same on every driver.
const DateLayout = "2006-01-02"

// DailyStat is one user's practice record for one calendar date.
// Streak is a cached value derived from the user's history.
type DailyStat struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_daily_stats_user_date,priority:1" json:"user_id"`
	Date      string    `gorm:"size:10;not null;uniqueIndex:idx_daily_stats_user_date,priority:2" json:"date"`
	Goal      int       `gorm:"not null;default:0" json:"goal"`
	Answered  int       `gorm:"not null;default:0" json:"answered"`
	Score     int       `gorm:"not null;default:0" json:"score"`
	Streak    int       `gorm:"not null;default:0" json:"streak"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GoalMet reports whether a goal was set and reached. A zero goal never counts.
func (s DailyStat) GoalMet() bool {
	return s.Goal > 0 && s.Answered >= s.Goal
}

// DailyStatPatch lists the fields a caller wants to change; nil means untouched.
type DailyStatPatch struct {
	Goal     *int `json:"goal,omitempty"`
	Answered *int `json:"answered,omitempty"`
	Score    *int `json:"score,omitempty"`
	Streak   *int `json:"streak,omitempty"`
}

// Apply merges the patch into s and returns the column assignments that changed.
func (p DailyStatPatch) Apply(s *DailyStat) map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Goal != nil {
		s.Goal = *p.Goal
		cols["goal"] = *p.Goal
	}
	if p.Answered != nil {
		s.Answered = *p.Answered
		cols["answered"] = *p.Answered
	}
	if p.Score != nil {
		s.Score = *p.Score
		cols["score"] = *p.Score
	}
	if p.Streak != nil {
		s.Streak = *p.Streak
		cols["streak"] = *p.Streak
	}
	return cols
}

// DateKey formats t as a calendar date in t's own location.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}
