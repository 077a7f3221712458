package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/navia-app/navia/models"
	"github.com/navia-app/navia/utils"
)

const leaderboardCachePrefix = "cache:leaderboard:"

// LeaderboardEntry is one ranked user. Only one of Streak and TotalPoints is filled.
type LeaderboardEntry struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	Avatar      string `json:"avatar"`
	CareerGoal  string `json:"career_goal"`
	Streak      int    `json:"streak,omitempty"`
	TotalPoints int64  `json:"total_points,omitempty"`
}

// LeaderboardService ranks users by current streak and by accumulated points.
type LeaderboardService struct {
	db       *gorm.DB
	practice *PracticeService
	cache    *utils.Cache
	ttl      time.Duration
}

func NewLeaderboardService(db *gorm.DB, practice *PracticeService, cache *utils.Cache, ttl time.Duration) *LeaderboardService {
	return &LeaderboardService{db: db, practice: practice, cache: cache, ttl: ttl}
}

// Streaks returns users with a current streak above zero, longest first.
func (l *LeaderboardService) Streaks(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	today := l.practice.dayKey(time.Time{})
	key := fmt.Sprintf("%sstreaks:%s:%d", leaderboardCachePrefix, today, limit)
	var entries []LeaderboardEntry
	if l.cache.GetJSON(ctx, key, &entries) {
		return entries, nil
	}

	var rows []models.DailyStat
	if err := l.db.WithContext(ctx).
		Select("user_id", "date", "goal", "answered").
		Where("date <= ? AND goal > 0", today).
		Order("user_id ASC").Order("date DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load streak rows: %w", err)
	}

	streaks := map[uint]int{}
	for start := 0; start < len(rows); {
		end := start
		for end < len(rows) && rows[end].UserID == rows[start].UserID {
			end++
		}
		if n := streakFrom(rows[start:end]); n > 0 {
			streaks[rows[start].UserID] = n
		}
		start = end
	}

	entries = []LeaderboardEntry{}
	if len(streaks) > 0 {
		ids := make([]uint, 0, len(streaks))
		for id := range streaks {
			ids = append(ids, id)
		}
		var users []models.User
		if err := l.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
			return nil, fmt.Errorf("load leaderboard users: %w", err)
		}
		for _, u := range users {
			entries = append(entries, LeaderboardEntry{
				UserID:     u.ID,
				Username:   u.Username,
				Avatar:     u.Avatar,
				CareerGoal: u.CareerGoal,
				Streak:     streaks[u.ID],
			})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Streak != entries[j].Streak {
			return entries[i].Streak > entries[j].Streak
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	l.cache.SetJSON(ctx, key, entries, l.ttl)
	return entries, nil
}

// Points returns users by total score over their whole history, highest first.
func (l *LeaderboardService) Points(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	key := fmt.Sprintf("%spoints:%d", leaderboardCachePrefix, limit)
	var entries []LeaderboardEntry
	if l.cache.GetJSON(ctx, key, &entries) {
		return entries, nil
	}

	entries = []LeaderboardEntry{}
	err := l.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.id AS user_id, users.username, users.avatar, users.career_goal, SUM(daily_stats.score) AS total_points").
		Joins("JOIN daily_stats ON daily_stats.user_id = users.id").
		Group("users.id, users.username, users.avatar, users.career_goal").
		Having("SUM(daily_stats.score) > 0").
		Order("total_points DESC").Order("users.id ASC").
		Limit(limit).
		Scan(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load points leaderboard: %w", err)
	}

	l.cache.SetJSON(ctx, key, entries, l.ttl)
	return entries, nil
}

// Invalidate drops every cached leaderboard.
func (l *LeaderboardService) Invalidate(ctx context.Context) {
	l.cache.InvalidateByPrefix(ctx, leaderboardCachePrefix)
}
