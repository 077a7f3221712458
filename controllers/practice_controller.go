package controllers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/navia-app/navia/models"
	"github.com/navia-app/navia/services"
	"github.com/navia-app/navia/utils"
)

// PracticeController serves daily practice stats and streaks.
type PracticeController struct {
	practice     *services.PracticeService
	users        *services.UserService
	leaderboard  *services.LeaderboardService
	historyLimit int
}

// NewPracticeController creates a PracticeController.
func NewPracticeController(practice *services.PracticeService, users *services.UserService, leaderboard *services.LeaderboardService, historyLimit int) *PracticeController {
	if historyLimit <= 0 {
		historyLimit = 30
	}
	return &PracticeController{practice: practice, users: users, leaderboard: leaderboard, historyLimit: historyLimit}
}

// target resolves :user_id. Writes are only allowed on the caller's own stats.
func (p *PracticeController) target(ctx *gin.Context, write bool) (uint, bool) {
	userID, ok := parseIDParam(ctx, "user_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40070, "invalid user id")
		return 0, false
	}
	if write {
		caller, ok := getUserID(ctx)
		if !ok {
			utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
			return 0, false
		}
		if caller != userID {
			utils.Error(ctx, http.StatusForbidden, 40370, "cannot modify another user's practice")
			return 0, false
		}
	}
	exists, err := p.users.Exists(ctx.Request.Context(), userID)
	if err != nil {
		utils.InternalError(ctx, 50070, "failed to load user", err)
		return 0, false
	}
	if !exists {
		utils.Error(ctx, http.StatusNotFound, 40470, "user not found")
		return 0, false
	}
	return userID, true
}

func (p *PracticeController) date(ctx *gin.Context) (time.Time, bool) {
	d, err := parseDateQuery(ctx, p.practice.Location())
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40071, "invalid date, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

// UpdateGoal sets the goal for a day (today by default).
func (p *PracticeController) UpdateGoal(ctx *gin.Context) {
	userID, ok := p.target(ctx, true)
	if !ok {
		return
	}
	date, ok := p.date(ctx)
	if !ok {
		return
	}
	var req struct {
		Goal *int `json:"goal" binding:"required,min=0,max=1000"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40072, "invalid request payload")
		return
	}
	stat, err := p.practice.SetGoal(ctx.Request.Context(), userID, date, *req.Goal)
	p.respondWrite(ctx, stat, err)
}

// AddAnswers increments the answered counter (?increment=, default 1).
func (p *PracticeController) AddAnswers(ctx *gin.Context) {
	userID, ok := p.target(ctx, true)
	if !ok {
		return
	}
	date, ok := p.date(ctx)
	if !ok {
		return
	}
	increment := 1
	if raw := strings.TrimSpace(ctx.Query("increment")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			utils.Error(ctx, http.StatusBadRequest, 40073, "increment must be a positive integer")
			return
		}
		increment = n
	}
	stat, err := p.practice.AddAnswers(ctx.Request.Context(), userID, date, increment)
	p.respondWrite(ctx, stat, err)
}

// AddScore adds ?score_increment= points to the day's score.
func (p *PracticeController) AddScore(ctx *gin.Context) {
	userID, ok := p.target(ctx, true)
	if !ok {
		return
	}
	date, ok := p.date(ctx)
	if !ok {
		return
	}
	points, err := strconv.Atoi(strings.TrimSpace(ctx.Query("score_increment")))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40074, "score_increment is required")
		return
	}
	stat, err := p.practice.AddScore(ctx.Request.Context(), userID, date, points)
	p.respondWrite(ctx, stat, err)
}

func (p *PracticeController) respondWrite(ctx *gin.Context, stat *models.DailyStat, err error) {
	if err != nil {
		utils.InternalError(ctx, 50071, "failed to update daily stat", err)
		return
	}
	if stat == nil {
		utils.Error(ctx, http.StatusNotFound, 40471, "could not update daily stat")
		return
	}
	if p.leaderboard != nil {
		p.leaderboard.Invalidate(context.WithoutCancel(ctx.Request.Context()))
	}
	utils.Success(ctx, stat)
}

// GetGoal returns the day's stat, creating it with the carried-forward goal when missing.
func (p *PracticeController) GetGoal(ctx *gin.Context) {
	userID, ok := p.target(ctx, false)
	if !ok {
		return
	}
	date, ok := p.date(ctx)
	if !ok {
		return
	}
	stat, err := p.practice.GetOrCreate(ctx.Request.Context(), userID, date)
	if err != nil {
		utils.InternalError(ctx, 50072, "failed to load daily stat", err)
		return
	}
	utils.Success(ctx, stat)
}

// Today returns today's stat with a refreshed streak.
func (p *PracticeController) Today(ctx *gin.Context) {
	userID, ok := p.target(ctx, false)
	if !ok {
		return
	}
	c := ctx.Request.Context()
	if _, err := p.practice.GetOrCreate(c, userID, time.Time{}); err != nil {
		utils.InternalError(ctx, 50072, "failed to load daily stat", err)
		return
	}
	stat, err := p.practice.RefreshStreak(c, userID, time.Time{})
	if err != nil {
		utils.InternalError(ctx, 50073, "failed to refresh streak", err)
		return
	}
	utils.Success(ctx, stat)
}

// Streak returns the current streak.
func (p *PracticeController) Streak(ctx *gin.Context) {
	userID, ok := p.target(ctx, false)
	if !ok {
		return
	}
	streak, err := p.practice.CalculateStreak(ctx.Request.Context(), userID, time.Time{})
	if err != nil {
		utils.InternalError(ctx, 50074, "failed to calculate streak", err)
		return
	}
	utils.Success(ctx, gin.H{"user_id": userID, "current_streak": streak})
}

// History returns recent days, newest first, with refreshed streaks.
func (p *PracticeController) History(ctx *gin.Context) {
	userID, ok := p.target(ctx, false)
	if !ok {
		return
	}
	stats, err := p.practice.History(ctx.Request.Context(), userID, parseLimit(ctx, p.historyLimit, 365))
	if err != nil {
		utils.InternalError(ctx, 50075, "failed to load history", err)
		return
	}
	utils.Success(ctx, stats)
}

// Export downloads the history as an xlsx workbook.
func (p *PracticeController) Export(ctx *gin.Context) {
	userID, ok := p.target(ctx, false)
	if !ok {
		return
	}
	stats, err := p.practice.History(ctx.Request.Context(), userID, parseLimit(ctx, 365, 365))
	if err != nil {
		utils.InternalError(ctx, 50075, "failed to load history", err)
		return
	}
	sendXLSX(ctx, fmt.Sprintf("practice-%d.xlsx", userID), func(buf *bytes.Buffer) error {
		return services.WritePracticeXLSX(buf, stats)
	})
}

// ByDate returns the stat stored for :date without creating it.
func (p *PracticeController) ByDate(ctx *gin.Context) {
	userID, ok := p.target(ctx, false)
	if !ok {
		return
	}
	date, err := models.ParseDate(ctx.Param("date"), p.practice.Location())
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40071, "invalid date, expected YYYY-MM-DD")
		return
	}
	stat, err := p.practice.Get(ctx.Request.Context(), userID, date)
	if errors.Is(err, services.ErrStatNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40472, "no statistics found for this date")
		return
	}
	if err != nil {
		utils.InternalError(ctx, 50072, "failed to load daily stat", err)
		return
	}
	utils.Success(ctx, stat)
}
