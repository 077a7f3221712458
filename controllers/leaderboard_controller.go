package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/navia-app/navia/services"
	"github.com/navia-app/navia/utils"
)

// LeaderboardController exposes the streak and points rankings.
type LeaderboardController struct {
	leaderboard *services.LeaderboardService
}

// NewLeaderboardController creates a LeaderboardController.
func NewLeaderboardController(leaderboard *services.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{leaderboard: leaderboard}
}

// Streaks ranks users by current streak.
func (l *LeaderboardController) Streaks(ctx *gin.Context) {
	entries, err := l.leaderboard.Streaks(ctx.Request.Context(), parseLimit(ctx, 10, 100))
	if err != nil {
		utils.InternalError(ctx, 50080, "failed to load streak leaderboard", err)
		return
	}
	utils.Success(ctx, entries)
}

// Points ranks users by total score.
func (l *LeaderboardController) Points(ctx *gin.Context) {
	entries, err := l.leaderboard.Points(ctx.Request.Context(), parseLimit(ctx, 10, 100))
	if err != nil {
		utils.InternalError(ctx, 50081, "failed to load points leaderboard", err)
		return
	}
	utils.Success(ctx, entries)
}
