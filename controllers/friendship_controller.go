package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/navia-app/navia/models"
	"github.com/navia-app/navia/services"
	"github.com/navia-app/navia/utils"
)

// FriendshipController manages follow relationships and user search.
type FriendshipController struct {
	social *services.SocialService
}

// NewFriendshipController creates a FriendshipController.
func NewFriendshipController(social *services.SocialService) *FriendshipController {
	return &FriendshipController{social: social}
}

// Follow makes the caller follow following_id.
func (f *FriendshipController) Follow(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	var req struct {
		FollowingID uint `json:"following_id" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid request payload")
		return
	}
	follow, err := f.social.Follow(ctx.Request.Context(), userID, req.FollowingID)
	switch {
	case errors.Is(err, services.ErrSelfFollow):
		utils.Error(ctx, http.StatusBadRequest, 40061, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		utils.Error(ctx, http.StatusNotFound, 40460, err.Error())
	case errors.Is(err, services.ErrAlreadyFollowing):
		utils.Error(ctx, http.StatusConflict, 40960, err.Error())
	case err != nil:
		utils.InternalError(ctx, 50060, "failed to follow user", err)
	default:
		utils.Success(ctx, follow)
	}
}

// Unfollow removes the caller's follow of :following_id.
func (f *FriendshipController) Unfollow(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	followingID, ok := parseIDParam(ctx, "following_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40062, "invalid user id")
		return
	}
	err := f.social.Unfollow(ctx.Request.Context(), userID, followingID)
	if errors.Is(err, services.ErrNotFollowing) {
		utils.Error(ctx, http.StatusNotFound, 40461, err.Error())
		return
	}
	if err != nil {
		utils.InternalError(ctx, 50061, "failed to unfollow user", err)
		return
	}
	utils.Success(ctx, gin.H{"message": "unfollowed successfully"})
}

// Followers lists users following :user_id.
func (f *FriendshipController) Followers(ctx *gin.Context) {
	userID, ok := parseIDParam(ctx, "user_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40062, "invalid user id")
		return
	}
	users, err := f.social.Followers(ctx.Request.Context(), userID)
	if err != nil {
		utils.InternalError(ctx, 50062, "failed to load followers", err)
		return
	}
	utils.Success(ctx, summaries(users))
}

// Following lists users :user_id follows.
func (f *FriendshipController) Following(ctx *gin.Context) {
	userID, ok := parseIDParam(ctx, "user_id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40062, "invalid user id")
		return
	}
	users, err := f.social.Following(ctx.Request.Context(), userID)
	if err != nil {
		utils.InternalError(ctx, 50063, "failed to load following", err)
		return
	}
	utils.Success(ctx, summaries(users))
}

// IsFollowing reports whether :user_id follows :other_id.
func (f *FriendshipController) IsFollowing(ctx *gin.Context) {
	followerID, ok1 := parseIDParam(ctx, "user_id")
	followingID, ok2 := parseIDParam(ctx, "other_id")
	if !ok1 || !ok2 {
		utils.Error(ctx, http.StatusBadRequest, 40062, "invalid user id")
		return
	}
	following, err := f.social.IsFollowing(ctx.Request.Context(), followerID, followingID)
	if err != nil {
		utils.InternalError(ctx, 50064, "failed to check follow status", err)
		return
	}
	utils.Success(ctx, gin.H{"is_following": following})
}

// Search finds users by ?q= and ?career_goal=.
func (f *FriendshipController) Search(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	found, err := f.social.Search(ctx.Request.Context(), userID, services.SearchQuery{
		Term:       ctx.Query("q"),
		CareerGoal: ctx.Query("career_goal"),
		Limit:      parseLimit(ctx, 20, 100),
	})
	if err != nil {
		utils.InternalError(ctx, 50065, "failed to search users", err)
		return
	}
	utils.Success(ctx, found)
}

func summaries(users []models.User) []services.UserSummary {
	out := make([]services.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, services.Summarize(u, false))
	}
	return out
}
