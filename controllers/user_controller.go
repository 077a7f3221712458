package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/navia-app/navia/services"
	"github.com/navia-app/navia/utils"
)

// UserController serves public profiles and account removal.
type UserController struct {
	users  *services.UserService
	social *services.SocialService
	auth   *AuthController
}

func NewUserController(users *services.UserService, social *services.SocialService, auth *AuthController) *UserController {
	return &UserController{users: users, social: social, auth: auth}
}

// GetPublic returns a user's public card. is_following is relative to the caller.
func (u *UserController) GetPublic(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid user id")
		return
	}
	c := ctx.Request.Context()
	user, err := u.users.Get(c, id)
	if errors.Is(err, services.ErrUserNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40401, err.Error())
		return
	}
	if err != nil {
		utils.InternalError(ctx, 50010, "failed to load user", err)
		return
	}

	following := false
	if caller, ok := getUserID(ctx); ok && caller != id {
		if following, err = u.social.IsFollowing(c, caller, id); err != nil {
			utils.InternalError(ctx, 50011, "failed to check follow status", err)
			return
		}
	}
	utils.Success(ctx, services.Summarize(*user, following))
}

// DeleteMe removes the caller's account and revokes the token in use.
func (u *UserController) DeleteMe(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	err := u.users.Delete(ctx.Request.Context(), userID)
	if errors.Is(err, services.ErrUserNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40401, err.Error())
		return
	}
	if err != nil {
		utils.InternalError(ctx, 50012, "failed to delete user", err)
		return
	}
	u.auth.revokeCurrentToken(ctx)
	utils.Success(ctx, gin.H{"message": "account deleted"})
}
