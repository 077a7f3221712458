package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/navia-app/navia/middleware"
	"github.com/navia-app/navia/models"
	"github.com/navia-app/navia/services"
	"github.com/navia-app/navia/utils"
)

const oauthStateTTL = 10 * time.Minute

// AuthController handles sign-up, sign-in and the caller's own profile.
type AuthController struct {
	users     *services.UserService
	jwt       *utils.JWTManager
	blacklist *utils.TokenBlacklist
	states    *utils.StateStore
	providers *services.OAuthProviders
}

// NewAuthController creates an AuthController.
func NewAuthController(users *services.UserService, jwt *utils.JWTManager, blacklist *utils.TokenBlacklist, states *utils.StateStore, providers *services.OAuthProviders) *AuthController {
	return &AuthController{users: users, jwt: jwt, blacklist: blacklist, states: states, providers: providers}
}

// Register creates a local account and signs it in.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username   string `json:"username" binding:"required,min=3,max=32"`
		Email      string `json:"email" binding:"omitempty,email,max=255"`
		Password   string `json:"password" binding:"required"`
		Name       string `json:"name" binding:"max=128"`
		CareerGoal string `json:"career_goal" binding:"max=128"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	user, err := a.users.Register(ctx.Request.Context(), services.Registration{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		CareerGoal: req.CareerGoal,
	})
	switch {
	case errors.Is(err, utils.ErrWeakPassword):
		utils.Error(ctx, http.StatusBadRequest, 40002, err.Error())
		return
	case errors.Is(err, services.ErrUsernameTaken):
		utils.Error(ctx, http.StatusConflict, 40901, err.Error())
		return
	case errors.Is(err, services.ErrEmailTaken):
		utils.Error(ctx, http.StatusConflict, 40902, err.Error())
		return
	case err != nil:
		utils.InternalError(ctx, 50001, "failed to create user", err)
		return
	}

	a.issueToken(ctx, http.StatusCreated, user)
}

// Login verifies user credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	user, err := a.users.Authenticate(ctx.Request.Context(), req.Username, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		utils.Error(ctx, http.StatusUnauthorized, 40106, err.Error())
		return
	}
	if err != nil {
		utils.InternalError(ctx, 50002, "failed to sign in", err)
		return
	}
	a.issueToken(ctx, http.StatusOK, user)
}

func (a *AuthController) issueToken(ctx *gin.Context, status int, user *models.User) {
	token, expiresAt, err := a.jwt.Generate(user.ID, user.Username)
	if err != nil {
		utils.InternalError(ctx, 50004, "failed to generate token", err)
		return
	}
	utils.Respond(ctx, status, 0, "success", gin.H{
		"token":      token,
		"token_type": "bearer",
		"expires_at": expiresAt,
		"user":       user,
	})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	a.revokeCurrentToken(ctx)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

func (a *AuthController) revokeCurrentToken(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	if token == "" {
		return
	}
	expiresAt := time.Now().Add(a.jwt.TTL())
	if v, ok := ctx.Get(middleware.ContextTokenExpiryKey); ok {
		if t, ok := v.(time.Time); ok {
			expiresAt = t
		}
	}
	a.blacklist.Revoke(context.WithoutCancel(ctx.Request.Context()), token, expiresAt)
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	user, err := a.users.Get(ctx.Request.Context(), userID)
	if errors.Is(err, services.ErrUserNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40401, err.Error())
		return
	}
	if err != nil {
		utils.InternalError(ctx, 50005, "failed to load user", err)
		return
	}
	utils.Success(ctx, user)
}

// UpdateProfile applies a partial update to the caller's profile.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return
	}
	var patch struct {
		Name       *string `json:"name" binding:"omitempty,max=128"`
		Email      *string `json:"email" binding:"omitempty,email,max=255"`
		Avatar     *string `json:"avatar" binding:"omitempty,url,max=512"`
		CareerGoal *string `json:"career_goal" binding:"omitempty,max=128"`
	}
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}

	user, err := a.users.UpdateProfile(ctx.Request.Context(), userID, services.ProfilePatch(patch))
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		utils.Error(ctx, http.StatusConflict, 40902, err.Error())
	case err != nil:
		utils.InternalError(ctx, 50031, "failed to update profile", err)
	default:
		utils.Success(ctx, user)
	}
}

// OAuthRedirect generates a provider-specific authorization URL.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	cfg, err := a.providers.Config(ctx.Param("provider"))
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, err.Error())
		return
	}

	state := uuid.NewString()
	a.states.Save(ctx.Request.Context(), state, oauthStateTTL)

	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	utils.Success(ctx, gin.H{"authorization_url": url, "state": state})
}

// OAuthCallback exchanges the authorization code for a user identity and issues a JWT.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	provider := ctx.Param("provider")
	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" || state == "" {
		utils.Error(ctx, http.StatusBadRequest, 40005, "missing code or state")
		return
	}

	cfg, err := a.providers.Config(provider)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, err.Error())
		return
	}
	if !a.states.Consume(ctx.Request.Context(), state) {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid or expired state")
		return
	}

	c := ctx.Request.Context()
	token, err := cfg.Exchange(c, code)
	if err != nil {
		utils.Sugar.Warnf("oauth exchange provider=%s err=%v", provider, err)
		utils.Error(ctx, http.StatusBadRequest, 40007, "failed to exchange code")
		return
	}

	identity, err := a.providers.Identity(c, provider, cfg.Client(c, token))
	if err != nil {
		utils.InternalError(ctx, 50005, "failed to fetch user info", err)
		return
	}

	user, err := a.users.FindOrCreateOAuth(c, *identity)
	if err != nil {
		utils.InternalError(ctx, 50006, "failed to persist user", err)
		return
	}
	a.issueToken(ctx, http.StatusOK, user)
}
