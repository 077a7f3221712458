package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/navia-app/navia/models"
	"github.com/navia-app/navia/utils"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Registration is the input of a local sign-up.
type Registration struct {
	Username   string
	Email      string
	Password   string
	Name       string
	CareerGoal string
}

// ProfilePatch carries optional profile fields; nil leaves a field unchanged.
type ProfilePatch struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Avatar     *string `json:"avatar"`
	CareerGoal *string `json:"career_goal"`
}

// Apply merges the patch into u and returns the changed columns.
func (p ProfilePatch) Apply(u *models.User) map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Name != nil {
		u.Name = utils.SanitizeText(*p.Name)
		cols["name"] = u.Name
	}
	if p.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*p.Email))
		cols["email"] = u.Email
	}
	if p.Avatar != nil {
		u.Avatar = strings.TrimSpace(*p.Avatar)
		cols["avatar"] = u.Avatar
	}
	if p.CareerGoal != nil {
		u.CareerGoal = utils.SanitizeText(*p.CareerGoal)
		cols["career_goal"] = u.CareerGoal
	}
	return cols
}

// OAuthIdentity is what a provider tells us about a user.
type OAuthIdentity struct {
	Provider    string
	ID          string
	Username    string
	DisplayName string
	Email       string
	AvatarURL   string
}

// UserService manages accounts.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Get loads a user by id.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}

// Exists reports whether a live user with id exists.
func (s *UserService) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check user %d: %w", id, err)
	}
	return n > 0, nil
}

// Register creates a local account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, r Registration) (*models.User, error) {
	if err := utils.CheckPasswordPolicy(r.Password); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	username := strings.TrimSpace(r.Username)
	email := strings.ToLower(strings.TrimSpace(r.Email))

	var n int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if n > 0 {
		return nil, ErrUsernameTaken
	}
	taken, err := emailInUse(db, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := utils.HashPassword(r.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Username:     username,
		Email:        email,
		Name:         utils.SanitizeText(r.Name),
		CareerGoal:   utils.SanitizeText(r.CareerGoal),
		PasswordHash: hash,
		LoginMethod:  models.LoginPassword,
	}
	if err := db.Create(&user).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &user, nil
}

// Authenticate checks a username (or email) and password pair.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		Order("id ASC").
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// UpdateProfile applies the patch to the user's profile.
func (s *UserService) UpdateProfile(ctx context.Context, id uint, patch ProfilePatch) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cols := patch.Apply(user)
	if len(cols) == 0 {
		return user, nil
	}
	db := s.db.WithContext(ctx)
	if email, ok := cols["email"].(string); ok {
		taken, err := emailInUse(db, email, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrEmailTaken
		}
	}
	if err := db.Model(user).Updates(cols).Error; err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// FindOrCreateOAuth returns the account linked to the provider identity, creating it on first login.
func (s *UserService) FindOrCreateOAuth(ctx context.Context, id OAuthIdentity) (*models.User, error) {
	db := s.db.WithContext(ctx)
	var user models.User
	err := db.Where("login_method = ? AND provider_id = ?", id.Provider, id.ID).First(&user).Error
	if err == nil {
		updates := map[string]interface{}{"avatar": id.AvatarURL}
		if email := strings.ToLower(strings.TrimSpace(id.Email)); email != "" && email != user.Email {
			taken, err := emailInUse(db, email, user.ID)
			if err != nil {
				return nil, err
			}
			if !taken {
				updates["email"] = email
			}
		}
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			utils.Sugar.Warnf("refresh oauth profile user=%d err=%v", user.ID, err)
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load oauth user: %w", err)
	}

	username, err := s.uniqueUsername(ctx, id.Username, id.Provider, id.ID)
	if err != nil {
		return nil, err
	}
	// a provider email already used by another account is not copied over
	email := strings.ToLower(strings.TrimSpace(id.Email))
	taken, err := emailInUse(db, email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		utils.Sugar.Infof("oauth user provider=%s id=%s: email already registered, leaving it empty", id.Provider, id.ID)
		email = ""
	}
	user = models.User{
		Username:    username,
		Email:       email,
		Name:        utils.SanitizeText(id.DisplayName),
		Avatar:      id.AvatarURL,
		LoginMethod: id.Provider,
		ProviderID:  id.ID,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create oauth user: %w", err)
	}
	return &user, nil
}

// emailInUse reports whether a live account other than except owns email.
// An empty email is never in use.
func emailInUse(db *gorm.DB, email string, except uint) (bool, error) {
	if email == "" {
		return false, nil
	}
	var n int64
	if err := db.Model(&models.User{}).Where("email = ? AND id <> ?", email, except).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return n > 0, nil
}

func (s *UserService) uniqueUsername(ctx context.Context, base, provider, id string) (string, error) {
	base = normalizeUsername(base)
	if base == "" {
		base = normalizeUsername(provider + "_" + id)
	}
	if base == "" {
		base = "user_" + id
	}
	db := s.db.WithContext(ctx)
	candidate := base
	for suffix := 1; ; suffix++ {
		var n int64
		if err := db.Unscoped().Model(&models.User{}).Where("username = ?", candidate).Count(&n).Error; err != nil {
			return "", fmt.Errorf("check username: %w", err)
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", base, suffix)
	}
}

func normalizeUsername(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	var b strings.Builder
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-' || r == '.' || r == '@':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

// Delete removes the user together with every row they own, in one transaction.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.User{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		for _, model := range []interface{}{&models.DailyStat{}, &models.JobApplication{}, &models.Questionnaire{}, &models.WrongSubmission{}} {
			if err := tx.Where("user_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("delete owned rows: %w", err)
			}
		}
		if err := tx.Where("follower_id = ? OR following_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return fmt.Errorf("delete follows: %w", err)
		}
		return nil
	})
}
