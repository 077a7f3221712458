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
	ErrSelfFollow       = errors.New("cannot follow yourself")
	ErrAlreadyFollowing = errors.New("already following this user")
	ErrNotFollowing     = errors.New("friendship not found")
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// UserSummary is the public card of a user shown in lists.
type UserSummary struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	CareerGoal  string `json:"career_goal"`
	IsFollowing bool   `json:"is_following"`
}

// SearchQuery filters users by username/name substring and exact career goal.
type SearchQuery struct {
	Term       string
	CareerGoal string
	Limit      int
}

// SocialService manages follow relationships.
type SocialService struct {
	db *gorm.DB
}

func NewSocialService(db *gorm.DB) *SocialService {
	return &SocialService{db: db}
}

// Follow makes followerID follow followingID.
func (s *SocialService) Follow(ctx context.Context, followerID, followingID uint) (*models.Follow, error) {
	if followerID == followingID {
		return nil, ErrSelfFollow
	}
	db := s.db.WithContext(ctx)
	if err := db.First(&models.User{}, followingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %d: %w", followingID, err)
	}
	follow := models.Follow{FollowerID: followerID, FollowingID: followingID}
	if err := db.Create(&follow).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			return nil, ErrAlreadyFollowing
		}
		return nil, fmt.Errorf("create follow: %w", err)
	}
	return &follow, nil
}

// Unfollow removes the relationship or returns ErrNotFollowing.
func (s *SocialService) Unfollow(ctx context.Context, followerID, followingID uint) error {
	res := s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return fmt.Errorf("delete follow: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFollowing
	}
	return nil
}

// IsFollowing reports whether followerID follows followingID.
func (s *SocialService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return n > 0, nil
}

// Followers lists users following userID.
func (s *SocialService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.following_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("load followers: %w", err)
	}
	return users, nil
}

// Following lists users followed by userID.
func (s *SocialService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("follows.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("load following: %w", err)
	}
	return users, nil
}

// Search finds other users and flags the ones the caller already follows.
func (s *SocialService) Search(ctx context.Context, callerID uint, q SearchQuery) ([]UserSummary, error) {
	if q.Limit <= 0 {
		q.Limit = defaultSearchLimit
	}
	if q.Limit > maxSearchLimit {
		q.Limit = maxSearchLimit
	}
	db := s.db.WithContext(ctx)
	query := db.Model(&models.User{}).Where("id <> ?", callerID)
	if term := strings.ToLower(strings.TrimSpace(q.Term)); term != "" {
		like := "%" + escapeLike(term) + "%"
		query = query.Where("(LOWER(username) LIKE ? ESCAPE '!' OR LOWER(name) LIKE ? ESCAPE '!')", like, like)
	}
	if goal := strings.TrimSpace(q.CareerGoal); goal != "" {
		query = query.Where("career_goal = ?", goal)
	}
	var users []models.User
	if err := query.Order("username ASC").Limit(q.Limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	var followed []uint
	if err := db.Model(&models.Follow{}).Where("follower_id = ?", callerID).Pluck("following_id", &followed).Error; err != nil {
		return nil, fmt.Errorf("load following ids: %w", err)
	}
	set := make(map[uint]struct{}, len(followed))
	for _, id := range followed {
		set[id] = struct{}{}
	}

	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		_, ok := set[u.ID]
		out = append(out, Summarize(u, ok))
	}
	return out, nil
}

// Summarize builds the public card for u.
func Summarize(u models.User, following bool) UserSummary {
	return UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Avatar:      u.Avatar,
		CareerGoal:  u.CareerGoal,
		IsFollowing: following,
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`).Replace(s)
}
