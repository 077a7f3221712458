package models

import (
	"time"

	"gorm.io/gorm"
)

// Login methods recorded on User.LoginMethod.
const (
	LoginPassword = "password"
	LoginGitHub   = "github"
	LoginGoogle   = "google"
)

// User is an account of the coaching platform. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email        string         `gorm:"size:255;index" json:"email"`
	Name         string         `gorm:"size:128" json:"name"`
	Avatar       string         `gorm:"size:512" json:"avatar"`
	CareerGoal   string         `gorm:"size:128;index" json:"career_goal"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	LoginMethod  string         `gorm:"size:32;not null;default:password" json:"login_method"`
	ProviderID   string         `gorm:"size:255;index" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}
