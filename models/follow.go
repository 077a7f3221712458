package models

import "time"

// Follow is a directed follow relationship between two users.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follow_pair,priority:1" json:"follower_id"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follow_pair,priority:2;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`
}
