package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a read-only projection of the user-profile tables. This service
// never writes users; it only resolves display snapshots and followers.
type User struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	DisplayName string    `json:"display_name" gorm:"size:128"`
	AvatarURL   string    `json:"avatar_url" gorm:"size:512"`
	CreatedAt   time.Time `json:"created_at"`
}

// Follow is a row of the followers relation: FollowerID follows FolloweeID.
type Follow struct {
	FollowerID uuid.UUID `json:"follower_id" gorm:"type:uuid;primaryKey"`
	FolloweeID uuid.UUID `json:"followee_id" gorm:"type:uuid;primaryKey;index"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserSnapshot is the sender information captured into a notification at
// creation time.
type UserSnapshot struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url"`
}
