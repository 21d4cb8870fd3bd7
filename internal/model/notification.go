package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationType enumerates the events that produce a notification.
type NotificationType string

const (
	TypeReviewLike     NotificationType = "review_like"
	TypeCommentLike    NotificationType = "comment_like"
	TypeReviewComment  NotificationType = "review_comment"
	TypeCommentReply   NotificationType = "comment_reply"
	TypeFollowerReview NotificationType = "follower_review"
	TypeUserJoined     NotificationType = "user_joined"
	TypeNewsLike       NotificationType = "news_like"
	TypePollVote       NotificationType = "poll_vote"
)

// Notification is a durable per-recipient notification record. The sender
// fields are a snapshot captured at creation time, not a live join.
type Notification struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	RecipientID  uuid.UUID        `json:"recipient_id" gorm:"type:uuid;index;not null"`
	Type         NotificationType `json:"type" gorm:"size:32;index;not null"`
	SenderID     uuid.UUID        `json:"sender_id" gorm:"type:uuid;not null"`
	SenderName   string           `json:"sender_name" gorm:"size:128"`
	SenderAvatar string           `json:"sender_avatar" gorm:"size:512"`
	TargetType   string           `json:"target_type" gorm:"size:32"` // review, comment, news, poll, user
	TargetID     string           `json:"target_id" gorm:"size:64"`
	ReviewID     *uuid.UUID       `json:"review_id,omitempty" gorm:"type:uuid"` // parent review for comment targets
	Preview      string           `json:"preview" gorm:"size:512"`
	Read         bool             `json:"read" gorm:"default:false;index"`
	Metadata     datatypes.JSON   `json:"metadata,omitempty"`
	CreatedAt    time.Time        `json:"created_at" gorm:"index"`
}
