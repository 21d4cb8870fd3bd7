package model

import (
	"time"

	"github.com/google/uuid"
)

// Platforms a device token may belong to. Tokens for PlatformWeb carry a
// JSON-encoded browser push subscription and are usable by the web push
// fallback; ios/android tokens are lifecycle bookkeeping only.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformWeb     = "web"
)

// DeviceToken identifies a push-capable device of a user. The token string is
// globally unique; re-registering an existing token moves it to the new owner.
type DeviceToken struct {
	Token     string    `json:"token" gorm:"primaryKey;size:512"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`
	Platform  string    `json:"platform" gorm:"size:16;not null"`
	LastUsed  time.Time `json:"last_used" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}
