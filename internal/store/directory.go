package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"review-notify-backend/internal/model"
)

// ErrUserNotFound is returned by UserSnapshot for an unknown user id.
var ErrUserNotFound = errors.New("user not found")

// Followers returns the ids of all users following userID.
func (s *gormStore) Followers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&model.Follow{}).
		Where("followee_id = ?", userID).
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve followers of %s: %w", userID, err)
	}
	return ids, nil
}

// UserSnapshot resolves the display name and avatar of a user for capture
// into a notification record.
func (s *gormStore) UserSnapshot(ctx context.Context, userID uuid.UUID) (*model.UserSnapshot, error) {
	var u model.User
	err := s.db.WithContext(ctx).
		Select("id", "display_name", "avatar_url").
		First(&u, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	return &model.UserSnapshot{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}, nil
}
