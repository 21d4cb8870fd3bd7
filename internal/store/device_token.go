package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"review-notify-backend/internal/model"
)

// UpsertDeviceToken registers a device token for a user. Tokens are globally
// unique: if the token already exists its owner, platform and last_used are
// updated, so a token can never belong to two users at once.
func (s *gormStore) UpsertDeviceToken(ctx context.Context, userID uuid.UUID, token, platform string) (*model.DeviceToken, error) {
	dt := model.DeviceToken{
		Token:    token,
		UserID:   userID,
		Platform: platform,
		LastUsed: time.Now(),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "platform", "last_used"}),
	}).Create(&dt).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert device token: %w", err)
	}
	return &dt, nil
}

// RemoveDeviceToken deletes a token. Removing an unknown token is a no-op.
func (s *gormStore) RemoveDeviceToken(ctx context.Context, token string) error {
	if err := s.db.WithContext(ctx).Delete(&model.DeviceToken{Token: token}).Error; err != nil {
		return fmt.Errorf("failed to remove device token: %w", err)
	}
	return nil
}

// TouchDeviceToken refreshes a token's last_used timestamp.
func (s *gormStore) TouchDeviceToken(ctx context.Context, token string) error {
	err := s.db.WithContext(ctx).
		Model(&model.DeviceToken{}).
		Where("token = ?", token).
		Update("last_used", time.Now()).Error
	if err != nil {
		return fmt.Errorf("failed to touch device token: %w", err)
	}
	return nil
}

// DeviceTokensFor returns all device tokens owned by a user.
func (s *gormStore) DeviceTokensFor(ctx context.Context, userID uuid.UUID) ([]model.DeviceToken, error) {
	var out []model.DeviceToken
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	return out, nil
}
