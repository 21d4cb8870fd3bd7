package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"review-notify-backend/internal/model"
)

// ErrInvalidNotification is returned by CreateNotification when a mandatory
// field (recipient, type, sender) is missing from the candidate record.
var ErrInvalidNotification = errors.New("invalid notification")

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	// Notification store.
	CreateNotification(ctx context.Context, n *model.Notification) error
	UnreadCount(ctx context.Context, userID uuid.UUID) int64
	MarkRead(ctx context.Context, id uint, userID uuid.UUID) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	ListUnread(ctx context.Context, userID uuid.UUID) ([]model.Notification, error)
	ListByType(ctx context.Context, t model.NotificationType, userID uuid.UUID) ([]model.Notification, error)
	ListByRecipient(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Notification, int64, error)

	// Device token store.
	UpsertDeviceToken(ctx context.Context, userID uuid.UUID, token, platform string) (*model.DeviceToken, error)
	RemoveDeviceToken(ctx context.Context, token string) error
	TouchDeviceToken(ctx context.Context, token string) error
	DeviceTokensFor(ctx context.Context, userID uuid.UUID) ([]model.DeviceToken, error)

	// Collaborator reads against the profile tables.
	Followers(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	UserSnapshot(ctx context.Context, userID uuid.UUID) (*model.UserSnapshot, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying handle for migrations and tests.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// CreateNotification validates and persists a notification record. The read
// flag always starts false regardless of what the candidate carries.
func (s *gormStore) CreateNotification(ctx context.Context, n *model.Notification) error {
	if n.RecipientID == uuid.Nil {
		return fmt.Errorf("%w: recipient is required", ErrInvalidNotification)
	}
	if n.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidNotification)
	}
	if n.SenderID == uuid.Nil {
		return fmt.Errorf("%w: sender is required", ErrInvalidNotification)
	}

	n.Read = false
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// UnreadCount returns the number of unread notifications for a user. Unread
// counts are advisory UI state, so a storage error degrades to 0 instead of
// propagating.
func (s *gormStore) UnreadCount(ctx context.Context, userID uuid.UUID) int64 {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		log.Printf("Error counting unread notifications for user %s: %v", userID, err)
		return 0
	}
	return count
}

// MarkRead flips the read flag of a notification owned by userID. It returns
// (nil, nil) when no record matches the (id, owner) pair and is idempotent:
// marking an already-read record returns it unchanged.
func (s *gormStore) MarkRead(ctx context.Context, id uint, userID uuid.UUID) (*model.Notification, error) {
	var n model.Notification
	err := s.db.WithContext(ctx).
		Where("id = ? AND recipient_id = ?", id, userID).
		First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notification %d: %w", id, err)
	}

	if n.Read {
		return &n, nil
	}

	if err := s.db.WithContext(ctx).
		Model(&n).
		Update("read", true).Error; err != nil {
		return nil, fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	n.Read = true
	return &n, nil
}

// MarkAllRead marks every unread notification of a user as read and returns
// the number of affected records.
func (s *gormStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_id = ? AND read = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark all read for user %s: %w", userID, res.Error)
	}
	return res.RowsAffected, nil
}

// ListUnread returns a user's unread notifications, newest first.
func (s *gormStore) ListUnread(ctx context.Context, userID uuid.UUID) ([]model.Notification, error) {
	var out []model.Notification
	err := s.db.WithContext(ctx).
		Where("recipient_id = ? AND read = ?", userID, false).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list unread notifications: %w", err)
	}
	return out, nil
}

// ListByType returns a user's notifications of one type, newest first.
func (s *gormStore) ListByType(ctx context.Context, t model.NotificationType, userID uuid.UUID) ([]model.Notification, error) {
	var out []model.Notification
	err := s.db.WithContext(ctx).
		Where("recipient_id = ? AND type = ?", userID, t).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications by type: %w", err)
	}
	return out, nil
}

// ListByRecipient returns one page of a user's notifications, newest first,
// along with the total record count.
func (s *gormStore) ListByRecipient(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	var total int64
	if err := s.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var out []model.Notification
	err := s.db.WithContext(ctx).
		Where("recipient_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return out, total, nil
}
