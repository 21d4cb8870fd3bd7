// Package notifier fans domain events out to notification records and live
// websocket pushes. Persistence always happens first; delivery is strictly
// best-effort and a failed push never surfaces to the triggering caller.
package notifier

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"review-notify-backend/internal/hub"
	"review-notify-backend/internal/model"
	"review-notify-backend/internal/store"
)

// Candidate describes a notification-worthy event. The dispatcher fills in
// the sender display snapshot before persisting.
type Candidate struct {
	RecipientID uuid.UUID
	Type        model.NotificationType
	SenderID    uuid.UUID
	TargetType  string
	TargetID    string
	ReviewID    *uuid.UUID
	Preview     string
	Metadata    map[string]any
}

type newNotificationFrame struct {
	Type         string              `json:"type"`
	Notification *model.Notification `json:"notification"`
}

type unreadCountFrame struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// Dispatcher persists notifications and pushes them to live connections.
type Dispatcher struct {
	store     store.Store
	hub       *hub.Hub
	snapshots *cache.Cache
	pushPool  *PushPool
}

// NewDispatcher creates a dispatcher. pool may be nil, in which case
// recipients without a live connection receive no fallback push.
func NewDispatcher(s store.Store, h *hub.Hub, pool *PushPool) *Dispatcher {
	return &Dispatcher{
		store:     s,
		hub:       h,
		snapshots: cache.New(5*time.Minute, 10*time.Minute),
		pushPool:  pool,
	}
}

// Notify persists the candidate and pushes a new_notification frame to every
// live connection of the recipient. It returns nil when no record was
// created; a validation or storage failure is logged and absorbed so the
// triggering feature (posting a comment, liking a review) is never failed by
// its side-channel notification.
func (d *Dispatcher) Notify(ctx context.Context, cand Candidate) *model.Notification {
	n := d.buildRecord(ctx, cand)
	if err := d.store.CreateNotification(ctx, n); err != nil {
		log.Printf("Notification for user %s not created: %v", cand.RecipientID, err)
		return nil
	}

	frame := newNotificationFrame{Type: "new_notification", Notification: n}
	delivered := d.pushToUser(n.RecipientID, frame)

	if delivered == 0 && d.pushPool != nil {
		if payload, err := json.Marshal(frame); err == nil {
			d.pushPool.Dispatch(n.RecipientID, payload)
		}
	}
	return n
}

// NotifyMany applies Notify to each recipient independently. There is no
// ordering guarantee between recipients and partial delivery is acceptable.
func (d *Dispatcher) NotifyMany(ctx context.Context, userIDs []uuid.UUID, cand Candidate) {
	for _, id := range userIDs {
		c := cand
		c.RecipientID = id
		d.Notify(ctx, c)
	}
}

// BroadcastExcept notifies every currently connected user except one. Used
// for system-wide announcements such as a new user joining.
func (d *Dispatcher) BroadcastExcept(ctx context.Context, cand Candidate, excludedUserID uuid.UUID) {
	for _, id := range d.hub.Users() {
		if id == excludedUserID {
			continue
		}
		c := cand
		c.RecipientID = id
		d.Notify(ctx, c)
	}
}

// NotifyFollowers resolves the followers of userID and notifies each of
// them. A failed resolution is logged and the call degrades to a no-op.
func (d *Dispatcher) NotifyFollowers(ctx context.Context, userID uuid.UUID, cand Candidate) {
	followers, err := d.store.Followers(ctx, userID)
	if err != nil {
		log.Printf("Could not resolve followers of %s: %v", userID, err)
		return
	}
	d.NotifyMany(ctx, followers, cand)
}

// MarkReadAndSync marks a notification read and pushes the recomputed unread
// count to every live connection of the owner. It returns (nil, nil) when no
// record matches the (id, owner) pair.
func (d *Dispatcher) MarkReadAndSync(ctx context.Context, id uint, userID uuid.UUID) (*model.Notification, error) {
	n, err := d.store.MarkRead(ctx, id, userID)
	if err != nil || n == nil {
		return n, err
	}
	d.SyncUnreadCount(ctx, userID)
	return n, nil
}

// SyncUnreadCount pushes the current unread count to a user's connections.
func (d *Dispatcher) SyncUnreadCount(ctx context.Context, userID uuid.UUID) {
	count := d.store.UnreadCount(ctx, userID)
	d.pushToUser(userID, unreadCountFrame{Type: "unread_count_update", Count: count})
}

// pushToUser writes a frame to every live connection of a user and returns
// how many writes succeeded. A connection whose write fails is treated as
// dead and dropped from the registry; it never aborts delivery to the rest.
func (d *Dispatcher) pushToUser(userID uuid.UUID, frame any) int {
	delivered := 0
	for _, c := range d.hub.ConnectionsFor(userID) {
		if err := c.WriteJSON(frame); err != nil {
			log.Printf("Push to connection %s of user %s failed: %v, dropping", c.ID(), userID, err)
			d.hub.Drop(c)
			continue
		}
		delivered++
	}
	return delivered
}

// buildRecord assembles the persisted record, capturing the sender display
// snapshot at creation time. Snapshot lookups go through a short-lived cache
// and a miss never blocks creation; the record then carries only the id.
func (d *Dispatcher) buildRecord(ctx context.Context, cand Candidate) *model.Notification {
	n := &model.Notification{
		RecipientID: cand.RecipientID,
		Type:        cand.Type,
		SenderID:    cand.SenderID,
		TargetType:  cand.TargetType,
		TargetID:    cand.TargetID,
		ReviewID:    cand.ReviewID,
		Preview:     cand.Preview,
	}

	if len(cand.Metadata) > 0 {
		if raw, err := json.Marshal(cand.Metadata); err == nil {
			n.Metadata = raw
		}
	}

	if cand.SenderID != uuid.Nil {
		if snap := d.senderSnapshot(ctx, cand.SenderID); snap != nil {
			n.SenderName = snap.DisplayName
			n.SenderAvatar = snap.AvatarURL
		}
	}
	return n
}

func (d *Dispatcher) senderSnapshot(ctx context.Context, userID uuid.UUID) *model.UserSnapshot {
	key := userID.String()
	if v, ok := d.snapshots.Get(key); ok {
		return v.(*model.UserSnapshot)
	}

	snap, err := d.store.UserSnapshot(ctx, userID)
	if err != nil {
		log.Printf("Could not resolve display snapshot of %s: %v", userID, err)
		return nil
	}
	d.snapshots.Set(key, snap, cache.DefaultExpiration)
	return snap
}
