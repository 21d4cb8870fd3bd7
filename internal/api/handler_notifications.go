package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"review-notify-backend/internal/model"
)

func userIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return uuid.Nil, false
	}
	return id, true
}

// ListNotifications handles GET /api/users/{user_id}/notifications with
// page/limit query parameters. An optional type filter narrows the result to
// one notification type.
func (h *Handler) ListNotifications(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	if t := c.Query("type"); t != "" {
		notifications, err := h.store.ListByType(c.Request.Context(), model.NotificationType(t), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"notifications": notifications, "total": len(notifications)})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	notifications, total, err := h.store.ListByRecipient(c.Request.Context(), userID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
		"page":          page,
	})
}

// ListUnread handles GET /api/users/{user_id}/notifications/unread.
func (h *Handler) ListUnread(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	notifications, err := h.store.ListUnread(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// GetUnreadCount handles GET /api/users/{user_id}/unread-count. The count is
// advisory; storage errors surface as 0, never as a failure.
func (h *Handler) GetUnreadCount(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": h.store.UnreadCount(c.Request.Context(), userID)})
}

// MarkRead handles PUT /api/notifications/{id}/read?user_id=... and pushes
// the recomputed unread count to the owner's live connections.
func (h *Handler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	n, err := h.dispatcher.MarkReadAndSync(c.Request.Context(), uint(id), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if n == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}

	c.JSON(http.StatusOK, n)
}

// MarkAllRead handles PUT /api/users/{user_id}/notifications/read-all.
func (h *Handler) MarkAllRead(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	updated, err := h.store.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.dispatcher.SyncUnreadCount(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
