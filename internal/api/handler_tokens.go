package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type registerDeviceTokenRequest struct {
	UserID   uuid.UUID `json:"user_id" binding:"required"`
	Token    string    `json:"token" binding:"required"`
	Platform string    `json:"platform" binding:"required,oneof=ios android web"`
}

// RegisterDeviceToken handles the registration of a push-capable device.
// Re-registering an existing token moves it to the requesting user.
func (h *Handler) RegisterDeviceToken(c *gin.Context) {
	var req registerDeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dt, err := h.store.UpsertDeviceToken(c.Request.Context(), req.UserID, req.Token, req.Platform)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dt)
}

type removeDeviceTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// RemoveDeviceToken handles explicit revocation of a device token.
func (h *Handler) RemoveDeviceToken(c *gin.Context) {
	var req removeDeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.RemoveDeviceToken(c.Request.Context(), req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetVAPIDPublicKey returns the VAPID public key to web clients so they can
// create the push subscription they register as a web device token.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vapid keys are not configured"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
