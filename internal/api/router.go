package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"review-notify-backend/config"
	"review-notify-backend/internal/hub"
	"review-notify-backend/internal/mw"
	"review-notify-backend/internal/notifier"
	"review-notify-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, s store.Store, h *hub.Hub, d *notifier.Dispatcher, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, h, d, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)

	// Websocket ingress is kept outside the rate-limited group: a connection
	// is long-lived and reconnect storms are bounded by the heartbeat cycle.
	r.GET("/ws/notifications/:user_id", handler.ServeWS)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/users/:user_id/notifications", handler.ListNotifications)
		api.GET("/users/:user_id/notifications/unread", handler.ListUnread)
		api.GET("/users/:user_id/unread-count", handler.GetUnreadCount)
		api.PUT("/users/:user_id/notifications/read-all", handler.MarkAllRead)
		api.PUT("/notifications/:id/read", handler.MarkRead)

		api.POST("/device-tokens", handler.RegisterDeviceToken)
		api.DELETE("/device-tokens", handler.RemoveDeviceToken)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
