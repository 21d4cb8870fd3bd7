package api

import (
	"github.com/SherClockHolmes/webpush-go"
	"github.com/gorilla/websocket"

	"review-notify-backend/internal/hub"
	"review-notify-backend/internal/notifier"
	"review-notify-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store      store.Store
	hub        *hub.Hub
	dispatcher *notifier.Dispatcher
	webpush    *webpush.Options
	upgrader   websocket.Upgrader
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, h *hub.Hub, d *notifier.Dispatcher, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:      s,
		hub:        h,
		dispatcher: d,
		webpush:    webpushOptions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}
