package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ServeWS handles GET /ws/notifications/{user_id}: it upgrades the request,
// registers the connection and then blocks reading control frames until the
// peer goes away. No client payload is consumed beyond transport-level pongs.
func (h *Handler) ServeWS(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		// Malformed identity: refuse before any registry entry exists.
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Websocket upgrade for user %s failed: %v", userID, err)
		return
	}

	conn := h.hub.Register(userID, ws)
	log.Printf("Connection %s registered for user %s", conn.ID(), userID)

	ws.SetPongHandler(func(string) error {
		conn.MarkAlive()
		return nil
	})

	// Read loop. Inbound data frames are discarded; the loop exists to pump
	// control frames into the handlers above and to observe close/error.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	h.hub.Drop(conn)
	log.Printf("Connection %s of user %s closed", conn.ID(), userID)
}
