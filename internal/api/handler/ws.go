package handler

import (
	"log/slog"
	"net/http"

	"complaintdesk/backend/internal/feed"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Origin checks are left to the CORS middleware in front of the router.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeStream GET /api/complaints/stream upgrades to a WebSocket that receives complaint events.
func (h *Handler) ServeStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.Log.WarnContext(c.Request.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := feed.NewWebSocketClient(uuid.NewString(), conn, h.Hub)
	if !h.Hub.Register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}
	client.Run()
}
