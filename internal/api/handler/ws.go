package handler

import (
	"net/http"

	"ethos/backend/internal/chathub"
	"ethos/backend/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin is not checked: the bearer token is the credential.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades an authenticated request and hands the connection to the hub.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	identity := identityFrom(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, identity)
	if !h.Hub.Register(client) {
		conn.Close()
		return
	}
	client.Run()
}
