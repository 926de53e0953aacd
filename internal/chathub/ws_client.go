package chathub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ethos/backend/internal/chat"
	"ethos/backend/internal/config"
	"ethos/backend/internal/logger"
	"ethos/backend/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocketClient implements Client over a gorilla websocket.
type WebSocketClient struct {
	Hub  *ManagerService
	Conn *websocket.Conn

	connID   string
	identity models.Identity
	send     chan models.OutboundFrame

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewWebSocketClient wraps an upgraded connection for identity.
func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, identity models.Identity) *WebSocketClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketClient{
		Hub:      hub,
		Conn:     conn,
		connID:   uuid.NewString(),
		identity: identity,
		send:     make(chan models.OutboundFrame, config.ClientSendBuffer),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

func (c *WebSocketClient) GetConnID() string            { return c.connID }
func (c *WebSocketClient) GetIdentity() models.Identity { return c.identity }

// Send queues frame for the write pump.
func (c *WebSocketClient) Send(frame models.OutboundFrame) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrClientClosed
	default:
		logger.Warn("closing slow client", "conn_id", c.connID)
		c.Close()
		return ErrSendBufferFull
	}
}

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close stops both pumps. The send channel is never closed, so concurrent
// Send calls cannot panic.
func (c *WebSocketClient) Close() {
	c.once.Do(func() {
		c.cancel()
		close(c.done)
	})
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.MaxFrameSize)
	c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read failed", "conn_id", c.connID, "error", err)
			}
			return
		}

		var frame models.InboundFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.Hub.ReplyError(c, chat.CodeValidation, "invalid frame")
			continue
		}

		c.Hub.Dispatch(c.ctx, c, frame)
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case frame := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteJSON(frame); err != nil {
				logger.Debug("websocket write failed", "conn_id", c.connID, "error", err)
				c.Close()
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
