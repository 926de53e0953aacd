// Package chathub is the realtime gateway: it tracks participant connections,
// routes their frames to the chat service and fans results out to case rooms.
package chathub

import (
	"context"
	"log/slog"
	"time"

	"ethos/backend/internal/chat"
	"ethos/backend/internal/logger"
	"ethos/backend/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

const defaultOpTimeout = 5 * time.Second

// ManagerService owns the room registry and the register/unregister loop.
type ManagerService struct {
	Rooms *Rooms

	RegisterCh   chan Client
	UnregisterCh chan Client

	chat      *chat.Service
	broker    Broker
	metrics   *Metrics
	opTimeout time.Duration
	log       *slog.Logger

	pubSubChannel chan models.RoomEvent
	done          chan struct{}
}

// NewManagerService builds a hub. A nil broker keeps fan-out in process; nil
// metrics registers collectors on a private registry.
func NewManagerService(svc *chat.Service, broker Broker, metrics *Metrics, opTimeout time.Duration) *ManagerService {
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &ManagerService{
		Rooms:         NewRooms(),
		RegisterCh:    make(chan Client),
		UnregisterCh:  make(chan Client),
		chat:          svc,
		broker:        broker,
		metrics:       metrics,
		opTimeout:     opTimeout,
		log:           logger.With("component", "chathub"),
		pubSubChannel: make(chan models.RoomEvent, 256),
		done:          make(chan struct{}),
	}
}

// StartPubSubListener subscribes to the broker. Call it before Run when a
// broker is configured; without one it does nothing.
func (m *ManagerService) StartPubSubListener(ctx context.Context) error {
	if m.broker == nil {
		return nil
	}
	return m.broker.Listen(ctx, func(event models.RoomEvent) {
		select {
		case m.pubSubChannel <- event:
		case <-ctx.Done():
		}
	})
}

// Run processes registrations and broker events until ctx is cancelled, then
// closes every remaining client.
func (m *ManagerService) Run(ctx context.Context) {
	defer close(m.done)

	for {
		select {
		case <-ctx.Done():
			for _, c := range m.Rooms.Close() {
				c.Close()
			}
			m.metrics.Connections.Set(0)
			return

		case c := <-m.RegisterCh:
			m.metrics.Connections.Set(float64(m.Rooms.Count()))
			m.log.Debug("client registered", "conn_id", c.GetConnID(), "role", string(c.GetIdentity().Role))

		case c := <-m.UnregisterCh:
			left := m.Rooms.Detach(c)
			c.Close()
			m.metrics.Connections.Set(float64(m.Rooms.Count()))
			m.log.Debug("client unregistered", "conn_id", c.GetConnID(), "rooms_left", len(left))

		case event := <-m.pubSubChannel:
			m.deliver(event)
		}
	}
}

// Register attaches c and hands it to the Run loop. It returns false once the
// hub has stopped. c is attached before Register returns, so a join sent
// right after the handshake always finds it.
func (m *ManagerService) Register(c Client) bool {
	select {
	case <-m.done:
		return false
	default:
	}

	m.Rooms.Attach(c)
	select {
	case m.RegisterCh <- c:
		return true
	case <-m.done:
		m.Rooms.Detach(c)
		return false
	}
}

// Unregister removes c from every room and closes it.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
		c.Close()
	}
}

// Broadcast sends frame to every member of room except excludeConn. With a
// broker the event goes through it so members on other nodes receive it too;
// if publishing fails the local members are still served.
func (m *ManagerService) Broadcast(ctx context.Context, room string, frame models.OutboundFrame, excludeConn string) {
	frame.CaseCode = room
	event := models.RoomEvent{Room: room, ExcludeConn: excludeConn, Frame: frame}
	m.metrics.Broadcasts.WithLabelValues(frame.Event).Inc()

	if m.broker == nil {
		m.deliver(event)
		return
	}
	if err := m.broker.Publish(ctx, event); err != nil {
		m.log.Error("room publish failed, delivering locally", "room", room, "event", frame.Event, "error", err)
		m.deliver(event)
	}
}

func (m *ManagerService) deliver(event models.RoomEvent) {
	for _, c := range m.Rooms.Members(event.Room, event.ExcludeConn) {
		if err := c.Send(event.Frame); err != nil {
			m.metrics.DroppedFrames.Inc()
			m.log.Warn("frame not delivered", "conn_id", c.GetConnID(), "event", event.Frame.Event, "error", err)
		}
	}
}
