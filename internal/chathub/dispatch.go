package chathub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ethos/backend/internal/chat"
	"ethos/backend/internal/models"
)

var (
	errUnknownEvent = errors.New("unknown event")

	// errNotAttached is returned when a connection joins before it is registered.
	errNotAttached = fmt.Errorf("%w: connection is not registered", chat.ErrTransient)
)

// Dispatch runs one inbound frame for c. It is called from the client's read
// loop, so frames of one connection are handled in order while connections
// proceed independently. Failures are reported to c and never close it.
func (m *ManagerService) Dispatch(ctx context.Context, c Client, frame models.InboundFrame) {
	frame.CaseCode = strings.TrimSpace(frame.CaseCode)

	if frame.Event == models.EventTyping {
		m.handleTyping(ctx, c, frame)
		return
	}

	if frame.CaseCode == "" && isCaseEvent(frame.Event) {
		m.fail(c, frame, chat.ErrValidation)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	var err error
	switch frame.Event {
	case models.EventJoin:
		err = m.handleJoin(ctx, c, frame)
	case models.EventLeave:
		m.Rooms.Leave(frame.CaseCode, c)
		m.ack(c, frame, nil)
	case models.EventInitiateRequest:
		err = m.handleInitiateRequest(ctx, c, frame)
	case models.EventAcceptRequest:
		err = m.handleAcceptRequest(ctx, c, frame)
	case models.EventSend:
		err = m.handleSend(ctx, c, frame)
	case models.EventSeen:
		err = m.handleSeen(ctx, c, frame)
	default:
		err = errUnknownEvent
	}

	if err != nil {
		m.fail(c, frame, err)
		return
	}
	m.metrics.Ops.WithLabelValues(frame.Event, "ok").Inc()
}

func (m *ManagerService) handleJoin(ctx context.Context, c Client, frame models.InboundFrame) error {
	_, snapshot, err := m.chat.Snapshot(ctx, c.GetIdentity(), frame.CaseCode)
	if err != nil {
		return err
	}
	if !m.Rooms.Join(frame.CaseCode, c) {
		return errNotAttached
	}
	m.ack(c, frame, snapshot)

	joined := models.OutboundFrame{Event: models.EventJoined, Data: models.JoinedPayload{Role: c.GetIdentity().Role}}
	m.Broadcast(ctx, frame.CaseCode, joined, c.GetConnID())
	return nil
}

func (m *ManagerService) handleInitiateRequest(ctx context.Context, c Client, frame models.InboundFrame) error {
	out, err := m.chat.InitiateRequest(ctx, c.GetIdentity(), frame.CaseCode, frame.Text)
	if err != nil {
		return err
	}
	m.ack(c, frame, out.State)
	m.Broadcast(ctx, frame.CaseCode, models.OutboundFrame{Event: models.EventThreadState, Data: out.State}, "")
	return nil
}

func (m *ManagerService) handleAcceptRequest(ctx context.Context, c Client, frame models.InboundFrame) error {
	out, err := m.chat.AcceptRequest(ctx, c.GetIdentity(), frame.CaseCode)
	if err != nil {
		return err
	}
	m.ack(c, frame, out.State)
	m.Broadcast(ctx, frame.CaseCode, models.OutboundFrame{Event: models.EventThreadState, Data: out.State}, "")
	return nil
}

func (m *ManagerService) handleSend(ctx context.Context, c Client, frame models.InboundFrame) error {
	out, err := m.chat.Send(ctx, c.GetIdentity(), frame.CaseCode, frame.Text)
	if err != nil {
		return err
	}
	m.ack(c, frame, out.Message)
	m.Broadcast(ctx, frame.CaseCode, models.OutboundFrame{Event: models.EventMessage, Data: out.Message}, "")
	return nil
}

func (m *ManagerService) handleSeen(ctx context.Context, c Client, frame models.InboundFrame) error {
	out, err := m.chat.MarkSeen(ctx, c.GetIdentity(), frame.CaseCode, frame.MessageID)
	if err != nil {
		return err
	}
	payload := models.SeenPayload{Seen: out.State.Seen}
	m.ack(c, frame, payload)
	m.Broadcast(ctx, frame.CaseCode, models.OutboundFrame{Event: models.EventSeen, Data: payload}, "")
	return nil
}

// handleTyping is best effort: nothing is acknowledged and errors are dropped.
func (m *ManagerService) handleTyping(ctx context.Context, c Client, frame models.InboundFrame) {
	if frame.CaseCode == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, m.opTimeout)
	defer cancel()

	if _, err := m.chat.Authorize(ctx, c.GetIdentity(), frame.CaseCode); err != nil {
		m.log.Debug("typing indicator dropped", "conn_id", c.GetConnID(), "error", err)
		m.metrics.Ops.WithLabelValues(frame.Event, chat.Code(err)).Inc()
		return
	}
	payload := models.TypingPayload{Role: c.GetIdentity().Role, Typing: frame.Typing}
	m.Broadcast(ctx, frame.CaseCode, models.OutboundFrame{Event: models.EventTyping, Data: payload}, c.GetConnID())
	m.metrics.Ops.WithLabelValues(frame.Event, "ok").Inc()
}

// ack confirms a request. The write behind it has already happened, so a
// failed delivery here is only logged.
func (m *ManagerService) ack(c Client, frame models.InboundFrame, data any) {
	ack := models.Ack(frame.Ref, true, data, "")
	ack.CaseCode = frame.CaseCode
	if err := c.Send(ack); err != nil {
		m.log.Debug("ack not delivered", "conn_id", c.GetConnID(), "event", frame.Event, "error", err)
	}
}

// fail reports err as a failed ack, or as an error event when the frame
// carried no ref to correlate with.
func (m *ManagerService) fail(c Client, frame models.InboundFrame, err error) {
	code, message := chat.Code(err), chat.PublicMessage(err)
	if errors.Is(err, errUnknownEvent) {
		code, message = chat.CodeValidation, "unknown event "+frame.Event
	} else if errors.Is(err, chat.ErrValidation) && frame.CaseCode == "" && isCaseEvent(frame.Event) {
		message = "case_code is required"
	}
	m.metrics.Ops.WithLabelValues(frame.Event, code).Inc()

	if code == chat.CodeInternal || code == chat.CodeTransient {
		m.log.Error("chat operation failed", "event", frame.Event, "case_code", frame.CaseCode, "conn_id", c.GetConnID(), "error", err)
	}

	out := models.OutboundFrame{Event: models.EventError, CaseCode: frame.CaseCode, Code: code, Message: message}
	if frame.Ref != "" {
		out = models.Ack(frame.Ref, false, nil, message)
		out.CaseCode = frame.CaseCode
		out.Code = code
	}
	if sendErr := c.Send(out); sendErr != nil {
		m.log.Debug("error reply not delivered", "conn_id", c.GetConnID(), "error", sendErr)
	}
}

// ReplyError sends an error event that is not tied to a frame, e.g. undecodable input.
func (m *ManagerService) ReplyError(c Client, code, message string) {
	_ = c.Send(models.OutboundFrame{Event: models.EventError, Code: code, Message: message})
}

func isCaseEvent(event string) bool {
	switch event {
	case models.EventJoin, models.EventLeave, models.EventInitiateRequest,
		models.EventAcceptRequest, models.EventSend, models.EventSeen:
		return true
	}
	return false
}
