// Package thread rebuilds a case conversation from its decrypted log.
//
// Nothing here touches storage or the network: callers load and decrypt the
// log, then replay it. Replays of the same ordered log always give the same
// result.
package thread

import (
	"fmt"

	"ethos/backend/internal/envelope"
	"ethos/backend/internal/models"
)

// NewState returns the state of an empty log.
func NewState() models.ThreadState {
	return models.ThreadState{
		ChatState: models.ChatNotRequested,
		Seen:      make(map[models.Role]string),
	}
}

// Derive replays log, which must be in creation order, into the current thread state.
func Derive(log []models.DecryptedMessage) models.ThreadState {
	state, _ := Replay(log)
	return state
}

// Replay derives the thread state and the visible feed in a single pass.
func Replay(log []models.DecryptedMessage) (models.ThreadState, []models.VisibleMessage) {
	state := NewState()
	feed := make([]models.VisibleMessage, 0, len(log))

	for _, msg := range log {
		entry := envelope.Classify(msg.Text)
		if v, ok := Apply(&state, entry, msg); ok {
			feed = append(feed, v)
		}
	}
	return state, feed
}

// Apply folds one classified entry into state. When the entry is a chat turn
// it is returned as a visible message with ok set.
//
// Transitions only move forward. A REQUEST always refreshes the stored
// request text and time, and moves not_requested to pending_acceptance. The
// first ACCEPTED sets acceptedAt and moves to active; later ones change
// nothing. SEEN overwrites the reader's pointer, so the last receipt applied
// wins even if it points at an older message.
func Apply(state *models.ThreadState, entry envelope.Entry, msg models.DecryptedMessage) (v models.VisibleMessage, ok bool) {
	if state.Seen == nil {
		state.Seen = make(map[models.Role]string)
	}

	switch e := entry.(type) {
	case envelope.Request:
		at := msg.CreatedAt
		state.RequestMessage = e.Message
		state.RequestedAt = &at
		if !state.ChatState.AtLeast(models.ChatPendingAcceptance) {
			state.ChatState = models.ChatPendingAcceptance
		}
	case envelope.Accepted:
		if !state.ChatState.AtLeast(models.ChatActive) {
			at := msg.CreatedAt
			state.AcceptedAt = &at
			state.ChatState = models.ChatActive
		}
	case envelope.Seen:
		state.Seen[e.Reader] = e.LastMessageID
	case envelope.PlainText:
		return models.VisibleMessage{
			ID:         msg.ID,
			SenderRole: msg.SenderRole,
			Text:       e.Text,
			CreatedAt:  msg.CreatedAt,
		}, true
	default:
		panic(fmt.Sprintf("thread: unhandled log entry %T", entry))
	}
	return models.VisibleMessage{}, false
}
