package models

import "time"

// ChatState is the lifecycle stage of a case chat.
type ChatState string

const (
	ChatNotRequested      ChatState = "not_requested"
	ChatPendingAcceptance ChatState = "pending_acceptance"
	ChatActive            ChatState = "active"
)

// rank orders states so transitions can be checked for monotonicity.
func (s ChatState) rank() int {
	switch s {
	case ChatPendingAcceptance:
		return 1
	case ChatActive:
		return 2
	default:
		return 0
	}
}

// AtLeast reports whether s has reached other in the lifecycle.
func (s ChatState) AtLeast(other ChatState) bool {
	return s.rank() >= other.rank()
}

// ThreadState is the conversational state derived by replaying a case log.
// It is never persisted.
type ThreadState struct {
	ChatState      ChatState       `json:"chat_state"`
	RequestMessage string          `json:"request_message,omitempty"`
	RequestedAt    *time.Time      `json:"requested_at,omitempty"`
	AcceptedAt     *time.Time      `json:"accepted_at,omitempty"`
	Seen           map[Role]string `json:"seen"`
}

// VisibleMessage is a human chat turn as shown to participants.
type VisibleMessage struct {
	ID         string    `json:"id"`
	SenderRole Role      `json:"sender_role"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// ThreadSnapshot is the full reload payload returned by join and the HTTP read endpoint.
type ThreadSnapshot struct {
	CaseCode   string           `json:"case_code"`
	CaseStatus string           `json:"case_status"`
	Closed     bool             `json:"closed"`
	State      ThreadState      `json:"state"`
	Messages   []VisibleMessage `json:"messages"`
	// Skipped counts log entries that failed to decrypt.
	Skipped int `json:"skipped,omitempty"`
}
