// Package notify tells the HR operations channel that a case needs attention.
// Alerts carry the case code only, never chat text.
package notify

import "context"

// Event is a catalogue key of the localization package.
type Event string

const (
	EventChatAccepted    Event = "notify_chat_accepted"
	EventReporterMessage Event = "notify_reporter_message"
)

// Notifier delivers alerts. Implementations must not block the caller on network I/O
// and must not return delivery errors: a failed alert never fails a chat operation.
type Notifier interface {
	Notify(ctx context.Context, event Event, caseCode string)
}

// Nop drops every alert.
type Nop struct{}

func (Nop) Notify(context.Context, Event, string) {}
