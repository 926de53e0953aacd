package models

// Inbound events.
const (
	EventJoin            = "join"
	EventLeave           = "leave"
	EventInitiateRequest = "initiate_request"
	EventAcceptRequest   = "accept_request"
	EventSend            = "send"
	EventTyping          = "typing"
	EventSeen            = "seen"
)

// Outbound events. EventTyping and EventSeen are reused for the broadcasts.
const (
	EventAck         = "ack"
	EventJoined      = "joined"
	EventThreadState = "thread_state"
	EventMessage     = "message"
	EventError       = "error"
)

// InboundFrame is what a participant sends over the socket.
type InboundFrame struct {
	Event     string `json:"event"`
	Ref       string `json:"ref,omitempty"`
	CaseCode  string `json:"case_code"`
	Text      string `json:"text,omitempty"`
	Typing    bool   `json:"typing,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// OutboundFrame is what the gateway writes to a participant: acks, broadcasts and errors.
type OutboundFrame struct {
	Event    string `json:"event"`
	Ref      string `json:"ref,omitempty"`
	CaseCode string `json:"case_code,omitempty"`
	OK       *bool  `json:"ok,omitempty"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
	Data     any    `json:"data,omitempty"`
}

// Ack builds the acknowledgement for a request frame.
func Ack(ref string, ok bool, data any, message string) OutboundFrame {
	return OutboundFrame{Event: EventAck, Ref: ref, OK: &ok, Data: data, Message: message}
}

// RoomEvent is a frame addressed to every member of a case room. Rooms are
// keyed by case code. ExcludeConn, when set, skips one connection.
type RoomEvent struct {
	Room        string        `json:"room"`
	ExcludeConn string        `json:"exclude_conn,omitempty"`
	Frame       OutboundFrame `json:"frame"`
}

// JoinedPayload is the data of a joined broadcast.
type JoinedPayload struct {
	Role Role `json:"role"`
}

// TypingPayload is the data of a typing broadcast.
type TypingPayload struct {
	Role   Role `json:"role"`
	Typing bool `json:"typing"`
}

// SeenPayload is the data of a seen broadcast.
type SeenPayload struct {
	Seen map[Role]string `json:"seen"`
}
