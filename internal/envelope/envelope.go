// Package envelope encodes the silent protocol events that share the chat log
// with ordinary messages.
//
// A decrypted body is classified into exactly one Entry: Request, Accepted,
// Seen or PlainText. Entry is sealed, so consumers switch over a closed set.
// Anything that is not a well-formed envelope is PlainText, including
// malformed or foreign JSON.
package envelope

import (
	"encoding/json"
	"fmt"
	"strings"

	"ethos/backend/internal/models"
)

// Kind names a control event.
type Kind string

const (
	KindRequest  Kind = "REQUEST"
	KindAccepted Kind = "ACCEPTED"
	KindSeen     Kind = "SEEN"
)

// markerField is reserved. A chat body that carries it with a valid kind is
// read as a control event.
const (
	markerField   = "__ethos_ctrl"
	markerVersion = 1
)

// Entry is one classified log body.
type Entry interface {
	isEntry()
}

// Request is an investigator's request to open the chat.
type Request struct {
	Message string
}

// Accepted is the reporter's acceptance of a pending request.
type Accepted struct{}

// Seen is a read receipt: Reader has read up to LastMessageID.
type Seen struct {
	Reader        models.Role
	LastMessageID string
}

// PlainText is a human chat turn.
type PlainText struct {
	Text string
}

func (Request) isEntry()   {}
func (Accepted) isEntry()  {}
func (Seen) isEntry()      {}
func (PlainText) isEntry() {}

// KindOf returns the control kind of e, or "" for PlainText.
func KindOf(e Entry) Kind {
	switch e.(type) {
	case Request:
		return KindRequest
	case Accepted:
		return KindAccepted
	case Seen:
		return KindSeen
	default:
		return ""
	}
}

type wireEnvelope struct {
	Marker        int         `json:"__ethos_ctrl"`
	Kind          Kind        `json:"kind"`
	Message       *string     `json:"message,omitempty"`
	Reader        models.Role `json:"reader,omitempty"`
	LastMessageID string      `json:"last_message_id,omitempty"`
}

// Build serializes a control entry. PlainText is rejected: it is stored as-is.
func Build(e Entry) (string, error) {
	w := wireEnvelope{Marker: markerVersion, Kind: KindOf(e)}
	if w.Kind == "" {
		return "", fmt.Errorf("cannot build envelope from %T", e)
	}
	switch v := e.(type) {
	case Request:
		msg := v.Message
		w.Message = &msg
	case Seen:
		if !v.Reader.Valid() || v.LastMessageID == "" {
			return "", fmt.Errorf("seen envelope needs a reader role and message id")
		}
		w.Reader, w.LastMessageID = v.Reader, v.LastMessageID
	}

	b, err := json.Marshal(w)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// BuildRequest is Build(Request{Message: message}).
func BuildRequest(message string) (string, error) {
	return Build(Request{Message: message})
}

// BuildAccepted is Build(Accepted{}).
func BuildAccepted() (string, error) {
	return Build(Accepted{})
}

// BuildSeen is Build(Seen{...}).
func BuildSeen(reader models.Role, lastMessageID string) (string, error) {
	return Build(Seen{Reader: reader, LastMessageID: lastMessageID})
}

// Parse returns the control entry encoded in body. ok is false for anything
// that is not a recognized envelope.
func Parse(body string) (entry Entry, ok bool) {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") || !strings.Contains(trimmed, markerField) {
		return nil, false
	}

	var w wireEnvelope
	if err := json.Unmarshal([]byte(trimmed), &w); err != nil {
		return nil, false
	}
	if w.Marker != markerVersion {
		return nil, false
	}

	switch w.Kind {
	case KindRequest:
		if w.Message == nil {
			return nil, false
		}
		return Request{Message: *w.Message}, true
	case KindAccepted:
		return Accepted{}, true
	case KindSeen:
		if !w.Reader.Valid() || w.LastMessageID == "" {
			return nil, false
		}
		return Seen{Reader: w.Reader, LastMessageID: w.LastMessageID}, true
	default:
		return nil, false
	}
}

// Classify is Parse with the fallback applied: non-envelopes become PlainText.
func Classify(body string) Entry {
	if e, ok := Parse(body); ok {
		return e
	}
	return PlainText{Text: body}
}
