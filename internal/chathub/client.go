package chathub

import (
	"errors"

	"ethos/backend/internal/models"
)

var (
	ErrClientClosed   = errors.New("client closed")
	ErrSendBufferFull = errors.New("client send buffer full")
)

// Client is one live participant connection. The hub only needs to know who is
// behind it and how to hand it frames.
type Client interface {
	// GetConnID identifies this connection. One identity may hold several.
	GetConnID() string
	// GetIdentity returns the authenticated principal, fixed for the connection's life.
	GetIdentity() models.Identity

	// Send queues a frame without blocking. A client that cannot keep up is
	// closed and Send returns an error.
	Send(frame models.OutboundFrame) error

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts the connection down. It is safe to call more than once.
	Close()
}
