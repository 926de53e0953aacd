package chathub_test

import (
	"sync"
	"testing"
	"time"

	"ethos/backend/internal/chathub"
	"ethos/backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type MockClient struct {
	connID      string
	identity    models.Identity
	RecvChannel chan models.OutboundFrame

	mu     sync.Mutex
	closed bool
	runs   int
}

func newMockClient(identity models.Identity) *MockClient {
	return &MockClient{
		connID:      uuid.NewString(),
		identity:    identity,
		RecvChannel: make(chan models.OutboundFrame, 32),
	}
}

func (c *MockClient) GetConnID() string            { return c.connID }
func (c *MockClient) GetIdentity() models.Identity { return c.identity }

func (c *MockClient) Send(frame models.OutboundFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return chathub.ErrClientClosed
	}
	select {
	case c.RecvChannel <- frame:
		return nil
	default:
		return chathub.ErrSendBufferFull
	}
}

func (c *MockClient) Run() {
	c.mu.Lock()
	c.runs++
	c.mu.Unlock()
}

func (c *MockClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// next returns the next frame delivered to c.
func (c *MockClient) next(t *testing.T) models.OutboundFrame {
	t.Helper()
	select {
	case f := <-c.RecvChannel:
		return f
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.identity.ID)
		return models.OutboundFrame{}
	}
}

// expect returns the next frame and checks its event.
func (c *MockClient) expect(t *testing.T, event string) models.OutboundFrame {
	t.Helper()
	f := c.next(t)
	require.Equal(t, event, f.Event, "frame: %+v", f)
	return f
}

// expectAck returns the next frame and checks it is an ack with the given outcome.
func (c *MockClient) expectAck(t *testing.T, ok bool) models.OutboundFrame {
	t.Helper()
	f := c.expect(t, models.EventAck)
	require.NotNil(t, f.OK)
	require.Equal(t, ok, *f.OK, "ack: %+v", f)
	return f
}

func (c *MockClient) assertSilent(t *testing.T) {
	t.Helper()
	select {
	case f := <-c.RecvChannel:
		t.Fatalf("client %s got unexpected frame %+v", c.identity.ID, f)
	case <-time.After(30 * time.Millisecond):
	}
}
