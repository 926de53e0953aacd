package chathub_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ethos/backend/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBroker struct {
	mock.Mock
}

func (m *MockBroker) Publish(ctx context.Context, event models.RoomEvent) error {
	return m.Called(event).Error(0)
}

func (m *MockBroker) Listen(ctx context.Context, deliver func(models.RoomEvent)) error {
	return m.Called().Error(0)
}

func TestManager_Run(t *testing.T) {
	hub, metrics := newHub(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	clientA := newMockClient(reporter)
	clientB := newMockClient(investigator)

	assert.True(t, hub.Register(clientA))
	assert.True(t, hub.Register(clientB))
	assert.Eventually(t, func() bool { return hub.Rooms.Count() == 2 }, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return testutil.ToFloat64(metrics.Connections) == 2 }, time.Second, 10*time.Millisecond)

	hub.Rooms.Join(caseCode, clientA)
	hub.Unregister(clientA)
	assert.Eventually(t, func() bool { return hub.Rooms.Count() == 1 }, time.Second, 10*time.Millisecond)
	assert.True(t, clientA.IsClosed())
	assert.False(t, hub.Rooms.IsMember(caseCode, clientA.GetConnID()))

	cancel()
	assert.Eventually(t, clientB.IsClosed, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return !hub.Register(newMockClient(reporter)) }, time.Second, 10*time.Millisecond)
}

func TestManager_RegisterAttachesBeforeReturning(t *testing.T) {
	hub, _ := newHub(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c := newMockClient(reporter)
	require.True(t, hub.Register(c))
	assert.Equal(t, 1, hub.Rooms.Count())

	hub.Dispatch(ctx, c, models.InboundFrame{Event: models.EventJoin, Ref: "j", CaseCode: caseCode})
	c.expectAck(t, true)
	assert.True(t, hub.Rooms.IsMember(caseCode, c.GetConnID()))
}

func TestManager_UnregisterAfterStopClosesClient(t *testing.T) {
	hub, _ := newHub(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	c := newMockClient(reporter)
	hub.Unregister(c)
	assert.True(t, c.IsClosed())
}

func TestManager_BroadcastPublishesThroughBroker(t *testing.T) {
	broker := new(MockBroker)
	broker.On("Publish", mock.MatchedBy(func(e models.RoomEvent) bool {
		return e.Room == caseCode && e.Frame.Event == models.EventMessage && e.Frame.CaseCode == caseCode
	})).Return(nil)

	hub, _ := newHub(t, broker)
	member := attach(hub, reporter)
	hub.Rooms.Join(caseCode, member)

	hub.Broadcast(context.Background(), caseCode, models.OutboundFrame{Event: models.EventMessage}, "")

	broker.AssertExpectations(t)
	member.assertSilent(t)
}

func TestManager_BroadcastFallsBackToLocalDelivery(t *testing.T) {
	broker := new(MockBroker)
	broker.On("Publish", mock.Anything).Return(errors.New("redis: connection refused"))

	hub, metrics := newHub(t, broker)
	member := attach(hub, reporter)
	hub.Rooms.Join(caseCode, member)

	hub.Broadcast(context.Background(), caseCode, models.OutboundFrame{Event: models.EventThreadState}, "")

	f := member.expect(t, models.EventThreadState)
	assert.Equal(t, caseCode, f.CaseCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Broadcasts.WithLabelValues(models.EventThreadState)))
}

func TestManager_ClosedMemberCountsAsDropped(t *testing.T) {
	hub, metrics := newHub(t, nil)
	live := attach(hub, investigator)
	gone := attach(hub, reporter)
	hub.Rooms.Join(caseCode, live)
	hub.Rooms.Join(caseCode, gone)
	gone.Close()

	hub.Broadcast(context.Background(), caseCode, models.OutboundFrame{Event: models.EventSeen}, "")

	live.expect(t, models.EventSeen)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DroppedFrames))
}

func TestManager_StartPubSubListenerWithoutBroker(t *testing.T) {
	hub, _ := newHub(t, nil)
	assert.NoError(t, hub.StartPubSubListener(context.Background()))

	broker := new(MockBroker)
	broker.On("Listen").Return(errors.New("no route to host"))
	hub, _ = newHub(t, broker)
	assert.Error(t, hub.StartPubSubListener(context.Background()))
}
