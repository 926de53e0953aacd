package chathub_test

import (
	"testing"
	"time"

	"ethos/backend/internal/chat"
	"ethos/backend/internal/chathub"
	"ethos/backend/internal/fieldcrypt"
	"ethos/backend/internal/models"
	"ethos/backend/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const caseCode = "CASE-1"

var (
	reporter     = models.Identity{ID: "rep-1", Role: models.RoleReporter}
	stranger     = models.Identity{ID: "rep-2", Role: models.RoleReporter}
	investigator = models.Identity{ID: "hr-1", Role: models.RoleInvestigator}
)

func newChatService(t *testing.T, store *storage.MemoryStore) *chat.Service {
	t.Helper()
	key, err := fieldcrypt.GenerateKeyHex()
	require.NoError(t, err)
	cipher, err := fieldcrypt.NewFromHex(key, "")
	require.NoError(t, err)
	return chat.NewService(store, cipher, nil)
}

func newHub(t *testing.T, broker chathub.Broker) (*chathub.ManagerService, *chathub.Metrics) {
	t.Helper()
	store := storage.NewMemoryStore()
	store.PutCase(models.Case{Code: caseCode, ReporterID: reporter.ID})
	metrics := chathub.NewMetrics(prometheus.NewRegistry())
	return chathub.NewManagerService(newChatService(t, store), broker, metrics, time.Second), metrics
}

// attach registers a mock client directly in the room registry.
func attach(hub *chathub.ManagerService, identity models.Identity) *MockClient {
	c := newMockClient(identity)
	hub.Rooms.Attach(c)
	return c
}
