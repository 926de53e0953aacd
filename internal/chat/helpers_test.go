package chat_test

import (
	"context"
	"sync"
	"testing"

	"ethos/backend/internal/chat"
	"ethos/backend/internal/fieldcrypt"
	"ethos/backend/internal/models"
	"ethos/backend/internal/notify"
	"ethos/backend/internal/storage"

	"github.com/stretchr/testify/require"
)

var (
	reporter      = models.Identity{ID: "rep-1", Role: models.RoleReporter}
	otherReporter = models.Identity{ID: "rep-2", Role: models.RoleReporter}
	investigator  = models.Identity{ID: "hr-1", Role: models.RoleInvestigator}
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingNotifier) Notify(_ context.Context, event notify.Event, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

type fixture struct {
	store    *storage.MemoryStore
	cipher   *fieldcrypt.Cipher
	notifier *recordingNotifier
	svc      *chat.Service
	caseRec  *models.Case
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	key, err := fieldcrypt.GenerateKeyHex()
	require.NoError(t, err)
	cipher, err := fieldcrypt.NewFromHex(key, "")
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	c := store.PutCase(models.Case{Code: "CASE-1", ReporterID: reporter.ID})
	n := &recordingNotifier{}

	return &fixture{
		store:    store,
		cipher:   cipher,
		notifier: n,
		svc:      chat.NewService(store, cipher, n),
		caseRec:  c,
	}
}

func (f *fixture) logLen(t *testing.T) int {
	t.Helper()
	log, err := f.store.ListMessagesByCase(context.Background(), f.caseRec.ID)
	require.NoError(t, err)
	return len(log)
}
