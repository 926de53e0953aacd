package storage

import (
	"context"
	"sync"
	"time"

	"ethos/backend/internal/models"

	"github.com/google/uuid"
)

// MemoryStore keeps cases and logs in process memory. It backs the
// STORAGE_DRIVER=memory mode and the lifecycle tests.
type MemoryStore struct {
	mu       sync.RWMutex
	cases    map[string]*models.Case // code -> case
	messages map[string][]models.Message
	now      func() time.Time
}

// NewMemoryStore returns an empty store using the wall clock.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cases:    make(map[string]*models.Case),
		messages: make(map[string][]models.Message),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

// PutCase inserts or replaces a case record, assigning an id if missing.
func (m *MemoryStore) PutCase(c models.Case) *models.Case {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = "new"
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = m.now()
	}
	stored := c
	m.cases[c.Code] = &stored
	return copyCase(&stored)
}

func (m *MemoryStore) InsertMessage(_ context.Context, caseID string, role models.Role, ciphertext string) (*models.Message, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	created := m.now()
	if log := m.messages[caseID]; len(log) > 0 {
		if last := log[len(log)-1].CreatedAt; created.Before(last) {
			created = last
		}
	}

	msg := models.Message{
		ID:         id.String(),
		CaseID:     caseID,
		SenderRole: role,
		Body:       ciphertext,
		CreatedAt:  created,
	}
	m.messages[caseID] = append(m.messages[caseID], msg)
	return &msg, nil
}

func (m *MemoryStore) ListMessagesByCase(_ context.Context, caseID string) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	log := m.messages[caseID]
	out := make([]models.Message, len(log))
	copy(out, log)
	return out, nil
}

func (m *MemoryStore) FindCaseByCode(_ context.Context, code string) (*models.Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cases[code]
	if !ok {
		return nil, nil
	}
	return copyCase(c), nil
}

func (m *MemoryStore) FindCaseForIdentity(ctx context.Context, code string, identity models.Identity) (*models.Case, error) {
	c, err := m.FindCaseByCode(ctx, code)
	if err != nil || c == nil {
		return nil, err
	}
	switch identity.Role {
	case models.RoleReporter:
		if c.ReporterID == identity.ID {
			return c, nil
		}
	case models.RoleInvestigator:
		if len(c.AssignedTo) == 0 || c.IsAssignedTo(identity.ID) {
			return c, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func copyCase(c *models.Case) *models.Case {
	out := *c
	out.AssignedTo = append([]string(nil), c.AssignedTo...)
	return &out
}
