package thread_test

import (
	"fmt"
	"testing"
	"time"

	"ethos/backend/internal/envelope"
	"ethos/backend/internal/models"

	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

// logBuilder produces an ordered decrypted log with ids m-1, m-2, ...
type logBuilder struct {
	t   *testing.T
	log []models.DecryptedMessage
}

func newLog(t *testing.T) *logBuilder {
	return &logBuilder{t: t}
}

func (b *logBuilder) add(role models.Role, text string) *logBuilder {
	n := len(b.log) + 1
	b.log = append(b.log, models.DecryptedMessage{
		ID:         fmt.Sprintf("m-%d", n),
		CaseID:     "case-1",
		SenderRole: role,
		Text:       text,
		CreatedAt:  base.Add(time.Duration(n) * time.Minute),
	})
	return b
}

func (b *logBuilder) control(role models.Role, e envelope.Entry) *logBuilder {
	body, err := envelope.Build(e)
	require.NoError(b.t, err)
	return b.add(role, body)
}

func (b *logBuilder) request(text string) *logBuilder {
	return b.control(models.RoleInvestigator, envelope.Request{Message: text})
}

func (b *logBuilder) accept() *logBuilder {
	return b.control(models.RoleReporter, envelope.Accepted{})
}

func (b *logBuilder) seen(reader models.Role, id string) *logBuilder {
	return b.control(reader, envelope.Seen{Reader: reader, LastMessageID: id})
}

func (b *logBuilder) at(i int) time.Time {
	return b.log[i].CreatedAt
}
