// Package chat runs the case chat lifecycle on top of the encrypted log:
// access checks, encryption, appends and re-derivation of the thread state.
// Transports (websocket hub, HTTP) call into Service and never touch the log.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"ethos/backend/internal/access"
	"ethos/backend/internal/config"
	"ethos/backend/internal/envelope"
	"ethos/backend/internal/logger"
	"ethos/backend/internal/models"
	"ethos/backend/internal/notify"
	"ethos/backend/internal/storage"
	"ethos/backend/internal/thread"
)

const maxMessageIDLength = 128

// FieldCipher seals log bodies. *fieldcrypt.Cipher implements it.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) (string, error)
}

// Outcome is the result of a lifecycle operation, ready to broadcast.
type Outcome struct {
	Case  *models.Case
	State models.ThreadState
	// Message is set by Send.
	Message *models.VisibleMessage
	// Appended is false when the operation was a no-op, e.g. a repeated accept.
	Appended bool
}

// Service orchestrates chat operations. It holds no per-case state, so calls
// for different cases never wait on each other.
type Service struct {
	store    storage.Storage
	cipher   FieldCipher
	guard    *access.Guard
	notifier notify.Notifier
	log      *slog.Logger
}

// NewService wires a Service. A nil notifier disables HR alerts.
func NewService(store storage.Storage, cipher FieldCipher, notifier notify.Notifier) *Service {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		store:    store,
		cipher:   cipher,
		guard:    access.NewGuard(store),
		notifier: notifier,
		log:      logger.With("component", "chat"),
	}
}

// Authorize resolves caseCode for identity or explains why it may not.
func (s *Service) Authorize(ctx context.Context, identity models.Identity, caseCode string) (*models.Case, error) {
	c, err := s.guard.Authorize(ctx, identity, caseCode)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, access.ErrDenied):
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case errors.Is(err, access.ErrCaseNotFound):
		return nil, fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return nil, fmt.Errorf("%w: authorize case %s: %w", ErrTransient, caseCode, err)
	}
}

// Snapshot authorizes identity and returns the full thread: derived state and
// visible feed. It is what join and the HTTP read endpoint return.
func (s *Service) Snapshot(ctx context.Context, identity models.Identity, caseCode string) (*models.Case, models.ThreadSnapshot, error) {
	c, err := s.Authorize(ctx, identity, caseCode)
	if err != nil {
		return nil, models.ThreadSnapshot{}, err
	}

	state, feed, skipped, err := s.load(ctx, c)
	if err != nil {
		return nil, models.ThreadSnapshot{}, err
	}

	return c, models.ThreadSnapshot{
		CaseCode:   c.Code,
		CaseStatus: c.Status,
		Closed:     c.IsClosed(),
		State:      state,
		Messages:   feed,
		Skipped:    skipped,
	}, nil
}

// InitiateRequest appends a REQUEST carrying the investigator's rationale.
// Repeating it replaces the stored request text and time.
func (s *Service) InitiateRequest(ctx context.Context, identity models.Identity, caseCode, text string) (Outcome, error) {
	if identity.Role != models.RoleInvestigator {
		return Outcome{}, fmt.Errorf("%w: only investigators can request a chat", ErrUnauthorized)
	}
	if err := validateText(text); err != nil {
		return Outcome{}, err
	}

	c, err := s.Authorize(ctx, identity, caseCode)
	if err != nil {
		return Outcome{}, err
	}

	body, err := envelope.BuildRequest(text)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if _, err := s.append(ctx, c, identity.Role, body); err != nil {
		return Outcome{}, err
	}

	state, _, _, err := s.load(ctx, c)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Case: c, State: state, Appended: true}, nil
}

// AcceptRequest opens the chat. Once the chat is active it appends nothing.
func (s *Service) AcceptRequest(ctx context.Context, identity models.Identity, caseCode string) (Outcome, error) {
	if identity.Role != models.RoleReporter {
		return Outcome{}, fmt.Errorf("%w: only the reporter can accept a chat request", ErrUnauthorized)
	}

	c, err := s.Authorize(ctx, identity, caseCode)
	if err != nil {
		return Outcome{}, err
	}

	state, _, _, err := s.load(ctx, c)
	if err != nil {
		return Outcome{}, err
	}

	switch state.ChatState {
	case models.ChatNotRequested:
		return Outcome{}, ErrNoPendingRequest
	case models.ChatActive:
		return Outcome{Case: c, State: state}, nil
	}

	body, err := envelope.BuildAccepted()
	if err != nil {
		return Outcome{}, err
	}
	if _, err := s.append(ctx, c, identity.Role, body); err != nil {
		return Outcome{}, err
	}

	state, _, _, err = s.load(ctx, c)
	if err != nil {
		return Outcome{}, err
	}

	s.notifier.Notify(ctx, notify.EventChatAccepted, c.Code)
	return Outcome{Case: c, State: state, Appended: true}, nil
}

// Send appends a chat turn. The chat must be active.
func (s *Service) Send(ctx context.Context, identity models.Identity, caseCode, text string) (Outcome, error) {
	if err := validateText(text); err != nil {
		return Outcome{}, err
	}
	if _, ok := envelope.Parse(text); ok {
		return Outcome{}, validationf("text uses a reserved format")
	}

	c, err := s.Authorize(ctx, identity, caseCode)
	if err != nil {
		return Outcome{}, err
	}

	state, _, _, err := s.load(ctx, c)
	if err != nil {
		return Outcome{}, err
	}
	if !state.ChatState.AtLeast(models.ChatActive) {
		return Outcome{}, ErrChatNotActive
	}

	msg, err := s.append(ctx, c, identity.Role, text)
	if err != nil {
		return Outcome{}, err
	}

	if identity.Role == models.RoleReporter {
		s.notifier.Notify(ctx, notify.EventReporterMessage, c.Code)
	}

	return Outcome{
		Case:  c,
		State: state,
		Message: &models.VisibleMessage{
			ID:         msg.ID,
			SenderRole: msg.SenderRole,
			Text:       text,
			CreatedAt:  msg.CreatedAt,
		},
		Appended: true,
	}, nil
}

// MarkSeen records that the caller's side has read up to messageID.
func (s *Service) MarkSeen(ctx context.Context, identity models.Identity, caseCode, messageID string) (Outcome, error) {
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return Outcome{}, validationf("message_id is required")
	}
	if len(messageID) > maxMessageIDLength {
		return Outcome{}, validationf("message_id is too long")
	}

	c, err := s.Authorize(ctx, identity, caseCode)
	if err != nil {
		return Outcome{}, err
	}

	body, err := envelope.BuildSeen(identity.Role, messageID)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if _, err := s.append(ctx, c, identity.Role, body); err != nil {
		return Outcome{}, err
	}

	state, _, _, err := s.load(ctx, c)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Case: c, State: state, Appended: true}, nil
}

func (s *Service) append(ctx context.Context, c *models.Case, role models.Role, plaintext string) (*models.Message, error) {
	token, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt log entry: %w", err)
	}
	msg, err := s.store.InsertMessage(ctx, c.ID, role, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return msg, nil
}

// load decrypts and replays the case log. Entries that fail to decrypt are
// logged and skipped; they never abort the replay.
func (s *Service) load(ctx context.Context, c *models.Case) (models.ThreadState, []models.VisibleMessage, int, error) {
	rows, err := s.store.ListMessagesByCase(ctx, c.ID)
	if err != nil {
		return models.ThreadState{}, nil, 0, fmt.Errorf("%w: %w", ErrTransient, err)
	}

	skipped := 0
	log := make([]models.DecryptedMessage, 0, len(rows))
	for _, m := range rows {
		text, err := s.cipher.Decrypt(m.Body)
		if err != nil {
			skipped++
			s.log.Error("skipping undecryptable log entry",
				"case_id", c.ID,
				"message_id", m.ID,
				"error", err,
			)
			continue
		}
		log = append(log, models.DecryptedMessage{
			ID:         m.ID,
			CaseID:     m.CaseID,
			SenderRole: m.SenderRole,
			Text:       text,
			CreatedAt:  m.CreatedAt,
		})
	}

	state, feed := thread.Replay(log)
	return state, feed, skipped, nil
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return validationf("text must not be empty")
	}
	n := utf8.RuneCountInString(text)
	if n < config.MinTextLength || n > config.MaxTextLength {
		return validationf("text must be %d to %d characters", config.MinTextLength, config.MaxTextLength)
	}
	return nil
}
