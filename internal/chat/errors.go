package chat

import (
	"context"
	"errors"
	"fmt"

	"ethos/backend/internal/access"
	"ethos/backend/internal/fieldcrypt"
	"ethos/backend/internal/storage"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrTransient    = errors.New("temporarily unavailable")

	// ErrNoPendingRequest is returned when a reporter accepts before any request exists.
	ErrNoPendingRequest = fmt.Errorf("%w: there is no chat request to accept", ErrInvalidState)
	// ErrChatNotActive is returned when text is sent before the reporter accepted.
	ErrChatNotActive = fmt.Errorf("%w: chat is not active", ErrInvalidState)
)

// Wire codes returned in ack and error frames.
const (
	CodeUnauthorized = "unauthorized"
	CodeValidation   = "validation_error"
	CodeNotFound     = "not_found"
	CodeInvalidState = "invalid_state"
	CodeTransient    = "transient"
	CodeInternal     = "internal_error"
)

// Code maps err to a stable wire code.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized), errors.Is(err, access.ErrDenied):
		return CodeUnauthorized
	case errors.Is(err, ErrValidation):
		return CodeValidation
	case errors.Is(err, ErrNotFound), errors.Is(err, access.ErrCaseNotFound):
		return CodeNotFound
	case errors.Is(err, ErrInvalidState):
		return CodeInvalidState
	case errors.Is(err, ErrTransient), errors.Is(err, storage.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return CodeTransient
	default:
		return CodeInternal
	}
}

// PublicMessage returns text that is safe to show the caller. Store and cipher
// details never leave the process.
func PublicMessage(err error) string {
	switch Code(err) {
	case "":
		return ""
	case CodeUnauthorized:
		return "you are not a participant of this case"
	case CodeValidation:
		return err.Error()
	case CodeNotFound:
		return "case not found"
	case CodeInvalidState:
		switch {
		case errors.Is(err, ErrNoPendingRequest):
			return "there is no chat request to accept"
		case errors.Is(err, ErrChatNotActive):
			return "chat is not active yet"
		}
		return "operation not allowed in the current chat state"
	case CodeTransient:
		return "service temporarily unavailable, try again"
	default:
		if errors.Is(err, fieldcrypt.ErrInvalidCiphertext) {
			return "message could not be processed"
		}
		return "internal error"
	}
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
