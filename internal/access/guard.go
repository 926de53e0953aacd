// Package access decides whether an identity may take part in a case chat.
package access

import (
	"context"
	"errors"

	"ethos/backend/internal/models"
)

var (
	// ErrDenied means the identity is missing, malformed or not a participant.
	ErrDenied = errors.New("not a participant of this case")
	// ErrCaseNotFound means the case code does not resolve. Reporters never
	// see it: for them an unknown code is reported as ErrDenied.
	ErrCaseNotFound = errors.New("case not found")
)

// CaseFinder is the slice of the case collaborator the guard needs.
type CaseFinder interface {
	FindCaseByCode(ctx context.Context, code string) (*models.Case, error)
	FindCaseForIdentity(ctx context.Context, code string, identity models.Identity) (*models.Case, error)
}

// Guard authorizes identities against case records.
type Guard struct {
	cases CaseFinder
}

// NewGuard returns a Guard backed by cases.
func NewGuard(cases CaseFinder) *Guard {
	return &Guard{cases: cases}
}

// Authorize returns the case when identity is the reporter who owns it or an
// investigator whose queue includes it. It has no side effects.
func (g *Guard) Authorize(ctx context.Context, identity models.Identity, caseCode string) (*models.Case, error) {
	if identity.ID == "" || !identity.Role.Valid() {
		return nil, ErrDenied
	}
	if caseCode == "" {
		return nil, ErrCaseNotFound
	}

	c, err := g.cases.FindCaseForIdentity(ctx, caseCode, identity)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}

	if identity.Role == models.RoleReporter {
		return nil, ErrDenied
	}

	exists, err := g.cases.FindCaseByCode(ctx, caseCode)
	if err != nil {
		return nil, err
	}
	if exists == nil {
		return nil, ErrCaseNotFound
	}
	return nil, ErrDenied
}
