package ports

import (
	"context"

	"github.com/oracadehub/learning-portal/internal/core/domain"
)

// PopupAttempt carries the outcome of the browser's interactive sign-in
// window. Credential is the provider access token when the window completed;
// Failure is the browser-reported failure ("popup_failed_to_open",
// "popup_closed", ...) otherwise.
type PopupAttempt struct {
	Credential string
	Failure    string
}

// RedirectCallback is the query of a provider redirect landing on the portal.
type RedirectCallback struct {
	State string
	Code  string
	Error string
}

// RedirectOutcome is the identity recovered from a redirect sign-in along
// with the role intent stored when the redirect started.
type RedirectOutcome struct {
	Identity     *domain.Identity
	IntendedRole *domain.Role
}

// SessionListener receives the current identity, or nil when the session ended.
type SessionListener func(ctx context.Context, identity *domain.Identity)

// IdentityProvider is the session-scoped identity provider client. One
// instance exists per browser session.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, error)
	CreateUserWithPassword(ctx context.Context, email, password string) (*domain.Identity, error)
	SignInWithPopup(ctx context.Context, attempt PopupAttempt) (*domain.Identity, error)
	// SignInWithRedirect starts a full-page handoff and returns the URL the
	// browser must be sent to.
	SignInWithRedirect(ctx context.Context, intendedRole *domain.Role) (string, error)
	// RedirectResult resumes a redirect sign-in. It returns (nil, nil) when
	// there is nothing to resume.
	RedirectResult(ctx context.Context, cb RedirectCallback) (*RedirectOutcome, error)
	SignOut(ctx context.Context) error
	// OnSessionChanged registers fn, invokes it once with the current
	// identity and then on every change.
	OnSessionChanged(ctx context.Context, fn SessionListener) (unsubscribe func())
}
