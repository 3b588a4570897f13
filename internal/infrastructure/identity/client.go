package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
)

// Browser-reported failures of the interactive sign-in window.
const (
	PopupFailedToOpen = "popup_failed_to_open"
	PopupClosed       = "popup_closed"
	PopupSuperseded   = "popup_superseded"
)

// Client is the identity provider as seen by one browser session.
// Listeners run synchronously on the goroutine that changed the session.
type Client struct {
	backend *Backend

	mu        sync.Mutex
	sessionID string
	loaded    bool
	current   *domain.Identity
	listeners map[int]ports.SessionListener
	nextID    int
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, error) {
	acc, err := c.backend.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, acc)
}

func (c *Client) CreateUserWithPassword(ctx context.Context, email, password string) (*domain.Identity, error) {
	acc, err := c.backend.register(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, acc)
}

// SignInWithPopup completes an interactive sign-in from the access token the
// browser obtained in its popup window.
func (c *Client) SignInWithPopup(ctx context.Context, attempt ports.PopupAttempt) (*domain.Identity, error) {
	switch attempt.Failure {
	case "":
	case PopupClosed:
		return nil, domain.NewProviderError(domain.CodePopupClosedByUser, nil)
	case PopupSuperseded:
		return nil, domain.NewProviderError(domain.CodeCancelledPopup, nil)
	default:
		return nil, domain.NewProviderError(domain.CodePopupBlocked, fmt.Errorf("popup failure %q", attempt.Failure))
	}
	if attempt.Credential == "" {
		return nil, domain.NewProviderError(domain.CodePopupBlocked, nil)
	}

	if err := c.backend.verifyAudience(ctx, attempt.Credential); err != nil {
		return nil, err
	}
	acc, err := c.backend.federated(ctx, &oauth2.Token{AccessToken: attempt.Credential, TokenType: "Bearer"})
	if err != nil {
		return nil, err
	}
	return c.establish(ctx, acc)
}

func (c *Client) SignInWithRedirect(ctx context.Context, intendedRole *domain.Role) (string, error) {
	return c.backend.authCodeURL(ctx, intendedRole)
}

// RedirectResult exchanges the provider callback for a session.
func (c *Client) RedirectResult(ctx context.Context, cb ports.RedirectCallback) (*ports.RedirectOutcome, error) {
	if cb.State == "" && cb.Code == "" && cb.Error == "" {
		return nil, nil
	}

	role, err := c.backend.states.Consume(ctx, cb.State)
	if err != nil {
		return nil, err
	}
	if cb.Error != "" {
		if cb.Error == "access_denied" {
			return nil, domain.NewProviderError(domain.CodePopupClosedByUser, nil)
		}
		return nil, fmt.Errorf("provider returned %q", cb.Error)
	}

	token, err := c.backend.exchange(ctx, cb.Code)
	if err != nil {
		return nil, err
	}
	acc, err := c.backend.federated(ctx, token)
	if err != nil {
		return nil, err
	}
	identity, err := c.establish(ctx, acc)
	if err != nil {
		return nil, err
	}
	return &ports.RedirectOutcome{Identity: identity, IntendedRole: role}, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	if err := c.backend.sessions.Delete(ctx, c.sid()); err != nil {
		return domain.NewProviderError(domain.CodeNetworkRequestFailed, err)
	}
	c.publish(ctx, nil)
	return nil
}

// OnSessionChanged registers fn and calls it once with the current identity.
func (c *Client) OnSessionChanged(ctx context.Context, fn ports.SessionListener) func() {
	if err := c.load(ctx); err != nil {
		c.backend.log.Warn().Err(err).Str("sid", c.sid()).Msg("session load failed")
	}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	current := c.current
	c.mu.Unlock()

	fn(ctx, current)

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Refresh re-reads the session binding and notifies listeners when it
// changed, e.g. after the session expired or was ended elsewhere.
func (c *Client) Refresh(ctx context.Context) error {
	identity, err := c.lookup(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	changed := !sameIdentity(c.current, identity)
	c.mu.Unlock()
	if changed {
		c.publish(ctx, identity)
	}
	return nil
}

// Current returns the identity bound to the session, if any.
func (c *Client) Current() *domain.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Client) load(ctx context.Context) error {
	c.mu.Lock()
	loaded := c.loaded
	c.mu.Unlock()
	if loaded {
		return nil
	}

	identity, err := c.lookup(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.current = identity
	c.loaded = true
	c.mu.Unlock()
	return nil
}

func (c *Client) lookup(ctx context.Context) (*domain.Identity, error) {
	uid, err := c.backend.sessions.Get(ctx, c.sid())
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	acc, err := c.backend.accounts.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if acc.Disabled {
		return nil, nil
	}
	return acc.Identity(), nil
}

func (c *Client) establish(ctx context.Context, acc *domain.Account) (*domain.Identity, error) {
	if err := c.backend.sessions.Put(ctx, c.sid(), acc.UID); err != nil {
		return nil, domain.NewProviderError(domain.CodeNetworkRequestFailed, err)
	}
	identity := acc.Identity()
	c.publish(ctx, identity)
	return identity, nil
}

// Rebind moves the signed-in session to a new session id and invalidates the
// old one. It is called after a sign-in so a session id handed out before
// authentication never carries the identity.
func (c *Client) Rebind(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	old := c.sessionID
	current := c.current
	c.mu.Unlock()

	if current != nil {
		if err := c.backend.sessions.Put(ctx, sessionID, current.UID); err != nil {
			return domain.NewProviderError(domain.CodeNetworkRequestFailed, err)
		}
	}
	if err := c.backend.sessions.Delete(ctx, old); err != nil {
		_ = c.backend.sessions.Delete(ctx, sessionID)
		return domain.NewProviderError(domain.CodeNetworkRequestFailed, err)
	}

	c.mu.Lock()
	c.sessionID = sessionID
	c.mu.Unlock()
	return nil
}

func (c *Client) sid() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Client) publish(ctx context.Context, identity *domain.Identity) {
	c.mu.Lock()
	c.current = identity
	c.loaded = true
	fns := make([]ports.SessionListener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ctx, identity)
	}
}

func sameIdentity(a, b *domain.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.UID == b.UID
}

var _ ports.IdentityProvider = (*Client)(nil)
