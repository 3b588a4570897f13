package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
)

// Coordinator owns the identity, resolved role, loading and error state of
// one browser session and orchestrates every sign-in method.
//
// Operations are not mutually exclusive: two concurrent calls interleave and
// the last write to identity, role or error wins. The mutex only protects
// individual field updates.
type Coordinator struct {
	provider ports.IdentityProvider
	roles    ports.RoleRepository
	events   ports.AuthEventRecorder
	log      zerolog.Logger

	mu          sync.Mutex
	initialized bool
	inflight    int
	identity    *domain.Identity
	role        domain.Role
	errMsg      string
	unsubscribe func()
}

// NewCoordinator wires a coordinator. events may be nil.
func NewCoordinator(
	provider ports.IdentityProvider,
	roles ports.RoleRepository,
	events ports.AuthEventRecorder,
	log zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		provider: provider,
		roles:    roles,
		events:   events,
		log:      log,
	}
}

// Start subscribes to session changes. The coordinator stays in the
// initializing state until the provider delivered its first event and the
// role lookup for it settled.
func (c *Coordinator) Start(ctx context.Context) {
	c.begin()
	unsubscribe := c.provider.OnSessionChanged(ctx, c.onSessionChanged)

	c.mu.Lock()
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
}

// Close drops the session subscription.
func (c *Coordinator) Close() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (c *Coordinator) onSessionChanged(ctx context.Context, identity *domain.Identity) {
	c.begin()
	defer c.end()

	c.setIdentity(identity)
	if identity != nil {
		c.ensureRole(ctx, identity, nil)
	} else {
		c.setRole("")
	}

	c.mu.Lock()
	first := !c.initialized
	c.initialized = true
	c.mu.Unlock()
	if first {
		// Releases the bracket opened by Start.
		c.end()
	}
}

// SignInWithPassword signs in with email and password. When intendedRole is
// non-nil the role record is overwritten with it.
func (c *Coordinator) SignInWithPassword(ctx context.Context, email, password string, intendedRole *domain.Role) {
	c.begin()
	defer c.end()
	c.clearError()

	identity, err := c.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		c.log.Warn().Err(err).Str("email", email).Msg("password sign in failed")
		c.fail(signInMessage(err))
		return
	}

	c.setIdentity(identity)
	c.ensureRole(ctx, identity, intendedRole)
	c.record(domain.EventSignIn, identity, domain.ProviderPassword, "")
}

// SignUpWithPassword creates a new identity and then writes its role record.
func (c *Coordinator) SignUpWithPassword(ctx context.Context, email, password string, intendedRole domain.Role) {
	c.begin()
	defer c.end()
	c.clearError()

	if !intendedRole.Valid() {
		c.fail(MsgSignUpFailed)
		return
	}

	identity, err := c.provider.CreateUserWithPassword(ctx, email, password)
	if err != nil {
		c.log.Warn().Err(err).Str("email", email).Msg("password sign up failed")
		c.fail(signUpMessage(err))
		return
	}

	c.setIdentity(identity)
	c.ensureRole(ctx, identity, &intendedRole)
	c.record(domain.EventSignUp, identity, domain.ProviderPassword, intendedRole)
}

// SignInWithFederatedProvider tries the interactive flow first. When the
// browser reports it blocked or superseded, it falls back once to a redirect
// and returns the URL to send the browser to. A user cancellation is a no-op.
func (c *Coordinator) SignInWithFederatedProvider(ctx context.Context, intendedRole *domain.Role, attempt ports.PopupAttempt) (redirectURL string) {
	c.begin()
	defer c.end()
	c.clearError()

	identity, err := c.provider.SignInWithPopup(ctx, attempt)
	if err == nil {
		c.setIdentity(identity)
		c.ensureRole(ctx, identity, intendedRole)
		c.record(domain.EventSignIn, identity, domain.ProviderGoogle, "")
		return ""
	}

	switch domain.ProviderCode(err) {
	case domain.CodePopupBlocked, domain.CodeCancelledPopup:
		url, rerr := c.provider.SignInWithRedirect(ctx, intendedRole)
		if rerr != nil {
			c.log.Error().Err(rerr).Msg("federated redirect failed")
			c.fail(MsgFederatedFailed)
			return ""
		}
		return url
	case domain.CodePopupClosedByUser:
		return ""
	default:
		c.log.Error().Err(err).Msg("federated popup sign in failed")
		c.fail(MsgFederatedFailed)
		return ""
	}
}

// ResumeRedirect completes a redirect sign-in started by
// SignInWithFederatedProvider.
func (c *Coordinator) ResumeRedirect(ctx context.Context, cb ports.RedirectCallback) {
	c.begin()
	defer c.end()
	c.clearError()

	outcome, err := c.provider.RedirectResult(ctx, cb)
	if err != nil {
		if !silentFederatedCode(domain.ProviderCode(err)) {
			c.log.Error().Err(err).Msg("redirect sign in failed")
			c.fail(MsgRedirectFailed)
		}
		return
	}
	if outcome == nil {
		return
	}

	c.setIdentity(outcome.Identity)
	c.ensureRole(ctx, outcome.Identity, outcome.IntendedRole)
	c.record(domain.EventSignIn, outcome.Identity, domain.ProviderGoogle, "")
}

// SignOut ends the session. Local identity and role are only cleared once
// the provider confirmed; on failure they are kept and an error is surfaced.
func (c *Coordinator) SignOut(ctx context.Context) {
	c.begin()
	defer c.end()
	c.clearError()

	c.mu.Lock()
	identity := c.identity
	c.mu.Unlock()

	if err := c.provider.SignOut(ctx); err != nil {
		c.log.Error().Err(err).Msg("sign out failed")
		c.fail(MsgSignOutFailed)
		return
	}

	c.mu.Lock()
	c.identity = nil
	c.role = ""
	c.mu.Unlock()

	if identity != nil {
		c.record(domain.EventSignOut, identity, identity.Provider, "")
	}
}

// State returns a snapshot of the coordinator.
func (c *Coordinator) State() domain.AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := domain.AuthState{
		Identity: c.identity,
		Role:     c.role,
		Loading:  c.inflight > 0,
	}
	switch {
	case !c.initialized:
		s.Kind = domain.StateInitializing
	case c.errMsg != "":
		s.Kind = domain.StateError
		s.Message = c.errMsg
	case c.identity == nil:
		s.Kind = domain.StateUnauthenticated
	case c.role == "":
		s.Kind = domain.StateRoleUnknown
	default:
		s.Kind = domain.StateAuthenticated
	}
	return s
}

// ensureRole applies the role resolution policy: an intended role is written
// unconditionally, otherwise the stored record is read and a missing record
// leaves the role unresolved.
func (c *Coordinator) ensureRole(ctx context.Context, identity *domain.Identity, intendedRole *domain.Role) domain.Role {
	if intendedRole == nil || !intendedRole.Valid() {
		rec, err := c.roles.Get(ctx, identity.UID)
		if err != nil {
			if !errors.Is(err, domain.ErrRoleNotFound) {
				c.log.Error().Err(err).Str("uid", identity.UID).Msg("role lookup failed")
				c.fail(MsgRoleVerification)
			}
			c.setRole("")
			return ""
		}
		c.setRole(rec.Role)
		return rec.Role
	}

	role := *intendedRole
	if err := c.roles.Upsert(ctx, identity.UID, identity.Email, role); err != nil {
		c.log.Error().Err(err).Str("uid", identity.UID).Str("role", string(role)).Msg("role write failed")
		c.fail(roleAssignMessage(role))
		c.setRole("")
		return ""
	}

	c.log.Info().Str("uid", identity.UID).Str("role", string(role)).Msg("role assigned")
	c.setRole(role)
	c.record(domain.EventRoleAssigned, identity, "", role)
	return role
}

func (c *Coordinator) record(kind domain.AuthEventKind, identity *domain.Identity, method string, role domain.Role) {
	if c.events == nil || identity == nil {
		return
	}
	c.events.Record(domain.AuthEvent{
		UserID: identity.UID,
		Kind:   kind,
		Method: method,
		Role:   role,
		At:     time.Now().UTC(),
	})
}

func (c *Coordinator) begin() {
	c.mu.Lock()
	c.inflight++
	c.mu.Unlock()
}

func (c *Coordinator) end() {
	c.mu.Lock()
	if c.inflight > 0 {
		c.inflight--
	}
	c.mu.Unlock()
}

func (c *Coordinator) setIdentity(identity *domain.Identity) {
	c.mu.Lock()
	c.identity = identity
	c.mu.Unlock()
}

func (c *Coordinator) setRole(role domain.Role) {
	c.mu.Lock()
	c.role = role
	c.mu.Unlock()
}

func (c *Coordinator) fail(msg string) {
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
}

func (c *Coordinator) clearError() {
	c.mu.Lock()
	c.errMsg = ""
	c.mu.Unlock()
}
