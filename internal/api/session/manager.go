// Package session binds browser sessions to their coordinators. The browser
// carries a signed cookie naming an opaque session id; the coordinator and
// the identity client behind it live in memory and are rebuilt from the
// session store after eviction or a restart.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/oracadehub/learning-portal/internal/api/metrics"
	"github.com/oracadehub/learning-portal/internal/core/ports"
	"github.com/oracadehub/learning-portal/internal/core/service"
	"github.com/oracadehub/learning-portal/internal/infrastructure/identity"
)

const (
	CookieName = "portal_session"

	ctxSessionID = "session_id"

	defaultIdleTimeout = 30 * time.Minute
	cleanupInterval    = time.Minute
)

type Config struct {
	Secret string
	// TTL bounds the cookie lifetime.
	TTL time.Duration
	// IdleTimeout evicts coordinators not used for that long.
	IdleTimeout time.Duration
	Secure      bool
}

type entry struct {
	coord    *service.Coordinator
	client   *identity.Client
	lastSeen time.Time
}

type Manager struct {
	cfg     Config
	backend *identity.Backend
	roles   ports.RoleRepository
	events  ports.AuthEventRecorder
	log     zerolog.Logger

	group   singleflight.Group
	mu      sync.Mutex
	entries map[string]*entry
}

func NewManager(
	cfg Config,
	backend *identity.Backend,
	roles ports.RoleRepository,
	events ports.AuthEventRecorder,
	log zerolog.Logger,
) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	return &Manager{
		cfg:     cfg,
		backend: backend,
		roles:   roles,
		events:  events,
		log:     log,
		entries: make(map[string]*entry),
	}
}

// Resolve returns the coordinator of the request's browser session, issuing
// a new session cookie when the request carries none or an invalid one.
func (m *Manager) Resolve(c echo.Context) (*service.Coordinator, error) {
	sid, ok := m.sessionID(c)
	if !ok {
		sid = uuid.NewString()
		if err := m.setCookie(c, sid); err != nil {
			return nil, err
		}
	}
	c.Set(ctxSessionID, sid)
	return m.acquire(c.Request().Context(), sid)
}

// Rotate moves the request's session to a fresh id and reissues the cookie.
// The old id stops resolving to the signed-in identity.
func (m *Manager) Rotate(c echo.Context) error {
	old, _ := c.Get(ctxSessionID).(string)
	m.mu.Lock()
	e, ok := m.entries[old]
	m.mu.Unlock()
	if !ok {
		return errors.New("rotate session: no live session for this request")
	}

	sid := uuid.NewString()
	signed, err := m.sign(sid)
	if err != nil {
		return err
	}
	if err := e.client.Rebind(c.Request().Context(), sid); err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}

	m.mu.Lock()
	delete(m.entries, old)
	m.entries[sid] = e
	m.mu.Unlock()

	c.Set(ctxSessionID, sid)
	c.SetCookie(m.cookie(signed))
	m.log.Debug().Str("sid", shortID(sid)).Msg("session id rotated")
	return nil
}

// acquire returns the live coordinator for sid, creating and starting it once
// even under concurrent requests of the same browser.
func (m *Manager) acquire(ctx context.Context, sid string) (*service.Coordinator, error) {
	if e := m.touch(sid); e != nil {
		if err := e.client.Refresh(ctx); err != nil {
			m.log.Warn().Err(err).Str("sid", shortID(sid)).Msg("session refresh failed")
		}
		return e.coord, nil
	}

	v, err, _ := m.group.Do(sid, func() (any, error) {
		if e := m.touch(sid); e != nil {
			return e.coord, nil
		}

		client := m.backend.NewClient(sid)
		coord := service.NewCoordinator(client, m.roles, m.events, m.log.With().Str("sid", shortID(sid)).Logger())
		coord.Start(context.WithoutCancel(ctx))

		m.mu.Lock()
		m.entries[sid] = &entry{coord: coord, client: client, lastSeen: time.Now()}
		n := len(m.entries)
		m.mu.Unlock()
		metrics.ActiveSessions.Set(float64(n))

		return coord, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*service.Coordinator), nil
}

func (m *Manager) touch(sid string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[sid]
	if !ok {
		return nil
	}
	e.lastSeen = time.Now()
	return e
}

func (m *Manager) sessionID(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(m.cfg.Secret), nil
	})
	if err != nil || !tkn.Valid || claims.ID == "" {
		return "", false
	}
	return claims.ID, true
}

func (m *Manager) setCookie(c echo.Context, sid string) error {
	signed, err := m.sign(sid)
	if err != nil {
		return err
	}
	c.SetCookie(m.cookie(signed))
	return nil
}

func (m *Manager) sign(sid string) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        sid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
	})
	signed, err := token.SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

func (m *Manager) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Run evicts idle coordinators until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle(time.Now())
		}
	}
}

func (m *Manager) evictIdle(now time.Time) int {
	m.mu.Lock()
	var stale []*entry
	for sid, e := range m.entries {
		if now.Sub(e.lastSeen) > m.cfg.IdleTimeout {
			stale = append(stale, e)
			delete(m.entries, sid)
		}
	}
	n := len(m.entries)
	m.mu.Unlock()

	for _, e := range stale {
		e.coord.Close()
	}
	if len(stale) > 0 {
		metrics.ActiveSessions.Set(float64(n))
		m.log.Debug().Int("evicted", len(stale)).Msg("idle sessions evicted")
	}
	return len(stale)
}

func shortID(sid string) string {
	if len(sid) > 8 {
		return sid[:8]
	}
	return sid
}
