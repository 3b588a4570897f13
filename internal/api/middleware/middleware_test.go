package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
	"github.com/oracadehub/learning-portal/internal/core/service"
)

// fixedProvider reports a fixed session identity and supports nothing else.
type fixedProvider struct {
	identity *domain.Identity
}

func (p *fixedProvider) SignInWithPassword(context.Context, string, string) (*domain.Identity, error) {
	return nil, errors.New("unsupported")
}
func (p *fixedProvider) CreateUserWithPassword(context.Context, string, string) (*domain.Identity, error) {
	return nil, errors.New("unsupported")
}
func (p *fixedProvider) SignInWithPopup(context.Context, ports.PopupAttempt) (*domain.Identity, error) {
	return nil, errors.New("unsupported")
}
func (p *fixedProvider) SignInWithRedirect(context.Context, *domain.Role) (string, error) {
	return "", errors.New("unsupported")
}
func (p *fixedProvider) RedirectResult(context.Context, ports.RedirectCallback) (*ports.RedirectOutcome, error) {
	return nil, nil
}
func (p *fixedProvider) SignOut(context.Context) error { return nil }
func (p *fixedProvider) OnSessionChanged(ctx context.Context, fn ports.SessionListener) func() {
	fn(ctx, p.identity)
	return func() {}
}

type fixedRoles struct{ role domain.Role }

func (r fixedRoles) Get(_ context.Context, uid string) (*domain.RoleRecord, error) {
	if r.role == "" {
		return nil, domain.ErrRoleNotFound
	}
	return &domain.RoleRecord{UserID: uid, Role: r.role}, nil
}
func (fixedRoles) Upsert(context.Context, string, string, domain.Role) error { return nil }

func coordinatorFor(identity *domain.Identity, role domain.Role, start bool) *service.Coordinator {
	c := service.NewCoordinator(&fixedProvider{identity: identity}, fixedRoles{role: role}, nil, zerolog.Nop())
	if start {
		c.Start(context.Background())
	}
	return c
}

type stubRenderer struct{ rendered string }

func (r *stubRenderer) Render(w io.Writer, name string, _ any, _ echo.Context) error {
	r.rendered = name
	_, err := io.WriteString(w, name)
	return err
}

type stubResolver struct {
	coord *service.Coordinator
	err   error
}

func (r stubResolver) Resolve(echo.Context) (*service.Coordinator, error) { return r.coord, r.err }

func run(t *testing.T, mw echo.MiddlewareFunc, coord *service.Coordinator) (*httptest.ResponseRecorder, *stubRenderer, bool) {
	t.Helper()
	e := echo.New()
	renderer := &stubRenderer{}
	e.Renderer = renderer

	req := httptest.NewRequest(http.MethodGet, "/student/dashboard", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if coord != nil {
		SetCoordinator(c, coord)
	}

	called := false
	handler := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, renderer, called
}

var alice = &domain.Identity{UID: "u1", Email: "a@b.com"}

func TestRequireRole_Allows(t *testing.T) {
	rec, _, called := run(t, RequireRole(domain.RoleStudent), coordinatorFor(alice, domain.RoleStudent, true))

	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_RedirectsOnRoleMismatch(t *testing.T) {
	rec, _, called := run(t, RequireRole(domain.RoleInstructor), coordinatorFor(alice, domain.RoleStudent, true))

	if called {
		t.Fatalf("should not reach next handler")
	}
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/" {
		t.Fatalf("expected 302 to /, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
}

func TestRequireRole_RedirectsAnonymous(t *testing.T) {
	rec, _, called := run(t, RequireRole(domain.RoleStudent), coordinatorFor(nil, "", true))

	if called || rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d (called=%v)", rec.Code, called)
	}
}

func TestRequireRole_RedirectsUnknownRole(t *testing.T) {
	rec, _, called := run(t, RequireRole(domain.RoleStudent), coordinatorFor(alice, "", true))

	if called || rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d (called=%v)", rec.Code, called)
	}
}

func TestRequireRole_LoadingPlaceholder(t *testing.T) {
	rec, renderer, called := run(t, RequireRole(domain.RoleStudent), coordinatorFor(alice, domain.RoleStudent, false))

	if called {
		t.Fatalf("should not reach next handler while initializing")
	}
	if rec.Code != http.StatusOK || renderer.rendered != "loading" {
		t.Fatalf("expected loading page, got %d %q", rec.Code, renderer.rendered)
	}
}

func TestPublicOnly(t *testing.T) {
	rec, _, called := run(t, PublicOnly(), coordinatorFor(alice, domain.RoleInstructor, true))
	if called || rec.Header().Get(echo.HeaderLocation) != "/instructor/dashboard" {
		t.Fatalf("expected dashboard redirect, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}

	_, _, called = run(t, PublicOnly(), coordinatorFor(nil, "", true))
	if !called {
		t.Fatalf("anonymous visitor must see the page")
	}

	_, _, called = run(t, PublicOnly(), coordinatorFor(alice, "", true))
	if !called {
		t.Fatalf("identity without role must see the page")
	}
}

func TestSession_InjectsCoordinator(t *testing.T) {
	coord := coordinatorFor(nil, "", true)
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	var got *service.Coordinator
	handler := Session(stubResolver{coord: coord})(func(c echo.Context) error {
		got = Coordinator(c)
		return nil
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got != coord {
		t.Fatalf("coordinator not injected")
	}
}

func TestSession_ResolveError(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	handler := Session(stubResolver{err: errors.New("redis down")})(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})
	if err := handler(c); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRateLimiter_RejectsBurstOverflow(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(0.001), 2)
	e := echo.New()
	handler := rl.Middleware()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		if err := handler(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence: %v", codes)
	}
}

func TestRateLimiter_RetryAfter(t *testing.T) {
	tests := []struct {
		limit rate.Limit
		want  string
	}{
		{0, "300"},
		{-2, "300"},
		{rate.Limit(0.001), "300"},
		{rate.Limit(0.25), "4"},
		{rate.Limit(0.3), "4"},
		{rate.Limit(5), "1"},
	}
	e := echo.New()
	for _, tt := range tests {
		rl := NewRateLimiter(tt.limit, 0)
		handler := rl.Middleware()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		err := handler(c)
		if err == nil {
			t.Fatalf("limit %v: expected rejection with an empty bucket", tt.limit)
		}
		if got := rec.Header().Get("Retry-After"); got != tt.want {
			t.Fatalf("limit %v: Retry-After = %q, want %q", tt.limit, got, tt.want)
		}
	}
}

type rotatingResolver struct {
	stubResolver
	rotations int
}

func (r *rotatingResolver) Rotate(echo.Context) error {
	r.rotations++
	return nil
}

func TestSession_ExposesRotator(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/auth/login", nil), httptest.NewRecorder())
	resolver := &rotatingResolver{stubResolver: stubResolver{coord: coordinatorFor(nil, "", true)}}

	handler := Session(resolver)(func(c echo.Context) error {
		return RotateSession(c)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resolver.rotations != 1 {
		t.Fatalf("expected rotation through the resolver, got %d", resolver.rotations)
	}
}

func TestRotateSession_NoRotator(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if err := RotateSession(c); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
