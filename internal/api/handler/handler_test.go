package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/oracadehub/learning-portal/internal/api/middleware"
	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
	"github.com/oracadehub/learning-portal/internal/core/service"
)

type stubProvider struct {
	current   *domain.Identity
	signInFn  func(email, password string) (*domain.Identity, error)
	signUpFn  func(email, password string) (*domain.Identity, error)
	popupFn   func(attempt ports.PopupAttempt) (*domain.Identity, error)
	redirect  string
	resumeFn  func(cb ports.RedirectCallback) (*ports.RedirectOutcome, error)
	signOutFn func() error
}

func (p *stubProvider) SignInWithPassword(_ context.Context, email, password string) (*domain.Identity, error) {
	return p.signInFn(email, password)
}

func (p *stubProvider) CreateUserWithPassword(_ context.Context, email, password string) (*domain.Identity, error) {
	return p.signUpFn(email, password)
}

func (p *stubProvider) SignInWithPopup(_ context.Context, attempt ports.PopupAttempt) (*domain.Identity, error) {
	return p.popupFn(attempt)
}

func (p *stubProvider) SignInWithRedirect(context.Context, *domain.Role) (string, error) {
	return p.redirect, nil
}

func (p *stubProvider) RedirectResult(_ context.Context, cb ports.RedirectCallback) (*ports.RedirectOutcome, error) {
	if p.resumeFn == nil {
		return nil, nil
	}
	return p.resumeFn(cb)
}

func (p *stubProvider) SignOut(context.Context) error {
	if p.signOutFn != nil {
		return p.signOutFn()
	}
	return nil
}

func (p *stubProvider) OnSessionChanged(ctx context.Context, fn ports.SessionListener) func() {
	fn(ctx, p.current)
	return func() {}
}

type memRoles struct {
	mu    sync.Mutex
	roles map[string]domain.Role
}

func newMemRoles() *memRoles { return &memRoles{roles: map[string]domain.Role{}} }

func (r *memRoles) Get(_ context.Context, uid string) (*domain.RoleRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[uid]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return &domain.RoleRecord{UserID: uid, Role: role}, nil
}

func (r *memRoles) Upsert(_ context.Context, uid, _ string, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[uid] = role
	return nil
}

type recordingRenderer struct {
	name string
	data any
}

func (r *recordingRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	r.name = name
	r.data = data
	_, err := io.WriteString(w, name)
	return err
}

var alice = &domain.Identity{UID: "u1", Email: "alice@example.com", Provider: domain.ProviderPassword}

func startCoordinator(p *stubProvider, roles *memRoles) *service.Coordinator {
	coord := service.NewCoordinator(p, roles, nil, zerolog.Nop())
	coord.Start(context.Background())
	return coord
}

// newContext builds a request context carrying coord. A body starting with
// '{' is sent as JSON, anything else as a form.
func newContext(method, target, body string, coord *service.Coordinator) (echo.Context, *httptest.ResponseRecorder, *recordingRenderer) {
	e := echo.New()
	e.Validator = NewValidator()
	renderer := &recordingRenderer{}
	e.Renderer = renderer

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if strings.HasPrefix(body, "{") {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if coord != nil {
		middleware.SetCoordinator(c, coord)
	}
	return c, rec, renderer
}

func location(rec *httptest.ResponseRecorder) string {
	return rec.Header().Get(echo.HeaderLocation)
}
