package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/oracadehub/learning-portal/internal/api/view"
	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
)

type stubPosts map[string]domain.Post

func (s stubPosts) Get(slug string) (domain.Post, error) {
	p, ok := s[slug]
	if !ok {
		return domain.Post{}, domain.ErrPostNotFound
	}
	return p, nil
}

type stubDashboards struct {
	view ports.DashboardView
}

func (s stubDashboards) Load(_ context.Context, _ *domain.Identity, role domain.Role) ports.DashboardView {
	v := s.view
	v.Role = role
	return v
}

func newPageHandler() *PageHandler {
	posts := stubPosts{"quality-content": {Slug: "quality-content", Title: "Quality Content"}}
	return NewPageHandler(posts, stubDashboards{view: ports.DashboardView{Status: ports.DashboardReady}}, "client-id")
}

func TestPageHandler_HomeOpensModal(t *testing.T) {
	coord := startCoordinator(&stubProvider{}, newMemRoles())
	c, rec, renderer := newContext(http.MethodGet, "/?auth=signup&role=instructor", "", coord)

	if err := newPageHandler().Home(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK || renderer.name != view.PageHome {
		t.Fatalf("expected home page, got %d %q", rec.Code, renderer.name)
	}
	page := renderer.data.(view.Page)
	if page.Modal == nil || page.Modal.Title() != "Instructor Sign Up" {
		t.Fatalf("unexpected modal: %+v", page.Modal)
	}
	if page.GoogleClientID != "client-id" || len(page.Features) != len(view.Features) {
		t.Fatalf("page data incomplete: %+v", page)
	}
}

func TestPageHandler_HomeWithoutModal(t *testing.T) {
	coord := startCoordinator(&stubProvider{}, newMemRoles())
	c, _, renderer := newContext(http.MethodGet, "/?auth=bogus", "", coord)

	if err := newPageHandler().Home(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if page := renderer.data.(view.Page); page.Modal != nil {
		t.Fatalf("modal must stay closed, got %+v", page.Modal)
	}
}

func TestPageHandler_Post(t *testing.T) {
	coord := startCoordinator(&stubProvider{}, newMemRoles())
	c, rec, renderer := newContext(http.MethodGet, "/blog/quality-content", "", coord)
	c.SetParamNames("slug")
	c.SetParamValues("quality-content")

	if err := newPageHandler().Post(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || renderer.name != view.PagePost {
		t.Fatalf("expected post page, got %d %q", rec.Code, renderer.name)
	}
}

func TestPageHandler_PostNotFound(t *testing.T) {
	coord := startCoordinator(&stubProvider{}, newMemRoles())
	c, rec, renderer := newContext(http.MethodGet, "/blog/missing", "", coord)
	c.SetParamNames("slug")
	c.SetParamValues("missing")

	if err := newPageHandler().Post(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound || renderer.name != view.PagePostNotFound {
		t.Fatalf("expected 404 page, got %d %q", rec.Code, renderer.name)
	}
}

type failingPosts struct{}

func (failingPosts) Get(string) (domain.Post, error) { return domain.Post{}, errors.New("broken") }

func TestPageHandler_PostUnexpectedError(t *testing.T) {
	h := NewPageHandler(failingPosts{}, stubDashboards{}, "")
	c, _, _ := newContext(http.MethodGet, "/blog/x", "", nil)
	c.SetParamNames("slug")
	c.SetParamValues("x")

	if err := h.Post(c); err == nil {
		t.Fatalf("expected error to reach the error handler")
	}
}

func TestPageHandler_Dashboard(t *testing.T) {
	roles := newMemRoles()
	roles.roles["u1"] = domain.RoleStudent
	coord := startCoordinator(&stubProvider{current: alice}, roles)
	c, rec, renderer := newContext(http.MethodGet, "/student/dashboard", "", coord)

	if err := newPageHandler().Dashboard(domain.RoleStudent)(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusOK || renderer.name != view.PageDashboard {
		t.Fatalf("expected dashboard page, got %d %q", rec.Code, renderer.name)
	}
	page := renderer.data.(view.Page)
	if page.Dashboard.Role != domain.RoleStudent || page.Title != "Student Dashboard | OracadeHub" {
		t.Fatalf("unexpected page: %q %+v", page.Title, page.Dashboard)
	}
}

func TestPageHandler_Fallback(t *testing.T) {
	roles := newMemRoles()
	roles.roles["u1"] = domain.RoleInstructor

	tests := []struct {
		name     string
		provider *stubProvider
		want     string
	}{
		{"anonymous", &stubProvider{}, "/"},
		{"signed in", &stubProvider{current: alice}, "/instructor/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec, _ := newContext(http.MethodGet, "/nowhere", "", startCoordinator(tt.provider, roles))
			if err := newPageHandler().Fallback(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusFound || location(rec) != tt.want {
				t.Fatalf("expected 302 to %q, got %d %q", tt.want, rec.Code, location(rec))
			}
		})
	}
}

func TestSessionHandler_Get(t *testing.T) {
	roles := newMemRoles()
	roles.roles["u1"] = domain.RoleStudent
	c, rec, _ := newContext(http.MethodGet, "/api/session", "", startCoordinator(&stubProvider{current: alice}, roles))

	if err := NewSessionHandler().Get(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decodeSession(t, rec.Body.Bytes())
	if resp.State.Kind != domain.StateAuthenticated || resp.State.Identity.UID != "u1" {
		t.Fatalf("unexpected state: %+v", resp.State)
	}
}
