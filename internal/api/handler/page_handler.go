package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/oracadehub/learning-portal/internal/api/metrics"
	"github.com/oracadehub/learning-portal/internal/api/middleware"
	"github.com/oracadehub/learning-portal/internal/api/view"
	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
	"github.com/oracadehub/learning-portal/internal/core/service"
)

const siteTitle = "OracadeHub"

// PostSource looks up blog posts by slug.
type PostSource interface {
	Get(slug string) (domain.Post, error)
}

type PageHandler struct {
	posts          PostSource
	dashboards     ports.DashboardService
	googleClientID string
}

func NewPageHandler(posts PostSource, dashboards ports.DashboardService, googleClientID string) *PageHandler {
	return &PageHandler{
		posts:          posts,
		dashboards:     dashboards,
		googleClientID: googleClientID,
	}
}

// Home renders the landing page. ?auth=login|signup opens the sign-in
// dialog, ?role= preselects the role it is for.
func (h *PageHandler) Home(c echo.Context) error {
	var modal *view.Modal
	switch c.QueryParam("auth") {
	case "login":
		modal = &view.Modal{Role: roleOf(c.QueryParam("role"))}
	case "signup":
		modal = &view.Modal{Role: roleOf(c.QueryParam("role")), SignUp: true}
	}
	return c.Render(http.StatusOK, view.PageHome, homePage(middleware.Coordinator(c), modal, h.googleClientID))
}

func (h *PageHandler) Post(c echo.Context) error {
	page := h.page(c, siteTitle)

	post, err := h.posts.Get(c.Param("slug"))
	if errors.Is(err, domain.ErrPostNotFound) {
		page.Title = "Post not found | " + siteTitle
		return c.Render(http.StatusNotFound, view.PagePostNotFound, page)
	}
	if err != nil {
		return err
	}

	page.Title = post.Title + " | " + siteTitle
	page.Post = post
	return c.Render(http.StatusOK, view.PagePost, page)
}

// Dashboard renders the dashboard of role. It runs behind RequireRole, so
// the session identity is present and resolved to role.
func (h *PageHandler) Dashboard(role domain.Role) echo.HandlerFunc {
	return func(c echo.Context) error {
		page := h.page(c, role.Title()+" Dashboard | "+siteTitle)

		start := time.Now()
		page.Dashboard = h.dashboards.Load(c.Request().Context(), page.State.Identity, role)
		metrics.DashboardLoadDuration.
			WithLabelValues(string(role), string(page.Dashboard.Status)).
			Observe(time.Since(start).Seconds())

		return c.Render(http.StatusOK, view.PageDashboard, page)
	}
}

// Fallback sends unknown paths to the user's dashboard, or home.
func (h *PageHandler) Fallback(c echo.Context) error {
	target := service.Fallback(stateOf(c))
	metrics.GateDecisionsTotal.WithLabelValues("fallback", "redirect").Inc()
	return c.Redirect(http.StatusFound, target)
}

func (h *PageHandler) page(c echo.Context, title string) view.Page {
	return view.Page{
		Title:          title,
		State:          stateOf(c),
		GoogleClientID: h.googleClientID,
	}
}

func homePage(coord *service.Coordinator, modal *view.Modal, googleClientID string) view.Page {
	state := domain.AuthState{Kind: domain.StateInitializing}
	if coord != nil {
		state = coord.State()
	}
	return view.Page{
		Title:          siteTitle + " | Learning Platform",
		State:          state,
		Modal:          modal,
		GoogleClientID: googleClientID,
		Features:       view.Features,
	}
}

func stateOf(c echo.Context) domain.AuthState {
	if coord := middleware.Coordinator(c); coord != nil {
		return coord.State()
	}
	return domain.AuthState{Kind: domain.StateInitializing}
}
