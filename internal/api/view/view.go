// Package view renders the portal's server-side HTML pages.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
)

//go:embed templates/*.html
var templates embed.FS

// Page names accepted by Renderer.Render.
const (
	PageHome         = "home"
	PagePost         = "post"
	PagePostNotFound = "post_not_found"
	PageDashboard    = "dashboard"
	PageLoading      = "loading"
)

var pageFiles = map[string]string{
	PageHome:         "templates/home.html",
	PagePost:         "templates/post.html",
	PagePostNotFound: "templates/post_not_found.html",
	PageDashboard:    "templates/dashboard.html",
	PageLoading:      "templates/loading.html",
}

// Feature is a card of the home page carousel linking to a blog post.
type Feature struct {
	Slug        string
	Title       string
	Description string
}

var Features = []Feature{
	{"quality-content", "Quality Content", "Access high-quality video lessons and learning materials created by expert teachers."},
	{"interactive-learning", "Interactive Learning", "Engage with teachers and fellow students through our Q&A system and discussions."},
	{"track-progress", "Track Progress", "Monitor your learning journey and earn certificates upon course completion."},
	{"flexible-scheduling", "Flexible Scheduling", "Learn at your own pace with courses designed to fit your busy schedule."},
	{"community-forum", "Community Forum", "Connect with peers, ask questions, and share insights in our dedicated forums."},
	{"official-certification", "Official Certification", "Receive recognized certificates upon successful completion of courses."},
}

// Modal is the sign-in / sign-up dialog. A nil *Modal means closed.
type Modal struct {
	Role   domain.Role
	SignUp bool
	// Error is a form-level message (e.g. mismatched passwords) shown
	// before the coordinator's own error.
	Error string
}

// Title is "<Role> Login", "<Role> Sign Up", or "<Action> to OracadeHub"
// when no role was picked.
func (m *Modal) Title() string {
	action := "Login"
	if m.SignUp {
		action = "Sign Up"
	}
	if r := m.Role.Title(); r != "" {
		return r + " " + action
	}
	return action + " to OracadeHub"
}

// Page is the data every template receives.
type Page struct {
	Title          string
	State          domain.AuthState
	Modal          *Modal
	GoogleClientID string
	// Refresh makes the browser reload the page after that many seconds.
	Refresh int
	// Bare hides the navbar and footer.
	Bare bool

	Features  []Feature
	Post      domain.Post
	Dashboard ports.DashboardView
}

// NavbarError is the coordinator message shown under the navbar. It is
// hidden while the modal is open since the modal shows it instead.
func (p Page) NavbarError() string {
	if p.Modal != nil {
		return ""
	}
	return p.State.Message
}

// ModalError prefers the form-level message over the coordinator's.
func (p Page) ModalError() string {
	if p.Modal == nil {
		return ""
	}
	if p.Modal.Error != "" {
		return p.Modal.Error
	}
	return p.State.Message
}

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	pages map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"year": func() int { return time.Now().Year() },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("Jan 2, 2006")
		},
	}

	base, err := template.New("layout.html").Funcs(funcs).ParseFS(templates, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageFiles))}
	for name, file := range pageFiles {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		t, err := clone.ParseFS(templates, file)
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
