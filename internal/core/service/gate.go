package service

import "github.com/oracadehub/learning-portal/internal/core/domain"

// Decision is the outcome of a route gate.
type Decision int

const (
	// Render lets the protected content through.
	Render Decision = iota
	// RedirectHome sends the browser to the public entry point.
	RedirectHome
	// Loading shows the placeholder while the coordinator settles.
	Loading
	// RedirectDashboard sends a signed-in user to their own dashboard.
	RedirectDashboard
)

func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case RedirectHome:
		return "redirect"
	case Loading:
		return "loading"
	case RedirectDashboard:
		return "dashboard"
	default:
		return "unknown"
	}
}

// Gate projects a coordinator state onto a protected section that requires
// role. It has no side effects.
func Gate(state domain.AuthState, required domain.Role) Decision {
	if state.Kind == domain.StateInitializing || state.Loading {
		return Loading
	}
	if state.Identity == nil {
		return RedirectHome
	}
	if !state.HasRole(required) {
		return RedirectHome
	}
	return Render
}

// PublicOnly decides public pages: an authenticated user with a resolved role
// is sent to their dashboard, everyone else sees the page. The returned path
// is empty when the page should render.
func PublicOnly(state domain.AuthState) (Decision, string) {
	if state.Kind == domain.StateInitializing || state.Loading {
		return Loading, ""
	}
	if state.Identity != nil && state.Role.Valid() {
		return RedirectDashboard, state.Role.DashboardPath()
	}
	return Render, ""
}

// Fallback returns where an unknown path should send the browser.
func Fallback(state domain.AuthState) string {
	if state.Identity != nil && state.Role.Valid() {
		return state.Role.DashboardPath()
	}
	return "/"
}
