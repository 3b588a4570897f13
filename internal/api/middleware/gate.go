package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/oracadehub/learning-portal/internal/api/metrics"
	"github.com/oracadehub/learning-portal/internal/api/view"
	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/service"
)

// loadingRefreshSeconds is how soon the placeholder page reloads itself.
const loadingRefreshSeconds = 1

// RequireRole lets a request through only when the session's identity
// resolved to role. Requests arriving while the coordinator is settling get
// the placeholder page.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	section := string(role)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state := stateOf(c)
			decision := service.Gate(state, role)
			metrics.GateDecisionsTotal.WithLabelValues(section, decision.String()).Inc()

			switch decision {
			case service.Loading:
				return renderLoading(c)
			case service.RedirectHome:
				return c.Redirect(http.StatusFound, "/")
			default:
				return next(c)
			}
		}
	}
}

// PublicOnly sends signed-in users with a resolved role to their dashboard.
func PublicOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision, path := service.PublicOnly(stateOf(c))
			metrics.GateDecisionsTotal.WithLabelValues("public", decision.String()).Inc()

			switch decision {
			case service.Loading:
				return renderLoading(c)
			case service.RedirectDashboard:
				return c.Redirect(http.StatusFound, path)
			default:
				return next(c)
			}
		}
	}
}

func stateOf(c echo.Context) domain.AuthState {
	coord := Coordinator(c)
	if coord == nil {
		return domain.AuthState{Kind: domain.StateInitializing}
	}
	return coord.State()
}

func renderLoading(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Render(http.StatusOK, view.PageLoading, view.Page{Bare: true, Refresh: loadingRefreshSeconds})
}
