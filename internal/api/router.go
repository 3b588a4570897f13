package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/oracadehub/learning-portal/docs"
	"github.com/oracadehub/learning-portal/internal/api/handler"
	"github.com/oracadehub/learning-portal/internal/api/middleware"
	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
)

// Deps are the collaborators the router wires into handlers and middleware.
type Deps struct {
	Sessions       middleware.SessionResolver
	RateLimiter    *middleware.RateLimiter
	Renderer       echo.Renderer
	Posts          handler.PostSource
	Dashboards     ports.DashboardService
	Checks         map[string]handler.Check
	GoogleClientID string
	Log            zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = d.Renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace: "portal",
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Operational endpoints (no session) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Checks).Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Session-bound routes ---
	pages := handler.NewPageHandler(d.Posts, d.Dashboards, d.GoogleClientID)
	auth := handler.NewAuthHandler(d.GoogleClientID)
	session := handler.NewSessionHandler()

	s := e.Group("", middleware.Session(d.Sessions))

	s.GET("/", pages.Home, middleware.PublicOnly())
	s.GET("/blog/:slug", pages.Post, middleware.PublicOnly())

	for _, role := range []domain.Role{domain.RoleStudent, domain.RoleInstructor} {
		dashboard := pages.Dashboard(role)
		g := s.Group("/"+string(role)+"/dashboard", middleware.RequireRole(role))
		g.GET("", dashboard)
		g.GET("/*", dashboard)
	}

	a := s.Group("/auth", d.RateLimiter.Middleware())
	a.POST("/login", auth.Login)
	a.POST("/signup", auth.SignUp)
	a.POST("/federated", auth.Federated)
	a.GET("/callback", auth.Callback)
	a.POST("/signout", auth.SignOut)

	s.GET("/api/session", session.Get)

	s.Any("/*", pages.Fallback)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/health" || p == "/metrics"
		},
		LogStatus:    true,
		LogURI:       true,
		LogError:     true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Error().Err(v.Error)
			} else if v.Status >= http.StatusInternalServerError {
				ev = log.Warn()
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Str("request_id", v.RequestID).
				Dur("latency", v.Latency).
				Msg("request completed")
			return nil
		},
	})
}
