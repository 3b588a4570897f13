package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/oracadehub/learning-portal/internal/core/service"
)

const (
	ctxCoordinator = "coordinator"
	ctxRotator     = "session_rotator"
)

// SessionResolver finds or creates the coordinator of a request's browser
// session.
type SessionResolver interface {
	Resolve(c echo.Context) (*service.Coordinator, error)
}

// SessionRotator replaces the session id of a request after sign-in.
type SessionRotator interface {
	Rotate(c echo.Context) error
}

// Session resolves the browser session and injects its coordinator into the
// context.
func Session(resolver SessionResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			coord, err := resolver.Resolve(c)
			if err != nil {
				return err
			}
			SetCoordinator(c, coord)
			if r, ok := resolver.(SessionRotator); ok {
				SetSessionRotator(c, r)
			}
			return next(c)
		}
	}
}

// SetCoordinator stores coord in the request context.
func SetCoordinator(c echo.Context, coord *service.Coordinator) {
	c.Set(ctxCoordinator, coord)
}

// Coordinator returns the coordinator injected by Session, or nil.
func Coordinator(c echo.Context) *service.Coordinator {
	coord, _ := c.Get(ctxCoordinator).(*service.Coordinator)
	return coord
}

// SetSessionRotator stores r in the request context.
func SetSessionRotator(c echo.Context, r SessionRotator) {
	c.Set(ctxRotator, r)
}

// RotateSession issues a new session id for the request. It does nothing
// when the session layer cannot rotate.
func RotateSession(c echo.Context) error {
	r, ok := c.Get(ctxRotator).(SessionRotator)
	if !ok {
		return nil
	}
	return r.Rotate(c)
}
