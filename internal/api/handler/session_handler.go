package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Get returns the coordinator state of the caller's browser session.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /api/session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, sessionResponse{State: stateOf(c)})
}
