package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/oracadehub/learning-portal/internal/api/metrics"
	"github.com/oracadehub/learning-portal/internal/api/middleware"
	"github.com/oracadehub/learning-portal/internal/api/view"
	"github.com/oracadehub/learning-portal/internal/core/domain"
	"github.com/oracadehub/learning-portal/internal/core/ports"
	"github.com/oracadehub/learning-portal/internal/core/service"
)

// MsgPasswordMismatch is the form-level error of a sign-up whose passwords differ.
const MsgPasswordMismatch = "Passwords do not match."

var errInvalidPayload = errors.New("invalid payload")

// AuthHandler drives the session coordinator from the sign-in forms and the
// JSON API. Form posts answer with a redirect; JSON requests get the
// resulting session snapshot.
type AuthHandler struct {
	googleClientID string
}

func NewAuthHandler(googleClientID string) *AuthHandler {
	return &AuthHandler{googleClientID: googleClientID}
}

type loginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
	Role     string `json:"role,omitempty" form:"role" validate:"omitempty,oneof=student instructor"`
}

type signUpRequest struct {
	Email           string `json:"email" form:"email" validate:"required"`
	Password        string `json:"password" form:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password,omitempty" form:"confirm_password"`
	Role            string `json:"role" form:"role" validate:"required,oneof=student instructor"`
}

type federatedRequest struct {
	Role string `json:"role,omitempty" form:"role" validate:"omitempty,oneof=student instructor"`
	// Credential is the provider access token obtained by the browser.
	Credential string `json:"credential,omitempty" form:"credential"`
	// Failure is the browser-reported reason the interactive window failed.
	Failure string `json:"failure,omitempty" form:"failure"`
}

// sessionResponse is the JSON view of a coordinator.
type sessionResponse struct {
	State    domain.AuthState `json:"state"`
	Redirect string           `json:"redirect,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Login signs in with email and password.
//
// @Summary      Password sign-in
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials and optional role intent"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorBody
// @Failure      422   {object}  sessionResponse
// @Failure      429   {object}  errorBody
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.invalid(c, &view.Modal{Role: roleOf(req.Role)}, err.Error())
	}

	coord := middleware.Coordinator(c)
	coord.SignInWithPassword(c.Request().Context(), req.Email, req.Password, rolePtr(req.Role))

	return h.settle(c, coord, "password", &view.Modal{Role: roleOf(req.Role)})
}

// SignUp creates an account and assigns its role.
//
// @Summary      Password sign-up
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      signUpRequest  true  "Credentials and the role to assign"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorBody
// @Failure      422   {object}  sessionResponse
// @Failure      429   {object}  errorBody
// @Router       /auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	modal := &view.Modal{SignUp: true}
	if err := bindAndValidate(c, &req); err != nil {
		modal.Role = roleOf(req.Role)
		return h.invalid(c, modal, err.Error())
	}
	modal.Role = roleOf(req.Role)

	// Browsers always send the confirmation; API clients may leave it out.
	if req.ConfirmPassword != req.Password && (req.ConfirmPassword != "" || !wantsJSON(c)) {
		return h.invalid(c, modal, MsgPasswordMismatch)
	}

	coord := middleware.Coordinator(c)
	coord.SignUpWithPassword(c.Request().Context(), req.Email, req.Password, modal.Role)

	return h.settle(c, coord, "signup", modal)
}

// Federated completes an interactive Google sign-in, or answers with the
// provider URL to continue with a full-page redirect when the browser could
// not open the sign-in window.
//
// @Summary      Federated sign-in
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      federatedRequest  true  "Provider credential or failure reason"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorBody
// @Failure      422   {object}  sessionResponse
// @Router       /auth/federated [post]
func (h *AuthHandler) Federated(c echo.Context) error {
	var req federatedRequest
	if err := bindAndValidate(c, &req); err != nil {
		return h.invalid(c, &view.Modal{Role: roleOf(req.Role)}, err.Error())
	}

	coord := middleware.Coordinator(c)
	redirect := coord.SignInWithFederatedProvider(c.Request().Context(), rolePtr(req.Role), ports.PopupAttempt{
		Credential: req.Credential,
		Failure:    req.Failure,
	})

	if redirect != "" {
		metrics.AuthAttemptsTotal.WithLabelValues("federated", "redirect").Inc()
		if wantsJSON(c) {
			return c.JSON(http.StatusOK, sessionResponse{State: coord.State(), Redirect: redirect})
		}
		return c.Redirect(http.StatusSeeOther, redirect)
	}

	state := coord.State()
	if state.Kind != domain.StateError && state.Identity == nil {
		// The user closed the window: nothing changed.
		metrics.AuthAttemptsTotal.WithLabelValues("federated", "cancelled").Inc()
		if wantsJSON(c) {
			return c.JSON(http.StatusOK, sessionResponse{State: state})
		}
		return c.Redirect(http.StatusSeeOther, modalURL(&view.Modal{Role: roleOf(req.Role)}))
	}

	return h.settle(c, coord, "federated", &view.Modal{Role: roleOf(req.Role)})
}

// Callback resumes a redirect sign-in when the provider sends the browser back.
//
// @Summary      Federated redirect callback
// @Tags         auth
// @Param        state  query  string  false  "Opaque state issued with the redirect"
// @Param        code   query  string  false  "Authorization code"
// @Param        error  query  string  false  "Provider error"
// @Success      303
// @Router       /auth/callback [get]
func (h *AuthHandler) Callback(c echo.Context) error {
	coord := middleware.Coordinator(c)
	coord.ResumeRedirect(c.Request().Context(), ports.RedirectCallback{
		State: c.QueryParam("state"),
		Code:  c.QueryParam("code"),
		Error: c.QueryParam("error"),
	})

	state := coord.State()
	result := "ok"
	switch {
	case state.Kind == domain.StateError:
		result = "error"
	case state.Identity == nil:
		result = "cancelled"
	}
	metrics.AuthAttemptsTotal.WithLabelValues("redirect", result).Inc()

	if err := rotateIfSignedIn(c, state); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, landing(state))
}

// SignOut ends the session. On failure the user stays signed in and the
// error is shown in the navbar.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Failure      422  {object}  sessionResponse
// @Router       /auth/signout [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	coord := middleware.Coordinator(c)
	coord.SignOut(c.Request().Context())

	state := coord.State()
	result := "ok"
	if state.Kind == domain.StateError {
		result = "error"
	}
	metrics.AuthAttemptsTotal.WithLabelValues("signout", result).Inc()

	if wantsJSON(c) {
		return c.JSON(statusOf(state), sessionResponse{State: state})
	}
	return c.Redirect(http.StatusSeeOther, landing(state))
}

// settle answers a finished sign-in or sign-up. A failed form submission
// goes back to the modal, where the coordinator's message is displayed.
func (h *AuthHandler) settle(c echo.Context, coord *service.Coordinator, method string, modal *view.Modal) error {
	state := coord.State()
	result := "ok"
	if state.Kind == domain.StateError {
		result = "error"
	}
	metrics.AuthAttemptsTotal.WithLabelValues(method, result).Inc()

	if err := rotateIfSignedIn(c, state); err != nil {
		return err
	}

	if wantsJSON(c) {
		return c.JSON(statusOf(state), sessionResponse{State: state})
	}
	if state.Kind == domain.StateError {
		return c.Redirect(http.StatusSeeOther, modalURL(modal))
	}
	return c.Redirect(http.StatusSeeOther, landing(state))
}

// invalid rejects a request before it reached the coordinator.
func (h *AuthHandler) invalid(c echo.Context, modal *view.Modal, msg string) error {
	if wantsJSON(c) {
		return c.JSON(http.StatusBadRequest, errorBody{Error: msg})
	}
	modal.Error = msg
	page := homePage(middleware.Coordinator(c), modal, h.googleClientID)
	return c.Render(http.StatusUnprocessableEntity, view.PageHome, page)
}

// rotateIfSignedIn gives a session that now carries an identity a fresh id,
// so an id known before sign-in cannot be used to ride the session.
func rotateIfSignedIn(c echo.Context, state domain.AuthState) error {
	if state.Identity == nil {
		return nil
	}
	return middleware.RotateSession(c)
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return errInvalidPayload
	}
	return c.Validate(req)
}

func wantsJSON(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

func statusOf(state domain.AuthState) int {
	if state.Kind == domain.StateError {
		return http.StatusUnprocessableEntity
	}
	return http.StatusOK
}

// landing is where the browser goes once an operation settled.
func landing(state domain.AuthState) string {
	if state.Identity != nil && state.Role.Valid() {
		return state.Role.DashboardPath()
	}
	return "/"
}

// modalURL reopens the sign-in dialog on the home page.
func modalURL(m *view.Modal) string {
	q := url.Values{}
	if m.SignUp {
		q.Set("auth", "signup")
	} else {
		q.Set("auth", "login")
	}
	if m.Role.Valid() {
		q.Set("role", string(m.Role))
	}
	return "/?" + q.Encode()
}

func roleOf(s string) domain.Role {
	r, _ := domain.ParseRole(s)
	return r
}

func rolePtr(s string) *domain.Role {
	r, ok := domain.ParseRole(s)
	if !ok {
		return nil
	}
	return &r
}
