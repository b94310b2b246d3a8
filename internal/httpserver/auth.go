package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/minishop/internal/logging"
	authmw "github.com/Skotchmaster/minishop/internal/middleware/auth"
	"github.com/Skotchmaster/minishop/internal/service"
	"github.com/Skotchmaster/minishop/internal/tokens"
	"github.com/Skotchmaster/minishop/internal/transport"
)

type AuthHTTP struct {
	Svc          *service.AuthService
	CookieSecure bool
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_error", "invalid body", err)
	}

	user, err := h.Svc.Register(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "register_error", err, validationMsg(err))
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       user.ID,
		"username": user.Username,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_error", "invalid body", err)
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		return fail(l, "login_failed", err, "invalid username or password")
	}

	c.SetCookie(tokens.CreateCookie(tokens.SessionCookie, res.Token, "/", res.ExpiresAt, h.CookieSecure))
	l.Info("login_successful", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Logged in successfully"})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	p, ok := authmw.FromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}

	if err := h.Svc.Logout(ctx, p); err != nil {
		return fail(l, "logout_failed", err, "session already closed")
	}

	c.SetCookie(tokens.DeleteCookie(tokens.SessionCookie, "/", h.CookieSecure))
	l.Info("logout_successful")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Logged out successfully"})
}
