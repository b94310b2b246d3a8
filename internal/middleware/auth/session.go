package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/minishop/internal/logging"
	"github.com/Skotchmaster/minishop/internal/service"
	"github.com/Skotchmaster/minishop/internal/tokens"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*service.Principal, error)
}

type SessionAuth struct {
	Auth         Authenticator
	CookieSecure bool
}

func NewSessionAuth(a Authenticator, cookieSecure bool) *SessionAuth {
	return &SessionAuth{Auth: a, CookieSecure: cookieSecure}
}

// RequireSession resolves the session cookie to a user and binds it to the
// request context. Requests without a live session get 401.
func (m *SessionAuth) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("mw", "require_session")

		cookie, err := c.Cookie(tokens.SessionCookie)
		if err != nil || cookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
		}

		p, err := m.Auth.Authenticate(ctx, cookie.Value)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				l.Info("session_rejected", "reason", err.Error())
				c.SetCookie(tokens.DeleteCookie(tokens.SessionCookie, "/", m.CookieSecure))
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
			}
			l.Error("session_lookup_failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		ctx = IntoContext(ctx, p)
		ctx = logging.IntoContext(ctx, logging.FromContext(ctx).With("user_id", p.UserID))
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

type principalKey struct{}

func IntoContext(ctx context.Context, p *service.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal bound by RequireSession, if any.
func FromContext(ctx context.Context) (*service.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*service.Principal)
	return p, ok && p != nil
}
