package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/minishop/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/minishop/internal/middleware/logging"
)

type Options struct {
	Logger       *slog.Logger
	CSRF         bool
	CookieSecure bool
}

// New builds the echo instance with the common middleware stack.
func New(opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	if opts.Logger != nil {
		e.Use(loggingmw.RequestLogger(opts.Logger))
	}
	e.Use(echomw.CORS())
	if opts.CSRF {
		e.Use(csrf.Middleware(csrf.Config{
			Secure:    opts.CookieSecure,
			SkipPaths: []string{"/login", "/register"},
		}))
	}
	return e
}
