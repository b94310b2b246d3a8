package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/minishop/internal/logging"
	authmw "github.com/Skotchmaster/minishop/internal/middleware/auth"
	"github.com/Skotchmaster/minishop/internal/transport"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	CartHandler    *CartHTTP
	Session        *authmw.SessionAuth
	DB             Pinger
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Welcome to the shop API"})
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", d.ready)

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/logout", d.AuthHandler.Logout, d.Session.RequireSession)

	products := e.Group("/api/products")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/search", d.CatalogHandler.SearchProducts)
	products.GET("/:id", d.CatalogHandler.GetProduct)

	productsPriv := products.Group("", d.Session.RequireSession)
	productsPriv.POST("/add", d.CatalogHandler.CreateProduct)
	productsPriv.PUT("/update/:id", d.CatalogHandler.UpdateProduct)
	productsPriv.PATCH("/update/:id", d.CatalogHandler.UpdateProduct)
	productsPriv.DELETE("/delete/:id", d.CatalogHandler.DeleteProduct)

	cart := e.Group("/api/cart", d.Session.RequireSession)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("/add/:id", d.CartHandler.AddToCart)
	cart.DELETE("/remove/:id", d.CartHandler.RemoveFromCart)
	cart.POST("/checkout", d.CartHandler.Checkout)
}

func (d *Deps) ready(c echo.Context) error {
	if d.DB == nil {
		return c.NoContent(http.StatusOK)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := d.DB.PingContext(ctx); err != nil {
		logging.FromContext(ctx).Error("readiness_failed", "error", err)
		return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
	}
	return c.NoContent(http.StatusOK)
}
