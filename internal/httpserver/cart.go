package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/minishop/internal/logging"
	authmw "github.com/Skotchmaster/minishop/internal/middleware/auth"
	"github.com/Skotchmaster/minishop/internal/service"
	"github.com/Skotchmaster/minishop/internal/transport"
	"github.com/Skotchmaster/minishop/internal/util"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	p, ok := authmw.FromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}

	lines, err := h.Svc.View(ctx, p.UserID)
	if err != nil {
		return fail(l, "get_cart_failed", err, "")
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	p, ok := authmw.FromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	productID, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(l, "add_to_cart_failed", "invalid product id", err)
	}

	if _, err := h.Svc.Add(ctx, p.UserID, productID); err != nil {
		return fail(l, "add_to_cart_failed", err, "user or product does not exist")
	}

	l.Info("add_to_cart_success", "product_id", productID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product added to cart"})
}

// RemoveFromCart answers 400 when the caller holds no unit of the product,
// including when a concurrent request removed it first.
func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	p, ok := authmw.FromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}
	productID, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(l, "remove_from_cart_failed", "invalid product id", err)
	}

	if _, err := h.Svc.Remove(ctx, p.UserID, productID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return badRequest(l, "remove_from_cart_failed", "product is not in the cart", err)
		}
		return fail(l, "remove_from_cart_failed", err, "")
	}

	l.Info("remove_from_cart_success", "product_id", productID)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product removed from cart"})
}

func (h *CartHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	p, ok := authmw.FromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}

	removed, err := h.Svc.Checkout(ctx, p.UserID)
	if err != nil {
		return fail(l, "checkout_failed", err, "")
	}

	l.Info("checkout_success", "removed", removed)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Checkout successful",
		"removed": removed,
	})
}
