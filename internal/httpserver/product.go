package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/minishop/internal/logging"
	"github.com/Skotchmaster/minishop/internal/service"
	"github.com/Skotchmaster/minishop/internal/transport"
	"github.com/Skotchmaster/minishop/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(l, "get_product_failed", "invalid product id", err)
	}

	product, err := h.Svc.Get(ctx, id)
	if err != nil {
		return fail(l, "get_product_failed", err, "product not found")
	}

	return c.JSON(http.StatusOK, product)
}

// GetProducts lists products without descriptions. page and size are
// optional; without them every product is returned.
func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	offset, limit, _, err := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))
	if err != nil {
		return badRequest(l, "get_products_failed", err.Error(), err)
	}

	items, err := h.Svc.List(ctx, offset, limit)
	if err != nil {
		return fail(l, "get_products_failed", err, "")
	}

	out := make([]transport.ProductSummary, len(items))
	for i, p := range items {
		out[i] = transport.ProductSummary{ID: p.ID, Name: p.Name, Price: p.Price}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	offset, limit, ok, err := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))
	if err != nil {
		return badRequest(l, "search_failed", err.Error(), err)
	}
	if !ok {
		offset, limit = util.Calculate(1, util.DefaultPageSize)
	}

	total, items, err := h.Svc.Search(ctx, c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(l, "search_failed", err, "query parameter q is required")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total":    total,
		"products": items,
	})
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_create_error", "invalid body", err)
	}

	product, err := h.Svc.Create(ctx, req)
	if err != nil {
		return fail(l, "product_create_error", err, validationMsg(err))
	}

	l.Info("product_created", "product_id", product.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Product added successfully",
		"id":      product.ID,
	})
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.update")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(l, "product_update_error", "invalid product id", err)
	}

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_update_error", "invalid body", err)
	}

	if _, err := h.Svc.Patch(ctx, id, req); err != nil {
		return fail(l, "product_update_error", err, updateMsg(err))
	}

	l.Info("product_updated", "product_id", id)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product updated successfully"})
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete")

	id, err := util.ParseID(c.Param("id"))
	if err != nil {
		return badRequest(l, "product_delete_error", "invalid product id", err)
	}

	removed, err := h.Svc.Delete(ctx, id)
	if err != nil {
		return fail(l, "product_delete_error", err, "product not found")
	}

	l.Info("product_deleted", "product_id", id, "removed_cart_items", removed)
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Product deleted successfully"})
}

func updateMsg(err error) string {
	if errors.Is(err, service.ErrNotFound) {
		return "product not found"
	}
	return validationMsg(err)
}
